// Package accessscope implements component A: a fixed-width bitset over
// core.AccessIndex values, used to represent both a single access's
// membership and a barrier's accumulated access scope.
package accessscope

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"

	"github.com/ehrlich-b/go-syncval/internal/core"
)

// Scope is a set of core.AccessIndex values. The zero value is not
// usable; construct with New.
type Scope struct {
	bits *bitset.BitSet
}

// New returns an empty Scope sized to hold every known AccessIndex.
func New() Scope {
	return Scope{bits: bitset.New(uint(core.NumAccessIndices))}
}

// Of returns a Scope containing exactly the given indices.
func Of(indices ...core.AccessIndex) Scope {
	s := New()
	for _, idx := range indices {
		s.Set(idx)
	}
	return s
}

// Set adds idx to s.
func (s Scope) Set(idx core.AccessIndex) {
	s.bits.Set(uint(idx))
}

// Clear removes idx from s.
func (s Scope) Clear(idx core.AccessIndex) {
	s.bits.Clear(uint(idx))
}

// Test reports whether idx is a member of s.
func (s Scope) Test(idx core.AccessIndex) bool {
	return s.bits.Test(uint(idx))
}

// Any reports whether s has any member.
func (s Scope) Any() bool {
	return s.bits.Any()
}

// None reports whether s is empty.
func (s Scope) None() bool {
	return s.bits.None()
}

// Count returns the number of members of s.
func (s Scope) Count() uint {
	return s.bits.Count()
}

// Union returns s | other as a new Scope; s and other are unmodified.
func (s Scope) Union(other Scope) Scope {
	return Scope{bits: s.bits.Union(other.bits)}
}

// Intersect returns s & other as a new Scope; s and other are unmodified.
func (s Scope) Intersect(other Scope) Scope {
	return Scope{bits: s.bits.Intersection(other.bits)}
}

// Difference returns s &^ other as a new Scope; s and other are unmodified.
func (s Scope) Difference(other Scope) Scope {
	return Scope{bits: s.bits.Difference(other.bits)}
}

// Intersects reports whether s and other share any member, without
// allocating an intermediate Scope.
func (s Scope) Intersects(other Scope) bool {
	return s.bits.IntersectionCardinality(other.bits) > 0
}

// Equal reports whether s and other contain exactly the same members.
func (s Scope) Equal(other Scope) bool {
	return s.bits.Equal(other.bits)
}

// Clone returns an independent copy of s.
func (s Scope) Clone() Scope {
	return Scope{bits: s.bits.Clone()}
}

// UnionInPlace adds every member of other into s.
func (s Scope) UnionInPlace(other Scope) {
	s.bits.InPlaceUnion(other.bits)
}

// IntersectInPlace removes from s every member not in other.
func (s Scope) IntersectInPlace(other Scope) {
	s.bits.InPlaceIntersection(other.bits)
}

// Indices returns the members of s as a sorted slice of AccessIndex.
func (s Scope) Indices() []core.AccessIndex {
	out := make([]core.AccessIndex, 0, s.bits.Count())
	for i, e := s.bits.NextSet(0); e; i, e = s.bits.NextSet(i + 1) {
		out = append(out, core.AccessIndex(i))
	}
	return out
}

// Hash returns a content hash of s, stable across process runs, suitable
// for deduplicating equal scopes (e.g. interning OrderingBarrier values
// that embed a Scope).
func (s Scope) Hash() uint64 {
	bytes, err := s.bits.MarshalBinary()
	if err != nil {
		// bitset.MarshalBinary never actually errors for an in-memory
		// BitSet; this guards against a future library change silently
		// making Hash non-deterministic.
		panic(fmt.Sprintf("accessscope: unexpected marshal error: %v", err))
	}
	return xxhash.Sum64(bytes)
}

func (s Scope) String() string {
	indices := s.Indices()
	names := make([]string, len(indices))
	for i, idx := range indices {
		names[i] = core.Info(idx).Name
	}
	return "{" + strings.Join(names, ", ") + "}"
}
