package core

// StageMask is a bitset of pipeline stages. It is fixed-width (64 bits)
// because the enumerated stage list, unlike the access-scope bitset, is
// small and closed.
type StageMask uint64

// Concrete pipeline stage bits, ordered by logical submission-order
// position (TopOfPipe earliest, BottomOfPipe latest). The order is load
// bearing: EarlierOrEqual/LaterOrEqual are derived from stage index, not
// from the bit position directly, but the two happen to coincide here for
// readability.
const (
	StageTopOfPipe StageMask = 1 << iota
	StageDrawIndirect
	StageVertexInput
	StageVertexShader
	StageTessellationControlShader
	StageTessellationEvaluationShader
	StageGeometryShader
	StageTransformFeedback
	StageEarlyFragmentTests
	StageFragmentShader
	StageLateFragmentTests
	StageColorAttachmentOutput
	StageComputeShader
	StageRayTracingShader
	StageAccelerationStructureBuild
	StageCopy
	StageResolve
	StageBlit
	StageHost
	StagePresentEngine
	StageBottomOfPipe

	// Meta-stages. These never appear in a stored AccessState; they are
	// expanded away by ExpandMeta before any
	// comparison against concrete stage bits.
	StageAllGraphics
	StageAllCommands
)

// stageOrder lists concrete stages in submission order; its index is used
// to build the EarlierOrEqual/LaterOrEqual tables.
var stageOrder = []StageMask{
	StageTopOfPipe,
	StageDrawIndirect,
	StageVertexInput,
	StageVertexShader,
	StageTessellationControlShader,
	StageTessellationEvaluationShader,
	StageGeometryShader,
	StageTransformFeedback,
	StageEarlyFragmentTests,
	StageFragmentShader,
	StageLateFragmentTests,
	StageColorAttachmentOutput,
	StageComputeShader,
	StageRayTracingShader,
	StageAccelerationStructureBuild,
	StageCopy,
	StageResolve,
	StageBlit,
	StageHost,
	StagePresentEngine,
	StageBottomOfPipe,
}

// graphicsStages is the set of stages that belong to the graphics
// pipeline proper — what ALL_GRAPHICS expands to.
const graphicsStages = StageDrawIndirect | StageVertexInput | StageVertexShader |
	StageTessellationControlShader | StageTessellationEvaluationShader | StageGeometryShader |
	StageTransformFeedback | StageEarlyFragmentTests | StageFragmentShader |
	StageLateFragmentTests | StageColorAttachmentOutput

var (
	earlierOrEqual = make(map[StageMask]StageMask, len(stageOrder))
	laterOrEqual   = make(map[StageMask]StageMask, len(stageOrder))
)

func init() {
	var earlier StageMask
	for _, s := range stageOrder {
		earlier |= s
		earlierOrEqual[s] = earlier
	}
	var later StageMask
	for i := len(stageOrder) - 1; i >= 0; i-- {
		s := stageOrder[i]
		later |= s
		laterOrEqual[s] = later
	}
}

// AllGraphicsStages returns the concrete stage mask ALL_GRAPHICS expands
// to for a queue supporting the given families.
func AllGraphicsStages(flags QueueFlags) StageMask {
	if flags&QueueGraphics == 0 {
		return 0
	}
	return graphicsStages
}

// AllCommandsStages returns the concrete stage mask ALL_COMMANDS expands
// to for a queue supporting the given families, after subtracting any
// disabled stages.
func AllCommandsStages(flags QueueFlags, disabled StageMask) StageMask {
	var mask StageMask
	if flags&QueueGraphics != 0 {
		mask |= graphicsStages
	}
	if flags&QueueCompute != 0 {
		mask |= StageComputeShader | StageAccelerationStructureBuild | StageRayTracingShader
	}
	if flags&QueueTransfer != 0 {
		mask |= StageCopy | StageResolve | StageBlit
	}
	mask |= StageTopOfPipe | StageBottomOfPipe | StageHost
	return mask &^ disabled
}

// ExpandMeta replaces any meta-stage bits in mask with their concrete
// expansion for the given queue, leaving already-concrete bits alone.
func ExpandMeta(mask StageMask, flags QueueFlags, disabled StageMask) StageMask {
	out := mask &^ (StageAllGraphics | StageAllCommands)
	if mask&StageAllGraphics != 0 {
		out |= AllGraphicsStages(flags)
	}
	if mask&StageAllCommands != 0 {
		out |= AllCommandsStages(flags, disabled)
	}
	return out &^ disabled
}

// EarlierOrEqual returns, for each concrete stage bit set in mask, the
// union of that stage and every stage logically earlier than it in
// submission order.
func EarlierOrEqual(mask StageMask) StageMask {
	var out StageMask
	for _, s := range stageOrder {
		if mask&s != 0 {
			out |= earlierOrEqual[s]
		}
	}
	return out
}

// LaterOrEqual returns, for each concrete stage bit set in mask, the
// union of that stage and every stage logically later than it in
// submission order.
func LaterOrEqual(mask StageMask) StageMask {
	var out StageMask
	for _, s := range stageOrder {
		if mask&s != 0 {
			out |= laterOrEqual[s]
		}
	}
	return out
}

// Stages returns the list of concrete stage bits set in mask.
func (m StageMask) Stages() []StageMask {
	var out []StageMask
	for _, s := range stageOrder {
		if m&s != 0 {
			out = append(out, s)
		}
	}
	return out
}

// Any reports whether any bit is set.
func (m StageMask) Any() bool { return m != 0 }

// None reports whether no bit is set.
func (m StageMask) None() bool { return m == 0 }

var stageNames = map[StageMask]string{
	StageTopOfPipe:                    "TOP_OF_PIPE",
	StageDrawIndirect:                 "DRAW_INDIRECT",
	StageVertexInput:                  "VERTEX_INPUT",
	StageVertexShader:                 "VERTEX_SHADER",
	StageTessellationControlShader:    "TESSELLATION_CONTROL_SHADER",
	StageTessellationEvaluationShader: "TESSELLATION_EVALUATION_SHADER",
	StageGeometryShader:               "GEOMETRY_SHADER",
	StageTransformFeedback:            "TRANSFORM_FEEDBACK",
	StageEarlyFragmentTests:           "EARLY_FRAGMENT_TESTS",
	StageFragmentShader:               "FRAGMENT_SHADER",
	StageLateFragmentTests:            "LATE_FRAGMENT_TESTS",
	StageColorAttachmentOutput:        "COLOR_ATTACHMENT_OUTPUT",
	StageComputeShader:                "COMPUTE_SHADER",
	StageRayTracingShader:             "RAY_TRACING_SHADER",
	StageAccelerationStructureBuild:   "ACCELERATION_STRUCTURE_BUILD",
	StageCopy:                         "COPY",
	StageResolve:                      "RESOLVE",
	StageBlit:                         "BLIT",
	StageHost:                         "HOST",
	StagePresentEngine:                "PRESENT_ENGINE",
	StageBottomOfPipe:                 "BOTTOM_OF_PIPE",
	StageAllGraphics:                  "ALL_GRAPHICS",
	StageAllCommands:                  "ALL_COMMANDS",
}

func (m StageMask) String() string {
	if name, ok := stageNames[m]; ok {
		return name
	}
	s := "("
	first := true
	for _, bit := range stageOrder {
		if m&bit != 0 {
			if !first {
				s += "|"
			}
			s += stageNames[bit]
			first = false
		}
	}
	return s + ")"
}
