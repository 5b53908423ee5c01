package core

// AccessIndex enumerates one atomic (stage, access-kind) pair — the atom
// of the access-scope bitset (component A). The zero value, AccessNone,
// is a sentinel meaning "no access yet" used only for placeholder writes
// created ahead of a pending image-layout transition.
type AccessIndex int

// AccessKind classifies an AccessIndex as a read or a write.
type AccessKind uint8

const (
	KindRead AccessKind = iota
	KindWrite
)

// AccessInfo is a static table entry describing one AccessIndex: the
// stage it executes in and whether it reads or writes.
type AccessInfo struct {
	Name  string
	Stage StageMask
	Kind  AccessKind
}

// Concrete access indices. This table is intentionally smaller than the
// several-hundred-entry table a full GPU API binds (which enumerates
// every stage/access-kind combination an API surface exposes); it is
// representative of every stage and access family the synchronization
// core's algorithms need to exercise, which is what determines behavior.
const (
	AccessNone AccessIndex = iota

	AccessIndirectCommandRead

	AccessIndexRead
	AccessVertexAttributeRead

	AccessVertexShaderUniformRead
	AccessVertexShaderSampledRead
	AccessVertexShaderStorageRead
	AccessVertexShaderStorageWrite

	AccessTessellationControlShaderUniformRead
	AccessTessellationControlShaderSampledRead
	AccessTessellationControlShaderStorageRead
	AccessTessellationControlShaderStorageWrite

	AccessTessellationEvaluationShaderUniformRead
	AccessTessellationEvaluationShaderSampledRead
	AccessTessellationEvaluationShaderStorageRead
	AccessTessellationEvaluationShaderStorageWrite

	AccessGeometryShaderUniformRead
	AccessGeometryShaderSampledRead
	AccessGeometryShaderStorageRead
	AccessGeometryShaderStorageWrite

	AccessTransformFeedbackWrite
	AccessTransformFeedbackCounterRead
	AccessTransformFeedbackCounterWrite

	AccessEarlyFragmentTestsDepthStencilRead
	AccessEarlyFragmentTestsDepthStencilWrite

	AccessFragmentShaderUniformRead
	AccessFragmentShaderSampledRead
	AccessFragmentShaderStorageRead
	AccessFragmentShaderStorageWrite
	AccessFragmentShaderInputAttachmentRead

	AccessLateFragmentTestsDepthStencilRead
	AccessLateFragmentTestsDepthStencilWrite

	AccessColorAttachmentRead
	AccessColorAttachmentWrite

	AccessComputeShaderUniformRead
	AccessComputeShaderSampledRead
	AccessComputeShaderStorageRead
	AccessComputeShaderStorageWrite

	AccessRayTracingShaderUniformRead
	AccessRayTracingShaderSampledRead
	AccessRayTracingShaderStorageRead
	AccessRayTracingShaderStorageWrite

	AccessAccelerationStructureBuildRead
	AccessAccelerationStructureBuildWrite
	AccessAccelerationStructureCopyRead
	AccessAccelerationStructureCopyWrite

	AccessTransferRead
	AccessTransferWrite
	AccessResolveRead
	AccessResolveWrite
	AccessBlitRead
	AccessBlitWrite

	AccessHostRead
	AccessHostWrite

	AccessPresentRead

	// ImageLayoutTransition is the pseudo-write every layout transition
	// (explicit or implicit, via a pending barrier) installs; it carries
	// no stage of its own and is intersected against ALL_COMMANDS' valid
	// access scope per spec.md §4.B.
	AccessImageLayoutTransition

	numAccessIndices
)

// NumAccessIndices is the bitset width every AccessScope is sized to.
const NumAccessIndices = int(numAccessIndices)

var accessTable = [numAccessIndices]AccessInfo{
	AccessNone:                       {"NONE", StageTopOfPipe, KindRead},
	AccessIndirectCommandRead:        {"DRAW_INDIRECT_INDIRECT_COMMAND_READ", StageDrawIndirect, KindRead},
	AccessIndexRead:                  {"VERTEX_INPUT_INDEX_READ", StageVertexInput, KindRead},
	AccessVertexAttributeRead:        {"VERTEX_INPUT_VERTEX_ATTRIBUTE_READ", StageVertexInput, KindRead},

	AccessVertexShaderUniformRead:    {"VERTEX_SHADER_UNIFORM_READ", StageVertexShader, KindRead},
	AccessVertexShaderSampledRead:    {"VERTEX_SHADER_SAMPLED_READ", StageVertexShader, KindRead},
	AccessVertexShaderStorageRead:    {"VERTEX_SHADER_STORAGE_READ", StageVertexShader, KindRead},
	AccessVertexShaderStorageWrite:   {"VERTEX_SHADER_STORAGE_WRITE", StageVertexShader, KindWrite},

	AccessTessellationControlShaderUniformRead:  {"TESSELLATION_CONTROL_SHADER_UNIFORM_READ", StageTessellationControlShader, KindRead},
	AccessTessellationControlShaderSampledRead:  {"TESSELLATION_CONTROL_SHADER_SAMPLED_READ", StageTessellationControlShader, KindRead},
	AccessTessellationControlShaderStorageRead:  {"TESSELLATION_CONTROL_SHADER_STORAGE_READ", StageTessellationControlShader, KindRead},
	AccessTessellationControlShaderStorageWrite: {"TESSELLATION_CONTROL_SHADER_STORAGE_WRITE", StageTessellationControlShader, KindWrite},

	AccessTessellationEvaluationShaderUniformRead:  {"TESSELLATION_EVALUATION_SHADER_UNIFORM_READ", StageTessellationEvaluationShader, KindRead},
	AccessTessellationEvaluationShaderSampledRead:  {"TESSELLATION_EVALUATION_SHADER_SAMPLED_READ", StageTessellationEvaluationShader, KindRead},
	AccessTessellationEvaluationShaderStorageRead:  {"TESSELLATION_EVALUATION_SHADER_STORAGE_READ", StageTessellationEvaluationShader, KindRead},
	AccessTessellationEvaluationShaderStorageWrite: {"TESSELLATION_EVALUATION_SHADER_STORAGE_WRITE", StageTessellationEvaluationShader, KindWrite},

	AccessGeometryShaderUniformRead:  {"GEOMETRY_SHADER_UNIFORM_READ", StageGeometryShader, KindRead},
	AccessGeometryShaderSampledRead:  {"GEOMETRY_SHADER_SAMPLED_READ", StageGeometryShader, KindRead},
	AccessGeometryShaderStorageRead:  {"GEOMETRY_SHADER_STORAGE_READ", StageGeometryShader, KindRead},
	AccessGeometryShaderStorageWrite: {"GEOMETRY_SHADER_STORAGE_WRITE", StageGeometryShader, KindWrite},

	AccessTransformFeedbackWrite:        {"TRANSFORM_FEEDBACK_WRITE", StageTransformFeedback, KindWrite},
	AccessTransformFeedbackCounterRead:  {"TRANSFORM_FEEDBACK_COUNTER_READ", StageTransformFeedback, KindRead},
	AccessTransformFeedbackCounterWrite: {"TRANSFORM_FEEDBACK_COUNTER_WRITE", StageTransformFeedback, KindWrite},

	AccessEarlyFragmentTestsDepthStencilRead:  {"EARLY_FRAGMENT_TESTS_DEPTH_STENCIL_ATTACHMENT_READ", StageEarlyFragmentTests, KindRead},
	AccessEarlyFragmentTestsDepthStencilWrite: {"EARLY_FRAGMENT_TESTS_DEPTH_STENCIL_ATTACHMENT_WRITE", StageEarlyFragmentTests, KindWrite},

	AccessFragmentShaderUniformRead:         {"FRAGMENT_SHADER_UNIFORM_READ", StageFragmentShader, KindRead},
	AccessFragmentShaderSampledRead:         {"FRAGMENT_SHADER_SAMPLED_READ", StageFragmentShader, KindRead},
	AccessFragmentShaderStorageRead:         {"FRAGMENT_SHADER_STORAGE_READ", StageFragmentShader, KindRead},
	AccessFragmentShaderStorageWrite:        {"FRAGMENT_SHADER_STORAGE_WRITE", StageFragmentShader, KindWrite},
	AccessFragmentShaderInputAttachmentRead: {"FRAGMENT_SHADER_INPUT_ATTACHMENT_READ", StageFragmentShader, KindRead},

	AccessLateFragmentTestsDepthStencilRead:  {"LATE_FRAGMENT_TESTS_DEPTH_STENCIL_ATTACHMENT_READ", StageLateFragmentTests, KindRead},
	AccessLateFragmentTestsDepthStencilWrite: {"LATE_FRAGMENT_TESTS_DEPTH_STENCIL_ATTACHMENT_WRITE", StageLateFragmentTests, KindWrite},

	AccessColorAttachmentRead:  {"COLOR_ATTACHMENT_OUTPUT_COLOR_ATTACHMENT_READ", StageColorAttachmentOutput, KindRead},
	AccessColorAttachmentWrite: {"COLOR_ATTACHMENT_OUTPUT_COLOR_ATTACHMENT_WRITE", StageColorAttachmentOutput, KindWrite},

	AccessComputeShaderUniformRead:  {"COMPUTE_SHADER_UNIFORM_READ", StageComputeShader, KindRead},
	AccessComputeShaderSampledRead:  {"COMPUTE_SHADER_SAMPLED_READ", StageComputeShader, KindRead},
	AccessComputeShaderStorageRead:  {"COMPUTE_SHADER_STORAGE_READ", StageComputeShader, KindRead},
	AccessComputeShaderStorageWrite: {"COMPUTE_SHADER_STORAGE_WRITE", StageComputeShader, KindWrite},

	AccessRayTracingShaderUniformRead:  {"RAY_TRACING_SHADER_UNIFORM_READ", StageRayTracingShader, KindRead},
	AccessRayTracingShaderSampledRead:  {"RAY_TRACING_SHADER_SAMPLED_READ", StageRayTracingShader, KindRead},
	AccessRayTracingShaderStorageRead:  {"RAY_TRACING_SHADER_STORAGE_READ", StageRayTracingShader, KindRead},
	AccessRayTracingShaderStorageWrite: {"RAY_TRACING_SHADER_STORAGE_WRITE", StageRayTracingShader, KindWrite},

	AccessAccelerationStructureBuildRead:  {"ACCELERATION_STRUCTURE_BUILD_SHADER_READ", StageAccelerationStructureBuild, KindRead},
	AccessAccelerationStructureBuildWrite: {"ACCELERATION_STRUCTURE_BUILD_WRITE", StageAccelerationStructureBuild, KindWrite},
	AccessAccelerationStructureCopyRead:   {"ACCELERATION_STRUCTURE_COPY_READ", StageAccelerationStructureBuild, KindRead},
	AccessAccelerationStructureCopyWrite:  {"ACCELERATION_STRUCTURE_COPY_WRITE", StageAccelerationStructureBuild, KindWrite},

	AccessTransferRead:  {"COPY_TRANSFER_READ", StageCopy, KindRead},
	AccessTransferWrite: {"COPY_TRANSFER_WRITE", StageCopy, KindWrite},
	AccessResolveRead:   {"RESOLVE_TRANSFER_READ", StageResolve, KindRead},
	AccessResolveWrite:  {"RESOLVE_TRANSFER_WRITE", StageResolve, KindWrite},
	AccessBlitRead:       {"BLIT_TRANSFER_READ", StageBlit, KindRead},
	AccessBlitWrite:      {"BLIT_TRANSFER_WRITE", StageBlit, KindWrite},

	AccessHostRead:  {"HOST_READ", StageHost, KindRead},
	AccessHostWrite: {"HOST_WRITE", StageHost, KindWrite},

	AccessPresentRead: {"PRESENT_ENGINE_READ", StagePresentEngine, KindRead},

	AccessImageLayoutTransition: {"IMAGE_LAYOUT_TRANSITION", StageTopOfPipe, KindWrite},
}

// Info returns the static table entry for idx.
func Info(idx AccessIndex) AccessInfo {
	return accessTable[idx]
}

// IsRead reports whether idx is a read access.
func IsRead(idx AccessIndex) bool { return accessTable[idx].Kind == KindRead }

// IsWrite reports whether idx is a write access.
func IsWrite(idx AccessIndex) bool { return accessTable[idx].Kind == KindWrite }

// StageOf returns the stage idx executes in.
func StageOf(idx AccessIndex) StageMask { return accessTable[idx].Stage }

// AllAccessIndices returns every AccessIndex in the static table except
// AccessNone.
func AllAccessIndices() []AccessIndex {
	out := make([]AccessIndex, 0, numAccessIndices-1)
	for i := AccessIndex(1); i < numAccessIndices; i++ {
		out = append(out, i)
	}
	return out
}

// AccessIndicesForStage returns every AccessIndex whose stage bit is set
// in mask.
func AccessIndicesForStage(mask StageMask) []AccessIndex {
	var out []AccessIndex
	for i := AccessIndex(1); i < numAccessIndices; i++ {
		if accessTable[i].Stage&mask != 0 {
			out = append(out, i)
		}
	}
	return out
}

// shaderStages are the shader stages whose access indices
// SHADER_READ/SHADER_WRITE expand to (component B's meta-access
// expansion).
var shaderStages = []StageMask{
	StageVertexShader, StageTessellationControlShader, StageTessellationEvaluationShader,
	StageGeometryShader, StageFragmentShader, StageComputeShader, StageRayTracingShader,
}

// ExpandMetaAccess expands the SHADER_READ/SHADER_WRITE meta-accesses
// within stageScope into their concrete per-stage AccessIndex list; any
// index already concrete in indices is passed through untouched.
func ExpandMetaAccess(indices []AccessIndex, stageScope StageMask, shaderRead, shaderWrite bool) []AccessIndex {
	out := append([]AccessIndex(nil), indices...)
	if !shaderRead && !shaderWrite {
		return out
	}
	for _, stage := range shaderStages {
		if stageScope&stage == 0 {
			continue
		}
		for _, idx := range AccessIndicesForStage(stage) {
			info := accessTable[idx]
			if shaderRead && info.Kind == KindRead {
				out = append(out, idx)
			}
			if shaderWrite && info.Kind == KindWrite {
				out = append(out, idx)
			}
		}
	}
	return out
}

// AccelerationStructureAliasPatch returns the extra AccessIndex entries a
// barrier must also cover when it targets acceleration-structure build
// read/write, per spec.md §4.B ("a barrier targeting
// acceleration-structure-build read/write also covers
// acceleration-structure-copy read/write").
func AccelerationStructureAliasPatch(indices []AccessIndex) []AccessIndex {
	var extra []AccessIndex
	for _, idx := range indices {
		switch idx {
		case AccessAccelerationStructureBuildRead:
			extra = append(extra, AccessAccelerationStructureCopyRead)
		case AccessAccelerationStructureBuildWrite:
			extra = append(extra, AccessAccelerationStructureCopyWrite)
		}
	}
	return extra
}
