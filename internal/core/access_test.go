package core

import "testing"

func TestAccessIsReadIsWrite(t *testing.T) {
	if !IsRead(AccessColorAttachmentRead) || IsWrite(AccessColorAttachmentRead) {
		t.Error("AccessColorAttachmentRead should be a read, not a write")
	}
	if !IsWrite(AccessColorAttachmentWrite) || IsRead(AccessColorAttachmentWrite) {
		t.Error("AccessColorAttachmentWrite should be a write, not a read")
	}
}

func TestAccessStageOf(t *testing.T) {
	if StageOf(AccessTransferRead) != StageCopy {
		t.Errorf("StageOf(AccessTransferRead) = %s, want COPY", StageOf(AccessTransferRead))
	}
}

func TestAllAccessIndicesExcludesNone(t *testing.T) {
	all := AllAccessIndices()
	for _, idx := range all {
		if idx == AccessNone {
			t.Fatal("AllAccessIndices should not include AccessNone")
		}
	}
	if len(all) != NumAccessIndices-1 {
		t.Errorf("AllAccessIndices returned %d entries, want %d", len(all), NumAccessIndices-1)
	}
}

func TestAccessIndicesForStage(t *testing.T) {
	indices := AccessIndicesForStage(StageColorAttachmentOutput)
	found := map[AccessIndex]bool{}
	for _, idx := range indices {
		found[idx] = true
	}
	if !found[AccessColorAttachmentRead] || !found[AccessColorAttachmentWrite] {
		t.Errorf("AccessIndicesForStage(COLOR_ATTACHMENT_OUTPUT) = %v, missing color attachment accesses", indices)
	}
}

func TestExpandMetaAccessShaderRead(t *testing.T) {
	expanded := ExpandMetaAccess(nil, StageFragmentShader, true, false)
	found := false
	for _, idx := range expanded {
		if idx == AccessFragmentShaderSampledRead {
			found = true
		}
		if IsWrite(idx) {
			t.Errorf("shaderRead-only expansion should not add a write access, got %s", Info(idx).Name)
		}
	}
	if !found {
		t.Error("shaderRead expansion over FRAGMENT_SHADER should include AccessFragmentShaderSampledRead")
	}
}

func TestAccelerationStructureAliasPatch(t *testing.T) {
	extra := AccelerationStructureAliasPatch([]AccessIndex{AccessAccelerationStructureBuildWrite})
	if len(extra) != 1 || extra[0] != AccessAccelerationStructureCopyWrite {
		t.Errorf("AccelerationStructureAliasPatch(BuildWrite) = %v, want [CopyWrite]", extra)
	}

	none := AccelerationStructureAliasPatch([]AccessIndex{AccessTransferRead})
	if len(none) != 0 {
		t.Errorf("AccelerationStructureAliasPatch should not patch unrelated accesses, got %v", none)
	}
}
