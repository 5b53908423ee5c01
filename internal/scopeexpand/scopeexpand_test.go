package scopeexpand

import (
	"testing"

	"github.com/ehrlich-b/go-syncval/internal/core"
)

func TestMakeExecScopeExpandsMeta(t *testing.T) {
	exec := MakeExecScope(core.StageAllGraphics, core.QueueGraphics, 0)
	if exec.Stages&core.StageAllGraphics != 0 {
		t.Error("MakeExecScope should strip the meta-stage bit once expanded")
	}
	if exec.Stages&core.StageVertexShader == 0 {
		t.Error("MakeExecScope(ALL_GRAPHICS) should expand into concrete graphics stages")
	}
}

func TestMakeSrcWidensEarlierOrEqual(t *testing.T) {
	exec, access := MakeSrc(core.StageFragmentShader, []core.AccessIndex{core.AccessFragmentShaderStorageWrite}, core.QueueGraphics, 0, false, false)
	if exec.Stages&core.StageVertexShader == 0 {
		t.Error("a src scope should widen to EarlierOrEqual, including VERTEX_SHADER before FRAGMENT_SHADER")
	}
	if !access.Test(core.AccessFragmentShaderStorageWrite) {
		t.Error("the given access index should be present in the expanded access scope")
	}
}

func TestMakeDstWidensLaterOrEqual(t *testing.T) {
	exec, _ := MakeDst(core.StageFragmentShader, nil, core.QueueGraphics, 0, false, false)
	if exec.Stages&core.StageLateFragmentTests == 0 {
		t.Error("a dst scope should widen to LaterOrEqual, including LATE_FRAGMENT_TESTS after FRAGMENT_SHADER")
	}
	if exec.Stages&core.StageVertexShader != 0 {
		t.Error("a dst scope should not include stages earlier than the requested one")
	}
}

func TestAccessScopeForShaderMeta(t *testing.T) {
	scope := AccessScopeFor(nil, core.StageComputeShader, true, true)
	if !scope.Test(core.AccessComputeShaderStorageRead) || !scope.Test(core.AccessComputeShaderStorageWrite) {
		t.Errorf("shaderRead+shaderWrite over COMPUTE_SHADER should include both storage accesses, got %s", scope)
	}
}

func TestAccessScopeForAccelerationAliasPatch(t *testing.T) {
	scope := AccessScopeFor([]core.AccessIndex{core.AccessAccelerationStructureBuildRead}, core.StageAccelerationStructureBuild, false, false)
	if !scope.Test(core.AccessAccelerationStructureCopyRead) {
		t.Error("AccessScopeFor should apply the acceleration-structure alias patch")
	}
}

func TestNewBarrier(t *testing.T) {
	b := NewBarrier(
		core.StageColorAttachmentOutput, core.StageFragmentShader,
		[]core.AccessIndex{core.AccessColorAttachmentWrite}, []core.AccessIndex{core.AccessFragmentShaderSampledRead},
		core.QueueGraphics, 0, false, false, false, false,
	)
	if !b.SrcAccess.Test(core.AccessColorAttachmentWrite) {
		t.Error("NewBarrier's SrcAccess should contain the requested source access")
	}
	if !b.DstAccess.Test(core.AccessFragmentShaderSampledRead) {
		t.Error("NewBarrier's DstAccess should contain the requested destination access")
	}
	if b.SrcExec.Stages&core.StageVertexShader == 0 {
		t.Error("NewBarrier's SrcExec should widen to EarlierOrEqual")
	}
}

func TestGetOrderingRulesRasterIsUnionOfAttachmentPresets(t *testing.T) {
	raster := GetOrderingRules(OrderingRaster)
	color := GetOrderingRules(OrderingColorAttachment)
	depth := GetOrderingRules(OrderingDepthStencilAttachment)

	if raster.ExecScope&color.ExecScope != color.ExecScope {
		t.Error("Raster's exec scope should be a superset of ColorAttachment's")
	}
	if raster.ExecScope&depth.ExecScope != depth.ExecScope {
		t.Error("Raster's exec scope should be a superset of DepthStencilAttachment's")
	}
	if !raster.AccessScope.Intersects(color.AccessScope) || !raster.AccessScope.Intersects(depth.AccessScope) {
		t.Error("Raster's access scope should union both attachment presets")
	}
}

func TestGetOrderingRulesNoneIsEmpty(t *testing.T) {
	none := GetOrderingRules(OrderingNone)
	if none.ExecScope != 0 || none.AccessScope.Any() {
		t.Error("OrderingNone should carry no exec scope and no access scope")
	}
}
