package loader

import (
	"testing"

	"kinectxr/internal/gpu"
	"kinectxr/internal/runtime"
	"kinectxr/pkg/types"
	"kinectxr/pkg/xrabi"
	"kinectxr/pkg/xrtypes"
)

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(runtime.New(gpu.NewSoftwareBackend(), true))
}

func TestNegotiateLoaderRuntimeSuccess(t *testing.T) {
	d := newTestDispatcher()
	info := &xrtypes.LoaderInfo{
		Base:                xrabi.Base{Type: xrabi.StructureTypeLoaderInfo},
		MinInterfaceVersion: 1,
		MaxInterfaceVersion: 1,
	}
	req := &xrtypes.RuntimeRequest{Base: xrabi.Base{Type: xrabi.StructureTypeRuntimeRequest}}

	if r := d.NegotiateLoaderRuntime(info, req); r != types.ResultSuccess {
		t.Fatalf("NegotiateLoaderRuntime: %v", r)
	}
	if req.InterfaceVersion != RuntimeInterfaceVersion {
		t.Fatalf("expected interface version %d, got %d", RuntimeInterfaceVersion, req.InterfaceVersion)
	}
	if req.RuntimeApiVersion != xrtypes.CurrentApiVersion {
		t.Fatalf("expected current api version, got %v", req.RuntimeApiVersion)
	}
	if req.GetInstanceProcAddr == nil {
		t.Fatalf("expected a resolver function to be wired in")
	}
}

func TestNegotiateLoaderRuntimeVersionMismatch(t *testing.T) {
	d := newTestDispatcher()
	info := &xrtypes.LoaderInfo{
		Base:                xrabi.Base{Type: xrabi.StructureTypeLoaderInfo},
		MinInterfaceVersion: 2,
		MaxInterfaceVersion: 5,
	}
	req := &xrtypes.RuntimeRequest{Base: xrabi.Base{Type: xrabi.StructureTypeRuntimeRequest}}

	if r := d.NegotiateLoaderRuntime(info, req); r != types.ResultInitializationFailed {
		t.Fatalf("expected InitializationFailed, got %v", r)
	}
}

func TestNegotiateLoaderRuntimeRejectsWrongStructType(t *testing.T) {
	d := newTestDispatcher()
	info := &xrtypes.LoaderInfo{Base: xrabi.Base{Type: xrabi.StructureTypeRuntimeRequest}}
	req := &xrtypes.RuntimeRequest{Base: xrabi.Base{Type: xrabi.StructureTypeRuntimeRequest}}

	if r := d.NegotiateLoaderRuntime(info, req); r != types.ResultValidationFailure {
		t.Fatalf("expected ValidationFailure, got %v", r)
	}
}

func TestGetInstanceProcAddrBootstrapWithNullInstance(t *testing.T) {
	d := newTestDispatcher()
	tok, r := d.GetInstanceProcAddr(types.NullHandle, "CreateInstance")
	if r != types.ResultSuccess || tok == 0 {
		t.Fatalf("expected resolvable bootstrap function, got tok=%d r=%v", tok, r)
	}
}

func TestGetInstanceProcAddrUnknownName(t *testing.T) {
	d := newTestDispatcher()
	tok, r := d.GetInstanceProcAddr(types.NullHandle, "NotARealFunction")
	if r != types.ResultFunctionUnsupported || tok != 0 {
		t.Fatalf("expected FunctionUnsupported/0, got tok=%d r=%v", tok, r)
	}
}

func TestGetInstanceProcAddrInstanceFunctionRequiresValidInstance(t *testing.T) {
	d := newTestDispatcher()
	if _, r := d.GetInstanceProcAddr(types.NullHandle, "GetSystem"); r != types.ResultHandleInvalid {
		t.Fatalf("expected HandleInvalid with null instance, got %v", r)
	}

	h, r := d.RT.CreateInstance(&xrtypes.InstanceCreateInfo{
		Base:            xrabi.Base{Type: xrabi.StructureTypeInstanceCreateInfo},
		ApplicationName: "T",
		ApiVersion:      xrtypes.CurrentApiVersion,
	})
	if r != types.ResultSuccess {
		t.Fatalf("CreateInstance: %v", r)
	}

	tok, r := d.GetInstanceProcAddr(h, "GetSystem")
	if r != types.ResultSuccess || tok == 0 {
		t.Fatalf("expected resolvable instance function, got tok=%d r=%v", tok, r)
	}
}

func TestProcTokenStableAcrossCalls(t *testing.T) {
	a, okA := ProcToken("WaitFrame")
	b, okB := ProcToken("WaitFrame")
	if !okA || !okB || a != b {
		t.Fatalf("expected stable token for the same name, got %d/%d ok=%v/%v", a, b, okA, okB)
	}
	if _, ok := ProcToken("NotARealFunction"); ok {
		t.Fatalf("expected unknown name to report not-ok")
	}
}
