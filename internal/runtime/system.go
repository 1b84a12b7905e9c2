package runtime

import (
	"kinectxr/pkg/types"
	"kinectxr/pkg/xrabi"
	"kinectxr/pkg/xrtypes"
)

// GetSystem mints (idempotently) a system id for the head-mounted-display
// form factor. Any other form factor fails FormFactorUnsupported.
func (rt *Runtime) GetSystem(instanceHandle types.Handle, info *xrtypes.SystemGetInfo) (types.SystemID, types.Result) {
	if r := xrabi.ValidateHead(info, xrabi.StructureTypeSystemGetInfo); r != types.ResultSuccess {
		return types.NullSystemID, r
	}
	inst, ok := rt.instances.Get(instanceHandle)
	if !ok {
		return types.NullSystemID, types.ResultHandleInvalid
	}
	if info.FormFactor != xrtypes.FormFactorHMD {
		return types.NullSystemID, types.ResultFormFactorUnsupported
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.system != nil {
		return inst.system.id, types.ResultSuccess
	}
	id := types.SystemID(rt.nextSystemID.Add(1))
	inst.system = &system{id: id, formFactor: info.FormFactor}
	return id, types.ResultSuccess
}

// GetSystemProperties fills in the fixed capability description for this
// sensor: vendor id 0x045e, one layer, no orientation/position tracking
// (the sensor is stationary and reports identity pose only).
func (rt *Runtime) GetSystemProperties(instanceHandle types.Handle, systemID types.SystemID, out *xrtypes.SystemProperties) types.Result {
	inst, ok := rt.instances.Get(instanceHandle)
	if !ok {
		return types.ResultHandleInvalid
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.system == nil || inst.system.id != systemID {
		return types.ResultSystemInvalid
	}
	out.SystemID = systemID
	out.VendorID = 0x045e
	out.SystemName = "Kinect XR System"
	out.MaxSwapchainImageWidth = types.FrameWidth
	out.MaxSwapchainImageHeight = types.FrameHeight
	out.MaxLayerCount = 1
	out.OrientationTracking = false
	out.PositionTracking = false
	return types.ResultSuccess
}
