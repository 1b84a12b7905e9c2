package runtime

import (
	"sync"

	"kinectxr/internal/device"
	"kinectxr/internal/framecache"
	"kinectxr/pkg/types"
	"kinectxr/pkg/xrabi"
	"kinectxr/pkg/xrtypes"
)

// FrameLoopState tracks the per-session state §4.D.4 describes: whether a
// frame is currently between begin_frame and end_frame, the last predicted
// display time handed out by wait_frame, and a running frame counter.
type FrameLoopState struct {
	inProgress      bool
	lastDisplayNs   int64
	frameCounter    uint64
}

// Session is bound to exactly one Instance+System. It owns its DeviceDriver
// and FrameCache exclusively — destroying it releases both.
type Session struct {
	mu sync.Mutex

	handle   types.Handle
	instance types.Handle
	systemID types.SystemID

	state      xrtypes.SessionState
	frameLoop  FrameLoopState
	viewConfig xrtypes.ViewConfigurationType

	driver device.Driver
	cache  *framecache.Cache
	device uintptr
}

// CreateSession validates the parent instance/system, requires exactly one
// GraphicsBindingOpaque with a non-null command queue in the chain, and
// enforces the one-live-session-per-instance limit. On success it
// transitions Idle→Ready and enqueues one state-changed event.
func (rt *Runtime) CreateSession(instanceHandle types.Handle, info *xrtypes.SessionCreateInfo) (types.Handle, types.Result) {
	if r := xrabi.ValidateHead(info, xrabi.StructureTypeSessionCreateInfo); r != types.ResultSuccess {
		return types.NullHandle, r
	}
	inst, ok := rt.instances.Get(instanceHandle)
	if !ok {
		return types.NullHandle, types.ResultHandleInvalid
	}

	binding, foundBinding := xrabi.FindInChain[*xrtypes.GraphicsBindingOpaque](info, xrabi.StructureTypeGraphicsBindingOpaque)
	if !foundBinding || binding.CommandQueue == 0 {
		return types.NullHandle, types.ResultGraphicsDeviceInvalid
	}

	inst.mu.Lock()
	if inst.system == nil || inst.system.id != info.SystemID {
		inst.mu.Unlock()
		return types.NullHandle, types.ResultSystemInvalid
	}
	if inst.sessionHandle != types.NullHandle {
		inst.mu.Unlock()
		return types.NullHandle, types.ResultLimitReached
	}

	sess := &Session{
		instance: instanceHandle,
		systemID: info.SystemID,
		state:    xrtypes.SessionStateReady,
		cache:    framecache.New(),
		device:   rt.backend.DeviceFromQueue(binding.CommandQueue),
	}
	h := rt.sessions.Create(sess)
	sess.handle = h
	inst.sessionHandle = h
	inst.mu.Unlock()

	rt.enqueueEvents(instanceHandle, xrtypes.EventDataSessionStateChanged{Session: h, State: xrtypes.SessionStateReady})
	return h, types.ResultSuccess
}

// BeginSession requires Ready and the single supported view configuration.
// On success it opens and starts the owned DeviceDriver, wires its
// callbacks into the session's FrameCache, and emits
// Ready→Synchronized→Visible→Focused as three events in order.
func (rt *Runtime) BeginSession(sessionHandle types.Handle, viewConfig xrtypes.ViewConfigurationType) types.Result {
	sess, ok := rt.sessions.Get(sessionHandle)
	if !ok {
		return types.ResultHandleInvalid
	}

	sess.mu.Lock()
	if sess.state != xrtypes.SessionStateReady {
		sess.mu.Unlock()
		return types.ResultSessionNotReady
	}
	if viewConfig != xrtypes.ViewConfigurationPrimaryMono {
		sess.mu.Unlock()
		return types.ResultViewConfigurationTypeUnsupported
	}

	drv := rt.newDriver()
	cfg := types.DeviceConfig{EnableRGB: true, EnableDepth: true, EnableMotor: true}
	if derr := drv.Open(cfg); derr != types.DeviceErrorNone {
		sess.mu.Unlock()
		if derr == types.DeviceErrorDeviceNotFound {
			return types.ResultFormFactorUnavailable
		}
		return types.ResultInitializationFailed
	}
	cache := sess.cache
	drv.SetDepthCallback(func(depth []uint16, ts uint32) { cache.WriteDepth(depth, ts) })
	drv.SetVideoCallback(func(rgb []byte, ts uint32) { cache.WriteRGB(rgb, ts) })
	if derr := drv.StartStreams(); derr != types.DeviceErrorNone {
		drv.Close()
		sess.mu.Unlock()
		return types.ResultInitializationFailed
	}

	sess.driver = drv
	sess.viewConfig = viewConfig
	sess.state = xrtypes.SessionStateFocused
	instanceHandle := sess.instance
	sess.mu.Unlock()

	rt.enqueueEvents(instanceHandle,
		xrtypes.EventDataSessionStateChanged{Session: sessionHandle, State: xrtypes.SessionStateSynchronized},
		xrtypes.EventDataSessionStateChanged{Session: sessionHandle, State: xrtypes.SessionStateVisible},
		xrtypes.EventDataSessionStateChanged{Session: sessionHandle, State: xrtypes.SessionStateFocused},
	)
	return types.ResultSuccess
}

// EndSession requires the session to be in the running set. On success it
// stops streams, releases the owned DeviceDriver, and emits
// Stopping→Idle. Per §9 open question 4, this does NOT clear the
// frame-in-progress flag — a session ended mid-frame that is later
// re-begun will reject the next begin_frame until end_frame is called,
// preserved as a documented quirk rather than silently fixed.
func (rt *Runtime) EndSession(sessionHandle types.Handle) types.Result {
	sess, ok := rt.sessions.Get(sessionHandle)
	if !ok {
		return types.ResultHandleInvalid
	}

	sess.mu.Lock()
	if !sess.state.Running() {
		sess.mu.Unlock()
		return types.ResultSessionNotRunning
	}
	if sess.driver != nil {
		sess.driver.StopStreams()
		sess.driver.Close()
		sess.driver = nil
	}
	sess.state = xrtypes.SessionStateIdle
	instanceHandle := sess.instance
	sess.mu.Unlock()

	rt.enqueueEvents(instanceHandle,
		xrtypes.EventDataSessionStateChanged{Session: sessionHandle, State: xrtypes.SessionStateStopping},
		xrtypes.EventDataSessionStateChanged{Session: sessionHandle, State: xrtypes.SessionStateIdle},
	)
	return types.ResultSuccess
}

// DestroySession fails SessionRunning if the session is in the running set;
// otherwise it removes the session from its table and clears the parent
// instance's live-session slot.
func (rt *Runtime) DestroySession(sessionHandle types.Handle) types.Result {
	sess, ok := rt.sessions.Get(sessionHandle)
	if !ok {
		return types.ResultHandleInvalid
	}
	sess.mu.Lock()
	if sess.state.Running() {
		sess.mu.Unlock()
		return types.ResultSessionRunning
	}
	instanceHandle := sess.instance
	sess.mu.Unlock()

	rt.sessions.Delete(sessionHandle)
	if inst, ok := rt.instances.Get(instanceHandle); ok {
		inst.mu.Lock()
		if inst.sessionHandle == sessionHandle {
			inst.sessionHandle = types.NullHandle
		}
		inst.mu.Unlock()
	}
	return types.ResultSuccess
}
