package runtime

import (
	"time"

	"kinectxr/pkg/types"
	"kinectxr/pkg/xrabi"
	"kinectxr/pkg/xrtypes"
)

// framePeriodNs is the fixed 30 Hz period wait_frame paces to, expressed in
// nanoseconds so PredictedDisplayPeriod matches exactly (33,333,333 ns, not
// a rounded 33ms).
const framePeriodNs = int64(33333333)

// steadyEpoch anchors the steady clock WaitFrame reports: nanoseconds since
// process start, read from the monotonic clock so wall-clock steps do not
// move it.
var steadyEpoch = time.Now()

// WaitFrame paces to 30 Hz by sleeping until framePeriodNs has elapsed
// since the previously returned display time, then returns the new
// predicted display time as steady-clock-now. Per §9 open question 3, no
// ordering is enforced against begin_frame — this call only requires the
// session to be in the running set.
func (rt *Runtime) WaitFrame(sessionHandle types.Handle, info *xrtypes.FrameWaitInfo) (xrtypes.FrameState, types.Result) {
	if r := xrabi.ValidateHead(info, xrabi.StructureTypeFrameWaitInfo); r != types.ResultSuccess {
		return xrtypes.FrameState{}, r
	}
	sess, ok := rt.sessions.Get(sessionHandle)
	if !ok {
		return xrtypes.FrameState{}, types.ResultHandleInvalid
	}

	sess.mu.Lock()
	if !sess.state.Running() {
		sess.mu.Unlock()
		return xrtypes.FrameState{}, types.ResultSessionNotRunning
	}
	lastNs := sess.frameLoop.lastDisplayNs
	sess.mu.Unlock()

	if lastNs != 0 {
		elapsed := int64(time.Since(steadyEpoch)) - lastNs
		if wait := framePeriodNs - elapsed; wait > 0 {
			time.Sleep(time.Duration(wait))
		}
	}
	now := int64(time.Since(steadyEpoch))

	sess.mu.Lock()
	sess.frameLoop.lastDisplayNs = now
	sess.frameLoop.frameCounter++
	sess.mu.Unlock()

	return xrtypes.FrameState{
		PredictedDisplayTime:   now,
		PredictedDisplayPeriod: framePeriodNs,
		ShouldRender:           true,
	}, types.ResultSuccess
}

// BeginFrame requires the session to be in the running set and no frame
// already in progress.
func (rt *Runtime) BeginFrame(sessionHandle types.Handle, info *xrtypes.FrameBeginInfo) types.Result {
	if r := xrabi.ValidateHead(info, xrabi.StructureTypeFrameBeginInfo); r != types.ResultSuccess {
		return r
	}
	sess, ok := rt.sessions.Get(sessionHandle)
	if !ok {
		return types.ResultHandleInvalid
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.state.Running() {
		return types.ResultSessionNotRunning
	}
	if sess.frameLoop.inProgress {
		return types.ResultCallOrderInvalid
	}
	sess.frameLoop.inProgress = true
	return types.ResultSuccess
}

// EndFrame requires a frame in progress and an opaque blend mode, then
// walks each submitted projection layer's chain for a depth-info structure.
// When present, the referenced swapchain must be a valid handle with format
// DepthR16Uint at exactly 640x480.
func (rt *Runtime) EndFrame(sessionHandle types.Handle, info *xrtypes.FrameEndInfo) types.Result {
	if r := xrabi.ValidateHead(info, xrabi.StructureTypeFrameEndInfo); r != types.ResultSuccess {
		return r
	}
	sess, ok := rt.sessions.Get(sessionHandle)
	if !ok {
		return types.ResultHandleInvalid
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.state.Running() {
		return types.ResultSessionNotRunning
	}
	if !sess.frameLoop.inProgress {
		return types.ResultCallOrderInvalid
	}
	if info.EnvironmentBlendMode != xrtypes.EnvironmentBlendModeOpaque {
		return types.ResultEnvironmentBlendModeUnsupported
	}

	for _, layer := range info.Layers {
		if layer == nil {
			continue
		}
		depthInfo, found := xrabi.FindInChain[*xrtypes.CompositionLayerDepthInfo](layer, xrabi.StructureTypeCompositionLayerDepthInfo)
		if !found {
			continue
		}
		sc, ok := rt.swapchains.Get(depthInfo.Swapchain)
		if !ok {
			return types.ResultHandleInvalid
		}
		sc.mu.Lock()
		format, width, height := sc.format, sc.width, sc.height
		sc.mu.Unlock()
		if format != xrtypes.SwapchainFormatDepthR16Uint {
			return types.ResultSwapchainFormatUnsupported
		}
		if width != types.FrameWidth || height != types.FrameHeight {
			return types.ResultValidationFailure
		}
	}

	sess.frameLoop.inProgress = false
	return types.ResultSuccess
}
