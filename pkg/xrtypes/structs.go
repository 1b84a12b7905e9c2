// Package xrtypes defines the concrete chain-tagged structs that cross the
// loader<->runtime ABI boundary, plus the small value enums (form factor,
// view configuration, reference space type, swapchain format/usage,
// environment blend mode, session state) that parameterize them. Mechanics
// for walking and validating the `next` chain live in pkg/xrabi; this
// package only has the struct shapes that participate in it.
package xrtypes

import "kinectxr/pkg/xrabi"
import "kinectxr/pkg/types"

// ApiVersion packs major/minor/patch the way the loader negotiation
// argument does: major in the high 16 bits, minor in the next 16, patch in
// the low 32.
type ApiVersion uint64

func MakeApiVersion(major, minor uint16, patch uint32) ApiVersion {
	return ApiVersion(uint64(major)<<48 | uint64(minor)<<32 | uint64(patch))
}

func (v ApiVersion) Major() uint16 { return uint16(v >> 48) }
func (v ApiVersion) Minor() uint16 { return uint16(v >> 32) }
func (v ApiVersion) Patch() uint32 { return uint32(v) }

// CurrentApiVersion is the version this runtime implements.
const CurrentApiVersion ApiVersion = ApiVersion(1)<<48 | ApiVersion(0)<<32

// FormFactor is the declared device class an application requests from
// GetSystem. Only FormFactorHMD is backed by this runtime.
type FormFactor uint32

const (
	FormFactorHMD             FormFactor = 1
	FormFactorHandheldDisplay FormFactor = 2
)

// ViewConfigurationType is the stereoscopy mode. Only ViewConfigurationPrimaryMono
// is supported.
type ViewConfigurationType uint32

const (
	ViewConfigurationPrimaryMono   ViewConfigurationType = 1
	ViewConfigurationPrimaryStereo ViewConfigurationType = 2
)

// ReferenceSpaceType names a coordinate frame reported with identity pose.
type ReferenceSpaceType uint32

const (
	ReferenceSpaceView  ReferenceSpaceType = 1
	ReferenceSpaceLocal ReferenceSpaceType = 2
	ReferenceSpaceStage ReferenceSpaceType = 3
)

// SwapchainFormat is the numeric token identifying a swapchain's pixel
// format, chosen to match the underlying graphics API's own enum values.
type SwapchainFormat int64

const (
	SwapchainFormatColorBGRA8Unorm SwapchainFormat = 80
	SwapchainFormatDepthR16Uint    SwapchainFormat = 13
)

// SwapchainUsageFlags is a bitmask validated against the requested format.
type SwapchainUsageFlags uint32

const (
	SwapchainUsageColorAttachment SwapchainUsageFlags = 1 << 0
	SwapchainUsageDepthStencilAttachment SwapchainUsageFlags = 1 << 1
)

// EnvironmentBlendMode is validated at end_frame; only Opaque is supported.
type EnvironmentBlendMode uint32

const (
	EnvironmentBlendModeOpaque      EnvironmentBlendMode = 1
	EnvironmentBlendModeAdditive    EnvironmentBlendMode = 2
	EnvironmentBlendModeAlphaBlend  EnvironmentBlendMode = 3
)

// SessionState mirrors the session state machine in §4.D of the design.
type SessionState uint32

const (
	SessionStateIdle SessionState = iota
	SessionStateReady
	SessionStateSynchronized
	SessionStateVisible
	SessionStateFocused
	SessionStateStopping
)

func (s SessionState) String() string {
	switch s {
	case SessionStateIdle:
		return "Idle"
	case SessionStateReady:
		return "Ready"
	case SessionStateSynchronized:
		return "Synchronized"
	case SessionStateVisible:
		return "Visible"
	case SessionStateFocused:
		return "Focused"
	case SessionStateStopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}

// Running reports whether s is one of {Synchronized, Visible, Focused} — the
// set from which end_session is valid and in which destroy_session is
// rejected.
func (s SessionState) Running() bool {
	return s == SessionStateSynchronized || s == SessionStateVisible || s == SessionStateFocused
}

// Vec3 and Quat back the identity Pose every reference space reports.
type Vec3 struct{ X, Y, Z float32 }
type Quat struct{ X, Y, Z, W float32 }

type Pose struct {
	Orientation Quat
	Position    Vec3
}

// IdentityPose is the only pose this stationary sensor ever reports.
var IdentityPose = Pose{Orientation: Quat{W: 1}}

// InstanceCreateInfo is the chain head for CreateInstance.
type InstanceCreateInfo struct {
	xrabi.Base
	ApplicationName        string
	ApplicationVersion      uint32
	ApiVersion              ApiVersion
	EnabledExtensionNames   []string
}

// SystemGetInfo is the chain head for GetSystem.
type SystemGetInfo struct {
	xrabi.Base
	FormFactor FormFactor
}

// SystemProperties is filled in by GetSystemProperties.
type SystemProperties struct {
	xrabi.Base
	SystemID                types.SystemID
	VendorID                uint32
	SystemName              string
	MaxSwapchainImageWidth  uint32
	MaxSwapchainImageHeight uint32
	MaxLayerCount           uint32
	OrientationTracking     bool
	PositionTracking        bool
}

// SessionCreateInfo is the chain head for CreateSession. The GPU binding is
// supplied as a chained GraphicsBindingOpaque, not an inline field, matching
// the loader ABI's pattern of passing graphics-API-specific bindings
// through the extension chain rather than the core struct.
type SessionCreateInfo struct {
	xrabi.Base
	SystemID types.SystemID
}

// GraphicsBindingOpaque carries the application's GPU command-queue pointer
// and, once resolved, the derived device pointer. Both are opaque to the
// runtime — it passes them to the GPU backend (§6) unexamined.
type GraphicsBindingOpaque struct {
	xrabi.Base
	CommandQueue uintptr
	Device       uintptr
}

// ReferenceSpaceCreateInfo is the chain head for CreateReferenceSpace.
type ReferenceSpaceCreateInfo struct {
	xrabi.Base
	ReferenceSpaceType   ReferenceSpaceType
	PoseInReferenceSpace Pose
}

// SwapchainCreateInfo is the chain head for CreateSwapchain.
type SwapchainCreateInfo struct {
	xrabi.Base
	Format      SwapchainFormat
	Width       uint32
	Height      uint32
	SampleCount uint32
	ArraySize   uint32
	UsageFlags  SwapchainUsageFlags
}

// FrameWaitInfo is the (currently empty) chain head for WaitFrame.
type FrameWaitInfo struct {
	xrabi.Base
}

// FrameState is filled in by WaitFrame.
type FrameState struct {
	xrabi.Base
	PredictedDisplayTime   int64 // nanoseconds, steady clock
	PredictedDisplayPeriod int64 // nanoseconds, fixed at 33,333,333
	ShouldRender           bool
}

// FrameBeginInfo is the (currently empty) chain head for BeginFrame.
type FrameBeginInfo struct {
	xrabi.Base
}

// FrameEndInfo is the chain head for EndFrame.
type FrameEndInfo struct {
	xrabi.Base
	DisplayTime          int64
	EnvironmentBlendMode EnvironmentBlendMode
	Layers               []*CompositionLayerProjection
}

// CompositionLayerProjection is the only composition layer type this
// runtime accepts at end_frame. Unknown layer types may be submitted
// alongside it and are ignored.
type CompositionLayerProjection struct {
	xrabi.Base
	Space types.Handle
}

// CompositionLayerDepthInfo is chained off a CompositionLayerProjection's
// Next pointer when the application submits a depth swapchain for that
// frame.
type CompositionLayerDepthInfo struct {
	xrabi.Base
	Swapchain types.Handle
}

// EventDataSessionStateChanged is the only event type this runtime ever
// enqueues.
type EventDataSessionStateChanged struct {
	xrabi.Base
	Session types.Handle
	State   SessionState
	Time    int64
}

// LoaderInfo is the loader's half of the negotiation call.
type LoaderInfo struct {
	xrabi.Base
	MinInterfaceVersion uint32
	MaxInterfaceVersion uint32
	MinApiVersion       ApiVersion
	MaxApiVersion       ApiVersion
}

// PfnGetInstanceProcAddr is the function pointer the runtime hands back to
// the loader during negotiation.
type PfnGetInstanceProcAddr func(instance types.Handle, name string) (uintptr, types.Result)

// RuntimeRequest is filled in by the runtime during negotiation.
type RuntimeRequest struct {
	xrabi.Base
	InterfaceVersion    uint32
	RuntimeApiVersion   ApiVersion
	GetInstanceProcAddr PfnGetInstanceProcAddr
}
