package types

// Result is the XR runtime's flat result enum. Success and EventUnavailable
// are not errors; every other non-zero value is. Functions in internal/runtime
// and internal/loader return Result by value — nothing in this module panics
// or throws across a package boundary for an expected failure.
type Result int32

const (
	ResultSuccess Result = 0

	// ResultEventUnavailable is returned by PollEvent when the queue is
	// empty. It is a distinguished non-error code, not a failure.
	ResultEventUnavailable Result = -1
)

const (
	ResultValidationFailure Result = iota + 1000
	ResultHandleInvalid
	ResultSystemInvalid
	ResultFormFactorUnsupported
	ResultFormFactorUnavailable
	ResultViewConfigurationTypeUnsupported
	ResultReferenceSpaceUnsupported
	ResultSwapchainFormatUnsupported
	ResultFeatureUnsupported
	ResultSizeInsufficient
	ResultGraphicsDeviceInvalid
	ResultLimitReached
	ResultSessionRunning
	ResultSessionNotRunning
	ResultSessionNotReady
	ResultCallOrderInvalid
	ResultApiVersionUnsupported
	ResultExtensionNotPresent
	ResultEnvironmentBlendModeUnsupported
	ResultFunctionUnsupported
	ResultInitializationFailed
)

// Succeeded reports whether r represents success (including the
// non-error EventUnavailable code is explicitly excluded: callers that need
// to distinguish "nothing happened" from "it worked" should compare against
// ResultEventUnavailable directly).
func (r Result) Succeeded() bool { return r == ResultSuccess }

// Failed reports whether r represents a genuine error.
func (r Result) Failed() bool { return r != ResultSuccess && r != ResultEventUnavailable }

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "Success"
	case ResultValidationFailure:
		return "ValidationFailure"
	case ResultHandleInvalid:
		return "HandleInvalid"
	case ResultSystemInvalid:
		return "SystemInvalid"
	case ResultFormFactorUnsupported:
		return "FormFactorUnsupported"
	case ResultFormFactorUnavailable:
		return "FormFactorUnavailable"
	case ResultViewConfigurationTypeUnsupported:
		return "ViewConfigurationTypeUnsupported"
	case ResultReferenceSpaceUnsupported:
		return "ReferenceSpaceUnsupported"
	case ResultSwapchainFormatUnsupported:
		return "SwapchainFormatUnsupported"
	case ResultFeatureUnsupported:
		return "FeatureUnsupported"
	case ResultSizeInsufficient:
		return "SizeInsufficient"
	case ResultGraphicsDeviceInvalid:
		return "GraphicsDeviceInvalid"
	case ResultLimitReached:
		return "LimitReached"
	case ResultSessionRunning:
		return "SessionRunning"
	case ResultSessionNotRunning:
		return "SessionNotRunning"
	case ResultSessionNotReady:
		return "SessionNotReady"
	case ResultCallOrderInvalid:
		return "CallOrderInvalid"
	case ResultApiVersionUnsupported:
		return "ApiVersionUnsupported"
	case ResultExtensionNotPresent:
		return "ExtensionNotPresent"
	case ResultEnvironmentBlendModeUnsupported:
		return "EnvironmentBlendModeUnsupported"
	case ResultFunctionUnsupported:
		return "FunctionUnsupported"
	case ResultInitializationFailed:
		return "InitializationFailed"
	case ResultEventUnavailable:
		return "EventUnavailable"
	default:
		return "Unknown"
	}
}

func (r Result) Error() string { return r.String() }
