// Package loader implements the two exported C-linkage ABI entry points a
// standard loader negotiates with a runtime through: negotiate_loader_runtime
// and get_instance_proc_addr. It holds no cgo of its own — cmd/xr-runtime
// adapts these pure-Go entry points to the real C symbols a loader dlopen's.
package loader

import (
	"kinectxr/internal/runtime"
	"kinectxr/pkg/types"
	"kinectxr/pkg/xrabi"
	"kinectxr/pkg/xrtypes"
)

// RuntimeInterfaceVersion is the single interface version this runtime
// implements. negotiate_loader_runtime fails InitializationFailed unless
// the loader's [Min,Max]InterfaceVersion range includes it.
const RuntimeInterfaceVersion = 1

// bootstrapFunctions may be resolved with a null instance, per §4.E —
// extension/layer enumeration and instance creation happen before any
// instance exists.
var bootstrapFunctions = map[string]bool{
	"EnumerateInstanceExtensionProperties": true,
	"EnumerateApiLayerProperties":          true,
	"CreateInstance":                       true,
}

// instanceFunctions require a valid, non-null instance handle to resolve.
var instanceFunctions = map[string]bool{
	"DestroyInstance":           true,
	"PollEvent":                 true,
	"GetSystem":                 true,
	"GetSystemProperties":       true,
	"CreateSession":             true,
	"BeginSession":              true,
	"EndSession":                true,
	"DestroySession":            true,
	"EnumerateReferenceSpaces":  true,
	"CreateReferenceSpace":      true,
	"DestroySpace":              true,
	"LocateSpace":               true,
	"EnumerateSwapchainFormats": true,
	"CreateSwapchain":           true,
	"DestroySwapchain":          true,
	"EnumerateSwapchainImages":  true,
	"AcquireSwapchainImage":     true,
	"WaitSwapchainImage":        true,
	"ReleaseSwapchainImage":     true,
	"WaitFrame":                 true,
	"BeginFrame":                true,
	"EndFrame":                  true,
}

// procTokens assigns every recognized name a small, stable, non-zero token.
// GetInstanceProcAddr returns it as the resolved value. cmd/xr-runtime does
// not use the token: once the name is accepted here, it looks up the matching
// exported C symbol by name.
var procTokens = buildProcTokens()

func buildProcTokens() map[string]uintptr {
	names := make([]string, 0, len(bootstrapFunctions)+len(instanceFunctions))
	for name := range bootstrapFunctions {
		names = append(names, name)
	}
	for name := range instanceFunctions {
		names = append(names, name)
	}
	// Deterministic ordering keeps the token assigned to a given name stable
	// across runs, which the tests rely on.
	sorted := append([]string(nil), names...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	tokens := make(map[string]uintptr, len(sorted))
	for i, name := range sorted {
		tokens[name] = uintptr(i + 1) // 0 is reserved for "not found"
	}
	return tokens
}

// Dispatcher adapts a *runtime.Runtime to the ABI's name-based
// proc-address resolution and negotiation handshake.
type Dispatcher struct {
	RT *runtime.Runtime
}

// NewDispatcher constructs a Dispatcher over rt.
func NewDispatcher(rt *runtime.Runtime) *Dispatcher {
	return &Dispatcher{RT: rt}
}

// NegotiateLoaderRuntime validates both arguments' struct tags, checks the
// loader's requested interface-version range against
// RuntimeInterfaceVersion, and on success fills runtimeRequest with this
// runtime's interface version, API version, and proc-address resolver.
func (d *Dispatcher) NegotiateLoaderRuntime(loaderInfo *xrtypes.LoaderInfo, runtimeRequest *xrtypes.RuntimeRequest) types.Result {
	if r := xrabi.ValidateHead(loaderInfo, xrabi.StructureTypeLoaderInfo); r != types.ResultSuccess {
		return r
	}
	if r := xrabi.ValidateHead(runtimeRequest, xrabi.StructureTypeRuntimeRequest); r != types.ResultSuccess {
		return r
	}
	if loaderInfo.MinInterfaceVersion > RuntimeInterfaceVersion || loaderInfo.MaxInterfaceVersion < RuntimeInterfaceVersion {
		return types.ResultInitializationFailed
	}

	runtimeRequest.InterfaceVersion = RuntimeInterfaceVersion
	runtimeRequest.RuntimeApiVersion = xrtypes.CurrentApiVersion
	runtimeRequest.GetInstanceProcAddr = d.GetInstanceProcAddr
	return types.ResultSuccess
}

// GetInstanceProcAddr resolves name against the fixed dispatch table,
// enforcing the bootstrap/instance-required split. Unknown names return
// FunctionUnsupported with a zero token.
func (d *Dispatcher) GetInstanceProcAddr(instance types.Handle, name string) (uintptr, types.Result) {
	if bootstrapFunctions[name] {
		return procTokens[name], types.ResultSuccess
	}
	if instanceFunctions[name] {
		if instance == types.NullHandle || !d.RT.InstanceValid(instance) {
			return 0, types.ResultHandleInvalid
		}
		return procTokens[name], types.ResultSuccess
	}
	return 0, types.ResultFunctionUnsupported
}

// ProcToken returns the stable token assigned to name, and whether name is
// recognized at all (regardless of the instance requirement). cmd/xr-runtime
// uses this to build its reverse lookup from token to C function pointer.
func ProcToken(name string) (uintptr, bool) {
	tok, ok := procTokens[name]
	return tok, ok
}
