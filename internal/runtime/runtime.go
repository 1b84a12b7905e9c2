// Package runtime implements the handle-table runtime described in
// spec.md §4.D: the Instance/System/Session/Space/Swapchain state machines,
// their event queue, and the frame loop. It is consumed directly by tests
// and indirectly by internal/loader, which adapts it to the C-linkage ABI
// entry points.
package runtime

import (
	"sync/atomic"

	"kinectxr/internal/device"
	"kinectxr/internal/gpu"
	"kinectxr/internal/handle"
)

// supportedExtensions is the fixed set CreateInstance validates
// EnabledExtensionNames against.
var supportedExtensions = map[string]bool{
	"CompositionLayerDepth": true,
	"MetalEnable":           true,
}

// Runtime owns every handle table and is the single value constructed on
// first loader call, per the "singleton only at the ABI boundary" design
// note — internally it is an ordinary owned value, not a package-level
// global.
type Runtime struct {
	instances  *handle.Table[*Instance]
	sessions   *handle.Table[*Session]
	spaces     *handle.Table[*Space]
	swapchains *handle.Table[*Swapchain]

	backend gpu.Backend
	mock    bool

	nextSystemID atomic.Uint64
}

// New constructs a Runtime. backend is the GPU backend sessions created
// under this runtime will upload textures through; mock selects the
// synthetic device driver instead of the native libfreenect binding for
// every session begun under this runtime.
func New(backend gpu.Backend, mock bool) *Runtime {
	return &Runtime{
		instances:  handle.New[*Instance](),
		sessions:   handle.New[*Session](),
		spaces:     handle.New[*Space](),
		swapchains: handle.New[*Swapchain](),
		backend:    backend,
		mock:       mock,
	}
}

// newDriver constructs the device backend this runtime's sessions use.
// Isolated behind a method so tests can be confident BeginSession always
// goes through the same selection the rest of the runtime does.
func (rt *Runtime) newDriver() device.Driver {
	return device.New(rt.mock)
}
