package runtime

import (
	"sync"

	"kinectxr/pkg/types"
	"kinectxr/pkg/xrabi"
	"kinectxr/pkg/xrtypes"
)

// system is the numeric id minted inside an Instance on first supported
// GetSystem call. Not a Handle: it is never independently destroyed and
// carries no table entry of its own.
type system struct {
	id         types.SystemID
	formFactor xrtypes.FormFactor
}

// Instance is the top-level registration object. Its event queue is
// guarded by its own mutex rather than the owning handle.Table's — the
// design note calls for the instance-table mutex, but giving each instance
// its own short-lived mutex keeps the table's Get/Delete cheap and
// preserves FIFO ordering just as well, since only one goroutine ever
// enqueues to a given instance's queue at a time in practice (session
// transitions run on the calling application thread).
type Instance struct {
	mu sync.Mutex

	appName    string
	appVersion uint32
	apiVersion xrtypes.ApiVersion

	extensions map[string]bool

	system *system

	events []xrtypes.EventDataSessionStateChanged

	// sessionHandle is types.NullHandle when no session is live. Enforces
	// "only one Session may exist per Instance at a time".
	sessionHandle types.Handle
}

// CreateInstance validates the struct tag, requested API version, and
// enabled extension set, then allocates a handle for a fresh Instance with
// an empty event queue.
func (rt *Runtime) CreateInstance(info *xrtypes.InstanceCreateInfo) (types.Handle, types.Result) {
	if r := xrabi.ValidateHead(info, xrabi.StructureTypeInstanceCreateInfo); r != types.ResultSuccess {
		return types.NullHandle, r
	}
	if info.ApiVersion.Major() > xrtypes.CurrentApiVersion.Major() {
		return types.NullHandle, types.ResultApiVersionUnsupported
	}
	extensions := make(map[string]bool, len(info.EnabledExtensionNames))
	for _, name := range info.EnabledExtensionNames {
		if !supportedExtensions[name] {
			return types.NullHandle, types.ResultExtensionNotPresent
		}
		extensions[name] = true
	}

	inst := &Instance{
		appName:       info.ApplicationName,
		appVersion:    info.ApplicationVersion,
		apiVersion:    info.ApiVersion,
		extensions:    extensions,
		sessionHandle: types.NullHandle,
	}
	h := rt.instances.Create(inst)
	return h, types.ResultSuccess
}

// DestroyInstance removes the instance from its table. Per §4.D.1, in-flight
// sessions/swapchains/spaces rooted at this instance are orphaned, not
// transitively destroyed — this mirrors the source's actual (arguably
// buggy) behavior rather than "fixing" it.
func (rt *Runtime) DestroyInstance(h types.Handle) types.Result {
	if _, ok := rt.instances.Delete(h); !ok {
		return types.ResultHandleInvalid
	}
	return types.ResultSuccess
}

// InstanceValid reports whether h currently names a live Instance. Used by
// internal/loader to decide whether a proc-address request that requires an
// instance can be satisfied.
func (rt *Runtime) InstanceValid(h types.Handle) bool {
	return rt.instances.IsValid(h)
}

// enqueueEvents appends events to instanceHandle's queue in order, under
// that instance's own mutex. Called after any state-machine transition that
// produces one or more session-state-changed events, never while any
// session mutex is held.
func (rt *Runtime) enqueueEvents(instanceHandle types.Handle, events ...xrtypes.EventDataSessionStateChanged) {
	inst, ok := rt.instances.Get(instanceHandle)
	if !ok {
		return
	}
	inst.mu.Lock()
	inst.events = append(inst.events, events...)
	inst.mu.Unlock()
}

// PollEvent drains the head of instanceHandle's event queue in FIFO order.
// Returns ResultEventUnavailable (not an error) if the queue is empty.
func (rt *Runtime) PollEvent(instanceHandle types.Handle) (xrtypes.EventDataSessionStateChanged, types.Result) {
	inst, ok := rt.instances.Get(instanceHandle)
	if !ok {
		return xrtypes.EventDataSessionStateChanged{}, types.ResultHandleInvalid
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if len(inst.events) == 0 {
		return xrtypes.EventDataSessionStateChanged{}, types.ResultEventUnavailable
	}
	ev := inst.events[0]
	inst.events = inst.events[1:]
	return ev, types.ResultSuccess
}
