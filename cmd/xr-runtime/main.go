// Command xr-runtime builds as a C-shared library implementing the loader
// ABI described in spec.md §4.E: negotiate_loader_runtime and
// get_instance_proc_addr, plus the fixed set of functions a loader can
// resolve through the latter. A real loader dlopen's the built .so/.dylib
// and finds it via the XR_RUNTIME_JSON environment variable the way any
// loader-discoverable runtime does; this binary never runs standalone.
package main

/*
#include <stdint.h>
#include <string.h>

typedef struct {
	uint32_t type;
	uint32_t min_interface_version;
	uint32_t max_interface_version;
	uint64_t min_api_version;
	uint64_t max_api_version;
} xr_loader_info_t;

typedef void* (*xr_get_proc_addr_fn)(uint64_t instance, const char* name, uint32_t* out_result);

typedef struct {
	uint32_t type;
	uint32_t interface_version;
	uint64_t runtime_api_version;
	xr_get_proc_addr_fn get_instance_proc_addr;
} xr_runtime_request_t;

extern void* get_instance_proc_addr(uint64_t instance, const char* name, uint32_t* out_result);

// Forward declarations of the exported xr* symbols below, so resolve_proc
// can take their address. cgo regenerates the authoritative prototypes for
// these in _cgo_export.h from the //export comments; these declarations
// must (and do) match exactly.
extern int32_t xrCreateInstance(const char* application_name, char** enabled_extension_names, uint32_t enabled_extension_count, uint64_t* out_instance);
extern int32_t xrDestroyInstance(uint64_t instance);
extern int32_t xrPollEvent(uint64_t instance, uint64_t* out_session, uint32_t* out_state);
extern int32_t xrGetSystem(uint64_t instance, uint32_t form_factor, uint64_t* out_system_id);
extern int32_t xrGetSystemProperties(uint64_t instance, uint64_t system_id, uint32_t* out_vendor_id, char* out_system_name, int system_name_len, uint32_t* out_max_width, uint32_t* out_max_height, uint32_t* out_max_layers);
extern int32_t xrCreateSession(uint64_t instance, uint64_t system_id, uintptr_t graphics_queue, uint64_t* out_session);
extern int32_t xrBeginSession(uint64_t session, uint32_t view_configuration_type);
extern int32_t xrEndSession(uint64_t session);
extern int32_t xrDestroySession(uint64_t session);
extern int32_t xrWaitFrame(uint64_t session, int64_t* out_predicted_display_time, int64_t* out_predicted_display_period, uint8_t* out_should_render);
extern int32_t xrBeginFrame(uint64_t session);
extern int32_t xrEndFrame(uint64_t session, int64_t display_time, uint32_t environment_blend_mode);
extern int32_t xrEnumerateSwapchainFormats(uint32_t capacity, uint32_t* out_count, int64_t* out_formats);
extern int32_t xrCreateSwapchain(uint64_t session, int64_t format, uint32_t width, uint32_t height, uint32_t sample_count, uint32_t array_size, uint32_t usage_flags, uint64_t* out_swapchain);
extern int32_t xrDestroySwapchain(uint64_t swapchain);
extern int32_t xrEnumerateSwapchainImages(uint64_t swapchain, uint32_t capacity, uint32_t* out_count, uintptr_t* out_images);
extern int32_t xrAcquireSwapchainImage(uint64_t swapchain, uint32_t* out_index);
extern int32_t xrWaitSwapchainImage(uint64_t swapchain, uint64_t session);
extern int32_t xrReleaseSwapchainImage(uint64_t swapchain);
extern int32_t xrEnumerateReferenceSpaces(uint64_t session, uint32_t capacity, uint32_t* out_count, uint32_t* out_types);
extern int32_t xrCreateReferenceSpace(uint64_t session, uint32_t reference_space_type, uint64_t* out_space);
extern int32_t xrDestroySpace(uint64_t space);
extern int32_t xrLocateSpace(uint64_t space, float* out_pose);

// resolve_proc maps a resolved name to the address of its exported C
// symbol. get_instance_proc_addr consults this after internal/loader.Dispatcher
// confirms the name and instance are valid; it never runs for a name
// internal/loader rejected.
static void* resolve_proc(const char* name) {
	if (strcmp(name, "CreateInstance") == 0) return (void*)xrCreateInstance;
	if (strcmp(name, "DestroyInstance") == 0) return (void*)xrDestroyInstance;
	if (strcmp(name, "PollEvent") == 0) return (void*)xrPollEvent;
	if (strcmp(name, "GetSystem") == 0) return (void*)xrGetSystem;
	if (strcmp(name, "GetSystemProperties") == 0) return (void*)xrGetSystemProperties;
	if (strcmp(name, "CreateSession") == 0) return (void*)xrCreateSession;
	if (strcmp(name, "BeginSession") == 0) return (void*)xrBeginSession;
	if (strcmp(name, "EndSession") == 0) return (void*)xrEndSession;
	if (strcmp(name, "DestroySession") == 0) return (void*)xrDestroySession;
	if (strcmp(name, "WaitFrame") == 0) return (void*)xrWaitFrame;
	if (strcmp(name, "BeginFrame") == 0) return (void*)xrBeginFrame;
	if (strcmp(name, "EndFrame") == 0) return (void*)xrEndFrame;
	if (strcmp(name, "EnumerateSwapchainFormats") == 0) return (void*)xrEnumerateSwapchainFormats;
	if (strcmp(name, "CreateSwapchain") == 0) return (void*)xrCreateSwapchain;
	if (strcmp(name, "DestroySwapchain") == 0) return (void*)xrDestroySwapchain;
	if (strcmp(name, "EnumerateSwapchainImages") == 0) return (void*)xrEnumerateSwapchainImages;
	if (strcmp(name, "AcquireSwapchainImage") == 0) return (void*)xrAcquireSwapchainImage;
	if (strcmp(name, "WaitSwapchainImage") == 0) return (void*)xrWaitSwapchainImage;
	if (strcmp(name, "ReleaseSwapchainImage") == 0) return (void*)xrReleaseSwapchainImage;
	if (strcmp(name, "EnumerateReferenceSpaces") == 0) return (void*)xrEnumerateReferenceSpaces;
	if (strcmp(name, "CreateReferenceSpace") == 0) return (void*)xrCreateReferenceSpace;
	if (strcmp(name, "DestroySpace") == 0) return (void*)xrDestroySpace;
	if (strcmp(name, "LocateSpace") == 0) return (void*)xrLocateSpace;
	return 0;
}

static void copy_cbuf(char* dst, int dstLen, const char* src) {
	strncpy(dst, src, dstLen - 1);
	dst[dstLen - 1] = '\0';
}
*/
import "C"

import (
	"os"
	"sync"
	"unsafe"

	"kinectxr/internal/gpu"
	"kinectxr/internal/loader"
	"kinectxr/internal/runtime"
	"kinectxr/pkg/types"
	"kinectxr/pkg/xrabi"
	"kinectxr/pkg/xrtypes"
)

var (
	once       sync.Once
	dispatcher *loader.Dispatcher
)

// ensureRuntime constructs the single Runtime+Dispatcher pair this process
// uses, the way the loader ABI is stateless per-process but the runtime
// underneath is not: first loader call constructs it, process exit tears it
// down. KINECTXR_MOCK selects the synthetic device backend for every
// session subsequently begun.
func ensureRuntime() {
	once.Do(func() {
		mock := os.Getenv("KINECTXR_MOCK") == "1"
		dispatcher = loader.NewDispatcher(runtime.New(gpu.NewSoftwareBackend(), mock))
	})
}

func cStringArray(ptr **C.char, n C.uint32_t) []string {
	if ptr == nil || n == 0 {
		return nil
	}
	out := make([]string, 0, n)
	base := (*[1 << 20]*C.char)(unsafe.Pointer(ptr))
	for i := 0; i < int(n); i++ {
		out = append(out, C.GoString(base[i]))
	}
	return out
}

//export negotiate_loader_runtime
func negotiate_loader_runtime(loaderInfo *C.xr_loader_info_t, runtimeRequest *C.xr_runtime_request_t) C.int32_t {
	ensureRuntime()
	if loaderInfo == nil || runtimeRequest == nil {
		return C.int32_t(types.ResultValidationFailure)
	}
	info := &xrtypes.LoaderInfo{
		Base:                xrabi.Base{Type: xrabi.StructureType(loaderInfo.type)},
		MinInterfaceVersion: uint32(loaderInfo.min_interface_version),
		MaxInterfaceVersion: uint32(loaderInfo.max_interface_version),
		MinApiVersion:       xrtypes.ApiVersion(loaderInfo.min_api_version),
		MaxApiVersion:       xrtypes.ApiVersion(loaderInfo.max_api_version),
	}
	req := &xrtypes.RuntimeRequest{Base: xrabi.Base{Type: xrabi.StructureType(runtimeRequest.type)}}

	r := dispatcher.NegotiateLoaderRuntime(info, req)
	if r == types.ResultSuccess {
		runtimeRequest.interface_version = C.uint32_t(req.InterfaceVersion)
		runtimeRequest.runtime_api_version = C.uint64_t(req.RuntimeApiVersion)
		runtimeRequest.get_instance_proc_addr = C.xr_get_proc_addr_fn(C.get_instance_proc_addr)
	}
	return C.int32_t(r)
}

//export get_instance_proc_addr
func get_instance_proc_addr(instance C.uint64_t, name *C.char, outResult *C.uint32_t) unsafe.Pointer {
	ensureRuntime()
	goName := C.GoString(name)
	_, r := dispatcher.GetInstanceProcAddr(types.Handle(instance), goName)
	if outResult != nil {
		*outResult = C.uint32_t(r)
	}
	if r != types.ResultSuccess {
		return nil
	}
	return C.resolve_proc(name)
}

//export xrCreateInstance
func xrCreateInstance(applicationName *C.char, enabledExtensionNames **C.char, enabledExtensionCount C.uint32_t, outInstance *C.uint64_t) C.int32_t {
	ensureRuntime()
	info := &xrtypes.InstanceCreateInfo{
		Base:                  xrabi.Base{Type: xrabi.StructureTypeInstanceCreateInfo},
		ApplicationName:       C.GoString(applicationName),
		ApiVersion:            xrtypes.CurrentApiVersion,
		EnabledExtensionNames: cStringArray(enabledExtensionNames, enabledExtensionCount),
	}
	h, r := dispatcher.RT.CreateInstance(info)
	if outInstance != nil {
		*outInstance = C.uint64_t(h)
	}
	return C.int32_t(r)
}

//export xrDestroyInstance
func xrDestroyInstance(instance C.uint64_t) C.int32_t {
	return C.int32_t(dispatcher.RT.DestroyInstance(types.Handle(instance)))
}

//export xrPollEvent
func xrPollEvent(instance C.uint64_t, outSession *C.uint64_t, outState *C.uint32_t) C.int32_t {
	ev, r := dispatcher.RT.PollEvent(types.Handle(instance))
	if r == types.ResultSuccess {
		if outSession != nil {
			*outSession = C.uint64_t(ev.Session)
		}
		if outState != nil {
			*outState = C.uint32_t(ev.State)
		}
	}
	return C.int32_t(r)
}

//export xrGetSystem
func xrGetSystem(instance C.uint64_t, formFactor C.uint32_t, outSystemID *C.uint64_t) C.int32_t {
	id, r := dispatcher.RT.GetSystem(types.Handle(instance), &xrtypes.SystemGetInfo{
		Base:       xrabi.Base{Type: xrabi.StructureTypeSystemGetInfo},
		FormFactor: xrtypes.FormFactor(formFactor),
	})
	if outSystemID != nil {
		*outSystemID = C.uint64_t(id)
	}
	return C.int32_t(r)
}

//export xrGetSystemProperties
func xrGetSystemProperties(instance C.uint64_t, systemID C.uint64_t, outVendorID *C.uint32_t, outSystemName *C.char, systemNameLen C.int, outMaxWidth, outMaxHeight, outMaxLayers *C.uint32_t) C.int32_t {
	var props xrtypes.SystemProperties
	r := dispatcher.RT.GetSystemProperties(types.Handle(instance), types.SystemID(systemID), &props)
	if r == types.ResultSuccess {
		if outVendorID != nil {
			*outVendorID = C.uint32_t(props.VendorID)
		}
		if outSystemName != nil && systemNameLen > 0 {
			C.copy_cbuf(outSystemName, systemNameLen, C.CString(props.SystemName))
		}
		if outMaxWidth != nil {
			*outMaxWidth = C.uint32_t(props.MaxSwapchainImageWidth)
		}
		if outMaxHeight != nil {
			*outMaxHeight = C.uint32_t(props.MaxSwapchainImageHeight)
		}
		if outMaxLayers != nil {
			*outMaxLayers = C.uint32_t(props.MaxLayerCount)
		}
	}
	return C.int32_t(r)
}

//export xrCreateSession
func xrCreateSession(instance C.uint64_t, systemID C.uint64_t, graphicsQueue C.uintptr_t, outSession *C.uint64_t) C.int32_t {
	binding := &xrtypes.GraphicsBindingOpaque{
		Base:         xrabi.Base{Type: xrabi.StructureTypeGraphicsBindingOpaque},
		CommandQueue: uintptr(graphicsQueue),
	}
	info := &xrtypes.SessionCreateInfo{
		Base:     xrabi.Base{Type: xrabi.StructureTypeSessionCreateInfo, Next: binding},
		SystemID: types.SystemID(systemID),
	}
	h, r := dispatcher.RT.CreateSession(types.Handle(instance), info)
	if outSession != nil {
		*outSession = C.uint64_t(h)
	}
	return C.int32_t(r)
}

//export xrBeginSession
func xrBeginSession(session C.uint64_t, viewConfigurationType C.uint32_t) C.int32_t {
	return C.int32_t(dispatcher.RT.BeginSession(types.Handle(session), xrtypes.ViewConfigurationType(viewConfigurationType)))
}

//export xrEndSession
func xrEndSession(session C.uint64_t) C.int32_t {
	return C.int32_t(dispatcher.RT.EndSession(types.Handle(session)))
}

//export xrDestroySession
func xrDestroySession(session C.uint64_t) C.int32_t {
	return C.int32_t(dispatcher.RT.DestroySession(types.Handle(session)))
}

//export xrWaitFrame
func xrWaitFrame(session C.uint64_t, outPredictedDisplayTime, outPredictedDisplayPeriod *C.int64_t, outShouldRender *C.uint8_t) C.int32_t {
	fs, r := dispatcher.RT.WaitFrame(types.Handle(session), &xrtypes.FrameWaitInfo{Base: xrabi.Base{Type: xrabi.StructureTypeFrameWaitInfo}})
	if r == types.ResultSuccess {
		if outPredictedDisplayTime != nil {
			*outPredictedDisplayTime = C.int64_t(fs.PredictedDisplayTime)
		}
		if outPredictedDisplayPeriod != nil {
			*outPredictedDisplayPeriod = C.int64_t(fs.PredictedDisplayPeriod)
		}
		if outShouldRender != nil {
			if fs.ShouldRender {
				*outShouldRender = 1
			} else {
				*outShouldRender = 0
			}
		}
	}
	return C.int32_t(r)
}

//export xrBeginFrame
func xrBeginFrame(session C.uint64_t) C.int32_t {
	return C.int32_t(dispatcher.RT.BeginFrame(types.Handle(session), &xrtypes.FrameBeginInfo{Base: xrabi.Base{Type: xrabi.StructureTypeFrameBeginInfo}}))
}

//export xrEndFrame
func xrEndFrame(session C.uint64_t, displayTime C.int64_t, environmentBlendMode C.uint32_t) C.int32_t {
	info := &xrtypes.FrameEndInfo{
		Base:                 xrabi.Base{Type: xrabi.StructureTypeFrameEndInfo},
		DisplayTime:          int64(displayTime),
		EnvironmentBlendMode: xrtypes.EnvironmentBlendMode(environmentBlendMode),
	}
	return C.int32_t(dispatcher.RT.EndFrame(types.Handle(session), info))
}

//export xrEnumerateSwapchainFormats
func xrEnumerateSwapchainFormats(capacity C.uint32_t, outCount *C.uint32_t, outFormats *C.int64_t) C.int32_t {
	var count uint32
	var buf []xrtypes.SwapchainFormat
	if capacity > 0 {
		buf = make([]xrtypes.SwapchainFormat, capacity)
	}
	r := dispatcher.RT.EnumerateSwapchainFormats(uint32(capacity), &count, buf)
	if outCount != nil {
		*outCount = C.uint32_t(count)
	}
	if r == types.ResultSuccess && capacity > 0 && outFormats != nil {
		dst := (*[1 << 20]C.int64_t)(unsafe.Pointer(outFormats))
		for i, f := range buf {
			dst[i] = C.int64_t(f)
		}
	}
	return C.int32_t(r)
}

//export xrCreateSwapchain
func xrCreateSwapchain(session C.uint64_t, format C.int64_t, width, height, sampleCount, arraySize C.uint32_t, usageFlags C.uint32_t, outSwapchain *C.uint64_t) C.int32_t {
	info := &xrtypes.SwapchainCreateInfo{
		Base:        xrabi.Base{Type: xrabi.StructureTypeSwapchainCreateInfo},
		Format:      xrtypes.SwapchainFormat(format),
		Width:       uint32(width),
		Height:      uint32(height),
		SampleCount: uint32(sampleCount),
		ArraySize:   uint32(arraySize),
		UsageFlags:  xrtypes.SwapchainUsageFlags(usageFlags),
	}
	h, r := dispatcher.RT.CreateSwapchain(types.Handle(session), info)
	if outSwapchain != nil {
		*outSwapchain = C.uint64_t(h)
	}
	return C.int32_t(r)
}

//export xrDestroySwapchain
func xrDestroySwapchain(swapchain C.uint64_t) C.int32_t {
	return C.int32_t(dispatcher.RT.DestroySwapchain(types.Handle(swapchain)))
}

//export xrEnumerateSwapchainImages
func xrEnumerateSwapchainImages(swapchain C.uint64_t, capacity C.uint32_t, outCount *C.uint32_t, outImages *C.uintptr_t) C.int32_t {
	var count uint32
	var buf []gpu.Texture
	if capacity > 0 {
		buf = make([]gpu.Texture, capacity)
	}
	r := dispatcher.RT.EnumerateSwapchainImages(types.Handle(swapchain), uint32(capacity), &count, buf)
	if outCount != nil {
		*outCount = C.uint32_t(count)
	}
	if r == types.ResultSuccess && capacity > 0 && outImages != nil {
		dst := (*[1 << 20]C.uintptr_t)(unsafe.Pointer(outImages))
		for i, tex := range buf {
			dst[i] = C.uintptr_t(tex)
		}
	}
	return C.int32_t(r)
}

//export xrAcquireSwapchainImage
func xrAcquireSwapchainImage(swapchain C.uint64_t, outIndex *C.uint32_t) C.int32_t {
	idx, r := dispatcher.RT.AcquireSwapchainImage(types.Handle(swapchain))
	if outIndex != nil {
		*outIndex = C.uint32_t(idx)
	}
	return C.int32_t(r)
}

//export xrWaitSwapchainImage
func xrWaitSwapchainImage(swapchain, session C.uint64_t) C.int32_t {
	return C.int32_t(dispatcher.RT.WaitSwapchainImage(types.Handle(swapchain), types.Handle(session)))
}

//export xrReleaseSwapchainImage
func xrReleaseSwapchainImage(swapchain C.uint64_t) C.int32_t {
	return C.int32_t(dispatcher.RT.ReleaseSwapchainImage(types.Handle(swapchain)))
}

//export xrEnumerateReferenceSpaces
func xrEnumerateReferenceSpaces(session C.uint64_t, capacity C.uint32_t, outCount *C.uint32_t, outTypes *C.uint32_t) C.int32_t {
	var count uint32
	var buf []xrtypes.ReferenceSpaceType
	if capacity > 0 {
		buf = make([]xrtypes.ReferenceSpaceType, capacity)
	}
	r := dispatcher.RT.EnumerateReferenceSpaces(types.Handle(session), uint32(capacity), &count, buf)
	if outCount != nil {
		*outCount = C.uint32_t(count)
	}
	if r == types.ResultSuccess && capacity > 0 && outTypes != nil {
		dst := (*[1 << 20]C.uint32_t)(unsafe.Pointer(outTypes))
		for i, t := range buf {
			dst[i] = C.uint32_t(t)
		}
	}
	return C.int32_t(r)
}

//export xrCreateReferenceSpace
func xrCreateReferenceSpace(session C.uint64_t, referenceSpaceType C.uint32_t, outSpace *C.uint64_t) C.int32_t {
	info := &xrtypes.ReferenceSpaceCreateInfo{
		Base:               xrabi.Base{Type: xrabi.StructureTypeReferenceSpaceCreateInfo},
		ReferenceSpaceType: xrtypes.ReferenceSpaceType(referenceSpaceType),
		PoseInReferenceSpace: xrtypes.IdentityPose,
	}
	h, r := dispatcher.RT.CreateReferenceSpace(types.Handle(session), info)
	if outSpace != nil {
		*outSpace = C.uint64_t(h)
	}
	return C.int32_t(r)
}

//export xrDestroySpace
func xrDestroySpace(space C.uint64_t) C.int32_t {
	return C.int32_t(dispatcher.RT.DestroySpace(types.Handle(space)))
}

//export xrLocateSpace
func xrLocateSpace(space C.uint64_t, outPose *C.float) C.int32_t {
	pose, r := dispatcher.RT.LocateSpace(types.Handle(space))
	if r == types.ResultSuccess && outPose != nil {
		dst := (*[7]C.float)(unsafe.Pointer(outPose))
		dst[0] = C.float(pose.Orientation.X)
		dst[1] = C.float(pose.Orientation.Y)
		dst[2] = C.float(pose.Orientation.Z)
		dst[3] = C.float(pose.Orientation.W)
		dst[4] = C.float(pose.Position.X)
		dst[5] = C.float(pose.Position.Y)
		dst[6] = C.float(pose.Position.Z)
	}
	return C.int32_t(r)
}

func main() {}
