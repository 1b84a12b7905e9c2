package runtime

import (
	"sync"

	"kinectxr/internal/gpu"
	"kinectxr/internal/texture"
	"kinectxr/pkg/types"
	"kinectxr/pkg/xrabi"
	"kinectxr/pkg/xrtypes"
)

const swapchainImageCount = 3

// swapchainFormats is the fixed, complete set enumerate_formats reports.
var swapchainFormats = []xrtypes.SwapchainFormat{
	xrtypes.SwapchainFormatColorBGRA8Unorm,
	xrtypes.SwapchainFormatDepthR16Uint,
}

// Swapchain is bound to one Session and owns its three texture slots
// exclusively, releasing them on destruction. acquired is a one-bit mutex:
// at most one image acquired at a time.
type Swapchain struct {
	mu sync.Mutex

	handle  types.Handle
	session types.Handle

	format xrtypes.SwapchainFormat
	width  uint32
	height uint32

	currentIndex int
	acquired     bool
	acquiredIdx  int

	textures [swapchainImageCount]gpu.Texture
}

// EnumerateSwapchainFormats follows the two-call idiom over the fixed
// {ColorBGRA8Unorm, DepthR16Uint} set.
func (rt *Runtime) EnumerateSwapchainFormats(capacity uint32, count *uint32, buf []xrtypes.SwapchainFormat) types.Result {
	return xrabi.Enumerate(capacity, count, buf, swapchainFormats)
}

// CreateSwapchain validates format, size, sample/array counts, and usage
// flags, then allocates three textures through the GPU backend. A backend
// that returns the null texture (as a synthetic binding would) is
// tolerated — the null slot is stored as-is.
func (rt *Runtime) CreateSwapchain(sessionHandle types.Handle, info *xrtypes.SwapchainCreateInfo) (types.Handle, types.Result) {
	if r := xrabi.ValidateHead(info, xrabi.StructureTypeSwapchainCreateInfo); r != types.ResultSuccess {
		return types.NullHandle, r
	}
	sess, ok := rt.sessions.Get(sessionHandle)
	if !ok {
		return types.NullHandle, types.ResultHandleInvalid
	}
	if info.Format != xrtypes.SwapchainFormatColorBGRA8Unorm && info.Format != xrtypes.SwapchainFormatDepthR16Uint {
		return types.NullHandle, types.ResultSwapchainFormatUnsupported
	}
	if info.Width > types.FrameWidth || info.Height > types.FrameHeight {
		return types.NullHandle, types.ResultSizeInsufficient
	}
	if info.SampleCount != 1 || info.ArraySize != 1 {
		return types.NullHandle, types.ResultFeatureUnsupported
	}
	switch info.Format {
	case xrtypes.SwapchainFormatColorBGRA8Unorm:
		if info.UsageFlags&xrtypes.SwapchainUsageColorAttachment == 0 {
			return types.NullHandle, types.ResultFeatureUnsupported
		}
	case xrtypes.SwapchainFormatDepthR16Uint:
		if info.UsageFlags&xrtypes.SwapchainUsageDepthStencilAttachment == 0 {
			return types.NullHandle, types.ResultFeatureUnsupported
		}
	}

	sess.mu.Lock()
	device := sess.device
	sess.mu.Unlock()

	sc := &Swapchain{
		session: sessionHandle,
		format:  info.Format,
		width:   info.Width,
		height:  info.Height,
	}
	for i := 0; i < swapchainImageCount; i++ {
		sc.textures[i] = rt.backend.CreateTexture(device, info.Width, info.Height, int64(info.Format))
	}
	h := rt.swapchains.Create(sc)
	sc.handle = h
	return h, types.ResultSuccess
}

// DestroySwapchain removes the swapchain from its table and releases each
// texture slot through the GPU backend.
func (rt *Runtime) DestroySwapchain(swapchainHandle types.Handle) types.Result {
	sc, ok := rt.swapchains.Delete(swapchainHandle)
	if !ok {
		return types.ResultHandleInvalid
	}
	for _, t := range sc.textures {
		rt.backend.ReleaseTexture(t)
	}
	return types.ResultSuccess
}

// EnumerateSwapchainImages returns the three texture handles in fixed
// order via the two-call idiom.
func (rt *Runtime) EnumerateSwapchainImages(swapchainHandle types.Handle, capacity uint32, count *uint32, buf []gpu.Texture) types.Result {
	sc, ok := rt.swapchains.Get(swapchainHandle)
	if !ok {
		return types.ResultHandleInvalid
	}
	sc.mu.Lock()
	source := append([]gpu.Texture(nil), sc.textures[:]...)
	sc.mu.Unlock()
	return xrabi.Enumerate(capacity, count, buf, source)
}

// AcquireSwapchainImage fails CallOrderInvalid if an image is already
// acquired; otherwise it outputs the current index, sets the acquired
// flag, and advances current_index by one mod imageCount.
func (rt *Runtime) AcquireSwapchainImage(swapchainHandle types.Handle) (uint32, types.Result) {
	sc, ok := rt.swapchains.Get(swapchainHandle)
	if !ok {
		return 0, types.ResultHandleInvalid
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.acquired {
		return 0, types.ResultCallOrderInvalid
	}
	index := sc.currentIndex
	sc.acquiredIdx = index
	sc.acquired = true
	sc.currentIndex = (sc.currentIndex + 1) % swapchainImageCount
	return uint32(index), types.ResultSuccess
}

// WaitSwapchainImage requires the acquired flag to be set. It performs the
// texture-upload side effect (§4.F) for the acquired slot, entirely inside
// the swapchain mutex, and returns immediately — there is no real GPU
// fence to wait on.
func (rt *Runtime) WaitSwapchainImage(swapchainHandle types.Handle, sessionHandle types.Handle) types.Result {
	sc, ok := rt.swapchains.Get(swapchainHandle)
	if !ok {
		return types.ResultHandleInvalid
	}
	sess, ok := rt.sessions.Get(sessionHandle)
	if !ok {
		return types.ResultHandleInvalid
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if !sc.acquired {
		return types.ResultCallOrderInvalid
	}
	tex := sc.textures[sc.acquiredIdx]
	format := sc.format
	cache := sess.cache

	switch format {
	case xrtypes.SwapchainFormatColorBGRA8Unorm:
		texture.UploadColor(rt.backend, tex, cache)
	case xrtypes.SwapchainFormatDepthR16Uint:
		texture.UploadDepth(rt.backend, tex, cache)
	}
	return types.ResultSuccess
}

// ReleaseSwapchainImage requires the acquired flag to be set and clears it.
func (rt *Runtime) ReleaseSwapchainImage(swapchainHandle types.Handle) types.Result {
	sc, ok := rt.swapchains.Get(swapchainHandle)
	if !ok {
		return types.ResultHandleInvalid
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if !sc.acquired {
		return types.ResultCallOrderInvalid
	}
	sc.acquired = false
	return types.ResultSuccess
}
