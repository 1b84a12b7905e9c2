// Package texture implements the two data conversions and the upload
// orchestration used by wait_swapchain_image (§4.F): RGB888 to BGRA8Unorm
// for the color swapchain, and little-endian passthrough for the depth
// swapchain (already millimeters, already little-endian as the driver
// produces it).
package texture

import (
	"encoding/binary"

	"kinectxr/internal/framecache"
	"kinectxr/internal/gpu"
	"kinectxr/pkg/types"
)

// ConvertRGBToBGRA swaps the red and blue bytes of each pixel and appends an
// opaque alpha byte. dst must be exactly 4/3 the length of src.
func ConvertRGBToBGRA(src []byte, dst []byte) {
	n := len(src) / 3
	for i := 0; i < n; i++ {
		r := src[i*3+0]
		g := src[i*3+1]
		b := src[i*3+2]
		dst[i*4+0] = b
		dst[i*4+1] = g
		dst[i*4+2] = r
		dst[i*4+3] = 255
	}
}

// depthToLE packs a millimeter depth frame into little-endian u16 bytes, the
// wire representation the driver already produces internally.
func depthToLE(src []uint16, dst []byte) {
	for i, v := range src {
		binary.LittleEndian.PutUint16(dst[i*2:i*2+2], v)
	}
}

// UploadColor snapshots the cache's RGB buffer and, if valid, converts and
// uploads it to tex. It is a no-op (returns false, not an error) if the
// cache has no valid RGB frame yet — the previous texture contents are left
// untouched, exactly as §4.F specifies.
func UploadColor(backend gpu.Backend, tex gpu.Texture, cache *framecache.Cache) bool {
	rgb, _, _, valid := cache.SnapshotRGB()
	if !valid {
		return false
	}
	bgra := make([]byte, len(rgb)/3*4)
	ConvertRGBToBGRA(rgb, bgra)
	return backend.Upload(tex, bgra, types.FrameWidth*4, types.FrameWidth, types.FrameHeight)
}

// UploadDepth snapshots the cache's depth buffer and, if valid, uploads its
// little-endian byte representation to tex. No-op if no valid depth frame
// exists yet.
func UploadDepth(backend gpu.Backend, tex gpu.Texture, cache *framecache.Cache) bool {
	depth, _, _, valid := cache.SnapshotDepth()
	if !valid {
		return false
	}
	buf := make([]byte, len(depth)*2)
	depthToLE(depth, buf)
	return backend.Upload(tex, buf, types.FrameWidth*2, types.FrameWidth, types.FrameHeight)
}
