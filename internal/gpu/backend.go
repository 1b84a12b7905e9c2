// Package gpu declares the tiny opaque-texture contract the runtime depends
// on (§6 of the design) without depending on any real graphics API. A
// Backend is supplied to the runtime at session-creation time, derived from
// the application's GPU command-queue pointer; the runtime treats every
// value it returns as opaque.
package gpu

// Texture is an opaque handle to a GPU-visible image. Zero is the null
// texture: create_swapchain tolerates a backend that returns it (as a
// synthetic binding in tests would) and simply stores a null slot.
type Texture uintptr

// NullTexture is the zero value of Texture.
const NullTexture Texture = 0

// Backend is the minimal surface the swapchain and texture-upload paths
// need. Real implementations wrap a specific graphics API; this module
// only ever talks to this interface.
type Backend interface {
	// DeviceFromQueue derives an opaque device pointer from the
	// application-supplied command-queue pointer at session creation.
	DeviceFromQueue(queue uintptr) uintptr

	// CreateTexture allocates one GPU-visible image. format is passed
	// through verbatim — this module never interprets it beyond routing
	// color vs. depth formats to the right upload path.
	CreateTexture(device uintptr, width, height uint32, format int64) Texture

	// ReleaseTexture frees a texture previously returned by CreateTexture.
	// Safe to call with NullTexture.
	ReleaseTexture(t Texture)

	// Upload writes bytesPerRow*height bytes into t's backing storage. It
	// returns false if the backend cannot perform the upload (a null
	// texture always returns false; callers treat that as a no-op, never
	// as an error to propagate to the application).
	Upload(t Texture, data []byte, bytesPerRow, width, height uint32) bool
}
