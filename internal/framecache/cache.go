// Package framecache implements the single-producer/multi-consumer
// latest-frame store described in spec.md §4.B: one mutex guards both the
// RGB and depth buffers, their timestamps, their validity flags, and a
// shared frame_id counter. It is latest-only — there is no queueing and no
// backpressure, so a slow consumer simply observes dropped intermediate
// frames, which is the correct behavior for a real-time 30Hz camera.
package framecache

import (
	"sync"

	"kinectxr/pkg/types"
)

// Cache holds the most recent RGB and depth frames produced by a device
// driver facade. One Cache is owned per Session, and independently one per
// bridge server instance (spec.md §3 "FrameCache").
type Cache struct {
	mu sync.Mutex

	rgb          [types.RGBFrameBytes]byte
	rgbTimestamp uint32
	rgbValid     bool

	depth          [types.DepthFramePixels]uint16
	depthTimestamp uint32
	depthValid     bool

	frameID uint32
}

// New returns an empty cache with no valid frames.
func New() *Cache {
	return &Cache{}
}

// WriteRGB copies in a fresh RGB888 frame under the cache mutex. Per the
// driver facade's documented (and deliberately unresolved — see spec.md §9
// open question 1) behavior, writing a video frame does NOT advance
// frame_id; only WriteDepth does.
func (c *Cache) WriteRGB(data []byte, timestamp uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copy(c.rgb[:], data)
	c.rgbTimestamp = timestamp
	c.rgbValid = true
}

// WriteDepth copies in a fresh depth frame (already converted to
// millimeters by the driver facade) under the cache mutex, and increments
// frame_id.
func (c *Cache) WriteDepth(data []uint16, timestamp uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copy(c.depth[:], data)
	c.depthTimestamp = timestamp
	c.depthValid = true
	c.frameID++
}

// Snapshot is a consumer's copy-out of the cache's current state, taken
// entirely under the cache mutex so no torn buffer is ever observed, then
// handed back for the consumer to use lock-free.
type Snapshot struct {
	RGB          []byte
	RGBTimestamp uint32
	RGBValid     bool

	Depth          []uint16
	DepthTimestamp uint32
	DepthValid     bool

	FrameID uint32
}

// Snapshot copies out both streams and the frame_id counter under the lock.
// Callers that only need one stream should prefer SnapshotRGB/SnapshotDepth
// to avoid copying data they will discard.
func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		RGBTimestamp:   c.rgbTimestamp,
		RGBValid:       c.rgbValid,
		DepthTimestamp: c.depthTimestamp,
		DepthValid:     c.depthValid,
		FrameID:        c.frameID,
	}
	if c.rgbValid {
		s.RGB = append([]byte(nil), c.rgb[:]...)
	}
	if c.depthValid {
		s.Depth = append([]uint16(nil), c.depth[:]...)
	}
	return s
}

// SnapshotRGB copies out only the RGB stream and the frame_id counter.
func (c *Cache) SnapshotRGB() (data []byte, timestamp uint32, frameID uint32, valid bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.rgbValid {
		return nil, 0, c.frameID, false
	}
	return append([]byte(nil), c.rgb[:]...), c.rgbTimestamp, c.frameID, true
}

// SnapshotDepth copies out only the depth stream and the frame_id counter.
func (c *Cache) SnapshotDepth() (data []uint16, timestamp uint32, frameID uint32, valid bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.depthValid {
		return nil, 0, c.frameID, false
	}
	return append([]uint16(nil), c.depth[:]...), c.depthTimestamp, c.frameID, true
}

// FrameID returns the current frame_id counter without copying either
// buffer.
func (c *Cache) FrameID() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frameID
}
