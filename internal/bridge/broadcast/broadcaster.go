// Package broadcast implements the bridge's 30Hz frame-fanout loop: one
// dedicated goroutine that snapshots the frame cache, packs binary frames,
// and pushes them to every subscribed client. Lifecycle (stop channel
// closed, done channel joined) is grounded on
// internal/device/driver_mock.go's generate goroutine.
package broadcast

import (
	"math"
	"time"

	"kinectxr/internal/framecache"
	"kinectxr/pkg/types"
)

// StreamType is the binary frame header's stream_type field.
type StreamType uint16

const (
	StreamTypeRGB   StreamType = 1
	StreamTypeDepth StreamType = 2
)

// frameInterval is the broadcaster's fixed 30Hz pacing period.
const frameInterval = 33 * time.Millisecond

const statsInterval = 10 * time.Second

// Subscriber is the broadcaster's view of one connected client: which
// streams it wants, and how to hand it a binary frame. Implemented by
// internal/bridge's Client.
type Subscriber interface {
	IsSubscribed(stream StreamType) bool
	SendBinary(frame []byte)
}

// ClientSource supplies the current client set without the broadcaster
// needing to know how clients are registered or locked.
type ClientSource interface {
	Snapshot() []Subscriber
	Count() int
}

// DeviceStreams is the demand-start/stop hook for the underlying device's
// capture streams, driven by first-connect/last-disconnect transitions.
// Mock mode bypasses this entirely, per spec.md §4.H.
type DeviceStreams interface {
	StartStreams() types.DeviceError
	StopStreams() types.DeviceError
}

// Stats is the one-line summary emitted every 10s.
type Stats struct {
	ClientCount   int
	RGBFps        float64
	DepthFps      float64
	FramesSent    uint64
	DroppedFrames uint64
}

// Broadcaster owns the 30Hz pacing loop described in spec.md §4.H.
type Broadcaster struct {
	cache   *framecache.Cache
	clients ClientSource
	mock    bool
	onStats func(Stats)

	// onSent and onDropped, if non-nil, fire on every tick a frame is
	// actually sent or whole frames are counted as dropped, so a caller
	// can feed live Prometheus counters instead of only the 10s summary.
	onSent    func(stream StreamType)
	onDropped func(count uint64)

	stop chan struct{}
	done chan struct{}

	mockFrameID uint32
}

// New constructs a Broadcaster. onStats, if non-nil, is called once per
// statsInterval with the accumulated counters; pass nil to disable
// reporting.
func New(cache *framecache.Cache, clients ClientSource, mock bool, onStats func(Stats)) *Broadcaster {
	return &Broadcaster{cache: cache, clients: clients, mock: mock, onStats: onStats}
}

// SetMetricsHooks installs per-tick callbacks for frames sent and frames
// dropped, so live counters stay in sync with the stream rather than only
// updating once per statsInterval. Must be called before Start.
func (b *Broadcaster) SetMetricsHooks(onSent func(stream StreamType), onDropped func(count uint64)) {
	b.onSent = onSent
	b.onDropped = onDropped
}

// Start launches the pacing goroutine. Calling Start twice without an
// intervening Stop is a caller error.
func (b *Broadcaster) Start() {
	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	go b.run(b.stop, b.done)
}

// Stop signals the pacing goroutine and blocks until it has exited.
func (b *Broadcaster) Stop() {
	if b.stop == nil {
		return
	}
	close(b.stop)
	<-b.done
}

func (b *Broadcaster) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	var rgbSent, depthSent, dropped uint64
	lastStats := time.Now()
	nextFrameTime := time.Now().Add(frameInterval)

	for {
		select {
		case <-stop:
			return
		default:
		}

		now := time.Now()

		if now.Sub(lastStats) >= statsInterval {
			if b.onStats != nil {
				elapsed := now.Sub(lastStats).Seconds()
				b.onStats(Stats{
					ClientCount:   b.clients.Count(),
					RGBFps:        float64(rgbSent) / elapsed,
					DepthFps:      float64(depthSent) / elapsed,
					FramesSent:    rgbSent + depthSent,
					DroppedFrames: dropped,
				})
			}
			rgbSent, depthSent, dropped = 0, 0, 0
			lastStats = now
		}

		if now.Sub(nextFrameTime) >= 0 {
			rgbFrame, depthFrame, _ := b.buildFrames()
			if rgbFrame != nil {
				b.sendToSubscribers(StreamTypeRGB, rgbFrame)
				rgbSent++
				if b.onSent != nil {
					b.onSent(StreamTypeRGB)
				}
			}
			if depthFrame != nil {
				b.sendToSubscribers(StreamTypeDepth, depthFrame)
				depthSent++
				if b.onSent != nil {
					b.onSent(StreamTypeDepth)
				}
			}

			var skipped uint64
			skipped, nextFrameTime = advanceSchedule(now, nextFrameTime)
			dropped += skipped
			if b.onDropped != nil && skipped > 0 {
				b.onDropped(skipped)
			}
		}

		sleepFor := time.Until(nextFrameTime)
		if sleepFor <= 0 {
			continue
		}
		select {
		case <-stop:
			return
		case <-time.After(sleepFor):
		}
	}
}

// advanceSchedule moves next one frameInterval forward, then, if that lands
// before now, folds in however many whole intervals the loop fell behind by
// and snaps next to now+frameInterval. skipped is the number of whole
// intervals counted as dropped — behind/frameInterval, no off-by-one, per
// the original's `skipped = (now-nextFrameTime)/FRAME_INTERVAL_MS`.
func advanceSchedule(now, next time.Time) (skipped uint64, newNext time.Time) {
	next = next.Add(frameInterval)
	if next.Before(now) {
		behind := now.Sub(next)
		skipped = uint64(behind / frameInterval)
		return skipped, now.Add(frameInterval)
	}
	return 0, next
}

// buildFrames snapshots the cache (or synthesizes, in mock mode) and packs
// each valid stream into its wire-ready binary frame. A nil return for
// either slot means that stream had no valid data this tick.
func (b *Broadcaster) buildFrames() (rgbFrame, depthFrame []byte, frameID uint32) {
	if b.mock {
		b.mockFrameID++
		frameID = b.mockFrameID
		rgbFrame = packFrame(frameID, StreamTypeRGB, syntheticGradient(frameID))
		depthFrame = packFrame(frameID, StreamTypeDepth, syntheticDepthBytes(frameID))
		return rgbFrame, depthFrame, frameID
	}

	snap := b.cache.Snapshot()
	frameID = snap.FrameID
	if snap.RGBValid {
		rgbFrame = packFrame(frameID, StreamTypeRGB, snap.RGB)
	}
	if snap.DepthValid {
		depthFrame = packFrame(frameID, StreamTypeDepth, depthToLEBytes(snap.Depth))
	}
	return rgbFrame, depthFrame, frameID
}

func (b *Broadcaster) sendToSubscribers(stream StreamType, frame []byte) {
	for _, client := range b.clients.Snapshot() {
		if client.IsSubscribed(stream) {
			client.SendBinary(frame)
		}
	}
}

// packFrame builds the 8-byte header (frame_id u32 LE, stream_type u16 LE,
// reserved u16=0) followed by pixel_bytes, per spec.md §4.G/§4.H.
func packFrame(frameID uint32, stream StreamType, pixels []byte) []byte {
	buf := make([]byte, 8+len(pixels))
	buf[0] = byte(frameID)
	buf[1] = byte(frameID >> 8)
	buf[2] = byte(frameID >> 16)
	buf[3] = byte(frameID >> 24)
	buf[4] = byte(stream)
	buf[5] = byte(stream >> 8)
	buf[6] = 0
	buf[7] = 0
	copy(buf[8:], pixels)
	return buf
}

func depthToLEBytes(depth []uint16) []byte {
	out := make([]byte, len(depth)*2)
	for i, v := range depth {
		out[2*i] = byte(v)
		out[2*i+1] = byte(v >> 8)
	}
	return out
}

// syntheticGradient produces a moving RGB888 gradient keyed by frameID, for
// mock-mode streaming with no real device attached.
func syntheticGradient(frameID uint32) []byte {
	out := make([]byte, types.RGBFrameBytes)
	shift := byte(frameID)
	for y := 0; y < types.FrameHeight; y++ {
		for x := 0; x < types.FrameWidth; x++ {
			i := (y*types.FrameWidth + x) * 3
			out[i] = byte(x) + shift
			out[i+1] = byte(y) + shift
			out[i+2] = shift
		}
	}
	return out
}

// syntheticDepthBytes produces a radial wave depth field in millimeters,
// clamped to [800, 4000], packed little-endian.
func syntheticDepthBytes(frameID uint32) []byte {
	depth := make([]uint16, types.DepthFramePixels)
	cx, cy := types.FrameWidth/2, types.FrameHeight/2
	phase := float64(frameID) * 0.1
	for y := 0; y < types.FrameHeight; y++ {
		for x := 0; x < types.FrameWidth; x++ {
			dx, dy := float64(x-cx), float64(y-cy)
			r := math.Sqrt(dx*dx + dy*dy)
			mm := 2400 + 1600*math.Sin(r/20-phase)
			if mm < 800 {
				mm = 800
			}
			if mm > 4000 {
				mm = 4000
			}
			depth[y*types.FrameWidth+x] = uint16(mm)
		}
	}
	return depthToLEBytes(depth)
}
