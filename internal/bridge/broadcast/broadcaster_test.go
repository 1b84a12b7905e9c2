package broadcast

import (
	"sync"
	"testing"
	"time"

	"kinectxr/internal/framecache"
)

type fakeSubscriber struct {
	mu      sync.Mutex
	streams map[StreamType]bool
	frames  [][]byte
}

func newFakeSubscriber(streams ...StreamType) *fakeSubscriber {
	s := &fakeSubscriber{streams: map[StreamType]bool{}}
	for _, st := range streams {
		s.streams[st] = true
	}
	return s
}

func (s *fakeSubscriber) IsSubscribed(stream StreamType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streams[stream]
}

func (s *fakeSubscriber) SendBinary(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
}

func (s *fakeSubscriber) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

type fakeClientSource struct {
	mu      sync.Mutex
	clients []Subscriber
}

func (f *fakeClientSource) Snapshot() []Subscriber {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Subscriber(nil), f.clients...)
}

func (f *fakeClientSource) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func (f *fakeClientSource) add(s Subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients = append(f.clients, s)
}

func TestBroadcastMockModeSendsBothStreamsToSubscribedClient(t *testing.T) {
	sources := &fakeClientSource{}
	sub := newFakeSubscriber(StreamTypeRGB, StreamTypeDepth)
	sources.add(sub)

	b := New(framecache.New(), sources, true, nil)
	b.Start()
	defer b.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sub.count() >= 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if sub.count() < 2 {
		t.Fatalf("expected at least one rgb and one depth frame, got %d sends", sub.count())
	}
}

func TestBroadcastOnlySendsSubscribedStream(t *testing.T) {
	sources := &fakeClientSource{}
	rgbOnly := newFakeSubscriber(StreamTypeRGB)
	sources.add(rgbOnly)

	b := New(framecache.New(), sources, true, nil)
	b.Start()
	defer b.Stop()

	time.Sleep(150 * time.Millisecond)
	for _, frame := range rgbOnlyFrames(rgbOnly) {
		if len(frame) < 8 {
			t.Fatalf("frame too short: %d bytes", len(frame))
		}
		streamType := StreamType(frame[4]) | StreamType(frame[5])<<8
		if streamType != StreamTypeRGB {
			t.Fatalf("expected only RGB frames delivered, got stream type %d", streamType)
		}
	}
}

func rgbOnlyFrames(s *fakeSubscriber) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.frames...)
}

func TestPackFrameHeaderLayout(t *testing.T) {
	frame := packFrame(0x01020304, StreamTypeDepth, []byte{0xAA, 0xBB})
	if len(frame) != 10 {
		t.Fatalf("expected 8 byte header + 2 byte payload, got %d", len(frame))
	}
	gotID := uint32(frame[0]) | uint32(frame[1])<<8 | uint32(frame[2])<<16 | uint32(frame[3])<<24
	if gotID != 0x01020304 {
		t.Fatalf("frame_id round-trip mismatch: %x", gotID)
	}
	gotType := StreamType(frame[4]) | StreamType(frame[5])<<8
	if gotType != StreamTypeDepth {
		t.Fatalf("unexpected stream_type: %d", gotType)
	}
	if frame[6] != 0 || frame[7] != 0 {
		t.Fatalf("reserved field must be zero, got %d %d", frame[6], frame[7])
	}
	if frame[8] != 0xAA || frame[9] != 0xBB {
		t.Fatalf("payload not copied correctly: %v", frame[8:])
	}
}

func TestSyntheticDepthClampedToValidRange(t *testing.T) {
	depthBytes := syntheticDepthBytes(1)
	for i := 0; i < len(depthBytes); i += 2 {
		v := uint16(depthBytes[i]) | uint16(depthBytes[i+1])<<8
		if v < 800 || v > 4000 {
			t.Fatalf("synthetic depth value %d out of clamped range [800,4000]", v)
		}
	}
}

func TestAdvanceScheduleCountsWholeIntervalsBehindWithNoOffByOne(t *testing.T) {
	base := time.Now()
	// next is 3.5 intervals behind now: after the unconditional +frameInterval
	// step it lands 2.5 intervals behind, so exactly 2 whole intervals were
	// skipped, not 3 — a +1 here would be the exact spurious bug this test
	// guards against.
	next := base.Add(-3*frameInterval - frameInterval/2)

	skipped, newNext := advanceSchedule(base, next)

	if skipped != 2 {
		t.Fatalf("expected 2 dropped intervals, got %d", skipped)
	}
	wantNext := base.Add(frameInterval)
	if !newNext.Equal(wantNext) {
		t.Fatalf("expected next frame time snapped to now+frameInterval, got %v want %v", newNext, wantNext)
	}
}

func TestAdvanceScheduleOnScheduleDropsNothing(t *testing.T) {
	base := time.Now()
	next := base // exactly due this tick, not behind at all

	skipped, newNext := advanceSchedule(base, next)

	if skipped != 0 {
		t.Fatalf("expected 0 dropped intervals when on schedule, got %d", skipped)
	}
	wantNext := base.Add(frameInterval)
	if !newNext.Equal(wantNext) {
		t.Fatalf("expected next frame time to be next+frameInterval, got %v want %v", newNext, wantNext)
	}
}

func TestStopJoinsRunGoroutine(t *testing.T) {
	b := New(framecache.New(), &fakeClientSource{}, true, nil)
	b.Start()
	b.Stop()
	// A second Start/Stop cycle must not hang or panic.
	b.Start()
	b.Stop()
}
