package device

import (
	"sync"
	"testing"
	"time"

	"kinectxr/pkg/types"
)

func TestMockOpenIdempotent(t *testing.T) {
	d := newMockDriver()
	cfg := types.DeviceConfig{EnableRGB: true, EnableDepth: true, EnableMotor: true}
	if err := d.Open(cfg); err != types.DeviceErrorNone {
		t.Fatalf("first Open: %v", err)
	}
	if err := d.Open(cfg); err != types.DeviceErrorNone {
		t.Fatalf("second Open should be idempotent, got %v", err)
	}
}

func TestMockStartStreamsRequiresOpen(t *testing.T) {
	d := newMockDriver()
	if err := d.StartStreams(); err != types.DeviceErrorNotInitialized {
		t.Fatalf("expected NotInitialized, got %v", err)
	}
}

func TestMockStartStreamsTwiceFails(t *testing.T) {
	d := newMockDriver()
	_ = d.Open(types.DeviceConfig{EnableRGB: true, EnableDepth: true})
	if err := d.StartStreams(); err != types.DeviceErrorNone {
		t.Fatalf("first StartStreams: %v", err)
	}
	defer d.StopStreams()
	if err := d.StartStreams(); err != types.DeviceErrorAlreadyStreaming {
		t.Fatalf("expected AlreadyStreaming, got %v", err)
	}
}

func TestMockStopStreamsRequiresStreaming(t *testing.T) {
	d := newMockDriver()
	_ = d.Open(types.DeviceConfig{})
	if err := d.StopStreams(); err != types.DeviceErrorNotStreaming {
		t.Fatalf("expected NotStreaming, got %v", err)
	}
}

func TestMockProducesFrames(t *testing.T) {
	d := newMockDriver()
	_ = d.Open(types.DeviceConfig{EnableRGB: true, EnableDepth: true})

	var mu sync.Mutex
	var rgbCount, depthCount int
	d.SetVideoCallback(func(rgb []byte, ts uint32) {
		mu.Lock()
		rgbCount++
		mu.Unlock()
	})
	d.SetDepthCallback(func(depth []uint16, ts uint32) {
		mu.Lock()
		depthCount++
		mu.Unlock()
	})

	if err := d.StartStreams(); err != types.DeviceErrorNone {
		t.Fatalf("StartStreams: %v", err)
	}
	time.Sleep(150 * time.Millisecond)
	if err := d.StopStreams(); err != types.DeviceErrorNone {
		t.Fatalf("StopStreams: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if rgbCount == 0 || depthCount == 0 {
		t.Fatalf("expected frames to be produced, got rgb=%d depth=%d", rgbCount, depthCount)
	}
}

func TestMockTiltClamping(t *testing.T) {
	d := newMockDriver()
	_ = d.Open(types.DeviceConfig{})

	if err := d.SetTilt(1000); err != types.DeviceErrorNone {
		t.Fatalf("SetTilt: %v", err)
	}
	md := d.(*mockDriver)
	md.mu.Lock()
	target := md.tiltTargetDeg
	md.mu.Unlock()
	if target != types.TiltMaxDeg {
		t.Fatalf("expected clamp to %v, got %v", types.TiltMaxDeg, target)
	}

	if err := d.SetTilt(-1000); err != types.DeviceErrorNone {
		t.Fatalf("SetTilt: %v", err)
	}
	md.mu.Lock()
	target = md.tiltTargetDeg
	md.mu.Unlock()
	if target != types.TiltMinDeg {
		t.Fatalf("expected clamp to %v, got %v", types.TiltMinDeg, target)
	}
}

func TestMockLEDRoundTrip(t *testing.T) {
	d := newMockDriver()
	_ = d.Open(types.DeviceConfig{})
	if err := d.SetLED(types.LEDRed); err != types.DeviceErrorNone {
		t.Fatalf("SetLED: %v", err)
	}
	md := d.(*mockDriver)
	md.mu.Lock()
	led := md.led
	md.mu.Unlock()
	if led != types.LEDRed {
		t.Fatalf("expected LEDRed, got %v", led)
	}
}

func TestMockGetMotorStatusRequiresOpen(t *testing.T) {
	d := newMockDriver()
	if _, err := d.GetMotorStatus(); err != types.DeviceErrorNotInitialized {
		t.Fatalf("expected NotInitialized, got %v", err)
	}
}

func TestErrorRateLimiterSuppressesWithinWindow(t *testing.T) {
	r := newErrorRateLimiter(time.Second)
	base := time.Unix(0, 0)
	r.Report(base, "a")
	r.Report(base.Add(100*time.Millisecond), "b")
	r.mu.Lock()
	count := r.count
	r.mu.Unlock()
	if count != 2 {
		t.Fatalf("expected both reports suppressed into one counter, got count=%d", count)
	}
}

func TestErrorRateLimiterEmitsAfterWindow(t *testing.T) {
	r := newErrorRateLimiter(time.Second)
	base := time.Unix(0, 0)
	r.Report(base, "a")
	r.Report(base.Add(2*time.Second), "b")
	r.mu.Lock()
	count := r.count
	r.mu.Unlock()
	if count != 0 {
		t.Fatalf("expected counter reset after emitting, got count=%d", count)
	}
}
