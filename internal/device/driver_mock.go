package device

import (
	"math"
	"sync"
	"time"

	"kinectxr/pkg/types"
)

// mockDriver synthesizes RGB/depth frames and a software motor/LED/
// accelerometer model so the runtime and bridge server can be exercised
// without hardware. Lifecycle mirrors the teacher's subprocess adapter
// shape in internal/manager/adapter_llama_subprocess.go: a mutex-guarded
// state struct, a background goroutine started on StartStreams, and a done
// channel joined on StopStreams.
type mockDriver struct {
	mu sync.Mutex

	cfg         types.DeviceConfig
	initialized bool
	streaming   bool

	depthCB DepthCallback
	videoCB VideoCallback

	stop chan struct{}
	done chan struct{}

	tiltTargetDeg  float64
	tiltCurrentDeg float64
	tiltStatus     types.TiltStatus
	led            types.LEDState
}

func newMockDriver() Driver {
	return &mockDriver{led: types.LEDOff, tiltStatus: types.TiltStopped}
}

func (d *mockDriver) Open(cfg types.DeviceConfig) types.DeviceError {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return types.DeviceErrorNone
	}
	d.cfg = cfg
	d.initialized = true
	return types.DeviceErrorNone
}

func (d *mockDriver) StartStreams() types.DeviceError {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return types.DeviceErrorNotInitialized
	}
	if d.streaming {
		return types.DeviceErrorAlreadyStreaming
	}
	d.streaming = true
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	go d.generate(d.stop, d.done)
	return types.DeviceErrorNone
}

func (d *mockDriver) StopStreams() types.DeviceError {
	d.mu.Lock()
	if !d.initialized {
		d.mu.Unlock()
		return types.DeviceErrorNotInitialized
	}
	if !d.streaming {
		d.mu.Unlock()
		return types.DeviceErrorNotStreaming
	}
	stop, done := d.stop, d.done
	d.mu.Unlock()

	close(stop)
	<-done

	d.mu.Lock()
	defer d.mu.Unlock()
	d.streaming = false
	return types.DeviceErrorNone
}

// generate runs at roughly the real device's frame rate, producing a moving
// gradient for RGB and a sinusoidal depth plane plus one simulated tilt-motor
// step per tick. It executes on its own goroutine, matching the real driver's
// event-pump-thread contract: callbacks run off this goroutine and must not
// block.
func (d *mockDriver) generate(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()

	depth := make([]uint16, types.DepthFramePixels)
	rgb := make([]byte, types.RGBFrameBytes)

	var frame uint32
	start := time.Now()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		frame++
		elapsedMs := uint32(time.Since(start).Milliseconds())

		d.mu.Lock()
		videoCB, depthCB := d.videoCB, d.depthCB
		cfg := d.cfg
		d.stepMotor()
		d.mu.Unlock()

		if cfg.EnableRGB && videoCB != nil {
			fillSyntheticRGB(rgb, frame)
			videoCB(rgb, elapsedMs)
		}
		if cfg.EnableDepth && depthCB != nil {
			fillSyntheticDepth(depth, frame)
			depthCB(depth, elapsedMs)
		}
	}
}

func fillSyntheticRGB(buf []byte, frame uint32) {
	shift := byte(frame % 256)
	for i := 0; i < types.FrameWidth*types.FrameHeight; i++ {
		x := i % types.FrameWidth
		y := i / types.FrameWidth
		base := byte(x) + byte(y) + shift
		buf[i*3+0] = base
		buf[i*3+1] = base + 85
		buf[i*3+2] = base + 170
	}
}

func fillSyntheticDepth(buf []uint16, frame uint32) {
	phase := float64(frame) * 0.05
	for i := 0; i < types.DepthFramePixels; i++ {
		x := i % types.FrameWidth
		wave := math.Sin(float64(x)/40.0 + phase)
		mm := 1000 + int(wave*500)
		if mm < types.DepthMinMM {
			mm = types.DepthMinMM
		}
		if mm > types.DepthMaxMM {
			mm = types.DepthMaxMM
		}
		buf[i] = uint16(mm)
	}
}

// stepMotor advances the simulated tilt angle one step toward
// tiltTargetDeg, mimicking the real motor's bounded speed, and reports
// Moving/AtLimit/Stopped accordingly. Caller holds d.mu.
func (d *mockDriver) stepMotor() {
	const stepDeg = 2.0
	diff := d.tiltTargetDeg - d.tiltCurrentDeg
	switch {
	case diff > stepDeg:
		d.tiltCurrentDeg += stepDeg
		d.tiltStatus = types.TiltMoving
	case diff < -stepDeg:
		d.tiltCurrentDeg -= stepDeg
		d.tiltStatus = types.TiltMoving
	default:
		d.tiltCurrentDeg = d.tiltTargetDeg
		if d.tiltCurrentDeg == types.TiltMinDeg || d.tiltCurrentDeg == types.TiltMaxDeg {
			d.tiltStatus = types.TiltAtLimit
		} else {
			d.tiltStatus = types.TiltStopped
		}
	}
}

func (d *mockDriver) SetDepthCallback(fn DepthCallback) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.depthCB = fn
}

func (d *mockDriver) SetVideoCallback(fn VideoCallback) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.videoCB = fn
}

func (d *mockDriver) SetTilt(degrees float64) types.DeviceError {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return types.DeviceErrorNotInitialized
	}
	if degrees < types.TiltMinDeg {
		degrees = types.TiltMinDeg
	}
	if degrees > types.TiltMaxDeg {
		degrees = types.TiltMaxDeg
	}
	d.tiltTargetDeg = degrees
	return types.DeviceErrorNone
}

func (d *mockDriver) GetTilt() (float64, types.DeviceError) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return 0, types.DeviceErrorNotInitialized
	}
	return d.tiltCurrentDeg, types.DeviceErrorNone
}

func (d *mockDriver) SetLED(state types.LEDState) types.DeviceError {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return types.DeviceErrorNotInitialized
	}
	d.led = state
	return types.DeviceErrorNone
}

func (d *mockDriver) GetMotorStatus() (types.MotorStatus, types.DeviceError) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return types.MotorStatus{}, types.DeviceErrorNotInitialized
	}
	return types.MotorStatus{
		TiltAngleDeg: d.tiltCurrentDeg,
		Status:       d.tiltStatus,
		AccelX:       0,
		AccelY:       0,
		AccelZ:       1.0,
	}, types.DeviceErrorNone
}

func (d *mockDriver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = false
}
