//go:build freenect

package device

// cgo binding to libfreenect, the native USB library spec.md §6 enumerates.
// Mirrors the teacher's internal/manager/llama_cgo.go rpath/LDFLAGS idiom:
// the runtime loader finds libfreenect.so next to the built binary via
// $ORIGIN, and the linker finds it at link time via -L.
//
// Per spec.md §4.A, every motor/LED/status call is serialized by a
// per-device mutex; the event pump loop itself runs unsynchronized, because
// libfreenect is documented to handle USB-event vs. control-transfer
// serialization internally only for that specific access pattern.

/*
#cgo LDFLAGS: -Wl,-rpath,'$ORIGIN' -L${SRCDIR}/../../bin -lfreenect
#include <libfreenect/libfreenect.h>
#include <stdlib.h>

extern void goDepthCallback(freenect_device *dev, void *depth, uint32_t timestamp);
extern void goVideoCallback(freenect_device *dev, void *rgb, uint32_t timestamp);

static inline void kxr_register_callbacks(freenect_device *dev) {
	freenect_set_depth_callback(dev, goDepthCallback);
	freenect_set_video_callback(dev, goVideoCallback);
}
*/
import "C"

import (
	"sync"
	"time"
	"unsafe"

	"kinectxr/internal/rlog"
	"kinectxr/pkg/types"
)

// registry maps the opaque freenect_device pointer back to the owning
// freenectDriver, since libfreenect's C callbacks only carry a *C.freenect_device
// and a user pointer set via freenect_set_user.
var (
	registryMu sync.Mutex
	registry   = map[uintptr]*freenectDriver{}
)

type freenectDriver struct {
	// deviceMu serializes every motor/LED/status call, per spec.md §4.A.
	// The event pump goroutine runs outside this mutex.
	deviceMu sync.Mutex

	ctx *C.freenect_context
	dev *C.freenect_device

	initialized bool
	streaming   bool
	cfg         types.DeviceConfig

	pumpStop chan struct{}
	pumpDone chan struct{}

	depthCB DepthCallback
	videoCB VideoCallback

	rateLimiter *errorRateLimiter

	// depthScratch/videoScratch are reused across callbacks to avoid an
	// allocation per frame on the event pump thread.
	depthScratch [types.DepthFramePixels]uint16
	videoScratch [types.RGBFrameBytes]byte

	lastTiltDeg float64
}

func newNativeDriver() Driver {
	return &freenectDriver{rateLimiter: newErrorRateLimiter(10 * time.Second)}
}

func (d *freenectDriver) Open(cfg types.DeviceConfig) types.DeviceError {
	d.deviceMu.Lock()
	defer d.deviceMu.Unlock()
	if d.initialized {
		return types.DeviceErrorNone
	}
	d.cfg = cfg

	var ctx *C.freenect_context
	if C.freenect_init(&ctx, nil) < 0 {
		return types.DeviceErrorInitializationFailed
	}

	var subdevs C.freenect_device_flags
	if cfg.EnableMotor {
		subdevs |= C.FREENECT_DEVICE_MOTOR
	}
	if cfg.EnableRGB || cfg.EnableDepth {
		subdevs |= C.FREENECT_DEVICE_CAMERA
	}
	C.freenect_select_subdevices(ctx, subdevs)

	if int(C.freenect_num_devices(ctx)) <= 0 {
		C.freenect_shutdown(ctx)
		return types.DeviceErrorDeviceNotFound
	}

	var dev *C.freenect_device
	if C.freenect_open_device(ctx, &dev, C.int(cfg.DeviceIndex)) < 0 {
		C.freenect_shutdown(ctx)
		return types.DeviceErrorInitializationFailed
	}

	d.ctx, d.dev = ctx, dev
	d.initialized = true

	registryMu.Lock()
	registry[uintptr(unsafe.Pointer(dev))] = d
	registryMu.Unlock()

	return types.DeviceErrorNone
}

func (d *freenectDriver) StartStreams() types.DeviceError {
	d.deviceMu.Lock()
	defer d.deviceMu.Unlock()
	if !d.initialized {
		return types.DeviceErrorNotInitialized
	}
	if d.streaming {
		return types.DeviceErrorAlreadyStreaming
	}

	depthMode := C.freenect_find_depth_mode(C.FREENECT_RESOLUTION_MEDIUM, C.FREENECT_DEPTH_MM)
	if C.freenect_set_depth_mode(d.dev, depthMode) < 0 {
		return types.DeviceErrorInitializationFailed
	}
	videoMode := C.freenect_find_video_mode(C.FREENECT_RESOLUTION_MEDIUM, C.FREENECT_VIDEO_RGB)
	if C.freenect_set_video_mode(d.dev, videoMode) < 0 {
		return types.DeviceErrorInitializationFailed
	}

	C.kxr_register_callbacks(d.dev)
	C.freenect_set_user(d.dev, unsafe.Pointer(d.dev))

	if d.cfg.EnableDepth {
		if C.freenect_start_depth(d.dev) < 0 {
			return types.DeviceErrorInitializationFailed
		}
	}
	if d.cfg.EnableRGB {
		if C.freenect_start_video(d.dev) < 0 {
			if d.cfg.EnableDepth {
				C.freenect_stop_depth(d.dev)
			}
			return types.DeviceErrorInitializationFailed
		}
	}

	d.streaming = true
	d.pumpStop = make(chan struct{})
	d.pumpDone = make(chan struct{})
	go d.eventPump()
	return types.DeviceErrorNone
}

func (d *freenectDriver) StopStreams() types.DeviceError {
	d.deviceMu.Lock()
	if !d.initialized {
		d.deviceMu.Unlock()
		return types.DeviceErrorNotInitialized
	}
	if !d.streaming {
		d.deviceMu.Unlock()
		return types.DeviceErrorNotStreaming
	}
	close(d.pumpStop)
	d.deviceMu.Unlock()

	<-d.pumpDone

	d.deviceMu.Lock()
	defer d.deviceMu.Unlock()
	if d.cfg.EnableDepth {
		C.freenect_stop_depth(d.dev)
	}
	if d.cfg.EnableRGB {
		C.freenect_stop_video(d.dev)
	}
	d.streaming = false
	return types.DeviceErrorNone
}

// eventPump is the tight process_events loop, intentionally running outside
// deviceMu — libfreenect serializes USB events against control transfers
// internally for this access pattern. Errors from process_events are common
// and non-fatal (malformed magic bytes on packets); rate-limited to one
// summary per 10s.
func (d *freenectDriver) eventPump() {
	defer close(d.pumpDone)
	for {
		select {
		case <-d.pumpStop:
			return
		default:
		}
		var tv C.struct_timeval
		tv.tv_usec = 10000
		if rc := C.freenect_process_events_timeout(d.ctx, &tv); rc < 0 {
			d.rateLimiter.Report(time.Now(), "process_events_timeout error")
		}
	}
}

//export goDepthCallback
func goDepthCallback(dev *C.freenect_device, depth unsafe.Pointer, timestamp C.uint32_t) {
	registryMu.Lock()
	d := registry[uintptr(unsafe.Pointer(dev))]
	registryMu.Unlock()
	if d == nil || d.depthCB == nil {
		return
	}
	src := (*[types.DepthFramePixels]C.uint16_t)(depth)
	for i := 0; i < types.DepthFramePixels; i++ {
		d.depthScratch[i] = uint16(src[i])
	}
	d.depthCB(d.depthScratch[:], uint32(timestamp))
}

//export goVideoCallback
func goVideoCallback(dev *C.freenect_device, rgb unsafe.Pointer, timestamp C.uint32_t) {
	registryMu.Lock()
	d := registry[uintptr(unsafe.Pointer(dev))]
	registryMu.Unlock()
	if d == nil || d.videoCB == nil {
		return
	}
	src := (*[types.RGBFrameBytes]byte)(rgb)
	copy(d.videoScratch[:], src[:])
	d.videoCB(d.videoScratch[:], uint32(timestamp))
}

func (d *freenectDriver) SetDepthCallback(fn DepthCallback) { d.depthCB = fn }
func (d *freenectDriver) SetVideoCallback(fn VideoCallback) { d.videoCB = fn }

func (d *freenectDriver) SetTilt(degrees float64) types.DeviceError {
	d.deviceMu.Lock()
	defer d.deviceMu.Unlock()
	if !d.initialized {
		return types.DeviceErrorNotInitialized
	}
	if degrees < types.TiltMinDeg {
		degrees = types.TiltMinDeg
	}
	if degrees > types.TiltMaxDeg {
		degrees = types.TiltMaxDeg
	}
	if C.freenect_set_tilt_degs(d.dev, C.double(degrees)) < 0 {
		return types.DeviceErrorMotorControlFailed
	}
	d.lastTiltDeg = degrees
	return types.DeviceErrorNone
}

func (d *freenectDriver) GetTilt() (float64, types.DeviceError) {
	d.deviceMu.Lock()
	defer d.deviceMu.Unlock()
	if !d.initialized {
		return 0, types.DeviceErrorNotInitialized
	}
	var state *C.freenect_raw_tilt_state
	if C.freenect_update_tilt_state(d.dev) < 0 {
		return 0, types.DeviceErrorMotorControlFailed
	}
	state = C.freenect_get_tilt_state(d.dev)
	if state == nil {
		return 0, types.DeviceErrorMotorControlFailed
	}
	return float64(C.freenect_get_tilt_degs(state)), types.DeviceErrorNone
}

func (d *freenectDriver) SetLED(state types.LEDState) types.DeviceError {
	d.deviceMu.Lock()
	defer d.deviceMu.Unlock()
	if !d.initialized {
		return types.DeviceErrorNotInitialized
	}
	if C.freenect_set_led(d.dev, C.freenect_led_options(state)) < 0 {
		return types.DeviceErrorMotorControlFailed
	}
	return types.DeviceErrorNone
}

func (d *freenectDriver) GetMotorStatus() (types.MotorStatus, types.DeviceError) {
	d.deviceMu.Lock()
	defer d.deviceMu.Unlock()
	if !d.initialized {
		return types.MotorStatus{}, types.DeviceErrorNotInitialized
	}
	if C.freenect_update_tilt_state(d.dev) < 0 {
		return types.MotorStatus{}, types.DeviceErrorMotorControlFailed
	}
	state := C.freenect_get_tilt_state(d.dev)
	if state == nil {
		return types.MotorStatus{}, types.DeviceErrorMotorControlFailed
	}
	var ax, ay, az C.double
	C.freenect_get_mks_accel(state, &ax, &ay, &az)
	return types.MotorStatus{
		TiltAngleDeg: float64(C.freenect_get_tilt_degs(state)),
		Status:       types.TiltStatus(C.freenect_get_tilt_status(state)),
		AccelX:       float64(ax),
		AccelY:       float64(ay),
		AccelZ:       float64(az),
	}, types.DeviceErrorNone
}

func (d *freenectDriver) Close() {
	d.deviceMu.Lock()
	defer d.deviceMu.Unlock()
	if !d.initialized {
		return
	}
	if d.streaming {
		rlog.Get().Warn().Msg("device closed while streaming; stopping streams first")
		// The pump never takes deviceMu, so joining it here cannot deadlock.
		close(d.pumpStop)
		<-d.pumpDone
		if d.cfg.EnableDepth {
			C.freenect_stop_depth(d.dev)
		}
		if d.cfg.EnableRGB {
			C.freenect_stop_video(d.dev)
		}
		d.streaming = false
	}
	registryMu.Lock()
	delete(registry, uintptr(unsafe.Pointer(d.dev)))
	registryMu.Unlock()
	C.freenect_close_device(d.dev)
	C.freenect_shutdown(d.ctx)
	d.dev = nil
	d.ctx = nil
	d.initialized = false
}
