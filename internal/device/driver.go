// Package device wraps the native Kinect USB library behind a small
// capability interface, per spec.md §4.A. Three backends implement Driver:
// a cgo binding to libfreenect (driver_freenect.go, build-tagged
// "freenect"), a synthetic producer used in --mock mode (driver_mock.go),
// and, when built without the "freenect" tag, a stand-in whose Open always
// reports DeviceNotFound (driver_native_stub.go).
package device

import (
	"kinectxr/pkg/types"
)

// DepthCallback receives a borrowed depth frame (already converted to
// millimeters) and the driver-supplied timestamp. It executes on the event
// pump thread and must return promptly — copy or swap, never block.
type DepthCallback func(depth []uint16, timestamp uint32)

// VideoCallback receives a borrowed RGB888 frame and the driver-supplied
// timestamp. Same threading contract as DepthCallback.
type VideoCallback func(rgb []byte, timestamp uint32)

// Driver is the capability surface the rest of the system depends on. Every
// method's failure semantics are exactly spec.md §4.A's.
type Driver interface {
	// Open selects {rgb, depth, motor, device_index} and opens the device.
	// Idempotent if already open.
	Open(cfg types.DeviceConfig) types.DeviceError

	// StartStreams sets depth mode to millimeters and video mode to
	// RGB888@640x480, then starts both streams and spawns the event pump
	// thread. Requires Open, and fails AlreadyStreaming if already
	// streaming.
	StartStreams() types.DeviceError

	// StopStreams stops both streams and joins the event pump thread.
	// Fails NotStreaming if not currently streaming.
	StopStreams() types.DeviceError

	// SetDepthCallback installs the depth frame callback. Must be called
	// before StartStreams to take effect on the first frame.
	SetDepthCallback(fn DepthCallback)

	// SetVideoCallback installs the video frame callback.
	SetVideoCallback(fn VideoCallback)

	// SetTilt clamps degrees to [TiltMinDeg, TiltMaxDeg] and issues the
	// motor command. Blocking; may return while the motor is still moving.
	SetTilt(degrees float64) types.DeviceError

	// GetTilt returns the last commanded/observed tilt angle in degrees.
	GetTilt() (degrees float64, err types.DeviceError)

	// SetLED sets the status LED state.
	SetLED(state types.LEDState) types.DeviceError

	// GetMotorStatus returns the full motor/accelerometer snapshot.
	GetMotorStatus() (types.MotorStatus, types.DeviceError)

	// Close releases the device. Safe to call on an already-closed driver.
	Close()
}

// New constructs the Driver backend selected by mock: true always returns a
// synthetic driver regardless of build tags; false selects the native
// backend compiled in for this build (libfreenect via cgo when built with
// the "freenect" tag, otherwise a stub that always fails Open with
// DeviceNotFound).
func New(mock bool) Driver {
	if mock {
		return newMockDriver()
	}
	return newNativeDriver()
}
