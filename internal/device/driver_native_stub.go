//go:build !freenect

package device

import "kinectxr/pkg/types"

// unavailableDriver is the native backend selected when this binary was
// built without the "freenect" tag. It exists so the device package links
// without a libfreenect dependency; every call fails as if no hardware were
// attached, matching the DeviceNotFound path a real Open would take on a
// machine with no Kinect plugged in.
type unavailableDriver struct{}

func newNativeDriver() Driver { return unavailableDriver{} }

func (unavailableDriver) Open(types.DeviceConfig) types.DeviceError {
	return types.DeviceErrorDeviceNotFound
}

func (unavailableDriver) StartStreams() types.DeviceError {
	return types.DeviceErrorNotInitialized
}

func (unavailableDriver) StopStreams() types.DeviceError {
	return types.DeviceErrorNotInitialized
}

func (unavailableDriver) SetDepthCallback(DepthCallback) {}
func (unavailableDriver) SetVideoCallback(VideoCallback) {}

func (unavailableDriver) SetTilt(float64) types.DeviceError {
	return types.DeviceErrorNotInitialized
}

func (unavailableDriver) GetTilt() (float64, types.DeviceError) {
	return 0, types.DeviceErrorNotInitialized
}

func (unavailableDriver) SetLED(types.LEDState) types.DeviceError {
	return types.DeviceErrorNotInitialized
}

func (unavailableDriver) GetMotorStatus() (types.MotorStatus, types.DeviceError) {
	return types.MotorStatus{}, types.DeviceErrorNotInitialized
}

func (unavailableDriver) Close() {}
