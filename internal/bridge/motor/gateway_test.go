package motor

import (
	"testing"

	"kinectxr/internal/bridge/protocol"
	"kinectxr/internal/device"
	"kinectxr/pkg/types"
)

// fakeDriver is a minimal device.Driver stand-in that counts SetTilt calls,
// so tests can assert the rate-limit window is (or isn't) consumed.
type fakeDriver struct {
	setTiltCalls int
	tiltErr      types.DeviceError
	status       types.MotorStatus
	statusErr    types.DeviceError
}

func (d *fakeDriver) Open(types.DeviceConfig) types.DeviceError { return types.DeviceErrorNone }
func (d *fakeDriver) StartStreams() types.DeviceError            { return types.DeviceErrorNone }
func (d *fakeDriver) StopStreams() types.DeviceError             { return types.DeviceErrorNone }
func (d *fakeDriver) SetDepthCallback(device.DepthCallback)      {}
func (d *fakeDriver) SetVideoCallback(device.VideoCallback)      {}
func (d *fakeDriver) Close()                                     {}

func (d *fakeDriver) SetTilt(float64) types.DeviceError {
	d.setTiltCalls++
	return d.tiltErr
}

func (d *fakeDriver) GetTilt() (float64, types.DeviceError) { return 0, types.DeviceErrorNone }

func (d *fakeDriver) SetLED(types.LEDState) types.DeviceError { return types.DeviceErrorNone }

func (d *fakeDriver) GetMotorStatus() (types.MotorStatus, types.DeviceError) {
	return d.status, d.statusErr
}

func TestGatewayReportsDeviceNotConnectedBeforeRateLimit(t *testing.T) {
	drv := &fakeDriver{}
	gw := New(drv, func() bool { return false }, nil)

	_, errMsg := gw.SetTilt(5)
	if errMsg == nil || errMsg.Code != protocol.CodeDeviceNotConnected {
		t.Fatalf("expected DeviceNotConnected, got %+v", errMsg)
	}
	if drv.setTiltCalls != 0 {
		t.Fatalf("expected driver.SetTilt not called when device not connected, got %d calls", drv.setTiltCalls)
	}

	// A second call immediately after must still report DeviceNotConnected,
	// not RateLimited — the not-connected check never consumed the window.
	_, errMsg = gw.SetTilt(5)
	if errMsg == nil || errMsg.Code != protocol.CodeDeviceNotConnected {
		t.Fatalf("expected DeviceNotConnected again, got %+v", errMsg)
	}
}

func TestGatewaySetTiltSucceedsWhenConnected(t *testing.T) {
	drv := &fakeDriver{status: types.MotorStatus{TiltAngleDeg: 5}}
	gw := New(drv, func() bool { return true }, nil)

	status, errMsg := gw.SetTilt(5)
	if errMsg != nil {
		t.Fatalf("unexpected error: %+v", errMsg)
	}
	if status.Type != protocol.TypeMotorStatus || status.AngleDeg != 5 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if drv.setTiltCalls != 1 {
		t.Fatalf("expected exactly one SetTilt call, got %d", drv.setTiltCalls)
	}
}

func TestGatewayNilConnectedTreatedAsAlwaysConnected(t *testing.T) {
	drv := &fakeDriver{status: types.MotorStatus{}}
	gw := New(drv, nil, nil)

	_, errMsg := gw.SetTilt(0)
	if errMsg != nil {
		t.Fatalf("expected success with nil connected func, got %+v", errMsg)
	}
}
