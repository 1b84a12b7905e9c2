// Package motor implements the bridge's rate-limited gateway onto the
// device driver's motor/LED surface. Grounded on
// internal/manager/admission.go's beginGeneration: a reserve-a-slot-or-
// reject-with-a-typed-error shape, generalized here from a queue/semaphore
// to a plain monotonic-time gate, since motor commands have no queue to
// admit into — only a shared 500ms window to pass or fail.
package motor

import (
	"sync"
	"time"

	"kinectxr/internal/device"
	"kinectxr/internal/bridge/protocol"
	"kinectxr/pkg/types"
)

// rateLimitWindow is the fixed 500ms window every motor message shares,
// keyed on the last *accepted* command's time — a rejected command does not
// reset the window.
const rateLimitWindow = 500 * time.Millisecond

// Gateway serializes and rate-limits all motor/LED traffic reaching one
// session's device driver.
type Gateway struct {
	mu             sync.Mutex
	driver         device.Driver
	connected      func() bool
	lastAccepted   time.Time
	onStatusChange func(types.MotorStatus)
}

// New constructs a Gateway over drv. connected reports whether the device
// has ever been successfully opened; when it returns false, every handler
// rejects with DeviceNotConnected before touching the rate limit window, the
// way the original's per-handler "if (!kinectDevice_)" guard does. A nil
// connected is treated as always-connected. onStatusChange, if non-nil, is
// called with the fresh status after every accepted SetTilt/SetLED/Reset —
// internal/bridge's Server wires this in to push a motor.status to every
// connected client, the sender included.
func New(drv device.Driver, connected func() bool, onStatusChange func(types.MotorStatus)) *Gateway {
	return &Gateway{driver: drv, connected: connected, onStatusChange: onStatusChange}
}

func (g *Gateway) deviceConnected() bool {
	return g.connected == nil || g.connected()
}

func (g *Gateway) admit() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now()
	if !g.lastAccepted.IsZero() && now.Sub(g.lastAccepted) < rateLimitWindow {
		return false
	}
	g.lastAccepted = now
	return true
}

func (g *Gateway) notify(status types.MotorStatus) {
	if g.onStatusChange != nil {
		g.onStatusChange(status)
	}
}

func toMotorStatusMessage(s types.MotorStatus) protocol.MotorStatusMessage {
	return protocol.MotorStatusMessage{
		Type:     protocol.TypeMotorStatus,
		AngleDeg: s.TiltAngleDeg,
		Status:   s.Status.String(),
		AccelX:   s.AccelX,
		AccelY:   s.AccelY,
		AccelZ:   s.AccelZ,
	}
}

func deviceNotConnected() *protocol.MotorErrorMessage {
	e := protocol.NewMotorError(protocol.CodeDeviceNotConnected, "Kinect device not connected")
	return &e
}

// notConnectedOr maps derr to CodeDeviceNotConnected when the driver call
// itself reports it was never opened — a defense-in-depth fallback for the
// rare race where the device drops between the deviceConnected() check above
// and the driver call; any other failure keeps its own fallback code.
func notConnectedOr(derr types.DeviceError, fallback string) *protocol.MotorErrorMessage {
	if derr == types.DeviceErrorNotInitialized {
		return deviceNotConnected()
	}
	e := protocol.NewMotorError(fallback, derr.Error())
	return &e
}

// SetTilt clamps angleDeg through the driver, then replies with the fresh
// status. Returns (status, nil) on success, or (zero, *MotorErrorMessage)
// naming exactly one of DeviceNotConnected/RateLimited/MotorControlFailed/
// MotorStatusFailed.
func (g *Gateway) SetTilt(angleDeg float64) (protocol.MotorStatusMessage, *protocol.MotorErrorMessage) {
	if !g.deviceConnected() {
		return protocol.MotorStatusMessage{}, deviceNotConnected()
	}
	if !g.admit() {
		e := protocol.NewMotorError(protocol.CodeRateLimited, "motor command rate limit exceeded")
		return protocol.MotorStatusMessage{}, &e
	}
	if derr := g.driver.SetTilt(angleDeg); derr != types.DeviceErrorNone {
		return protocol.MotorStatusMessage{}, notConnectedOr(derr, protocol.CodeMotorControlFailed)
	}
	status, derr := g.driver.GetMotorStatus()
	if derr != types.DeviceErrorNone {
		return protocol.MotorStatusMessage{}, notConnectedOr(derr, protocol.CodeMotorStatusFailed)
	}
	g.notify(status)
	return toMotorStatusMessage(status), nil
}

// SetLED maps name to an LEDState (case-sensitive lowercase, per
// spec.md §4.I) and applies it. An unrecognized name returns
// InvalidLedState carrying the allowed set, without consuming the rate
// limit window — spec.md treats this as a validation failure, not a
// motor command attempt.
func (g *Gateway) SetLED(name string) (protocol.MotorStatusMessage, *protocol.MotorErrorMessage) {
	if !g.deviceConnected() {
		return protocol.MotorStatusMessage{}, deviceNotConnected()
	}
	state, ok := types.LEDStateFromString(name)
	if !ok {
		e := protocol.NewMotorError(protocol.CodeInvalidLedState, "unknown LED state: "+name)
		e.AllowedStates = protocol.DefaultCapabilities().LedStates
		return protocol.MotorStatusMessage{}, &e
	}
	if !g.admit() {
		e := protocol.NewMotorError(protocol.CodeRateLimited, "motor command rate limit exceeded")
		return protocol.MotorStatusMessage{}, &e
	}
	if derr := g.driver.SetLED(state); derr != types.DeviceErrorNone {
		return protocol.MotorStatusMessage{}, notConnectedOr(derr, protocol.CodeLedControlFailed)
	}
	status, derr := g.driver.GetMotorStatus()
	if derr != types.DeviceErrorNone {
		return protocol.MotorStatusMessage{}, notConnectedOr(derr, protocol.CodeMotorStatusFailed)
	}
	g.notify(status)
	return toMotorStatusMessage(status), nil
}

// Reset sets tilt angle back to 0 degrees. Its DeviceNotConnected check is
// SetTilt's — one guard, not two, since Reset is just SetTilt(0).
func (g *Gateway) Reset() (protocol.MotorStatusMessage, *protocol.MotorErrorMessage) {
	return g.SetTilt(0)
}

// GetStatus is read-only but still subject to the shared rate-limit window
// and the device mutex, per spec.md §4.I.
func (g *Gateway) GetStatus() (protocol.MotorStatusMessage, *protocol.MotorErrorMessage) {
	if !g.deviceConnected() {
		return protocol.MotorStatusMessage{}, deviceNotConnected()
	}
	if !g.admit() {
		e := protocol.NewMotorError(protocol.CodeRateLimited, "motor command rate limit exceeded")
		return protocol.MotorStatusMessage{}, &e
	}
	status, derr := g.driver.GetMotorStatus()
	if derr != types.DeviceErrorNone {
		return protocol.MotorStatusMessage{}, notConnectedOr(derr, protocol.CodeMotorStatusFailed)
	}
	return toMotorStatusMessage(status), nil
}
