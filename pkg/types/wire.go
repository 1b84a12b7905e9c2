package types

// Envelope is the common shape every bridge text frame carries: a
// discriminator field used to pick the concrete payload to decode into.
type Envelope struct {
	Type string `json:"type"`
}

// Inbound message payloads (client -> bridge). The bridge does not use the
// types in this file: internal/bridge/protocol defines the messages it sends
// and accepts, with camelCase JSON names and field sets that differ from the
// snake_case ones here.

// SubscribeMessage requests a full replacement of the client's subscription
// set. Unknown stream names are silently ignored; only "rgb" and "depth" are
// meaningful.
type SubscribeMessage struct {
	Type    string   `json:"type"`
	Streams []string `json:"streams"`
}

// UnsubscribeMessage clears the client's subscription set.
type UnsubscribeMessage struct {
	Type string `json:"type"`
}

// MotorSetTiltMessage requests a tilt change. Degrees is clamped by the
// device facade to [TiltMinDeg, TiltMaxDeg].
type MotorSetTiltMessage struct {
	Type    string  `json:"type"`
	Degrees float64 `json:"degrees"`
}

// MotorSetLedMessage requests an LED state change by lowercase name (see
// LEDStateFromString).
type MotorSetLedMessage struct {
	Type  string `json:"type"`
	State string `json:"state"`
}

// MotorResetMessage requests the tilt angle be set back to zero.
type MotorResetMessage struct {
	Type string `json:"type"`
}

// MotorGetStatusMessage requests a motor.status reply without commanding a
// motor movement. Still subject to the 500ms rate-limit window.
type MotorGetStatusMessage struct {
	Type string `json:"type"`
}

// Outbound message payloads (bridge -> client).

// StreamCapability describes one stream's frame geometry and cadence inside
// the hello capability block.
type StreamCapability struct {
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Format         string `json:"format"`
	BytesPerFrame  int    `json:"bytes_per_frame"`
	FrameRateHz    int    `json:"frame_rate_hz"`
}

// MotorCapability describes the bridge's motor control surface.
type MotorCapability struct {
	TiltMinDeg  float64  `json:"tilt_min_deg"`
	TiltMaxDeg  float64  `json:"tilt_max_deg"`
	RateLimitMs int      `json:"rate_limit_ms"`
	LEDStates   []string `json:"led_states"`
}

// Capabilities is the full capability descriptor sent once, in the hello
// message, on connection open.
type Capabilities struct {
	Streams map[string]StreamCapability `json:"streams"`
	Motor   MotorCapability             `json:"motor"`
}

// HelloMessage is the exactly-one message a bridge server sends as the first
// text frame on every newly opened connection.
type HelloMessage struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	ServerName      string       `json:"server_name"`
	Capabilities    Capabilities `json:"capabilities"`
}

// StatusMessage carries a live snapshot of broadcaster/client counters,
// pushed on an interval and available on demand.
type StatusMessage struct {
	Type          string  `json:"type"`
	ClientCount   int     `json:"client_count"`
	RGBFPS        float64 `json:"rgb_fps"`
	DepthFPS      float64 `json:"depth_fps"`
	FramesSent    uint64  `json:"frames_sent"`
	DroppedFrames uint64  `json:"dropped_frames"`
}

// ErrorMessage is the generic typed error envelope. Recoverable indicates
// whether the connection remains usable after this error.
type ErrorMessage struct {
	Type        string `json:"type"`
	Code        string `json:"code"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

// MotorStatusMessage reports the current tilt/accelerometer state.
type MotorStatusMessage struct {
	Type      string  `json:"type"`
	AngleDeg  float64 `json:"angle_deg"`
	Status    string  `json:"status"`
	AccelX    float64 `json:"accel_x"`
	AccelY    float64 `json:"accel_y"`
	AccelZ    float64 `json:"accel_z"`
}

// MotorErrorMessage is the motor-specific typed error envelope. AllowedLED
// is populated only for INVALID_LED_STATE.
type MotorErrorMessage struct {
	Type        string   `json:"type"`
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	AllowedLED  []string `json:"allowed_led_states,omitempty"`
}

// Error codes used across ErrorMessage and MotorErrorMessage. Exactly the
// set spec.md enumerates — no others are emitted.
const (
	ErrCodeProtocolError       = "PROTOCOL_ERROR"
	ErrCodeDeviceNotConnected  = "DEVICE_NOT_CONNECTED"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeInvalidLEDState     = "INVALID_LED_STATE"
	ErrCodeMotorControlFailed  = "MOTOR_CONTROL_FAILED"
	ErrCodeLEDControlFailed    = "LED_CONTROL_FAILED"
	ErrCodeMotorStatusFailed   = "MOTOR_STATUS_FAILED"
)

// Outbound/inbound type discriminators.
const (
	MsgTypeSubscribe      = "subscribe"
	MsgTypeUnsubscribe    = "unsubscribe"
	MsgTypeMotorSetTilt   = "motor.setTilt"
	MsgTypeMotorSetLed    = "motor.setLed"
	MsgTypeMotorReset     = "motor.reset"
	MsgTypeMotorGetStatus = "motor.getStatus"

	MsgTypeHello       = "hello"
	MsgTypeStatus      = "status"
	MsgTypeError       = "error"
	MsgTypeMotorStatus = "motor.status"
	MsgTypeMotorError  = "motor.error"
)

// Stream type codes used in the binary frame header.
const (
	StreamTypeRGB   uint16 = 0x0001
	StreamTypeDepth uint16 = 0x0002
)

// ProtocolVersion is the bridge protocol's current version string.
const ProtocolVersion = "1.0"

// BridgeFrameRateHz and BridgeRateLimitMs are the fixed constants advertised
// in hello and enforced by the motor gateway.
const (
	BridgeFrameRateHz = 30
	BridgeRateLimitMs = 500
)
