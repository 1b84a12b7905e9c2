// Package protocol defines the bridge's JSON text-message vocabulary: the
// inbound types a client may send, the outbound types the server replies
// with, and the typed error taxonomy spec.md §4.G enumerates. It is
// transport-agnostic — internal/bridge wires these onto a websocket
// connection's WriteJSON, the way internal/httpapi/errors.go's
// writeJSONError pairs a typed payload with an http.ResponseWriter.
package protocol

// Inbound message type strings.
const (
	TypeSubscribe      = "subscribe"
	TypeUnsubscribe    = "unsubscribe"
	TypeMotorSetTilt   = "motor.setTilt"
	TypeMotorSetLed    = "motor.setLed"
	TypeMotorReset     = "motor.reset"
	TypeMotorGetStatus = "motor.getStatus"
	TypeStatusGet      = "status.get"
)

// Outbound message type strings.
const (
	TypeHello       = "hello"
	TypeStatus      = "status"
	TypeError       = "error"
	TypeMotorStatus = "motor.status"
	TypeMotorError  = "motor.error"
)

// Error codes. Motor-originated failures use TypeMotorError; every other
// failure uses TypeError.
const (
	CodeProtocolError       = "PROTOCOL_ERROR"
	CodeDeviceNotConnected  = "DEVICE_NOT_CONNECTED"
	CodeRateLimited         = "RATE_LIMITED"
	CodeInvalidLedState     = "INVALID_LED_STATE"
	CodeMotorControlFailed  = "MOTOR_CONTROL_FAILED"
	CodeLedControlFailed    = "LED_CONTROL_FAILED"
	CodeMotorStatusFailed   = "MOTOR_STATUS_FAILED"
)

// StreamRGB and StreamDepth are the only stream names subscribe/unsubscribe
// recognize; every other name is silently ignored, not an error.
const (
	StreamRGB   = "rgb"
	StreamDepth = "depth"
)

// ProtocolVersion is reported in every hello message.
const ProtocolVersion = "1.0"

// Envelope is decoded first to discover a message's type before dispatch.
type Envelope struct {
	Type string `json:"type"`
}

// SubscribeMessage replaces the sender's subscription set.
type SubscribeMessage struct {
	Type    string   `json:"type"`
	Streams []string `json:"streams"`
}

// UnsubscribeMessage removes streams from the sender's subscription set.
type UnsubscribeMessage struct {
	Type    string   `json:"type"`
	Streams []string `json:"streams"`
}

// MotorSetTiltMessage requests a new tilt angle in degrees.
type MotorSetTiltMessage struct {
	Type     string  `json:"type"`
	AngleDeg float64 `json:"angleDeg"`
}

// MotorSetLedMessage requests a new LED state by lowercase name.
type MotorSetLedMessage struct {
	Type  string `json:"type"`
	State string `json:"state"`
}

// MotorResetMessage requests the tilt motor return to 0 degrees.
type MotorResetMessage struct {
	Type string `json:"type"`
}

// MotorGetStatusMessage requests a fresh motor/accelerometer snapshot.
type MotorGetStatusMessage struct {
	Type string `json:"type"`
}

// StatusRequestMessage requests an immediate StatusMessage, on demand
// instead of waiting for the next periodic push.
type StatusRequestMessage struct {
	Type string `json:"type"`
}

// StreamCapability describes one stream's fixed geometry and rate, reported
// in hello's capability descriptor.
type StreamCapability struct {
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Format        string `json:"format"`
	BytesPerFrame int    `json:"bytesPerFrame"`
}

// Capabilities is the payload hello carries.
type Capabilities struct {
	Streams       map[string]StreamCapability `json:"streams"`
	FrameRateHz   int                         `json:"frameRateHz"`
	MotorTiltDeg  [2]float64                  `json:"motorTiltRangeDeg"`
	RateLimitMs   int                         `json:"rateLimitMs"`
	LedStates     []string                    `json:"ledStates"`
}

// HelloMessage is the exactly-one message sent immediately on connect.
type HelloMessage struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocolVersion"`
	ServerName      string       `json:"serverName"`
	Capabilities    Capabilities `json:"capabilities"`
}

// StatusMessage reports server-side connection/session state.
type StatusMessage struct {
	Type          string `json:"type"`
	DeviceOpen    bool   `json:"deviceOpen"`
	ClientCount   int    `json:"clientCount"`
	Subscriptions []string `json:"subscriptions"`
}

// ErrorMessage is the generic error envelope; Recoverable distinguishes a
// transient condition (e.g. rate limiting) from one that will not clear on
// retry.
type ErrorMessage struct {
	Type        string `json:"type"`
	Code        string `json:"code"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

// NewError builds a TypeError ErrorMessage.
func NewError(code, message string, recoverable bool) ErrorMessage {
	return ErrorMessage{Type: TypeError, Code: code, Message: message, Recoverable: recoverable}
}

// MotorErrorMessage is the motor-specific error envelope. Its
// AllowedStates field is populated only for CodeInvalidLedState.
type MotorErrorMessage struct {
	Type          string   `json:"type"`
	Code          string   `json:"code"`
	Message       string   `json:"message"`
	AllowedStates []string `json:"allowedStates,omitempty"`
}

// NewMotorError builds a TypeMotorError MotorErrorMessage.
func NewMotorError(code, message string) MotorErrorMessage {
	return MotorErrorMessage{Type: TypeMotorError, Code: code, Message: message}
}

// MotorStatusMessage reports the tilt angle, motor status string, and
// accelerometer triple.
type MotorStatusMessage struct {
	Type         string  `json:"type"`
	AngleDeg     float64 `json:"angleDeg"`
	Status       string  `json:"status"`
	AccelX       float64 `json:"accelX"`
	AccelY       float64 `json:"accelY"`
	AccelZ       float64 `json:"accelZ"`
}
