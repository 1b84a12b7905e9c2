package protocol

import "encoding/json"

// ParseInbound decodes the envelope's type field, then unmarshals data into
// the matching concrete message struct. An unparsable envelope or an
// unrecognized type both return a nil message and ok=false — the caller
// replies with CodeProtocolError either way, per spec.md §4.G's "unknown
// message type" case.
func ParseInbound(data []byte) (msg any, ok bool) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false
	}
	switch env.Type {
	case TypeSubscribe:
		var m SubscribeMessage
		if json.Unmarshal(data, &m) != nil {
			return nil, false
		}
		return m, true
	case TypeUnsubscribe:
		var m UnsubscribeMessage
		if json.Unmarshal(data, &m) != nil {
			return nil, false
		}
		return m, true
	case TypeMotorSetTilt:
		var m MotorSetTiltMessage
		if json.Unmarshal(data, &m) != nil {
			return nil, false
		}
		return m, true
	case TypeMotorSetLed:
		var m MotorSetLedMessage
		if json.Unmarshal(data, &m) != nil {
			return nil, false
		}
		return m, true
	case TypeMotorReset:
		var m MotorResetMessage
		if json.Unmarshal(data, &m) != nil {
			return nil, false
		}
		return m, true
	case TypeMotorGetStatus:
		var m MotorGetStatusMessage
		if json.Unmarshal(data, &m) != nil {
			return nil, false
		}
		return m, true
	case TypeStatusGet:
		var m StatusRequestMessage
		if json.Unmarshal(data, &m) != nil {
			return nil, false
		}
		return m, true
	default:
		return nil, false
	}
}

// DefaultCapabilities builds the fixed capability descriptor every hello
// message reports — geometry and rate never vary at runtime.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		Streams: map[string]StreamCapability{
			StreamRGB:   {Width: 640, Height: 480, Format: "rgb888", BytesPerFrame: 640 * 480 * 3},
			StreamDepth: {Width: 640, Height: 480, Format: "u16le", BytesPerFrame: 640 * 480 * 2},
		},
		FrameRateHz:  30,
		MotorTiltDeg: [2]float64{-27, 27},
		RateLimitMs:  500,
		LedStates:    []string{"off", "green", "red", "yellow", "blink_green", "blink_red_yellow"},
	}
}
