package types

// LEDState enumerates the Kinect's status LED colors/patterns.
type LEDState int32

const (
	LEDOff            LEDState = 0
	LEDGreen          LEDState = 1
	LEDRed            LEDState = 2
	LEDYellow         LEDState = 3
	LEDBlinkGreen     LEDState = 4
	LEDBlinkRedYellow LEDState = 6
)

func (s LEDState) String() string {
	switch s {
	case LEDOff:
		return "off"
	case LEDGreen:
		return "green"
	case LEDRed:
		return "red"
	case LEDYellow:
		return "yellow"
	case LEDBlinkGreen:
		return "blink_green"
	case LEDBlinkRedYellow:
		return "blink_red_yellow"
	default:
		return "unknown"
	}
}

// LEDStateFromString maps the lowercase wire representation used by the
// bridge protocol's motor.setLed message to an LEDState. ok is false for any
// string not in AllLEDStates.
func LEDStateFromString(s string) (state LEDState, ok bool) {
	for _, candidate := range AllLEDStates {
		if candidate.String() == s {
			return candidate, true
		}
	}
	return LEDOff, false
}

// AllLEDStates is the enumerated set surfaced in hello capabilities and in
// INVALID_LED_STATE error payloads.
var AllLEDStates = []LEDState{
	LEDOff, LEDGreen, LEDRed, LEDYellow, LEDBlinkGreen, LEDBlinkRedYellow,
}

// TiltStatus is the motor's movement status.
type TiltStatus int32

const (
	TiltStopped TiltStatus = 0x00
	TiltAtLimit TiltStatus = 0x01
	TiltMoving  TiltStatus = 0x04
)

func (s TiltStatus) String() string {
	switch s {
	case TiltStopped:
		return "STOPPED"
	case TiltMoving:
		return "MOVING"
	case TiltAtLimit:
		return "LIMIT"
	default:
		return "UNKNOWN"
	}
}

// MotorStatus is the complete motor/accelerometer snapshot reported by
// get_motor_status.
type MotorStatus struct {
	TiltAngleDeg float64
	Status       TiltStatus
	AccelX       float64 // m/s^2
	AccelY       float64
	AccelZ       float64
}

// DeviceConfig selects which subsystems open() enables.
type DeviceConfig struct {
	EnableRGB   bool
	EnableDepth bool
	EnableMotor bool
	DeviceIndex int
}

// TiltMinDeg and TiltMaxDeg bound set_tilt's clamped input range.
const (
	TiltMinDeg = -27.0
	TiltMaxDeg = 27.0
)

// Frame geometry, fixed for this sensor.
const (
	FrameWidth  = 640
	FrameHeight = 480

	RGBFrameBytes   = FrameWidth * FrameHeight * 3
	DepthFramePixels = FrameWidth * FrameHeight
	DepthFrameBytes = DepthFramePixels * 2

	// DepthMinMM and DepthMaxMM bound the millimeter depth mode's valid
	// range (mode is set to millimeters, not raw 11-bit disparity).
	DepthMinMM = 0
	DepthMaxMM = 10000
)
