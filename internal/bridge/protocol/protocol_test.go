package protocol

import "testing"

func TestParseInboundSubscribe(t *testing.T) {
	msg, ok := ParseInbound([]byte(`{"type":"subscribe","streams":["rgb","depth","bogus"]}`))
	if !ok {
		t.Fatalf("expected ok")
	}
	sub, isSub := msg.(SubscribeMessage)
	if !isSub {
		t.Fatalf("expected SubscribeMessage, got %T", msg)
	}
	if len(sub.Streams) != 3 {
		t.Fatalf("expected all three raw stream names preserved for the caller to filter, got %v", sub.Streams)
	}
}

func TestParseInboundMotorSetTilt(t *testing.T) {
	msg, ok := ParseInbound([]byte(`{"type":"motor.setTilt","angleDeg":12.5}`))
	if !ok {
		t.Fatalf("expected ok")
	}
	m, isM := msg.(MotorSetTiltMessage)
	if !isM || m.AngleDeg != 12.5 {
		t.Fatalf("unexpected decode: %+v isM=%v", msg, isM)
	}
}

func TestParseInboundStatusGet(t *testing.T) {
	msg, ok := ParseInbound([]byte(`{"type":"status.get"}`))
	if !ok {
		t.Fatalf("expected ok")
	}
	if _, isStatus := msg.(StatusRequestMessage); !isStatus {
		t.Fatalf("expected StatusRequestMessage, got %T", msg)
	}
}

func TestParseInboundUnknownType(t *testing.T) {
	if _, ok := ParseInbound([]byte(`{"type":"not.a.real.type"}`)); ok {
		t.Fatalf("expected unknown type to report not-ok")
	}
}

func TestParseInboundBadJSON(t *testing.T) {
	if _, ok := ParseInbound([]byte(`not json`)); ok {
		t.Fatalf("expected malformed JSON to report not-ok")
	}
}

func TestDefaultCapabilitiesFixedGeometry(t *testing.T) {
	caps := DefaultCapabilities()
	if caps.Streams[StreamRGB].BytesPerFrame != 640*480*3 {
		t.Fatalf("unexpected rgb bytes per frame: %+v", caps.Streams[StreamRGB])
	}
	if caps.Streams[StreamDepth].BytesPerFrame != 640*480*2 {
		t.Fatalf("unexpected depth bytes per frame: %+v", caps.Streams[StreamDepth])
	}
	if caps.FrameRateHz != 30 || caps.RateLimitMs != 500 {
		t.Fatalf("unexpected fixed rate fields: %+v", caps)
	}
}
