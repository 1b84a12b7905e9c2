package bridge

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"kinectxr/internal/device"
	"kinectxr/internal/bridge/protocol"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	drv := device.New(true)
	srv := New(drv, true, 0)
	srv.Start()
	t.Cleanup(func() { srv.Shutdown(nil) })
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/kinect"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestServerSendsHelloOnConnect(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello protocol.HelloMessage
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Type != protocol.TypeHello || hello.ProtocolVersion != protocol.ProtocolVersion {
		t.Fatalf("unexpected hello: %+v", hello)
	}
	if hello.Capabilities.FrameRateHz != 30 {
		t.Fatalf("unexpected capabilities: %+v", hello.Capabilities)
	}
}

func TestServerSubscribeThenReceivesBinaryFrames(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello protocol.HelloMessage
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}

	if err := conn.WriteJSON(protocol.SubscribeMessage{Type: protocol.TypeSubscribe, Streams: []string{"rgb", "depth"}}); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if msgType != websocket.BinaryMessage {
		t.Fatalf("expected a binary frame, got type %d", msgType)
	}
	if len(data) < 8 {
		t.Fatalf("frame too short: %d bytes", len(data))
	}
}

func TestServerRejectsMalformedMessage(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello protocol.HelloMessage
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var errMsg protocol.ErrorMessage
	if err := conn.ReadJSON(&errMsg); err != nil {
		t.Fatalf("read error: %v", err)
	}
	if errMsg.Type != protocol.TypeError || errMsg.Code != protocol.CodeProtocolError {
		t.Fatalf("unexpected error message: %+v", errMsg)
	}
}

func TestServerStatusGetRepliesOnDemand(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello protocol.HelloMessage
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}

	// Deliberately not subscribing to any stream first: subscribing would
	// race this test's next read against the broadcaster's binary frames
	// landing in the same connection's send queue.
	if err := conn.WriteJSON(protocol.StatusRequestMessage{Type: protocol.TypeStatusGet}); err != nil {
		t.Fatalf("write status.get: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var status protocol.StatusMessage
	if err := conn.ReadJSON(&status); err != nil {
		t.Fatalf("read status: %v", err)
	}
	if status.Type != protocol.TypeStatus {
		t.Fatalf("unexpected reply type: %+v", status)
	}
	if !status.DeviceOpen {
		t.Fatalf("expected DeviceOpen true in mock mode, got %+v", status)
	}
	if status.ClientCount != 1 {
		t.Fatalf("expected client count 1, got %+v", status)
	}
	if len(status.Subscriptions) != 0 {
		t.Fatalf("expected no subscriptions, got %+v", status.Subscriptions)
	}
}

func TestServerMotorSetTiltRateLimited(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello protocol.HelloMessage
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}

	if err := conn.WriteJSON(protocol.MotorSetTiltMessage{Type: protocol.TypeMotorSetTilt, AngleDeg: 10}); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var status protocol.MotorStatusMessage
	if err := conn.ReadJSON(&status); err != nil {
		t.Fatalf("read status: %v", err)
	}
	if status.Type != protocol.TypeMotorStatus {
		t.Fatalf("unexpected reply: %+v", status)
	}
	// An accepted command produces two motor.status messages for the sender:
	// the gateway's push to every connected client, then the direct reply.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply protocol.MotorStatusMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read status reply: %v", err)
	}
	if reply.Type != protocol.TypeMotorStatus {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	if err := conn.WriteJSON(protocol.MotorSetTiltMessage{Type: protocol.TypeMotorSetTilt, AngleDeg: 20}); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var motorErr protocol.MotorErrorMessage
	if err := conn.ReadJSON(&motorErr); err != nil {
		t.Fatalf("read motor error: %v", err)
	}
	if motorErr.Type != protocol.TypeMotorError || motorErr.Code != protocol.CodeRateLimited {
		t.Fatalf("expected immediate second setTilt to be rate limited, got %+v", motorErr)
	}
}
