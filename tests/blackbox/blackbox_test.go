// Package blackbox builds the kinectxr-bridge binary and drives it as a
// real subprocess over its HTTP and websocket surface, the way a browser
// client would. Grounded on the teacher's tests/blackbox/blackbox_test.go
// build-a-real-binary-and-exec-it approach.
package blackbox

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func findFreePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	return port
}

func projectRootFromThisFile(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file: <root>/tests/blackbox/blackbox_test.go
	bbDir := filepath.Dir(thisFile)
	return filepath.Dir(filepath.Dir(bbDir))
}

func buildBinary(t *testing.T) string {
	t.Helper()
	root := projectRootFromThisFile(t)
	binPath := filepath.Join(t.TempDir(), "kinectxr-bridge")
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/kinectxr-bridge")
	cmd.Dir = root
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(out))
	}
	return binPath
}

type serverProc struct {
	cmd  *exec.Cmd
	base string
}

func startServer(t *testing.T, bin string, port int, extraArgs ...string) *serverProc {
	t.Helper()
	return startServerMode(t, bin, port, true, extraArgs...)
}

// startServerMode is startServer with an explicit choice of --mock, for
// tests that need to exercise the real (non-mock) device-open path.
func startServerMode(t *testing.T, bin string, port int, mock bool, extraArgs ...string) *serverProc {
	t.Helper()
	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	args := []string{"--port", fmt.Sprint(port)}
	if mock {
		args = append(args, "--mock")
	}
	args = append(args, extraArgs...)
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(base + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		if time.Now().After(deadline) {
			_ = cmd.Process.Kill()
			t.Fatalf("server did not become healthy in time")
		}
		time.Sleep(25 * time.Millisecond)
	}

	sp := &serverProc{cmd: cmd, base: base}
	t.Cleanup(func() { _ = cmd.Process.Kill() })
	return sp
}

func dialKinect(t *testing.T, sp *serverProc) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(sp.base, "http") + "/kinect"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestBlackboxHealthAndReady(t *testing.T) {
	bin := buildBinary(t)
	sp := startServer(t, bin, findFreePort(t))

	resp, err := http.Get(sp.base + "/readyz")
	if err != nil {
		t.Fatalf("get /readyz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/readyz status=%d", resp.StatusCode)
	}

	resp, err = http.Get(sp.base + "/metrics")
	if err != nil {
		t.Fatalf("get /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/metrics status=%d", resp.StatusCode)
	}
}

func TestBlackboxHelloSubscribeAndFrames(t *testing.T) {
	bin := buildBinary(t)
	sp := startServer(t, bin, findFreePort(t))
	conn := dialKinect(t, sp)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello struct {
		Type            string `json:"type"`
		ProtocolVersion string `json:"protocolVersion"`
		ServerName      string `json:"serverName"`
	}
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Type != "hello" || hello.ProtocolVersion != "1.0" || hello.ServerName != "kinectxr-bridge" {
		t.Fatalf("unexpected hello: %+v", hello)
	}

	if err := conn.WriteJSON(map[string]any{"type": "subscribe", "streams": []string{"rgb", "depth"}}); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}

	seenRGB, seenDepth := false, false
	for i := 0; i < 10 && !(seenRGB && seenDepth); i++ {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if msgType != websocket.BinaryMessage || len(data) < 8 {
			continue
		}
		switch uint16(data[4]) | uint16(data[5])<<8 {
		case 1:
			seenRGB = true
		case 2:
			seenDepth = true
		}
	}
	if !seenRGB || !seenDepth {
		t.Fatalf("expected both rgb and depth frames, got rgb=%v depth=%v", seenRGB, seenDepth)
	}
}

func TestBlackboxMotorRateLimitAcrossCommandTypes(t *testing.T) {
	bin := buildBinary(t)
	sp := startServer(t, bin, findFreePort(t))
	conn := dialKinect(t, sp)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello json.RawMessage
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}

	if err := conn.WriteJSON(map[string]any{"type": "motor.setTilt", "angleDeg": 5}); err != nil {
		t.Fatalf("write setTilt: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first map[string]any
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read first reply: %v", err)
	}
	if first["type"] != "motor.status" {
		t.Fatalf("expected first command to succeed, got %+v", first)
	}
	// An accepted command is pushed to every client, the sender included,
	// and then answered directly, so the sender sees motor.status twice.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply map[string]any
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read direct reply: %v", err)
	}
	if reply["type"] != "motor.status" {
		t.Fatalf("expected direct motor.status reply, got %+v", reply)
	}

	// A different motor command type within the same 500ms window must
	// still be rejected: the rate limit is shared across all four types.
	if err := conn.WriteJSON(map[string]any{"type": "motor.setLed", "state": "green"}); err != nil {
		t.Fatalf("write setLed: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var second map[string]any
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read second reply: %v", err)
	}
	if second["type"] != "motor.error" || second["code"] != "RATE_LIMITED" {
		t.Fatalf("expected RATE_LIMITED motor.error, got %+v", second)
	}
}

// TestBlackboxServesWithNoDeviceAttached runs the bridge in non-mock mode
// against a device index that can never open (this build has no freenect
// backend, so Open always fails with DeviceNotFound). The server must still
// come up and accept connections, and a motor command over the websocket
// must report DEVICE_NOT_CONNECTED rather than the process refusing to
// start.
func TestBlackboxServesWithNoDeviceAttached(t *testing.T) {
	bin := buildBinary(t)
	port := findFreePort(t)
	sp := startServerMode(t, bin, port, false, "--device-index", "99")
	conn := dialKinect(t, sp)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello json.RawMessage
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}

	if err := conn.WriteJSON(map[string]any{"type": "motor.getStatus"}); err != nil {
		t.Fatalf("write getStatus: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply map[string]any
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if reply["type"] != "motor.error" || reply["code"] != "DEVICE_NOT_CONNECTED" {
		t.Fatalf("expected DEVICE_NOT_CONNECTED motor.error, got %+v", reply)
	}
}
