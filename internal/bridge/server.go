// Package bridge implements the local network server described in
// spec.md §4.G–§4.I: a chi-routed HTTP server upgrading one path to a
// websocket per client, a 30Hz broadcaster fanning frames out to
// subscribers, and a rate-limited motor gateway. Grounded on
// internal/httpapi/server.go's router/middleware/shutdown shape.
package bridge

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kinectxr/internal/bridge/broadcast"
	"kinectxr/internal/bridge/motor"
	"kinectxr/internal/bridge/protocol"
	"kinectxr/internal/device"
	"kinectxr/internal/framecache"
	"kinectxr/internal/rlog"
	"kinectxr/pkg/types"
)

// ServerName is reported in every hello message.
const ServerName = "kinectxr-bridge"

// writeDeadline bounds how long a single websocket write may block before
// the connection is considered dead.
const writeDeadline = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The bridge is meant for same-machine or LAN browser clients with no
	// cross-origin credential model to protect; CORS on the HTTP routes
	// below covers the page-serving case.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server owns one device driver, one frame cache, the broadcaster, the
// motor gateway, and the connected client registry.
type Server struct {
	mock        bool
	deviceIndex int

	driver device.Driver
	cache  *framecache.Cache
	gw     *motor.Gateway
	bc     *broadcast.Broadcaster
	reg    *registry

	// deviceOpen tracks whether driver.Open succeeded. The server still
	// starts and accepts connections when it did not — matching the
	// original's setKinectDevice(nullptr) architecture, where the bridge
	// runs with no device and every motor handler reports
	// DEVICE_NOT_CONNECTED instead of the process refusing to come up.
	deviceOpen atomic.Bool

	streamsMu      sync.Mutex
	streamsRunning bool

	router http.Handler
}

// New wires a Server over drv in the given mode. When mock is true,
// StartStreams/StopStreams are never called on drv — the broadcaster
// synthesizes frames directly and stream lifecycle coupling is bypassed,
// per spec.md §4.H.
func New(drv device.Driver, mock bool, deviceIndex int) *Server {
	s := &Server{
		mock:        mock,
		deviceIndex: deviceIndex,
		driver:      drv,
		cache:       framecache.New(),
		reg:         newRegistry(),
	}
	s.gw = motor.New(drv, s.deviceOpen.Load, func(status types.MotorStatus) {
		s.reg.broadcastJSON(protocol.MotorStatusMessage{
			Type:     protocol.TypeMotorStatus,
			AngleDeg: status.TiltAngleDeg,
			Status:   status.Status.String(),
			AccelX:   status.AccelX,
			AccelY:   status.AccelY,
			AccelZ:   status.AccelZ,
		})
	})
	s.bc = broadcast.New(s.cache, s.reg, mock, s.onStats)
	s.bc.SetMetricsHooks(onFrameSent, onFramesDropped)

	if !mock {
		drv.SetVideoCallback(func(rgb []byte, timestamp uint32) {
			s.cache.WriteRGB(rgb, timestamp)
		})
		drv.SetDepthCallback(func(depth []uint16, timestamp uint32) {
			s.cache.WriteDepth(depth, timestamp)
		})
	}

	s.router = s.buildRouter()
	return s
}

// Start attempts to open the driver and always begins the broadcaster loop,
// even when the open failed. A closed device just means every motor handler
// reports DeviceNotConnected and the broadcaster keeps emitting whatever the
// cache (or, in mock mode, the synthesizer) produces — the bridge still
// accepts connections and serves /healthz, /readyz and /metrics regardless
// of whether a physical device was found.
func (s *Server) Start() {
	cfg := types.DeviceConfig{EnableRGB: true, EnableDepth: true, EnableMotor: true, DeviceIndex: s.deviceIndex}
	err := s.driver.Open(cfg)
	s.deviceOpen.Store(err.Ok())
	if !err.Ok() {
		rlog.Get().Warn().Str("error", err.String()).Msg("device open failed; serving with no device attached")
	}
	s.bc.Start()
}

// Handler returns the server's http.Handler for use with http.Server.
func (s *Server) Handler() http.Handler { return s.router }

// Shutdown stops the broadcaster and, if running, the device streams.
func (s *Server) Shutdown(ctx context.Context) error {
	s.bc.Stop()
	s.streamsMu.Lock()
	running := s.streamsRunning
	s.streamsMu.Unlock()
	if running && !s.mock {
		s.driver.StopStreams()
	}
	s.driver.Close()
	return nil
}

func (s *Server) onStats(st broadcast.Stats) {
	rlog.Get().Info().
		Int("client_count", st.ClientCount).
		Float64("rgb_fps", st.RGBFps).
		Float64("depth_fps", st.DepthFps).
		Uint64("frames_sent", st.FramesSent).
		Uint64("dropped_frames", st.DroppedFrames).
		Msg("broadcast stats")

	s.reg.forEach(func(c *Client) {
		c.SendJSON(s.statusMessage(c, st.ClientCount))
	})
}

// statusMessage builds the status push for one client, mirroring the
// original's sendStatus but scoped per-connection so Subscriptions reflects
// what that client actually receives.
func (s *Server) statusMessage(c *Client, clientCount int) protocol.StatusMessage {
	return protocol.StatusMessage{
		Type:          protocol.TypeStatus,
		DeviceOpen:    s.deviceOpen.Load(),
		ClientCount:   clientCount,
		Subscriptions: c.Subscriptions(),
	}
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/kinect", s.handleWebsocket)

	return r
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		rlog.Get().Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(64)
	s.reg.add(client)
	clientsConnectedTotal.Inc()
	clientsActive.Inc()
	s.onClientConnected()

	defer func() {
		s.reg.remove(client)
		clientsActive.Dec()
		client.Close()
		conn.Close()
		s.onClientDisconnected()
	}()

	client.SendJSON(protocol.HelloMessage{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.ProtocolVersion,
		ServerName:      ServerName,
		Capabilities:    protocol.DefaultCapabilities(),
	})

	done := make(chan struct{})
	go s.writePump(conn, client, done)
	s.readPump(conn, client)
	close(done)
}

func (s *Server) writePump(conn *websocket.Conn, client *Client, done <-chan struct{}) {
	for {
		select {
		case <-client.Done():
			return
		case <-done:
			return
		case frame := <-client.Send:
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(frame.messageType, frame.data); err != nil {
				client.Close()
				return
			}
		}
	}
}

func (s *Server) readPump(conn *websocket.Conn, client *Client) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		s.handleInbound(client, data)
	}
}

func (s *Server) handleInbound(client *Client, data []byte) {
	msg, ok := protocol.ParseInbound(data)
	if !ok {
		client.SendJSON(protocol.NewError(protocol.CodeProtocolError, "malformed message or unknown type", false))
		return
	}

	switch m := msg.(type) {
	case protocol.SubscribeMessage:
		client.SetSubscriptions(m.Streams)
	case protocol.UnsubscribeMessage:
		client.RemoveSubscriptions(m.Streams)
	case protocol.MotorSetTiltMessage:
		s.dispatchMotor(client, "setTilt", func() (protocol.MotorStatusMessage, *protocol.MotorErrorMessage) {
			return s.gw.SetTilt(m.AngleDeg)
		})
	case protocol.MotorSetLedMessage:
		s.dispatchMotor(client, "setLed", func() (protocol.MotorStatusMessage, *protocol.MotorErrorMessage) {
			return s.gw.SetLED(m.State)
		})
	case protocol.MotorResetMessage:
		s.dispatchMotor(client, "reset", func() (protocol.MotorStatusMessage, *protocol.MotorErrorMessage) {
			return s.gw.Reset()
		})
	case protocol.MotorGetStatusMessage:
		s.dispatchMotor(client, "getStatus", func() (protocol.MotorStatusMessage, *protocol.MotorErrorMessage) {
			return s.gw.GetStatus()
		})
	case protocol.StatusRequestMessage:
		client.SendJSON(s.statusMessage(client, s.reg.Count()))
	}
}

func (s *Server) dispatchMotor(client *Client, kind string, call func() (protocol.MotorStatusMessage, *protocol.MotorErrorMessage)) {
	status, motorErr := call()
	if motorErr != nil {
		motorCommandsTotal.WithLabelValues(kind, motorErr.Code).Inc()
		client.SendJSON(*motorErr)
		return
	}
	motorCommandsTotal.WithLabelValues(kind, "ok").Inc()
	client.SendJSON(status)
}

// onClientConnected starts device streams on the first connected client.
// Bypassed entirely in mock mode, per spec.md §4.H.
func (s *Server) onClientConnected() {
	if s.mock {
		return
	}
	s.streamsMu.Lock()
	defer s.streamsMu.Unlock()
	if s.streamsRunning || s.reg.Count() != 1 {
		return
	}
	if err := s.driver.StartStreams(); !err.Ok() {
		rlog.Get().Error().Str("error", err.String()).Msg("failed to start device streams")
		return
	}
	s.streamsRunning = true
}

// onClientDisconnected stops device streams once the last client has gone.
func (s *Server) onClientDisconnected() {
	if s.mock {
		return
	}
	s.streamsMu.Lock()
	defer s.streamsMu.Unlock()
	if !s.streamsRunning || s.reg.Count() != 0 {
		return
	}
	s.driver.StopStreams()
	s.streamsRunning = false
}
