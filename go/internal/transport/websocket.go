package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/livechat-docker/livechat/go/internal/session"
)

// ErrNotConnected is returned by Emit while no connection is established
var ErrNotConnected = errors.New("transport not connected")

// Sink receives inbound events. Implementations typically post them onto the session loop.
type Sink func(ev session.Inbound)

// WebSocketConfig holds configuration for the WebSocket transport
type WebSocketConfig struct {
	ServerURL       string
	Path            string
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	ReconnectWait   time.Duration
	MaxReconnects   int // -1 retries forever
	Header          http.Header
}

// DefaultWebSocketConfig returns default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		ServerURL:       "http://localhost:5000",
		Path:            "/ws",
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  64 * 1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		ReconnectWait:   2 * time.Second,
		MaxReconnects:   -1,
	}
}

// WebSocket is a session.Transport over a single client WebSocket connection
// that redials after the connection drops.
type WebSocket struct {
	config WebSocketConfig
	sink   Sink
	dialer *websocket.Dialer

	connected atomic.Bool

	mu   sync.Mutex
	send chan []byte
}

// NewWebSocket creates a WebSocket transport delivering inbound events to sink
func NewWebSocket(config WebSocketConfig, sink Sink) *WebSocket {
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = 256
	}
	if config.Path == "" {
		config.Path = "/ws"
	}
	return &WebSocket{
		config: config,
		sink:   sink,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: config.WriteTimeout,
			ReadBufferSize:   config.ReadBufferSize,
			WriteBufferSize:  config.WriteBufferSize,
		},
	}
}

// Connected reports whether a connection is currently established
func (w *WebSocket) Connected() bool {
	return w.connected.Load()
}

// Emit queues an outbound event. It never blocks.
func (w *WebSocket) Emit(ev session.Outbound) error {
	data, err := session.EncodeOutbound(ev)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.send == nil || !w.connected.Load() {
		return ErrNotConnected
	}

	select {
	case w.send <- data:
		return nil
	default:
		return fmt.Errorf("send buffer full, dropping %s", ev.EventType())
	}
}

// Run dials the server and keeps the connection alive until ctx is cancelled
// or the reconnect budget is exhausted.
func (w *WebSocket) Run(ctx context.Context) error {
	endpoint, err := websocketURL(w.config.ServerURL, w.config.Path)
	if err != nil {
		return err
	}

	attempts := 0
	for {
		w.sink(&session.TransportConnecting{})

		conn, _, err := w.dialer.DialContext(ctx, endpoint, w.config.Header)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn().Err(err).Str("url", endpoint).Msg("websocket dial failed")
			w.sink(&session.TransportFailed{Err: fmt.Errorf("dial %s: %w", endpoint, err)})
		} else {
			attempts = 0
			reason := w.serve(ctx, conn)
			if ctx.Err() != nil {
				return nil
			}
			w.sink(&session.TransportDisconnected{Reason: reason})
		}

		attempts++
		if w.config.MaxReconnects >= 0 && attempts > w.config.MaxReconnects {
			return fmt.Errorf("giving up after %d reconnect attempts", w.config.MaxReconnects)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.config.ReconnectWait):
		}
	}
}

// serve runs the pumps for one connection and returns why it ended
func (w *WebSocket) serve(ctx context.Context, conn *websocket.Conn) error {
	send := make(chan []byte, w.config.SendBufferSize)

	w.mu.Lock()
	w.send = send
	w.connected.Store(true)
	w.mu.Unlock()

	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("websocket connection established")
	w.sink(&session.TransportConnected{})

	stop := make(chan struct{})
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		w.writePump(conn, send, stop)
	}()

	// Unblock the reader on shutdown
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	reason := w.readPump(conn)

	w.mu.Lock()
	w.connected.Store(false)
	w.send = nil
	w.mu.Unlock()

	close(stop)
	<-writeDone
	conn.Close()

	log.Info().Err(reason).Msg("websocket connection closed")
	return reason
}

// writePump handles sending messages to the WebSocket connection
func (w *WebSocket) writePump(conn *websocket.Conn, send <-chan []byte, stop <-chan struct{}) {
	ticker := time.NewTicker(w.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-send:
			conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Msg("failed to write message to WebSocket")
				conn.Close()
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Msg("failed to send ping")
				conn.Close()
				return
			}
		}
	}
}

// readPump decodes server events until the connection fails
func (w *WebSocket) readPump(conn *websocket.Conn) error {
	conn.SetReadLimit(w.config.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(w.config.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(w.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Msg("unexpected WebSocket close error")
			}
			return err
		}
		conn.SetReadDeadline(time.Now().Add(w.config.ReadTimeout))

		ev, err := session.DecodeInbound(message)
		if err != nil {
			// Malformed or unknown events never take the connection down
			log.Warn().Err(err).Bytes("message", message).Msg("dropping server event")
			continue
		}
		w.sink(ev)
	}
}

// websocketURL maps an http(s) server address onto its ws(s) endpoint
func websocketURL(server, path string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parse server url %q: %w", server, err)
	}

	switch u.Scheme {
	case "http", "":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server url %q has no host", server)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String(), nil
}
