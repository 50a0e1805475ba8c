package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"jobmirror/internal/logging"
)

// Handler receives the raw payload of one event occurrence.
type Handler func(payload json.RawMessage)

// Subscription identifies one registered handler for later removal.
type Subscription struct {
	kind EventKind
	id   uint64
}

// Options configures a Channel.
type Options struct {
	// URL is the websocket endpoint of the scheduler.
	URL string
	// SessionID is sent on the handshake for log correlation; optional.
	SessionID string
	// HandshakeTimeout bounds each connection attempt.
	HandshakeTimeout time.Duration
	// HeartbeatInterval is the ping cadence; the read deadline is a multiple
	// of it so a dead peer is detected between heartbeats.
	HeartbeatInterval time.Duration
	// Logger receives transport diagnostics; nil means silent.
	Logger *slog.Logger
}

const (
	defaultHandshakeTimeout  = 10 * time.Second
	defaultHeartbeatInterval = 20 * time.Second
	writeTimeout             = 5 * time.Second
	maxReconnectInterval     = 30 * time.Second
)

// envelope is the bidirectional wire frame.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type subscriber struct {
	id      uint64
	handler Handler
}

// Channel manages one logical connection to the scheduler with automatic
// reconnection and a typed publish/subscribe registry. Subscriptions may be
// registered before Connect; events simply do not fire until connected.
type Channel struct {
	opts Options

	mu        sync.Mutex
	wmu       sync.Mutex
	handlers  map[EventKind][]subscriber
	nextSubID uint64
	conn      *websocket.Conn
	connected bool
	running   bool
	stop      chan struct{}

	logger *slog.Logger
}

// New constructs a disconnected channel.
func New(opts Options) *Channel {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = defaultHandshakeTimeout
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = defaultHeartbeatInterval
	}
	return &Channel{
		opts:     opts,
		handlers: make(map[EventKind][]subscriber),
		logger:   logging.NewComponentLogger(opts.Logger, "realtime"),
	}
}

// Connect starts the connection loop. Calling it while already running is a
// no-op. The call returns immediately; EventConnected or EventConnectFailed
// report the outcome.
func (c *Channel) Connect() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		c.logger.Debug("connect requested while already running")
		return
	}
	c.running = true
	c.stop = make(chan struct{})
	stop := c.stop
	c.mu.Unlock()

	go c.run(stop)
}

// Disconnect tears the connection down and clears all subscriptions. It is
// idempotent.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if c.running {
		close(c.stop)
		c.running = false
	}
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.handlers = make(map[EventKind][]subscriber)
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

// Connected reports whether the transport is currently established.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Subscribe registers a handler for an event kind. Handlers for the same kind
// run in registration order on each occurrence.
func (c *Channel) Subscribe(kind EventKind, handler Handler) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSubID++
	c.handlers[kind] = append(c.handlers[kind], subscriber{id: c.nextSubID, handler: handler})
	return Subscription{kind: kind, id: c.nextSubID}
}

// Unsubscribe removes a previously registered handler. Unknown subscriptions
// are a no-op.
func (c *Channel) Unsubscribe(sub Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	subs := c.handlers[sub.kind]
	for i, entry := range subs {
		if entry.id == sub.id {
			c.handlers[sub.kind] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Emit sends an event to the backend. Emitting while disconnected is a logged
// no-op; it never fails the caller.
func (c *Channel) Emit(event string, payload any) {
	c.mu.Lock()
	conn := c.conn
	connected := c.connected
	c.mu.Unlock()

	if !connected || conn == nil {
		c.logger.Warn("emit skipped: not connected", logging.String(logging.FieldEvent, event))
		return
	}

	var data json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			c.logger.Warn("emit skipped: encode payload",
				logging.String(logging.FieldEvent, event), logging.Error(err))
			return
		}
		data = encoded
	}

	// The websocket permits one writer at a time; serialize data frames.
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(envelope{Event: event, Data: data}); err != nil {
		c.logger.Warn("emit failed", logging.String(logging.FieldEvent, event), logging.Error(err))
	}
}

// RequestJobStatus asks the backend to push a fresh job list snapshot.
func (c *Channel) RequestJobStatus() {
	c.Emit(RequestJobStatusEvent, nil)
}

// RequestWorkerStats asks the backend to push fresh worker statistics.
func (c *Channel) RequestWorkerStats() {
	c.Emit(RequestWorkerStatsEvent, nil)
}

// run owns the connection for the lifetime of one Connect/Disconnect cycle:
// dial with backoff, read until failure, reconnect unless stopped.
func (c *Channel) run(stop chan struct{}) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = maxReconnectInterval
	policy.MaxElapsedTime = 0 // retry until Disconnect

	for {
		select {
		case <-stop:
			return
		default:
		}

		conn, err := c.dial()
		if err != nil {
			c.logger.Warn("connection attempt failed", logging.Error(err))
			c.dispatch(EventConnectFailed, errorPayload(err))
			wait := policy.NextBackOff()
			select {
			case <-stop:
				return
			case <-time.After(wait):
			}
			continue
		}

		c.mu.Lock()
		// c.stop identifies the cycle; a stale goroutine from a previous
		// Connect must not install its conn into a newer cycle's state.
		stopped := c.stop != stop || !c.running
		if !stopped {
			c.conn = conn
			c.connected = true
		}
		c.mu.Unlock()
		if stopped {
			_ = conn.Close()
			return
		}

		policy.Reset()
		c.logger.Info("connected", logging.String("url", c.opts.URL))
		c.dispatch(EventConnected, nil)

		c.readLoop(conn, stop)

		c.mu.Lock()
		current := c.stop == stop
		if current {
			c.conn = nil
			c.connected = false
		}
		stillRunning := current && c.running
		c.mu.Unlock()

		if !stillRunning {
			return
		}
		c.logger.Warn("connection lost, reconnecting")
		c.dispatch(EventDisconnected, nil)
	}
}

func (c *Channel) dial() (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.opts.HandshakeTimeout}
	header := http.Header{}
	if c.opts.SessionID != "" {
		header.Set("X-Session-ID", c.opts.SessionID)
	}
	conn, _, err := dialer.Dial(c.opts.URL, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.opts.URL, err)
	}
	return conn, nil
}

// readLoop decodes frames sequentially and dispatches them in arrival order.
// It returns when the connection errors or the channel is stopped.
func (c *Channel) readLoop(conn *websocket.Conn, stop chan struct{}) {
	readDeadline := 3 * c.opts.HeartbeatInterval
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	pingerDone := make(chan struct{})
	defer close(pingerDone)
	go c.pinger(conn, pingerDone, stop)

	for {
		var frame envelope
		if err := conn.ReadJSON(&frame); err != nil {
			select {
			case <-stop:
			default:
				c.logger.Debug("read loop ended", logging.Error(err))
			}
			_ = conn.Close()
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))

		kind, ok := ParseEvent(frame.Event)
		if !ok {
			c.logger.Debug("dropping unknown event", logging.String(logging.FieldEvent, frame.Event))
			continue
		}
		c.dispatch(kind, frame.Data)
	}
}

func (c *Channel) pinger(conn *websocket.Conn, done, stop chan struct{}) {
	ticker := time.NewTicker(c.opts.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-stop:
			return
		case <-ticker.C:
			// WriteControl is safe alongside Emit's data writes.
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

// dispatch invokes every handler registered for the kind, in registration
// order. A panic in one handler is caught and logged here so it cannot stall
// the read loop or starve the remaining handlers.
func (c *Channel) dispatch(kind EventKind, payload json.RawMessage) {
	c.mu.Lock()
	subs := append([]subscriber(nil), c.handlers[kind]...)
	c.mu.Unlock()

	for _, sub := range subs {
		c.invoke(kind, sub, payload)
	}
}

func (c *Channel) invoke(kind EventKind, sub subscriber, payload json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("event handler panicked",
				logging.String(logging.FieldEvent, kind.String()),
				logging.Any("panic", r))
		}
	}()
	sub.handler(payload)
}

func errorPayload(err error) json.RawMessage {
	encoded, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
	if marshalErr != nil {
		return nil
	}
	return encoded
}
