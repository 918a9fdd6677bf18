package taskhub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// ============================================================================
// Credentials
// ============================================================================

// Credentials supplies the session identity the socket depends on.
// Connects and reconnects are suppressed while Authenticated is false;
// the socket never alerts on that, it only logs.
type Credentials interface {
	Token() string
	UserID() int64
	Authenticated() bool
}

// StaticCredentials is a fixed token/user pair.
type StaticCredentials struct {
	AccessToken string
	ID          int64
}

func (c StaticCredentials) Token() string { return c.AccessToken }

func (c StaticCredentials) UserID() int64 { return c.ID }

func (c StaticCredentials) Authenticated() bool { return c.AccessToken != "" }

// ============================================================================
// Configuration
// ============================================================================

// SocketConfig configures the notification socket.
type SocketConfig struct {
	// MaxReconnectAttempts bounds automatic retries before the socket
	// goes terminal failed. Default 5.
	MaxReconnectAttempts int
	// ReconnectBaseDelay is the backoff base. Default 3s.
	ReconnectBaseDelay time.Duration
	// FixedBackoff disables exponential growth: every retry waits
	// exactly ReconnectBaseDelay.
	FixedBackoff bool
	// HeartbeatInterval is the liveness probe period. Default 30s.
	HeartbeatInterval time.Duration
}

func (c *SocketConfig) defaults() {
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = 5
	}
	if c.ReconnectBaseDelay == 0 {
		c.ReconnectBaseDelay = 3 * time.Second
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
}

// ConnState is the coarse connection status surfaced for display.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
	StateError        ConnState = "error"
	StateFailed       ConnState = "failed"
)

// ============================================================================
// Reconnector
// ============================================================================

type reconnector struct {
	baseDelay   time.Duration
	fixed       bool
	maxAttempts int
	attempt     int
}

func (r *reconnector) exhausted() bool {
	return r.attempt >= r.maxAttempts
}

// next returns the delay for the current attempt and advances the counter.
func (r *reconnector) next() time.Duration {
	delay := r.delayFor(r.attempt)
	r.attempt++
	return delay
}

func (r *reconnector) delayFor(attempt int) time.Duration {
	if r.fixed {
		return r.baseDelay
	}
	return r.baseDelay << uint(attempt)
}

func (r *reconnector) reset() {
	r.attempt = 0
}

// ============================================================================
// NotificationSocket
// ============================================================================

// NotificationSocket owns exactly one live WebSocket per authenticated
// session. It dials /ws/notifications/{userID} on the WS-rewritten base
// address, feeds every inbound frame to the Router, probes liveness on
// an interval, and retries dropped connections with bounded backoff.
//
// The handshake itself carries no token; possession of one is checked
// client-side before dialing, matching the backend contract.
type NotificationSocket struct {
	client *Client
	creds  Credentials
	config *SocketConfig
	router *Router
	logger *zap.Logger

	mu               sync.Mutex
	conn             *websocket.Conn
	state            ConnState
	intentionalClose bool
	recon            reconnector
	cancelFn         context.CancelFunc
	reconnectTimer   *time.Timer
	onStateChange    func(ConnState)
	stateCh          chan ConnState
}

// NewNotificationSocket wires a socket to its store and alert sink.
// A nil config uses defaults; a nil logger disables logging.
func NewNotificationSocket(client *Client, creds Credentials, store *NotificationStore, alerts AlertSink, config *SocketConfig, logger *zap.Logger) *NotificationSocket {
	cfg := SocketConfig{}
	if config != nil {
		cfg = *config
	}
	cfg.defaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationSocket{
		client: client,
		creds:  creds,
		config: &cfg,
		router: NewRouter(store, alerts, logger),
		logger: logger,
		state:  StateDisconnected,
		recon: reconnector{
			baseDelay:   cfg.ReconnectBaseDelay,
			fixed:       cfg.FixedBackoff,
			maxAttempts: cfg.MaxReconnectAttempts,
		},
	}
}

// State returns the current connection state.
func (s *NotificationSocket) State() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnStateChange registers a callback fired on every state transition.
// Transitions are delivered in order on a single dispatch goroutine
// that lives as long as the socket. Intended for status badges.
func (s *NotificationSocket) OnStateChange(fn func(ConnState)) {
	s.mu.Lock()
	s.onStateChange = fn
	if s.stateCh == nil {
		s.stateCh = make(chan ConnState, 16)
		go s.dispatchStates(s.stateCh)
	}
	s.mu.Unlock()
}

func (s *NotificationSocket) dispatchStates(ch <-chan ConnState) {
	for state := range ch {
		s.mu.Lock()
		cb := s.onStateChange
		s.mu.Unlock()
		if cb != nil {
			cb(state)
		}
	}
}

// wsURL rewrites the HTTP(S) base address to its WS(S) equivalent and
// appends the per-user path segment.
func (s *NotificationSocket) wsURL() (string, error) {
	base := s.client.BaseURL()
	if base == "" {
		return "", fmt.Errorf("base URL is not configured")
	}
	u := strings.Replace(base, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	return fmt.Sprintf("%s/ws/notifications/%d", u, s.creds.UserID()), nil
}

// Connect establishes the socket. It is a no-op while already
// connecting or connected, and while the session is unauthenticated.
// A dial failure counts as a transport error and schedules a retry.
func (s *NotificationSocket) Connect(ctx context.Context) error {
	if !s.creds.Authenticated() {
		s.logger.Info("skipping connect while unauthenticated")
		return nil
	}

	s.mu.Lock()
	if s.state == StateConnected || s.state == StateConnecting {
		s.mu.Unlock()
		return nil
	}
	s.setStateLocked(StateConnecting)
	s.intentionalClose = false
	s.mu.Unlock()

	target, err := s.wsURL()
	if err != nil {
		// No connection attempt without a base address.
		s.transition(StateDisconnected)
		return err
	}

	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		s.logger.Warn("websocket dial failed", zap.Error(err))
		s.transition(StateError)
		s.scheduleReconnect()
		return fmt.Errorf("websocket dial: %w", err)
	}

	connCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	// Close or logout may have raced the dial; a connection that lands
	// after either must be dropped, not installed.
	if s.intentionalClose || !s.creds.Authenticated() {
		s.setStateLocked(StateDisconnected)
		s.mu.Unlock()
		cancel()
		_ = conn.Close(websocket.StatusNormalClosure, "client disconnect")
		return nil
	}
	s.conn = conn
	s.cancelFn = cancel
	s.recon.reset()
	s.setStateLocked(StateConnected)
	s.mu.Unlock()

	s.logger.Info("notification socket connected", zap.Int64("user_id", s.creds.UserID()))

	// Ask for the connected-user roster once per connection.
	_ = s.Send(connCtx, map[string]string{"type": "get_users"})

	go s.readLoop(connCtx, conn)
	go s.heartbeatLoop(connCtx, conn)

	return nil
}

// Close requests a clean shutdown (status 1000) and suppresses
// reconnection. Call on logout or explicit disconnect.
func (s *NotificationSocket) Close() error {
	s.mu.Lock()
	s.intentionalClose = true
	s.mu.Unlock()

	s.teardown()
	s.transition(StateDisconnected)
	return nil
}

// Reconnect cancels any pending retry, resets the attempt counter,
// closes a live connection, and dials immediately, bypassing backoff
// once. It is the only way out of the failed state.
func (s *NotificationSocket) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	s.intentionalClose = true
	s.mu.Unlock()

	s.teardown()

	s.mu.Lock()
	s.recon.reset()
	s.intentionalClose = false
	s.setStateLocked(StateDisconnected)
	s.mu.Unlock()

	return s.Connect(ctx)
}

// Send transmits a JSON control message while connected. When the
// socket is not open it logs a warning and drops the payload; it never
// errors for that and never queues.
func (s *NotificationSocket) Send(ctx context.Context, payload interface{}) error {
	s.mu.Lock()
	conn := s.conn
	state := s.state
	s.mu.Unlock()

	if conn == nil || state != StateConnected {
		s.logger.Warn("dropping send on closed socket", zap.String("state", string(state)))
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// ============================================================================
// Internals
// ============================================================================

func (s *NotificationSocket) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			s.mu.Lock()
			current := s.conn == conn
			intentional := s.intentionalClose
			s.mu.Unlock()

			// A newer connection owns the state once teardown has run;
			// a superseded loop exits without touching it.
			if !current {
				return
			}

			s.teardown()

			if intentional || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				s.transition(StateDisconnected)
				return
			}

			s.logger.Warn("connection lost", zap.Error(err))
			s.transition(StateError)
			s.scheduleReconnect()
			return
		}

		s.router.Route(data)
	}
}

func (s *NotificationSocket) heartbeatLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Write(ctx, websocket.MessageText, []byte(heartbeatProbe)); err != nil {
				// The read loop observes the same failure and drives reconnect.
				s.logger.Warn("heartbeat write failed", zap.Error(err))
				return
			}
		}
	}
}

// scheduleReconnect arms the retry timer for the next attempt, or goes
// terminal failed once the budget is spent. Reconnection is suppressed
// after an intentional close and while unauthenticated.
func (s *NotificationSocket) scheduleReconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateConnected || s.state == StateConnecting {
		return
	}
	if s.intentionalClose {
		s.setStateLocked(StateDisconnected)
		return
	}
	if !s.creds.Authenticated() {
		s.logger.Info("suppressing reconnect while unauthenticated")
		s.setStateLocked(StateDisconnected)
		return
	}
	if s.recon.exhausted() {
		s.logger.Warn("reconnect attempts exhausted", zap.Int("attempts", s.recon.attempt))
		s.setStateLocked(StateFailed)
		return
	}

	delay := s.recon.next()
	s.setStateLocked(StateError)

	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
	}
	s.reconnectTimer = time.AfterFunc(delay, func() {
		// Connect reschedules on dial failure, so errors stop here.
		_ = s.Connect(context.Background())
	})

	s.logger.Info("reconnect scheduled",
		zap.Int("attempt", s.recon.attempt),
		zap.Duration("delay", delay))
}

// teardown is the single exit routine for every path out of connected:
// it stops the heartbeat, cancels any pending reconnect timer, and
// drops the connection handle. Safe to call repeatedly.
func (s *NotificationSocket) teardown() {
	s.mu.Lock()
	cancel := s.cancelFn
	s.cancelFn = nil
	timer := s.reconnectTimer
	s.reconnectTimer = nil
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if timer != nil {
		timer.Stop()
	}
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "client disconnect")
	}
}

func (s *NotificationSocket) transition(state ConnState) {
	s.mu.Lock()
	s.setStateLocked(state)
	s.mu.Unlock()
}

func (s *NotificationSocket) setStateLocked(state ConnState) {
	if s.state == state {
		return
	}
	s.state = state
	if s.stateCh != nil {
		select {
		case s.stateCh <- state:
		default:
			// A stalled consumer must not block state transitions.
		}
	}
}
