package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/toniiplaycode/DNC-Learning-sub002/internal/domain"
	"github.com/toniiplaycode/DNC-Learning-sub002/internal/store"
	"github.com/toniiplaycode/DNC-Learning-sub002/pkg/log"
)

var (
	ErrNotConnected     = errors.New("socket not connected")
	ErrAlreadyConnected = errors.New("socket already connected")
	ErrClosed           = errors.New("adapter closed")
	ErrAckTimeout       = errors.New("ack timed out")
)

// State is the connection lifecycle state of the adapter.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// Status is reported to the UI on every state change. Err is set when
// the transition was caused by a transport failure; it is advisory,
// never fatal.
type Status struct {
	State   State
	Attempt int
	Err     error
}

// Config holds transport tuning for one adapter.
type Config struct {
	URL               string
	ReconnectAttempts int
	ReconnectInterval time.Duration
	PingInterval      time.Duration
	PongWait          time.Duration
	WriteWait         time.Duration
	AckTimeout        time.Duration
	MaxMessageSize    int64
}

// Adapter owns exactly one websocket connection for an authenticated
// session and translates named server events into store mutations.
// When the session's user changes, the adapter is closed and a new one
// is created; an adapter never serves two identities.
type Adapter struct {
	cfg    Config
	userID int64
	token  string
	store  *store.Store

	onStatus func(Status)

	mu          sync.Mutex
	conn        *websocket.Conn
	state       State
	activeClass string
	pending     map[string]chan json.RawMessage
	closed      bool
}

func NewAdapter(cfg Config, userID int64, token string, st *store.Store) *Adapter {
	if cfg.ReconnectAttempts <= 0 {
		cfg.ReconnectAttempts = 5
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = time.Second
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = 5 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = 10 * time.Second
	}
	return &Adapter{
		cfg:     cfg,
		userID:  userID,
		token:   token,
		store:   st,
		state:   StateDisconnected,
		pending: make(map[string]chan json.RawMessage),
	}
}

// OnStatus registers the status callback. Set before Connect.
func (a *Adapter) OnStatus(fn func(Status)) {
	a.mu.Lock()
	a.onStatus = fn
	a.mu.Unlock()
}

// State returns the current lifecycle state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// SetActiveClass records the class room the user is currently viewing.
// Inbound group events for any other class are ignored, and the active
// class is re-joined after a successful reconnect.
func (a *Adapter) SetActiveClass(classID string) {
	a.mu.Lock()
	a.activeClass = classID
	a.mu.Unlock()
}

// ActiveClass returns the currently viewed class room id.
func (a *Adapter) ActiveClass() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.activeClass
}

// Connect dials the socket server. The handshake carries the session's
// user id and bearer token.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if a.conn != nil {
		a.mu.Unlock()
		return ErrAlreadyConnected
	}
	a.setStateLocked(StateConnecting, 0, nil)
	a.mu.Unlock()

	conn, err := a.dial(ctx)
	if err != nil {
		a.mu.Lock()
		a.setStateLocked(StateDisconnected, 0, err)
		a.mu.Unlock()
		return err
	}

	a.attach(conn)
	return nil
}

// Close tears the adapter down: dispatching stops before the transport
// is closed, so a late frame can never reach a stale session's store.
// Safe to call more than once.
func (a *Adapter) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	conn := a.conn
	a.conn = nil
	a.failPendingLocked()
	a.setStateLocked(StateDisconnected, 0, nil)
	a.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(a.cfg.WriteWait))
		conn.Close()
	}
}

func (a *Adapter) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+a.token)
	header.Set("X-User-Id", fmt.Sprintf("%d", a.userID))

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, a.cfg.URL, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", a.cfg.URL, err)
	}
	return conn, nil
}

// attach installs a freshly dialed connection and starts its pumps.
func (a *Adapter) attach(conn *websocket.Conn) {
	if a.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(a.cfg.MaxMessageSize)
	}
	conn.SetReadDeadline(time.Now().Add(a.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(a.cfg.PongWait))
		return nil
	})

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		conn.Close()
		return
	}
	a.conn = conn
	a.setStateLocked(StateConnected, 0, nil)
	a.mu.Unlock()

	go a.readPump(conn)
	go a.pingPump(conn)
}

func (a *Adapter) readPump(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			a.handleReadError(conn, err)
			return
		}

		var env domain.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			l := log.L()
			l.Warn().Err(err).Msg("dropping malformed frame")
			continue
		}
		a.dispatch(&env)
	}
}

func (a *Adapter) pingPump(conn *websocket.Conn) {
	ticker := time.NewTicker(a.cfg.PingInterval)
	defer ticker.Stop()

	for range ticker.C {
		err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(a.cfg.WriteWait))
		if err != nil {
			return
		}
	}
}

// handleReadError runs the bounded reconnect loop. Join state is not
// preserved by the server across a reconnect, so the active class room
// is re-joined once the new connection is up.
func (a *Adapter) handleReadError(conn *websocket.Conn, cause error) {
	conn.Close()

	a.mu.Lock()
	if a.closed || a.conn != conn {
		// Explicit close, or a newer connection already took over.
		a.mu.Unlock()
		return
	}
	a.conn = nil
	a.failPendingLocked()
	a.mu.Unlock()

	l := log.L()
	l.Warn().Err(cause).Msg("socket connection lost, reconnecting")

	for attempt := 1; attempt <= a.cfg.ReconnectAttempts; attempt++ {
		a.mu.Lock()
		if a.closed {
			a.mu.Unlock()
			return
		}
		a.setStateLocked(StateReconnecting, attempt, cause)
		a.mu.Unlock()

		time.Sleep(a.cfg.ReconnectInterval)

		newConn, err := a.dial(context.Background())
		if err != nil {
			l.Warn().Err(err).Int(log.FieldAttempt, attempt).Msg("reconnect attempt failed")
			cause = err
			continue
		}

		a.attach(newConn)
		a.rejoinActiveClass()
		l.Info().Int(log.FieldAttempt, attempt).Msg("socket reconnected")
		return
	}

	a.mu.Lock()
	a.setStateLocked(StateDisconnected, a.cfg.ReconnectAttempts, cause)
	a.mu.Unlock()
	l.Error().Err(cause).Msg("reconnect attempts exhausted")
}

func (a *Adapter) rejoinActiveClass() {
	classID := a.ActiveClass()
	if classID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.AckTimeout)
	defer cancel()
	if err := a.JoinClassRoom(ctx, classID); err != nil {
		l := log.L()
		l.Warn().Err(err).Str(log.FieldClassID, classID).Msg("failed to rejoin class room after reconnect")
	}
}

// setStateLocked updates state and fires the status callback. Caller
// holds a.mu; the callback runs outside the lock.
func (a *Adapter) setStateLocked(state State, attempt int, err error) {
	a.state = state
	fn := a.onStatus
	if fn == nil {
		return
	}
	st := Status{State: state, Attempt: attempt, Err: err}
	go fn(st)
}

func (a *Adapter) failPendingLocked() {
	for id, ch := range a.pending {
		close(ch)
		delete(a.pending, id)
	}
}
