// Package realtime bridges the push channel to local handlers. It owns the
// connection state machine and reconnects on drop; it routes events by name
// and does nothing else with them.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"tweetdash/internal/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second

	maxFrameBytes = 1 << 20
)

// Handler receives one routed event.
type Handler func(Event)

// Options configures an Adapter.
type Options struct {
	URL    string
	Header http.Header
	// JoinEvent is sent once every time the connection comes up.
	JoinEvent   string
	JoinPayload interface{}

	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	Dialer *websocket.Dialer
	Clock  clockwork.Clock
	Logger *utils.Logger
}

// Adapter is a reconnecting client for the push channel.
type Adapter struct {
	opts  Options
	clock clockwork.Clock
	log   *utils.Logger

	mu       sync.RWMutex
	state    State
	handlers map[string][]Handler
	catchAll []Handler
	onState  []func(State)

	connMu  sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func New(opts Options) *Adapter {
	if opts.Dialer == nil {
		opts.Dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 15 * time.Second,
		}
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 500 * time.Millisecond
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 30 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Adapter{
		opts:     opts,
		clock:    opts.Clock,
		log:      opts.Logger.With("component", "realtime"),
		handlers: make(map[string][]Handler),
	}
}

// On routes events named name to h. Handlers run on the read goroutine in
// arrival order.
func (a *Adapter) On(name string, h Handler) {
	if h == nil {
		return
	}
	a.mu.Lock()
	a.handlers[name] = append(a.handlers[name], h)
	a.mu.Unlock()
}

// OnAny receives every event after its named handlers.
func (a *Adapter) OnAny(h Handler) {
	if h == nil {
		return
	}
	a.mu.Lock()
	a.catchAll = append(a.catchAll, h)
	a.mu.Unlock()
}

// OnState is called on every state transition.
func (a *Adapter) OnState(fn func(State)) {
	if fn == nil {
		return
	}
	a.mu.Lock()
	a.onState = append(a.onState, fn)
	a.mu.Unlock()
}

func (a *Adapter) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Run connects and keeps reconnecting until ctx is cancelled.
func (a *Adapter) Run(ctx context.Context) error {
	if a.opts.URL == "" {
		return errors.New("realtime: no url configured")
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = a.opts.InitialBackoff
	bo.MaxInterval = a.opts.MaxBackoff
	bo.MaxElapsedTime = 0
	bo.Reset()

	defer a.setState(Disconnected)
	for {
		a.setState(Connecting)
		conn, _, err := a.opts.Dialer.DialContext(ctx, a.opts.URL, a.opts.Header)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			wait := bo.NextBackOff()
			a.log.Warnf("dial %s failed, retrying in %s: %v", a.opts.URL, wait, err)
			a.setState(Disconnected)
			if !a.sleep(ctx, wait) {
				return nil
			}
			continue
		}
		bo.Reset()

		a.setConn(conn)
		a.setState(Connected)
		a.log.Infof("connected to %s", a.opts.URL)
		if a.opts.JoinEvent != "" {
			if err := a.Emit(a.opts.JoinEvent, a.opts.JoinPayload); err != nil {
				a.log.Warnf("send %s: %v", a.opts.JoinEvent, err)
			}
		}
		a.dispatch(Event{Type: EventConnect, ReceivedAt: a.clock.Now()})

		readErr := a.readLoop(ctx, conn)
		a.setConn(nil)
		a.setState(Disconnected)

		reason := "closed"
		if readErr != nil {
			reason = readErr.Error()
		}
		payload, _ := json.Marshal(DisconnectInfo{Reason: reason})
		a.dispatch(Event{Type: EventDisconnect, Payload: payload, ReceivedAt: a.clock.Now()})

		if ctx.Err() != nil {
			return nil
		}
		wait := bo.NextBackOff()
		a.log.Warnf("connection lost (%s), reconnecting in %s", reason, wait)
		if !a.sleep(ctx, wait) {
			return nil
		}
	}
}

// Emit sends a named event. It fails when not connected.
func (a *Adapter) Emit(event string, data interface{}) error {
	env := Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode %s: %w", event, err)
		}
		env.Data = raw
	}
	frame, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}

	a.connMu.Lock()
	conn := a.conn
	a.connMu.Unlock()
	if conn == nil {
		return errors.New("realtime: not connected")
	}
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, frame)
}

func (a *Adapter) readLoop(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadLimit(maxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				a.writeMu.Lock()
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				a.writeMu.Unlock()
				conn.Close()
				return
			case <-ticker.C:
				a.writeMu.Lock()
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
				a.writeMu.Unlock()
				if err != nil {
					a.log.Debugf("ping failed: %v", err)
				}
			case <-done:
				return
			}
		}
	}()
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			a.log.Warnf("dropping malformed frame (%d bytes)", len(data))
			continue
		}
		a.dispatch(Event{Type: env.Event, Payload: env.Data, ReceivedAt: a.clock.Now()})
	}
}

func (a *Adapter) dispatch(ev Event) {
	a.mu.RLock()
	named := append([]Handler(nil), a.handlers[ev.Type]...)
	catchAll := append([]Handler(nil), a.catchAll...)
	a.mu.RUnlock()

	if len(named) == 0 && len(catchAll) == 0 {
		a.log.Debugf("no handler for %q", ev.Type)
		return
	}
	for _, h := range append(named, catchAll...) {
		a.safeCall(ev, h)
	}
}

func (a *Adapter) safeCall(ev Event, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Errorf("handler for %q panicked: %v", ev.Type, r)
		}
	}()
	h(ev)
}

func (a *Adapter) setConn(conn *websocket.Conn) {
	a.connMu.Lock()
	a.conn = conn
	a.connMu.Unlock()
}

func (a *Adapter) setState(s State) {
	a.mu.Lock()
	if a.state == s {
		a.mu.Unlock()
		return
	}
	a.state = s
	hooks := append([]func(State){}, a.onState...)
	a.mu.Unlock()
	for _, fn := range hooks {
		fn(s)
	}
}

func (a *Adapter) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-a.clock.After(d):
		return true
	}
}
