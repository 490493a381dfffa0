package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pushServer struct {
	*httptest.Server
	joins   atomic.Int32
	conns   atomic.Int32
	mu      sync.Mutex
	onJoin  func(conn *websocket.Conn, n int32)
	lastMsg Envelope
}

func newPushServer(t *testing.T, onJoin func(conn *websocket.Conn, n int32)) *pushServer {
	t.Helper()
	ps := &pushServer{onJoin: onJoin}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		ps.conns.Add(1)

		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return
		}
		ps.mu.Lock()
		ps.lastMsg = env
		ps.mu.Unlock()
		n := ps.joins.Add(1)
		if ps.onJoin != nil {
			ps.onJoin(conn, n)
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ps.Close)
	return ps
}

func (ps *pushServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ps.URL, "http")
}

func send(conn *websocket.Conn, event string, data interface{}) {
	raw, _ := json.Marshal(data)
	_ = conn.WriteJSON(Envelope{Event: event, Data: raw})
}

func startAdapter(t *testing.T, a *Adapter) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	var once sync.Once
	cancel = func() {
		once.Do(func() {
			stop()
			select {
			case err := <-done:
				assert.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Error("adapter did not stop")
			}
		})
	}
	t.Cleanup(cancel)
	return cancel
}

func TestJoinThenRouteByName(t *testing.T) {
	ps := newPushServer(t, func(conn *websocket.Conn, _ int32) {
		send(conn, EventContentUpdate, ContentUpdate{Action: ActionContentPublished, Username: "alice", ContentID: "42"})
		_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		send(conn, "mystery", map[string]string{"x": "y"})
		send(conn, EventUserUpdate, UserUpdate{Action: ActionNewUser, Username: "bob", UserID: "7"})
	})

	a := New(Options{URL: ps.wsURL(), JoinEvent: JoinAdmin, JoinPayload: map[string]string{"username": "admin"}})
	events := make(chan Event, 16)
	a.On(EventConnect, func(ev Event) { events <- ev })
	a.On(EventContentUpdate, func(ev Event) { events <- ev })
	a.On(EventUserUpdate, func(ev Event) { events <- ev })
	startAdapter(t, a)

	var got []Event
	for len(got) < 3 {
		select {
		case ev := <-events:
			got = append(got, ev)
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out, got %d events", len(got))
		}
	}
	require.Equal(t, EventConnect, got[0].Type)
	require.Equal(t, EventContentUpdate, got[1].Type)
	require.Equal(t, EventUserUpdate, got[2].Type)

	var cu ContentUpdate
	require.NoError(t, got[1].Decode(&cu))
	id, ok := cu.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.False(t, got[1].ReceivedAt.IsZero())

	ps.mu.Lock()
	join := ps.lastMsg
	ps.mu.Unlock()
	assert.Equal(t, JoinAdmin, join.Event)
	assert.JSONEq(t, `{"username":"admin"}`, string(join.Data))
	assert.Equal(t, Connected, a.State())
}

func TestReconnectRejoinsAfterDrop(t *testing.T) {
	ps := newPushServer(t, func(conn *websocket.Conn, n int32) {
		if n == 1 {
			conn.Close()
		}
	})

	a := New(Options{URL: ps.wsURL(), JoinEvent: JoinUser, InitialBackoff: 10 * time.Millisecond, MaxBackoff: 50 * time.Millisecond})
	var mu sync.Mutex
	var states []State
	a.OnState(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})
	var disconnects atomic.Int32
	a.On(EventDisconnect, func(Event) { disconnects.Add(1) })
	startAdapter(t, a)

	require.Eventually(t, func() bool { return ps.joins.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return a.State() == Connected }, 5*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, disconnects.Load(), int32(1))

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(states), 5)
	assert.Equal(t, []State{Connecting, Connected, Disconnected, Connecting, Connected}, states[:5])
}

func TestRunReturnsOnCancel(t *testing.T) {
	ps := newPushServer(t, nil)
	a := New(Options{URL: ps.wsURL(), JoinEvent: JoinUser})
	cancel := startAdapter(t, a)
	require.Eventually(t, func() bool { return a.State() == Connected }, 3*time.Second, 10*time.Millisecond)

	cancel()
	assert.Equal(t, Disconnected, a.State())
	assert.Error(t, a.Emit("ping", nil))
}

func TestRunRetriesUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	a := New(Options{URL: url, InitialBackoff: 5 * time.Millisecond, MaxBackoff: 10 * time.Millisecond})
	var connecting atomic.Int32
	a.OnState(func(s State) {
		if s == Connecting {
			connecting.Add(1)
		}
	})
	startAdapter(t, a)
	require.Eventually(t, func() bool { return connecting.Load() >= 3 }, 3*time.Second, 5*time.Millisecond)
}

func TestPanickingHandlerDoesNotStopRouting(t *testing.T) {
	a := New(Options{URL: "ws://unused"})
	var seen atomic.Int32
	a.On("x", func(Event) { panic("boom") })
	a.OnAny(func(Event) { seen.Add(1) })
	a.dispatch(Event{Type: "x"})
	a.dispatch(Event{Type: "y"})
	assert.Equal(t, int32(2), seen.Load())
}
