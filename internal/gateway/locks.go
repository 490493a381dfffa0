package gateway

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// Control keys. Publish and delete of the same content share one key so the
// two can never be in flight together for that id.
const (
	ControlGenerate = "generate"
	ControlRefresh  = "refresh"
)

// ContentControl returns the control key for a content id.
func ContentControl(id int64) string {
	return "content:" + strconv.FormatInt(id, 10)
}

// ControlState describes a locked control.
type ControlState struct {
	Key     string    `json:"key"`
	Pending string    `json:"pending"`
	Since   time.Time `json:"since"`
}

// Locks is the set of controls with a mutation in flight.
type Locks struct {
	mu       sync.Mutex
	now      func() time.Time
	held     map[string]ControlState
	onChange []func(ControlState, bool)
}

func NewLocks(now func() time.Time) *Locks {
	if now == nil {
		now = time.Now
	}
	return &Locks{now: now, held: make(map[string]ControlState)}
}

// OnChange registers fn for lock and unlock transitions.
func (l *Locks) OnChange(fn func(state ControlState, locked bool)) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.onChange = append(l.onChange, fn)
	l.mu.Unlock()
}

// Acquire locks key with a pending label. It returns false when key is
// already held.
func (l *Locks) Acquire(key, pending string) bool {
	l.mu.Lock()
	if _, busy := l.held[key]; busy {
		l.mu.Unlock()
		return false
	}
	st := ControlState{Key: key, Pending: pending, Since: l.now()}
	l.held[key] = st
	hooks := append([]func(ControlState, bool){}, l.onChange...)
	l.mu.Unlock()
	for _, fn := range hooks {
		fn(st, true)
	}
	return true
}

// Release unlocks key. Releasing a free key does nothing.
func (l *Locks) Release(key string) {
	l.mu.Lock()
	st, ok := l.held[key]
	if ok {
		delete(l.held, key)
	}
	hooks := append([]func(ControlState, bool){}, l.onChange...)
	l.mu.Unlock()
	if !ok {
		return
	}
	for _, fn := range hooks {
		fn(st, false)
	}
}

func (l *Locks) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

// Snapshot lists held controls ordered by key.
func (l *Locks) Snapshot() []ControlState {
	l.mu.Lock()
	out := make([]ControlState, 0, len(l.held))
	for _, st := range l.held {
		out = append(out, st)
	}
	l.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
