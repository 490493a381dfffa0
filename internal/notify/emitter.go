// Package notify shows transient, auto-dismissing notifications.
package notify

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tweetdash/internal/models"
	"tweetdash/internal/scheduler"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 5 * time.Second

// Emitter holds the currently visible notifications. Each one is removed by
// its own timer, so notifications stack without affecting each other.
type Emitter struct {
	sched *scheduler.Scheduler
	ttl   time.Duration

	mu       sync.RWMutex
	active   []models.Notification
	onChange []func()
}

// NewEmitter builds an emitter whose expiry timers run on sched.
func NewEmitter(sched *scheduler.Scheduler, ttl time.Duration) *Emitter {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Emitter{sched: sched, ttl: ttl}
}

// OnChange registers a callback invoked after any add or removal.
func (e *Emitter) OnChange(fn func()) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	e.onChange = append(e.onChange, fn)
	e.mu.Unlock()
}

// Notify shows message and schedules its removal. It never fails.
func (e *Emitter) Notify(message string, severity models.Severity) models.Notification {
	now := e.sched.Now()
	n := models.Notification{
		ID:        uuid.NewString(),
		Message:   strings.TrimSpace(message),
		Severity:  severity.Normalize(),
		CreatedAt: now,
		ExpiresAt: now.Add(e.ttl),
	}

	e.mu.Lock()
	e.active = append(e.active, n)
	e.mu.Unlock()

	e.sched.After(e.ttl, func() { e.dismiss(n.ID) })
	e.changed()
	return n
}

func (e *Emitter) Info(message string) models.Notification {
	return e.Notify(message, models.SeverityInfo)
}

func (e *Emitter) Success(message string) models.Notification {
	return e.Notify(message, models.SeveritySuccess)
}

func (e *Emitter) Warning(message string) models.Notification {
	return e.Notify(message, models.SeverityWarning)
}

func (e *Emitter) Error(message string) models.Notification {
	return e.Notify(message, models.SeverityError)
}

// Active returns visible notifications, oldest first. Entries past their
// expiry are dropped here even if their timer never fired.
func (e *Emitter) Active() []models.Notification {
	out, expired := e.prune()
	if expired {
		e.changed()
	}
	return out
}

// Resume drops expired notifications and schedules removal of the rest. The
// session calls it after starting its scheduler, so notifications raised
// while stopped still go away on time.
func (e *Emitter) Resume() {
	live, expired := e.prune()
	now := e.sched.Now()
	for _, n := range live {
		id := n.ID
		e.sched.After(n.ExpiresAt.Sub(now), func() { e.dismiss(id) })
	}
	if expired {
		e.changed()
	}
}

func (e *Emitter) prune() ([]models.Notification, bool) {
	now := e.sched.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	kept := e.active[:0]
	for _, n := range e.active {
		if n.ExpiresAt.After(now) {
			kept = append(kept, n)
		}
	}
	expired := len(kept) != len(e.active)
	e.active = kept
	out := make([]models.Notification, len(kept))
	copy(out, kept)
	return out, expired
}

// Clear drops every visible notification. Teardown calls it.
func (e *Emitter) Clear() {
	e.mu.Lock()
	had := len(e.active) > 0
	e.active = nil
	e.mu.Unlock()
	if had {
		e.changed()
	}
}

func (e *Emitter) dismiss(id string) {
	e.mu.Lock()
	removed := false
	for i, n := range e.active {
		if n.ID == id {
			e.active = append(e.active[:i], e.active[i+1:]...)
			removed = true
			break
		}
	}
	e.mu.Unlock()
	if removed {
		e.changed()
	}
}

func (e *Emitter) changed() {
	e.mu.RLock()
	hooks := append([]func(){}, e.onChange...)
	e.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
}
