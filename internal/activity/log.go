// Package activity keeps bounded, timestamped event feeds.
package activity

import (
	"sync"
	"time"

	"tweetdash/internal/models"
)

// Log fans recorded entries out to its sinks.
type Log struct {
	now func() time.Time

	// recMu orders stamping and fan-out so every sink sees the same
	// sequence and timestamps never go backwards.
	recMu sync.Mutex
	last  time.Time

	mu       sync.RWMutex
	sinks    []*Sink
	byName   map[string]*Sink
	onChange []func(sink string)
}

// NewLog builds a log with the given sinks. A nil now uses time.Now.
func NewLog(now func() time.Time, specs ...SinkSpec) *Log {
	if now == nil {
		now = time.Now
	}
	l := &Log{now: now, byName: make(map[string]*Sink, len(specs))}
	for _, spec := range specs {
		sink := NewSink(spec)
		l.sinks = append(l.sinks, sink)
		l.byName[spec.Name] = sink
	}
	return l
}

// OnChange registers a callback receiving the name of each updated sink.
func (l *Log) OnChange(fn func(sink string)) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.onChange = append(l.onChange, fn)
	l.mu.Unlock()
}

// Record appends an entry to every non-explicit sink. It never fails.
func (l *Log) Record(actor, message string, severity models.Severity) models.ActivityEntry {
	l.mu.RLock()
	targets := make([]*Sink, 0, len(l.sinks))
	for _, sink := range l.sinks {
		if !sink.spec.Explicit {
			targets = append(targets, sink)
		}
	}
	l.mu.RUnlock()
	return l.fanOut(targets, actor, message, severity)
}

// RecordTo appends an entry to one named sink. Unknown sinks are ignored.
func (l *Log) RecordTo(sinkName, actor, message string, severity models.Severity) models.ActivityEntry {
	var targets []*Sink
	if sink := l.Sink(sinkName); sink != nil {
		targets = append(targets, sink)
	}
	return l.fanOut(targets, actor, message, severity)
}

func (l *Log) fanOut(targets []*Sink, actor, message string, severity models.Severity) models.ActivityEntry {
	l.recMu.Lock()
	at := l.now()
	if at.Before(l.last) {
		at = l.last
	}
	l.last = at
	entry := models.NewActivityEntry(at, actor, message, severity)
	for _, sink := range targets {
		sink.Add(entry)
	}
	l.recMu.Unlock()

	for _, sink := range targets {
		l.changed(sink.spec.Name)
	}
	return entry
}

// Sink returns the named sink or nil.
func (l *Log) Sink(name string) *Sink {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.byName[name]
}

// Entries returns the named sink's entries in display order.
func (l *Log) Entries(name string) []models.ActivityEntry {
	if sink := l.Sink(name); sink != nil {
		return sink.Entries()
	}
	return nil
}

// SinkNames lists sinks in registration order.
func (l *Log) SinkNames() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.sinks))
	for _, s := range l.sinks {
		names = append(names, s.spec.Name)
	}
	return names
}

func (l *Log) changed(name string) {
	l.mu.RLock()
	hooks := append([]func(string){}, l.onChange...)
	l.mu.RUnlock()
	for _, fn := range hooks {
		fn(name)
	}
}
