package activity

import (
	"sync"

	"tweetdash/internal/models"
)

// Insertion selects which end of a sink new entries are added to.
type Insertion int

const (
	// InsertHead keeps the newest entry first; overflow drops from the tail.
	InsertHead Insertion = iota
	// InsertTail keeps entries chronological; overflow drops from the head.
	InsertTail
)

// SinkSpec describes a named feed.
type SinkSpec struct {
	Name      string
	Capacity  int
	Insertion Insertion
	// Explicit sinks only receive entries addressed to them by name.
	Explicit bool
}

const (
	SinkAdminRealtime = "admin-realtime"
	SinkAdminActivity = "admin-activity"
	SinkUserFeed      = "user-feed"
	SinkUserRecent    = "user-recent"
)

// AdminSinks are the feeds of an admin session.
var AdminSinks = []SinkSpec{
	{Name: SinkAdminRealtime, Capacity: 20, Insertion: InsertHead},
	{Name: SinkAdminActivity, Capacity: 50, Insertion: InsertTail},
}

// UserSinks are the feeds of a user session.
var UserSinks = []SinkSpec{
	{Name: SinkUserFeed, Capacity: 15, Insertion: InsertHead},
	{Name: SinkUserRecent, Capacity: 3, Insertion: InsertHead, Explicit: true},
}

// Sink is a bounded, ordered feed. Entries are stored in display order.
type Sink struct {
	spec    SinkSpec
	mu      sync.RWMutex
	entries []models.ActivityEntry
}

// NewSink builds an empty sink. Capacities below one are raised to one.
func NewSink(spec SinkSpec) *Sink {
	if spec.Capacity < 1 {
		spec.Capacity = 1
	}
	return &Sink{spec: spec, entries: make([]models.ActivityEntry, 0, spec.Capacity)}
}

// Spec returns the sink's configuration.
func (s *Sink) Spec() SinkSpec { return s.spec }

// Add inserts entry and evicts from the opposite end when over capacity.
// It returns the evicted entry, if any.
func (s *Sink) Add(entry models.ActivityEntry) (evicted *models.ActivityEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.spec.Insertion {
	case InsertTail:
		s.entries = append(s.entries, entry)
		if len(s.entries) > s.spec.Capacity {
			dropped := s.entries[0]
			evicted = &dropped
			s.entries = append(s.entries[:0], s.entries[1:]...)
		}
	default:
		s.entries = append(s.entries, models.ActivityEntry{})
		copy(s.entries[1:], s.entries[:len(s.entries)-1])
		s.entries[0] = entry
		if len(s.entries) > s.spec.Capacity {
			dropped := s.entries[len(s.entries)-1]
			evicted = &dropped
			s.entries = s.entries[:len(s.entries)-1]
		}
	}
	return evicted
}

// Entries returns a copy in display order.
func (s *Sink) Entries() []models.ActivityEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ActivityEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of stored entries.
func (s *Sink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
