// Package stats holds the dashboard counters. The in-memory StatSnapshot is
// the only source of truth; views are projections of it.
package stats

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"tweetdash/internal/models"
)

// DefaultHighlight is how long a changed counter stays highlighted.
const DefaultHighlight = 2 * time.Second

// Change describes one counter whose displayed value moved.
type Change struct {
	Key models.StatKey
	Old float64
	New float64
}

// CounterView is the render-ready state of one counter.
type CounterView struct {
	Key       models.StatKey `json:"key"`
	Label     string         `json:"label"`
	Value     string         `json:"value"`
	Raw       float64        `json:"raw"`
	Highlight bool           `json:"highlight"`
	Growth    float64        `json:"growth"`
}

// Counters applies optimistic deltas and authoritative snapshots.
type Counters struct {
	now       func() time.Time
	highlight time.Duration

	mu             sync.RWMutex
	snap           models.StatSnapshot
	baselined      bool
	pendingDeltas  int
	derived        bool
	growth         map[models.StatKey]float64
	highlightUntil map[models.StatKey]time.Time
	onChange       []func([]Change)
}

// New builds zeroed counters. A nil now uses time.Now.
func New(now func() time.Time, highlight time.Duration) *Counters {
	if now == nil {
		now = time.Now
	}
	if highlight <= 0 {
		highlight = DefaultHighlight
	}
	return &Counters{
		now:            now,
		highlight:      highlight,
		derived:        true,
		growth:         make(map[models.StatKey]float64),
		highlightUntil: make(map[models.StatKey]time.Time),
	}
}

// OnChange registers a callback invoked with the counters that moved.
// Re-applying identical values never triggers it.
func (c *Counters) OnChange(fn func([]Change)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.onChange = append(c.onChange, fn)
	c.mu.Unlock()
}

// DeriveEngagement makes the engagement rate follow published/total when
// deltas move those counts. It is on until a service reports its own rate.
func (c *Counters) DeriveEngagement(on bool) {
	c.mu.Lock()
	c.derived = on
	c.mu.Unlock()
}

// ApplyDelta adjusts one stored counter. Drafts are derived and cannot be
// adjusted directly; change total or published instead. Counts never drop
// below zero and only move by whole numbers.
func (c *Counters) ApplyDelta(key models.StatKey, delta float64) []Change {
	if delta == 0 || key == models.StatDrafts || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return nil
	}
	if key != models.StatEngagement && delta != math.Trunc(delta) {
		return nil
	}
	c.mu.Lock()
	before := c.snap
	next := c.snap
	switch key {
	case models.StatTotal:
		next.Total = clampCount(next.Total + int(delta))
	case models.StatPublished:
		next.Published = clampCount(next.Published + int(delta))
	case models.StatImages:
		next.Images = clampCount(next.Images + int(delta))
	case models.StatUsers:
		next.Users = clampCount(next.Users + int(delta))
	case models.StatEngagement:
		next.EngagementRate = math.Max(0, next.EngagementRate+delta)
	default:
		c.mu.Unlock()
		return nil
	}
	if c.derived && (key == models.StatTotal || key == models.StatPublished) {
		next.EngagementRate = next.PublishedRate()
	}
	c.snap = next
	c.pendingDeltas++
	changes := c.diffLocked(before, next, true)
	c.mu.Unlock()
	c.notify(changes)
	return changes
}

// ApplySnapshot overwrites every counter with server values. It always wins
// over optimistic deltas applied before it.
func (c *Counters) ApplySnapshot(s models.StatSnapshot) []Change {
	return c.ApplySnapshotExcept(s)
}

// ApplySnapshotExcept is ApplySnapshot for a server payload that does not
// carry every counter: keys in keep retain their current values.
func (c *Counters) ApplySnapshotExcept(s models.StatSnapshot, keep ...models.StatKey) []Change {
	s.Total = clampCount(s.Total)
	s.Published = clampCount(s.Published)
	s.Images = clampCount(s.Images)
	s.Users = clampCount(s.Users)
	if s.EngagementRate < 0 || math.IsNaN(s.EngagementRate) || math.IsInf(s.EngagementRate, 0) {
		s.EngagementRate = 0
	}

	c.mu.Lock()
	before := c.snap
	for _, key := range keep {
		switch key {
		case models.StatTotal:
			s.Total = before.Total
		case models.StatPublished:
			s.Published = before.Published
		case models.StatImages:
			s.Images = before.Images
		case models.StatUsers:
			s.Users = before.Users
		case models.StatEngagement:
			s.EngagementRate = before.EngagementRate
		}
	}
	c.snap = s
	c.pendingDeltas = 0
	trackGrowth := c.baselined
	c.baselined = true
	changes := c.diffLocked(before, s, trackGrowth)
	c.mu.Unlock()
	c.notify(changes)
	return changes
}

// Snapshot returns the current values.
func (c *Counters) Snapshot() models.StatSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// PendingDeltas counts optimistic deltas applied since the last snapshot.
func (c *Counters) PendingDeltas() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pendingDeltas
}

// HighlightDuration is how long a changed counter stays flagged.
func (c *Counters) HighlightDuration() time.Duration { return c.highlight }

// Highlighted reports whether key changed within the highlight window.
func (c *Counters) Highlighted(key models.StatKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	until, ok := c.highlightUntil[key]
	return ok && c.now().Before(until)
}

// Growth returns the cumulative increase of key since the first snapshot.
func (c *Counters) Growth(key models.StatKey) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.growth[key]
}

// View renders every counter in display order.
func (c *Counters) View() []CounterView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	out := make([]CounterView, 0, len(models.StatKeys))
	for _, key := range models.StatKeys {
		raw := c.snap.Value(key)
		until, ok := c.highlightUntil[key]
		out = append(out, CounterView{
			Key:       key,
			Label:     key.Label(),
			Value:     formatValue(key, raw),
			Raw:       raw,
			Highlight: ok && now.Before(until),
			Growth:    c.growth[key],
		})
	}
	return out
}

func (c *Counters) diffLocked(before, after models.StatSnapshot, trackGrowth bool) []Change {
	var changes []Change
	until := c.now().Add(c.highlight)
	for _, key := range models.StatKeys {
		oldV, newV := before.Value(key), after.Value(key)
		if oldV == newV {
			continue
		}
		changes = append(changes, Change{Key: key, Old: oldV, New: newV})
		c.highlightUntil[key] = until
		if trackGrowth && newV > oldV {
			c.growth[key] += newV - oldV
		}
	}
	return changes
}

func (c *Counters) notify(changes []Change) {
	if len(changes) == 0 {
		return
	}
	c.mu.RLock()
	hooks := append([]func([]Change){}, c.onChange...)
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn(changes)
	}
}

func clampCount(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func formatValue(key models.StatKey, v float64) string {
	if key == models.StatEngagement {
		return fmt.Sprintf("%.1f%%", v)
	}
	return strconv.FormatInt(int64(v), 10)
}
