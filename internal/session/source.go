package session

import (
	"time"

	"tweetdash/internal/gateway"
	"tweetdash/internal/models"
	"tweetdash/internal/stats"
	"tweetdash/internal/views"
)

var _ views.Source = (*Dashboard)(nil)

func (d *Dashboard) Role() string  { return d.opts.Role }
func (d *Dashboard) Actor() string { return d.opts.Actor }

// ConnectionState is the push channel state, or "offline" without one.
func (d *Dashboard) ConnectionState() string {
	if d.adapter == nil {
		return "offline"
	}
	return d.adapter.State().String()
}

// LastEvent is when the push channel last delivered an event.
func (d *Dashboard) LastEvent() (time.Time, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastEvent, !d.lastEvent.IsZero()
}

// SystemStatus is the last status pushed by the server.
func (d *Dashboard) SystemStatus() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

func (d *Dashboard) Notifications() []models.Notification { return d.notes.Active() }

func (d *Dashboard) ActivityEntries(sink string) []models.ActivityEntry {
	return d.activity.Entries(sink)
}

func (d *Dashboard) HasSink(sink string) bool { return d.activity.Sink(sink) != nil }

func (d *Dashboard) SinkNames() []string { return d.activity.SinkNames() }

func (d *Dashboard) Counters() []stats.CounterView { return d.counters.View() }

// Stats returns the current counter values.
func (d *Dashboard) Stats() models.StatSnapshot { return d.counters.Snapshot() }

func (d *Dashboard) Content() []models.ContentItem { return d.gw.Cache().Items() }

// FilterContent returns the cached items matching query and kind.
func (d *Dashboard) FilterContent(query string, kind gateway.ContentFilter) []models.ContentItem {
	return d.gw.Cache().Filter(query, kind)
}

func (d *Dashboard) Controls() []gateway.ControlState { return d.gw.Controls() }

func (d *Dashboard) Health() models.SystemHealth {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.health
}

func (d *Dashboard) HostTelemetry() (models.HostTelemetry, bool) {
	if d.opts.Sampler == nil {
		return models.HostTelemetry{}, false
	}
	return d.opts.Sampler.Latest()
}
