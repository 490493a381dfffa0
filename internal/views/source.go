package views

import (
	"tweetdash/internal/gateway"
	"tweetdash/internal/models"
	"tweetdash/internal/stats"
)

// Source is the session state cards read from. Rendering never writes back.
type Source interface {
	Role() string
	Actor() string
	ConnectionState() string
	Notifications() []models.Notification
	ActivityEntries(sink string) []models.ActivityEntry
	HasSink(sink string) bool
	Counters() []stats.CounterView
	Content() []models.ContentItem
	FilterContent(query string, kind gateway.ContentFilter) []models.ContentItem
	Controls() []gateway.ControlState
	Health() models.SystemHealth
	HostTelemetry() (models.HostTelemetry, bool)
}
