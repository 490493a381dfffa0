package models

import (
	"strings"
	"time"
)

// ActorSystem is the actor recorded for events without a user behind them.
const ActorSystem = "system"

// ActivityEntry is a single immutable line in an activity feed.
type ActivityEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
}

// NewActivityEntry builds an entry with normalized actor and severity.
func NewActivityEntry(at time.Time, actor, message string, severity Severity) ActivityEntry {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = ActorSystem
	}
	return ActivityEntry{
		Timestamp: at,
		Actor:     actor,
		Message:   strings.TrimSpace(message),
		Severity:  severity.Normalize(),
	}
}

// Line formats the entry the way the feed widgets display it.
func (e ActivityEntry) Line() string {
	ts := e.Timestamp.Format("15:04:05")
	if e.Actor == "" || e.Actor == ActorSystem {
		return "[" + ts + "] " + e.Severity.Icon() + " " + e.Message
	}
	return "[" + ts + "] " + e.Actor + ": " + e.Message
}
