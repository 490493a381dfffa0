package views

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"tweetdash/internal/activity"
	"tweetdash/internal/gateway"
	"tweetdash/internal/models"
)

// Card ids.
const (
	CardNotifications  = "notifications"
	CardConnection     = "connection"
	CardStats          = "stats"
	CardContent        = "content"
	CardRealtimeFeed   = "realtime-feed"
	CardActivityLog    = "activity-log"
	CardUserFeed       = "user-feed"
	CardRecentActivity = "recent-activity"
	CardHealth         = "health"
)

var errNoSource = errors.New("no session attached to request")

type baseCard struct {
	id       string
	template string
	slot     Slot
	screens  []Screen
}

func (c baseCard) ID() string        { return c.id }
func (c baseCard) Template() string  { return c.template }
func (c baseCard) Screens() []Screen { return c.screens }
func (c baseCard) Slot() Slot        { return c.slot }

func source(req *Request) (Source, error) {
	if req == nil || req.Source == nil {
		return nil, errNoSource
	}
	return req.Source, nil
}

type notificationsCard struct{ baseCard }

func (c notificationsCard) FetchData(req *Request) (gin.H, error) {
	src, err := source(req)
	if err != nil {
		return nil, err
	}
	return gin.H{"notifications": src.Notifications()}, nil
}

type connectionCard struct{ baseCard }

func (c connectionCard) FetchData(req *Request) (gin.H, error) {
	src, err := source(req)
	if err != nil {
		return nil, err
	}
	return gin.H{
		"state":    src.ConnectionState(),
		"role":     src.Role(),
		"actor":    src.Actor(),
		"controls": src.Controls(),
	}, nil
}

type statsCard struct{ baseCard }

func (c statsCard) FetchData(req *Request) (gin.H, error) {
	src, err := source(req)
	if err != nil {
		return nil, err
	}
	return gin.H{"counters": src.Counters()}, nil
}

// contentRow is one item of the content list plus its control state.
type contentRow struct {
	Item    models.ContentItem
	Pending string
}

type contentCard struct{ baseCard }

func (c contentCard) FetchData(req *Request) (gin.H, error) {
	src, err := source(req)
	if err != nil {
		return nil, err
	}
	pending := make(map[string]string)
	generating := ""
	for _, ctl := range src.Controls() {
		pending[ctl.Key] = ctl.Pending
		if ctl.Key == gateway.ControlGenerate {
			generating = ctl.Pending
		}
	}
	query, kind := contentQuery(req)
	items := src.FilterContent(query, kind)
	rows := make([]contentRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, contentRow{Item: it, Pending: pending[gateway.ContentControl(it.ID)]})
	}
	return gin.H{
		"rows":       rows,
		"generating": generating,
		"query":      query,
		"filter":     string(kind),
		"filtered":   query != "" || kind != gateway.FilterAll,
	}, nil
}

// contentQuery reads the search text and type filter from the request query
// string, or from the payload when rendering outside a request. Unknown
// filters show everything.
func contentQuery(req *Request) (string, gateway.ContentFilter) {
	if req == nil {
		return "", gateway.FilterAll
	}
	var query, raw string
	if req.Context != nil {
		query, raw = req.Context.Query("q"), req.Context.Query("type")
	} else if req.Payload != nil {
		query, _ = req.Payload["q"].(string)
		raw, _ = req.Payload["type"].(string)
	}
	kind, _ := gateway.ParseContentFilter(raw)
	return strings.TrimSpace(query), kind
}

// feedCard shows one activity sink.
type feedCard struct {
	baseCard
	sink  string
	title string
}

func (c feedCard) Enabled(req *Request) bool {
	return req != nil && req.Source != nil && req.Source.HasSink(c.sink)
}

func (c feedCard) FetchData(req *Request) (gin.H, error) {
	src, err := source(req)
	if err != nil {
		return nil, err
	}
	return gin.H{"title": c.title, "sink": c.sink, "entries": src.ActivityEntries(c.sink)}, nil
}

type healthCard struct{ baseCard }

func (c healthCard) FetchData(req *Request) (gin.H, error) {
	src, err := source(req)
	if err != nil {
		return nil, err
	}
	host, ok := src.HostTelemetry()
	return gin.H{"health": src.Health(), "host": host, "hasHost": ok}, nil
}

// RegisterDefaults registers the dashboard's cards. It is safe to call once
// per process; init does so.
func RegisterDefaults() {
	both := []Screen{ScreenAdmin, ScreenUser}
	Register(notificationsCard{baseCard{CardNotifications, "notifications.html", SlotHeader, both}})
	Register(connectionCard{baseCard{CardConnection, "connection.html", SlotHeader, both}})
	Register(statsCard{baseCard{CardStats, "stats.html", SlotPrimary, both}})
	Register(contentCard{baseCard{CardContent, "content.html", SlotPrimary, both}})
	Register(feedCard{baseCard{CardRealtimeFeed, "feed.html", SlotSidebar, []Screen{ScreenAdmin}}, activity.SinkAdminRealtime, "Real-time Activity"})
	Register(healthCard{baseCard{CardHealth, "health.html", SlotSidebar, []Screen{ScreenAdmin}}})
	Register(feedCard{baseCard{CardActivityLog, "feed.html", SlotFooter, []Screen{ScreenAdmin}}, activity.SinkAdminActivity, "Activity Log"})
	Register(feedCard{baseCard{CardUserFeed, "feed.html", SlotSidebar, []Screen{ScreenUser}}, activity.SinkUserFeed, "Live Feed"})
	Register(feedCard{baseCard{CardRecentActivity, "feed.html", SlotSidebar, []Screen{ScreenUser}}, activity.SinkUserRecent, "Recent Activity"})
}

func init() {
	RegisterDefaults()
}

// CardsForSink returns the card ids that display sink.
func CardsForSink(sink string) []string {
	switch sink {
	case activity.SinkAdminRealtime:
		return []string{CardRealtimeFeed}
	case activity.SinkAdminActivity:
		return []string{CardActivityLog}
	case activity.SinkUserFeed:
		return []string{CardUserFeed}
	case activity.SinkUserRecent:
		return []string{CardRecentActivity}
	}
	return nil
}
