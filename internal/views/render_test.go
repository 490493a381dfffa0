package views

import (
	"strings"
	"testing"
	"time"

	"tweetdash/internal/activity"
	"tweetdash/internal/gateway"
	"tweetdash/internal/models"
	"tweetdash/internal/stats"
)

type stubSource struct {
	role     string
	sinks    map[string][]models.ActivityEntry
	content  []models.ContentItem
	controls []gateway.ControlState
	notes    []models.Notification
	counters []stats.CounterView
	health   models.SystemHealth
}

func (s stubSource) Role() string                         { return s.role }
func (s stubSource) Actor() string                        { return "tester" }
func (s stubSource) ConnectionState() string              { return "connected" }
func (s stubSource) Notifications() []models.Notification { return s.notes }
func (s stubSource) ActivityEntries(sink string) []models.ActivityEntry {
	return s.sinks[sink]
}
func (s stubSource) HasSink(sink string) bool {
	_, ok := s.sinks[sink]
	return ok
}
func (s stubSource) Counters() []stats.CounterView    { return s.counters }
func (s stubSource) Content() []models.ContentItem    { return s.content }
func (s stubSource) FilterContent(query string, kind gateway.ContentFilter) []models.ContentItem {
	c := gateway.NewCache()
	c.Replace(s.content)
	return c.Filter(query, kind)
}
func (s stubSource) Controls() []gateway.ControlState { return s.controls }
func (s stubSource) Health() models.SystemHealth      { return s.health }
func (s stubSource) HostTelemetry() (models.HostTelemetry, bool) {
	return models.HostTelemetry{CPUPercent: 12.5, HealthPercent: 90}, true
}

func newStubSource() stubSource {
	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	return stubSource{
		role: "admin",
		sinks: map[string][]models.ActivityEntry{
			activity.SinkAdminRealtime: {models.NewActivityEntry(at, "", "Connected to server", models.SeveritySuccess)},
			activity.SinkAdminActivity: nil,
		},
		content: []models.ContentItem{
			{ID: 42, Prompt: "AI in healthcare", Body: "Hello **world** <script>alert(1)</script>", ImageURL: "https://cdn.example.com/img.png"},
			{ID: 7, Prompt: "older", Body: "plain", IsPublished: true},
		},
		controls: []gateway.ControlState{{Key: gateway.ContentControl(42), Pending: "Publishing..."}},
		notes:    []models.Notification{{ID: "n1", Message: "Tweet published successfully!", Severity: models.SeveritySuccess}},
		counters: []stats.CounterView{{Key: models.StatTotal, Label: "Total", Value: "2", Highlight: true}},
		health:   models.SystemHealth{AI: &models.AIHealth{Latency: "120ms"}},
	}
}

func TestMarkdownIsSanitized(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	out := string(r.Markdown("Hello **world** <script>alert(1)</script> https://example.com"))
	if !strings.Contains(out, "<strong>world</strong>") {
		t.Fatalf("expected markdown emphasis, got %q", out)
	}
	if strings.Contains(out, "<script>") {
		t.Fatalf("script tag survived sanitizing: %q", out)
	}
	if !strings.Contains(out, `href="https://example.com"`) {
		t.Fatalf("expected linkified url, got %q", out)
	}
}

func TestRenderContentCardShowsPendingControl(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	html, ok, err := r.RenderByID(ScreenAdmin, CardContent, &Request{Source: newStubSource()})
	if err != nil || !ok {
		t.Fatalf("render content: ok=%v err=%v", ok, err)
	}
	out := string(html)
	if !strings.Contains(out, "Publishing...") {
		t.Fatalf("expected pending label for locked item, got %q", out)
	}
	if !strings.Contains(out, `src="https://cdn.example.com/img.png"`) {
		t.Fatalf("expected image for item 42")
	}
	if strings.Contains(out, "<script>alert") {
		t.Fatalf("unsanitized body rendered")
	}
	if strings.Count(out, `data-action="publish"`) != 0 {
		t.Fatalf("published item and locked item must not offer publish: %q", out)
	}
}

func TestRenderContentCardAppliesFilter(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	tests := []struct {
		name    string
		payload map[string]interface{}
		want    []string
		missing []string
	}{
		{"search", map[string]interface{}{"q": "HEALTHCARE"}, []string{`data-content-id="42"`}, []string{`data-content-id="7"`}},
		{"published", map[string]interface{}{"type": "published"}, []string{`data-content-id="7"`}, []string{`data-content-id="42"`}},
		{"unknown type shows all", map[string]interface{}{"type": "archived"}, []string{`data-content-id="42"`, `data-content-id="7"`}, nil},
		{"nothing matches", map[string]interface{}{"q": "zzz"}, []string{"No content matches"}, []string{"data-content-id"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, ok, err := r.RenderByID(ScreenAdmin, CardContent, &Request{Source: newStubSource(), Payload: tt.payload})
			if err != nil || !ok {
				t.Fatalf("render content: ok=%v err=%v", ok, err)
			}
			out := string(html)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Fatalf("expected %q in %q", w, out)
				}
			}
			for _, m := range tt.missing {
				if strings.Contains(out, m) {
					t.Fatalf("did not expect %q in %q", m, out)
				}
			}
		})
	}
}

func TestRenderPagePlacesCardsBySlot(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	page, err := r.RenderPage(ScreenAdmin, &Request{Source: newStubSource()})
	if err != nil {
		t.Fatalf("render page: %v", err)
	}
	out := string(page)
	for _, id := range []string{CardNotifications, CardStats, CardContent, CardRealtimeFeed, CardHealth, CardActivityLog} {
		if !strings.Contains(out, `id="card-`+id+`"`) {
			t.Fatalf("expected card %s on admin page", id)
		}
	}
	if strings.Contains(out, `id="card-`+CardUserFeed+`"`) {
		t.Fatalf("user feed must not appear on admin page")
	}
	if !strings.Contains(out, "[08:00:00] ✅ Connected to server") {
		t.Fatalf("expected feed line in page")
	}
	if !strings.Contains(out, "120ms") {
		t.Fatalf("expected health section")
	}
}

func TestFeedCardHiddenWithoutSink(t *testing.T) {
	src := newStubSource()
	if _, ok := BuildRenderableByID(ScreenUser, CardUserFeed, &Request{Source: src}); ok {
		t.Fatalf("expected user feed hidden when session has no such sink")
	}
}
