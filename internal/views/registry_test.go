package views

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin"
)

type stubCard struct {
	id       string
	template string
	slot     Slot
	screens  []Screen
	data     gin.H
	err      error
}

func (c stubCard) ID() string        { return c.id }
func (c stubCard) Template() string  { return c.template }
func (c stubCard) Screens() []Screen { return c.screens }
func (c stubCard) Slot() Slot        { return c.slot }
func (c stubCard) FetchData(req *Request) (gin.H, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := gin.H{}
	for k, v := range c.data {
		out[k] = v
	}
	if req != nil && req.Payload != nil {
		for k, v := range req.Payload {
			out[k] = v
		}
	}
	return out, nil
}

func TestBuildFiltersByScreen(t *testing.T) {
	reg := NewRegistry()
	reg.Register(stubCard{id: "stats", template: "stats.html", slot: SlotPrimary, screens: []Screen{ScreenAdmin}, data: gin.H{"static": "ok"}})
	reg.Register(stubCard{id: "other", template: "other.html", slot: SlotPrimary, screens: []Screen{ScreenUser}})
	reg.Register(stubCard{id: "broken", template: "broken.html", slot: SlotFooter, screens: []Screen{ScreenAdmin}, err: errors.New("no data")})

	renderables := reg.Build(ScreenAdmin, &Request{Payload: gin.H{"payload": "value"}})
	if len(renderables) != 1 {
		t.Fatalf("expected 1 renderable, got %d", len(renderables))
	}
	got := renderables[0]
	if got.ID != "stats" || got.Template != "stats.html" {
		t.Fatalf("unexpected renderable %+v", got)
	}
	if got.Data["payload"] != "value" {
		t.Fatalf("expected payload data to pass through, got %v", got.Data["payload"])
	}
	if ids := reg.IDs(ScreenAdmin); len(ids) != 2 || ids[1] != "broken" {
		t.Fatalf("unexpected admin ids %v", ids)
	}
}

func TestBuildByID(t *testing.T) {
	reg := NewRegistry()
	reg.Register(stubCard{id: "alpha", template: "a.html", slot: SlotPrimary, screens: []Screen{ScreenUser}, data: gin.H{"alpha": 1}})
	reg.Register(stubCard{id: "beta", template: "b.html", slot: SlotSidebar, screens: []Screen{ScreenUser}, data: gin.H{"beta": 2}})

	renderable, ok := reg.BuildByID(ScreenUser, " beta ", &Request{Payload: gin.H{"shared": "yes"}})
	if !ok {
		t.Fatalf("expected card beta to be resolved")
	}
	if renderable.Slot != SlotSidebar || renderable.Data["beta"] != 2 || renderable.Data["shared"] != "yes" {
		t.Fatalf("unexpected renderable %+v", renderable)
	}
	if _, ok := reg.BuildByID(ScreenUser, "missing", nil); ok {
		t.Fatalf("expected missing card lookup to fail")
	}
	if _, ok := reg.BuildByID(ScreenAdmin, "beta", nil); ok {
		t.Fatalf("expected card to be scoped to its screens")
	}
}

func TestFetchDataRecoversPanics(t *testing.T) {
	card := panicCard{id: "boom"}
	if data, err := fetchData(card, &Request{}); err == nil {
		t.Fatalf("expected panic to surface as error")
	} else if data != nil {
		t.Fatalf("expected nil data after a panic, got %#v", data)
	}
	reg := NewRegistry()
	reg.Register(card)
	if got := reg.Build(ScreenAdmin, nil); len(got) != 0 {
		t.Fatalf("panicking card must be skipped, got %+v", got)
	}
}

func TestDefaultRegistryHasDashboardCards(t *testing.T) {
	admin := Default.IDs(ScreenAdmin)
	user := Default.IDs(ScreenUser)
	if len(admin) != 7 || len(user) != 6 {
		t.Fatalf("unexpected default cards admin=%v user=%v", admin, user)
	}
}

type panicCard struct {
	id string
}

func (p panicCard) ID() string                            { return p.id }
func (p panicCard) Template() string                      { return "panic.html" }
func (p panicCard) Screens() []Screen                     { return []Screen{ScreenAdmin} }
func (p panicCard) Slot() Slot                            { return SlotPrimary }
func (p panicCard) FetchData(req *Request) (gin.H, error) { panic("boom") }

func TestGroupRenderablesBySlot(t *testing.T) {
	grouped := GroupRenderablesBySlot([]Renderable{
		{ID: "a", Slot: SlotHeader},
		{ID: "b", Slot: SlotPrimary},
		{ID: "c", Slot: SlotHeader},
	})
	if len(grouped[SlotHeader]) != 2 || grouped[SlotHeader][1].ID != "c" {
		t.Fatalf("unexpected grouping %+v", grouped)
	}
	if GroupRenderablesBySlot(nil) != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestScreenForRole(t *testing.T) {
	if ScreenForRole(" Admin ") != ScreenAdmin {
		t.Fatalf("expected admin screen")
	}
	if ScreenForRole("anything") != ScreenUser {
		t.Fatalf("expected user screen fallback")
	}
}
