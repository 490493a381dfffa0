package views

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"tweetdash/internal/utils"
)

// Screen identifies a dashboard surface that hosts cards.
type Screen string

const (
	ScreenAdmin Screen = "admin"
	ScreenUser  Screen = "user"
)

// ScreenForRole maps a session role to its screen.
func ScreenForRole(role string) Screen {
	if strings.EqualFold(strings.TrimSpace(role), string(ScreenAdmin)) {
		return ScreenAdmin
	}
	return ScreenUser
}

// Slot identifies a layout region on the page.
type Slot string

const (
	SlotHeader  Slot = "header"
	SlotPrimary Slot = "primary"
	SlotSidebar Slot = "sidebar"
	SlotFooter  Slot = "footer"
)

// Slots lists layout regions in page order.
var Slots = []Slot{SlotHeader, SlotPrimary, SlotSidebar, SlotFooter}

// Request provides contextual data when rendering a card.
type Request struct {
	Context *gin.Context
	Source  Source
	Payload gin.H
	Logger  *utils.Logger
}

// Card describes a renderable dashboard component.
type Card interface {
	ID() string
	Template() string
	Screens() []Screen
	Slot() Slot
	FetchData(*Request) (gin.H, error)
}

// Gate is implemented by cards that are only shown for some requests.
type Gate interface {
	Enabled(*Request) bool
}

// Renderable is the hydrated card data sent to templates.
type Renderable struct {
	ID       string
	Template string
	Data     gin.H
	Slot     Slot
}

// Registry holds the cards of every screen in registration order.
type Registry struct {
	mu      sync.RWMutex
	screens map[Screen][]Card
}

func NewRegistry() *Registry {
	return &Registry{screens: make(map[Screen][]Card)}
}

// Default is the registry the dashboard cards are registered into.
var Default = NewRegistry()

// Register adds a card to Default.
func Register(card Card) { Default.Register(card) }

// BuildRenderables hydrates the Default cards of screen.
func BuildRenderables(screen Screen, req *Request) []Renderable {
	return Default.Build(screen, req)
}

// BuildRenderableByID hydrates one Default card of screen.
func BuildRenderableByID(screen Screen, cardID string, req *Request) (Renderable, bool) {
	return Default.BuildByID(screen, cardID, req)
}

// Register attaches card to each screen it declares.
func (r *Registry) Register(card Card) {
	if card == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, screen := range card.Screens() {
		if screen != "" {
			r.screens[screen] = append(r.screens[screen], card)
		}
	}
}

func (r *Registry) cards(screen Screen) []Card {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Card(nil), r.screens[screen]...)
}

// IDs lists the card ids of screen.
func (r *Registry) IDs(screen Screen) []string {
	cards := r.cards(screen)
	ids := make([]string, 0, len(cards))
	for _, card := range cards {
		ids = append(ids, card.ID())
	}
	return ids
}

// Build hydrates every enabled card of screen. Cards whose data cannot be
// fetched are skipped.
func (r *Registry) Build(screen Screen, req *Request) []Renderable {
	var out []Renderable
	for _, card := range r.cards(screen) {
		if rendered, ok := hydrate(card, req); ok {
			out = append(out, rendered)
		}
	}
	return out
}

// BuildByID hydrates the card of screen named cardID.
func (r *Registry) BuildByID(screen Screen, cardID string, req *Request) (Renderable, bool) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return Renderable{}, false
	}
	for _, card := range r.cards(screen) {
		if card != nil && card.ID() == cardID {
			return hydrate(card, req)
		}
	}
	return Renderable{}, false
}

// GroupRenderablesBySlot buckets renderables by slot, keeping their order.
func GroupRenderablesBySlot(renderables []Renderable) map[Slot][]Renderable {
	if len(renderables) == 0 {
		return nil
	}
	grouped := make(map[Slot][]Renderable, len(Slots))
	for _, rendered := range renderables {
		grouped[rendered.Slot] = append(grouped[rendered.Slot], rendered)
	}
	return grouped
}

func hydrate(card Card, req *Request) (Renderable, bool) {
	if gate, ok := card.(Gate); ok && !gate.Enabled(req) {
		return Renderable{}, false
	}
	data, err := fetchData(card, req)
	if err != nil {
		req.logger().Warnf("views: card %s skipped: %v", cardName(card), err)
		return Renderable{}, false
	}
	return Renderable{ID: card.ID(), Template: card.Template(), Data: data, Slot: card.Slot()}, true
}

func (r *Request) logger() *utils.Logger {
	if r == nil {
		return nil
	}
	return r.Logger
}

// fetchData calls FetchData and turns a panic into an error.
func fetchData(card Card, req *Request) (data gin.H, err error) {
	if card == nil {
		return nil, fmt.Errorf("nil card")
	}
	defer func() {
		if rec := recover(); rec != nil {
			req.logger().Errorf("views: %s.FetchData panicked: %v", cardName(card), rec)
			data, err = nil, fmt.Errorf("panic: %v", rec)
		}
	}()
	if data, err = card.FetchData(req); err != nil {
		return nil, err
	}
	if data == nil {
		data = gin.H{}
	}
	return data, nil
}

func cardName(card Card) string {
	if card == nil {
		return "<nil>"
	}
	if id := strings.TrimSpace(card.ID()); id != "" {
		return id
	}
	return "<unnamed>"
}
