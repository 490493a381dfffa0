package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"tweetdash/internal/models"
)

//go:embed templates/*.html
var assets embed.FS

const pageTemplate = "dashboard.html"

// Renderer executes card and page templates. Tweet bodies go through
// markdown and then an HTML sanitizer before they reach a template.
type Renderer struct {
	tmpl   *template.Template
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: bluemonday.UGCPolicy(),
	}
	r.policy.RequireNoFollowOnLinks(true)
	r.policy.AddTargetBlankToFullyQualifiedLinks(true)

	t := template.New("").Funcs(template.FuncMap{
		"markdown":      r.Markdown,
		"clock":         func(t time.Time) string { return t.Format("15:04:05") },
		"stamp":         func(t time.Time) string { return t.Format(time.DateTime) },
		"severityIcon":  func(s models.Severity) string { return s.Icon() },
		"severityColor": func(s models.Severity) string { return s.Color() },
		"percent":       func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	})
	err := fs.WalkDir(assets, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		content, readErr := fs.ReadFile(assets, path)
		if readErr != nil {
			return fmt.Errorf("read template %s: %w", path, readErr)
		}
		if _, parseErr := t.New(filepath.Base(path)).Parse(string(content)); parseErr != nil {
			return fmt.Errorf("parse template %s: %w", path, parseErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.tmpl = t
	return r, nil
}

// Markdown converts a tweet body to sanitized HTML.
func (r *Renderer) Markdown(body string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(body))
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes()))
}

// RenderCard executes the template of one renderable.
func (r *Renderer) RenderCard(card Renderable) (template.HTML, error) {
	var buf bytes.Buffer
	data := cardData(card)
	if err := r.tmpl.ExecuteTemplate(&buf, card.Template, data); err != nil {
		return "", fmt.Errorf("render card %s: %w", card.ID, err)
	}
	return template.HTML(buf.String()), nil
}

func cardData(card Renderable) map[string]interface{} {
	out := make(map[string]interface{}, len(card.Data)+1)
	for k, v := range card.Data {
		out[k] = v
	}
	out["cardID"] = card.ID
	return out
}

// RenderedCard is a card fragment ready for a page slot.
type RenderedCard struct {
	ID   string
	HTML template.HTML
}

// RenderPage renders every card of screen and places them in their slots.
func (r *Renderer) RenderPage(screen Screen, req *Request) (template.HTML, error) {
	grouped := GroupRenderablesBySlot(BuildRenderables(screen, req))
	slots := make(map[string][]RenderedCard, len(Slots))
	for _, slot := range Slots {
		for _, card := range grouped[slot] {
			fragment, err := r.RenderCard(card)
			if err != nil {
				return "", err
			}
			slots[string(slot)] = append(slots[string(slot)], RenderedCard{ID: card.ID, HTML: fragment})
		}
	}
	title := "Dashboard"
	if screen == ScreenAdmin {
		title = "Admin Dashboard"
	}
	var buf bytes.Buffer
	err := r.tmpl.ExecuteTemplate(&buf, pageTemplate, map[string]interface{}{
		"Title":  title,
		"Screen": string(screen),
		"Slots":  slots,
	})
	if err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// RenderByID renders a single card for screen.
func (r *Renderer) RenderByID(screen Screen, cardID string, req *Request) (template.HTML, bool, error) {
	card, ok := BuildRenderableByID(screen, cardID, req)
	if !ok {
		return "", false, nil
	}
	fragment, err := r.RenderCard(card)
	return fragment, true, err
}
