package gateway

import (
	"strings"
	"sync"

	"tweetdash/internal/models"
)

// Cache is the session's local copy of the content list, newest first.
type Cache struct {
	mu       sync.RWMutex
	items    []models.ContentItem
	onChange []func()
}

func NewCache() *Cache {
	return &Cache{}
}

// OnChange registers fn to run after every mutation of the cache.
func (c *Cache) OnChange(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.onChange = append(c.onChange, fn)
	c.mu.Unlock()
}

// Replace swaps in an authoritative list.
func (c *Cache) Replace(items []models.ContentItem) {
	c.mu.Lock()
	c.items = append([]models.ContentItem(nil), items...)
	c.mu.Unlock()
	c.changed()
}

// Put inserts item at the head, replacing any entry with the same id.
func (c *Cache) Put(item models.ContentItem) {
	c.mu.Lock()
	next := make([]models.ContentItem, 0, len(c.items)+1)
	next = append(next, item)
	for _, it := range c.items {
		if it.ID != item.ID {
			next = append(next, it)
		}
	}
	c.items = next
	c.mu.Unlock()
	c.changed()
}

// MarkPublished flips isPublished for id. It reports whether the item was
// known and whether it changed from draft to published; published items
// never go back to draft.
func (c *Cache) MarkPublished(id int64) (known, flipped bool) {
	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID != id {
			continue
		}
		known = true
		if !c.items[i].IsPublished {
			c.items[i].IsPublished = true
			flipped = true
		}
		break
	}
	c.mu.Unlock()
	if flipped {
		c.changed()
	}
	return known, flipped
}

// Remove drops id and returns the removed item.
func (c *Cache) Remove(id int64) (models.ContentItem, bool) {
	c.mu.Lock()
	for i, it := range c.items {
		if it.ID == id {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			c.mu.Unlock()
			c.changed()
			return it, true
		}
	}
	c.mu.Unlock()
	return models.ContentItem{}, false
}

func (c *Cache) Get(id int64) (models.ContentItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if it.ID == id {
			return it, true
		}
	}
	return models.ContentItem{}, false
}

// Items returns a copy in display order.
func (c *Cache) Items() []models.ContentItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.ContentItem(nil), c.items...)
}

// ContentFilter narrows the content list by status or image.
type ContentFilter string

const (
	FilterAll        ContentFilter = "all"
	FilterPublished  ContentFilter = "published"
	FilterDraft      ContentFilter = "draft"
	FilterWithImages ContentFilter = "with-images"
	// FilterFlagged has no flag source yet and matches everything.
	FilterFlagged ContentFilter = "flagged"
)

// ParseContentFilter maps a request value onto a filter. Empty means all.
func ParseContentFilter(raw string) (ContentFilter, bool) {
	switch f := ContentFilter(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FilterAll, true
	case FilterAll, FilterPublished, FilterDraft, FilterWithImages, FilterFlagged:
		return f, true
	}
	return FilterAll, false
}

func (f ContentFilter) match(it models.ContentItem) bool {
	switch f {
	case FilterPublished:
		return it.IsPublished
	case FilterDraft:
		return !it.IsPublished
	case FilterWithImages:
		return it.HasImage()
	}
	return true
}

// Filter returns the items, in display order, whose prompt or body contains
// query (case-insensitive) and that match kind.
func (c *Cache) Filter(query string, kind ContentFilter) []models.ContentItem {
	query = strings.ToLower(strings.TrimSpace(query))
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.ContentItem, 0, len(c.items))
	for _, it := range c.items {
		if !kind.match(it) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(it.Prompt), query) &&
			!strings.Contains(strings.ToLower(it.Body), query) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache) changed() {
	c.mu.RLock()
	hooks := append([]func(){}, c.onChange...)
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
}
