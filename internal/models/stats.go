package models

// StatKey names a single counter on the dashboard.
type StatKey string

const (
	StatTotal      StatKey = "total"
	StatPublished  StatKey = "published"
	StatDrafts     StatKey = "drafts"
	StatImages     StatKey = "images"
	StatUsers      StatKey = "users"
	StatEngagement StatKey = "engagement"
)

// StatKeys lists counters in display order.
var StatKeys = []StatKey{StatTotal, StatPublished, StatDrafts, StatImages, StatUsers, StatEngagement}

// Label returns the caption shown under a counter.
func (k StatKey) Label() string {
	switch k {
	case StatTotal:
		return "Total Tweets"
	case StatPublished:
		return "Published"
	case StatDrafts:
		return "Drafts"
	case StatImages:
		return "Images"
	case StatUsers:
		return "Users"
	case StatEngagement:
		return "Engagement"
	default:
		return string(k)
	}
}

// StatSnapshot is the single source of truth for counter values. The draft
// count is never stored; it is derived from total and published.
type StatSnapshot struct {
	Total          int     `json:"total"`
	Published      int     `json:"published"`
	Images         int     `json:"images"`
	Users          int     `json:"users"`
	EngagementRate float64 `json:"engagement_rate"`
}

// Drafts returns max(0, total-published).
func (s StatSnapshot) Drafts() int {
	d := s.Total - s.Published
	if d < 0 {
		return 0
	}
	return d
}

// PublishedRate is published as a percentage of total, or 0 without content.
func (s StatSnapshot) PublishedRate() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Published) / float64(s.Total) * 100
}

// Value returns the numeric value for key.
func (s StatSnapshot) Value(key StatKey) float64 {
	switch key {
	case StatTotal:
		return float64(s.Total)
	case StatPublished:
		return float64(s.Published)
	case StatDrafts:
		return float64(s.Drafts())
	case StatImages:
		return float64(s.Images)
	case StatUsers:
		return float64(s.Users)
	case StatEngagement:
		return s.EngagementRate
	default:
		return 0
	}
}
