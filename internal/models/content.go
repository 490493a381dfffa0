package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ContentItem is a generated tweet as held in the session's local cache.
// The content service owns the authoritative copy.
type ContentItem struct {
	ID          int64     `json:"id"`
	Prompt      string    `json:"prompt"`
	Body        string    `json:"tweet"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsPublished bool      `json:"is_posted"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasImage reports whether an image was generated for the item.
func (c ContentItem) HasImage() bool {
	return strings.TrimSpace(c.ImageURL) != ""
}

const (
	DefaultTone     = "professional"
	DefaultLength   = "medium"
	DefaultCategory = "general"
)

// GenerateOptions configures a generation request. Nil booleans and empty
// strings are filled by Defaults independently of each other.
type GenerateOptions struct {
	Tone            string `json:"tone" validate:"omitempty,oneof=professional casual humorous inspirational informative"`
	Length          string `json:"length" validate:"omitempty,oneof=short medium long"`
	Category        string `json:"category" validate:"omitempty,max=64"`
	IncludeHashtags *bool  `json:"includeHashtags,omitempty"`
	IncludeEmojis   *bool  `json:"includeEmojis,omitempty"`
	GenerateImage   *bool  `json:"generateImage,omitempty"`
}

// Defaults returns a copy with every absent field set to its default.
func (o GenerateOptions) Defaults() GenerateOptions {
	out := o
	out.Tone = strings.ToLower(strings.TrimSpace(out.Tone))
	if out.Tone == "" {
		out.Tone = DefaultTone
	}
	out.Length = strings.ToLower(strings.TrimSpace(out.Length))
	if out.Length == "" {
		out.Length = DefaultLength
	}
	out.Category = strings.TrimSpace(out.Category)
	if out.Category == "" {
		out.Category = DefaultCategory
	}
	if out.IncludeHashtags == nil {
		out.IncludeHashtags = Bool(true)
	}
	if out.IncludeEmojis == nil {
		out.IncludeEmojis = Bool(true)
	}
	if out.GenerateImage == nil {
		out.GenerateImage = Bool(true)
	}
	return out
}

// WantsImage reports the effective generateImage flag.
func (o GenerateOptions) WantsImage() bool {
	return o.GenerateImage == nil || *o.GenerateImage
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// FlexBool decodes JSON booleans, 0/1 numbers and "true"/"1" strings.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch raw {
	case "true", "1", `"true"`, `"1"`:
		*b = true
		return nil
	case "false", "0", `"false"`, `"0"`, "null", `""`:
		*b = false
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*b = f != 0
		return nil
	}
	return fmt.Errorf("invalid boolean value %s", raw)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// FlexTime decodes RFC3339 and sqlite-style timestamps. Unparseable or
// missing values decode to the zero time.
type FlexTime time.Time

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = FlexTime{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", string(data), err)
	}
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			*t = FlexTime(parsed)
			return nil
		}
	}
	*t = FlexTime{}
	return nil
}

// Time returns the decoded value.
func (t FlexTime) Time() time.Time { return time.Time(t) }
