package handlers

import (
	"tweetdash/internal/middleware"
	"tweetdash/internal/models"
)

// GenerateRequest is the body of POST /api/generate. An empty prompt is not
// rejected here; the session reports it like any other validation failure.
type GenerateRequest struct {
	Prompt          string `json:"prompt" validate:"max=2000"`
	Tone            string `json:"tone" validate:"max=32"`
	Length          string `json:"length" validate:"max=16"`
	Category        string `json:"category" validate:"max=64"`
	IncludeHashtags *bool  `json:"includeHashtags"`
	IncludeEmojis   *bool  `json:"includeEmojis"`
	GenerateImage   *bool  `json:"generateImage"`
}

// Options returns the sanitized prompt and generation options.
func (r GenerateRequest) Options() (string, models.GenerateOptions) {
	return middleware.SanitizeString(r.Prompt), models.GenerateOptions{
		Tone:            middleware.SanitizeString(r.Tone),
		Length:          middleware.SanitizeString(r.Length),
		Category:        middleware.SanitizeString(r.Category),
		IncludeHashtags: r.IncludeHashtags,
		IncludeEmojis:   r.IncludeEmojis,
		GenerateImage:   r.GenerateImage,
	}
}
