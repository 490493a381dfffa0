// Package contentapi talks to the content/generation service.
package contentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tweetdash/internal/models"
	"tweetdash/internal/utils"
)

// DefaultTimeout bounds every request; expiry is reported as a network error.
const DefaultTimeout = 30 * time.Second

const maxBodyBytes = 4 << 20

// Client is a thin JSON client for the four content endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authHeader string
	cookie     string
	log        *utils.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithAuthHeader forwards an Authorization header value on every request.
func WithAuthHeader(v string) Option {
	return func(c *Client) { c.authHeader = strings.TrimSpace(v) }
}

// WithCookie forwards a Cookie header value on every request.
func WithCookie(v string) Option {
	return func(c *Client) { c.cookie = strings.TrimSpace(v) }
}

// WithLogger attaches a logger.
func WithLogger(l *utils.Logger) Option {
	return func(c *Client) { c.log = l.With("adapter", "contentapi") }
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string { return c.baseURL }

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type generateRequest struct {
	Prompt          string `json:"prompt"`
	Tone            string `json:"tone"`
	Length          string `json:"length"`
	Category        string `json:"category"`
	IncludeHashtags bool   `json:"includeHashtags"`
	IncludeEmojis   bool   `json:"includeEmojis"`
	GenerateImage   bool   `json:"generateImage"`
}

type generateResponse struct {
	envelope
	Tweet     string `json:"tweet"`
	ImageURL  string `json:"image_url"`
	ContentID *int64 `json:"content_id"`
	CanPost   *bool  `json:"can_post"`
}

// GenerateResult is a successful generation.
type GenerateResult struct {
	Tweet     string
	ImageURL  string
	ContentID *int64
	CanPost   bool
	Message   string
}

// Generate sends POST /generate-tweet. opts must already carry defaults.
func (c *Client) Generate(ctx context.Context, prompt string, opts models.GenerateOptions) (*GenerateResult, error) {
	opts = opts.Defaults()
	body := generateRequest{
		Prompt:          prompt,
		Tone:            opts.Tone,
		Length:          opts.Length,
		Category:        opts.Category,
		IncludeHashtags: *opts.IncludeHashtags,
		IncludeEmojis:   *opts.IncludeEmojis,
		GenerateImage:   opts.WantsImage(),
	}
	var out generateResponse
	if err := c.do(ctx, "generate", http.MethodPost, "/generate-tweet", body, &out); err != nil {
		return nil, err
	}
	res := &GenerateResult{
		Tweet:     out.Tweet,
		ImageURL:  strings.TrimSpace(out.ImageURL),
		ContentID: out.ContentID,
		CanPost:   out.ContentID != nil,
		Message:   out.Message,
	}
	if out.CanPost != nil {
		res.CanPost = *out.CanPost
	}
	return res, nil
}

// Publish sends POST /post-tweet and returns the server message.
func (c *Client) Publish(ctx context.Context, contentID int64) (string, error) {
	var out envelope
	body := map[string]int64{"content_id": contentID}
	if err := c.do(ctx, "publish", http.MethodPost, "/post-tweet", body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Delete sends DELETE /delete-content/{id} and returns the server message.
func (c *Client) Delete(ctx context.Context, contentID int64) (string, error) {
	var out envelope
	path := "/delete-content/" + strconv.FormatInt(contentID, 10)
	if err := c.do(ctx, "delete", http.MethodDelete, path, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

type wireItem struct {
	ID        int64           `json:"id"`
	Prompt    string          `json:"prompt"`
	Tweet     string          `json:"tweet"`
	ImageURL  *string         `json:"image_url"`
	IsPosted  models.FlexBool `json:"is_posted"`
	CreatedAt models.FlexTime `json:"created_at"`
}

type listResponse struct {
	envelope
	Content        []wireItem `json:"content"`
	Total          int        `json:"total"`
	Published      int        `json:"published"`
	Drafts         int        `json:"drafts"`
	Images         int        `json:"images"`
	Users          *int       `json:"users,omitempty"`
	EngagementRate *float64   `json:"engagement_rate,omitempty"`
}

// ContentList is the authoritative content listing plus counters.
type ContentList struct {
	Items []models.ContentItem
	Stats models.StatSnapshot
	// UsersReported is false when the service did not include a user count.
	UsersReported bool
	// EngagementReported is false when the rate was derived from the counts.
	EngagementReported bool
}

// ListContent sends GET /api/user-content.
func (c *Client) ListContent(ctx context.Context) (*ContentList, error) {
	var out listResponse
	if err := c.do(ctx, "list", http.MethodGet, "/api/user-content", nil, &out); err != nil {
		return nil, err
	}
	list := &ContentList{Items: make([]models.ContentItem, 0, len(out.Content))}
	for _, w := range out.Content {
		item := models.ContentItem{
			ID:          w.ID,
			Prompt:      w.Prompt,
			Body:        w.Tweet,
			IsPublished: bool(w.IsPosted),
			CreatedAt:   w.CreatedAt.Time(),
		}
		if w.ImageURL != nil {
			item.ImageURL = strings.TrimSpace(*w.ImageURL)
		}
		list.Items = append(list.Items, item)
	}
	list.Stats = models.StatSnapshot{
		Total:     out.Total,
		Published: out.Published,
		Images:    out.Images,
	}
	if out.Users != nil {
		list.Stats.Users = *out.Users
		list.UsersReported = true
	}
	if out.EngagementRate != nil {
		list.Stats.EngagementRate = *out.EngagementRate
		list.EngagementReported = true
	} else {
		list.Stats.EngagementRate = list.Stats.PublishedRate()
	}
	return list, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out interface{}) error {
	var reader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authHeader != "" {
		req.Header.Set("Authorization", c.authHeader)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warnf("%s %s failed: %v", method, path, err)
		return &models.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &models.NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	c.log.Debugf("%s %s -> %d in %s", method, path, resp.StatusCode, time.Since(started).Truncate(time.Millisecond))

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &models.ServerError{
			Op:      op,
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(env.Message),
			Kind:    kindForStatus(resp.StatusCode),
		}
	}
	if decodeErr != nil {
		return &models.ServerError{Op: op, Status: resp.StatusCode, Kind: models.ServerErrorGeneric}
	}
	if !env.Success {
		return &models.ServerError{
			Op:      op,
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(env.Message),
			Kind:    models.ServerErrorGeneric,
		}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &models.ServerError{Op: op, Status: resp.StatusCode, Kind: models.ServerErrorGeneric,
				Message: ""}
		}
	}
	return nil
}

func kindForStatus(status int) models.ServerErrorKind {
	switch status {
	case http.StatusNotFound:
		return models.ServerErrorNotFound
	case http.StatusConflict:
		return models.ServerErrorConflict
	default:
		return models.ServerErrorGeneric
	}
}

// IsTimeout reports whether err came from the request deadline.
func IsTimeout(err error) bool {
	var nerr *models.NetworkError
	if !errors.As(err, &nerr) {
		return false
	}
	if errors.Is(nerr.Err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(nerr.Err, &te) && te.Timeout()
}
