// Package contentapitest runs an in-process content service for tests.
package contentapitest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"tweetdash/internal/models"
)

// Operation names used for call counting, failures and holds.
const (
	OpGenerate = "generate"
	OpPublish  = "publish"
	OpDelete   = "delete"
	OpList     = "list"
)

// Failure makes the next requests for an op fail.
type Failure struct {
	Status  int
	Message string
	// Drop closes the connection without answering.
	Drop bool
	// SoftFail answers 200 with success=false.
	SoftFail bool
}

// Hold parks requests for an op until Release is called.
type Hold struct {
	Arrived chan struct{}
	release chan struct{}
	once    sync.Once
}

// Release lets parked requests continue.
func (h *Hold) Release() { h.once.Do(func() { close(h.release) }) }

// Service is a fake content service backed by gin.
type Service struct {
	Server *httptest.Server

	mu       sync.Mutex
	items    map[int64]*models.ContentItem
	nextID   int64
	calls    map[string]int
	failures map[string]Failure
	holds    map[string]*Hold
	users    *int
	headers  http.Header
	// OmitContentID makes generate answer without a content_id.
	OmitContentID bool
}

// New starts a fake service; callers must Close it.
func New() *Service {
	gin.SetMode(gin.TestMode)
	s := &Service{
		items:    make(map[int64]*models.ContentItem),
		nextID:   1,
		calls:    make(map[string]int),
		failures: make(map[string]Failure),
		holds:    make(map[string]*Hold),
	}
	r := gin.New()
	r.Use(s.gate())
	r.POST("/generate-tweet", s.generate)
	r.POST("/post-tweet", s.publish)
	r.DELETE("/delete-content/:id", s.remove)
	r.GET("/api/user-content", s.list)
	s.Server = httptest.NewServer(r)
	return s
}

// URL is the base URL of the fake.
func (s *Service) URL() string { return s.Server.URL }

// Close shuts the server down and releases any holds.
func (s *Service) Close() {
	s.mu.Lock()
	for _, h := range s.holds {
		h.Release()
	}
	s.mu.Unlock()
	s.Server.CloseClientConnections()
	s.Server.Close()
}

// Seed stores an item with a fixed id.
func (s *Service) Seed(item models.ContentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	cp := item
	s.items[item.ID] = &cp
	if item.ID >= s.nextID {
		s.nextID = item.ID + 1
	}
}

// SetUsers makes the list endpoint report a user count.
func (s *Service) SetUsers(n int) {
	s.mu.Lock()
	s.users = &n
	s.mu.Unlock()
}

// Fail installs a failure for op; a zero Failure clears it.
func (s *Service) Fail(op string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f == (Failure{}) {
		delete(s.failures, op)
		return
	}
	s.failures[op] = f
}

// Hold parks subsequent requests for op.
func (s *Service) Hold(op string) *Hold {
	h := &Hold{Arrived: make(chan struct{}, 16), release: make(chan struct{})}
	s.mu.Lock()
	s.holds[op] = h
	s.mu.Unlock()
	return h
}

// Calls returns how many requests reached op.
func (s *Service) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// LastHeaders returns the headers of the most recent request.
func (s *Service) LastHeaders() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers.Clone()
}

// Item returns a stored item.
func (s *Service) Item(id int64) (models.ContentItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return models.ContentItem{}, false
	}
	return *it, true
}

func opFor(c *gin.Context) string {
	switch {
	case c.Request.URL.Path == "/generate-tweet":
		return OpGenerate
	case c.Request.URL.Path == "/post-tweet":
		return OpPublish
	case strings.HasPrefix(c.Request.URL.Path, "/delete-content/"):
		return OpDelete
	default:
		return OpList
	}
}

func (s *Service) gate() gin.HandlerFunc {
	return func(c *gin.Context) {
		op := opFor(c)
		s.mu.Lock()
		s.calls[op]++
		s.headers = c.Request.Header.Clone()
		hold := s.holds[op]
		f, failing := s.failures[op]
		s.mu.Unlock()

		if hold != nil {
			select {
			case hold.Arrived <- struct{}{}:
			default:
			}
			<-hold.release
		}
		if !failing {
			c.Next()
			return
		}
		switch {
		case f.Drop:
			if conn, _, err := c.Writer.Hijack(); err == nil {
				conn.Close()
			}
		case f.SoftFail:
			c.JSON(http.StatusOK, gin.H{"success": false, "message": f.Message})
		default:
			body := gin.H{"success": false}
			if f.Message != "" {
				body["message"] = f.Message
			}
			c.JSON(f.Status, body)
		}
		c.Abort()
	}
}

func (s *Service) generate(c *gin.Context) {
	var req struct {
		Prompt        string `json:"prompt"`
		GenerateImage bool   `json:"generateImage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Prompt is required"})
		return
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	item := &models.ContentItem{
		ID:        id,
		Prompt:    req.Prompt,
		Body:      "Generated: " + req.Prompt,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if req.GenerateImage {
		item.ImageURL = "/static/images/" + strconv.FormatInt(id, 10) + ".png"
	}
	omit := s.OmitContentID
	if !omit {
		s.items[id] = item
	}
	s.mu.Unlock()

	resp := gin.H{"success": true, "tweet": item.Body, "image_url": nil}
	if item.ImageURL != "" {
		resp["image_url"] = item.ImageURL
	}
	if !omit {
		resp["content_id"] = id
		resp["can_post"] = true
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Service) publish(c *gin.Context) {
	var req struct {
		ContentID int64 `json:"content_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Content ID is required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[req.ContentID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Content not found"})
		return
	}
	if it.IsPublished {
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Content already published"})
		return
	}
	it.IsPublished = true
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Tweet posted successfully!"})
}

func (s *Service) remove(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid content id"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "not found"})
		return
	}
	delete(s.items, id)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Content deleted successfully"})
}

func (s *Service) list(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	content := make([]gin.H, 0, len(ids))
	published, images := 0, 0
	for _, id := range ids {
		it := s.items[id]
		posted := 0
		if it.IsPublished {
			posted = 1
			published++
		}
		var image interface{}
		if it.ImageURL != "" {
			image = it.ImageURL
			images++
		}
		content = append(content, gin.H{
			"id":         it.ID,
			"prompt":     it.Prompt,
			"tweet":      it.Body,
			"image_url":  image,
			"is_posted":  posted,
			"created_at": it.CreatedAt.Format(time.DateTime),
		})
	}
	resp := gin.H{
		"success":   true,
		"content":   content,
		"total":     len(ids),
		"published": published,
		"drafts":    len(ids) - published,
		"images":    images,
	}
	if s.users != nil {
		resp["users"] = *s.users
	}
	c.JSON(http.StatusOK, resp)
}
