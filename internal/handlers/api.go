package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tweetdash/internal/gateway"
	"tweetdash/internal/middleware"
	"tweetdash/internal/models"
)

func (h *DashboardHandlers) APIGenerate(c *gin.Context) {
	var req GenerateRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	prompt, opts := req.Options()
	res, err := h.session.Create(c.Request.Context(), prompt, opts)
	if err != nil {
		fail(c, err, gateway.MsgGenerateFailed)
		return
	}
	ToastSeverity(c, models.SeveritySuccess, res.Message)
	body := gin.H{
		"success":  true,
		"message":  res.Message,
		"tweet":    res.Item.Body,
		"can_post": res.CanPost,
	}
	if res.Item.HasImage() {
		body["image_url"] = res.Item.ImageURL
	}
	if res.Cached {
		body["content_id"] = res.Item.ID
	}
	c.JSON(http.StatusOK, body)
}

func (h *DashboardHandlers) APIPublish(c *gin.Context) {
	id, err := middleware.ParseContentID(c.Param("content_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	if err := h.session.Publish(c.Request.Context(), id); err != nil {
		fail(c, err, gateway.MsgPublishFailed)
		return
	}
	ToastSeverity(c, models.SeveritySuccess, gateway.MsgPublished)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": gateway.MsgPublished, "content_id": id})
}

func (h *DashboardHandlers) APIDelete(c *gin.Context) {
	id, err := middleware.ParseContentID(c.Param("content_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	if err := h.session.Delete(c.Request.Context(), id); err != nil {
		fail(c, err, gateway.MsgDeleteFailed)
		return
	}
	ToastSeverity(c, models.SeveritySuccess, gateway.MsgDeleted)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": gateway.MsgDeleted, "content_id": id})
}

func (h *DashboardHandlers) APIRefresh(c *gin.Context) {
	err := h.session.Refresh(c.Request.Context())
	switch {
	case err == nil:
	case errors.Is(err, gateway.ErrInFlight):
		// the running refresh goes again and picks up the latest state
		c.JSON(http.StatusAccepted, gin.H{"success": true, "queued": true})
		return
	default:
		fail(c, err, gateway.MsgRefreshFailed)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": h.session.Stats(), "items": len(h.session.Content())})
}

// APIContent lists cached content, narrowed by ?q= and ?type=.
func (h *DashboardHandlers) APIContent(c *gin.Context) {
	kind, ok := gateway.ParseContentFilter(c.Query("type"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown content type filter", "type": c.Query("type")})
		return
	}
	query := middleware.SanitizeString(c.Query("q"))
	items := h.session.FilterContent(query, kind)
	c.JSON(http.StatusOK, gin.H{"query": query, "type": kind, "count": len(items), "items": items})
}

func (h *DashboardHandlers) APIStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stats":    h.session.Stats(),
		"counters": h.session.Counters(),
	})
}

func (h *DashboardHandlers) APIActivity(c *gin.Context) {
	sink := c.Param("sink")
	if !h.session.HasSink(sink) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown activity feed", "sinks": h.session.SinkNames()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sink": sink, "entries": h.session.ActivityEntries(sink)})
}

func (h *DashboardHandlers) APINotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": h.session.Notifications()})
}

func (h *DashboardHandlers) APIControls(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"controls": h.session.Controls()})
}
