package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tweetdash/internal/gateway"
	"tweetdash/internal/middleware"
	"tweetdash/internal/models"
	"tweetdash/internal/session"
	"tweetdash/internal/utils"
	"tweetdash/internal/version"
	"tweetdash/internal/views"
)

// DashboardHandlers serve one mounted session to the browser.
type DashboardHandlers struct {
	session  *session.Dashboard
	renderer *views.Renderer
	hub      *middleware.Hub
	logger   *utils.Logger
}

func NewDashboardHandlers(s *session.Dashboard, r *views.Renderer, hub *middleware.Hub, logger *utils.Logger) *DashboardHandlers {
	return &DashboardHandlers{session: s, renderer: r, hub: hub, logger: logger}
}

// Register mounts every dashboard route. limit guards the mutation endpoints
// and may be nil.
func (h *DashboardHandlers) Register(r gin.IRouter, limit gin.HandlerFunc) {
	r.GET("/healthz", h.Healthz)
	r.GET("/", h.Page)
	r.GET("/cards/:card_id", h.Card)

	api := r.Group("/api")
	{
		api.GET("/stats", h.APIStats)
		api.GET("/content", h.APIContent)
		api.GET("/activity/:sink", h.APIActivity)
		api.GET("/notifications", h.APINotifications)
		api.GET("/controls", h.APIControls)
	}
	mutations := r.Group("/api")
	if limit != nil {
		mutations.Use(limit)
	}
	{
		mutations.POST("/generate", h.APIGenerate)
		mutations.POST("/content/:content_id/publish", h.APIPublish)
		mutations.DELETE("/content/:content_id", h.APIDelete)
		mutations.POST("/refresh", h.APIRefresh)
	}

	if h.hub != nil {
		r.GET("/ws", h.hub.HandleWebSocket())
	}
}

// Attach pushes every re-rendered card to connected browsers.
func (h *DashboardHandlers) Attach() {
	if h.hub == nil {
		return
	}
	h.session.OnChange(h.pushCard)
}

func (h *DashboardHandlers) pushCard(cardID string) {
	fragment, ok, err := h.renderer.RenderByID(h.screen(), cardID, h.request(nil))
	if err != nil {
		h.logger.Warnf("render card %s: %v", cardID, err)
		return
	}
	if !ok {
		return
	}
	h.hub.BroadcastCard(cardID, string(fragment))
}

func (h *DashboardHandlers) screen() views.Screen {
	return views.ScreenForRole(h.session.Role())
}

func (h *DashboardHandlers) request(c *gin.Context) *views.Request {
	return &views.Request{Context: c, Source: h.session, Logger: h.logger}
}

func (h *DashboardHandlers) Page(c *gin.Context) {
	page, err := h.renderer.RenderPage(h.screen(), h.request(c))
	if err != nil {
		h.logger.Errorf("render page: %v", err)
		c.String(http.StatusInternalServerError, "Failed to render dashboard")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

func (h *DashboardHandlers) Card(c *gin.Context) {
	cardID := c.Param("card_id")
	fragment, ok, err := h.renderer.RenderByID(h.screen(), cardID, h.request(c))
	if err != nil {
		h.logger.Errorf("render card %s: %v", cardID, err)
		c.String(http.StatusInternalServerError, "Failed to render card")
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fragment))
}

func (h *DashboardHandlers) Healthz(c *gin.Context) {
	body := gin.H{
		"status":   "ok",
		"version":  version.String(),
		"session":  h.session.ID(),
		"role":     h.session.Role(),
		"mounted":  h.session.Mounted(),
		"realtime": h.session.ConnectionState(),
	}
	if status := h.session.SystemStatus(); status != "" {
		body["system_status"] = status
	}
	if at, ok := h.session.LastEvent(); ok {
		body["last_event"] = at
	}
	if host, ok := h.session.HostTelemetry(); ok {
		body["host"] = host
	}
	if h.hub != nil {
		body["browsers"] = h.hub.ClientCount()
	}
	c.JSON(http.StatusOK, body)
}

// statusFor maps a session error onto an HTTP status.
func statusFor(err error) int {
	var verr *models.ValidationError
	var nerr *models.NetworkError
	var serr *models.ServerError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, gateway.ErrInFlight):
		return http.StatusConflict
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &nerr):
		return http.StatusBadGateway
	case errors.As(err, &serr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail answers a failed mutation with the same text the session notified.
func fail(c *gin.Context, err error, fallback string) {
	if errors.Is(err, gateway.ErrInFlight) {
		SetToast(c, models.SeverityWarning, "Busy", "Request already in progress")
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Request already in progress"})
		return
	}
	msg := models.UserMessage(err, fallback)
	ToastSeverity(c, models.SeverityError, msg)
	c.JSON(statusFor(err), gin.H{"success": false, "message": msg})
}
