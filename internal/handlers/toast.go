package handlers

import (
	"github.com/gin-gonic/gin"

	"tweetdash/internal/models"
)

// SetToast sets the X-Toast-* headers the dashboard script turns into a
// toast. An empty title is derived from the severity.
func SetToast(c *gin.Context, sev models.Severity, title, msg string) {
	if c == nil || msg == "" {
		return
	}
	n := models.Notification{Severity: sev.Normalize(), Message: msg}
	if title == "" {
		title = n.Title()
	}
	c.Header("X-Toast-Type", string(n.Severity))
	c.Header("X-Toast-Title", title)
	c.Header("X-Toast-Message", n.Message)
}

// ToastSeverity mirrors a notification onto the toast headers.
func ToastSeverity(c *gin.Context, sev models.Severity, msg string) { SetToast(c, sev, "", msg) }
