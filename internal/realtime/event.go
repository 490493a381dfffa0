package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"tweetdash/internal/models"
)

// Event names on the push channel.
const (
	EventConnect          = "connect"
	EventDisconnect       = "disconnect"
	EventUserUpdate       = "user_update"
	EventContentUpdate    = "content_update"
	EventSystemHealth     = "system_health_update"
	EventUserActivity     = "user_activity"
	EventNewActivity      = "new_activity"
	EventSystemStatus     = "system_status"
	EventAdminJoined      = "admin_joined"
	EventUserJoined       = "user_joined"
	EventContentGenerated = "content_generated"

	JoinAdmin = "join_admin"
	JoinUser  = "join_user"
)

// Envelope is one frame on the wire.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event is a dispatched inbound event.
type Event struct {
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Decode unmarshals the payload into v. An empty payload leaves v untouched.
func (e Event) Decode(v interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

type UserUpdate struct {
	Action   string      `json:"action"`
	Username string      `json:"username"`
	UserID   json.Number `json:"user_id,omitempty"`
}

type ContentUpdate struct {
	Action    string      `json:"action"`
	Username  string      `json:"username"`
	ContentID json.Number `json:"content_id,omitempty"`
	AdminUser string      `json:"admin_user,omitempty"`
}

// ID returns the content id when one was sent.
func (u ContentUpdate) ID() (int64, bool) {
	if u.ContentID == "" {
		return 0, false
	}
	id, err := u.ContentID.Int64()
	return id, err == nil
}

// Content update actions.
const (
	ActionNewContent       = "new_content"
	ActionContentPublished = "content_published"
	ActionContentDeleted   = "content_deleted"
	ActionNewUser          = "new_user"
)

type HealthUpdate = models.SystemHealth

type UserActivity struct {
	Activity string `json:"activity"`
	Type     string `json:"type"`
}

type NewActivity struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type SystemStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
}

type JoinNotice struct {
	Message string `json:"message"`
}

type ContentGenerated struct {
	Username  string      `json:"username"`
	ContentID json.Number `json:"content_id,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// DisconnectInfo is the payload of the synthetic disconnect event.
type DisconnectInfo struct {
	Reason string `json:"reason"`
}
