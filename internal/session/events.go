package session

import (
	"fmt"
	"strings"

	"tweetdash/internal/activity"
	"tweetdash/internal/models"
	"tweetdash/internal/realtime"
	"tweetdash/internal/views"
)

func (d *Dashboard) routeEvents() {
	a := d.adapter
	a.OnState(func(realtime.State) { d.changed(views.CardConnection) })
	a.OnAny(func(ev realtime.Event) {
		d.mu.Lock()
		d.lastEvent = ev.ReceivedAt
		d.mu.Unlock()
		d.log.Debugf("push event %s", ev.Type)
	})
	a.On(realtime.EventConnect, d.onConnect)
	a.On(realtime.EventDisconnect, d.onDisconnect)
	a.On(realtime.EventUserUpdate, d.onUserUpdate)
	a.On(realtime.EventContentUpdate, d.onContentUpdate)
	a.On(realtime.EventSystemHealth, d.onSystemHealth)
	a.On(realtime.EventUserActivity, d.onUserActivity)
	a.On(realtime.EventNewActivity, d.onNewActivity)
	a.On(realtime.EventSystemStatus, d.onSystemStatus)
	a.On(realtime.EventAdminJoined, d.onJoined)
	a.On(realtime.EventUserJoined, d.onJoined)
	a.On(realtime.EventContentGenerated, d.onContentGenerated)
}

func (d *Dashboard) system(msg string, sev models.Severity) {
	d.activity.Record(models.ActorSystem, msg, sev)
}

func (d *Dashboard) onConnect(realtime.Event) {
	d.system("Connected to server", models.SeveritySuccess)
	d.refreshAsync()
}

func (d *Dashboard) onDisconnect(realtime.Event) {
	d.system("Disconnected from server", models.SeverityWarning)
}

func (d *Dashboard) onUserUpdate(ev realtime.Event) {
	var u realtime.UserUpdate
	if err := ev.Decode(&u); err != nil {
		d.log.Warnf("%v", err)
		return
	}
	name := orUnknown(u.Username)
	switch u.Action {
	case realtime.ActionNewUser:
		d.counters.ApplyDelta(models.StatUsers, 1)
		d.system("New user registered: "+name, models.SeverityInfo)
	default:
		d.system(fmt.Sprintf("User %s: %s", name, strings.ReplaceAll(u.Action, "_", " ")), models.SeverityInfo)
	}
}

// onContentUpdate logs the change and reloads; deltas are not applied blind
// because the local cache may already reflect this session's own mutation.
func (d *Dashboard) onContentUpdate(ev realtime.Event) {
	var u realtime.ContentUpdate
	if err := ev.Decode(&u); err != nil {
		d.log.Warnf("%v", err)
		return
	}
	name := orUnknown(u.Username)
	id, hasID := u.ID()
	switch u.Action {
	case realtime.ActionNewContent:
		d.activity.Record(name, "Generated new content", models.SeveritySuccess)
	case realtime.ActionContentPublished:
		d.activity.Record(name, withID("Published content", id, hasID), models.SeveritySuccess)
	case realtime.ActionContentDeleted:
		actor := u.AdminUser
		if actor == "" {
			actor = name
		}
		d.activity.Record(actor, withID("Deleted content", id, hasID), models.SeverityWarning)
	default:
		d.activity.Record(name, "Content updated", models.SeverityInfo)
	}
	d.refreshAsync()
}

func (d *Dashboard) onSystemHealth(ev realtime.Event) {
	var h realtime.HealthUpdate
	if err := ev.Decode(&h); err != nil {
		d.log.Warnf("%v", err)
		return
	}
	if h.UpdatedAt.IsZero() {
		h.UpdatedAt = ev.ReceivedAt
	}
	d.mu.Lock()
	d.health = d.health.Merge(h)
	d.mu.Unlock()
	d.changed(views.CardHealth)
}

func (d *Dashboard) onUserActivity(ev realtime.Event) {
	var u realtime.UserActivity
	if err := ev.Decode(&u); err != nil {
		d.log.Warnf("%v", err)
		return
	}
	if strings.TrimSpace(u.Activity) == "" {
		return
	}
	d.activity.RecordTo(activity.SinkUserRecent, d.opts.Actor, u.Activity, models.ParseSeverity(u.Type))
}

func (d *Dashboard) onNewActivity(ev realtime.Event) {
	var a realtime.NewActivity
	if err := ev.Decode(&a); err != nil {
		d.log.Warnf("%v", err)
		return
	}
	if strings.TrimSpace(a.Message) == "" {
		return
	}
	d.system(a.Message, models.ParseSeverity(a.Type))
}

func (d *Dashboard) onSystemStatus(ev realtime.Event) {
	var s realtime.SystemStatus
	if err := ev.Decode(&s); err != nil {
		d.log.Warnf("%v", err)
		return
	}
	d.mu.Lock()
	d.status = s.Status
	d.mu.Unlock()
	d.system("System status: "+orUnknown(s.Status), models.SeverityInfo)
	d.changed(views.CardConnection)
}

func (d *Dashboard) onJoined(ev realtime.Event) {
	var j realtime.JoinNotice
	if err := ev.Decode(&j); err != nil {
		d.log.Warnf("%v", err)
		return
	}
	if j.Message == "" {
		j.Message = "Joined live updates"
	}
	d.system(j.Message, models.SeverityInfo)
}

func (d *Dashboard) onContentGenerated(ev realtime.Event) {
	var g realtime.ContentGenerated
	if err := ev.Decode(&g); err != nil {
		d.log.Warnf("%v", err)
		return
	}
	msg := g.Message
	if msg == "" {
		msg = "New content generated"
	}
	d.activity.Record(orUnknown(g.Username), msg, models.SeveritySuccess)
	d.refreshAsync()
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}

func withID(msg string, id int64, ok bool) string {
	if !ok {
		return msg
	}
	return fmt.Sprintf("%s ID: %d", msg, id)
}
