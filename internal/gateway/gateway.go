// Package gateway wraps create, publish and delete against the content
// service. Each mutation locks its control, calls the service, then either
// applies the local change or leaves local state untouched, and always
// reports the outcome as a notification and an activity entry.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"tweetdash/internal/activity"
	"tweetdash/internal/contentapi"
	"tweetdash/internal/models"
	"tweetdash/internal/notify"
	"tweetdash/internal/stats"
	"tweetdash/internal/utils"
)

// ErrInFlight is returned when the control for a mutation is already locked.
// Nothing is sent and nothing is recorded.
var ErrInFlight = errors.New("mutation already in flight for this control")

const (
	MsgGenerated      = "Tweet generated successfully!"
	MsgGeneratedImage = "Tweet and image generated successfully!"
	MsgGenerateFailed = "Failed to generate tweet"
	MsgPublished      = "Tweet published successfully!"
	MsgPublishFailed  = "Failed to publish tweet"
	MsgDeleted        = "Content deleted successfully!"
	MsgDeleteFailed   = "Failed to delete content"
	MsgRefreshFailed  = "Failed to load content"
	MsgPromptRequired = "Please enter a prompt"

	RecentCreated   = "Tweet Created"
	RecentPublished = "Tweet Published"

	pendingGenerate = "Generating..."
	pendingPublish  = "Publishing..."
	pendingDelete   = "Deleting..."
	pendingRefresh  = "Refreshing..."
)

var validate = validator.New()

// ContentService is the remote side of the gateway.
type ContentService interface {
	Generate(ctx context.Context, prompt string, opts models.GenerateOptions) (*contentapi.GenerateResult, error)
	Publish(ctx context.Context, contentID int64) (string, error)
	Delete(ctx context.Context, contentID int64) (string, error)
	ListContent(ctx context.Context) (*contentapi.ContentList, error)
}

// Deps are the components a gateway reports into.
type Deps struct {
	Service  ContentService
	Notes    *notify.Emitter
	Activity *activity.Log
	Counters *stats.Counters
	Cache    *Cache
	Locks    *Locks
	// Recent names a sink that also receives a short line for each of the
	// session's own successful creates and publishes. Empty disables it.
	Recent   string
	Actor    string
	Now      func() time.Time
	Logger   *utils.Logger
}

// Gateway performs remote mutations for one session.
type Gateway struct {
	svc      ContentService
	notes    *notify.Emitter
	activity *activity.Log
	counters *stats.Counters
	cache    *Cache
	locks    *Locks
	recent   string
	actor    string
	clock    func() time.Time
	log      *utils.Logger

	refreshMu    sync.Mutex
	refreshing   bool
	refreshAgain bool
}

// New builds a gateway. Cache and Locks are created when absent.
func New(d Deps) *Gateway {
	g := &Gateway{
		svc:      d.Service,
		notes:    d.Notes,
		activity: d.Activity,
		counters: d.Counters,
		cache:    d.Cache,
		locks:    d.Locks,
		recent:   d.Recent,
		actor:    strings.TrimSpace(d.Actor),
		clock:    d.Now,
		log:      d.Logger.With("component", "gateway"),
	}
	if g.cache == nil {
		g.cache = NewCache()
	}
	if g.locks == nil {
		g.locks = NewLocks(nil)
	}
	if g.actor == "" {
		g.actor = models.ActorSystem
	}
	return g
}

func (g *Gateway) Cache() *Cache { return g.cache }
func (g *Gateway) Locks() *Locks { return g.locks }

// Controls lists the controls currently locked.
func (g *Gateway) Controls() []ControlState { return g.locks.Snapshot() }

// CreateResult is the outcome of a successful create.
type CreateResult struct {
	Item    models.ContentItem
	Cached  bool
	CanPost bool
	Message string
}

// Create validates the prompt locally, then asks the service to generate a
// tweet. A result with a content id enters the cache and the counters.
func (g *Gateway) Create(ctx context.Context, prompt string, opts models.GenerateOptions) (*CreateResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		err := &models.ValidationError{Field: "prompt", Message: MsgPromptRequired}
		g.notes.Error(err.Message)
		return nil, err
	}
	opts = opts.Defaults()
	if err := validate.Struct(opts); err != nil {
		verr := optionsError(err)
		g.notes.Error(verr.Message)
		return nil, verr
	}

	if !g.locks.Acquire(ControlGenerate, pendingGenerate) {
		return nil, ErrInFlight
	}
	res, err := g.svc.Generate(ctx, prompt, opts)
	g.locks.Release(ControlGenerate)

	if err != nil {
		msg := models.UserMessage(err, MsgGenerateFailed)
		g.logFailure("generate", err)
		g.notes.Error(msg)
		g.record("Generation failed: "+msg, failureSeverity(err, models.SeverityError))
		return nil, err
	}

	out := &CreateResult{
		Item: models.ContentItem{
			Prompt:    prompt,
			Body:      res.Tweet,
			ImageURL:  res.ImageURL,
			CreatedAt: g.now(),
		},
		CanPost: res.CanPost,
	}
	if res.ContentID != nil {
		out.Item.ID = *res.ContentID
		out.Cached = true
		g.cache.Put(out.Item)
		g.counters.ApplyDelta(models.StatTotal, 1)
		if out.Item.HasImage() {
			g.counters.ApplyDelta(models.StatImages, 1)
		}
	}

	out.Message = MsgGenerated
	if out.Item.HasImage() {
		out.Message = MsgGeneratedImage
	}
	if out.Cached {
		g.record(fmt.Sprintf("Generated new content (ID: %d)", out.Item.ID), models.SeveritySuccess)
	} else {
		g.record("Generated new content", models.SeveritySuccess)
	}
	g.recordRecent(RecentCreated)
	g.notes.Success(out.Message)
	return out, nil
}

// Publish marks a draft as published. Publish and delete of the same id
// share a lock.
func (g *Gateway) Publish(ctx context.Context, id int64) error {
	key := ContentControl(id)
	if !g.locks.Acquire(key, pendingPublish) {
		return ErrInFlight
	}
	_, err := g.svc.Publish(ctx, id)
	g.locks.Release(key)

	if err != nil {
		msg := models.UserMessage(err, MsgPublishFailed)
		g.logFailure(fmt.Sprintf("publish %d", id), err)
		g.notes.Error(msg)
		g.record(fmt.Sprintf("Failed to publish content ID: %d: %s", id, msg), models.SeverityError)
		return err
	}

	known, flipped := g.cache.MarkPublished(id)
	if flipped || !known {
		g.counters.ApplyDelta(models.StatPublished, 1)
	}
	g.record(fmt.Sprintf("Published content ID: %d", id), models.SeveritySuccess)
	g.recordRecent(RecentPublished)
	g.notes.Success(MsgPublished)
	return nil
}

// Delete removes content. Counters only move when the item was still in the
// local cache, so a repeat delete the server accepts changes nothing.
func (g *Gateway) Delete(ctx context.Context, id int64) error {
	key := ContentControl(id)
	if !g.locks.Acquire(key, pendingDelete) {
		return ErrInFlight
	}
	_, err := g.svc.Delete(ctx, id)
	g.locks.Release(key)

	if err != nil {
		msg := models.UserMessage(err, MsgDeleteFailed)
		g.logFailure(fmt.Sprintf("delete %d", id), err)
		g.notes.Error(msg)
		g.record(fmt.Sprintf("Failed to delete content ID: %d: %s", id, msg), failureSeverity(err, models.SeverityWarning))
		return err
	}

	if removed, ok := g.cache.Remove(id); ok {
		g.counters.ApplyDelta(models.StatTotal, -1)
		if removed.IsPublished {
			g.counters.ApplyDelta(models.StatPublished, -1)
		}
		if removed.HasImage() {
			g.counters.ApplyDelta(models.StatImages, -1)
		}
	}
	g.record(fmt.Sprintf("Deleted content ID: %d", id), models.SeverityWarning)
	g.notes.Success(MsgDeleted)
	return nil
}

// Refresh reloads the content list and counters from the service. The
// snapshot replaces any optimistic deltas. A refresh requested while one is
// running returns ErrInFlight and makes the running one go again, so no
// request for fresh data is lost.
func (g *Gateway) Refresh(ctx context.Context) error {
	g.refreshMu.Lock()
	if g.refreshing {
		g.refreshAgain = true
		g.refreshMu.Unlock()
		return ErrInFlight
	}
	g.refreshing = true
	g.refreshMu.Unlock()

	g.locks.Acquire(ControlRefresh, pendingRefresh)
	defer g.locks.Release(ControlRefresh)
	for {
		err := g.refreshOnce(ctx)
		g.refreshMu.Lock()
		if err != nil || !g.refreshAgain || ctx.Err() != nil {
			g.refreshing, g.refreshAgain = false, false
			g.refreshMu.Unlock()
			return err
		}
		g.refreshAgain = false
		g.refreshMu.Unlock()
	}
}

func (g *Gateway) refreshOnce(ctx context.Context) error {
	list, err := g.svc.ListContent(ctx)
	if err != nil {
		g.logFailure("refresh", err)
		return err
	}
	g.cache.Replace(list.Items)
	g.counters.DeriveEngagement(!list.EngagementReported)
	if list.UsersReported {
		g.counters.ApplySnapshot(list.Stats)
	} else {
		g.counters.ApplySnapshotExcept(list.Stats, models.StatUsers)
	}
	return nil
}

func (g *Gateway) record(msg string, sev models.Severity) {
	g.activity.Record(g.actor, msg, sev)
}

func (g *Gateway) logFailure(op string, err error) {
	if contentapi.IsTimeout(err) {
		g.log.Warnf("%s timed out: %v", op, err)
		return
	}
	g.log.Warnf("%s failed: %v", op, err)
}

func (g *Gateway) recordRecent(msg string) {
	if g.recent != "" {
		g.activity.RecordTo(g.recent, g.actor, msg, models.SeveritySuccess)
	}
}

func (g *Gateway) now() time.Time {
	if g.clock != nil {
		return g.clock()
	}
	return time.Now()
}

// failureSeverity keeps network failures at error level whatever the
// operation's usual failure severity.
func failureSeverity(err error, usual models.Severity) models.Severity {
	var nerr *models.NetworkError
	if errors.As(err, &nerr) {
		return models.SeverityError
	}
	return usual
}

func optionsError(err error) *models.ValidationError {
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		f := fields[0]
		return &models.ValidationError{
			Field:   strings.ToLower(f.Field()),
			Message: fmt.Sprintf("Invalid %s: %v", strings.ToLower(f.Field()), f.Value()),
		}
	}
	return &models.ValidationError{Field: "options", Message: err.Error()}
}
