// Package session holds one dashboard session: the components, the timers
// that drive them and the push channel feeding them. All session state lives
// here; rendering reads it and never writes back.
package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"tweetdash/internal/activity"
	"tweetdash/internal/gateway"
	"tweetdash/internal/models"
	"tweetdash/internal/notify"
	"tweetdash/internal/realtime"
	"tweetdash/internal/scheduler"
	"tweetdash/internal/stats"
	"tweetdash/internal/utils"
	"tweetdash/internal/views"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	DefaultRefreshInterval = 15 * time.Second
	DefaultHealthInterval  = 30 * time.Second
)

// HostSampler provides readings for the dashboard host row.
type HostSampler interface {
	Sample(ctx context.Context) models.HostTelemetry
	Latest() (models.HostTelemetry, bool)
}

// Options configures a Dashboard.
type Options struct {
	Role    string
	Actor   string
	Service gateway.ContentService

	// RealtimeURL enables the push channel when set.
	RealtimeURL    string
	RealtimeHeader http.Header
	MaxBackoff     time.Duration

	RefreshInterval   time.Duration
	HealthInterval    time.Duration
	NotificationTTL   time.Duration
	HighlightDuration time.Duration

	Sampler HostSampler
	Clock   clockwork.Clock
	Logger  *utils.Logger
}

// Dashboard is one mounted dashboard session.
type Dashboard struct {
	id   string
	opts Options
	log  *utils.Logger

	sched    *scheduler.Scheduler
	notes    *notify.Emitter
	activity *activity.Log
	counters *stats.Counters
	gw       *gateway.Gateway
	adapter  *realtime.Adapter

	mu        sync.RWMutex
	health    models.SystemHealth
	status    string
	lastEvent time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	group     *errgroup.Group
	mounted   bool

	hookMu   sync.RWMutex
	onChange []func(card string)
}

// New builds an unmounted session.
func New(opts Options) *Dashboard {
	if opts.Role != RoleAdmin {
		opts.Role = RoleUser
	}
	if opts.Actor == "" {
		opts.Actor = models.ActorSystem
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.HealthInterval <= 0 {
		opts.HealthInterval = DefaultHealthInterval
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	id := uuid.NewString()
	logger := opts.Logger.With("session", id[:8], "role", opts.Role)
	d := &Dashboard{id: id, opts: opts, log: logger}

	d.sched = scheduler.New(opts.Clock, logger)
	d.notes = notify.NewEmitter(d.sched, opts.NotificationTTL)
	sinks, recent := activity.UserSinks, activity.SinkUserRecent
	if opts.Role == RoleAdmin {
		sinks, recent = activity.AdminSinks, ""
	}
	d.activity = activity.NewLog(opts.Clock.Now, sinks...)
	d.counters = stats.New(opts.Clock.Now, opts.HighlightDuration)
	d.gw = gateway.New(gateway.Deps{
		Service:  opts.Service,
		Notes:    d.notes,
		Activity: d.activity,
		Counters: d.counters,
		Recent:   recent,
		Actor:    opts.Actor,
		Now:      opts.Clock.Now,
		Logger:   logger,
	})

	d.wireChanges()
	d.sched.Every("refresh", opts.RefreshInterval, true, d.pollRefresh)
	if opts.Sampler != nil {
		d.sched.Every("host-telemetry", opts.HealthInterval, true, d.sampleHost)
	}

	if opts.RealtimeURL != "" {
		join := realtime.JoinUser
		if opts.Role == RoleAdmin {
			join = realtime.JoinAdmin
		}
		d.adapter = realtime.New(realtime.Options{
			URL:         opts.RealtimeURL,
			Header:      opts.RealtimeHeader,
			JoinEvent:   join,
			JoinPayload: map[string]string{"username": opts.Actor, "session_id": id},
			MaxBackoff:  opts.MaxBackoff,
			Clock:       opts.Clock,
			Logger:      logger,
		})
		d.routeEvents()
	}
	return d
}

func (d *Dashboard) ID() string { return d.id }

// Mount starts timers and the push channel. Mounting a mounted session is a
// no-op.
func (d *Dashboard) Mount(parent context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mounted {
		return nil
	}
	ctx, cancel := context.WithCancel(parent)
	group, gctx := errgroup.WithContext(ctx)
	d.ctx, d.cancel, d.group = gctx, cancel, group
	d.mounted = true

	d.sched.Start()
	d.notes.Resume()
	if d.adapter != nil {
		adapter := d.adapter
		group.Go(func() error { return adapter.Run(gctx) })
	}
	d.log.Infof("session mounted")
	return nil
}

// Teardown stops timers, disconnects and waits for session goroutines.
// In-flight requests are abandoned.
func (d *Dashboard) Teardown() error {
	d.mu.Lock()
	if !d.mounted {
		d.mu.Unlock()
		return nil
	}
	group, cancel := d.group, d.cancel
	d.group, d.cancel, d.ctx = nil, nil, nil
	d.mounted = false
	cancel()
	d.mu.Unlock()

	d.sched.Stop()
	d.notes.Clear()
	err := group.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	d.log.Infof("session torn down")
	return err
}

// Mounted reports whether the session is running.
func (d *Dashboard) Mounted() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.mounted
}

// OnChange registers fn to be told which card needs re-rendering.
func (d *Dashboard) OnChange(fn func(card string)) {
	if fn == nil {
		return
	}
	d.hookMu.Lock()
	d.onChange = append(d.onChange, fn)
	d.hookMu.Unlock()
}

func (d *Dashboard) changed(cards ...string) {
	d.hookMu.RLock()
	hooks := append([]func(string){}, d.onChange...)
	d.hookMu.RUnlock()
	for _, card := range cards {
		for _, fn := range hooks {
			fn(card)
		}
	}
}

func (d *Dashboard) wireChanges() {
	d.notes.OnChange(func() { d.changed(views.CardNotifications) })
	d.activity.OnChange(func(sink string) { d.changed(views.CardsForSink(sink)...) })
	d.gw.Cache().OnChange(func() { d.changed(views.CardContent) })
	d.gw.Locks().OnChange(func(gateway.ControlState, bool) { d.changed(views.CardContent, views.CardConnection) })
	d.counters.OnChange(func([]stats.Change) {
		d.changed(views.CardStats)
		// re-render once the highlight has faded
		d.sched.After(d.counters.HighlightDuration(), func() { d.changed(views.CardStats) })
	})
}

// Create generates new content.
func (d *Dashboard) Create(ctx context.Context, prompt string, opts models.GenerateOptions) (*gateway.CreateResult, error) {
	return d.gw.Create(ctx, prompt, opts)
}

// Publish publishes a draft.
func (d *Dashboard) Publish(ctx context.Context, id int64) error {
	return d.gw.Publish(ctx, id)
}

// Delete removes content.
func (d *Dashboard) Delete(ctx context.Context, id int64) error {
	return d.gw.Delete(ctx, id)
}

// Refresh reloads content and counters from the service.
func (d *Dashboard) Refresh(ctx context.Context) error {
	return d.gw.Refresh(ctx)
}

func (d *Dashboard) pollRefresh() {
	ctx := d.sessionContext()
	if ctx == nil {
		return
	}
	if err := d.gw.Refresh(ctx); err != nil && !errors.Is(err, gateway.ErrInFlight) && ctx.Err() == nil {
		d.log.Warnf("scheduled refresh failed: %v", err)
	}
}

// refreshAsync reloads without blocking the caller, which is usually the
// push channel's read loop.
func (d *Dashboard) refreshAsync() {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.group == nil {
		return
	}
	ctx := d.ctx
	d.group.Go(func() error {
		if err := d.gw.Refresh(ctx); err != nil && !errors.Is(err, gateway.ErrInFlight) && ctx.Err() == nil {
			d.log.Warnf("push-triggered refresh failed: %v", err)
		}
		return nil
	})
}

func (d *Dashboard) sampleHost() {
	ctx := d.sessionContext()
	if ctx == nil || d.opts.Sampler == nil {
		return
	}
	d.opts.Sampler.Sample(ctx)
	d.changed(views.CardHealth)
}

func (d *Dashboard) sessionContext() context.Context {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ctx
}
