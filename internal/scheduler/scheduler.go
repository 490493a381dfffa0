// Package scheduler owns the timers and intervals of one dashboard session.
// Jobs only run between Start and Stop; Stop cancels pending timers and waits
// for interval loops to exit so repeated mounts never leak goroutines.
package scheduler

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"tweetdash/internal/utils"
)

// Timer cancels a pending one-shot callback.
type Timer interface {
	Stop() bool
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return false }

type intervalJob struct {
	name     string
	interval time.Duration
	fn       func()
	runNow   bool
}

// Scheduler runs one-shot and periodic callbacks against a clock.
type Scheduler struct {
	clock  clockwork.Clock
	logger *utils.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	jobs    []intervalJob
	timers  map[uint64]clockwork.Timer
	nextID  uint64
	wg      sync.WaitGroup
}

// New creates a stopped scheduler. A nil clock uses the real clock.
func New(clock clockwork.Clock, logger *utils.Logger) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		clock:  clock,
		logger: logger,
		timers: make(map[uint64]clockwork.Timer),
	}
}

// Clock returns the clock jobs are scheduled on.
func (s *Scheduler) Clock() clockwork.Clock {
	return s.clock
}

// Now returns the scheduler clock's current time.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Every registers a periodic job. Jobs registered before Start begin when the
// scheduler starts; jobs registered while running begin immediately. When
// runNow is set the job also fires once at start.
func (s *Scheduler) Every(name string, interval time.Duration, runNow bool, fn func()) {
	if fn == nil || interval <= 0 {
		return
	}
	job := intervalJob{name: name, interval: interval, fn: fn, runNow: runNow}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	if s.running {
		s.launchLocked(job)
	}
}

// After runs fn once after d. Calls made while the scheduler is stopped are
// dropped and return a no-op timer.
func (s *Scheduler) After(d time.Duration, fn func()) Timer {
	if fn == nil {
		return noopTimer{}
	}
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Debugf("scheduler: dropping timer registered while stopped")
		return noopTimer{}
	}
	s.nextID++
	id := s.nextID
	s.timers[id] = nil
	s.mu.Unlock()

	t := s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		_, live := s.timers[id]
		delete(s.timers, id)
		s.mu.Unlock()
		if live {
			s.safeRun("timer", fn)
		}
	})

	s.mu.Lock()
	if _, live := s.timers[id]; live {
		s.timers[id] = t
	}
	s.mu.Unlock()
	return &handle{s: s, id: id, t: t}
}

type handle struct {
	s  *Scheduler
	id uint64
	t  clockwork.Timer
}

func (h *handle) Stop() bool {
	h.s.mu.Lock()
	delete(h.s.timers, h.id)
	h.s.mu.Unlock()
	return h.t.Stop()
}

// Start launches registered interval jobs. Starting twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	for _, job := range s.jobs {
		s.launchLocked(job)
	}
}

// Running reports whether the scheduler is started.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stop cancels pending timers, stops interval loops and waits for them.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	for id, t := range s.timers {
		if t != nil {
			t.Stop()
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Pending returns the number of one-shot timers not yet fired.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Scheduler) launchLocked(job intervalJob) {
	stop := s.stop
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := s.clock.NewTicker(job.interval)
		defer ticker.Stop()
		if job.runNow {
			s.safeRun(job.name, job.fn)
		}
		for {
			select {
			case <-ticker.Chan():
				s.safeRun(job.name, job.fn)
			case <-stop:
				return
			}
		}
	}()
}

func (s *Scheduler) safeRun(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("scheduler: panic in %s: %v", name, r)
		}
	}()
	fn()
}
