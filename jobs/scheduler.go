// Package jobs runs the periodic background work: re-reading each bound
// room's window and rolling "today" over at midnight.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"

	"schedulehub/engine"
)

// MidnightSpec fires once a day so dashboards move their "today" marker
const MidnightSpec = "0 0 * * *"

// refreshTimeout bounds a single room refresh
const refreshTimeout = 30 * time.Second

const (
	// SweepSpec paces the release of idle dashboard views
	SweepSpec = "@every 5m"
	// ViewIdle is how long a view without listeners stays bound
	ViewIdle = 30 * time.Minute
)

// Rooms is the part of engine.Hub the scheduler drives
type Rooms interface {
	Each(fn func(roomID string, e *engine.Engine))
}

// ViewSweeper is implemented by hubs that keep per-dashboard views
type ViewSweeper interface {
	ReleaseIdle(maxIdle time.Duration) int
}

// Scheduler wraps a cron runner
type Scheduler struct {
	c     *cron.Cron
	rooms Rooms
}

// New registers the refresh job on refreshSpec (standard five-field cron)
// and the midnight rollover job. When rooms is also a ViewSweeper, idle
// views are released on SweepSpec.
func New(rooms Rooms, refreshSpec string) (*Scheduler, error) {
	s := &Scheduler{
		c:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		rooms: rooms,
	}

	if refreshSpec != "" {
		if _, err := s.c.AddFunc(refreshSpec, s.RefreshAll); err != nil {
			return nil, serr.Wrap(err, "invalid refresh schedule")
		}
	}
	if _, err := s.c.AddFunc(MidnightSpec, s.Rollover); err != nil {
		return nil, serr.Wrap(err, "failed to register rollover job")
	}
	if _, ok := rooms.(ViewSweeper); ok {
		if _, err := s.c.AddFunc(SweepSpec, s.SweepViews); err != nil {
			return nil, serr.Wrap(err, "failed to register view sweep job")
		}
	}
	return s, nil
}

// Start runs the jobs in the background
func (s *Scheduler) Start() {
	s.c.Start()
	logger.Info("Scheduler started", "jobs", len(s.c.Entries()))
}

// Stop halts scheduling and waits for running jobs
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()
	logger.Info("Scheduler stopped")
}

// RefreshAll re-reads the window of every bound room.
// A superseded refresh means the room moved on by itself and is not logged.
func (s *Scheduler) RefreshAll() {
	s.rooms.Each(func(roomID string, e *engine.Engine) {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		if err := e.RefreshWindow(ctx); err != nil {
			if errors.Is(err, engine.ErrSuperseded) {
				return
			}
			logger.LogErr(err, "scheduled refresh failed", "room_id", roomID)
			return
		}
		logger.Debug("Scheduled refresh done", "room_id", roomID)
	})
}

// Rollover notifies listeners so views re-derive today's date
func (s *Scheduler) Rollover() {
	s.rooms.Each(func(roomID string, e *engine.Engine) {
		e.Touch()
	})
}

// SweepViews releases dashboard views idle for ViewIdle
func (s *Scheduler) SweepViews() {
	sw, ok := s.rooms.(ViewSweeper)
	if !ok {
		return
	}
	if n := sw.ReleaseIdle(ViewIdle); n > 0 {
		logger.Info("Idle views released", "count", n)
	}
}
