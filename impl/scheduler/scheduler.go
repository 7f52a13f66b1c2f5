// Package scheduler drives the scheduled-broadcast dispatcher on a fixed
// interval. The interval is configuration, not policy: the low job volume
// makes a simple periodic sweep sufficient.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"linktrack/lib/sl"

	"github.com/robfig/cron/v3"
)

// Dispatcher is the due-job sweep executed on every tick.
// Implemented by core.Core.
type Dispatcher interface {
	DispatchDue(now time.Time) (int, error)
}

type Scheduler struct {
	cron       *cron.Cron
	dispatcher Dispatcher
	interval   time.Duration
	log        *slog.Logger
}

func New(dispatcher Dispatcher, interval time.Duration, log *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		cron:       cron.New(),
		dispatcher: dispatcher,
		interval:   interval,
		log:        log.With(sl.Module("scheduler")),
	}
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.tick)
	if err != nil {
		return fmt.Errorf("register dispatch job: %w", err)
	}
	s.cron.Start()
	s.log.Info("dispatcher started", slog.Duration("interval", s.interval))
	return nil
}

// Stop halts ticking and waits for an in-flight sweep to finish. A send
// attempt already started runs to completion; there is no cancellation.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("dispatcher stopped")
}

func (s *Scheduler) tick() {
	dispatched, err := s.dispatcher.DispatchDue(time.Now())
	if err != nil {
		s.log.Error("dispatch tick", sl.Err(err))
		return
	}
	if dispatched > 0 {
		s.log.Debug("dispatch tick", slog.Int("jobs", dispatched))
	}
}
