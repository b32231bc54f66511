package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
	"git.home.luguber.info/inful/smartcart/internal/logfields"
)

const tickJobName = "detection-tick"

// Scheduler runs the detection tick as a singleton gocron duration job: a
// tick that overruns its interval delays the next one instead of overlapping.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger

	mu       sync.Mutex
	jobID    uuid.UUID
	interval time.Duration
	task     func()
}

func NewScheduler(clock clockwork.Clock, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []gocron.SchedulerOption{gocron.WithLogger(logger.With(slog.String("component", "gocron")))}
	if clock != nil {
		opts = append(opts, gocron.WithClock(clock))
	}
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryDaemon, "failed to create scheduler").Build()
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// ScheduleTick registers task every interval, starting immediately.
func (s *Scheduler) ScheduleTick(interval time.Duration, task func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName(tickJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryDaemon, "failed to schedule detection tick").
			WithContext("interval", interval.String()).
			Build()
	}
	s.jobID, s.interval, s.task = job.ID(), interval, task
	return nil
}

// Reschedule changes the tick interval of the running job.
func (s *Scheduler) Reschedule(interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.task == nil {
		return errors.DaemonError("detection tick not scheduled").Build()
	}
	if interval == s.interval {
		return nil
	}
	job, err := s.scheduler.Update(s.jobID,
		gocron.DurationJob(interval),
		gocron.NewTask(s.task),
		gocron.WithName(tickJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryDaemon, "failed to reschedule detection tick").
			WithContext("interval", interval.String()).
			Build()
	}
	s.logger.Info("Detection interval changed", slog.Duration("from", s.interval), slog.Duration("to", interval))
	s.jobID, s.interval = job.ID(), interval
	return nil
}

func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// NextRun reports when the next tick fires; ok is false before scheduling.
func (s *Scheduler) NextRun() (next time.Time, ok bool) {
	s.mu.Lock()
	id := s.jobID
	s.mu.Unlock()
	for _, j := range s.scheduler.Jobs() {
		if j.ID() != id {
			continue
		}
		t, err := j.NextRun()
		return t, err == nil && !t.IsZero()
	}
	return time.Time{}, false
}

func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler", slog.Duration("interval", s.Interval()))
	s.scheduler.Start()
}

// Stop shuts gocron down; a running tick finishes first.
func (s *Scheduler) Stop() error {
	s.logger.Info("Stopping scheduler")
	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Warn("Scheduler shutdown failed", logfields.Error(err))
		return errors.WrapError(err, errors.CategoryDaemon, "failed to stop scheduler").Build()
	}
	return nil
}
