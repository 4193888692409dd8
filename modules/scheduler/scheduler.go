package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/GoCodeAlone/folio"
)

// JobFunc is the work run on each tick.
type JobFunc = func(ctx context.Context) error

// EventEmitter receives job lifecycle events.
type EventEmitter func(ctx context.Context, eventType string, data map[string]any)

type entry struct {
	id       cron.EntryID
	schedule cron.Schedule
	fn       JobFunc
}

// Scheduler runs named jobs on cron schedules. Specs use the standard five
// fields, an optional leading seconds field, or descriptors such as @daily
// and @every 1h. A job never overlaps with itself.
type Scheduler struct {
	cron     *cron.Cron
	parser   cron.Parser
	store    JobStore
	logger   folio.Logger
	location *time.Location
	timeout  time.Duration
	emit     EventEmitter
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	stopped bool
}

type Option func(*Scheduler)

func WithLogger(logger folio.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithJobTimeout bounds every run; zero means no deadline.
func WithJobTimeout(timeout time.Duration) Option {
	return func(s *Scheduler) {
		s.timeout = timeout
	}
}

func WithEventEmitter(emit EventEmitter) Option {
	return func(s *Scheduler) {
		s.emit = emit
	}
}

func NewScheduler(store JobStore, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    store,
		location: time.Local,
		parser:   cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		now:      time.Now,
		entries:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = discardLogger{}
	}
	if s.emit == nil {
		s.emit = func(context.Context, string, map[string]any) {}
	}

	logger := cronLogger{s.logger}
	s.cron = cron.New(
		cron.WithLocation(s.location),
		cron.WithParser(s.parser),
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger)),
	)
	return s
}

// Schedule registers job under name. Jobs may be added before or after
// Start; names are unique.
func (s *Scheduler) Schedule(name, spec string, job func(ctx context.Context) error) error {
	if name == "" {
		return fmt.Errorf("%w: job name is empty", ErrInvalidSchedule)
	}
	if job == nil {
		return ErrNilJob
	}
	schedule, err := s.parser.Parse(spec)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidSchedule, spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrSchedulerStopped
	}
	if err := s.store.AddJob(Job{Name: name, Schedule: spec, Status: JobStatusIdle, CreatedAt: s.now()}); err != nil {
		return fmt.Errorf("%w: %s", err, name)
	}

	e := &entry{schedule: schedule, fn: job}
	e.id = s.cron.Schedule(schedule, cron.FuncJob(func() {
		_ = s.run(s.jobContext(), name, job)
	}))
	s.entries[name] = e

	s.logger.Info("Job scheduled", "job", name, "schedule", spec)
	s.emit(context.Background(), EventTypeJobScheduled, map[string]any{"job": name, "schedule": spec})
	return nil
}

// Remove unschedules a job and drops its history. A run already in
// progress finishes.
func (s *Scheduler) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	s.cron.Remove(e.id)
	delete(s.entries, name)
	if err := s.store.DeleteJob(name); err != nil && !errors.Is(err, ErrJobNotFound) {
		return err
	}
	s.emit(context.Background(), EventTypeJobRemoved, map[string]any{"job": name})
	return nil
}

// RunNow runs a scheduled job immediately on the calling goroutine and
// returns its error.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.run(ctx, name, e.fn)
}

func (s *Scheduler) Job(name string) (Job, error) {
	job, err := s.store.GetJob(name)
	if err != nil {
		return Job{}, fmt.Errorf("%w: %s", err, name)
	}
	s.fillNextRun(&job)
	return job, nil
}

// Jobs lists every job sorted by name.
func (s *Scheduler) Jobs() ([]Job, error) {
	jobs, err := s.store.GetJobs()
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		s.fillNextRun(&jobs[i])
	}
	return jobs, nil
}

// History returns the retained executions of a job, oldest first.
func (s *Scheduler) History(name string) ([]JobExecution, error) {
	history, err := s.store.GetJobExecutions(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, name)
	}
	return history, nil
}

func (s *Scheduler) fillNextRun(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[job.Name]
	if !ok {
		return
	}
	next := s.cron.Entry(e.id).Next
	if next.IsZero() {
		next = e.schedule.Next(s.now().In(s.location))
	}
	job.NextRun = &next
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrSchedulerStopped
	}
	if s.running {
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.running = true

	s.logger.Info("Scheduler started", "jobs", len(s.entries), "location", s.location.String())
	s.emit(ctx, EventTypeSchedulerStarted, map[string]any{"jobs": len(s.entries)})
	return nil
}

// Stop prevents new runs and waits for running jobs until ctx is done, at
// which point their contexts are cancelled and ErrShutdownTimeout returned.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	wasRunning := s.running
	s.running = false
	s.stopped = true
	s.mu.Unlock()
	if !wasRunning {
		return nil
	}

	var err error
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		err = ErrShutdownTimeout
	}
	s.cancel()

	s.logger.Info("Scheduler stopped")
	s.emit(context.Background(), EventTypeSchedulerStopped, nil)
	return err
}

func (s *Scheduler) jobContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func (s *Scheduler) run(ctx context.Context, name string, fn JobFunc) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := s.now()
	s.updateJob(name, func(job *Job) {
		job.Status = JobStatusRunning
	})
	s.logger.Debug("Job started", "job", name)
	s.emit(ctx, EventTypeJobStarted, map[string]any{"job": name})

	err := invoke(ctx, fn)

	execution := JobExecution{JobName: name, StartTime: start, EndTime: s.now(), Status: JobStatusCompleted}
	if err != nil {
		execution.Status = JobStatusFailed
		execution.Error = err.Error()
		s.logger.Error("Job failed", "job", name, "duration", execution.Duration(), "error", err)
		s.emit(ctx, EventTypeJobFailed, map[string]any{"job": name, "error": err.Error()})
	} else {
		s.logger.Debug("Job completed", "job", name, "duration", execution.Duration())
		s.emit(ctx, EventTypeJobCompleted, map[string]any{"job": name, "durationMs": execution.Duration().Milliseconds()})
	}

	s.updateJob(name, func(job *Job) {
		job.Status = execution.Status
		job.LastRun = &execution.StartTime
		job.LastError = execution.Error
		job.Runs++
	})
	if err := s.store.AddJobExecution(execution); err != nil && !errors.Is(err, ErrJobNotFound) {
		s.logger.Warn("Failed to record job execution", "job", name, "error", err)
	}
	return err
}

// updateJob applies fn to the stored job; jobs removed mid-run are ignored.
func (s *Scheduler) updateJob(name string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.store.GetJob(name)
	if err != nil {
		return
	}
	fn(&job)
	if err := s.store.UpdateJob(job); err != nil {
		s.logger.Warn("Failed to update job", "job", name, "error", err)
	}
}

func invoke(ctx context.Context, fn JobFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return fn(ctx)
}

// cronLogger adapts folio.Logger to cron.Logger. Cron's own info messages
// are noisy and go to debug.
type cronLogger struct {
	logger folio.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

type discardLogger struct{}

func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Debug(string, ...any) {}
