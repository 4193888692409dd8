package scheduler

import "errors"

var (
	ErrInvalidConfig    = errors.New("invalid scheduler config")
	ErrJobExists        = errors.New("job already scheduled")
	ErrJobNotFound      = errors.New("job not found")
	ErrInvalidSchedule  = errors.New("invalid cron schedule")
	ErrNilJob           = errors.New("job function is nil")
	ErrShutdownTimeout  = errors.New("timed out waiting for running jobs")
	ErrSchedulerStopped = errors.New("scheduler is stopped")
)
