// Package scheduler runs recurring background jobs on cron schedules.
//
// The module publishes its *Scheduler as "scheduler". Other modules declare
// an optional dependency on that name and call Schedule during Init:
//
//	sched.Schedule("auth.session-cleanup", "@daily", svc.CleanupSessions)
//
// Jobs start firing when the application starts and Stop waits for runs in
// flight, bounded by shutdown_timeout. Failures are logged and emitted as
// com.folio.scheduler.job.failed events; they never stop the schedule.
package scheduler

import (
	"context"

	"github.com/GoCodeAlone/folio"
)

const (
	ModuleName  = "scheduler"
	ServiceName = "scheduler"
)

type Module struct {
	config    *Config
	scheduler *Scheduler
	logger    folio.Logger
	subject   folio.Subject
}

func NewModule() *Module {
	return &Module{}
}

func (m *Module) Name() string {
	return ModuleName
}

func (m *Module) RegisterConfig(app folio.Application) error {
	m.config = &Config{}
	app.RegisterConfigSection(m.Name(), folio.NewStdConfigProvider(m.config))
	return nil
}

func (m *Module) RegisterObservers(subject folio.Subject) error {
	m.subject = subject
	return nil
}

func (m *Module) Init(app folio.Application) error {
	m.logger = app.Logger()
	m.scheduler = NewScheduler(
		NewMemoryJobStore(m.config.HistorySize),
		WithLogger(m.logger),
		WithLocation(m.config.location()),
		WithJobTimeout(m.config.JobTimeout),
		WithEventEmitter(m.emitEvent),
	)
	m.logger.Info("Scheduler module initialized", "timezone", m.config.Timezone, "jobTimeout", m.config.JobTimeout)
	return nil
}

func (m *Module) ProvidesServices() []folio.ServiceProvider {
	return []folio.ServiceProvider{
		{Name: ServiceName, Description: "Cron job scheduler", Instance: m.scheduler},
	}
}

func (m *Module) RequiresServices() []folio.ServiceDependency {
	return nil
}

func (m *Module) Start(ctx context.Context) error {
	return m.scheduler.Start(ctx)
}

func (m *Module) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.config.ShutdownTimeout)
	defer cancel()
	return m.scheduler.Stop(ctx)
}

// Scheduler returns the scheduler; nil before Init.
func (m *Module) Scheduler() *Scheduler {
	return m.scheduler
}

func (m *Module) emitEvent(ctx context.Context, eventType string, data map[string]any) {
	if m.subject == nil {
		return
	}
	event := folio.NewCloudEvent(eventType, "scheduler-module", data, nil)
	if err := m.subject.NotifyObservers(ctx, event); err != nil {
		m.logger.Debug("Failed to emit event", "eventType", eventType, "error", err)
	}
}
