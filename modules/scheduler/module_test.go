package scheduler

import (
	"context"
	"reflect"
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/folio"
)

type jobScheduler interface {
	Schedule(name, spec string, job func(ctx context.Context) error) error
}

// consumerModule schedules a job on the optional "scheduler" service, the
// way the auth module does.
type consumerModule struct {
	scheduler jobScheduler
}

func (c *consumerModule) Name() string { return "consumer" }

func (c *consumerModule) Init(folio.Application) error {
	if c.scheduler == nil {
		return nil
	}
	return c.scheduler.Schedule("consumer.sweep", "@hourly", noop)
}

func (c *consumerModule) ProvidesServices() []folio.ServiceProvider { return nil }

func (c *consumerModule) RequiresServices() []folio.ServiceDependency {
	return []folio.ServiceDependency{{
		Name:               ServiceName,
		SatisfiesInterface: reflect.TypeOf((*jobScheduler)(nil)).Elem(),
	}}
}

func (c *consumerModule) Constructor() folio.ModuleConstructor {
	return func(_ folio.Application, services map[string]any) (folio.Module, error) {
		if s, ok := services[ServiceName].(jobScheduler); ok {
			c.scheduler = s
		}
		return c, nil
	}
}

func TestModule_ProvidesSchedulerToConsumers(t *testing.T) {
	app := folio.NewStdApplication(nil, testLogger())
	consumer := &consumerModule{}
	module := NewModule()
	app.RegisterModule(consumer)
	app.RegisterModule(module)

	require.NoError(t, app.Init())
	require.NotNil(t, consumer.scheduler)

	var svc *Scheduler
	require.NoError(t, app.GetService(ServiceName, &svc))
	assert.Same(t, module.Scheduler(), svc)

	jobs, err := svc.Jobs()
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "consumer.sweep", jobs[0].Name)

	require.NoError(t, app.Start())
	require.NoError(t, app.Stop())
}

func TestModule_EmitsJobEvents(t *testing.T) {
	app := folio.NewObservableApplication(nil, testLogger())
	module := NewModule()
	app.RegisterModule(module)

	completed := make(chan cloudevents.Event, 1)
	require.NoError(t, app.RegisterObserver(folio.NewFunctionalObserver("test", func(_ context.Context, event cloudevents.Event) error {
		completed <- event
		return nil
	}), EventTypeJobCompleted))

	require.NoError(t, app.Init())
	require.NoError(t, module.Scheduler().Schedule("ping", "@daily", noop))
	require.NoError(t, module.Scheduler().RunNow(context.Background(), "ping"))

	select {
	case event := <-completed:
		assert.Equal(t, "scheduler-module", event.Source())
		var data map[string]any
		require.NoError(t, event.DataAs(&data))
		assert.Equal(t, "ping", data["job"])
	case <-time.After(time.Second):
		t.Fatal("no completed event")
	}
	require.NoError(t, app.Stop())
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{Timezone: "UTC"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 1, cfg.HistorySize)
	assert.Equal(t, time.UTC, cfg.location())

	cfg = &Config{Timezone: "Mars/Olympus_Mons"}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = &Config{Timezone: "UTC", JobTimeout: -time.Second}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
