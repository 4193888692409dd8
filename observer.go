package folio

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// Application lifecycle event types.
const (
	EventTypeModuleRegistered   = "com.folio.module.registered"
	EventTypeServiceRegistered  = "com.folio.service.registered"
	EventTypeApplicationStarted = "com.folio.application.started"
	EventTypeApplicationStopped = "com.folio.application.stopped"
	EventTypeApplicationFailed  = "com.folio.application.failed"
)

// Observer receives CloudEvents from a Subject.
type Observer interface {
	OnEvent(ctx context.Context, event cloudevents.Event) error
	ObserverID() string
}

// Subject fans events out to registered observers.
type Subject interface {
	// RegisterObserver subscribes observer to eventTypes, or to every event
	// when none are given.
	RegisterObserver(observer Observer, eventTypes ...string) error
	UnregisterObserver(observer Observer) error
	NotifyObservers(ctx context.Context, event cloudevents.Event) error
	GetObservers() []ObserverInfo
}

// ObserverInfo describes a registered observer.
type ObserverInfo struct {
	ID           string    `json:"id"`
	EventTypes   []string  `json:"eventTypes"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// ObservableModule is implemented by modules that want the application's
// Subject, either to emit events or to subscribe observers.
type ObservableModule interface {
	Module
	RegisterObservers(subject Subject) error
}

// FunctionalObserver adapts a function to Observer.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) *FunctionalObserver {
	return &FunctionalObserver{id: id, handler: handler}
}

func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

func (f *FunctionalObserver) ObserverID() string {
	return f.id
}

// NewCloudEvent builds a CloudEvent with a time-ordered id. Metadata
// entries become extensions.
func NewCloudEvent(eventType, source string, data any, metadata map[string]any) cloudevents.Event {
	event := cloudevents.NewEvent()
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	event.SetID(id.String())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)

	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}
	for key, value := range metadata {
		event.SetExtension(key, value)
	}
	return event
}

type observerRegistration struct {
	observer     Observer
	eventTypes   []string
	registeredAt time.Time
}

func (r *observerRegistration) wants(eventType string) bool {
	return len(r.eventTypes) == 0 || slices.Contains(r.eventTypes, eventType)
}

// ObservableApplication is a StdApplication that is also a Subject. It emits
// lifecycle events and hands itself to ObservableModules during Init.
type ObservableApplication struct {
	*StdApplication
	mu        sync.RWMutex
	observers map[string]*observerRegistration
	wg        sync.WaitGroup
}

func NewObservableApplication(cp ConfigProvider, logger Logger) *ObservableApplication {
	app := &ObservableApplication{
		StdApplication: NewStdApplication(cp, logger),
		observers:      make(map[string]*observerRegistration),
	}
	app.onModuleRegistered = func(m Module) {
		app.emit(EventTypeModuleRegistered, map[string]any{"moduleName": m.Name()})
	}
	app.onServiceRegistered = func(name string, svc any) {
		app.emit(EventTypeServiceRegistered, map[string]any{"serviceName": name, "serviceType": fmt.Sprintf("%T", svc)})
	}
	return app
}

func (app *ObservableApplication) RegisterObserver(observer Observer, eventTypes ...string) error {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.observers[observer.ObserverID()] = &observerRegistration{
		observer:     observer,
		eventTypes:   eventTypes,
		registeredAt: time.Now(),
	}
	app.logger.Debug("Observer registered", "observerID", observer.ObserverID(), "eventTypes", eventTypes)
	return nil
}

func (app *ObservableApplication) UnregisterObserver(observer Observer) error {
	app.mu.Lock()
	defer app.mu.Unlock()
	delete(app.observers, observer.ObserverID())
	return nil
}

func (app *ObservableApplication) GetObservers() []ObserverInfo {
	app.mu.RLock()
	defer app.mu.RUnlock()
	infos := make([]ObserverInfo, 0, len(app.observers))
	for id, reg := range app.observers {
		infos = append(infos, ObserverInfo{ID: id, EventTypes: reg.eventTypes, RegisteredAt: reg.registeredAt})
	}
	slices.SortFunc(infos, func(a, b ObserverInfo) int { return a.RegisteredAt.Compare(b.RegisteredAt) })
	return infos
}

// NotifyObservers delivers event to each interested observer on its own
// goroutine. Observer errors and panics are logged, never returned.
func (app *ObservableApplication) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid event %s: %w", event.Type(), err)
	}

	app.mu.RLock()
	defer app.mu.RUnlock()
	for _, reg := range app.observers {
		if !reg.wants(event.Type()) {
			continue
		}
		app.wg.Add(1)
		go func(o Observer) {
			defer app.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					app.logger.Error("Observer panicked", "observerID", o.ObserverID(), "event", event.Type(), "panic", r)
				}
			}()
			if err := o.OnEvent(context.WithoutCancel(ctx), event); err != nil {
				app.logger.Error("Observer error", "observerID", o.ObserverID(), "event", event.Type(), "error", err)
			}
		}(reg.observer)
	}
	return nil
}

// Init runs StdApplication.Init after handing the subject to every
// ObservableModule.
func (app *ObservableApplication) Init() error {
	for _, name := range app.sortedModuleNames() {
		om, ok := app.moduleRegistry[name].(ObservableModule)
		if !ok {
			continue
		}
		if err := om.RegisterObservers(app); err != nil {
			return fmt.Errorf("failed to register observers for module %s: %w", name, err)
		}
	}
	if err := app.StdApplication.Init(); err != nil {
		app.emit(EventTypeApplicationFailed, map[string]any{"phase": "init", "error": err.Error()})
		return err
	}
	return nil
}

func (app *ObservableApplication) Start() error {
	if err := app.StdApplication.Start(); err != nil {
		app.emit(EventTypeApplicationFailed, map[string]any{"phase": "start", "error": err.Error()})
		return err
	}
	app.emit(EventTypeApplicationStarted, nil)
	return nil
}

// Stop stops every module, emits the stopped event and waits for in-flight
// observer deliveries.
func (app *ObservableApplication) Stop() error {
	err := app.StdApplication.Stop()
	app.emit(EventTypeApplicationStopped, nil)
	app.wg.Wait()
	return err
}

// Run mirrors StdApplication.Run so the observable Init/Start/Stop are used.
func (app *ObservableApplication) Run() error {
	if err := app.Init(); err != nil {
		return err
	}
	if err := app.Start(); err != nil {
		return err
	}
	app.waitForSignal()
	return app.Stop()
}

func (app *ObservableApplication) emit(eventType string, data map[string]any) {
	event := NewCloudEvent(eventType, "application", data, nil)
	if err := app.NotifyObservers(context.Background(), event); err != nil {
		app.logger.Debug("Failed to emit event", "eventType", eventType, "error", err)
	}
}
