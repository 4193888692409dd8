// Package eventlogger subscribes to every CloudEvent the application emits
// and writes it to the application logger, stdout or a file.
//
// Events are queued on a bounded buffer and written by a single goroutine.
// Events emitted before Start are held in the buffer; when the buffer is
// full the oldest event is dropped. Stop drains the buffer for at most
// drain_timeout.
//
// Each event type has a level: application failures are errors, types
// ending in .failed or .error are warnings, state changes such as
// .created or .started are info and everything else is debug. Only events
// at or above the configured level are written.
package eventlogger

import (
	"context"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/GoCodeAlone/folio"
)

const ModuleName = "eventlogger"

type Module struct {
	config  *Config
	logger  folio.Logger
	subject folio.Subject
	output  OutputTarget

	events   chan cloudevents.Event
	quit     chan struct{}
	done     chan struct{}
	deadline time.Time

	mu      sync.Mutex
	started bool
	stopped bool
	dropped int
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

// Init subscribes to the subject once configuration is known, so the type
// filter is applied by the subject itself.
func (m *Module) Init(app folio.Application) error {
	m.logger = app.Logger()
	if !m.config.Enabled {
		m.logger.Info("Event logger disabled")
		return nil
	}

	output, err := NewOutputTarget(m.config, m.logger)
	if err != nil {
		return err
	}
	m.output = output
	m.events = make(chan cloudevents.Event, m.config.BufferSize)
	m.quit = make(chan struct{})
	m.done = make(chan struct{})

	if m.subject == nil {
		m.logger.Warn("Event logger has no event source; register it on an observable application")
		return nil
	}
	if err := m.subject.RegisterObserver(m, m.config.EventTypes...); err != nil {
		return err
	}
	m.logger.Info("Event logger initialized", "output", m.config.Output, "level", m.config.Level, "buffer", m.config.BufferSize)
	return nil
}

func (m *Module) Start(ctx context.Context) error {
	if m.output == nil {
		return nil
	}
	if err := m.output.Start(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	go m.process()
	return nil
}

func (m *Module) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.started || m.stopped {
		m.stopped = true
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	m.deadline = time.Now().Add(m.config.DrainTimeout)
	dropped := m.dropped
	m.mu.Unlock()

	close(m.quit)
	<-m.done
	if dropped > 0 {
		m.logger.Warn("Event logger dropped events", "count", dropped)
	}
	return m.output.Stop(ctx)
}

func (m *Module) ObserverID() string {
	return ModuleName
}

// OnEvent queues event for writing. A full buffer drops its oldest event.
func (m *Module) OnEvent(_ context.Context, event cloudevents.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return nil
	}
	if m.events == nil {
		return ErrLoggerNotStarted
	}

	select {
	case m.events <- event:
		return nil
	default:
	}

	select {
	case <-m.events:
		m.dropped++
	default:
	}
	select {
	case m.events <- event:
		return nil
	default:
		m.dropped++
		return ErrEventBufferFull
	}
}

func (m *Module) process() {
	defer close(m.done)
	for {
		select {
		case event := <-m.events:
			m.logEvent(event)
		case <-m.quit:
			m.drain()
			return
		}
	}
}

func (m *Module) drain() {
	m.mu.Lock()
	deadline := m.deadline
	m.mu.Unlock()
	for time.Now().Before(deadline) {
		select {
		case event := <-m.events:
			m.logEvent(event)
		default:
			return
		}
	}
}

func (m *Module) logEvent(event cloudevents.Event) {
	level := eventLevel(event.Type(), m.config.InfoTypes)
	if !shouldLogLevel(level, m.config.Level) {
		return
	}

	entry := &LogEntry{
		Timestamp: event.Time(),
		Level:     level,
		Type:      event.Type(),
		Source:    event.Source(),
		ID:        event.ID(),
	}
	if len(event.Data()) > 0 {
		var data any
		if err := event.DataAs(&data); err != nil {
			data = string(event.Data())
		}
		entry.Data = data
	}
	if ext := event.Extensions(); len(ext) > 0 {
		entry.Metadata = make(map[string]any, len(ext))
		for k, v := range ext {
			entry.Metadata[k] = v
		}
	}

	if err := m.output.WriteEvent(entry); err != nil {
		m.logger.Error("Failed to write event", "eventType", event.Type(), "error", err)
	}
}
