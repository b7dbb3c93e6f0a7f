// Package dispatcher routes inbound message events to the adapter handler
// registered for their schema kind. Routing is resolved once per message
// from the kind tag. Dispatch is synchronous: one event is fully processed
// before the next is accepted.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fieldview/fieldview/pkg/schema"
)

// HandlerFunc processes one message event.
type HandlerFunc func(schema.MessageEvent) error

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	logged bool
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	handlers map[schema.Kind]HandlerFunc
	logger   Logger

	processed metric.Int64Counter
	failed    metric.Int64Counter
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[schema.Kind]HandlerFunc),
		logger:   logger,
	}

	m := meter()
	var err error

	d.processed, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Total events processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.failed, err = m.Int64Counter(
		"dispatcher.events.failed",
		metric.WithDescription("Total events whose handler returned an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given schema kind with optional
// configuration.
func (d *Dispatcher) Register(kind schema.Kind, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h
	if cfg.logged {
		handler = d.withLogging(kind, handler)
	}

	d.handlers[kind] = handler
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e schema.MessageEvent) error {
	h, ok := d.handlers[e.Kind]
	if !ok {
		return fmt.Errorf("no handler for schema kind %s", e.Kind)
	}

	attrs := metric.WithAttributes(attribute.String("kind", e.Kind.String()))
	err := h(e)
	if err != nil {
		d.failed.Add(context.Background(), 1, attrs)
		return err
	}
	d.processed.Add(context.Background(), 1, attrs)
	return nil
}

// HasHandler returns true if a handler is registered for the kind.
func (d *Dispatcher) HasHandler(kind schema.Kind) bool {
	_, ok := d.handlers[kind]
	return ok
}

func (d *Dispatcher) withLogging(kind schema.Kind, h HandlerFunc) HandlerFunc {
	return func(e schema.MessageEvent) error {
		start := time.Now()
		d.logger.Debug("handling event", "kind", kind.String(), "channel", e.Channel)

		err := h(e)

		if err != nil {
			d.logger.Error("event failed", "kind", kind.String(), "channel", e.Channel,
				"duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "kind", kind.String(), "channel", e.Channel,
				"duration", time.Since(start))
		}

		return err
	}
}
