package logging

import (
	"context"
	"log/slog"
)

// Fanout is a slog.Handler that forwards every record to each of its
// children. A failing child never blocks the others.
type Fanout struct {
	children []slog.Handler
}

// NewFanout creates a fanout handler, skipping nil children.
func NewFanout(children ...slog.Handler) *Fanout {
	kept := make([]slog.Handler, 0, len(children))
	for _, h := range children {
		if h != nil {
			kept = append(kept, h)
		}
	}
	return &Fanout{children: kept}
}

func (f *Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.children {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *Fanout) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range f.children {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		// Deliver to the remaining children even when one fails.
		_ = h.Handle(ctx, r.Clone())
	}
	return nil
}

func (f *Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.children))
	for i, h := range f.children {
		next[i] = h.WithAttrs(attrs)
	}
	return &Fanout{children: next}
}

func (f *Fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	next := make([]slog.Handler, len(f.children))
	for i, h := range f.children {
		next[i] = h.WithGroup(name)
	}
	return &Fanout{children: next}
}
