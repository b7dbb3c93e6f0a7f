// Package pipeline binds the normalization adapters to the lifecycle
// registry: one message event is normalized and applied end to end before
// the next is accepted.
package pipeline

import (
	"log/slog"

	"github.com/fieldview/fieldview/internal/adapter"
	"github.com/fieldview/fieldview/internal/diagnostics"
	"github.com/fieldview/fieldview/internal/dispatcher"
	"github.com/fieldview/fieldview/internal/registry"
	"github.com/fieldview/fieldview/pkg/schema"
)

// Dependencies holds everything the pipeline needs.
type Dependencies struct {
	Adapter     *adapter.Adapter
	Registry    *registry.Registry
	Diagnostics diagnostics.Reporter
	Logger      *slog.Logger
}

// Service wires message events through normalization into the registry.
type Service struct {
	deps Dependencies
}

// NewService creates the pipeline service.
func NewService(deps Dependencies) *Service {
	return &Service{deps: deps}
}

// Handle processes one message event synchronously. Normalization failures
// are reported against the event's channel and do not disturb other
// channels.
func (s *Service) Handle(ev schema.MessageEvent) error {
	canonical, err := s.deps.Adapter.Normalize(ev)
	if err != nil {
		s.deps.Diagnostics.ReportError(ev.Channel, diagnostics.CodeBadMessage, err.Error())
		return err
	}
	s.deps.Registry.Upsert(ev.Channel, canonical, ev.ReceiveTime)
	return nil
}

// RegisterAll registers the pipeline for every known schema kind on the
// dispatcher.
func (s *Service) RegisterAll(d *dispatcher.Dispatcher, opts ...dispatcher.Option) {
	kinds := []schema.Kind{
		schema.KindPoseArray,
		schema.KindPath,
		schema.KindPosesInFrame,
		schema.KindRobotStatePath,
		schema.KindVendorCostmap,
		schema.KindGrid,
	}
	for _, k := range kinds {
		d.Register(k, s.Handle, opts...)
	}
	s.deps.Logger.Debug("pipeline handlers registered", "kinds", len(kinds))
}
