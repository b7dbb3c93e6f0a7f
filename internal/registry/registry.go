// Package registry owns one renderable entry per subscribed channel and
// drives its create/update/dispose transitions. Entries are created lazily
// on first message, mutated in place on every update, and destroyed only on
// explicit unsubscription. All failures stay scoped to their channel.
//
// Mutations run on the event goroutine; the read-only accessors (Len,
// Channels, Stats, TrajectoryFor) may be called from other goroutines, such
// as the monitor's sampling loop.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fieldview/fieldview/internal/diagnostics"
	"github.com/fieldview/fieldview/internal/grid"
	"github.com/fieldview/fieldview/internal/model"
	"github.com/fieldview/fieldview/internal/scene"
	"github.com/fieldview/fieldview/internal/settings"
)

// SettingsSource supplies the external configuration layers merged into each
// entry's snapshot.
type SettingsSource interface {
	GlobalDefaults() settings.Partial
	Override(channel string) settings.Partial
}

// Archive optionally records accepted canonical payloads. Archive failures
// never affect rendering.
type Archive interface {
	RecordTrajectory(channel string, pa *model.PoseArray) error
	RecordGrid(channel string, g *model.OccupancyGrid) error
}

// Dependencies holds everything the registry needs.
type Dependencies struct {
	Graph       scene.Graph
	Settings    SettingsSource
	Diagnostics diagnostics.Reporter
	Logger      *slog.Logger
	Decoder     *grid.Decoder
	Renderer    *grid.Renderer
	Archive     Archive // optional
}

// Registry is the renderable lifecycle registry.
type Registry struct {
	deps Dependencies
	root *scene.Transform

	mu      sync.RWMutex
	entries map[string]*Entry

	updates  metric.Int64Counter
	rejected metric.Int64Counter
}

// New creates a registry and attaches its root node to the scene graph.
func New(deps Dependencies) (*Registry, error) {
	r := &Registry{
		deps:    deps,
		root:    scene.NewTransform(),
		entries: make(map[string]*Entry),
	}
	deps.Graph.Attach(r.root, nil)

	m := meter()
	var err error

	r.updates, err = m.Int64Counter(
		"registry.updates.accepted",
		metric.WithDescription("Accepted channel updates"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating updates counter: %w", err)
	}
	r.rejected, err = m.Int64Counter(
		"registry.updates.rejected",
		metric.WithDescription("Rejected channel updates"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rejected counter: %w", err)
	}

	channels, err := m.Int64ObservableGauge(
		"registry.channels",
		metric.WithDescription("Currently registered channels"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating channels gauge: %w", err)
	}
	_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		o.ObserveInt64(channels, int64(r.Len()))
		return nil
	}, channels)
	if err != nil {
		return nil, fmt.Errorf("registering channels callback: %w", err)
	}

	return r, nil
}

// Upsert processes one canonical message for a channel: the entry is created
// on first contact and mutated in place afterwards. A rejected update leaves
// the entry showing its last accepted state.
func (r *Registry) Upsert(channel string, msg model.Canonical, receiveTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.entryFor(channel)
	e.ReceiveTime = receiveTime

	attrs := metric.WithAttributes(attribute.String("channel", channel))

	var err error
	if msg.IsGrid() {
		err = r.applyGrid(e, msg)
	} else {
		err = r.applyPoseArray(e, msg)
	}
	if err != nil {
		r.rejected.Add(context.Background(), 1, attrs)
		return
	}
	r.updates.Add(context.Background(), 1, attrs)
}

// RemoveChannel destroys the channel's entry, releasing every graphics
// resource it transitively owns. Removing an unknown or already-removed
// channel is a no-op.
func (r *Registry) RemoveChannel(channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[channel]
	if !ok {
		return
	}
	delete(r.entries, channel)
	e.dispose(r.deps.Graph)
	r.deps.Logger.Debug("channel removed", "channel", channel)
}

// SettingsChangedFor recomputes the named channel's snapshot and performs
// the minimum rebuild: a pool-field change releases exactly the pools the
// new configuration does not use, an appearance change reapplies in place.
// Other channels are never touched.
func (r *Registry) SettingsChangedFor(channel string, local settings.Partial) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[channel]
	if !ok {
		return
	}

	next := settings.Resolve(settings.Defaults(), r.deps.Settings.GlobalDefaults(), local)
	prev := e.snapshot
	e.snapshot = next

	switch {
	case !prev.PoolFieldsEqual(next):
		e.releaseUnusedPools(next)
		r.resync(e)
	case !prev.AppearanceEqual(next):
		r.resync(e)
	}
}

// resync rebuilds the entry's scene state from its last accepted payload,
// used after a settings change so the display does not wait for the next
// message.
func (r *Registry) resync(e *Entry) {
	e.node.SetVisible(e.snapshot.Visible)
	if e.lastGrid != nil {
		r.renderGrid(e, e.lastGrid)
		return
	}
	if e.last.PoseArray != nil {
		r.syncPools(e)
	}
}

// entryFor returns the channel's entry, creating and attaching it on first
// contact with a snapshot resolved from the configuration layers. The caller
// holds the write lock.
func (r *Registry) entryFor(channel string) *Entry {
	if e, ok := r.entries[channel]; ok {
		return e
	}
	snap := settings.Resolve(
		settings.Defaults(),
		r.deps.Settings.GlobalDefaults(),
		r.deps.Settings.Override(channel),
	)
	e := newEntry(channel, snap)
	e.node.SetVisible(snap.Visible)
	r.deps.Graph.Attach(e.node, r.root)
	r.entries[channel] = e
	r.deps.Logger.Debug("channel registered", "channel", channel, "mode", snap.Mode.String())
	return e
}

func (r *Registry) applyPoseArray(e *Entry, msg model.Canonical) error {
	pa := msg.PoseArray
	if pa == nil {
		r.deps.Diagnostics.ReportError(e.Channel, diagnostics.CodeBadMessage,
			"payload carries neither poses nor a grid")
		return errors.New("empty canonical payload")
	}
	e.MessageTime = pa.Header.Stamp
	e.FrameID = pa.Header.FrameID
	e.last = msg

	if err := r.syncPools(e); err != nil {
		return err
	}

	if r.deps.Archive != nil {
		if err := r.deps.Archive.RecordTrajectory(e.Channel, pa); err != nil {
			r.deps.Logger.Error("archiving trajectory", "channel", e.Channel, "error", err)
		}
	}
	return nil
}

func (r *Registry) applyGrid(e *Entry, msg model.Canonical) error {
	raw := msg.Grid
	e.MessageTime = raw.Header.Stamp
	e.FrameID = raw.Header.FrameID

	g, err := r.deps.Decoder.Decode(e.Channel, raw)
	if err != nil {
		var dimErr *grid.DecodeError
		if errors.As(err, &dimErr) {
			r.deps.Diagnostics.ReportError(e.Channel, diagnostics.CodeMalformedGrid,
				fmt.Sprintf("grid rejected: expected %d cells, got %d", dimErr.Expected, dimErr.Actual))
		} else {
			r.deps.Diagnostics.ReportError(e.Channel, diagnostics.CodeMalformedGrid, err.Error())
		}
		return err
	}

	e.last = msg
	e.lastGrid = g
	e.Origin = g.Info.Origin
	r.renderGrid(e, g)

	if r.deps.Archive != nil {
		if err := r.deps.Archive.RecordGrid(e.Channel, g); err != nil {
			r.deps.Logger.Error("archiving grid", "channel", e.Channel, "error", err)
		}
	}
	return nil
}

func (r *Registry) renderGrid(e *Entry, g *model.OccupancyGrid) {
	e.rgba = r.deps.Renderer.Render(g, e.Channel, e.rgba)
	if e.texture == nil {
		e.texture = grid.NewTexture(r.deps.Graph, e.node)
	}
	e.texture.Apply(g, e.rgba)
}

// Len returns the number of registered channels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Channels returns the registered channel names, sorted.
func (r *Registry) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channelNames()
}

// channelNames collects the sorted channel names. The caller holds the lock.
func (r *Registry) channelNames() []string {
	out := make([]string, 0, len(r.entries))
	for name := range r.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ChannelStat is a point-in-time summary of one channel, consumed by the
// monitor service.
type ChannelStat struct {
	Channel     string
	FrameID     string
	Poses       int
	GridCells   int
	MessageTime int64
}

// Stats summarizes every registered channel.
func (r *Registry) Stats() []ChannelStat {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ChannelStat, 0, len(r.entries))
	for _, name := range r.channelNames() {
		e := r.entries[name]
		s := ChannelStat{Channel: name, FrameID: e.FrameID, MessageTime: e.MessageTime}
		if e.lastGrid != nil {
			s.GridCells = e.lastGrid.CellCount()
		}
		s.Poses = e.last.PoseArray.Len()
		out = append(out, s)
	}
	return out
}

// TrajectoryFor exposes a channel's last accepted pose array and origin for
// export tooling. ok is false for grid channels and unknown channels.
func (r *Registry) TrajectoryFor(channel string) (origin model.Pose, pa *model.PoseArray, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, found := r.entries[channel]
	if !found || e.last.PoseArray == nil {
		return model.Pose{}, nil, false
	}
	return e.Origin, e.last.PoseArray, true
}
