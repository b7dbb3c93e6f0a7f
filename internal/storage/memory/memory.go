// Package memory provides the in-memory archive backend used by tests and
// by deployments that skip persistence.
package memory

import (
	"sync"

	"github.com/fieldview/fieldview/internal/model"
)

// TrajectoryRecord groups a channel's recorded pose arrays.
type TrajectoryRecord struct {
	Channel string
	Samples []model.PoseArray
}

// GridRecord groups a channel's recorded grids.
type GridRecord struct {
	Channel string
	Samples []model.OccupancyGrid
}

// Backend stores accepted payloads in memory.
type Backend struct {
	mu           sync.RWMutex
	trajectories map[string]*TrajectoryRecord
	grids        map[string]*GridRecord
}

// New creates a new memory backend.
func New() *Backend {
	return &Backend{
		trajectories: make(map[string]*TrajectoryRecord),
		grids:        make(map[string]*GridRecord),
	}
}

// Init initializes the backend.
func (b *Backend) Init() error { return nil }

// Close cleans up resources.
func (b *Backend) Close() error { return nil }

// RecordTrajectory appends a pose array to the channel's record.
func (b *Backend) RecordTrajectory(channel string, pa *model.PoseArray) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.trajectories[channel]
	if !ok {
		rec = &TrajectoryRecord{Channel: channel}
		b.trajectories[channel] = rec
	}
	rec.Samples = append(rec.Samples, *pa)
	return nil
}

// RecordGrid appends a grid to the channel's record.
func (b *Backend) RecordGrid(channel string, g *model.OccupancyGrid) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.grids[channel]
	if !ok {
		rec = &GridRecord{Channel: channel}
		b.grids[channel] = rec
	}
	rec.Samples = append(rec.Samples, *g)
	return nil
}

// Trajectories returns the recorded pose arrays for a channel.
func (b *Backend) Trajectories(channel string) []model.PoseArray {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.trajectories[channel]
	if !ok {
		return nil
	}
	out := make([]model.PoseArray, len(rec.Samples))
	copy(out, rec.Samples)
	return out
}

// Grids returns the recorded grids for a channel.
func (b *Backend) Grids(channel string) []model.OccupancyGrid {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.grids[channel]
	if !ok {
		return nil
	}
	out := make([]model.OccupancyGrid, len(rec.Samples))
	copy(out, rec.Samples)
	return out
}
