// Package storage archives accepted canonical payloads for later replay and
// review. The archive sits behind the registry: a write failure is logged
// and never affects rendering.
package storage

import (
	"github.com/fieldview/fieldview/internal/model"
)

// Backend is the interface all archive implementations must satisfy.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Accepted-update recording
	RecordTrajectory(channel string, pa *model.PoseArray) error
	RecordGrid(channel string, g *model.OccupancyGrid) error
}
