// Package gormstore implements the archive backend on a GORM-managed
// database. SQLite serves single-host deployments; Postgres serves shared
// ones. Pose payloads are stored as JSON documents, grid payloads as
// metadata rows (full cell data is too hot to persist per update).
package gormstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fieldview/fieldview/internal/model"
)

// TrajectorySample is one accepted pose-array update.
type TrajectorySample struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	Channel   string `gorm:"index:idx_trajectory_channel"`
	Stamp     int64
	FrameID   string
	PoseCount int
	Poses     datatypes.JSON
}

// GridSample is one accepted grid update, metadata only.
type GridSample struct {
	ID         uint `gorm:"primarykey"`
	CreatedAt  time.Time
	Channel    string `gorm:"index:idx_grid_channel"`
	Stamp      int64
	FrameID    string
	Width      uint32
	Height     uint32
	Resolution float64
	Occupied   int
}

// DatabaseModels lists every table in the archive schema.
var DatabaseModels = []any{
	&TrajectorySample{},
	&GridSample{},
}

// Backend is the GORM-backed archive.
type Backend struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewSQLite opens (or creates) a SQLite archive at path.
func NewSQLite(path string, log *slog.Logger) (*Backend, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite archive %s: %w", path, err)
	}
	return &Backend{db: db, logger: log}, nil
}

// NewPostgres connects to a Postgres archive.
func NewPostgres(dsn string, log *slog.Logger) (*Backend, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting postgres archive: %w", err)
	}
	return &Backend{db: db, logger: log}, nil
}

// NewWithDB wraps an existing GORM handle; used by tests.
func NewWithDB(db *gorm.DB, log *slog.Logger) *Backend {
	return &Backend{db: db, logger: log}
}

// Init migrates the archive schema.
func (b *Backend) Init() error {
	if err := b.db.AutoMigrate(DatabaseModels...); err != nil {
		return fmt.Errorf("migrating archive schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("accessing sql interface: %w", err)
	}
	return sqlDB.Close()
}

// RecordTrajectory persists one accepted pose-array update.
func (b *Backend) RecordTrajectory(channel string, pa *model.PoseArray) error {
	poses, err := json.Marshal(pa.Poses)
	if err != nil {
		return fmt.Errorf("marshalling poses for %s: %w", channel, err)
	}
	sample := TrajectorySample{
		Channel:   channel,
		Stamp:     pa.Header.Stamp,
		FrameID:   pa.Header.FrameID,
		PoseCount: pa.Len(),
		Poses:     datatypes.JSON(poses),
	}
	if err := b.db.Create(&sample).Error; err != nil {
		return fmt.Errorf("recording trajectory for %s: %w", channel, err)
	}
	return nil
}

// RecordGrid persists one accepted grid update's metadata.
func (b *Backend) RecordGrid(channel string, g *model.OccupancyGrid) error {
	occupied := 0
	for _, v := range g.Data {
		if v != 0 {
			occupied++
		}
	}
	sample := GridSample{
		Channel:    channel,
		Stamp:      g.Header.Stamp,
		FrameID:    g.Header.FrameID,
		Width:      g.Info.Width,
		Height:     g.Info.Height,
		Resolution: g.Info.Resolution,
		Occupied:   occupied,
	}
	if err := b.db.Create(&sample).Error; err != nil {
		return fmt.Errorf("recording grid for %s: %w", channel, err)
	}
	return nil
}
