// Package monitor periodically publishes registry and diagnostics stats to
// InfluxDB.
package monitor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fieldview/fieldview/internal/diagnostics"
	"github.com/fieldview/fieldview/internal/influx"
	"github.com/fieldview/fieldview/internal/registry"
)

// Dependencies holds all dependencies for the monitor service.
type Dependencies struct {
	Registry *registry.Registry
	Errors   *diagnostics.Recorder
	Influx   *influx.Manager
	Logger   *slog.Logger
}

// Service samples channel stats on an interval and ships them to InfluxDB.
type Service struct {
	deps      Dependencies
	mu        sync.RWMutex
	isRunning bool
	stopChan  chan struct{}
}

// NewService creates a new monitor service.
func NewService(deps Dependencies) *Service {
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the monitor is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Start launches the sampling loop. No-op when already running.
func (s *Service) Start(interval time.Duration) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sample()
			case <-s.stopChan:
				return
			}
		}
	}()
}

// Stop halts the sampling loop.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	s.isRunning = false
	close(s.stopChan)
}

func (s *Service) sample() {
	now := time.Now()
	errCounts := s.deps.Errors.Counts()

	for _, stat := range s.deps.Registry.Stats() {
		s.deps.Influx.WritePoint(
			"fieldview_channel",
			map[string]string{"channel": stat.Channel, "frame": stat.FrameID},
			map[string]any{
				"poses":      stat.Poses,
				"grid_cells": stat.GridCells,
				"errors":     errCounts[stat.Channel],
			},
			now,
		)
	}
	s.deps.Logger.Debug("monitor sample", "channels", s.deps.Registry.Len())
}
