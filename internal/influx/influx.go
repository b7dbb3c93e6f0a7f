// Package influx manages the InfluxDB connection used for channel stats and
// diagnostics counts. All writes are fail-soft: an unreachable server
// disables the manager rather than the pipeline.
package influx

import (
	"context"
	"errors"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Manager handles the InfluxDB connection and writes.
type Manager struct {
	Client  influxdb2.Client
	Writer  influxdb2_api.WriteAPI
	IsValid bool
	Bucket  string
	Logger  zerolog.Logger
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{Logger: log}
}

// Connect establishes a connection to InfluxDB per the viper configuration.
func (m *Manager) Connect() error {
	if !viper.GetBool("influx.enabled") {
		return errors.New("influx.enabled is false")
	}

	m.Client = influxdb2.NewClientWithOptions(
		fmt.Sprintf(
			"%s://%s:%s",
			viper.GetString("influx.protocol"),
			viper.GetString("influx.host"),
			viper.GetString("influx.port"),
		),
		viper.GetString("influx.token"),
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	running, err := m.Client.Ping(context.Background())
	if err != nil || !running {
		m.IsValid = false
		m.Logger.Error().Err(err).Msg("Failed to reach InfluxDB, stats disabled")
		return fmt.Errorf("influxdb unreachable: %w", err)
	}

	m.Bucket = viper.GetString("influx.bucket")
	m.Writer = m.Client.WriteAPI(viper.GetString("influx.org"), m.Bucket)
	m.IsValid = true
	m.Logger.Info().Str("bucket", m.Bucket).Msg("Connected to InfluxDB")
	return nil
}

// WritePoint queues one measurement. No-op when the manager is invalid.
func (m *Manager) WritePoint(measurement string, tags map[string]string, fields map[string]any, ts time.Time) {
	if !m.IsValid || m.Writer == nil {
		return
	}
	m.Writer.WritePoint(influxdb2.NewPoint(measurement, tags, fields, ts))
}

// Close flushes pending writes and shuts the client down.
func (m *Manager) Close() {
	if m.Writer != nil {
		m.Writer.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}
	m.IsValid = false
}
