// Package config loads the fieldview configuration file and supplies
// defaults for every subsystem.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// StorageConfig selects and parameterizes the archive backend.
type StorageConfig struct {
	Type string `json:"type" mapstructure:"type"` // memory | sqlite | postgres
	Path string `json:"path" mapstructure:"path"` // sqlite file path
	DSN  string `json:"dsn" mapstructure:"dsn"`   // postgres connection string
}

// GeoConfig anchors the local map frame in the world for export.
type GeoConfig struct {
	AnchorLat float64 `json:"anchorLat" mapstructure:"anchorLat"`
	AnchorLon float64 `json:"anchorLon" mapstructure:"anchorLon"`
}

// Load reads configuration from a JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName("fieldview.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// LoadDefaults applies the default values without requiring a config file.
func LoadDefaults() {
	setDefaults()
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./fieldviewlogs")

	// Global display layer. Per-channel overrides live under
	// display.channels.<name>.
	viper.SetDefault("display.mode", "axis")
	viper.SetDefault("display.visible", true)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.path", "./fieldview.db")
	viper.SetDefault("storage.dsn", "")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "fieldview-metrics")
	viper.SetDefault("influx.bucket", "fieldview")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "fieldview")

	viper.SetDefault("monitor.interval", "10s")

	viper.SetDefault("geo.anchorLat", 0.0)
	viper.SetDefault("geo.anchorLon", 0.0)
}

// Storage returns the archive backend configuration.
func Storage() StorageConfig {
	var cfg StorageConfig
	if err := viper.UnmarshalKey("storage", &cfg); err != nil {
		return StorageConfig{Type: "memory"}
	}
	return cfg
}

// Geo returns the map anchor configuration.
func Geo() GeoConfig {
	var cfg GeoConfig
	if err := viper.UnmarshalKey("geo", &cfg); err != nil {
		return GeoConfig{}
	}
	return cfg
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetBool returns a boolean config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
