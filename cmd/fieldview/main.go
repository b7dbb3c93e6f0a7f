package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/fieldview/fieldview/internal/adapter"
	"github.com/fieldview/fieldview/internal/config"
	"github.com/fieldview/fieldview/internal/diagnostics"
	"github.com/fieldview/fieldview/internal/dispatcher"
	"github.com/fieldview/fieldview/internal/geo"
	"github.com/fieldview/fieldview/internal/grid"
	"github.com/fieldview/fieldview/internal/influx"
	"github.com/fieldview/fieldview/internal/logging"
	"github.com/fieldview/fieldview/internal/monitor"
	intOtel "github.com/fieldview/fieldview/internal/otel"
	"github.com/fieldview/fieldview/internal/pipeline"
	"github.com/fieldview/fieldview/internal/registry"
	"github.com/fieldview/fieldview/internal/scene"
	"github.com/fieldview/fieldview/internal/settings"
	"github.com/fieldview/fieldview/internal/storage"
)

// Version can be set at build time via ldflags.
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.Manager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	LogFile *os.File

	SessionStartTime = time.Now()

	// Services
	settingsProvider *settings.Provider
	errorRecorder    *diagnostics.Recorder
	channelRegistry  *registry.Registry
	pipelineService  *pipeline.Service
	monitorService   *monitor.Service
	eventDispatcher  *dispatcher.Dispatcher
	influxManager    *influx.Manager
	storageBackend   storage.Backend
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "fieldview:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	bootstrap()
	defer shutdown()

	if len(args) == 0 {
		fmt.Println("usage: fieldview replay <messages.jsonl> | fieldview export <messages.jsonl> <outdir>")
		return nil
	}

	switch strings.ToLower(args[0]) {
	case "replay":
		if len(args) < 2 {
			return fmt.Errorf("replay: no message log provided")
		}
		stats, err := replayFile(args[1], eventDispatcher)
		if err != nil {
			return err
		}
		printSummary(stats)
		return nil
	case "export":
		if len(args) < 3 {
			return fmt.Errorf("export: need a message log and an output directory")
		}
		stats, err := replayFile(args[1], eventDispatcher)
		if err != nil {
			return err
		}
		printSummary(stats)
		return exportTrajectories(args[2])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// bootstrap loads config and wires every service. It never fails hard:
// optional subsystems (Graylog, OTel, Influx, archive) degrade to disabled.
func bootstrap() {
	var err error

	SlogManager = logging.NewManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err = loadConfig(); err != nil {
		config.LoadDefaults()
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	logsDir := viper.GetString("logsDir")
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		os.Mkdir(logsDir, 0755)
	}
	logPath := logging.LogFilePath(logsDir, "fieldview", SessionStartTime)
	LogFile, err = os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", logPath)
	}

	gelfWriter, err := logging.NewGelfWriter()
	if err != nil {
		Logger.Warn("Graylog shipping unavailable", "error", err)
	}

	SlogManager.Setup(LogFile, viper.GetString("logLevel"), gelfWriter)
	Logger = SlogManager.Logger()
	Logger.Info("Starting up...", "version", Version, "buildDate", BuildDate)
	Logger.Info("Logging to file", "path", logPath)

	if viper.GetBool("otel.enabled") {
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:     true,
			ServiceName: viper.GetString("otel.serviceName"),
			Interval:    viper.GetDuration("monitor.interval"),
			Writer:      LogFile,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			Logger.Info("OTel provider initialized", "file", logPath)
		}
	}

	bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	influxManager = influx.NewManager(bootLogger)
	if err = influxManager.Connect(); err != nil {
		Logger.Warn("InfluxDB unavailable, channel stats will not be shipped", "error", err)
	}

	storageBackend, err = storage.NewBackend(config.Storage(), Logger)
	if err != nil {
		Logger.Warn("Archive disabled", "error", err)
		storageBackend = nil
	} else if err = storageBackend.Init(); err != nil {
		Logger.Warn("Archive init failed, archive disabled", "error", err)
		storageBackend = nil
	}

	errorRecorder = diagnostics.NewRecorder()
	diag := diagnostics.Multi{diagnostics.NewSlogReporter(Logger), errorRecorder}

	renderer := grid.NewRenderer()
	decoder := grid.NewDecoder(Logger)

	settingsProvider = settings.NewProvider()

	graph := scene.NewMemoryGraph()
	deps := registry.Dependencies{
		Graph:       graph,
		Settings:    settingsProvider,
		Diagnostics: diag,
		Logger:      Logger,
		Decoder:     decoder,
		Renderer:    renderer,
	}
	if storageBackend != nil {
		deps.Archive = storageBackend
	}
	channelRegistry, err = registry.New(deps)
	if err != nil {
		Logger.Error("Failed to create channel registry", "error", err)
		panic(err)
	}
	settingsProvider.SetOnChanged(channelRegistry.SettingsChangedFor)

	pipelineService = pipeline.NewService(pipeline.Dependencies{
		Adapter:     adapter.New(Logger, diag),
		Registry:    channelRegistry,
		Diagnostics: diag,
		Logger:      Logger,
	})

	dispatcherLogger := logging.NewDispatcherLogger(bootLogger)
	eventDispatcher, err = dispatcher.New(dispatcherLogger)
	if err != nil {
		Logger.Error("Failed to create dispatcher", "error", err)
		panic(err)
	}
	pipelineService.RegisterAll(eventDispatcher)

	monitorService = monitor.NewService(monitor.Dependencies{
		Registry: channelRegistry,
		Errors:   errorRecorder,
		Influx:   influxManager,
		Logger:   Logger,
	})
	monitorService.Start(viper.GetDuration("monitor.interval"))
}

func shutdown() {
	if monitorService != nil {
		monitorService.Stop()
	}
	if storageBackend != nil {
		if err := storageBackend.Close(); err != nil {
			Logger.Error("Failed to close archive", "error", err)
		}
	}
	if influxManager != nil {
		influxManager.Close()
	}
	if OTelProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := OTelProvider.Shutdown(ctx); err != nil {
			Logger.Error("Failed to shut down OTel provider", "error", err)
		}
	}
	if SlogManager != nil {
		SlogManager.Close()
	}
	if LogFile != nil {
		LogFile.Close()
	}
}

func loadConfig() error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	return config.Load(dir)
}

func printSummary(stats replayStats) {
	Logger.Info("Replay finished",
		"messages", stats.Messages,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
		"channels", channelRegistry.Len(),
		"duration", stats.Duration,
	)
	for _, st := range channelRegistry.Stats() {
		Logger.Info("Channel",
			"name", st.Channel,
			"frameId", st.FrameID,
			"poses", st.Poses,
			"gridCells", st.GridCells,
			"errors", errorRecorder.CountFor(st.Channel),
		)
	}
}

// exportTrajectories writes one GeoJSON document per channel that carries a
// pose trajectory, anchored at the configured map origin.
func exportTrajectories(outDir string) error {
	geoCfg := config.Geo()
	anchor := geo.Anchor{Lat: geoCfg.AnchorLat, Lon: geoCfg.AnchorLon}
	if !anchor.Valid() {
		return geo.ErrInvalidAnchor
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	for _, channel := range channelRegistry.Channels() {
		origin, pa, ok := channelRegistry.TrajectoryFor(channel)
		if !ok || pa.Len() < 2 {
			continue
		}
		doc, err := geo.ExportGeoJSON(anchor, origin, pa)
		if err != nil {
			Logger.Warn("Skipping channel export", "channel", channel, "error", err)
			continue
		}
		name := strings.ReplaceAll(channel, "/", "_") + ".geojson"
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, doc, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		Logger.Info("Exported trajectory", "channel", channel, "path", path)
	}
	return nil
}
