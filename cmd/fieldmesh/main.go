// FieldMesh Core - IoT deployment registry.
//
// This is the main entry point. It wires the entity store, the integrity
// rule services, the HTTP API and the optional MQTT and InfluxDB
// integrations, then blocks until SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/fieldmesh/fieldmesh-core/internal/api"
	"github.com/fieldmesh/fieldmesh-core/internal/device"
	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/config"
	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/database"
	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/influxdb"
	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/logging"
	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/mqtt"
	"github.com/fieldmesh/fieldmesh-core/internal/ingest"
	"github.com/fieldmesh/fieldmesh-core/internal/reading"
	"github.com/fieldmesh/fieldmesh-core/internal/sensor"
	"github.com/fieldmesh/fieldmesh-core/internal/user"
	"github.com/fieldmesh/fieldmesh-core/internal/zone"
	_ "github.com/fieldmesh/fieldmesh-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"
	configEnvVar      = "FIELDMESH_CONFIG"
	envFile           = ".env"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// services bundles the integrity rule services built over one store.
type services struct {
	users    *user.Service
	zones    *zone.Service
	devices  *device.Service
	sensors  *sensor.Service
	readings *reading.Service
}

// run is the application logic, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting FieldMesh Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}

	cfg, configPath, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if configPath == "" {
		log.Info("no config file found, using defaults and environment")
	} else {
		log.Info("configuration loaded", "path", configPath)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", db.Path())

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	svc := buildServices(db)
	svc.readings.SetLogger(log.With("component", "reading"))

	// MQTT (optional)
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	switch {
	case errors.Is(err, mqtt.ErrDisabled):
		log.Info("MQTT disabled")
	case err != nil:
		return fmt.Errorf("connecting to MQTT: %w", err)
	default:
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		mqttClient.SetLogger(log.With("component", "mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	}

	// InfluxDB (optional)
	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		svc.readings.SetRecorder(influxClient)
	}

	deps := api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log,
		DB:       db,
		Users:    svc.users,
		Zones:    svc.zones,
		Devices:  svc.devices,
		Sensors:  svc.sensors,
		Readings: svc.readings,
		Version:  version,
	}
	// Assigned only when connected so a nil client never becomes a
	// non-nil interface.
	if mqttClient != nil {
		deps.MQTT = mqttClient
	}

	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if mqttClient != nil && cfg.Ingest.Enabled {
		sub := ingest.NewSubscriber(mqttClient, svc.readings, byte(cfg.Ingest.QoS), log)
		sub.OnCreated(func(rd *reading.Reading) {
			server.PublishEvent("reading", api.ActionCreated, rd.ID, rd)
		})
		if startErr := sub.Start(); startErr != nil {
			return fmt.Errorf("starting reading ingest: %w", startErr)
		}
		defer func() {
			if stopErr := sub.Stop(); stopErr != nil {
				log.Warn("error stopping reading ingest", "error", stopErr)
			}
		}()
		log.Info("reading ingest started", "topic", mqtt.Topics{}.AllIngestReadings())
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred closes run in reverse: ingest, API, InfluxDB, MQTT, database.
	log.Info("FieldMesh Core stopped")
	return nil
}

// buildServices wires repositories into the rule services. The device
// store answers the user and zone dependency checks; the reading store
// answers the sensor check.
func buildServices(db *database.DB) services {
	userRepo := user.NewSQLiteRepository(db.DB)
	zoneRepo := zone.NewSQLiteRepository(db.DB)
	deviceRepo := device.NewSQLiteRepository(db.DB)
	sensorRepo := sensor.NewSQLiteRepository(db.DB)
	readingRepo := reading.NewSQLiteRepository(db.DB)

	users := user.NewService(userRepo, deviceRepo)
	zones := zone.NewService(zoneRepo, deviceRepo)
	sensors := sensor.NewService(sensorRepo, readingRepo)

	return services{
		users:    users,
		zones:    zones,
		devices:  device.NewService(deviceRepo, users, zones),
		sensors:  sensors,
		readings: reading.NewService(readingRepo, sensors),
	}
}

// loadConfig reads the config file. When FIELDMESH_CONFIG is unset and the
// default file does not exist, the built-in defaults are used and the
// returned path is empty.
func loadConfig() (*config.Config, string, error) {
	path := getConfigPath()
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, path, nil
	}
	if errors.Is(err, fs.ErrNotExist) && os.Getenv(configEnvVar) == "" {
		cfg = config.Default()
		if vErr := cfg.Validate(); vErr != nil {
			return nil, "", fmt.Errorf("validating config: %w", vErr)
		}
		return cfg, "", nil
	}
	return nil, path, err
}

// getConfigPath returns the configuration file path.
// Uses FIELDMESH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// mqttClient and influxClient may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
