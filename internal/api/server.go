package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fieldmesh/fieldmesh-core/internal/device"
	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/config"
	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/logging"
	"github.com/fieldmesh/fieldmesh-core/internal/reading"
	"github.com/fieldmesh/fieldmesh-core/internal/sensor"
	"github.com/fieldmesh/fieldmesh-core/internal/user"
	"github.com/fieldmesh/fieldmesh-core/internal/zone"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is implemented by database.DB and mqtt.Client.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EventBus publishes change events to MQTT. mqtt.Client satisfies it.
type EventBus interface {
	HealthChecker
	PublishEvent(entity, action string, data any) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config config.APIConfig
	WS     config.WebSocketConfig
	Logger *logging.Logger
	DB     HealthChecker

	Users    *user.Service
	Zones    *zone.Service
	Devices  *device.Service
	Sensors  *sensor.Service
	Readings *reading.Service

	// MQTT is optional. Leave nil when the broker is disabled.
	MQTT EventBus

	// Registry receives the API metrics and backs /metrics. A private
	// registry is created when nil.
	Registry *prometheus.Registry

	Version string
}

// Server is the HTTP API server for FieldMesh Core.
type Server struct {
	cfg     config.APIConfig
	logger  *logging.Logger
	db      HealthChecker
	mqtt    EventBus
	version string

	users    *user.Service
	zones    *zone.Service
	devices  *device.Service
	sensors  *sensor.Service
	readings *reading.Service

	registry *prometheus.Registry
	metrics  *metrics
	hub      *Hub

	server *http.Server
	cancel context.CancelFunc
}

// New creates a new API server. The server is not listening until Start.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Users == nil || deps.Zones == nil || deps.Devices == nil || deps.Sensors == nil || deps.Readings == nil {
		return nil, fmt.Errorf("all entity services are required")
	}

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		cfg:      deps.Config,
		logger:   deps.Logger.With("component", "api"),
		db:       deps.DB,
		mqtt:     deps.MQTT,
		version:  deps.Version,
		users:    deps.Users,
		zones:    deps.Zones,
		devices:  deps.Devices,
		sensors:  deps.Sensors,
		readings: deps.Readings,
		registry: reg,
	}
	s.hub = NewHub(deps.WS, s.logger)
	s.metrics = newMetrics(reg, s.hub)

	return s, nil
}

// Handler returns the fully wired router. Start uses it; tests call it
// directly with httptest.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start runs the WebSocket hub and launches the HTTP listener in a
// background goroutine. Stop it with Close.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.Handler(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS", "address", s.server.Addr, "cert", s.cfg.TLS.CertFile)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close stops the hub and waits up to gracefulShutdownTimeout for
// in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
