package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldmesh/fieldmesh-core/internal/device"
	"github.com/fieldmesh/fieldmesh-core/internal/reading"
	"github.com/fieldmesh/fieldmesh-core/internal/sensor"
	"github.com/fieldmesh/fieldmesh-core/internal/user"
	"github.com/fieldmesh/fieldmesh-core/internal/zone"
)

// healthCheckTimeout bounds each dependency probe in /api/health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware())
	r.Use(s.bodySizeLimitMiddleware)
	r.Use(s.metricsMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/ws", s.handleWebSocket)

		mount(r, s, "/users", &resource[user.User, user.CreateInput, user.Patch]{
			entity: "user", svc: s.users, idOf: func(u *user.User) string { return u.ID },
		})
		mount(r, s, "/zones", &resource[zone.Zone, zone.CreateInput, zone.Patch]{
			entity: "zone", svc: s.zones, idOf: func(z *zone.Zone) string { return z.ID },
		})
		mount(r, s, "/devices", &resource[device.Device, device.CreateInput, device.Patch]{
			entity: "device", svc: s.devices, idOf: func(d *device.Device) string { return d.ID },
		})
		mount(r, s, "/sensors", &resource[sensor.Sensor, sensor.CreateInput, sensor.Patch]{
			entity: "sensor", svc: s.sensors, idOf: func(sn *sensor.Sensor) string { return sn.ID },
		})
		mount(r, s, "/readings", &resource[reading.Reading, reading.CreateInput, reading.Patch]{
			entity: "reading", svc: s.readings, idOf: func(rd *reading.Reading) string { return rd.ID },
		})
	})

	return r
}

// handleHealth probes the entity store and, when configured, MQTT.
// A store failure yields 503; MQTT being down only degrades the status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"database": "ok",
		"mqtt":     "disabled",
	}
	status, code := "ok", http.StatusOK

	if s.db != nil {
		if err := probe(r.Context(), s.db); err != nil {
			checks["database"] = err.Error()
			status, code = "unavailable", http.StatusServiceUnavailable
		}
	}
	if s.mqtt != nil {
		checks["mqtt"] = "ok"
		if err := probe(r.Context(), s.mqtt); err != nil {
			checks["mqtt"] = err.Error()
			if code == http.StatusOK {
				status = "degraded"
			}
		}
	}

	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": s.version,
		"checks":  checks,
	})
}

func probe(ctx context.Context, hc HealthChecker) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return hc.HealthCheck(ctx)
}
