package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/npezzotti/thermoswitch/internal/automation"
	"github.com/npezzotti/thermoswitch/internal/config"
	"github.com/npezzotti/thermoswitch/internal/database"
	"github.com/npezzotti/thermoswitch/internal/stats"
)

type ThermoswitchApp struct {
	log               *log.Logger
	db                database.ThermoRepository
	mux               *http.Server
	activator         automation.SensorActivator
	stats             stats.StatsProvider
	limiter           LoginLimiter
	signingKey        []byte
	tokenTTL          time.Duration
	activationTimeout time.Duration
}

func NewThermoswitchApp(mux *http.ServeMux, logger *log.Logger, db database.ThermoRepository, activator automation.SensorActivator, sp stats.StatsProvider, limiter LoginLimiter, cfg *config.Config) *ThermoswitchApp {
	s := &ThermoswitchApp{
		log:               logger,
		db:                db,
		activator:         activator,
		stats:             sp,
		limiter:           limiter,
		signingKey:        cfg.SigningKey,
		tokenTTL:          cfg.TokenTTL,
		activationTimeout: cfg.ActivationTimeout,
	}

	for _, name := range []string{
		stats.AccountsCreated,
		stats.ThermostatsCreated,
		stats.ThermostatsAssigned,
		stats.SensorsCreated,
		stats.SensorsDeleted,
		stats.SensorActivations,
		stats.FailedSensorActivations,
	} {
		sp.RegisterMetric(name)
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /user/create-account", s.createAccount)
	mux.HandleFunc("POST /user/login", s.rateLimit(s.login))
	mux.Handle("GET /thermostat", s.authMiddleware(s.listThermostats))
	mux.Handle("POST /thermostat", s.authMiddleware(s.createThermostat))
	mux.Handle("POST /thermostat/{id}/assign", s.authMiddleware(s.assignThermostat))
	mux.Handle("GET /sensor", s.authMiddleware(s.listSensors))
	mux.Handle("GET /sensor/sensor-names", s.authMiddleware(s.listSensorNames))
	mux.Handle("POST /sensor", s.authMiddleware(s.createSensor))
	mux.Handle("DELETE /sensor/{id}", s.authMiddleware(s.deleteSensor))
	mux.Handle("POST /sensor/change-sensor", s.authMiddleware(s.changeSensor))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = handlers.CombinedLoggingHandler(os.Stdout, h)
	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *ThermoswitchApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *ThermoswitchApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
