package main

import (
	"cityhospital/cmd/internal/config"
	"cityhospital/cmd/internal/domain/redis"
	"cityhospital/cmd/internal/domain/sqlite"
	"cityhospital/cmd/internal/domain/sqlite/repository"
	"cityhospital/cmd/internal/metrics"
	"cityhospital/cmd/internal/routes"
	"cityhospital/cmd/internal/service"
	"cityhospital/cmd/internal/utils/validators"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// portal bundles everything the commands share.
type portal struct {
	Config   *config.Config
	Store    service.DurableStore
	Records  *service.DefaultRecordRepository
	Relay    *service.DefaultNotificationRelay
	Metrics  *metrics.PortalMetrics
	Gatherer prometheus.Gatherer

	closers []func() error
}

func (p *portal) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			log.Errorf("failed to close: %v", err)
		}
	}
}

func bootstrap(cmd *cobra.Command) (*portal, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	var cfg *config.Config
	if envFile != "" {
		cfg = config.Load(envFile)
	} else {
		cfg = config.Load()
	}
	log.SetLevel(logLevel(cfg.LogLevel))

	app := &portal{Config: cfg}
	store, err := app.openStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	app.Store = store

	app.Records = service.NewRecordRepository(store)
	if err := app.Records.Load(cmd.Context()); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = metrics.NewPortalMetrics(reg)
	app.Gatherer = reg
	app.Relay = service.NewNotificationRelay(store, app.Records, app.Metrics)
	return app, nil
}

func (p *portal) openStore(ctx context.Context) (service.DurableStore, error) {
	switch p.Config.StoreBackend {
	case config.BackendSQLite:
		db, err := sqlite.Init(p.Config.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, sqlDB.Close)
		return repository.NewKeyValueRepository(db), nil

	case config.BackendRedis:
		client, err := redis.Connect(ctx, p.Config.RedisAddr, p.Config.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		p.closers = append(p.closers, client.Close)
		return redis.NewStore(client, p.Config.RedisPrefix), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", p.Config.StoreBackend)
}

func runServer(cmd *cobra.Command) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.Config
	validate := validators.New()

	// Getting services
	apptService := service.NewAppointmentService(app.Records, validate, app.Metrics, cfg.DoctorName)
	apptService.Department = cfg.Department
	queryService := service.NewQueryService(app.Records)

	// Getting routes
	adminRoutes := routes.NewAdminDefault(queryService, queryService)
	doctorRoutes := routes.NewDoctorDefault(apptService, queryService)
	patientRoutes := routes.NewPatientDefault(app.Relay, validate)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORS())
	registerRoutes(e, adminRoutes, doctorRoutes, patientRoutes)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(app.Gatherer, promhttp.HandlerOpts{})))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stopPoller := service.NewPoller(app.Relay, cfg.PollPatient, cfg.PollInterval).Start(ctx)
	defer stopPoller()

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func registerRoutes(e *echo.Echo, admin *routes.DefaultAdminRoute, doctor *routes.DefaultDoctorRoute, patient *routes.DefaultPatientRoute) {
	// Admin
	e.GET("/api/admin/appointments", admin.GetAppointments)
	e.GET("/api/admin/appointments/export", admin.ExportAppointments)
	e.GET("/api/admin/appointments/:id", admin.GetAppointment)

	// Doctor
	e.GET("/api/doctor/dashboard", doctor.GetDashboard)
	e.GET("/api/doctor/requests", doctor.GetRequests)
	e.GET("/api/doctor/requests/:id", doctor.GetRequest)
	e.POST("/api/doctor/requests/:id/approve", doctor.ApproveRequest)
	e.POST("/api/doctor/requests/:id/decline", doctor.DeclineRequest)
	e.POST("/api/doctor/appointments/:id/cancel", doctor.CancelAppointment)
	e.POST("/api/doctor/appointments/:id/reschedule", doctor.RescheduleAppointment)
	e.GET("/api/doctor/patients", doctor.GetPatients)
	e.GET("/api/doctor/patients/:id", doctor.GetPatient)

	// Patient inbox
	e.GET("/api/patients/:key/notifications", patient.GetNotifications)
	e.POST("/api/patients/:key/notifications", patient.SendNotification)
	e.GET("/api/patients/:key/notifications/unread", patient.PollNotifications)
}

func logLevel(name string) log.Lvl {
	switch strings.ToLower(name) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	}
	return log.INFO
}
