package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/rehab-scheduler/internal/api/router"
	"github.com/wolfman30/rehab-scheduler/internal/app/bootstrap"
	appconfig "github.com/wolfman30/rehab-scheduler/internal/config"
	"github.com/wolfman30/rehab-scheduler/internal/events"
	"github.com/wolfman30/rehab-scheduler/internal/invoices"
	"github.com/wolfman30/rehab-scheduler/internal/ledger"
	"github.com/wolfman30/rehab-scheduler/internal/live"
	"github.com/wolfman30/rehab-scheduler/internal/observability/metrics"
	"github.com/wolfman30/rehab-scheduler/internal/scheduler"
	"github.com/wolfman30/rehab-scheduler/pkg/logging"
)

func main() {
	// Local development reads .env; deployed environments set variables directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting rehab-scheduler API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cal, err := bootstrap.BuildCalendar(cfg, time.Now())
	if err != nil {
		logger.Error("invalid schedule configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("calendar generated", "from", cal.From().String(), "days", cfg.ScheduleWindowDays, "slots", cal.Len())

	schedulerMetrics := metrics.NewSchedulerMetrics(prometheus.DefaultRegisterer)

	// Booking changes fan out to websocket clients and, when configured, Redis.
	bus := events.NewBus(logger)
	hub := live.NewHub(logger)
	bus.Subscribe(hub)
	if redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true); redisClient != nil {
		defer redisClient.Close()
		publisher := events.NewRedisPublisher(redisClient, cfg.BookingEventsChannel, logger)
		bus.Subscribe(publisher)
		logger.Info("publishing booking events to redis", "channel", publisher.Channel())
	}

	svc := scheduler.NewService(cal, ledger.New(),
		scheduler.WithLogger(logger),
		scheduler.WithMetrics(schedulerMetrics),
		scheduler.WithObservers(bus),
	)

	sink, err := bootstrap.BuildExportSink(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to configure export sink", "error", err)
		os.Exit(1)
	}

	var invoiceDB invoices.DB
	if pool := bootstrap.BuildPostgresPool(ctx, cfg, logger); pool != nil {
		defer pool.Close()
		invoiceDB = pool
	}
	invoiceManager := invoices.NewManager(bootstrap.BuildInvoiceRepository(invoiceDB, logger), schedulerMetrics, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		SchedulerHandler:   scheduler.NewHandler(svc, sink, logger),
		InvoicesHandler:    invoices.NewHandler(invoiceManager, cfg.ClinicName, logger),
		LiveHub:            hub,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
