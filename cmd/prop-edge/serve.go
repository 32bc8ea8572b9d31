package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/prop-edge/internal/api"
	"github.com/yourusername/prop-edge/internal/database"
	"github.com/yourusername/prop-edge/internal/health"
	applogger "github.com/yourusername/prop-edge/internal/logger"
	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/repository"
	"github.com/yourusername/prop-edge/internal/scheduler"
	"github.com/yourusername/prop-edge/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with health, metrics and scheduled scans",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	logger.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     Version,
	}).Info("prop-edge starting")

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	// Scan history lives in Postgres when configured, otherwise in process memory
	var (
		db    *database.DB
		repos *repository.Repositories
		err   error
	)
	if cfg.Database.Enabled {
		db, err = database.Initialize(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		repos, err = repository.NewRepositories(db)
		if err != nil {
			return fmt.Errorf("failed to initialize repositories: %w", err)
		}
		logger.Info("Database connection established")
	} else {
		repos = repository.NewInMemoryRepositories()
		logger.Info("Database disabled; scan history kept in memory")
	}

	svc := newScanService(repos.ScanVersion)

	healthCfg := health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Port:        cfg.Metrics.Port,
		Logger:      logger,
		Status:      func() any { return svc.Status() },
	}
	if cfg.Metrics.Enabled {
		healthCfg.MetricsPath = cfg.Metrics.Path
	}
	healthServer := health.NewServer(healthCfg)
	if db != nil {
		healthServer.AddCheck("database", db.Ping)
	}
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	apiServer := api.NewServer(
		api.NewHandlers(svc, cfg.ScanTimeout(), logger),
		api.ServerConfig{
			Port:         cfg.Server.Port,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		},
		logger,
	)
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	var sched *scheduler.Scheduler
	if cfg.Schedule.Enabled {
		sched = scheduler.NewScheduler(svc, cfg.ScanTimeout(), logger)
		req := service.ScanRequest{Sport: cfg.Schedule.Sport, Scope: cfg.Schedule.Scope}
		if err := sched.ScheduleScan(cfg.Schedule.ScanCron, req, cfg.Schedule.SaveVersions); err != nil {
			return fmt.Errorf("failed to schedule scans: %w", err)
		}
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	healthServer.SetReady(true)
	logger.WithFields(logrus.Fields{
		"api_port":    cfg.Server.Port,
		"health_port": cfg.Metrics.Port,
		"history":     cfg.Database.Enabled,
		"scheduled":   cfg.Schedule.Enabled,
	}).Info("prop-edge is running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	audit := applogger.NewAuditLogger(logger)
	for {
		select {
		case <-ctx.Done():
			return shutdown(sched, healthServer, apiServer)
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				reloadSettings(svc, audit)
				continue
			}
			logger.WithField("signal", sig).Info("Shutdown signal received")
			return shutdown(sched, healthServer, apiServer)
		}
	}
}

// reloadSettings rereads the config file and swaps the pricing settings. A bad file keeps the
// current settings.
func reloadSettings(svc *service.ScanService, audit *applogger.AuditLogger) {
	_, next, err := loadConfig(context.Background(), configFile)
	if err != nil {
		audit.LogSettingsRejected("sighup", err)
		return
	}
	svc.Reload("sighup", next)
}

func shutdown(sched *scheduler.Scheduler, healthServer *health.Server, apiServer *api.Server) error {
	healthServer.SetReady(false)

	if sched != nil {
		if err := sched.Stop(); err != nil {
			logger.WithError(err).Error("Failed to stop scheduler")
		}
	}
	if err := apiServer.Shutdown(); err != nil {
		logger.WithError(err).Error("Failed to shut down API server")
	}
	if err := healthServer.Shutdown(); err != nil {
		logger.WithError(err).Error("Failed to shut down health server")
	}

	logger.Info("prop-edge stopped")
	return nil
}
