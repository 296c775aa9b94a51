package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "elevator_control/docs"
	"elevator_control/internal/config"
	"elevator_control/internal/handlers"
	"elevator_control/internal/logger"
	"elevator_control/internal/repository"
	"elevator_control/internal/repository/db"
	"elevator_control/internal/server"
	"elevator_control/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title                       Elevator Control API
// @version                     1.0
// @description                 Two-floor elevator controller with door animation and a durable operation log.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, cfgErr := config.Load("configs")
	level := logger.InfoLevel
	if cfgErr == nil {
		level = cfg.Log.Level
	}
	log := logger.Get(level)
	if cfgErr != nil {
		log.Fatalw("error reading config", "err", cfgErr)
	}

	building, err := cfg.BuildingModel()
	if err != nil {
		log.Fatalw("invalid building", "err", err)
	}

	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DB.Path)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	fallback, closeFallback, err := logger.NewFile(cfg.Log.FallbackPath, logger.ErrorLevel)
	if err != nil {
		log.Fatalw("failed to open fallback log", "err", err, "path", cfg.Log.FallbackPath)
	}
	defer func() { _ = closeFallback() }()

	if cfg.Auth.SigningKey == "" {
		log.Warnw("auth.signing_key not set; tokens will not survive a restart")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, err := service.NewService(ctx, openRepos(cfg, conn), service.Options{
		Building:     building,
		Elevator:     cfg.Elevator(building),
		FlushTimeout: cfg.Log.FlushTimeout,
		Fallback:     fallback,
		SigningKey:   cfg.Auth.SigningKey,
		TokenTTL:     cfg.Auth.TokenTTL,
	}, log)
	if err != nil {
		log.Fatalw("failed to build services", "err", err)
	}
	apiHandler := handlers.NewHandler(services, log)

	go services.Simulator.Run(ctx, cfg.Sim.Tick)

	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)
	log.Infow("elevator controller started", "port", cfg.Port, "floors", len(building.Floors()), "log_store", cfg.DB.Driver)

	waitForShutdown(cancel, srv, services, log)
}

func openRepos(cfg *config.Config, conn *sql.DB) *repository.Repository {
	if cfg.DB.Driver == config.DriverMemory {
		return repository.NewMemoryRepository(conn)
	}
	return repository.NewRepository(conn)
}

func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown blocks until SIGINT or SIGTERM, then stops the simulator,
// drains HTTP traffic and flushes the operation log.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, services *service.Service, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
	if err := services.Shutdown(ctx); err != nil {
		log.Errorw("operation log not fully flushed", "err", err)
	}
	_ = log.Sync()
}
