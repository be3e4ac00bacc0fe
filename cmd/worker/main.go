package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adnan-tnd/flow-core/internal/attendance"
	"github.com/adnan-tnd/flow-core/internal/database"
	"github.com/adnan-tnd/flow-core/internal/notify"
	"github.com/adnan-tnd/flow-core/internal/tasks"
	"github.com/adnan-tnd/flow-core/pkg/config"
	"github.com/adnan-tnd/flow-core/pkg/queue"
	"github.com/adnan-tnd/flow-core/pkg/util"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env, "worker")
	slog.SetDefault(logger)

	logger.Info("starting flow-core worker")

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	srv := queue.NewServer(&cfg.Redis, 10)

	handler := tasks.NewHandler(
		notify.NewSender(cfg.Mail, logger),
		attendance.NewService(db, logger),
		logger,
	)

	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	// The sweep runs at the configured wall-clock time in UTC, matching the
	// day boundaries attendance records use.
	scheduler := queue.NewScheduler(&cfg.Redis, time.UTC)
	entryID, err := tasks.RegisterSchedule(scheduler, cfg.Attendance.AbsentSweepCron)
	if err != nil {
		logger.Error("failed to register absence sweep", "error", err)
		os.Exit(1)
	}
	logger.Info("absence sweep scheduled", "cron", cfg.Attendance.AbsentSweepCron, "entry", entryID)

	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	if err := srv.Start(mux); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	logger.Info("worker started, waiting for tasks...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	scheduler.Shutdown()
	srv.Shutdown()
	database.Close(db)

	logger.Info("worker stopped")
}
