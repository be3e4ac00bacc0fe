package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adnan-tnd/flow-core/internal/api"
	"github.com/adnan-tnd/flow-core/internal/api/middleware"
	"github.com/adnan-tnd/flow-core/internal/attendance"
	"github.com/adnan-tnd/flow-core/internal/auth"
	"github.com/adnan-tnd/flow-core/internal/boards"
	"github.com/adnan-tnd/flow-core/internal/database"
	"github.com/adnan-tnd/flow-core/internal/directory"
	"github.com/adnan-tnd/flow-core/internal/finance"
	"github.com/adnan-tnd/flow-core/internal/leave"
	"github.com/adnan-tnd/flow-core/internal/notify"
	"github.com/adnan-tnd/flow-core/internal/projects"
	"github.com/adnan-tnd/flow-core/internal/reviews"
	"github.com/adnan-tnd/flow-core/internal/sprints"
	"github.com/adnan-tnd/flow-core/internal/storage"
	"github.com/adnan-tnd/flow-core/internal/tasks"
	"github.com/adnan-tnd/flow-core/pkg/config"
	"github.com/adnan-tnd/flow-core/pkg/crypto"
	"github.com/adnan-tnd/flow-core/pkg/queue"
	"github.com/adnan-tnd/flow-core/pkg/util"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env, "server")
	slog.SetDefault(logger)

	logger.Info("starting flow-core server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
	)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Production schemas are migrated with flowctl migrate.
	if cfg.Server.IsDevelopment() {
		if err := database.AutoMigrate(db); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	// Redis is optional: without it mail is sent inline, rate limits are
	// per process and the redis card numbering policy is unavailable.
	var rdb redis.Cmdable
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("failed to connect to Redis", "error", err)
		redisClient.Close()
		redisClient = nil
	} else {
		rdb = redisClient
	}

	store, err := storage.New(context.Background(), cfg.Storage)
	if err != nil {
		logger.Error("failed to create object store", "error", err)
		os.Exit(1)
	}

	numberer, err := boards.NewNumberer(cfg.Policy.CardNumbering, rdb)
	if err != nil {
		logger.Error("failed to pick card numbering", "error", err)
		os.Exit(1)
	}

	var (
		asynqClient *asynq.Client
		enqueuer    notify.Enqueuer
	)
	if redisClient != nil && cfg.Mail.Async {
		asynqClient = queue.NewClient(&cfg.Redis)
		enqueuer = tasks.NewEnqueuer(asynqClient)
	}
	mail := notify.NewDispatcher(notify.NewSender(cfg.Mail, logger), enqueuer, logger)

	var sealer finance.Sealer
	if cfg.Encryption.Key != "" {
		enc, err := crypto.NewEncryptor(cfg.Encryption.Key)
		if err != nil {
			logger.Error("failed to create encryptor", "error", err)
			os.Exit(1)
		}
		sealer = enc
	} else {
		logger.Warn("ENCRYPTION_KEY not set, salary notes are disabled")
	}

	links := notify.Links{BaseURL: cfg.App.BaseURL}
	users := directory.NewService(db)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry(), cfg.JWT.ResetExpiry())

	boardService := boards.NewService(boards.Deps{
		DB:       db,
		Users:    users,
		Mail:     mail,
		Links:    links,
		Store:    store,
		Numberer: numberer,
		Limits:   cfg.Storage,
		Logger:   logger,
	})

	services := api.Services{
		Auth:   auth.NewService(db, jwtService, mail, links, logger),
		Boards: boardService,
		Projects: projects.NewService(projects.Deps{
			DB:            db,
			Users:         users,
			Boards:        boardService,
			Mail:          mail,
			Links:         links,
			CascadeDelete: cfg.Policy.CascadeProjectDelete,
			Logger:        logger,
		}),
		Sprints:    sprints.NewService(db),
		Attendance: attendance.NewService(db, logger),
		Leave:      leave.NewService(db, users, mail, cfg.Leave, logger),
		Finance:    finance.NewService(db, users, sealer, logger),
		Reviews:    reviews.NewService(db, users),
	}

	var limiter middleware.Limiter
	if rdb != nil {
		limiter = middleware.NewRedisLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.WindowSeconds, logger)
	} else {
		memLimiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.WindowSeconds)
		defer memLimiter.Stop()
		limiter = memLimiter
	}

	router := api.NewRouter(api.RouterConfig{
		DB:             db,
		Redis:          rdb,
		Logger:         logger,
		Tokens:         jwtService,
		Services:       services,
		Storage:        cfg.Storage,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Limiter:        limiter,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if asynqClient != nil {
		asynqClient.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}
	database.Close(db)

	logger.Info("server stopped")
}
