package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"learnloop/config"
	"learnloop/internal/api/handler"
	"learnloop/internal/api/router"
	"learnloop/internal/repository"
	"learnloop/internal/service"
	"learnloop/pkg/database"
	"learnloop/pkg/events"
	"learnloop/pkg/jwt"
	applogger "learnloop/pkg/logger"
	"learnloop/pkg/redis"
	"learnloop/pkg/storage"
	"learnloop/pkg/validator"
)

func main() {
	// 1. config
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	gin.SetMode(gin.ReleaseMode)
	if err := validator.Register(); err != nil {
		logger.Fatal("register validators", zap.Error(err))
	}

	// 3. mongo
	db, err := database.NewDB(&cfg.Mongo, logger)
	if err != nil {
		logger.Fatal("mongo connection failed", zap.Error(err))
	}

	idxCtx, idxCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureIndexes(idxCtx, db.Database, logger); err != nil {
		idxCancel()
		logger.Fatal("ensure indexes failed", zap.Error(err))
	}
	idxCancel()

	// 4. redis (optional: without it logout cannot revoke and rate limiting is off)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, token blacklist and rate limiting disabled", zap.Error(err))
		rdb = nil
	}

	// 5. object store
	store, err := storage.NewS3Store(context.Background(), &cfg.Storage, logger)
	if err != nil {
		logger.Fatal("object store init failed", zap.Error(err))
	}

	// 6. events
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.URL != "" {
		np, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logger)
		if err != nil {
			logger.Warn("nats unavailable, events disabled", zap.Error(err))
		} else {
			publisher = np
		}
	}

	// 7. wiring: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db.Database)

	deps := service.Deps{
		Config:    cfg,
		Repo:      repo,
		JWT:       jwtMgr,
		Store:     store,
		Publisher: publisher,
		Logger:    logger,
	}
	routes := router.Deps{
		Config: cfg,
		JWT:    jwtMgr,
		Logger: logger,
	}
	if rdb != nil {
		deps.Blacklist = rdb
		routes.Blacklist = rdb
		routes.Limiter = rdb
	}

	svc := service.NewService(deps)
	routes.Access = svc.Access
	h := handler.NewHandler(svc)
	engine := router.Setup(h, routes)

	// 8. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown", zap.Error(err))
	}
	if err := publisher.Close(); err != nil {
		logger.Warn("close nats", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := db.Close(ctx); err != nil {
		logger.Warn("close mongo", zap.Error(err))
	}

	logger.Info("server stopped")
}
