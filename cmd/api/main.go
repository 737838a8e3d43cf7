package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"product-api/internal/config"
	"product-api/internal/database"
	"product-api/internal/handlers"
	"product-api/internal/logger"
	"product-api/internal/metrics"
	"product-api/internal/repository"
	"product-api/internal/routes"
	"product-api/internal/schema"
)

func main() {
	cfg := config.LoadConfig()

	zlog, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	zap.ReplaceGlobals(zlog)

	// En modo test no se conecta ni se escucha
	if cfg.IsTest() {
		zlog.Info("test mode, skipping store connection and listener")
		return
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDB, cfg.DBTimeout)
	if err != nil {
		zlog.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			zlog.Error("error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	zlog.Info("connected to MongoDB", zap.String("database", cfg.MongoDB))

	repo := repository.NewProductRepository(db.Collection(schema.CollectionName), schema.MustNewValidator())
	if err := repo.EnsureIndexes(ctx); err != nil {
		zlog.Fatal("failed to create indexes", zap.Error(err))
	}

	router := routes.NewRouter(handlers.NewProductHandler(repo), routes.Options{
		Logger:  zlog,
		Metrics: metrics.NewHTTPMetrics(cfg.ServiceName),
		Store:   db,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		zlog.Info("server running", zap.String("port", cfg.Port), zap.String("environment", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}
	zlog.Info("server gracefully stopped")
}
