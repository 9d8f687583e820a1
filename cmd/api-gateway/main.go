package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/dance-board-api/api/swagger"
	"github.com/noah-isme/dance-board-api/internal/handler"
	internalmiddleware "github.com/noah-isme/dance-board-api/internal/middleware"
	"github.com/noah-isme/dance-board-api/internal/models"
	"github.com/noah-isme/dance-board-api/internal/repository"
	"github.com/noah-isme/dance-board-api/internal/service"
	"github.com/noah-isme/dance-board-api/pkg/cache"
	"github.com/noah-isme/dance-board-api/pkg/config"
	"github.com/noah-isme/dance-board-api/pkg/database"
	"github.com/noah-isme/dance-board-api/pkg/jobs"
	"github.com/noah-isme/dance-board-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/dance-board-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/dance-board-api/pkg/middleware/requestid"
	"github.com/noah-isme/dance-board-api/pkg/storage"
)

// @title Dance Board API
// @version 1.0.0
// @description Shared dance class schedule with approval-gated changes.
// @BasePath /
// @schemes http

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := openRecordBackend(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer closeBackend()

	metrics := service.NewMetricsService()
	broker := service.NewEventBroker(logr)
	state := service.NewBoardState()
	records := service.NewRecordStore(backend, logr)

	var remote service.DocumentStore
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	switch {
	case err == nil:
		defer redisClient.Close() //nolint:errcheck
		remote = repository.NewDocumentRepository(redisClient, logr)
	case errors.Is(err, cache.ErrDisabled):
		logr.Info("shared documents disabled, running local-only")
	default:
		logr.Warn("shared documents unreachable, running local-only", zap.Error(err))
	}

	syncSvc := service.NewSyncService(state, records, remote, logr,
		service.WithSyncPolicy(cfg.Sync.InitialPolicy),
		service.WithSyncUserID(cfg.Remote.UserID),
		service.WithSyncRemoteTimeout(cfg.Remote.Timeout),
		service.WithSyncGraceWindow(cfg.Sync.GraceWindow),
		service.WithSyncEvents(broker),
		service.WithSyncMetrics(metrics),
	)

	notifier := service.NewNotificationService(cfg.Email, logr, service.WithNotificationMetrics(metrics))
	mailQueue := jobs.NewQueue("approval-email", notifier.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Email.Workers,
		MaxRetries: cfg.Email.MaxRetries,
		RetryDelay: cfg.Email.RetryDelay,
		Logger:     logr,
	})
	if notifier.Enabled() {
		mailQueue.Start(ctx)
		defer mailQueue.Stop()
		notifier.UseQueue(mailQueue)
	}

	styles := service.NewStyleService(records, logr)
	schedule := service.NewScheduleService(state, records, styles, broker, logr)
	approvals := service.NewApprovalService(state, records, syncSvc, service.NewTokenService(), validator.New(), logr,
		service.WithApprovalNotifier(notifier),
		service.WithApprovalEvents(broker),
		service.WithApprovalMetrics(metrics),
		service.WithDefaultRegion(cfg.Board.DefaultRegion),
	)
	exports := service.NewExportService(schedule, nil, nil, logr)

	styles.Load(ctx)
	syncSvc.InitialLoad(ctx)
	if err := syncSvc.Start(ctx); err != nil {
		logr.Warn("remote schedule subscription failed", zap.Error(err))
	}
	defer syncSvc.Stop()
	if cfg.Board.SeedSampleData {
		schedule.SeedSample(ctx)
	}

	router := newRouter(cfg, logr, routerDeps{
		metrics:     handler.NewMetricsHandler(metrics, syncSvc),
		metricsSvc:  metrics,
		classes:     handler.NewClassHandler(schedule, approvals, state),
		approvals:   handler.NewApprovalHandler(approvals, schedule, logr),
		styles:      handler.NewStyleHandler(styles),
		suggestions: handler.NewSuggestionHandler(notifier),
		exports:     handler.NewExportHandler(exports),
		events:      handler.NewEventHandler(broker, cfg.CORS.AllowedOrigins, logr),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.Bool("shared", syncSvc.RemoteEnabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openRecordBackend(ctx context.Context, cfg *config.Config, logr *zap.Logger) (service.RecordBackend, func(), error) {
	if cfg.RecordStore.Driver == config.RecordStorePostgres {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewPostgresRecordRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logr.Info("record store ready", zap.String("driver", config.RecordStorePostgres))
		return repo, closeDB(db), nil
	}

	files, err := storage.NewLocalStorage(cfg.RecordStore.Dir)
	if err != nil {
		return nil, nil, err
	}
	logr.Info("record store ready", zap.String("driver", config.RecordStoreFile), zap.String("dir", cfg.RecordStore.Dir))
	return repository.NewFileRecordRepository(files), func() {}, nil
}

func closeDB(db *sqlx.DB) func() {
	return func() { _ = db.Close() }
}

type routerDeps struct {
	metrics     *handler.MetricsHandler
	metricsSvc  *service.MetricsService
	classes     *handler.ClassHandler
	approvals   *handler.ApprovalHandler
	styles      *handler.StyleHandler
	suggestions *handler.SuggestionHandler
	exports     *handler.ExportHandler
	events      *handler.EventHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(internalmiddleware.Metrics(deps.metricsSvc, "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", deps.metrics.Health)
	r.GET("/ready", deps.metrics.Ready)
	r.GET("/metrics", deps.metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/", deps.approvals.Board(models.RegionNYC))
	for _, region := range models.Regions {
		r.GET("/"+region, deps.approvals.Board(region))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/approvals", deps.approvals.Resolve)
	api.GET("/classes", deps.classes.List)
	api.GET("/classes/:id", deps.classes.Get)
	api.POST("/classes", deps.classes.SubmitAddition)
	api.POST("/classes/:id/edits", deps.classes.SubmitEdit)
	api.POST("/classes/:id/deletions", deps.classes.SubmitDeletion)
	api.GET("/pending", deps.classes.Pending)
	api.GET("/filters", deps.classes.Filters)
	api.GET("/styles", deps.styles.Catalog)
	api.POST("/styles/custom", deps.styles.AssignCustom)
	api.POST("/suggestions", deps.suggestions.Send)
	api.GET("/export", deps.exports.Download)
	api.GET("/events", deps.events.Stream)

	return r
}
