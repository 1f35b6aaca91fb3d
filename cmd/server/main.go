package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/auth"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/cache"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/config"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/database"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/feed"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/handlers"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/logger"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/metrics"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/notify"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/realtime"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/storage"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/telemetry"
	"go.uber.org/zap"
)

// busChangeFeed adapts the in-process event bus to the feed pipeline's
// change-notification interface
type busChangeFeed struct {
	bus *realtime.Bus
}

func (b busChangeFeed) Subscribe(scope string, fn func()) (func(), error) {
	return b.bus.Subscribe(scope, func(realtime.Event) { fn() }), nil
}

func main() {
	cfg := config.Load()

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Log.Info("=== CollegeDost server starting ===",
		zap.String("environment", cfg.Environment))

	metrics.Initialize()

	// Database
	if err := database.Initialize(cfg.DatabaseURL); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Redis is optional; view dedupe and OTP rate limiting degrade without it
	var redis *cache.RedisClient
	if r, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword); err != nil {
		logger.Log.Warn("Redis unavailable, continuing without cache", zap.Error(err))
	} else {
		redis = r
		defer redis.Close()
	}

	// Tracing
	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "collegedost-backend",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Enabled:      cfg.TracingEnabled,
		SamplingRate: cfg.SamplingRate,
	})
	if err != nil {
		logger.Log.Warn("Tracing init failed, continuing without traces", zap.Error(err))
	} else if tp != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(ctx)
		}()
	}

	// Auth
	if cfg.JWTSecret == "" {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}

	deliverer := &notify.Deliverer{SMS: notify.LogSMSSender{}}
	if cfg.SESSender != "" {
		mailer, err := notify.NewSESMailer(cfg.AWSRegion, cfg.SESSender)
		if err != nil {
			logger.Log.Warn("SES init failed, email OTP disabled", zap.Error(err))
		} else {
			deliverer.Email = mailer
		}
	}

	authService := auth.NewService(
		[]byte(cfg.JWTSecret),
		deliverer,
		redis,
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
	)

	// Realtime: event bus feeds both the WebSocket hub and the pipeline
	bus := realtime.NewBus()
	hub := realtime.NewHub(bus)
	go hub.Run()

	// Feed pipeline and live refresh
	pipeline := feed.NewPipeline(database.DB, feed.Options{
		MinCandidates: cfg.FeedMinCandidates,
		PageSize:      cfg.FeedPageSize,
		AnonymousCap:  cfg.FeedAnonymousCap,
		EagerBatch:    cfg.FeedEagerBatch,
	})
	filterStore := feed.NewFilterStore()

	syncCtx, syncCancel := context.WithCancel(context.Background())
	defer syncCancel()

	adapter := feed.NewSyncAdapter(pipeline, filterStore, busChangeFeed{bus: bus}, cfg.FeedDebounce,
		func(result *feed.Result) {
			hub.Broadcast(realtime.NewMessage(realtime.MessageTypeFeedRefresh, map[string]interface{}{
				"seq":          result.Seq,
				"generated_at": result.GeneratedAt,
				"count":        len(result.Primary),
			}))
		})
	adapter.Start(syncCtx, "posts")
	defer adapter.Stop()

	// Handlers
	h := handlers.NewHandlers(cfg, authService, pipeline, filterStore, bus)
	h.SetHub(hub)
	if redis != nil {
		h.SetRedis(redis)
	}

	if cfg.AWSBucket != "" {
		uploader, err := storage.NewMediaUploader(cfg.AWSRegion, cfg.AWSBucket, cfg.CDNBaseURL)
		if err != nil {
			logger.Log.Warn("S3 init failed, media uploads disabled", zap.Error(err))
		} else {
			if err := uploader.CheckBucketAccess(context.Background()); err != nil {
				logger.Log.Warn("S3 bucket access check failed", zap.Error(err))
			}
			h.SetUploader(uploader)
		}
	}

	r := h.SetupRouter()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("CollegeDost backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	syncCancel()
	adapter.Stop()

	if err := hub.Shutdown(ctx); err != nil {
		logger.Log.Warn("Hub shutdown warning", zap.Error(err))
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
