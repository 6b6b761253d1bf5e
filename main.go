// File: taskmaster/main.go
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"taskmaster/config"
	"taskmaster/cron"
	"taskmaster/database"
	activityRepo "taskmaster/database/repository/activity"
	"taskmaster/handlers"
	"taskmaster/metrics"
	"taskmaster/middleware"
	"taskmaster/routes"
	"taskmaster/services/bookings"
	"taskmaster/services/jobapi"
	"taskmaster/services/joblist"
	"taskmaster/services/otp"
	"taskmaster/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := config.AppConfig

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Register()
	shutdownTracing, err := utils.SetupTracing(rootCtx, cfg)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to set up tracing: %v", err)
	}

	// Remote job API.
	api, err := jobapi.NewClient(cfg.APIBaseURL,
		jobapi.WithToken(cfg.AuthToken),
		jobapi.WithTimeout(time.Duration(cfg.RequestTimeoutSeconds)*time.Second),
		jobapi.WithRateLimit(cfg.OutboundRequestsPerSec, 5),
		jobapi.WithLogger(logger.Named("jobapi")),
	)
	if err != nil {
		logger.Sugar().Fatalf("main: invalid API_BASE_URL: %v", err)
	}

	// Optional backing services.
	redisClient, err := utils.InitSheetCache()
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	mongoClient, err := database.InitDB(cfg.DatabaseURL)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}

	var sheetStore otp.SheetStore = otp.NewMemorySheetStore()
	if redisClient != nil {
		sheetStore = otp.NewRedisSheetStore(redisClient, 0)
		logger.Info("OTP sheets stored in Redis", zap.String("addr", cfg.RedisAddr))
	}

	activity := activityRepo.NewNoopActivityRepo()
	if mongoClient != nil {
		activity, err = activityRepo.NewMongoActivityRepo(mongoClient, cfg.DatabaseName)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to prepare activity journal: %v", err)
		}
		logger.Info("activity journal enabled", zap.String("database", cfg.DatabaseName))
	}

	// Services.
	store := bookings.NewStore(api,
		bookings.WithKeepStaleOnError(cfg.KeepStaleOnError),
		bookings.WithLogger(logger.Named("bookings")),
	)

	flow := otp.NewFlow(api, sheetStore,
		otp.WithRecorder(activity),
		otp.WithLogger(logger.Named("otp")),
		otp.WithOnComplete(func(ctx context.Context, bookingID string) {
			if err := store.RefreshAll(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("refresh after completion failed", zap.String("bookingId", bookingID), zap.Error(err))
			}
		}),
	)

	controller := joblist.NewController(api, store, flow,
		joblist.WithRecorder(activity),
		joblist.WithLogger(logger.Named("joblist")),
	)
	if err := controller.Open(rootCtx); err != nil {
		logger.Warn("initial job list load failed", zap.Error(err))
	}
	defer controller.Close()

	go func() {
		if err := store.RefreshAll(rootCtx); err != nil {
			logger.Warn("initial booking refresh failed", zap.Error(err))
		}
	}()
	go cron.StartRefreshPoller(rootCtx, store, time.Duration(cfg.PollIntervalSeconds)*time.Second, logger.Named("poller"))
	utils.StartHealthMonitor(rootCtx, redisClient, mongoClient)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin, logger))

	// Assemble the handler bundle.
	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewJobsHandler(controller, store, activity, logger),
		handlers.NewOTPHandler(flow, logger),
		gin.WrapH(promhttp.Handler()),
	)

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle, cfg.AllowedOrigins())

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	<-rootCtx.Done()
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Sugar().Warnf("main: tracing shutdown: %v", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if mongoClient != nil {
		_ = mongoClient.Disconnect(ctx)
	}

	logger.Sugar().Info("main: server stopped gracefully")
	_ = logger.Sync()
}
