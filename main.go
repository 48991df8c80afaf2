// File: interlingo/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"interlingo/config"
	"interlingo/cron"
	"interlingo/database"
	appointmentRepo "interlingo/database/repository/appointment"
	paymentRepo "interlingo/database/repository/payment"
	"interlingo/handlers"
	"interlingo/middleware"
	"interlingo/models"
	"interlingo/routes"
	"interlingo/services/payment"
	"interlingo/services/pricing"
	"interlingo/services/waitlist"
	"interlingo/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	cronv3 "github.com/robfig/cron/v3"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitWaitListCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	payRepo := paymentRepo.NewMongoPaymentRepo()
	apptRepo := appointmentRepo.NewMongoAppointmentRepo()

	// provider adapters.
	registry := payment.NewAdapterRegistry()
	registry.Register(models.PaymentSystemCard, payment.NewStripeAdapter())
	registry.Register(models.PaymentSystemLedger, payment.NewLedgerAdapter())

	aggregator := &payment.CaptureAggregator{
		Adapters:    registry,
		Concurrency: config.AppConfig.CaptureConcurrency,
		Timeout:     time.Duration(config.AppConfig.ProviderTimeoutSeconds) * time.Second,
		Logger:      logger,
	}

	locks := payment.NewAppointmentLocks(utils.GetWaitListClient(), utils.PaymentLockLeaseTTL)

	// wait-list coordinator on its dedicated Redis DB.
	coordinator := &waitlist.Coordinator{
		Store:              waitlist.NewRedisStore(utils.GetWaitListClient()),
		Logger:             logger,
		MaxAttempts:        config.AppConfig.MaxPaymentAttempts,
		ShortSlotThreshold: time.Duration(config.AppConfig.ShortSlotThresholdMins) * time.Minute,
		ScanBatchSize:      100,
	}

	engine := &payment.Engine{
		Repo:                 payRepo,
		Adapters:             registry,
		Appointments:         apptRepo,
		Aggregator:           aggregator,
		Locks:                locks,
		Events:               &payment.LogEventSink{Logger: logger},
		WaitList:             coordinator,
		Logger:               logger,
		ProviderTimeout:      time.Duration(config.AppConfig.ProviderTimeoutSeconds) * time.Second,
		MaxTransientRetries:  config.AppConfig.MaxTransientRetries,
		MaxCancelAttempts:    config.AppConfig.MaxCancelAttempts,
		PlatformFeeRate:      config.AppConfig.PlatformFeeRate,
		TransferFeeTolerance: config.AppConfig.TransferFeeTolerance,
	}
	coordinator.Driver = engine

	scheduleSource := pricing.ConfigScheduleSource{}

	// Background settlement worker, or an in-process scan scheduler when
	// the queue is disabled (single-node deployments).
	var queueClient *cron.QueueClient
	var scanCron *cronv3.Cron
	if config.AppConfig.QueueEnabled {
		queueClient = cron.NewQueueClient()
		cron.InitPaymentWorker(engine, payRepo, coordinator)
	} else {
		scanCron = cronv3.New()
		if _, err := scanCron.AddFunc(config.AppConfig.WaitListScanSchedule, func() {
			if _, err := coordinator.Scan(context.Background()); err != nil {
				logger.Sugar().Errorf("main: wait-list scan failed: %v", err)
			}
		}); err != nil {
			logger.Sugar().Fatalf("main: invalid wait-list scan schedule: %v", err)
		}
		scanCron.Start()
	}

	paymentHandler := handlers.NewPaymentHandler(engine, payRepo, apptRepo, coordinator, scheduleSource, queueClient, logger)
	pricingHandler := handlers.NewPricingHandler(scheduleSource, utils.GetCacheClient(), logger)

	routes.RegisterRoutes(router, paymentHandler, pricingHandler)

	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetCacheClient(), utils.GetWaitListClient()},
		database.MongoClient,
	)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
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
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	if scanCron != nil {
		scanCron.Stop()
	}
	if queueClient != nil {
		if err := queueClient.Close(); err != nil {
			logger.Sugar().Warnf("main: failed to close queue client: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
