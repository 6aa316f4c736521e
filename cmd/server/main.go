package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/driveease/service-rental/internal/application"
	"github.com/driveease/service-rental/internal/cache"
	"github.com/driveease/service-rental/internal/common/auth"
	"github.com/driveease/service-rental/internal/common/database"
	"github.com/driveease/service-rental/internal/common/health"
	"github.com/driveease/service-rental/internal/common/kafka"
	"github.com/driveease/service-rental/internal/common/logger"
	"github.com/driveease/service-rental/internal/common/middleware"
	"github.com/driveease/service-rental/internal/common/validation"
	"github.com/driveease/service-rental/internal/config"
	bookingDomain "github.com/driveease/service-rental/internal/domain/booking"
	paymentDomain "github.com/driveease/service-rental/internal/domain/payment"
	rentalEvents "github.com/driveease/service-rental/internal/events"
	"github.com/driveease/service-rental/internal/handler"
	"github.com/driveease/service-rental/internal/notify"
	"github.com/driveease/service-rental/internal/repository"
	"github.com/driveease/service-rental/internal/scheduler"
	"github.com/driveease/service-rental/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "service-rental"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
	)

	location, err := time.LoadLocation(cfg.Policy.Timezone)
	if err != nil {
		log.Fatal("invalid timezone", zap.String("timezone", cfg.Policy.Timezone), zap.Error(err))
	}
	cancellation, err := bookingDomain.ParseCancellationPolicy(cfg.Policy.CancellationPolicy)
	if err != nil {
		log.Fatal("invalid cancellation policy", zap.Error(err))
	}
	policy := application.Policy{
		Currency:         cfg.Policy.Currency,
		Cancellation:     cancellation,
		PaymentTxnPrefix: cfg.Policy.PaymentTxnPrefix,
		RefundTxnPrefix:  cfg.Policy.RefundTxnPrefix,
		Location:         location,
	}

	if err := validation.RegisterBindingTags(); err != nil {
		log.Fatal("failed to register validators", zap.Error(err))
	}

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// The booking exclusion constraint only exists in the SQL migrations, so
	// they run in every environment.
	if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		cfg.JWTConfig.AccessTTL,
		cfg.JWTConfig.RefreshTTL,
	)

	// Initialize Kafka producer
	var publisher kafka.Publisher
	if len(cfg.KafkaConfig.Brokers) > 0 {
		publisher = kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	} else {
		log.Warn("no kafka brokers configured, events will only be logged")
		publisher = kafka.NewNopPublisher(log)
	}
	defer func() { _ = publisher.Close() }()

	// Outbound channels
	var mailer application.Mailer
	if cfg.Mail.SendGridAPIKey != "" {
		mailer = notify.NewSendGridMailer(cfg.Mail.SendGridAPIKey, cfg.Mail.FromEmail, cfg.Mail.FromName, log)
	} else {
		log.Warn("no sendgrid key configured, e-mails will only be logged")
		mailer = notify.NewLogMailer(log)
	}
	var sms application.SMSSender
	if cfg.SMS.AccountSID != "" {
		sms = notify.NewTwilioSender(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.FromNumber, log)
	}

	// Car cache
	carCache := application.NopCarCache()
	if cfg.RedisConfig.Addr != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisConfig.Addr, cfg.RedisConfig.Password, cfg.RedisConfig.DB)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		carCache = cache.NewRedisCarCache(redisClient, cfg.RedisConfig.TTL, log)
	}

	// Image storage
	var images application.ImageStore
	var localImages *storage.LocalStore
	switch cfg.Storage.Provider {
	case "s3":
		images, err = storage.NewS3Store(ctx, cfg.Storage.S3Region, cfg.Storage.S3Bucket, cfg.Storage.PublicURL)
	default:
		localImages, err = storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.PublicURL)
		images = localImages
	}
	if err != nil {
		log.Fatal("failed to initialize image storage", zap.Error(err))
	}

	// Initialize repositories
	carRepo := repository.NewGormCarRepository(db)
	bookingRepo := repository.NewGormBookingRepository(db)
	customerRepo := repository.NewGormCustomerRepository(db)
	adminRepo := repository.NewGormAdminRepository(db)
	paymentRepo := repository.NewGormPaymentRepository(db)
	feedbackRepo := repository.NewGormFeedbackRepository(db)
	reportRepo := repository.NewGormReportRepository(db)
	transactor := database.NewGormTransactor(db)

	// Initialize application services
	availabilityService := application.NewAvailabilityService(carRepo, bookingRepo, location)
	bookingService := application.NewBookingService(
		carRepo,
		bookingRepo,
		customerRepo,
		paymentRepo,
		availabilityService,
		bookingDomain.NewDailyRatePricing(),
		transactor,
		publisher,
		policy,
		log,
	)
	paymentService := application.NewPaymentService(
		bookingRepo,
		paymentRepo,
		paymentDomain.NewSimulatedGateway(cfg.Policy.CardDeclineSuffix),
		transactor,
		publisher,
		policy,
		log,
	)
	approvalService := application.NewAdminApprovalService(bookingRepo, paymentRepo, transactor, publisher, policy, log)
	carService := application.NewCarService(carRepo, bookingRepo, images, carCache, policy.Currency, log)
	accountService := application.NewAccountService(customerRepo, adminRepo, bookingRepo, jwtManager, mailer, cfg.Mail.AppBaseURL, log)
	feedbackService := application.NewFeedbackService(feedbackRepo, bookingRepo, log)
	reportService := application.NewReportService(reportRepo, policy)
	reminderService := application.NewReminderService(bookingRepo, customerRepo, carRepo, mailer, sms, location, log)

	if cfg.Admin.Password != "" {
		if err := accountService.SeedAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
			log.Fatal("failed to seed administrator", zap.Error(err))
		}
	}

	// Initialize and start the notification consumer in a goroutine
	if len(cfg.KafkaConfig.Brokers) > 0 {
		groupID := cfg.KafkaConfig.GroupPrefix + "rental-notifications"
		notificationConsumer := rentalEvents.NewNotificationConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			customerRepo,
			mailer,
			log,
		)
		defer func() { _ = notificationConsumer.Close() }()

		go func() {
			log.Info("starting notification consumer")
			if err := notificationConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("notification consumer error", zap.Error(err))
			}
		}()
	}

	// Reminder schedule
	reminderScheduler, err := scheduler.New(cfg.ReminderCron, location, reminderService, log)
	if err != nil {
		log.Fatal("failed to create reminder scheduler", zap.Error(err))
	}
	reminderScheduler.Start()

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(accountService)
	carHandler := handler.NewCarHandler(carService, availabilityService, feedbackService, location)
	bookingHandler := handler.NewBookingHandler(bookingService, paymentService, feedbackService, location)
	adminHandler := handler.NewAdminHandler(handler.AdminServices{
		Bookings:  bookingService,
		Approvals: approvalService,
		Payments:  paymentService,
		Accounts:  accountService,
		Reports:   reportService,
		Feedback:  feedbackService,
		Reminders: reminderService,
	}, location)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, serviceName)
	healthHandler.RegisterRoutes(router)

	// Register routes
	authHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	carHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	if localImages != nil {
		router.Static(cfg.Storage.PublicURL, localImages.Dir())
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	reminderScheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}
