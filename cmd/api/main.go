package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/property-booking/internal/config"
	"github.com/fairyhunter13/property-booking/internal/handler"
	"github.com/fairyhunter13/property-booking/internal/jobs"
	"github.com/fairyhunter13/property-booking/internal/notify"
	"github.com/fairyhunter13/property-booking/internal/payment"
	"github.com/fairyhunter13/property-booking/internal/repository"
	"github.com/fairyhunter13/property-booking/internal/service"
	"github.com/fairyhunter13/property-booking/internal/validator"
	"github.com/fairyhunter13/property-booking/pkg/database"
	"github.com/fairyhunter13/property-booking/pkg/ratelimit"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg)

	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), cfg.DB.MaxRetries)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if cfg.DB.Migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      "Property Booking",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())

	validate := validator.New()

	// Repositories
	couponRepo := repository.NewCouponRepository(pool)
	propertyRepo := repository.NewPropertyRepository(pool)
	roomRepo := repository.NewRoomRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	// Outbound channels. Each one is optional.
	var (
		publisher     *notify.Publisher
		bookingEvents service.EventPublisher
		jobEvents     jobs.EventPublisher
		channels      notify.Channels
	)
	if cfg.Kafka.Enabled {
		producer, err := notify.NewSyncProducer(cfg.Kafka.Brokers)
		if err != nil {
			log.Fatal().Err(err).Strs("brokers", cfg.Kafka.Brokers).Msg("failed to connect to kafka")
		}
		publisher = notify.NewPublisher(producer, cfg.Kafka.NotificationTopic, cfg.Kafka.BookingTopic)
		bookingEvents = publisher
		jobEvents = publisher
		channels.Push = publisher
	}
	if cfg.SMS.APIURL != "" {
		channels.SMS = notify.NewSMSClient(cfg.SMS.APIURL, cfg.SMS.APIToken, cfg.SMS.Sender, cfg.SMS.CountryPrefix, cfg.SMS.Timeout)
	}
	if cfg.SMTP.Host != "" {
		channels.Mail = notify.NewMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	}
	dispatcher := notify.NewDispatcher(notificationRepo, channels, 0)
	log.Info().
		Bool("push", channels.Push != nil).
		Bool("sms", channels.SMS != nil).
		Bool("email", channels.Mail != nil).
		Msg("notification channels configured")

	// Services
	couponService := service.NewCouponService(couponRepo)
	propertyService := service.NewPropertyService(propertyRepo, roomRepo)
	bookingService := service.NewBookingService(pool, service.BookingDeps{
		Bookings:   bookingRepo,
		Rooms:      roomRepo,
		Properties: propertyRepo,
		Coupons:    couponService,
		Gateway:    payment.NewSimulatedGateway(cfg.Payment.DeclineMethods),
		Notifier:   dispatcher,
		Events:     bookingEvents,
	}, service.BookingConfig{
		Currency:        cfg.Payment.Currency,
		ChargeTimeout:   cfg.Payment.ChargeTimeout,
		ConfirmAttempts: cfg.Payment.ConfirmAttempts,
		ConfirmBackoff:  cfg.Payment.ConfirmBackoff,
	})
	reviewService := service.NewReviewService(pool, reviewRepo, bookingRepo, propertyRepo, dispatcher)

	// Rate limiting on booking creation
	var (
		redisClient    *redis.Client
		cachePinger    handler.Pinger
		bookingLimiter fiber.Handler
	)
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cachePinger = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		limiter := ratelimit.New(redisClient, "ratelimit:bookings", cfg.Redis.BookingRateLimit, cfg.Redis.BookingRateWindow)
		bookingLimiter = ratelimit.Middleware(limiter, func(c *fiber.Ctx) string {
			return handler.UserID(c).String()
		})
	}

	handler.Register(app, handler.Handlers{
		Health:        handler.NewHealthHandler(pool, cachePinger),
		Coupons:       handler.NewCouponHandler(couponService, validate),
		Bookings:      handler.NewBookingHandler(bookingService, validate),
		Properties:    handler.NewPropertyHandler(propertyService, validate),
		Reviews:       handler.NewReviewHandler(reviewService, validate),
		Notifications: handler.NewNotificationHandler(dispatcher),
	}, handler.RouterConfig{
		JWTSecret:      cfg.Auth.JWTSecret,
		JWTIssuer:      cfg.Auth.Issuer,
		BookingLimiter: bookingLimiter,
	})

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(bookingRepo, reviewService, jobEvents, bookingService, jobs.Config{
			CompletionInterval: cfg.Jobs.CompletionInterval,
			ReminderInterval:   cfg.Jobs.ReminderInterval,
			ReminderDelay:      cfg.Jobs.ReminderDelay,
			ReconcileInterval:  cfg.Jobs.ReconcileInterval,
			PendingTimeout:     cfg.Payment.ChargeTimeout + cfg.Jobs.PendingGrace,
		})
		scheduler.Start(ctx)
	}

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	// Pending notification deliveries still need the database and producer.
	log.Info().Msg("waiting for notification deliveries...")
	dispatcher.Wait()

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("error closing kafka producer")
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis client")
		}
	}

	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
