package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"village-sabha/internal/adapters/gateway"
	"village-sabha/internal/adapters/http/middleware"
	"village-sabha/internal/adapters/http/routes"
	"village-sabha/internal/adapters/mail"
	"village-sabha/internal/adapters/messaging"
	"village-sabha/internal/adapters/otpstore"
	"village-sabha/internal/adapters/persistence/models"
	"village-sabha/internal/adapters/persistence/repositories"
	"village-sabha/internal/config"
	"village-sabha/internal/core/services"
	"village-sabha/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	_ "village-sabha/docs" // Swagger docs
)

// @title Village Sabha API
// @version 1.0
// @description Village community membership, donations and family tree API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@villagesabha.in

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host api.villagesabha.in
// @BasePath /api/v1
// @schemes https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed villages and the first admin
	if err := config.NewSeeder(db, cfg.Seed).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to seed data: %v", err)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// OTP store
	var (
		otpStore    services.OTPStore = otpstore.NewMemoryStore()
		redisClient *redis.Client
	)
	if cfg.OTP.Backend == "redis" {
		redisClient, err = config.ConnectRedis(cfg.Redis)
		if err != nil {
			log.Fatalf("❌ Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		otpStore = otpstore.NewRedisStore(redisClient)
	}

	// OTP mail, console only when SMTP is not configured
	var mailer services.Mailer
	if smtpMailer := mail.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From); smtpMailer != nil {
		mailer = smtpMailer
	} else {
		log.Println("⚠️ SMTP not configured, OTPs are printed to the console")
	}

	// Domain events
	var publisher interface {
		services.EventPublisher
		Close() error
	} = messaging.Nop{}
	if cfg.AMQP.URL != "" {
		amqpPublisher, err := messaging.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Printf("⚠️ Warning: RabbitMQ unavailable, events are dropped: %v", err)
		} else {
			publisher = amqpPublisher
		}
	}
	defer publisher.Close()

	// Payment gateway
	razorpay := gateway.NewRazorpay(
		gateway.Credentials{KeyID: cfg.Razorpay.KeyID, KeySecret: cfg.Razorpay.KeySecret},
		gateway.Credentials{KeyID: cfg.Razorpay.SpecialKeyID, KeySecret: cfg.Razorpay.SpecialKeySecret},
	)

	// Services
	store := repositories.NewStore(db)
	credentials := services.NewCredentialService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.SessionTTL())
	otpService := services.NewOTPService(otpStore, services.NewNotificationService(mailer), cfg.OTP.TTL, m)
	membershipService := services.NewMembershipService(store, services.NewSabhasadAllocator(cfg.Membership.SabhasadPrefix), publisher, m)

	// Expired OTP sweep
	cronService, err := services.NewCronService(otpService, cfg.OTP.SweepSchedule)
	if err != nil {
		log.Fatalf("❌ Failed to schedule jobs: %v", err)
	}
	cronService.Start()
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Village Sabha API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, &routes.Dependencies{
		Config:      cfg,
		DB:          db,
		Redis:       redisClient,
		Gatherer:    registry,
		Credentials: credentials,
		Auth:        services.NewAuthService(store, credentials, otpService),
		Users:       services.NewUserService(store),
		Membership:  membershipService,
		Payments:    services.NewPaymentService(store, razorpay, membershipService, publisher, m, cfg),
		Villages:    services.NewVillageService(store),
		Events:      services.NewEventService(store),
		Family:      services.NewFamilyService(store),
	})

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
