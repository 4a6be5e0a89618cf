package routes

import (
	"time"

	"village-sabha/internal/adapters/http/handlers"
	"village-sabha/internal/adapters/http/middleware"
	"village-sabha/internal/config"
	"village-sabha/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// publicCacheAge is how long public listings may be cached
const publicCacheAge = time.Minute

// Dependencies carries everything the routes need
type Dependencies struct {
	Config   *config.Config
	DB       *gorm.DB
	Redis    *redis.Client
	Gatherer prometheus.Gatherer

	Credentials *services.CredentialService
	Auth        *services.AuthService
	Users       *services.UserService
	Membership  *services.MembershipService
	Payments    *services.PaymentService
	Villages    *services.VillageService
	Events      *services.EventService
	Family      *services.FamilyService
}

// Setup configures all routes for the application
func Setup(app *fiber.App, deps *Dependencies) {
	cfg := deps.Config

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis, deps.Gatherer, cfg.AppMode)
	authHandler := handlers.NewAuthHandler(deps.Auth, cfg)
	memberHandler := handlers.NewMemberHandler(deps.Users, deps.Membership)
	paymentHandler := handlers.NewPaymentHandler(deps.Payments)
	villageHandler := handlers.NewVillageHandler(deps.Villages)
	eventHandler := handlers.NewEventHandler(deps.Events, deps.Payments)
	familyHandler := handlers.NewFamilyHandler(deps.Family)

	requireAuth := middleware.AuthMiddleware(deps.Credentials, deps.Auth)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)
	if deps.Gatherer != nil {
		app.Get("/metrics", healthHandler.Metrics())
	}

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes
	authRoutes := apiV1.Group("/auth", middleware.NoCacheHeaders())
	setupAuthRoutes(authRoutes, authHandler, requireAuth)

	// Member routes (Authenticated)
	memberRoutes := apiV1.Group("/members", requireAuth)
	setupMemberRoutes(memberRoutes, memberHandler)

	// Payment routes
	paymentRoutes := apiV1.Group("/payments", middleware.NoCacheHeaders())
	setupPaymentRoutes(paymentRoutes, paymentHandler, requireAuth)

	// Village routes (public reads, admin writes)
	villageRoutes := apiV1.Group("/villages")
	setupVillageRoutes(villageRoutes, villageHandler, requireAuth)

	// Donation event routes (public reads)
	eventRoutes := apiV1.Group("/events")
	setupEventRoutes(eventRoutes, eventHandler, requireAuth)

	// Family tree routes (Authenticated)
	familyRoutes := apiV1.Group("/family", requireAuth)
	setupFamilyRoutes(familyRoutes, familyHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, requireAuth fiber.Handler) {
	// Public routes
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/token", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/logout", handler.Logout)
	router.Post("/check-duplicates", handler.CheckDuplicates)
	router.Post("/check-email", handler.CheckEmail)

	// OTP routes (3 req/min/IP against spam and brute force)
	router.Post("/request-otp", middleware.StrictRateLimiter(), handler.RequestOTP)
	router.Post("/verify-otp", middleware.AuthRateLimiter(), handler.VerifyOTP)
	router.Post("/admin/request-otp", middleware.StrictRateLimiter(), handler.RequestAdminOTP)
	router.Post("/admin/verify-otp", middleware.AuthRateLimiter(), handler.VerifyAdminOTP)
	router.Post("/forgot-password/request-otp", middleware.StrictRateLimiter(), handler.ForgotPassword)
	router.Post("/forgot-password/reset", middleware.AuthRateLimiter(), handler.ResetPassword)

	// Protected routes
	router.Get("/me", requireAuth, handler.Me)
	router.Get("/users/me", requireAuth, handler.Me)
}

// setupMemberRoutes configures directory and membership routes
func setupMemberRoutes(router fiber.Router, handler *handlers.MemberHandler) {
	router.Put("/apply", handler.Apply)

	// Admin only
	router.Get("/pending", middleware.AdminOnly(), handler.Pending)
	router.Put("/:id/approve", middleware.AdminOnly(), handler.Approve)
	router.Put("/:id/reject", middleware.AdminOnly(), handler.Reject)

	// Approved users, members and admins
	router.Get("/", middleware.ApprovedOrMember(), handler.List)
	router.Get("/:id", middleware.ApprovedOrMember(), handler.Get)
}

// setupPaymentRoutes configures payment routes
func setupPaymentRoutes(router fiber.Router, handler *handlers.PaymentHandler, requireAuth fiber.Handler) {
	router.Get("/membership/fee", handler.MembershipFee)

	router.Post("/membership/create-order", requireAuth, handler.CreateMembershipOrder)
	router.Post("/membership/verify", requireAuth, handler.VerifyMembership)

	router.Post("/create-order", requireAuth, handler.CreateOrder)
	router.Post("/verify", requireAuth, handler.Verify)

	router.Post("/special-fund/create-order", requireAuth, handler.CreateSpecialFundOrder)
	router.Post("/special-fund/verify", requireAuth, handler.VerifySpecialFund)

	router.Get("/history", requireAuth, handler.History)
	router.Get("/stats", requireAuth, middleware.AdminOnly(), handler.Stats)
}

// setupVillageRoutes configures village routes
func setupVillageRoutes(router fiber.Router, handler *handlers.VillageHandler, requireAuth fiber.Handler) {
	router.Get("/", middleware.CacheControl(publicCacheAge), handler.List)

	// Admin only
	router.Post("/", requireAuth, middleware.AdminOnly(), handler.Create)
	router.Put("/:id", requireAuth, middleware.AdminOnly(), handler.Update)
	router.Delete("/:id", requireAuth, middleware.AdminOnly(), handler.Delete)
}

// setupEventRoutes configures donation event routes
func setupEventRoutes(router fiber.Router, handler *handlers.EventHandler, requireAuth fiber.Handler) {
	router.Get("/", middleware.CacheControl(publicCacheAge), handler.List)
	router.Post("/", requireAuth, middleware.AdminOnly(), handler.Create)

	router.Post("/:id/donate", requireAuth, middleware.NoCacheHeaders(), handler.Donate)
	router.Post("/:id/verify-donation", requireAuth, middleware.NoCacheHeaders(), handler.VerifyDonation)
}

// setupFamilyRoutes configures family tree routes
func setupFamilyRoutes(router fiber.Router, handler *handlers.FamilyHandler) {
	router.Get("/", handler.List)
	router.Post("/", handler.Create)
	router.Get("/tree", handler.Tree)
	router.Get("/tree/:user_id", handler.TreeOf)
	router.Put("/:id", handler.Update)
	router.Delete("/:id", handler.Delete)
}
