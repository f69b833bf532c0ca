package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront-coupons/internal/config"
	"storefront-coupons/internal/database"
	"storefront-coupons/internal/handlers"
	"storefront-coupons/internal/middleware"
	"storefront-coupons/internal/service"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// Initialize session store
	middleware.InitSessionStore(cfg.SessionSecret)

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.TenantHeader},
		AllowCredentials: true,
	}))

	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.HealthCheck("/healthz"))

	// Initialize stores and services
	couponQueries := database.NewCouponQueries(db)
	usageQueries := database.NewUsageQueries(db)
	tenantQueries := database.NewTenantQueries(db)
	couponService := service.NewCouponService(couponQueries, usageQueries)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg.JWTSecret)
	couponHandler := handlers.NewCouponHandler(couponQueries, usageQueries)
	checkoutHandler := handlers.NewCheckoutHandler(couponService, usageQueries, cfg.CommitTimeout)

	// Storefront routes: tenant-scoped, session-tracked, no auth required
	store := r.Group("/api")
	store.Use(middleware.TenantMiddleware(tenantQueries))
	store.Use(middleware.SessionMiddleware())
	{
		store.POST("/coupons/validate", checkoutHandler.ValidateCoupon)
		store.POST("/checkout/redeem", checkoutHandler.RedeemCoupon)
	}

	// Auth routes: login resolves the tenant from the header, /me from
	// the token claims
	r.POST("/api/auth/login", middleware.TenantMiddleware(tenantQueries), authHandler.Login)
	r.GET("/api/auth/me", middleware.AuthMiddleware(cfg.JWTSecret), authHandler.Me)

	// Admin routes: tenant comes from the JWT claims
	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminMiddleware(cfg.JWTSecret))
	{
		admin.GET("/coupons", couponHandler.ListCoupons)
		admin.POST("/coupons", couponHandler.CreateCoupon)
		admin.GET("/coupons/:id", couponHandler.GetCoupon)
		admin.PUT("/coupons/:id", couponHandler.UpdateCoupon)
		admin.DELETE("/coupons/:id", couponHandler.DeleteCoupon)
		admin.PATCH("/coupons/:id/active", couponHandler.SetCouponActive)
		admin.GET("/coupons/:id/stats", couponHandler.GetCouponStats)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
