package api

import (
	"github.com/gin-gonic/gin"
	"github.com/qrplate/qrplate/internal/api/handlers"
	"github.com/qrplate/qrplate/internal/api/middleware"
	"github.com/qrplate/qrplate/internal/auth"
	"github.com/qrplate/qrplate/internal/config"
	"github.com/qrplate/qrplate/internal/queue"
	"github.com/qrplate/qrplate/internal/service"
	"gorm.io/gorm"
)

// NewRouter builds the Gin engine with all routes wired.
func NewRouter(db *gorm.DB, cfg *config.Config, authenticator auth.Authenticator, q queue.Queue) *gin.Engine {
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS())

	accounts := service.NewAccountService(db, q, authenticator, cfg.Storefront.BaseURL)
	restaurants := service.NewRestaurantService(db)
	plans := service.NewPlanService(db)
	menu := service.NewMenuService(db)
	tables := service.NewTableService(db, cfg.Storefront.BaseURL)
	orders := service.NewOrderService(db)

	authHandler := handlers.NewAuthHandler(accounts, authenticator)
	adminHandler := handlers.NewAdminHandler(accounts, restaurants, authenticator)
	restaurantHandler := handlers.NewRestaurantHandler(restaurants, authenticator)
	planHandler := handlers.NewPlanHandler(plans, authenticator)
	menuHandler := handlers.NewMenuHandler(menu, authenticator)
	tableHandler := handlers.NewTableHandler(tables, authenticator)
	orderHandler := handlers.NewOrderHandler(orders, authenticator)
	storefrontHandler := handlers.NewStorefrontHandler(restaurants, menu, orders)

	router.GET("/health", handlers.HealthCheck)

	v1 := router.Group("/api/v1")

	// Public routes
	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/auth/forgot-password", authHandler.ForgotPassword)
	v1.POST("/auth/reset-password", authHandler.ResetPassword)
	v1.GET("/plans", planHandler.ListActive)

	storefront := v1.Group("/storefront/:restaurantID")
	{
		storefront.GET("", storefrontHandler.Get)
		storefront.GET("/menu", storefrontHandler.Menu)
		storefront.POST("/orders", storefrontHandler.PlaceOrder)
	}

	// Authenticated routes
	authed := v1.Group("")
	authed.Use(authenticator.Middleware())
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.GET("/restaurants/mine", restaurantHandler.Mine)
	}

	// Restaurant dashboard routes, scoped by access policy
	dashboard := v1.Group("/restaurants/:restaurantID")
	dashboard.Use(authenticator.Middleware(), middleware.RequireRestaurantAccess(authenticator))
	{
		dashboard.GET("/menu", menuHandler.List)
		dashboard.GET("/menu/categories", menuHandler.Categories)
		dashboard.POST("/menu", menuHandler.Create)
		dashboard.PUT("/menu/:itemID", menuHandler.Update)
		dashboard.PATCH("/menu/:itemID/availability", menuHandler.SetAvailability)
		dashboard.DELETE("/menu/:itemID", menuHandler.Delete)

		dashboard.GET("/tables", tableHandler.List)
		dashboard.POST("/tables", tableHandler.Create)
		dashboard.PUT("/tables/:tableID", tableHandler.Update)
		dashboard.DELETE("/tables/:tableID", tableHandler.Delete)

		dashboard.GET("/orders", orderHandler.List)
		dashboard.GET("/orders/:orderID", orderHandler.Get)
		dashboard.PATCH("/orders/:orderID/status", orderHandler.UpdateStatus)
	}

	// Platform owner console
	admin := v1.Group("/admin")
	admin.Use(authenticator.Middleware(), middleware.RequirePlatformOwner(authenticator))
	{
		admin.GET("/registrations", adminHandler.ListRegistrations)
		admin.POST("/registrations/:id/approve", adminHandler.ApproveRegistration)
		admin.POST("/registrations/:id/reject", adminHandler.RejectRegistration)
		admin.GET("/stats", adminHandler.Stats)

		admin.GET("/accounts", adminHandler.ListAccounts)
		admin.PATCH("/accounts/:id/status", adminHandler.SetAccountStatus)
		admin.DELETE("/accounts/:id", adminHandler.DeleteAccount)

		admin.GET("/restaurants", restaurantHandler.List)
		admin.POST("/restaurants", restaurantHandler.Create)
		admin.GET("/restaurants/:id", restaurantHandler.Get)
		admin.PUT("/restaurants/:id", restaurantHandler.Update)
		admin.PATCH("/restaurants/:id/status", restaurantHandler.SetStatus)
		admin.DELETE("/restaurants/:id", restaurantHandler.Delete)

		admin.GET("/plans", planHandler.ListAll)
		admin.POST("/plans", planHandler.Create)
		admin.PUT("/plans/:id", planHandler.Update)
		admin.PATCH("/plans/:id/active", planHandler.SetActive)
		admin.DELETE("/plans/:id", planHandler.Delete)
	}

	return router
}
