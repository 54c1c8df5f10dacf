package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"marketplace.backend/internal/infrastructure/metrics"
	"marketplace.backend/internal/interfaces/http/handlers"
	"marketplace.backend/internal/interfaces/http/middleware"
)

const (
	serviceName    = "marketplace-backend"
	serviceVersion = "0.1.0"
)

type routeDeps struct {
	authHandler         *handlers.AuthHandler
	sellerHandler       *handlers.SellerHandler
	adminHandler        *handlers.AdminHandler
	subscriptionHandler *handlers.SubscriptionHandler
	webhookHandler      *handlers.WebhookHandler
	authMiddleware      gin.HandlerFunc
	adminMiddleware     gin.HandlerFunc
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Idempotency-Key, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, X-Idempotency-Hit")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
			"version": serviceVersion,
		})
	})
}

func registerMetricsRoute(r *gin.Engine, m *metrics.Metrics) {
	r.GET("/metrics", gin.WrapH(m.Handler()))
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Auth routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", d.authHandler.Register)
			auth.POST("/login", d.authHandler.Login)
			auth.POST("/refresh", d.authHandler.Refresh)
			auth.GET("/me", d.authMiddleware, d.authHandler.GetMe)
		}

		// Gateway callbacks are unauthenticated; the gateway is re-queried before any change.
		v1.POST("/seller/subscription/callback/:subscriptionId", d.webhookHandler.PaymentCallback)

		seller := v1.Group("/seller")
		seller.Use(d.authMiddleware)
		{
			seller.POST("/register", d.sellerHandler.Register)
			seller.GET("/validation-status", d.sellerHandler.ValidationStatus)
			seller.GET("/capability", d.sellerHandler.Capability)

			subscription := seller.Group("/subscription")
			{
				subscription.GET("", d.subscriptionHandler.Current)
				subscription.POST("/trial", d.subscriptionHandler.StartTrial)
				subscription.GET("/trial", d.subscriptionHandler.TrialStatus)
				subscription.POST("/initiate", middleware.IdempotencyMiddleware(), d.subscriptionHandler.Initiate)
				subscription.POST("/:id/cancel", d.subscriptionHandler.Cancel)
			}
		}

		admin := v1.Group("/admin")
		admin.Use(d.authMiddleware, d.adminMiddleware)
		{
			admin.GET("/seller-requests", d.adminHandler.ListSellerRequests)
			admin.POST("/seller-requests/:id/approve", d.adminHandler.ApproveSellerRequest)
			admin.POST("/seller-requests/:id/reject", d.adminHandler.RejectSellerRequest)
		}
	}
}
