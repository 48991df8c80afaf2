package routes

import (
	"net/http"
	"time"

	"interlingo/handlers"
	"interlingo/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterPaymentRoutes registers settlement endpoints.
func RegisterPaymentRoutes(r *gin.Engine, ph *handlers.PaymentHandler) {
	api := r.Group("/api/payments")
	{
		api.POST("/:appointmentID/operations/:operation", ph.RunOperationHandler)
		api.GET("/:appointmentID", ph.GetPaymentHandler)
		api.POST("/waitlist/scan", ph.ScanWaitListHandler)
	}
}

// RegisterPricingRoutes registers session quote endpoints.
func RegisterPricingRoutes(r *gin.Engine, qh *handlers.PricingHandler) {
	api := r.Group("/api/pricing")
	{
		api.GET("/quote", qh.QuoteHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "services": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, ph *handlers.PaymentHandler, qh *handlers.PricingHandler) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterPaymentRoutes(r, ph)
	RegisterPricingRoutes(r, qh)
}
