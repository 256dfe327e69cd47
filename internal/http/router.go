package api

import (
	stdhttp "net/http"
	"slices"
	"time"

	intconfig "travelagency/internal/config"
	h "travelagency/internal/http/handlers"
	"travelagency/internal/http/middleware"
	"travelagency/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires middleware and routes. Staff routes require a bearer token
// issued by /api/auth/login; the public booking form is rate limited per IP.
func NewRouter(env intconfig.Env, handlers h.Handlers) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		gin.Recovery(),
		cors.New(corsConfig(env.CORSOrigins)),
		middleware.Auth(handlers.Auth),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.Logger.WithError(err).Warn("failed to set trusted proxies")
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", handlers.Health)
		api.GET("/db-check", handlers.DBCheck)

		auth := api.Group("/auth")
		auth.POST("/login", handlers.Login)
		auth.POST("/staff", middleware.RequireStaff(), middleware.RequireRoles("admin"), handlers.CreateStaff)

		limiter := middleware.NewIPRateLimiter(env.PublicRatePerMin, env.PublicRateBurst)
		public := api.Group("/public", middleware.RateLimit(limiter))
		public.POST("/bookings", handlers.CreatePublicBooking)

		bookings := api.Group("/bookings", middleware.RequireStaff())
		bookings.GET("", handlers.ListBookings)
		bookings.POST("", handlers.CreateBooking)
		bookings.GET("/:id", handlers.GetBooking)
		bookings.PUT("/:id", handlers.UpdateBooking)
		bookings.DELETE("/:id", handlers.DeleteBooking)
		bookings.PUT("/:id/status", handlers.SetStatus)
		bookings.PUT("/:id/payment", handlers.UpdatePayment)
		bookings.GET("/:id/passengers", handlers.ListPassengers)
		bookings.PUT("/:id/passengers", handlers.ReplacePassengers)
		bookings.GET("/:id/invoice", handlers.GetInvoicePDF)

		triage := api.Group("/triage", middleware.RequireStaff())
		triage.GET("", handlers.GetTriage)
		triage.POST("/:id/accept", handlers.AcceptBooking)
		triage.POST("/:id/reject", handlers.RejectBooking)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Accept", "Origin", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}
	switch {
	case len(origins) == 0:
		cfg.AllowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	case slices.Contains(origins, "*"):
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	default:
		cfg.AllowOrigins = origins
	}
	return cfg
}
