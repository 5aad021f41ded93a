package routes

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/zlucky/raffle-backend/internal/config"
	"github.com/zlucky/raffle-backend/internal/handlers"
	"github.com/zlucky/raffle-backend/internal/middleware"
)

// Handlers bundles the HTTP handlers the router wires up
type Handlers struct {
	Auth        *handlers.AuthHandler
	Event       *handlers.EventHandler
	Reservation *handlers.ReservationHandler
	Payment     *handlers.PaymentHandler
	Draw        *handlers.DrawHandler
	Sweep       *handlers.SweepHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, h *Handlers, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Request-ID")
	router.Use(cors.New(corsConfig))

	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		auth := public.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
		}

		events := public.Group("/public/events")
		{
			events.GET("/:eventId", h.Event.GetEvent)
			events.GET("/:eventId/available-tickets", h.Event.ListAvailableTickets)
			events.GET("/:eventId/tickets/:number", h.Event.GetTicket)
			events.GET("/:eventId/winners", h.Draw.GetWinners)
			events.POST("/:eventId/reserve", h.Reservation.Reserve)
		}

		payments := public.Group("/public/payments")
		{
			payments.GET("/:txRef", h.Payment.GetPayment)
			payments.GET("/:txRef/verify", h.Payment.Verify)
			payments.POST("/webhook", h.Payment.Webhook)
		}

		// Invoked by the external scheduler, guarded by a shared secret.
		public.POST("/cron/sweep", h.Sweep.Sweep)
	}

	protected := router.Group("/api/v1/admin")
	protected.Use(middleware.JWTAuthMiddleware(cfg))
	{
		events := protected.Group("/events")
		{
			events.POST("", h.Event.CreateEvent)
			events.GET("", h.Event.ListEvents)
			events.GET("/:eventId/tickets", h.Event.ListTickets)
			events.POST("/:eventId/close", h.Event.CloseEvent)
			events.DELETE("/:eventId", h.Event.DeleteEvent)
			events.POST("/:eventId/draw", h.Draw.DrawWinners)
			events.GET("/:eventId/winners", h.Draw.ListWinners)
		}
	}

	return router
}
