// Package handlers adapts HTTP requests to the booking services.
package handlers

import (
	"context"

	"travelagency/internal/domain"
	"travelagency/internal/http/middleware"
	"travelagency/internal/services"

	"github.com/gin-gonic/gin"
)

// Handlers holds the services the routes call into.
type Handlers struct {
	Bookings   services.BookingService
	Query      services.QueryService
	Passengers services.PassengerService
	Auth       services.AuthService
	Docs       services.DocsService
	// Ping checks storage health; nil reports the in-memory store.
	Ping func(ctx context.Context) error
}

func actor(c *gin.Context) domain.Actor {
	a, _ := middleware.ActorFrom(c)
	return a
}
