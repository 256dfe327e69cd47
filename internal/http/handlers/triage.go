package handlers

import (
	"context"
	"net/http"

	"travelagency/internal/domain"
	"travelagency/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// GetTriage lists customer submissions waiting for approval, oldest first.
func (h Handlers) GetTriage(c *gin.Context) {
	views, err := h.Query.GetTriageBookings(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": views, "count": len(views)})
}

func (h Handlers) AcceptBooking(c *gin.Context) {
	h.triage(c, h.Bookings.Accept)
}

func (h Handlers) RejectBooking(c *gin.Context) {
	h.triage(c, h.Bookings.Reject)
}

func (h Handlers) triage(c *gin.Context, action func(context.Context, domain.Actor, int64) (models.BookingView, error)) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	view, err := action(c.Request.Context(), actor(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
