package handlers

import (
	"net/http"

	"travelagency/internal/domain/models"

	"github.com/gin-gonic/gin"
)

type passengersRequest struct {
	Passengers []models.PassengerInput `json:"passengers"`
}

func (h Handlers) ListPassengers(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ps, err := h.Passengers.List(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking_id": id, "passengers": ps})
}

// ReplacePassengers swaps the whole ordered list.
func (h Handlers) ReplacePassengers(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req passengersRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	ps, err := h.Passengers.Replace(c.Request.Context(), actor(c), id, req.Passengers)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking_id": id, "passengers": ps})
}
