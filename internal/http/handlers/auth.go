package handlers

import (
	"net/http"

	"travelagency/internal/services"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/auth/staff (admin only)
func (h Handlers) CreateStaff(c *gin.Context) {
	var req services.CreateStaffInput
	if !BindJSONOrError(c, &req) {
		return
	}
	acc, err := h.Auth.CreateStaff(c.Request.Context(), actor(c), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, acc)
}
