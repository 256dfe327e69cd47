package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "travel agency backend running"})
}

// DBCheck pings storage with a short deadline.
func (h Handlers) DBCheck(c *gin.Context) {
	if h.Ping == nil {
		c.JSON(http.StatusOK, gin.H{"message": "in-memory storage", "storage": "memory"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Ping(ctx); err != nil {
		RespondError(c, http.StatusServiceUnavailable, "database unreachable", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "database connection OK", "storage": "mysql"})
}
