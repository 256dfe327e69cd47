package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/bookings/:id/invoice
func (h Handlers) GetInvoicePDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	pdfBytes, filename, err := h.Docs.GenerateInvoice(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
