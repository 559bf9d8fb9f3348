// internal/api/outreach_handler.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadgenius/internal/common/logger"
	"leadgenius/internal/models"
)

type outreachHandler struct {
	finder EmailFinder
	logger logger.Logger
}

// POST /api/outreach/find-email
func (h *outreachHandler) findEmail(c *gin.Context) {
	var req models.FindEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.finder.FindEmail(c.Request.Context(), req.Domain, req.CompanyName)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Email not found"})
		return
	}
	c.JSON(http.StatusOK, result)
}
