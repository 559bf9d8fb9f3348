// internal/api/leads_handler.go
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "leadgenius/internal/common/errors"
	"leadgenius/internal/common/logger"
	"leadgenius/internal/models"
)

const (
	defaultArchiveLimit = 20
	maxArchiveLimit     = 100
)

type leadsHandler struct {
	service LeadService
	logger  logger.Logger
}

// POST /api/leads
func (h *leadsHandler) search(c *gin.Context) {
	var params models.SearchParams
	if err := c.ShouldBindJSON(&params); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	resp, err := h.service.Search(c.Request.Context(), params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/leads/:id/analyze
func (h *leadsHandler) analyze(c *gin.Context) {
	resp, err := h.service.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/leads/analyzed?q=&opportunity=&limit=
func (h *leadsHandler) archive(c *gin.Context) {
	limit := defaultArchiveLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxArchiveLimit {
			respondError(c, h.logger, apperrors.NewValidationError("limit must be between 1 and 100"))
			return
		}
		limit = n
	}

	result, err := h.service.Archive(c.Request.Context(), c.Query("q"), c.Query("opportunity"), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": result.Leads, "total": result.Total})
}
