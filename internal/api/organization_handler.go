// internal/api/organization_handler.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "leadgenius/internal/common/errors"
	"leadgenius/internal/common/logger"
	"leadgenius/internal/models"
)

type organizationHandler struct {
	store  OrganizationStore
	logger logger.Logger
}

func (h *organizationHandler) ready(c *gin.Context) (string, bool) {
	userID, err := UserID(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	if h.store == nil {
		respondError(c, h.logger, apperrors.NewNotFoundError("Organization not found"))
		return "", false
	}
	return userID, true
}

// GET /api/organization
func (h *organizationHandler) get(c *gin.Context) {
	userID, ok := h.ready(c)
	if !ok {
		return
	}

	org, err := h.store.GetForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// PATCH /api/organization
func (h *organizationHandler) update(c *gin.Context) {
	userID, ok := h.ready(c)
	if !ok {
		return
	}

	var update models.BrandingUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	org, err := h.store.UpdateBranding(c.Request.Context(), userID, update)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, org)
}
