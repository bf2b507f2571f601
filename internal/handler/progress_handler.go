package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-revision-api/internal/dto"
	"github.com/noah-isme/sma-revision-api/internal/models"
	appErrors "github.com/noah-isme/sma-revision-api/pkg/errors"
	"github.com/noah-isme/sma-revision-api/pkg/response"
)

type progressService interface {
	RecordProgress(ctx context.Context, itemID string, status models.AllocationStatus, answer *string, claims *models.JWTClaims) (*models.RevisionListItem, error)
}

// ProgressHandler records progress on revision items.
type ProgressHandler struct {
	service progressService
}

// NewProgressHandler builds a new handler.
func NewProgressHandler(service progressService) *ProgressHandler {
	return &ProgressHandler{service: service}
}

// Record godoc
// @Summary Record progress on a revision item
// @Description Items move pending, in_progress, completed. Regressions return 409.
// @Tags Revision
// @Accept json
// @Produce json
// @Param itemId path string true "Revision item ID"
// @Param payload body dto.RecordProgressRequest true "Progress payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /revision-items/{itemId} [patch]
func (h *ProgressHandler) Record(c *gin.Context) {
	var req dto.RecordProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid progress payload"))
		return
	}
	item, err := h.service.RecordProgress(c.Request.Context(), c.Param("itemId"), req.Status, req.Answer, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
