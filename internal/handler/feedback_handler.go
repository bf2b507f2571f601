package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-revision-api/internal/models"
	"github.com/noah-isme/sma-revision-api/pkg/response"
)

type feedbackService interface {
	GetFeedbackSummary(ctx context.Context, submissionID string, claims *models.JWTClaims) (*models.FeedbackSummary, error)
}

// FeedbackHandler exposes topic-level feedback for graded submissions.
type FeedbackHandler struct {
	service feedbackService
}

// NewFeedbackHandler builds a new handler.
func NewFeedbackHandler(service feedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

// Summary godoc
// @Summary Topic feedback for a submission
// @Tags Feedback
// @Produce json
// @Param submissionId path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/{submissionId}/feedback [get]
func (h *FeedbackHandler) Summary(c *gin.Context) {
	summary, err := h.service.GetFeedbackSummary(c.Request.Context(), c.Param("submissionId"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
