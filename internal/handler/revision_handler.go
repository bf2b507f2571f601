package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-revision-api/internal/dto"
	"github.com/noah-isme/sma-revision-api/internal/middleware"
	"github.com/noah-isme/sma-revision-api/internal/models"
	appErrors "github.com/noah-isme/sma-revision-api/pkg/errors"
	"github.com/noah-isme/sma-revision-api/pkg/response"
)

type revisionService interface {
	GenerateOrRefresh(ctx context.Context, req dto.GenerateRevisionRequest, claims *models.JWTClaims) (*models.RevisionListDetail, error)
	GenerateForAssignment(ctx context.Context, assignmentID string, claims *models.JWTClaims) (*models.AssignmentRevisionResult, error)
	Get(ctx context.Context, studentID string, sourceAssignmentID *string, claims *models.JWTClaims) (*models.RevisionListDetail, error)
	ListByStudent(ctx context.Context, studentID string, claims *models.JWTClaims) ([]models.RevisionListSummary, error)
	FindByID(ctx context.Context, listID string, claims *models.JWTClaims) (*models.RevisionListDetail, error)
	Delete(ctx context.Context, listID string, claims *models.JWTClaims) error
}

// RevisionHandler exposes revision list endpoints.
type RevisionHandler struct {
	service revisionService
}

// NewRevisionHandler builds a new handler.
func NewRevisionHandler(service revisionService) *RevisionHandler {
	return &RevisionHandler{service: service}
}

// Generate godoc
// @Summary Create or refresh a revision list
// @Description Adds practice for weak topics without touching existing items.
// @Tags Revision
// @Accept json
// @Produce json
// @Param payload body dto.GenerateRevisionRequest true "Revision list payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /revision-lists [post]
func (h *RevisionHandler) Generate(c *gin.Context) {
	var req dto.GenerateRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid revision list payload"))
		return
	}
	detail, err := h.service.GenerateOrRefresh(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "supply_gaps", len(detail.Gaps))
	response.JSON(c, http.StatusOK, detail, nil, middleware.ExtractMeta(c))
}

// GenerateForAssignment godoc
// @Summary Build revision lists for every graded submission of an assignment
// @Description Failures are reported per student and do not stop the batch.
// @Tags Revision
// @Produce json
// @Param assignmentId path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assignments/{assignmentId}/revision-lists [post]
func (h *RevisionHandler) GenerateForAssignment(c *gin.Context) {
	result, err := h.service.GenerateForAssignment(c.Request.Context(), c.Param("assignmentId"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "success_count", result.SuccessCount)
	middleware.SetMeta(c, "failed_count", result.FailedCount)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// Current godoc
// @Summary Get a student's revision list
// @Description Without assignmentId the teacher-curated list is returned.
// @Tags Revision
// @Produce json
// @Param studentId path string true "Student ID"
// @Param assignmentId query string false "Source assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{studentId}/revision-lists/current [get]
func (h *RevisionHandler) Current(c *gin.Context) {
	var source *string
	if assignmentID := strings.TrimSpace(c.Query("assignmentId")); assignmentID != "" {
		source = &assignmentID
	}
	detail, err := h.service.Get(c.Request.Context(), c.Param("studentId"), source, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ListByStudent godoc
// @Summary List a student's revision lists
// @Tags Revision
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/revision-lists [get]
func (h *RevisionHandler) ListByStudent(c *gin.Context) {
	lists, err := h.service.ListByStudent(c.Request.Context(), c.Param("studentId"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lists, nil)
}

// Get godoc
// @Summary Get a revision list by ID
// @Tags Revision
// @Produce json
// @Param listId path string true "Revision list ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /revision-lists/{listId} [get]
func (h *RevisionHandler) Get(c *gin.Context) {
	detail, err := h.service.FindByID(c.Request.Context(), c.Param("listId"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete godoc
// @Summary Delete a revision list
// @Tags Revision
// @Param listId path string true "Revision list ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /revision-lists/{listId} [delete]
func (h *RevisionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("listId"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
