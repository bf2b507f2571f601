package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-revision-api/internal/models"
	appErrors "github.com/noah-isme/sma-revision-api/pkg/errors"
)

type fakeFeedbackSrv struct {
	summary      *models.FeedbackSummary
	err          error
	submissionID string
	claims       *models.JWTClaims
}

func (f *fakeFeedbackSrv) GetFeedbackSummary(_ context.Context, submissionID string, claims *models.JWTClaims) (*models.FeedbackSummary, error) {
	f.submissionID = submissionID
	f.claims = claims
	return f.summary, f.err
}

func TestFeedbackHandlerSummary(t *testing.T) {
	srv := &fakeFeedbackSrv{summary: &models.FeedbackSummary{
		SubmissionID: "sub-1",
		StudentID:    "stu-1",
		WeakTopics:   []models.TopicBreakdown{{TopicKey: "algebra", Topic: "Algebra", Percentage: 20, RAGStatus: models.RAGRed}},
	}}
	handler := NewFeedbackHandler(srv)

	rec := httptest.NewRecorder()
	c := newTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/submissions/sub-1/feedback", nil)
	c.Params = gin.Params{{Key: "submissionId", Value: "sub-1"}}
	withClaims(c, models.RoleStudent, "stu-1")

	handler.Summary(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sub-1", srv.submissionID)
	require.NotNil(t, srv.claims)
	assert.Equal(t, "stu-1", srv.claims.UserID)

	var summary models.FeedbackSummary
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &summary))
	require.Len(t, summary.WeakTopics, 1)
	assert.Equal(t, models.RAGRed, summary.WeakTopics[0].RAGStatus)
}

func TestFeedbackHandlerSummaryNotFound(t *testing.T) {
	handler := NewFeedbackHandler(&fakeFeedbackSrv{err: appErrors.Clone(appErrors.ErrNotFound, "submission not found")})

	rec := httptest.NewRecorder()
	c := newTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/submissions/missing/feedback", nil)
	c.Params = gin.Params{{Key: "submissionId", Value: "missing"}}

	handler.Summary(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrNotFound.Code, env.Error.Code)
}
