package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-revision-api/internal/mastery"
	"github.com/noah-isme/sma-revision-api/internal/models"
	appErrors "github.com/noah-isme/sma-revision-api/pkg/errors"
)

type submissionReader interface {
	FindByID(ctx context.Context, submissionID string) (*models.Submission, error)
	LoadGradedQuestions(ctx context.Context, submissionID string) ([]models.GradedQuestion, error)
}

// FeedbackService turns graded submissions into topic-level feedback.
type FeedbackService struct {
	submissions submissionReader
	logger      *zap.Logger
}

// NewFeedbackService constructs a FeedbackService.
func NewFeedbackService(submissions submissionReader, logger *zap.Logger) *FeedbackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{submissions: submissions, logger: logger}
}

// GetFeedbackSummary aggregates the current grades of a submission. It is
// computed on every call so re-grading is reflected immediately.
func (s *FeedbackService) GetFeedbackSummary(ctx context.Context, submissionID string, claims *models.JWTClaims) (*models.FeedbackSummary, error) {
	submission, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if err := ensureStudentAccess(claims, submission.StudentID); err != nil {
		return nil, err
	}

	questions, err := s.submissions.LoadGradedQuestions(ctx, submissionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load graded questions")
	}

	summary := mastery.Aggregate(questions)
	if len(summary.Rejected) > 0 {
		s.logger.Warn("graded questions rejected from aggregation",
			zap.String("submission_id", submissionID),
			zap.Int("rejected", len(summary.Rejected)))
	}

	return &models.FeedbackSummary{
		SubmissionID: submission.ID,
		StudentID:    submission.StudentID,
		AssignmentID: submission.AssignmentID,
		Overall:      summary.Overall,
		ByTopic:      summary.ByTopic,
		WeakTopics:   mastery.SelectWeak(summary.ByTopic),
		Rejected:     summary.Rejected,
	}, nil
}

// ensureStudentAccess lets staff through and keeps students to their own data.
func ensureStudentAccess(claims *models.JWTClaims, studentID string) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleStudent && claims.UserID != studentID {
		return appErrors.ErrForbidden
	}
	return nil
}
