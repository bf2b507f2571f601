package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-revision-api/internal/dto"
	"github.com/noah-isme/sma-revision-api/internal/mastery"
	"github.com/noah-isme/sma-revision-api/internal/models"
	appErrors "github.com/noah-isme/sma-revision-api/pkg/errors"
)

type assignmentSubmissionReader interface {
	FindByStudentAndAssignment(ctx context.Context, studentID, assignmentID string) (*models.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.Submission, error)
	LoadGradedQuestions(ctx context.Context, submissionID string) ([]models.GradedQuestion, error)
}

type revisionListStore interface {
	Load(ctx context.Context, studentID string, sourceAssignmentID *string) (*models.RevisionList, []models.RevisionListItem, error)
	FindByID(ctx context.Context, listID string) (*models.RevisionList, error)
	Items(ctx context.Context, listID string) ([]models.RevisionListItem, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.RevisionList, error)
	CountItemsByStatus(ctx context.Context, listIDs []string) (map[string]models.RevisionProgress, error)
	Delete(ctx context.Context, listID string) error
}

type revisionListBuilder interface {
	BuildOrUpdate(ctx context.Context, req BuildRequest) (*models.RevisionListDetail, error)
}

// RevisionService exposes revision list generation and retrieval.
type RevisionService struct {
	submissions assignmentSubmissionReader
	lists       revisionListStore
	builder     revisionListBuilder
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewRevisionService constructs a RevisionService.
func NewRevisionService(submissions assignmentSubmissionReader, lists revisionListStore, builder revisionListBuilder, validate *validator.Validate, logger *zap.Logger) *RevisionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RevisionService{submissions: submissions, lists: lists, builder: builder, validator: validate, logger: logger}
}

// GenerateOrRefresh builds the student's list for an assignment from its
// weak topics, or a curated list from explicit topics when no assignment is
// given. Repeating the call only adds practice for newly weak topics.
func (s *RevisionService) GenerateOrRefresh(ctx context.Context, req dto.GenerateRevisionRequest, claims *models.JWTClaims) (*models.RevisionListDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid revision list payload")
	}
	if err := ensureStudentAccess(claims, req.StudentID); err != nil {
		return nil, err
	}

	build := BuildRequest{
		StudentID:   req.StudentID,
		Title:       req.Title,
		Description: req.Description,
	}

	if req.AssignmentID != nil {
		assignmentID := strings.TrimSpace(*req.AssignmentID)
		if assignmentID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "assignment id must not be blank")
		}
		build.SourceAssignmentID = &assignmentID
		weak, exclude, err := s.weakTopicsFor(ctx, req.StudentID, assignmentID)
		if err != nil {
			return nil, err
		}
		build.WeakTopics = weak
		build.ExcludeQuestionIDs = exclude
	} else {
		if claims.Role == models.RoleStudent {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff can curate revision lists")
		}
		if len(req.Topics) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "topics are required without an assignment")
		}
		build.WeakTopics = curatedTopics(req.Topics)
	}

	detail, err := s.builder.BuildOrUpdate(ctx, build)
	if err != nil {
		return nil, err
	}
	s.logger.Info("revision list built",
		zap.String("list_id", detail.ID),
		zap.String("student_id", detail.StudentID),
		zap.Int("items", detail.Progress.Total),
		zap.Int("gaps", len(detail.Gaps)))
	return detail, nil
}

func (s *RevisionService) weakTopicsFor(ctx context.Context, studentID, assignmentID string) ([]models.TopicBreakdown, []string, error) {
	submission, err := s.submissions.FindByStudentAndAssignment(ctx, studentID, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return s.weakTopicsOf(ctx, submission)
}

func (s *RevisionService) weakTopicsOf(ctx context.Context, submission *models.Submission) ([]models.TopicBreakdown, []string, error) {
	questions, err := s.submissions.LoadGradedQuestions(ctx, submission.ID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load graded questions")
	}

	exclude := make([]string, 0, len(questions))
	for _, q := range questions {
		if q.QuestionID != "" {
			exclude = append(exclude, q.QuestionID)
		}
	}
	summary := mastery.Aggregate(questions)
	return mastery.SelectWeak(summary.ByTopic), exclude, nil
}

// GenerateForAssignment builds or refreshes the list of every student with a
// graded submission for the assignment. One student's failure is recorded in
// the result and does not stop the others.
func (s *RevisionService) GenerateForAssignment(ctx context.Context, assignmentID string, claims *models.JWTClaims) (*models.AssignmentRevisionResult, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff can generate revision lists for an assignment")
	}
	assignmentID = strings.TrimSpace(assignmentID)
	if assignmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assignment id is required")
	}

	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	if len(submissions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no graded submissions found for assignment")
	}

	result := &models.AssignmentRevisionResult{
		AssignmentID: assignmentID,
		Students:     make([]models.StudentRevisionOutcome, 0, len(submissions)),
	}
	for i := range submissions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		submission := &submissions[i]
		outcome := models.StudentRevisionOutcome{StudentID: submission.StudentID, SubmissionID: submission.ID}

		detail, err := s.buildForSubmission(ctx, submission)
		if err != nil {
			outcome.Error = err.Error()
			result.FailedCount++
			s.logger.Warn("revision list build failed",
				zap.String("assignment_id", assignmentID),
				zap.String("submission_id", submission.ID),
				zap.Error(err))
		} else {
			outcome.ListID = detail.ID
			outcome.Items = detail.Progress.Total
			outcome.Gaps = detail.Gaps
			result.SuccessCount++
		}
		result.Students = append(result.Students, outcome)
	}

	s.logger.Info("assignment revision lists built",
		zap.String("assignment_id", assignmentID),
		zap.String("actor", claims.UserID),
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.FailedCount))
	return result, nil
}

func (s *RevisionService) buildForSubmission(ctx context.Context, submission *models.Submission) (*models.RevisionListDetail, error) {
	weak, exclude, err := s.weakTopicsOf(ctx, submission)
	if err != nil {
		return nil, err
	}
	assignmentID := submission.AssignmentID
	return s.builder.BuildOrUpdate(ctx, BuildRequest{
		StudentID:          submission.StudentID,
		SourceAssignmentID: &assignmentID,
		WeakTopics:         weak,
		ExcludeQuestionIDs: exclude,
	})
}

func curatedTopics(topics []dto.RevisionTopicRequest) []models.TopicBreakdown {
	result := make([]models.TopicBreakdown, 0, len(topics))
	for _, t := range topics {
		status := t.RAGStatus
		if status == "" {
			status = models.RAGAmber
		}
		result = append(result, models.TopicBreakdown{
			TopicKey:   mastery.ResolveKey(t.Topic, t.SubTopic),
			Topic:      strings.TrimSpace(t.Topic),
			SubTopic:   strings.TrimSpace(t.SubTopic),
			RAGStatus:  status,
			Difficulty: t.Difficulty,
		})
	}
	return result
}

// Get returns the student's list for an assignment, or the curated list when
// sourceAssignmentID is nil.
func (s *RevisionService) Get(ctx context.Context, studentID string, sourceAssignmentID *string, claims *models.JWTClaims) (*models.RevisionListDetail, error) {
	if err := ensureStudentAccess(claims, studentID); err != nil {
		return nil, err
	}
	list, items, err := s.lists.Load(ctx, studentID, sourceAssignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load revision list")
	}
	if list == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "revision list not found")
	}
	return models.NewRevisionListDetail(*list, items, nil), nil
}

// ListByStudent returns the student's lists with progress counts.
func (s *RevisionService) ListByStudent(ctx context.Context, studentID string, claims *models.JWTClaims) ([]models.RevisionListSummary, error) {
	if err := ensureStudentAccess(claims, studentID); err != nil {
		return nil, err
	}
	lists, err := s.lists.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list revision lists")
	}
	ids := make([]string, len(lists))
	for i, list := range lists {
		ids[i] = list.ID
	}
	counts, err := s.lists.CountItemsByStatus(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count revision items")
	}

	result := make([]models.RevisionListSummary, 0, len(lists))
	for _, list := range lists {
		progress := counts[list.ID]
		list.Status = progress.Status()
		result = append(result, models.RevisionListSummary{RevisionList: list, Progress: progress})
	}
	return result, nil
}

// FindByID returns a list with its items.
func (s *RevisionService) FindByID(ctx context.Context, listID string, claims *models.JWTClaims) (*models.RevisionListDetail, error) {
	list, err := s.findList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := ensureStudentAccess(claims, list.StudentID); err != nil {
		return nil, err
	}
	items, err := s.lists.Items(ctx, listID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load revision items")
	}
	return models.NewRevisionListDetail(*list, items, nil), nil
}

// Delete removes a list and its items.
func (s *RevisionService) Delete(ctx context.Context, listID string, claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleStudent {
		return appErrors.ErrForbidden
	}
	if err := s.lists.Delete(ctx, listID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "revision list not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete revision list")
	}
	s.logger.Info("revision list deleted", zap.String("list_id", listID), zap.String("actor", claims.UserID))
	return nil
}

func (s *RevisionService) findList(ctx context.Context, listID string) (*models.RevisionList, error) {
	list, err := s.lists.FindByID(ctx, listID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "revision list not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load revision list")
	}
	return list, nil
}
