package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-revision-api/internal/models"
)

// SubmissionRepository reads graded submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// FindByID returns a submission or sql.ErrNoRows.
func (r *SubmissionRepository) FindByID(ctx context.Context, submissionID string) (*models.Submission, error) {
	const query = `SELECT id, student_id, assignment_id FROM submissions WHERE id = $1`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, submissionID); err != nil {
		return nil, err
	}
	return &submission, nil
}

// FindByStudentAndAssignment returns the student's submission for an assignment.
func (r *SubmissionRepository) FindByStudentAndAssignment(ctx context.Context, studentID, assignmentID string) (*models.Submission, error) {
	const query = `SELECT id, student_id, assignment_id FROM submissions WHERE student_id = $1 AND assignment_id = $2`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, studentID, assignmentID); err != nil {
		return nil, err
	}
	return &submission, nil
}

// ListByAssignment returns the assignment's submissions that carry at least
// one graded question, ordered by student.
func (r *SubmissionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.Submission, error) {
	const query = `SELECT s.id, s.student_id, s.assignment_id FROM submissions s
	WHERE s.assignment_id = $1 AND EXISTS (SELECT 1 FROM graded_questions g WHERE g.submission_id = s.id)
	ORDER BY s.student_id, s.id`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list submissions by assignment: %w", err)
	}
	return submissions, nil
}

// LoadGradedQuestions returns graded questions in paper order.
func (r *SubmissionRepository) LoadGradedQuestions(ctx context.Context, submissionID string) ([]models.GradedQuestion, error) {
	const query = `SELECT question_id, topic, sub_topic, marks_awarded, max_marks, learning_objective, difficulty
	FROM graded_questions WHERE submission_id = $1 ORDER BY position, question_id`
	var questions []models.GradedQuestion
	if err := r.db.SelectContext(ctx, &questions, query, submissionID); err != nil {
		return nil, fmt.Errorf("load graded questions: %w", err)
	}
	return questions, nil
}
