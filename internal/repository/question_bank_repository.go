package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-revision-api/internal/models"
)

// QuestionBankRepository serves and stores practice questions in PostgreSQL.
type QuestionBankRepository struct {
	db *sqlx.DB
}

// NewQuestionBankRepository constructs the repository.
func NewQuestionBankRepository(db *sqlx.DB) *QuestionBankRepository {
	return &QuestionBankRepository{db: db}
}

// SupplyPracticeQuestions matches on sub-topic and falls back to the topic
// when the sub-topic has no unused questions. Questions of the requested
// difficulty come first.
func (r *QuestionBankRepository) SupplyPracticeQuestions(ctx context.Context, req models.SupplyRequest) ([]models.PracticeQuestion, error) {
	if req.Count <= 0 {
		return nil, nil
	}
	exclude := req.ExcludeQuestionIDs
	if exclude == nil {
		exclude = []string{}
	}
	if subTopic := strings.TrimSpace(req.SubTopic); subTopic != "" {
		questions, err := r.match(ctx, "sub_topic", subTopic, req, exclude)
		if err != nil || len(questions) > 0 {
			return questions, err
		}
	}
	return r.match(ctx, "topic", strings.TrimSpace(req.Topic), req, exclude)
}

func (r *QuestionBankRepository) match(ctx context.Context, column, value string, req models.SupplyRequest, exclude []string) ([]models.PracticeQuestion, error) {
	query := fmt.Sprintf(`SELECT id, topic, sub_topic, marks, difficulty, content_ref, answer_key, source, created_at
	FROM questions
	WHERE LOWER(TRIM(%s)) = LOWER($1) AND NOT (id = ANY($2))
	ORDER BY (LOWER(difficulty) = LOWER($3)) DESC, created_at, id
	LIMIT $4`, column)
	var questions []models.PracticeQuestion
	if err := r.db.SelectContext(ctx, &questions, query, value, pq.Array(exclude), req.Difficulty, req.Count); err != nil {
		return nil, fmt.Errorf("select practice questions by %s: %w", column, err)
	}
	return questions, nil
}

// SaveGenerated stores generated questions so later lists can reuse them.
func (r *QuestionBankRepository) SaveGenerated(ctx context.Context, questions []models.PracticeQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin generated questions tx: %w", err)
	}
	const query = `INSERT INTO questions (id, topic, sub_topic, marks, difficulty, content_ref, answer_key, source, created_at)
VALUES (:id, :topic, :sub_topic, :marks, :difficulty, :content_ref, :answer_key, :source, :created_at)
ON CONFLICT (id) DO NOTHING`
	now := time.Now().UTC()
	for i := range questions {
		q := questions[i]
		if q.CreatedAt.IsZero() {
			q.CreatedAt = now
		}
		if q.Source == "" {
			q.Source = models.QuestionSourceGenerated
		}
		if _, err := tx.NamedExecContext(ctx, query, q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("save generated question: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit generated questions tx: %w", err)
	}
	return nil
}
