package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-revision-api/internal/models"
)

var questionColumns = []string{"id", "topic", "sub_topic", "marks", "difficulty", "content_ref", "answer_key", "source", "created_at"}

func TestQuestionBankRepositoryFallsBackToTopic(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuestionBankRepository(db)
	req := models.SupplyRequest{Topic: "Number", SubTopic: "Fractions", Count: 2, ExcludeQuestionIDs: []string{"q-1"}}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(TRIM(sub_topic)) = LOWER($1)")).
		WithArgs("Fractions", sqlmock.AnyArg(), "", 2).
		WillReturnRows(sqlmock.NewRows(questionColumns))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(TRIM(topic)) = LOWER($1)")).
		WithArgs("Number", sqlmock.AnyArg(), "", 2).
		WillReturnRows(sqlmock.NewRows(questionColumns).
			AddRow("q-7", "Number", "Percentages", 2.0, "", "Find 15% of 80", "12", "bank", time.Now()))

	questions, err := repo.SupplyPracticeQuestions(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "q-7", questions[0].QuestionID)
	assert.Equal(t, models.QuestionSourceBank, questions[0].Source)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionBankRepositorySubTopicHit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuestionBankRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("LOWER(TRIM(sub_topic))")).
		WithArgs("Fractions", sqlmock.AnyArg(), "Higher", 1).
		WillReturnRows(sqlmock.NewRows(questionColumns).
			AddRow("q-3", "Number", "Fractions", 3.0, "Higher", "Work out 2/3 of 5/8", "5/12", "generated", time.Now()))

	questions, err := repo.SupplyPracticeQuestions(context.Background(), models.SupplyRequest{
		Topic: "Number", SubTopic: " Fractions ", Count: 1, Difficulty: "Higher",
	})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Fractions", questions[0].SubTopic)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionBankRepositorySaveGenerated(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuestionBankRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO NOTHING")).
		WithArgs("gen-1", "Algebra", "Linear Equations", 2.0, "", "Solve 2x = 8", "x = 4", models.QuestionSourceGenerated, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SaveGenerated(context.Background(), []models.PracticeQuestion{{
		QuestionID: "gen-1", Topic: "Algebra", SubTopic: "Linear Equations", Marks: 2,
		ContentRef: "Solve 2x = 8", AnswerKey: "x = 4", Source: models.QuestionSourceGenerated,
	}})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
