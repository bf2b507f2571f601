package supply

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-revision-api/internal/models"
	appErrors "github.com/noah-isme/sma-revision-api/pkg/errors"
)

type recordingSink struct {
	saved []models.PracticeQuestion
	err   error
}

func (s *recordingSink) SaveGenerated(ctx context.Context, questions []models.PracticeQuestion) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, questions...)
	return nil
}

func staticSupplier(questions ...models.PracticeQuestion) SupplierFunc {
	return func(ctx context.Context, req models.SupplyRequest) ([]models.PracticeQuestion, error) {
		skip := excludedSet(req.ExcludeQuestionIDs)
		var out []models.PracticeQuestion
		for _, q := range questions {
			if _, ok := skip[q.QuestionID]; ok {
				continue
			}
			out = append(out, q)
			if len(out) == req.Count {
				break
			}
		}
		return out, nil
	}
}

func failingSupplier(err error) SupplierFunc {
	return func(ctx context.Context, req models.SupplyRequest) ([]models.PracticeQuestion, error) {
		return nil, err
	}
}

func TestChainTopsUpFromNextSupplier(t *testing.T) {
	bank := staticSupplier(models.PracticeQuestion{QuestionID: "bank-1", Source: models.QuestionSourceBank})
	gen := staticSupplier(
		models.PracticeQuestion{QuestionID: "gen-1", Source: models.QuestionSourceGenerated},
		models.PracticeQuestion{QuestionID: "gen-2", Source: models.QuestionSourceGenerated},
	)
	sink := &recordingSink{}
	chain := NewChain(zap.NewNop(), sink, bank, gen)

	questions, err := chain.SupplyPracticeQuestions(context.Background(), models.SupplyRequest{Topic: "Algebra", Count: 2})
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "bank-1", questions[0].QuestionID)
	assert.Equal(t, "gen-1", questions[1].QuestionID)
	assert.Len(t, sink.saved, 1)
}

func TestChainSkipsExcludedAndFailingSuppliers(t *testing.T) {
	chain := NewChain(nil, nil,
		failingSupplier(errors.New("bank offline")),
		staticSupplier(
			models.PracticeQuestion{QuestionID: "q-1"},
			models.PracticeQuestion{QuestionID: "q-2"},
		),
	)

	questions, err := chain.SupplyPracticeQuestions(context.Background(), models.SupplyRequest{
		Topic:              "Ratio",
		Count:              3,
		ExcludeQuestionIDs: []string{"q-1"},
	})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "q-2", questions[0].QuestionID)
}

func TestChainExhausted(t *testing.T) {
	chain := NewChain(nil, nil, staticSupplier(), failingSupplier(errors.New("timeout")))

	questions, err := chain.SupplyPracticeQuestions(context.Background(), models.SupplyRequest{Topic: "Surds", Count: 2})
	assert.Nil(t, questions)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrSupplyExhausted))
	assert.ErrorContains(t, err, "timeout")
}

func TestChainDropsGeneratedWhenSinkFails(t *testing.T) {
	sink := &recordingSink{err: errors.New("db down")}
	chain := NewChain(nil, sink, staticSupplier(models.PracticeQuestion{QuestionID: "gen-1", Source: models.QuestionSourceGenerated}))

	_, err := chain.SupplyPracticeQuestions(context.Background(), models.SupplyRequest{Topic: "Surds", Count: 1})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrSupplyExhausted))
}
