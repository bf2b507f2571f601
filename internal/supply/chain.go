package supply

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-revision-api/internal/models"
	appErrors "github.com/noah-isme/sma-revision-api/pkg/errors"
)

// QuestionSink persists generated questions so they can be referenced by id.
type QuestionSink interface {
	SaveGenerated(ctx context.Context, questions []models.PracticeQuestion) error
}

// Chain asks each supplier in turn until the requested count is met.
type Chain struct {
	suppliers []Supplier
	sink      QuestionSink
	logger    *zap.Logger
}

// NewChain builds a chain. sink may be nil when no supplier generates questions.
func NewChain(logger *zap.Logger, sink QuestionSink, suppliers ...Supplier) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{suppliers: suppliers, sink: sink, logger: logger}
}

// SupplyPracticeQuestions implements Supplier. It fails with
// ErrSupplyExhausted only when no supplier produced anything.
func (c *Chain) SupplyPracticeQuestions(ctx context.Context, req models.SupplyRequest) ([]models.PracticeQuestion, error) {
	if req.Count <= 0 {
		return nil, nil
	}
	exclude := append([]string(nil), req.ExcludeQuestionIDs...)
	seen := excludedSet(exclude)
	collected := make([]models.PracticeQuestion, 0, req.Count)
	var lastErr error

	for i, supplier := range c.suppliers {
		if len(collected) >= req.Count {
			break
		}
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		sub := req
		sub.Count = req.Count - len(collected)
		sub.ExcludeQuestionIDs = exclude

		questions, err := supplier.SupplyPracticeQuestions(ctx, sub)
		if err != nil {
			lastErr = err
			c.logger.Warn("practice supplier failed",
				zap.Int("supplier", i),
				zap.String("topic", req.Topic),
				zap.String("sub_topic", req.SubTopic),
				zap.Error(err))
			continue
		}

		questions = c.persistGenerated(ctx, questions)
		for _, q := range questions {
			if _, dup := seen[q.QuestionID]; dup || q.QuestionID == "" {
				continue
			}
			seen[q.QuestionID] = struct{}{}
			exclude = append(exclude, q.QuestionID)
			collected = append(collected, q)
			if len(collected) == req.Count {
				break
			}
		}
	}

	if len(collected) == 0 {
		message := fmt.Sprintf("no practice questions for %q", describe(req))
		if lastErr != nil {
			return nil, appErrors.Wrap(lastErr, appErrors.ErrSupplyExhausted.Code, appErrors.ErrSupplyExhausted.Status, message)
		}
		return nil, appErrors.Clone(appErrors.ErrSupplyExhausted, message)
	}
	return collected, nil
}

// persistGenerated saves generated questions and drops them if saving fails.
func (c *Chain) persistGenerated(ctx context.Context, questions []models.PracticeQuestion) []models.PracticeQuestion {
	var generated []models.PracticeQuestion
	for _, q := range questions {
		if q.Source == models.QuestionSourceGenerated {
			generated = append(generated, q)
		}
	}
	if len(generated) == 0 {
		return questions
	}
	if c.sink != nil {
		err := c.sink.SaveGenerated(ctx, generated)
		if err == nil {
			return questions
		}
		c.logger.Warn("failed to persist generated questions", zap.Int("count", len(generated)), zap.Error(err))
	}
	kept := questions[:0:0]
	for _, q := range questions {
		if q.Source != models.QuestionSourceGenerated {
			kept = append(kept, q)
		}
	}
	return kept
}

func describe(req models.SupplyRequest) string {
	if req.SubTopic != "" {
		return req.Topic + " / " + req.SubTopic
	}
	return req.Topic
}
