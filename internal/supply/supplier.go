// Package supply provides practice questions for weak topics, either from a
// question bank or from a generative model.
package supply

import (
	"context"
	"strings"

	"github.com/noah-isme/sma-revision-api/internal/models"
)

// Supplier returns up to req.Count practice questions for a topic.
type Supplier interface {
	SupplyPracticeQuestions(ctx context.Context, req models.SupplyRequest) ([]models.PracticeQuestion, error)
}

// SupplierFunc adapts a function to Supplier.
type SupplierFunc func(ctx context.Context, req models.SupplyRequest) ([]models.PracticeQuestion, error)

// SupplyPracticeQuestions calls f.
func (f SupplierFunc) SupplyPracticeQuestions(ctx context.Context, req models.SupplyRequest) ([]models.PracticeQuestion, error) {
	return f(ctx, req)
}

func excludedSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sameLabel(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
