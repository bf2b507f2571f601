package mastery

import (
	"math"

	"github.com/noah-isme/sma-revision-api/internal/models"
)

const (
	amberThreshold = 40
	greenThreshold = 70
)

// Classify maps a percentage to its RAG tier. Thresholds are inclusive on
// the lower bound: 40 is amber and 70 is green.
func Classify(percentage int) models.RAGStatus {
	switch {
	case percentage >= greenThreshold:
		return models.RAGGreen
	case percentage >= amberThreshold:
		return models.RAGAmber
	default:
		return models.RAGRed
	}
}

// Percentage returns round-half-up(100 * earned / total) clamped to 0..100.
// A zero or negative total yields 0.
func Percentage(earned, total float64) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Floor(100*earned/total + 0.5))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
