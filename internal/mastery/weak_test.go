package mastery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-revision-api/internal/models"
)

func TestSelectWeakKeepsInputOrder(t *testing.T) {
	topics := []models.TopicBreakdown{
		{TopicKey: "Ratio", RAGStatus: models.RAGAmber, Percentage: 55},
		{TopicKey: "Angles", RAGStatus: models.RAGGreen, Percentage: 90},
		{TopicKey: "Surds", RAGStatus: models.RAGRed, Percentage: 10},
	}

	weak := SelectWeak(topics)
	assert.Len(t, weak, 2)
	assert.Equal(t, "Ratio", weak[0].TopicKey)
	assert.Equal(t, "Surds", weak[1].TopicKey)
}

func TestSelectWeakEmpty(t *testing.T) {
	assert.Empty(t, SelectWeak(nil))
	assert.Empty(t, SelectWeak([]models.TopicBreakdown{{TopicKey: "Angles", RAGStatus: models.RAGGreen}}))
}
