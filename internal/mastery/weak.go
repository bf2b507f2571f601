package mastery

import "github.com/noah-isme/sma-revision-api/internal/models"

// IsWeak reports whether a topic needs remediation.
func IsWeak(status models.RAGStatus) bool {
	return status == models.RAGRed || status == models.RAGAmber
}

// SelectWeak keeps red and amber topics in their original order.
func SelectWeak(byTopic []models.TopicBreakdown) []models.TopicBreakdown {
	weak := make([]models.TopicBreakdown, 0, len(byTopic))
	for _, topic := range byTopic {
		if IsWeak(topic.RAGStatus) {
			weak = append(weak, topic)
		}
	}
	return weak
}
