package mastery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-revision-api/internal/models"
)

// OverallTopicKey labels the pseudo-group spanning every question.
const OverallTopicKey = "Overall"

var validate = validator.New()

// Summary is the result of aggregating one submission's graded questions.
type Summary struct {
	Overall  models.TopicBreakdown
	ByTopic  []models.TopicBreakdown
	Rejected []models.RejectedQuestion
}

type group struct {
	breakdown  models.TopicBreakdown
	difficulty map[string]int
	seen       []string
}

// Aggregate folds graded questions into per-topic totals and an overall total.
// Topics keep the order in which their first question appears. Invalid
// records are rejected individually and reported in Summary.Rejected.
func Aggregate(questions []models.GradedQuestion) Summary {
	summary := Summary{
		Overall: models.TopicBreakdown{TopicKey: OverallTopicKey, Topic: OverallTopicKey},
		ByTopic: []models.TopicBreakdown{},
	}

	index := make(map[string]int)
	groups := make([]*group, 0)

	for _, q := range questions {
		if err := ValidateQuestion(q); err != nil {
			summary.Rejected = append(summary.Rejected, models.RejectedQuestion{QuestionID: q.QuestionID, Reason: err.Error()})
			continue
		}

		summary.Overall.EarnedMarks += q.MarksAwarded
		summary.Overall.TotalMarks += q.MaxMarks
		summary.Overall.QuestionIDs = append(summary.Overall.QuestionIDs, q.QuestionID)

		key := ResolveKey(q.Topic, q.SubTopic)
		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, &group{
				breakdown: models.TopicBreakdown{
					TopicKey: key,
					Topic:    topicLabel(q.Topic),
					SubTopic: strings.TrimSpace(q.SubTopic),
				},
				difficulty: make(map[string]int),
			})
		}
		g := groups[pos]
		g.breakdown.EarnedMarks += q.MarksAwarded
		g.breakdown.TotalMarks += q.MaxMarks
		g.breakdown.QuestionIDs = append(g.breakdown.QuestionIDs, q.QuestionID)
		if q.Difficulty != "" {
			if g.difficulty[q.Difficulty] == 0 {
				g.seen = append(g.seen, q.Difficulty)
			}
			g.difficulty[q.Difficulty]++
		}
	}

	for _, g := range groups {
		if g.breakdown.TotalMarks <= 0 {
			continue
		}
		g.breakdown.Percentage = Percentage(g.breakdown.EarnedMarks, g.breakdown.TotalMarks)
		g.breakdown.RAGStatus = Classify(g.breakdown.Percentage)
		g.breakdown.Difficulty = g.dominantDifficulty()
		summary.ByTopic = append(summary.ByTopic, g.breakdown)
	}

	summary.Overall.Percentage = Percentage(summary.Overall.EarnedMarks, summary.Overall.TotalMarks)
	summary.Overall.RAGStatus = Classify(summary.Overall.Percentage)

	return summary
}

// ValidateQuestion checks the marks invariants of a graded question.
func ValidateQuestion(q models.GradedQuestion) error {
	err := validate.Struct(q)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch {
		case fe.Field() == "MarksAwarded" && fe.Tag() == "ltefield":
			return fmt.Errorf("marks awarded %.2f exceed max marks %.2f", q.MarksAwarded, q.MaxMarks)
		case fe.Field() == "MarksAwarded":
			return fmt.Errorf("marks awarded must not be negative")
		case fe.Field() == "MaxMarks":
			return fmt.Errorf("max marks must be positive")
		case fe.Field() == "QuestionID":
			return fmt.Errorf("question id is required")
		}
	}
	return err
}

// dominantDifficulty picks the most frequent difficulty, ties going to the
// one seen first.
func (g *group) dominantDifficulty() string {
	best := ""
	for _, d := range g.seen {
		if best == "" || g.difficulty[d] > g.difficulty[best] {
			best = d
		}
	}
	return best
}

func topicLabel(topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return FallbackTopicKey
	}
	return topic
}
