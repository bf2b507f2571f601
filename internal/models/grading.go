package models

// RAGStatus is the three-tier mastery classification of a topic score.
type RAGStatus string

const (
	RAGRed   RAGStatus = "red"
	RAGAmber RAGStatus = "amber"
	RAGGreen RAGStatus = "green"
)

// Submission identifies one student's graded attempt at an assignment.
type Submission struct {
	ID           string `db:"id" json:"id"`
	StudentID    string `db:"student_id" json:"student_id"`
	AssignmentID string `db:"assignment_id" json:"assignment_id"`
}

// GradedQuestion is one scored question within a submission.
type GradedQuestion struct {
	QuestionID        string  `db:"question_id" json:"question_id" validate:"required"`
	Topic             string  `db:"topic" json:"topic"`
	SubTopic          string  `db:"sub_topic" json:"sub_topic,omitempty"`
	MarksAwarded      float64 `db:"marks_awarded" json:"marks_awarded" validate:"gte=0,ltefield=MaxMarks"`
	MaxMarks          float64 `db:"max_marks" json:"max_marks" validate:"gt=0"`
	LearningObjective string  `db:"learning_objective" json:"learning_objective,omitempty"`
	Difficulty        string  `db:"difficulty" json:"difficulty,omitempty"`
}

// TopicBreakdown summarises marks for one canonical topic key.
type TopicBreakdown struct {
	TopicKey    string    `json:"topic_key"`
	Topic       string    `json:"topic"`
	SubTopic    string    `json:"sub_topic,omitempty"`
	EarnedMarks float64   `json:"earned_marks"`
	TotalMarks  float64   `json:"total_marks"`
	Percentage  int       `json:"percentage"`
	RAGStatus   RAGStatus `json:"rag_status"`
	Difficulty  string    `json:"difficulty,omitempty"`
	QuestionIDs []string  `json:"question_ids,omitempty"`
}

// RejectedQuestion records a graded question excluded from aggregation.
type RejectedQuestion struct {
	QuestionID string `json:"question_id"`
	Reason     string `json:"reason"`
}

// FeedbackSummary is the topic-level view of one submission.
type FeedbackSummary struct {
	SubmissionID string             `json:"submission_id"`
	StudentID    string             `json:"student_id"`
	AssignmentID string             `json:"assignment_id"`
	Overall      TopicBreakdown     `json:"overall"`
	ByTopic      []TopicBreakdown   `json:"by_topic"`
	WeakTopics   []TopicBreakdown   `json:"weak_topics"`
	Rejected     []RejectedQuestion `json:"rejected,omitempty"`
}
