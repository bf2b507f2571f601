package models

import "time"

// QuestionSource tells where a practice question came from.
type QuestionSource string

const (
	QuestionSourceBank      QuestionSource = "bank"
	QuestionSourceGenerated QuestionSource = "generated"
)

// PracticeQuestion is a question offered by a question supplier.
type PracticeQuestion struct {
	QuestionID string         `db:"id" json:"question_id" yaml:"id"`
	Topic      string         `db:"topic" json:"topic" yaml:"topic"`
	SubTopic   string         `db:"sub_topic" json:"sub_topic,omitempty" yaml:"sub_topic"`
	Marks      float64        `db:"marks" json:"marks" yaml:"marks"`
	Difficulty string         `db:"difficulty" json:"difficulty,omitempty" yaml:"difficulty"`
	ContentRef string         `db:"content_ref" json:"content_ref" yaml:"content"`
	AnswerKey  string         `db:"answer_key" json:"answer_key,omitempty" yaml:"answer"`
	Source     QuestionSource `db:"source" json:"source" yaml:"-"`
	CreatedAt  time.Time      `db:"created_at" json:"-" yaml:"-"`
}

// SupplyRequest asks a supplier for practice questions on one topic.
type SupplyRequest struct {
	Topic              string
	SubTopic           string
	Count              int
	Difficulty         string
	ExcludeQuestionIDs []string
}
