package dto

import "github.com/noah-isme/sma-revision-api/internal/models"

// GenerateRevisionRequest creates or refreshes a student's revision list.
// With AssignmentID set the list targets the weak topics of that graded
// submission; without it Topics describe a teacher-curated list.
type GenerateRevisionRequest struct {
	StudentID    string                 `json:"studentId" validate:"required"`
	AssignmentID *string                `json:"assignmentId,omitempty" validate:"omitempty,min=1"`
	Title        string                 `json:"title,omitempty" validate:"omitempty,max=200"`
	Description  *string                `json:"description,omitempty" validate:"omitempty,max=2000"`
	Topics       []RevisionTopicRequest `json:"topics,omitempty" validate:"omitempty,dive"`
}

// RevisionTopicRequest names one topic of a curated list.
type RevisionTopicRequest struct {
	Topic      string           `json:"topic" validate:"required"`
	SubTopic   string           `json:"subTopic,omitempty"`
	Difficulty string           `json:"difficulty,omitempty"`
	RAGStatus  models.RAGStatus `json:"ragStatus,omitempty" validate:"omitempty,oneof=red amber"`
}

// RecordProgressRequest moves a revision item along its lifecycle.
type RecordProgressRequest struct {
	Status models.AllocationStatus `json:"status" validate:"required"`
	Answer *string                 `json:"answer,omitempty"`
}
