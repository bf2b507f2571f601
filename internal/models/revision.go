package models

import "time"

// AllocationStatus tracks a revision item (or a whole list) through practice.
type AllocationStatus string

const (
	AllocationPending    AllocationStatus = "pending"
	AllocationInProgress AllocationStatus = "in_progress"
	AllocationCompleted  AllocationStatus = "completed"
)

// Rank orders statuses so transitions can be checked for regression.
func (s AllocationStatus) Rank() int {
	switch s {
	case AllocationPending:
		return 0
	case AllocationInProgress:
		return 1
	case AllocationCompleted:
		return 2
	default:
		return -1
	}
}

// Valid reports whether s is a known allocation status.
func (s AllocationStatus) Valid() bool {
	return s.Rank() >= 0
}

// RevisionList is a per-student bundle of remedial practice.
type RevisionList struct {
	ID                 string           `db:"id" json:"id"`
	StudentID          string           `db:"student_id" json:"student_id"`
	SourceAssignmentID *string          `db:"source_assignment_id" json:"source_assignment_id,omitempty"`
	Title              string           `db:"title" json:"title"`
	Description        *string          `db:"description" json:"description,omitempty"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
	Status             AllocationStatus `db:"-" json:"status"`
}

// RevisionListItem is one practice question allocated within a list.
type RevisionListItem struct {
	ID               string           `db:"id" json:"id"`
	RevisionListID   string           `db:"revision_list_id" json:"revision_list_id"`
	QuestionID       string           `db:"question_id" json:"question_id"`
	Topic            string           `db:"topic" json:"topic"`
	SubTopic         string           `db:"sub_topic" json:"sub_topic,omitempty"`
	TargetedTopicKey string           `db:"targeted_topic_key" json:"targeted_topic_key"`
	Marks            float64          `db:"marks" json:"marks"`
	OrderIndex       int              `db:"order_index" json:"order_index"`
	AllocationStatus AllocationStatus `db:"allocation_status" json:"allocation_status"`
	StudentAnswer    *string          `db:"student_answer" json:"student_answer,omitempty"`
	StartedAt        *time.Time       `db:"started_at" json:"started_at,omitempty"`
	CompletedAt      *time.Time       `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// RevisionItemPatch carries the fields the progress tracker may change.
type RevisionItemPatch struct {
	AllocationStatus AllocationStatus
	StudentAnswer    *string
	StartedAt        *time.Time
	CompletedAt      *time.Time
	UpdatedAt        time.Time
}

// RevisionProgress counts items per allocation status.
type RevisionProgress struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Total      int `json:"total"`
}

// SupplyGap records a weak topic for which no practice could be allocated.
type SupplyGap struct {
	TopicKey string `json:"topic_key"`
	Reason   string `json:"reason"`
}

// RevisionListDetail is a list with its items and derived progress.
type RevisionListDetail struct {
	RevisionList
	Items    []RevisionListItem `json:"items"`
	Progress RevisionProgress   `json:"progress"`
	Gaps     []SupplyGap        `json:"gaps,omitempty"`
}

// RevisionListSummary is a list row with its progress counts and no items.
type RevisionListSummary struct {
	RevisionList
	Progress RevisionProgress `json:"progress"`
}

// StudentRevisionOutcome reports one student's build within an assignment batch.
type StudentRevisionOutcome struct {
	StudentID    string      `json:"student_id"`
	SubmissionID string      `json:"submission_id"`
	ListID       string      `json:"list_id,omitempty"`
	Items        int         `json:"items"`
	Gaps         []SupplyGap `json:"gaps,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// AssignmentRevisionResult summarises building lists for every graded
// submission of an assignment.
type AssignmentRevisionResult struct {
	AssignmentID string                   `json:"assignment_id"`
	SuccessCount int                      `json:"success_count"`
	FailedCount  int                      `json:"failed_count"`
	Students     []StudentRevisionOutcome `json:"students"`
}

// ProgressOf counts items per allocation status.
func ProgressOf(items []RevisionListItem) RevisionProgress {
	var p RevisionProgress
	for _, item := range items {
		switch item.AllocationStatus {
		case AllocationPending:
			p.Pending++
		case AllocationInProgress:
			p.InProgress++
		case AllocationCompleted:
			p.Completed++
		}
		p.Total++
	}
	return p
}

// Status rolls item counts up to a list status: empty or all pending is
// pending, all completed is completed, anything else is in progress.
func (p RevisionProgress) Status() AllocationStatus {
	switch {
	case p.Total == 0 || p.Pending == p.Total:
		return AllocationPending
	case p.Completed == p.Total:
		return AllocationCompleted
	default:
		return AllocationInProgress
	}
}

// NewRevisionListDetail assembles a detail view with derived progress and status.
func NewRevisionListDetail(list RevisionList, items []RevisionListItem, gaps []SupplyGap) *RevisionListDetail {
	if items == nil {
		items = []RevisionListItem{}
	}
	progress := ProgressOf(items)
	list.Status = progress.Status()
	return &RevisionListDetail{RevisionList: list, Items: items, Progress: progress, Gaps: gaps}
}
