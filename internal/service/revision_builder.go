package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-revision-api/internal/mastery"
	"github.com/noah-isme/sma-revision-api/internal/models"
	appErrors "github.com/noah-isme/sma-revision-api/pkg/errors"
)

// PracticeSupplier hands out practice questions for a topic.
type PracticeSupplier interface {
	SupplyPracticeQuestions(ctx context.Context, req models.SupplyRequest) ([]models.PracticeQuestion, error)
}

type revisionListWriter interface {
	Load(ctx context.Context, studentID string, sourceAssignmentID *string) (*models.RevisionList, []models.RevisionListItem, error)
	Save(ctx context.Context, list *models.RevisionList, newItems []models.RevisionListItem) error
}

// RevisionBuilderConfig tunes allocation sizes and supply timeouts.
type RevisionBuilderConfig struct {
	RedItems      int
	AmberItems    int
	SupplyTimeout time.Duration
	DefaultTitle  string
}

// BuildRequest describes one build or refresh of a revision list.
type BuildRequest struct {
	StudentID          string
	SourceAssignmentID *string
	WeakTopics         []models.TopicBreakdown
	ExcludeQuestionIDs []string
	Title              string
	Description        *string
}

// RevisionBuilder merges practice for weak topics into a student's list
// without touching items that already exist.
type RevisionBuilder struct {
	store    revisionListWriter
	supplier PracticeSupplier
	cfg      RevisionBuilderConfig
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewRevisionBuilder constructs a RevisionBuilder.
func NewRevisionBuilder(store revisionListWriter, supplier PracticeSupplier, cfg RevisionBuilderConfig, metrics *MetricsService, logger *zap.Logger) *RevisionBuilder {
	if cfg.RedItems <= 0 {
		cfg.RedItems = 3
	}
	if cfg.AmberItems <= 0 {
		cfg.AmberItems = 2
	}
	if cfg.SupplyTimeout <= 0 {
		cfg.SupplyTimeout = 20 * time.Second
	}
	if cfg.DefaultTitle == "" {
		cfg.DefaultTitle = "Revision list"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RevisionBuilder{
		store:    store,
		supplier: supplier,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// BuildOrUpdate creates the list on first use and appends practice for weak
// topics that have none yet. Topics whose supply fails are reported as gaps.
func (b *RevisionBuilder) BuildOrUpdate(ctx context.Context, req BuildRequest) (*models.RevisionListDetail, error) {
	if strings.TrimSpace(req.StudentID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}

	list, items, err := b.store.Load(ctx, req.StudentID, req.SourceAssignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load revision list")
	}

	now := b.now()
	dirty := false
	if list == nil {
		title := strings.TrimSpace(req.Title)
		if title == "" {
			title = b.cfg.DefaultTitle
		}
		list = &models.RevisionList{
			ID:                 uuid.NewString(),
			StudentID:          req.StudentID,
			SourceAssignmentID: req.SourceAssignmentID,
			Title:              title,
			Description:        req.Description,
			CreatedAt:          now,
		}
		dirty = true
	} else {
		if title := strings.TrimSpace(req.Title); title != "" && title != list.Title {
			list.Title = title
			dirty = true
		}
		if req.Description != nil && (list.Description == nil || *list.Description != *req.Description) {
			list.Description = req.Description
			dirty = true
		}
	}

	allocated := make(map[string]struct{}, len(items))
	exclude := make([]string, 0, len(items)+len(req.ExcludeQuestionIDs))
	excluded := make(map[string]struct{}, cap(exclude))
	nextOrder := 0
	for _, item := range items {
		allocated[item.TargetedTopicKey] = struct{}{}
		if _, ok := excluded[item.QuestionID]; !ok {
			excluded[item.QuestionID] = struct{}{}
			exclude = append(exclude, item.QuestionID)
		}
		if item.OrderIndex >= nextOrder {
			nextOrder = item.OrderIndex + 1
		}
	}
	for _, id := range req.ExcludeQuestionIDs {
		if _, ok := excluded[id]; !ok {
			excluded[id] = struct{}{}
			exclude = append(exclude, id)
		}
	}

	var (
		newItems []models.RevisionListItem
		gaps     []models.SupplyGap
	)
	for _, topic := range req.WeakTopics {
		if !mastery.IsWeak(topic.RAGStatus) {
			continue
		}
		if _, ok := allocated[topic.TopicKey]; ok {
			continue
		}
		allocated[topic.TopicKey] = struct{}{}

		questions, err := b.supply(ctx, topic, exclude)
		added := 0
		if err == nil {
			for _, q := range questions {
				if q.QuestionID == "" {
					continue
				}
				if _, dup := excluded[q.QuestionID]; dup {
					continue
				}
				excluded[q.QuestionID] = struct{}{}
				exclude = append(exclude, q.QuestionID)
				newItems = append(newItems, b.newItem(list.ID, topic, q, nextOrder, now))
				nextOrder++
				added++
				if added == b.countFor(topic.RAGStatus) {
					break
				}
			}
			if added == 0 {
				err = appErrors.Clone(appErrors.ErrSupplyExhausted, "supplier returned no unused questions")
			}
		}
		if err != nil {
			gaps = append(gaps, models.SupplyGap{TopicKey: topic.TopicKey, Reason: err.Error()})
			b.metrics.RecordSupplyGap(topic.RAGStatus)
			b.logger.Warn("no practice supplied for weak topic",
				zap.String("student_id", req.StudentID),
				zap.String("topic_key", topic.TopicKey),
				zap.String("rag_status", string(topic.RAGStatus)),
				zap.Error(err))
			continue
		}
		b.metrics.RecordAllocation(topic.RAGStatus, added)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if dirty || len(newItems) > 0 {
		list.UpdatedAt = now
		if err := b.store.Save(ctx, list, newItems); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save revision list")
		}
		// Re-read so items inserted by a concurrent build are reflected.
		if reloaded, reloadedItems, err := b.store.Load(ctx, req.StudentID, req.SourceAssignmentID); err == nil && reloaded != nil {
			list, items = reloaded, reloadedItems
		} else {
			items = append(items, newItems...)
		}
	}

	return models.NewRevisionListDetail(*list, items, gaps), nil
}

func (b *RevisionBuilder) supply(ctx context.Context, topic models.TopicBreakdown, exclude []string) ([]models.PracticeQuestion, error) {
	supplyCtx, cancel := context.WithTimeout(ctx, b.cfg.SupplyTimeout)
	defer cancel()
	return b.supplier.SupplyPracticeQuestions(supplyCtx, models.SupplyRequest{
		Topic:              topic.Topic,
		SubTopic:           topic.SubTopic,
		Count:              b.countFor(topic.RAGStatus),
		Difficulty:         topic.Difficulty,
		ExcludeQuestionIDs: append([]string(nil), exclude...),
	})
}

func (b *RevisionBuilder) countFor(status models.RAGStatus) int {
	if status == models.RAGRed {
		return b.cfg.RedItems
	}
	return b.cfg.AmberItems
}

func (b *RevisionBuilder) newItem(listID string, topic models.TopicBreakdown, q models.PracticeQuestion, order int, now time.Time) models.RevisionListItem {
	itemTopic := q.Topic
	if itemTopic == "" {
		itemTopic = topic.Topic
	}
	itemSubTopic := q.SubTopic
	if itemSubTopic == "" {
		itemSubTopic = topic.SubTopic
	}
	marks := q.Marks
	if marks <= 0 {
		marks = 1
	}
	return models.RevisionListItem{
		ID:               uuid.NewString(),
		RevisionListID:   listID,
		QuestionID:       q.QuestionID,
		Topic:            itemTopic,
		SubTopic:         itemSubTopic,
		TargetedTopicKey: topic.TopicKey,
		Marks:            marks,
		OrderIndex:       order,
		AllocationStatus: models.AllocationPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
