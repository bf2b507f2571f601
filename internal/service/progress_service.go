package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-revision-api/internal/models"
	appErrors "github.com/noah-isme/sma-revision-api/pkg/errors"
)

type progressStore interface {
	FindItem(ctx context.Context, itemID string) (*models.RevisionListItem, error)
	FindByID(ctx context.Context, listID string) (*models.RevisionList, error)
	UpdateItem(ctx context.Context, itemID string, patch models.RevisionItemPatch, allowedFrom []models.AllocationStatus) (bool, error)
}

// ProgressService records a student's progress on revision items. Items only
// move forward: pending, in_progress, completed.
type ProgressService struct {
	store   progressStore
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

const maxProgressAttempts = 3

// NewProgressService constructs a ProgressService.
func NewProgressService(store progressStore, metrics *MetricsService, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{
		store:   store,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RecordProgress moves an item to status. Repeating pending or in_progress
// is a no-op; repeating completed overwrites the answer and completion time.
func (s *ProgressService) RecordProgress(ctx context.Context, itemID string, status models.AllocationStatus, answer *string, claims *models.JWTClaims) (*models.RevisionListItem, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown allocation status %q", status))
	}

	item, err := s.findItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	list, err := s.store.FindByID(ctx, item.RevisionListID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "revision item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load revision list")
	}
	if err := ensureStudentAccess(claims, list.StudentID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxProgressAttempts; attempt++ {
		from := item.AllocationStatus
		if status.Rank() < from.Rank() {
			return nil, invalidTransition(from, status)
		}
		if status == from && status != models.AllocationCompleted {
			return item, nil
		}

		patch := s.patchFor(item, status, answer)
		updated, err := s.store.UpdateItem(ctx, itemID, patch, []models.AllocationStatus{from})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update revision item")
		}
		if !updated {
			// Another writer moved the item; re-check the move against its new state.
			if item, err = s.findItem(ctx, itemID); err != nil {
				return nil, err
			}
			continue
		}

		s.metrics.RecordTransition(from, status)
		s.logger.Debug("revision item progressed",
			zap.String("item_id", itemID),
			zap.String("from", string(from)),
			zap.String("to", string(status)),
			zap.Int("attempt", attempt+1))

		item.AllocationStatus = patch.AllocationStatus
		item.StudentAnswer = patch.StudentAnswer
		item.StartedAt = patch.StartedAt
		item.CompletedAt = patch.CompletedAt
		item.UpdatedAt = patch.UpdatedAt
		return item, nil
	}

	s.logger.Warn("revision item kept changing during update", zap.String("item_id", itemID))
	return nil, appErrors.Clone(appErrors.ErrConflict, "revision item changed concurrently, retry the update")
}

// patchFor keeps the item's existing values. Answers are recorded only on
// completion.
func (s *ProgressService) patchFor(item *models.RevisionListItem, status models.AllocationStatus, answer *string) models.RevisionItemPatch {
	now := s.now()
	patch := models.RevisionItemPatch{
		AllocationStatus: status,
		StudentAnswer:    item.StudentAnswer,
		StartedAt:        item.StartedAt,
		CompletedAt:      item.CompletedAt,
		UpdatedAt:        now,
	}
	if patch.StartedAt == nil {
		patch.StartedAt = &now
	}
	if status == models.AllocationCompleted {
		patch.CompletedAt = &now
		if answer != nil {
			patch.StudentAnswer = answer
		}
	}
	return patch
}

func (s *ProgressService) findItem(ctx context.Context, itemID string) (*models.RevisionListItem, error) {
	item, err := s.store.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "revision item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load revision item")
	}
	return item, nil
}

func invalidTransition(from, to models.AllocationStatus) error {
	return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move revision item from %s to %s", from, to))
}
