package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-revision-api/internal/models"
	appErrors "github.com/noah-isme/sma-revision-api/pkg/errors"
)

type memoryRevisionStore struct {
	lists     map[string]*models.RevisionList
	items     map[string][]models.RevisionListItem
	saves     int
	saveErr   error
	updateErr error
	// raceTo, when set, is written to the item just before the next
	// conditional update. churn moves the item away from the expected status
	// on every update.
	raceTo models.AllocationStatus
	churn  bool
}

func newMemoryRevisionStore() *memoryRevisionStore {
	return &memoryRevisionStore{lists: map[string]*models.RevisionList{}, items: map[string][]models.RevisionListItem{}}
}

func sameSource(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *memoryRevisionStore) Load(ctx context.Context, studentID string, source *string) (*models.RevisionList, []models.RevisionListItem, error) {
	for _, list := range m.lists {
		if list.StudentID == studentID && sameSource(list.SourceAssignmentID, source) {
			copied := *list
			return &copied, append([]models.RevisionListItem(nil), m.items[list.ID]...), nil
		}
	}
	return nil, nil, nil
}

func (m *memoryRevisionStore) Save(ctx context.Context, list *models.RevisionList, newItems []models.RevisionListItem) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	copied := *list
	m.lists[list.ID] = &copied
	for _, item := range newItems {
		dup := false
		for _, existing := range m.items[list.ID] {
			if existing.QuestionID == item.QuestionID {
				dup = true
			}
		}
		if !dup {
			m.items[list.ID] = append(m.items[list.ID], item)
		}
	}
	sort.SliceStable(m.items[list.ID], func(i, j int) bool {
		return m.items[list.ID][i].OrderIndex < m.items[list.ID][j].OrderIndex
	})
	return nil
}

func (m *memoryRevisionStore) FindByID(ctx context.Context, listID string) (*models.RevisionList, error) {
	list, ok := m.lists[listID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *list
	return &copied, nil
}

func (m *memoryRevisionStore) Items(ctx context.Context, listID string) ([]models.RevisionListItem, error) {
	return append([]models.RevisionListItem(nil), m.items[listID]...), nil
}

func (m *memoryRevisionStore) ListByStudent(ctx context.Context, studentID string) ([]models.RevisionList, error) {
	var result []models.RevisionList
	for _, list := range m.lists {
		if list.StudentID == studentID {
			result = append(result, *list)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memoryRevisionStore) CountItemsByStatus(ctx context.Context, listIDs []string) (map[string]models.RevisionProgress, error) {
	result := map[string]models.RevisionProgress{}
	for _, id := range listIDs {
		result[id] = models.ProgressOf(m.items[id])
	}
	return result, nil
}

func (m *memoryRevisionStore) Delete(ctx context.Context, listID string) error {
	if _, ok := m.lists[listID]; !ok {
		return sql.ErrNoRows
	}
	delete(m.lists, listID)
	delete(m.items, listID)
	return nil
}

func (m *memoryRevisionStore) FindItem(ctx context.Context, itemID string) (*models.RevisionListItem, error) {
	for _, items := range m.items {
		for i := range items {
			if items[i].ID == itemID {
				copied := items[i]
				return &copied, nil
			}
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryRevisionStore) UpdateItem(ctx context.Context, itemID string, patch models.RevisionItemPatch, allowedFrom []models.AllocationStatus) (bool, error) {
	if m.updateErr != nil {
		return false, m.updateErr
	}
	for listID, items := range m.items {
		for i := range items {
			if items[i].ID != itemID {
				continue
			}
			if m.raceTo != "" {
				items[i].AllocationStatus = m.raceTo
				m.raceTo = ""
			}
			if m.churn {
				if items[i].AllocationStatus == models.AllocationPending {
					items[i].AllocationStatus = models.AllocationInProgress
				} else {
					items[i].AllocationStatus = models.AllocationPending
				}
			}
			allowed := false
			for _, status := range allowedFrom {
				if items[i].AllocationStatus == status {
					allowed = true
				}
			}
			if !allowed {
				return false, nil
			}
			items[i].AllocationStatus = patch.AllocationStatus
			items[i].StudentAnswer = patch.StudentAnswer
			items[i].StartedAt = patch.StartedAt
			items[i].CompletedAt = patch.CompletedAt
			items[i].UpdatedAt = patch.UpdatedAt
			m.items[listID] = items
			return true, nil
		}
	}
	return false, nil
}

// topicSupplier hands out sequentially numbered questions per topic key.
type topicSupplier struct {
	available map[string]int
	fail      map[string]error
	requests  []models.SupplyRequest
}

func (s *topicSupplier) SupplyPracticeQuestions(ctx context.Context, req models.SupplyRequest) ([]models.PracticeQuestion, error) {
	s.requests = append(s.requests, req)
	key := req.Topic
	if req.SubTopic != "" {
		key = req.SubTopic
	}
	if err := s.fail[key]; err != nil {
		return nil, err
	}
	skip := map[string]bool{}
	for _, id := range req.ExcludeQuestionIDs {
		skip[id] = true
	}
	var out []models.PracticeQuestion
	for i := 1; i <= s.available[key] && len(out) < req.Count; i++ {
		id := fmt.Sprintf("%s-%d", key, i)
		if skip[id] {
			continue
		}
		out = append(out, models.PracticeQuestion{QuestionID: id, Topic: req.Topic, SubTopic: req.SubTopic, Marks: 2})
	}
	return out, nil
}

func weakTopic(key string, status models.RAGStatus) models.TopicBreakdown {
	return models.TopicBreakdown{TopicKey: key, Topic: key, RAGStatus: status}
}

func newTestBuilder(store *memoryRevisionStore, supplier PracticeSupplier) *RevisionBuilder {
	builder := NewRevisionBuilder(store, supplier, RevisionBuilderConfig{}, NewMetricsService(), nil)
	fixed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	builder.now = func() time.Time { return fixed }
	return builder
}

func TestRevisionBuilderAllocatesPerRAGStatus(t *testing.T) {
	store := newMemoryRevisionStore()
	supplier := &topicSupplier{available: map[string]int{"Algebra": 5, "Ratio": 5}}
	builder := newTestBuilder(store, supplier)
	source := "asg-1"

	detail, err := builder.BuildOrUpdate(context.Background(), BuildRequest{
		StudentID:          "stu-1",
		SourceAssignmentID: &source,
		WeakTopics: []models.TopicBreakdown{
			weakTopic("Algebra", models.RAGRed),
			weakTopic("Geometry", models.RAGGreen),
			weakTopic("Ratio", models.RAGAmber),
		},
		ExcludeQuestionIDs: []string{"Algebra-1"},
	})
	require.NoError(t, err)

	require.Len(t, detail.Items, 5)
	assert.Equal(t, "Revision list", detail.Title)
	assert.Equal(t, models.AllocationPending, detail.Status)
	assert.Empty(t, detail.Gaps)

	ids := make([]string, len(detail.Items))
	for i, item := range detail.Items {
		ids[i] = item.QuestionID
		assert.Equal(t, i, item.OrderIndex)
		assert.Equal(t, models.AllocationPending, item.AllocationStatus)
	}
	assert.Equal(t, []string{"Algebra-2", "Algebra-3", "Algebra-4", "Ratio-1", "Ratio-2"}, ids)
	assert.Equal(t, "Algebra", detail.Items[0].TargetedTopicKey)
	require.Len(t, supplier.requests, 2)
	assert.Equal(t, 3, supplier.requests[0].Count)
	assert.Equal(t, 2, supplier.requests[1].Count)
}

func TestRevisionBuilderIsIdempotent(t *testing.T) {
	store := newMemoryRevisionStore()
	builder := newTestBuilder(store, &topicSupplier{available: map[string]int{"Algebra": 5}})
	req := BuildRequest{StudentID: "stu-1", WeakTopics: []models.TopicBreakdown{weakTopic("Algebra", models.RAGRed)}}

	first, err := builder.BuildOrUpdate(context.Background(), req)
	require.NoError(t, err)
	second, err := builder.BuildOrUpdate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.Items, 3)
	assert.Equal(t, 1, store.saves)
}

func TestRevisionBuilderKeepsCompletedItemsOnMerge(t *testing.T) {
	store := newMemoryRevisionStore()
	builder := newTestBuilder(store, &topicSupplier{available: map[string]int{"Algebra": 5, "Surds": 5}})

	first, err := builder.BuildOrUpdate(context.Background(), BuildRequest{
		StudentID:  "stu-1",
		WeakTopics: []models.TopicBreakdown{weakTopic("Algebra", models.RAGAmber)},
	})
	require.NoError(t, err)

	answer := "x = 4"
	done := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	items := store.items[first.ID]
	items[0].AllocationStatus = models.AllocationCompleted
	items[0].StudentAnswer = &answer
	items[0].CompletedAt = &done

	second, err := builder.BuildOrUpdate(context.Background(), BuildRequest{
		StudentID: "stu-1",
		WeakTopics: []models.TopicBreakdown{
			weakTopic("Algebra", models.RAGRed),
			weakTopic("Surds", models.RAGRed),
		},
	})
	require.NoError(t, err)

	require.Len(t, second.Items, 5)
	kept := second.Items[0]
	assert.Equal(t, models.AllocationCompleted, kept.AllocationStatus)
	require.NotNil(t, kept.StudentAnswer)
	assert.Equal(t, "x = 4", *kept.StudentAnswer)
	assert.Equal(t, done, *kept.CompletedAt)
	assert.Equal(t, 2, second.Items[2].OrderIndex)
	assert.Equal(t, "Surds", second.Items[2].TargetedTopicKey)
	assert.Equal(t, models.AllocationInProgress, second.Status)
}

func TestRevisionBuilderRebuildAfterTopicRecovers(t *testing.T) {
	store := newMemoryRevisionStore()
	builder := newTestBuilder(store, &topicSupplier{available: map[string]int{"Algebra": 5, "Surds": 5}})

	first, err := builder.BuildOrUpdate(context.Background(), BuildRequest{
		StudentID:  "stu-1",
		WeakTopics: []models.TopicBreakdown{weakTopic("Algebra", models.RAGRed)},
	})
	require.NoError(t, err)
	require.Len(t, first.Items, 3)

	answer := "x = 4"
	done := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	items := store.items[first.ID]
	items[1].AllocationStatus = models.AllocationCompleted
	items[1].StudentAnswer = &answer
	items[1].CompletedAt = &done
	before := append([]models.RevisionListItem(nil), items...)

	second, err := builder.BuildOrUpdate(context.Background(), BuildRequest{
		StudentID: "stu-1",
		WeakTopics: []models.TopicBreakdown{
			weakTopic("Algebra", models.RAGGreen),
			weakTopic("Surds", models.RAGRed),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.Len(t, second.Items, 6)

	for i, want := range before {
		got := second.Items[i]
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.QuestionID, got.QuestionID)
		assert.Equal(t, "Algebra", got.TargetedTopicKey)
		assert.Equal(t, want.AllocationStatus, got.AllocationStatus)
		assert.Equal(t, want.StudentAnswer, got.StudentAnswer)
		assert.Equal(t, want.CompletedAt, got.CompletedAt)
	}
	require.NotNil(t, second.Items[1].StudentAnswer)
	assert.Equal(t, "x = 4", *second.Items[1].StudentAnswer)
	assert.Equal(t, done, *second.Items[1].CompletedAt)

	for i, got := range second.Items[3:] {
		assert.Equal(t, "Surds", got.TargetedTopicKey)
		assert.Equal(t, models.AllocationPending, got.AllocationStatus)
		assert.Equal(t, 3+i, got.OrderIndex)
		assert.Nil(t, got.StudentAnswer)
	}
	assert.Empty(t, second.Gaps)
}

func TestRevisionBuilderReportsSupplyGaps(t *testing.T) {
	store := newMemoryRevisionStore()
	supplier := &topicSupplier{
		available: map[string]int{"Ratio": 1},
		fail:      map[string]error{"Algebra": appErrors.Clone(appErrors.ErrSupplyExhausted, "no practice questions")},
	}
	builder := newTestBuilder(store, supplier)

	detail, err := builder.BuildOrUpdate(context.Background(), BuildRequest{
		StudentID: "stu-1",
		WeakTopics: []models.TopicBreakdown{
			weakTopic("Algebra", models.RAGRed),
			weakTopic("Probability", models.RAGRed),
			weakTopic("Ratio", models.RAGAmber),
		},
	})
	require.NoError(t, err)

	require.Len(t, detail.Items, 1)
	assert.Equal(t, "Ratio-1", detail.Items[0].QuestionID)
	require.Len(t, detail.Gaps, 2)
	assert.Equal(t, "Algebra", detail.Gaps[0].TopicKey)
	assert.Equal(t, "Probability", detail.Gaps[1].TopicKey)
}

func TestRevisionBuilderCreatesEmptyList(t *testing.T) {
	store := newMemoryRevisionStore()
	builder := newTestBuilder(store, &topicSupplier{})
	description := "Spring mock follow-up"

	detail, err := builder.BuildOrUpdate(context.Background(), BuildRequest{
		StudentID:   "stu-1",
		Title:       "Mock exam revision",
		Description: &description,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, detail.ID)
	assert.Empty(t, detail.Items)
	assert.Equal(t, models.AllocationPending, detail.Status)
	assert.Equal(t, "Mock exam revision", detail.Title)
	assert.Equal(t, 1, store.saves)
}

func TestRevisionBuilderSaveFailure(t *testing.T) {
	store := newMemoryRevisionStore()
	store.saveErr = errors.New("db down")
	builder := newTestBuilder(store, &topicSupplier{available: map[string]int{"Algebra": 3}})

	_, err := builder.BuildOrUpdate(context.Background(), BuildRequest{
		StudentID:  "stu-1",
		WeakTopics: []models.TopicBreakdown{weakTopic("Algebra", models.RAGRed)},
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
}

func TestRevisionBuilderRequiresStudent(t *testing.T) {
	builder := newTestBuilder(newMemoryRevisionStore(), &topicSupplier{})
	_, err := builder.BuildOrUpdate(context.Background(), BuildRequest{})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
