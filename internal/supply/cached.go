package supply

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-revision-api/internal/models"
)

// Cache is the subset of the cache service used to memoise supplies.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachedSupplier memoises an expensive supplier per topic, sub-topic,
// difficulty and count. Excluded ids are filtered after the lookup so one
// cached batch serves every student.
type CachedSupplier struct {
	inner  Supplier
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedSupplier wraps inner with cache.
func NewCachedSupplier(inner Supplier, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedSupplier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSupplier{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

// SupplyPracticeQuestions implements Supplier.
func (s *CachedSupplier) SupplyPracticeQuestions(ctx context.Context, req models.SupplyRequest) ([]models.PracticeQuestion, error) {
	key := cacheKey(req)
	var cached []models.PracticeQuestion
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Debug("supply cache lookup failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		if filtered := filterExcluded(cached, req.ExcludeQuestionIDs, req.Count); len(filtered) > 0 {
			return filtered, nil
		}
	}

	questions, err := s.inner.SupplyPracticeQuestions(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(questions) > 0 {
		_ = s.cache.Set(ctx, key, questions, s.ttl)
	}
	return questions, nil
}

func filterExcluded(questions []models.PracticeQuestion, exclude []string, limit int) []models.PracticeQuestion {
	skip := excludedSet(exclude)
	result := make([]models.PracticeQuestion, 0, len(questions))
	for _, q := range questions {
		if _, ok := skip[q.QuestionID]; ok {
			continue
		}
		result = append(result, q)
		if len(result) == limit {
			break
		}
	}
	return result
}

func cacheKey(req models.SupplyRequest) string {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return fmt.Sprintf("supply:%s:%s:%s:%d", norm(req.Topic), norm(req.SubTopic), norm(req.Difficulty), req.Count)
}
