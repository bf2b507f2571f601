package supply

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sma-revision-api/internal/models"
)

const bankFileSuffix = ".questions.yaml"

type bankFile struct {
	Questions []models.PracticeQuestion `yaml:"questions"`
}

// FileBank serves practice questions from YAML files on disk.
type FileBank struct {
	rootDir   string
	questions []models.PracticeQuestion
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewFileBank loads every *.questions.yaml file under rootDir.
func NewFileBank(rootDir string, logger *zap.Logger) (*FileBank, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &FileBank{rootDir: rootDir, logger: logger}
	if err := b.Reload(); err != nil {
		return nil, fmt.Errorf("loading question bank: %w", err)
	}
	logger.Info("question bank loaded", zap.String("dir", rootDir), zap.Int("questions", b.Len()))
	return b, nil
}

// Reload re-reads the bank directory.
func (b *FileBank) Reload() error {
	var paths []string
	err := filepath.WalkDir(b.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, bankFileSuffix) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(paths)

	seen := make(map[string]struct{})
	var loaded []models.PracticeQuestion
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var file bankFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			b.logger.Warn("skipping invalid question bank file", zap.String("path", path), zap.Error(err))
			continue
		}
		for _, q := range file.Questions {
			if q.QuestionID == "" || strings.TrimSpace(q.Topic) == "" {
				continue
			}
			if _, dup := seen[q.QuestionID]; dup {
				continue
			}
			seen[q.QuestionID] = struct{}{}
			if q.Marks <= 0 {
				q.Marks = 1
			}
			q.Source = models.QuestionSourceBank
			loaded = append(loaded, q)
		}
	}

	b.mu.Lock()
	b.questions = loaded
	b.mu.Unlock()
	return nil
}

// Len returns the number of loaded questions.
func (b *FileBank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.questions)
}

// SupplyPracticeQuestions matches on sub-topic first and falls back to the
// topic only when no sub-topic question is available.
func (b *FileBank) SupplyPracticeQuestions(_ context.Context, req models.SupplyRequest) ([]models.PracticeQuestion, error) {
	if req.Count <= 0 {
		return nil, nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	exclude := excludedSet(req.ExcludeQuestionIDs)
	if subTopic := strings.TrimSpace(req.SubTopic); subTopic != "" {
		matches := b.match(req, exclude, func(q models.PracticeQuestion) bool {
			return sameLabel(q.SubTopic, subTopic)
		})
		if len(matches) > 0 {
			return matches, nil
		}
	}
	return b.match(req, exclude, func(q models.PracticeQuestion) bool {
		return sameLabel(q.Topic, req.Topic)
	}), nil
}

func (b *FileBank) match(req models.SupplyRequest, exclude map[string]struct{}, pred func(models.PracticeQuestion) bool) []models.PracticeQuestion {
	var preferred, other []models.PracticeQuestion
	for _, q := range b.questions {
		if _, skip := exclude[q.QuestionID]; skip || !pred(q) {
			continue
		}
		if req.Difficulty == "" || sameLabel(q.Difficulty, req.Difficulty) {
			preferred = append(preferred, q)
		} else {
			other = append(other, q)
		}
	}
	result := append(preferred, other...)
	if len(result) > req.Count {
		result = result[:req.Count]
	}
	return result
}
