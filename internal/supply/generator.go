package supply

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-revision-api/internal/models"
)

const generatorSchemaName = "practice-questions"

const generatorSystemPrompt = `You write short exam-style maths practice questions for secondary school students.
Return only JSON matching the provided schema. Write every question in LaTeX-friendly plain text.
Each question must target the requested topic and sub-topic and be answerable without a diagram.`

// ErrProviderUnavailable indicates the model endpoint is down or rate limited.
var ErrProviderUnavailable = errors.New("question generator unavailable")

// ErrInvalidGeneration indicates the model returned content that does not
// match the expected schema.
var ErrInvalidGeneration = errors.New("invalid generated questions")

// ChatCompleter is the subset of the OpenAI client used by Generator.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// GeneratorConfig configures Generator.
type GeneratorConfig struct {
	Model     string
	MaxTokens int
}

// Generator creates fresh practice questions through an OpenAI-compatible API.
type Generator struct {
	client ChatCompleter
	cfg    GeneratorConfig
	logger *zap.Logger

	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
}

// NewOpenAIClient builds a go-openai client, honouring an optional base URL.
func NewOpenAIClient(apiKey, baseURL string) (*openai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(config), nil
}

// NewGenerator constructs a Generator.
func NewGenerator(client ChatCompleter, cfg GeneratorConfig, logger *zap.Logger) *Generator {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{client: client, cfg: cfg, logger: logger}
}

type generatedQuestion struct {
	Question    string  `json:"question"`
	Answer      string  `json:"answer"`
	Explanation string  `json:"explanation"`
	Marks       float64 `json:"marks"`
	Difficulty  string  `json:"difficulty"`
}

type generatedPayload struct {
	Questions []generatedQuestion `json:"questions"`
}

// SupplyPracticeQuestions implements Supplier.
func (g *Generator) SupplyPracticeQuestions(ctx context.Context, req models.SupplyRequest) ([]models.PracticeQuestion, error) {
	if req.Count <= 0 {
		return nil, nil
	}
	schemaBytes, err := json.Marshal(questionSchema(req.Count))
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: generatorSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
		},
		MaxCompletionTokens: g.cfg.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   generatorSchemaName,
				Schema: json.RawMessage(schemaBytes),
				Strict: false,
			},
		},
	})
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrInvalidGeneration)
	}

	payload, err := g.decode(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	questions := make([]models.PracticeQuestion, 0, len(payload.Questions))
	for _, gq := range payload.Questions {
		if strings.TrimSpace(gq.Question) == "" {
			continue
		}
		difficulty := gq.Difficulty
		if difficulty == "" {
			difficulty = req.Difficulty
		}
		questions = append(questions, models.PracticeQuestion{
			QuestionID: uuid.NewString(),
			Topic:      req.Topic,
			SubTopic:   req.SubTopic,
			Marks:      gq.Marks,
			Difficulty: difficulty,
			ContentRef: gq.Question,
			AnswerKey:  strings.TrimSpace(gq.Answer + "\n" + gq.Explanation),
			Source:     models.QuestionSourceGenerated,
		})
		if len(questions) == req.Count {
			break
		}
	}
	g.logger.Debug("generated practice questions",
		zap.String("topic", req.Topic),
		zap.String("sub_topic", req.SubTopic),
		zap.Int("count", len(questions)),
		zap.Int("tokens", resp.Usage.TotalTokens))
	return questions, nil
}

func (g *Generator) decode(content string) (*generatedPayload, error) {
	var parsed any
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrInvalidGeneration, err)
	}
	compiled, err := g.compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := compiled.Validate(parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeneration, err)
	}
	var payload generatedPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeneration, err)
	}
	return &payload, nil
}

// compiledSchema validates against the loose schema (no item-count bound) so
// one compiled schema serves every request size.
func (g *Generator) compiledSchema() (*jsonschema.Schema, error) {
	g.schemaOnce.Do(func() {
		defBytes, err := json.Marshal(questionSchema(0))
		if err != nil {
			g.schemaErr = fmt.Errorf("marshal schema definition: %w", err)
			return
		}
		var def any
		if err := json.Unmarshal(defBytes, &def); err != nil {
			g.schemaErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		url := "schema://" + generatorSchemaName + ".json"
		if err := c.AddResource(url, def); err != nil {
			g.schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		g.schema, g.schemaErr = c.Compile(url)
	})
	return g.schema, g.schemaErr
}

func questionSchema(count int) map[string]any {
	items := map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question":    map[string]any{"type": "string", "minLength": 1},
				"answer":      map[string]any{"type": "string"},
				"explanation": map[string]any{"type": "string"},
				"marks":       map[string]any{"type": "number", "exclusiveMinimum": 0},
				"difficulty":  map[string]any{"type": "string"},
			},
			"required":             []string{"question", "answer", "explanation", "marks", "difficulty"},
			"additionalProperties": false,
		},
	}
	if count > 0 {
		items["maxItems"] = count
	}
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{"questions": items},
		"required":             []string{"questions"},
		"additionalProperties": false,
	}
}

func buildPrompt(req models.SupplyRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d practice question(s).\n", req.Count)
	fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	if req.SubTopic != "" {
		fmt.Fprintf(&b, "Sub-topic: %s\n", req.SubTopic)
	}
	if req.Difficulty != "" {
		fmt.Fprintf(&b, "Difficulty: %s\n", req.Difficulty)
	}
	return b.String()
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500 {
			return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
	}
	return fmt.Errorf("generate practice questions: %w", err)
}
