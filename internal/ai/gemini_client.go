package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/xelth-com/pharmsearch/internal/config"
	"github.com/xelth-com/pharmsearch/internal/utils"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

var (
	// ErrUnavailable covers every reason the completion service could not answer:
	// network faults, timeouts, rate limiting, cancelled requests.
	ErrUnavailable = errors.New("completion service unavailable")
	// ErrEmptyResponse is returned when the model produced no text
	ErrEmptyResponse = errors.New("empty response from completion service")
)

// Completer is the completion-service collaborator used by the search engine.
// GenerateJSON asks for output constrained to schema and returns the raw JSON text.
type Completer interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// GeminiClient interacts with Google Gemini API using the official SDK
type GeminiClient struct {
	client      *genai.Client
	modelName   string
	temperature float32
	timeout     time.Duration
	limiter     *rate.Limiter
}

// NewGeminiClient creates a new Gemini API client
func NewGeminiClient(ctx context.Context, cfg config.AIConfig) (*GeminiClient, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	limit := rate.Inf
	burst := 1
	if cfg.RatePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RatePerMinute))
		burst = cfg.RatePerMinute
	}

	return &GeminiClient{
		client:      client,
		modelName:   modelName,
		temperature: cfg.Temperature,
		timeout:     timeout,
		limiter:     rate.NewLimiter(limit, burst),
	}, nil
}

// Close closes the client connection
func (c *GeminiClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// GenerateContent sends a prompt to Gemini and returns the response text
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, nil)
}

// GenerateJSON sends a prompt with a strict response schema and returns the JSON text
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	return c.generate(ctx, prompt, schema)
}

func (c *GeminiClient) generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// A model value carries its own generation config, so one is built per call
	model := c.client.GenerativeModel(c.modelName)
	model.SetTemperature(c.temperature)
	if schema != nil {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = schema
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: gemini generation error: %v", ErrUnavailable, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	var fullText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			fullText.WriteString(string(txt))
		}
	}

	text := strings.TrimSpace(fullText.String())
	if schema != nil {
		text = utils.SanitizeJSON(text)
	}
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
