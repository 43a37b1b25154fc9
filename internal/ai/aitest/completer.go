// Package aitest provides a scriptable ai.Completer for tests.
package aitest

import (
	"context"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/xelth-com/pharmsearch/internal/ai"
)

// Completer answers prompts from fixed responses. A JSON request is answered
// with the first JSON response whose key occurs in the prompt; Err, when set,
// fails every call.
type Completer struct {
	mu sync.Mutex

	JSON map[string]string
	Text string
	Err  error

	Prompts []string
}

var _ ai.Completer = (*Completer)(nil)

// Failing returns a completer whose every call fails with ai.ErrUnavailable
func Failing() *Completer {
	return &Completer{Err: ai.ErrUnavailable}
}

func (c *Completer) GenerateContent(ctx context.Context, prompt string) (string, error) {
	c.record(prompt)
	if err := c.fail(ctx); err != nil {
		return "", err
	}
	if c.Text == "" {
		return "", ai.ErrEmptyResponse
	}
	return c.Text, nil
}

func (c *Completer) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	c.record(prompt)
	if err := c.fail(ctx); err != nil {
		return "", err
	}
	for key, resp := range c.JSON {
		if strings.Contains(prompt, key) {
			return resp, nil
		}
	}
	return "", ai.ErrEmptyResponse
}

// Calls returns how many prompts were sent
func (c *Completer) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Prompts)
}

func (c *Completer) record(prompt string) {
	c.mu.Lock()
	c.Prompts = append(c.Prompts, prompt)
	c.mu.Unlock()
}

func (c *Completer) fail(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.Err
}
