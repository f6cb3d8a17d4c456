// Package llm wraps an OpenAI-compatible API for question synthesis.
package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/gwenythashlie/examgenie/internal/llm/prompts"
	"github.com/gwenythashlie/examgenie/internal/model"
)

const requestTimeout = 90 * time.Second

// Client wraps an OpenAI-compatible API client. A nil *Client is valid and
// means synthesis is disabled: Synthesize always returns nil.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client. It returns nil when apiKey is empty, which
// callers treat as "generation unavailable".
func New(baseURL, apiKey, modelName string) *Client {
	if apiKey == "" {
		return nil
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping verifies the endpoint is reachable. A nil client pings successfully.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	_, err := c.api.ListModels(ctx)
	return err
}

// Synthesize asks the model for count question candidates generated from
// content and returns the raw JSON entries. Every failure mode — missing
// client, transport error, timeout, non-array response — returns nil:
// callers degrade to the fallback generator, they never see an error.
func (c *Client) Synthesize(ctx context.Context, content string, difficulty model.Difficulty, count int) []json.RawMessage {
	if c == nil || content == "" || count < 1 {
		return nil
	}

	prompt, err := prompts.BuildGeneratePrompt(difficulty, count, content)
	if err != nil {
		slog.Error("build generation prompt", "error", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.4,
	})
	if err != nil {
		slog.Warn("question synthesis failed, using fallback", "error", err)
		return nil
	}
	if len(resp.Choices) == 0 {
		slog.Warn("question synthesis returned no choices")
		return nil
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("synthesis response", "raw", raw)

	var candidates []json.RawMessage
	if err := json.Unmarshal([]byte(StripFences(raw)), &candidates); err != nil {
		slog.Warn("synthesis response not parseable, using fallback", "error", err)
		return nil
	}
	return candidates
}

// StripFences removes markdown code-fence wrappers some models put around
// JSON output.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimSuffix(s, "```")
	s = strings.Trim(s, "`")
	return strings.TrimSpace(s)
}
