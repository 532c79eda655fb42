// Package llm adapts chat completion providers to port.LLM.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"

	"cmsrag/internal/domain"
)

// Options tune a generation request.
type Options struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// OpenAIChat calls an OpenAI-compatible chat completions endpoint.
type OpenAIChat struct {
	client *openai.Client
	model  string
	opts   Options
}

// NewOpenAIChat reads the API key from apiKeyEnv. An empty baseURL uses the
// public OpenAI endpoint.
func NewOpenAIChat(apiKeyEnv, model, baseURL string, opts Options) (*OpenAIChat, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	return newOpenAIChat(apiKey, model, baseURL, opts), nil
}

func newOpenAIChat(apiKey, model, baseURL string, opts Options) *OpenAIChat {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	config.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &OpenAIChat{
		client: openai.NewClientWithConfig(config),
		model:  model,
		opts:   opts,
	}
}

// Chat sends the system prompt followed by turns and returns the reply.
func (c *OpenAIChat) Chat(ctx context.Context, systemPrompt string, turns []domain.Turn) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, turn := range turns {
		role := openai.ChatMessageRoleUser
		if turn.Role == domain.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(c.opts.Temperature),
		MaxTokens:   c.opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response generated")
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIChat) ModelName() string {
	return c.model
}
