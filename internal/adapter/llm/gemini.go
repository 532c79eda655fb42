package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"cmsrag/internal/domain"
)

// GeminiChat calls Google's Gemini models.
type GeminiChat struct {
	client    *genai.Client
	modelName string
	opts      Options
}

// NewGeminiChat reads the API key from apiKeyEnv.
func NewGeminiChat(ctx context.Context, apiKeyEnv, model string, opts Options) (*GeminiChat, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiChat{
		client:    client,
		modelName: model,
		opts:      opts,
	}, nil
}

// Chat replays all but the last turn as history and sends the last one.
func (g *GeminiChat) Chat(ctx context.Context, systemPrompt string, turns []domain.Turn) (string, error) {
	if len(turns) == 0 {
		return "", errors.New("no message to send")
	}
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	model := g.client.GenerativeModel(g.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}
	model.SetTemperature(float32(g.opts.Temperature))
	if g.opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(g.opts.MaxTokens))
	}

	chat := model.StartChat()
	chat.History = geminiHistory(turns[:len(turns)-1])

	resp, err := chat.SendMessage(ctx, genai.Text(turns[len(turns)-1].Content))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("no response generated")
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return sb.String(), nil
}

// geminiHistory maps turns to Gemini roles, where the assistant is "model".
func geminiHistory(turns []domain.Turn) []*genai.Content {
	history := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		role := "user"
		if turn.Role == domain.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Parts: []genai.Part{genai.Text(turn.Content)},
			Role:  role,
		})
	}
	return history
}

func (g *GeminiChat) ModelName() string {
	return g.modelName
}

func (g *GeminiChat) Close() error {
	return g.client.Close()
}
