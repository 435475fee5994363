// Package ai enriches rate alerts with an LLM-written analyst summary.
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"FlowSentry/internal/config"
)

// AlertAnalyzer turns a raw alert summary into an analyst-style assessment
// using an OpenAI-compatible API.
type AlertAnalyzer struct {
	cfg    *config.AIConfig
	client *openai.Client
}

// NewAlertAnalyzer creates a new instance of AlertAnalyzer.
func NewAlertAnalyzer(cfg *config.AIConfig) (*AlertAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("AI API key is not configured")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &AlertAnalyzer{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientConfig),
	}, nil
}

// AnalyzeAlert asks the model for a threat assessment of the alert text.
func (a *AlertAnalyzer) AnalyzeAlert(ctx context.Context, input string) (string, error) {
	prompt := fmt.Sprintf(
		"You are a senior network security analyst. "+
			"Please analyze the following rate-based alert from the FlowSentry monitoring system. "+
			"Provide a concise analysis of the potential threat, its severity, and recommended next steps for investigation. "+
			"The output should be clear and actionable.\n\n"+
			"--- Alert Data ---\n%s\n--- End of Alert Data ---", input,
	)

	resp, err := a.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: a.cfg.Model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("AI request timeout: %w", err)
		}
		if errors.Is(err, context.Canceled) {
			return "", fmt.Errorf("AI request canceled by client: %w", err)
		}
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI API returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
