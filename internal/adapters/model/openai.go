package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bfflix-agent/internal/domain"
	openai "bfflix-agent/internal/infra/openai"
)

type chatClient interface {
	Complete(ctx context.Context, req openai.CompletionRequest) (openai.Completion, error)
}

// OpenAI реализует domain.ModelBackend через Chat Completions.
type OpenAI struct {
	client    chatClient
	model     string
	timeout   time.Duration
	maxTokens int
}

var _ domain.ModelBackend = (*OpenAI)(nil)

// NewOpenAI создаёт бэкенд модели.
func NewOpenAI(client chatClient, model string, timeout time.Duration, maxTokens int) *OpenAI {
	if model == "" {
		model = "gpt-4.1-mini"
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OpenAI{client: client, model: model, timeout: timeout, maxTokens: maxTokens}
}

// Generate отправляет промпт одним сообщением пользователя и возвращает текст ответа.
func (m *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := m.client.Complete(ctx, openai.CompletionRequest{
		Model:     m.model,
		MaxTokens: m.maxTokens,
		Messages: []openai.Message{
			{Role: openai.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.RateLimited() {
			return "", fmt.Errorf("%w: openai rate limited: %w", domain.ErrModelCallFailed, err)
		}
		return "", fmt.Errorf("%w: %w", domain.ErrModelCallFailed, err)
	}
	content, ok := resp.Text()
	if !ok {
		return "", fmt.Errorf("%w: openai: пустой ответ", domain.ErrModelCallFailed)
	}
	return content, nil
}
