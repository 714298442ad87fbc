package model

import (
	"context"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"bfflix-agent/internal/domain"
	"bfflix-agent/internal/infra/metrics"
)

// Anthropic реализует domain.ModelBackend через Messages API.
type Anthropic struct {
	client    anthropic.Client
	model     string
	timeout   time.Duration
	maxTokens int64
}

var _ domain.ModelBackend = (*Anthropic)(nil)

// NewAnthropic создаёт бэкенд. Повторы SDK отключены.
func NewAnthropic(apiKey, baseURL, model string, timeout time.Duration, maxTokens int) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		model:     model,
		timeout:   timeout,
		maxTokens: int64(maxTokens),
	}
}

// Generate отправляет промпт и склеивает текстовые блоки ответа.
func (a *Anthropic) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	metrics.ObserveNetworkRequest("anthropic", "messages", a.model, start, err)
	if err != nil {
		return "", fmt.Errorf("%w: anthropic: %w", domain.ErrModelCallFailed, err)
	}
	in, out := int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens)
	metrics.ObserveLLMGeneration(a.model, time.Since(start), in, out, in+out)

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: anthropic: пустой ответ", domain.ErrModelCallFailed)
	}
	return b.String(), nil
}
