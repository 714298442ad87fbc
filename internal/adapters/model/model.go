// Package model содержит реализации клиента генеративной модели.
package model

import (
	"fmt"
	"strings"
	"time"

	"bfflix-agent/internal/domain"
	"bfflix-agent/internal/infra/config"
	openai "bfflix-agent/internal/infra/openai"
)

const defaultTimeout = 30 * time.Second

// FromConfig выбирает бэкенд по MODEL_PROVIDER.
func FromConfig(cfg config.AppConfig) (domain.ModelBackend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Model.Provider)) {
	case "", "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("model: OPENAI_API_KEY is empty")
		}
		client := openai.NewClient(openai.Options{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Timeout: cfg.Model.Timeout,
		})
		return NewOpenAI(client, cfg.OpenAI.Model, cfg.Model.Timeout, cfg.Model.MaxTokens), nil
	case "anthropic":
		if cfg.Anthropic.APIKey == "" {
			return nil, fmt.Errorf("model: ANTHROPIC_API_KEY is empty")
		}
		return NewAnthropic(cfg.Anthropic.APIKey, cfg.Anthropic.BaseURL, cfg.Anthropic.Model, cfg.Model.Timeout, cfg.Model.MaxTokens), nil
	case "stub":
		return NewStub(), nil
	default:
		return nil, fmt.Errorf("model: unknown provider %q", cfg.Model.Provider)
	}
}
