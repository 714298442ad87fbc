package model

import (
	"context"
	"strings"

	"bfflix-agent/internal/domain"
)

// Stub имитирует модель для локального запуска без ключей API.
type Stub struct{}

var _ domain.ModelBackend = Stub{}

// NewStub создаёт заглушку.
func NewStub() Stub {
	return Stub{}
}

// Generate возвращает фиксированный ответ в том виде, в каком его обычно присылает модель.
func (Stub) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.Contains(prompt, "no recent viewing history") {
		return `{"type": "conversation", "message": "Want the most popular titles across all platforms right now, or a top list for a genre you like?"}`, nil
	}
	return "Here are some picks:\n```json\n" + `[
  {"title": "Heat", "type": "movie", "reason": "Tense crime drama with a slow burn.", "matchScore": 0.91},
  {"title": "Mindhunter", "type": "tv", "reason": "Methodical investigations and sharp dialogue.", "matchScore": 0.87},
  {"title": "Zodiac", "type": "movie", "reason": "Obsessive procedural with a great cast.", "matchScore": 0.84}
]` + "\n```", nil
}
