package agent

import (
	"fmt"
	"strings"

	"bfflix-agent/internal/domain"
)

const noPlatforms = "none set"

// FormatRecord превращает запись просмотра в строку вида
// `TV Show id 1399, S2E5, rated 4/5, comment "great one"`.
func FormatRecord(v domain.ViewingRecord) string {
	label := "Movie"
	if v.MediaType == domain.MediaTV {
		label = "TV Show"
	}
	parts := []string{fmt.Sprintf("%s id %s", label, v.MediaID)}
	if v.SeasonNumber != nil && v.EpisodeNumber != nil {
		parts = append(parts, fmt.Sprintf("S%dE%d", *v.SeasonNumber, *v.EpisodeNumber))
	}
	if v.Rating != nil {
		parts = append(parts, fmt.Sprintf("rated %d/5", *v.Rating))
	}
	if v.Comment != "" {
		// двойные кавычки сломают цитирование в промпте
		parts = append(parts, fmt.Sprintf(`comment "%s"`, strings.ReplaceAll(v.Comment, `"`, `'`)))
	}
	return strings.Join(parts, ", ")
}

// BuildProfile собирает компактный профиль пользователя из истории просмотров.
func BuildProfile(records []domain.ViewingRecord) string {
	fragments := make([]string, 0, len(records))
	for _, r := range records {
		fragments = append(fragments, FormatRecord(r))
	}
	return strings.Join(fragments, "; ")
}

// FormatPlatforms перечисляет платформы через запятую либо возвращает "none set".
func FormatPlatforms(names []string) string {
	if len(names) == 0 {
		return noPlatforms
	}
	return strings.Join(names, ", ")
}
