package agent

import "fmt"

const fallbackPromptTemplate = `The user has no recent viewing history.
Ask one short follow-up question (1–2 sentences). Offer two options:
1) "Want the current most popular movies people are watching across all platforms?"
2) "Prefer a top list by a specific genre you like (for example comedy, sci fi, drama)?"
If applicable, mention their platforms: %s.
Return JSON object:
{ "type": "conversation", "message": "string" }`

const recommendPromptTemplate = `You are the AI movie assistant for BFFlix.

User platforms (prefer titles likely available here): %s.

Recent viewing history (most recent first):
%s

User query: "%s"

Generate 3 to 5 high quality personalized recommendations. Infer tone, genre, and runtime preferences from their ratings and comments. Return ONLY a JSON array with items like:
[
  { "title": "string", "type": "movie" | "tv", "reason": "string", "matchScore": number }
]`

// defaultFollowUp используется, если модель не вернула ни сообщения, ни текста.
const defaultFollowUp = "Want trending now or a top list by genre?"

func fallbackPrompt(platforms []string) string {
	return fmt.Sprintf(fallbackPromptTemplate, FormatPlatforms(platforms))
}

func recommendPrompt(platforms []string, profile, query string) string {
	return fmt.Sprintf(recommendPromptTemplate, FormatPlatforms(platforms), profile, query)
}
