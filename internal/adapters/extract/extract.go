// Package extract достаёт JSON из свободного текста генеративной модели.
package extract

import (
	"bytes"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
)

// Strategy называет способ, которым удалось получить данные.
type Strategy string

const (
	// StrategyFenced — блок ```json ... ```.
	StrategyFenced Strategy = "fenced"
	// StrategyBracketed — первый участок {...} или [...].
	StrategyBracketed Strategy = "bracketed"
	// StrategyWhole — весь ответ целиком.
	StrategyWhole Strategy = "whole"
	// StrategyRaw — разобрать не удалось, текст завёрнут в {"raw": ...}.
	StrategyRaw Strategy = "raw"
)

// Result содержит компактный JSON и стратегию, которая его дала.
type Result struct {
	Value    []byte
	Strategy Strategy
}

// Degraded сообщает, что структуру достать не удалось.
func (r Result) Degraded() bool {
	return r.Strategy == StrategyRaw
}

// RawCarrier — обёртка для неразобранного текста.
type RawCarrier struct {
	Raw string `json:"raw"`
}

var (
	fencedRe  = regexp.MustCompile("(?is)```json\\s*(.*?)```")
	bracketRe = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)
)

type attempt struct {
	strategy Strategy
	find     func(trimmed string) (string, bool)
}

// Порядок важен: fenced-блоку доверяем больше всего, всей строке — меньше всего.
var chain = []attempt{
	{strategy: StrategyFenced, find: findFenced},
	{strategy: StrategyBracketed, find: findBracketed},
	{strategy: StrategyWhole, find: func(trimmed string) (string, bool) { return trimmed, trimmed != "" }},
}

// Extract применяет стратегии по очереди и никогда не возвращает ошибку.
func Extract(text string) Result {
	trimmed := strings.TrimSpace(text)
	for _, a := range chain {
		candidate, ok := a.find(trimmed)
		if !ok {
			continue
		}
		if value, ok := tryParse(candidate); ok {
			return Result{Value: value, Strategy: a.strategy}
		}
	}
	raw, err := json.Marshal(RawCarrier{Raw: trimmed})
	if err != nil {
		raw = []byte(`{"raw":""}`)
	}
	return Result{Value: raw, Strategy: StrategyRaw}
}

func findFenced(trimmed string) (string, bool) {
	m := fencedRe.FindStringSubmatch(trimmed)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func findBracketed(trimmed string) (string, bool) {
	m := bracketRe.FindString(trimmed)
	return m, m != ""
}

func tryParse(candidate string) ([]byte, bool) {
	src := []byte(candidate)
	if !json.Valid(src) {
		return nil, false
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, src); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}
