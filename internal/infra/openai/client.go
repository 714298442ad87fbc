// Package openai — минимальный клиент Chat Completions для OpenAI-совместимых API.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"bfflix-agent/internal/infra/metrics"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	// верхняя граница тела ответа
	maxResponseBytes = 1 << 20
)

var errNoAPIKey = errors.New("openai: api key is empty")

// Options настраивает клиента.
type Options struct {
	APIKey  string
	BaseURL string
	// Timeout ограничивает один HTTP-запрос. Вызывающий обычно передаёт свой, более короткий, через ctx.
	Timeout time.Duration
	// HTTPClient заменяет транспорт, например в тестах.
	HTTPClient *http.Client
}

// Client выполняет запросы к /chat/completions.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// NewClient создаёт клиента.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout + 5*time.Second}
	}
	return &Client{http: httpClient, baseURL: baseURL, apiKey: opts.APIKey}
}

// Message — одно сообщение диалога.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RoleUser — сообщение пользователя.
const RoleUser = "user"

// CompletionRequest — тело запроса.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// Completion — ответ модели.
type Completion struct {
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice — один вариант ответа.
type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage — расход токенов.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Text возвращает текст первого варианта.
func (c Completion) Text() (string, bool) {
	if len(c.Choices) == 0 {
		return "", false
	}
	return c.Choices[0].Message.Content, true
}

// APIError — ответ API со статусом 4xx/5xx.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("openai: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("openai: status %d: %s", e.StatusCode, e.Message)
}

// RateLimited сообщает, что API ограничило частоту запросов.
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Complete отправляет запрос и разбирает ответ.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (out Completion, err error) {
	if c.apiKey == "" {
		return Completion{}, errNoAPIKey
	}
	start := time.Now()
	defer func() {
		metrics.ObserveNetworkRequest("openai", "chat_completions", req.Model, start, err)
		if err == nil && out.Usage != nil {
			metrics.ObserveLLMGeneration(req.Model, time.Since(start), out.Usage.PromptTokens, out.Usage.CompletionTokens, out.Usage.TotalTokens)
		}
	}()

	raw, err := c.post(ctx, "/chat/completions", req)
	if err != nil {
		return Completion{}, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Completion{}, fmt.Errorf("openai: decode response: %w", err)
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, in any) ([]byte, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("openai: read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeAPIError(resp.StatusCode, raw)
	}
	return raw, nil
}

func decodeAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		apiErr.Message = body.Error.Message
	}
	return apiErr
}
