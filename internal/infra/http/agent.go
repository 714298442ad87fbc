package http

import (
	"errors"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"bfflix-agent/internal/domain"
)

const (
	// UserIDHeader несёт идентификатор пользователя, проверенный на стороне шлюза.
	UserIDHeader = "X-User-ID"

	maxBodyBytes = 64 << 10
	agentFailed  = "agent_failed"
)

var validate = validator.New()

type recommendRequest struct {
	Query string `json:"query" validate:"required"`
}

// AgentHandler обслуживает эндпоинт рекомендаций.
type AgentHandler struct {
	svc domain.RecommendationService
	log zerolog.Logger
}

// NewAgentHandler создаёт обработчик поверх сервиса рекомендаций.
func NewAgentHandler(svc domain.RecommendationService, logger zerolog.Logger) *AgentHandler {
	return &AgentHandler{svc: svc, log: logger}
}

// Mount регистрирует маршруты агента.
func (h *AgentHandler) Mount(r chi.Router) {
	r.Post("/api/v1/agent/recommendations", h.recommend)
}

func (h *AgentHandler) recommend(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(UserIDHeader)
	if userID == "" {
		WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	defer r.Body.Close()
	var req recommendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "query is required")
		return
	}

	resp, err := h.svc.Recommend(r.Context(), domain.RecommendationRequest{UserID: userID, QueryText: req.Query})
	if err != nil {
		status := statusFor(err)
		h.log.Error().Err(err).
			Str("request_id", RequestID(r)).
			Str("user_id", userID).
			Int("status", status).
			Msg("agent: запрос не выполнен")
		if status == http.StatusBadRequest {
			WriteError(w, status, err.Error())
			return
		}
		WriteError(w, status, agentFailed)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery), errors.Is(err, domain.ErrEmptyUser):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrModelCallFailed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
