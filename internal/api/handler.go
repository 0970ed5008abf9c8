// internal/api/handler.go
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"catalog-service/internal/domain"
	"catalog-service/internal/service"
	"catalog-service/pkg/auth"
)

// HTTPHandler содержит зависимости для HTTP обработчиков каталога.
type HTTPHandler struct {
	movies       *service.MovieService
	people       *service.PeopleService
	reviews      *service.ReviewService
	users        *service.UserService
	tokenManager auth.TokenManager
	logger       *slog.Logger
	validator    *validator.Validate
}

// Services - набор сервисов, которые обслуживает HTTP API.
type Services struct {
	Movies  *service.MovieService
	People  *service.PeopleService
	Reviews *service.ReviewService
	Users   *service.UserService
}

// NewHTTPHandler создает новый экземпляр HTTPHandler.
func NewHTTPHandler(s Services, tm auth.TokenManager, l *slog.Logger, v *validator.Validate) *HTTPHandler {
	return &HTTPHandler{
		movies:       s.Movies,
		people:       s.People,
		reviews:      s.Reviews,
		users:        s.Users,
		tokenManager: tm,
		logger:       l,
		validator:    v,
	}
}

// --- Вспомогательные функции ---
func (h *HTTPHandler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.ErrorContext(r.Context(), "Failed to encode JSON response", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		}
	}
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.respondJSON(w, r, status, map[string]string{"error": message})
}

// respondServiceError переводит категорию ошибки в HTTP-статус.
func (h *HTTPHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		h.respondError(w, r, status, "Internal server error")
		return
	}
	h.logger.WarnContext(r.Context(), "Request rejected", slog.String("path", r.URL.Path), slog.Int("status", status), slog.String("error", err.Error()))
	h.respondError(w, r, status, err.Error())
}

// succeeded возвращает true, если изменение сохранено. Недоставленный сигнал
// рейтинга не считается ошибкой запроса: он только логируется.
func (h *HTTPHandler) succeeded(w http.ResponseWriter, r *http.Request, err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, service.ErrSignalNotDelivered) {
		h.logger.WarnContext(r.Context(), "Change saved without rating recompute", slog.String("error", err.Error()))
		return true
	}
	h.respondServiceError(w, r, err)
	return false
}

// decodeAndValidate читает тело запроса в req и проверяет теги validate.
func (h *HTTPHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	ctx := r.Context()
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		h.logger.WarnContext(ctx, "Failed to decode request body", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.logger.WarnContext(ctx, "Request validation failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

// pathID достает положительный идентификатор из переменной маршрута.
func (h *HTTPHandler) pathID(w http.ResponseWriter, r *http.Request, name string) (domain.ID, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.respondError(w, r, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return domain.ID(id), true
}

func queryID(r *http.Request, name string) (domain.ID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return domain.ID(id), nil
}
