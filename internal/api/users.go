package api

import (
	"log/slog"
	"net/http"

	"catalog-service/internal/domain"
)

// CreateUser регистрирует пользователя и сразу выдает ему токен.
func (h *HTTPHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req domain.CreateUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Create(ctx, req.Username)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	token, err := h.tokenManager.Generate(int64(user.ID()))
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to generate token", slog.Int64("userID", int64(user.ID())), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	h.respondJSON(w, r, http.StatusCreated, createUserResponse{
		User:  userResponse{ID: int64(user.ID()), Username: user.Username()},
		Token: token,
	})
}

func (h *HTTPHandler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "userId")
	if !ok {
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, userResponse{ID: int64(user.ID()), Username: user.Username()})
}

func (h *HTTPHandler) GetUserReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "userId")
	if !ok {
		return
	}
	reviews, err := h.reviews.ListByUser(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, toReviewResponses(reviews))
}
