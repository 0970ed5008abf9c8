package api

import (
	"log/slog"
	"net/http"

	"catalog-service/internal/domain"
	"catalog-service/internal/service"
)

// CreateReview создает отзыв от имени пользователя из токена.
func (h *HTTPHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req domain.CreateReviewRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	h.logger.InfoContext(ctx, "HTTP CreateReview request received", slog.Int64("movieID", req.MovieID), slog.Int64("userID", int64(userID)))
	review, err := h.reviews.Create(ctx, userID, service.CreateReviewInput{
		MovieID: domain.ID(req.MovieID),
		Stars:   req.Rating,
		Content: req.Content,
	})
	if !h.succeeded(w, r, err) {
		return
	}
	h.respondJSON(w, r, http.StatusCreated, toReviewResponse(review))
}

func (h *HTTPHandler) GetReviewByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "reviewId")
	if !ok {
		return
	}
	review, err := h.reviews.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, toReviewResponse(review))
}

// UpdateReview доступен только автору отзыва.
func (h *HTTPHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "reviewId")
	if !ok {
		return
	}
	var req domain.UpdateReviewRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	review, err := h.reviews.Update(r.Context(), userID, id, req.Content, req.Rating)
	if !h.succeeded(w, r, err) {
		return
	}
	h.respondJSON(w, r, http.StatusOK, toReviewResponse(review))
}

// DeleteReview доступен только автору отзыва.
func (h *HTTPHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "reviewId")
	if !ok {
		return
	}
	if !h.succeeded(w, r, h.reviews.Delete(r.Context(), userID, id)) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
