package api

import (
	"log/slog"
	"net/http"
	"time"

	"catalog-service/internal/domain"
	"catalog-service/internal/service"
	"catalog-service/internal/store"
)

// CreateMovie обрабатывает запрос на создание нового фильма.
func (h *HTTPHandler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.InfoContext(ctx, "HTTP CreateMovie request received", slog.String("path", r.URL.Path))

	var req domain.CreateMovieRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	in := service.CreateMovieInput{
		Title:       req.Title,
		Genre:       domain.Genre(req.Genre),
		Description: req.Description,
		DirectorID:  domain.ID(req.DirectorID),
	}
	if req.ReleaseDate != "" {
		// формат уже проверен тегом datetime
		in.ReleaseDate, _ = time.Parse(dateLayout, req.ReleaseDate)
	}
	for _, id := range req.ActorIDs {
		in.ActorIDs = append(in.ActorIDs, domain.ID(id))
	}

	movie, err := h.movies.Create(ctx, in)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusCreated, toMovieResponse(movie))
}

// GetMovies возвращает фильмы с фильтрами title, director, actor, director_id, actor_id.
func (h *HTTPHandler) GetMovies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	h.logger.InfoContext(ctx, "GetMovies endpoint hit", slog.String("query", q.Encode()))

	filter := store.MovieFilter{
		TitleContains:        q.Get("title"),
		DirectorNameContains: q.Get("director"),
		ActorNameContains:    q.Get("actor"),
	}
	var err error
	if filter.DirectorID, err = queryID(r, "director_id"); err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if filter.ActorID, err = queryID(r, "actor_id"); err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	movies, err := h.movies.List(ctx, filter)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, toMovieResponses(movies))
}

func (h *HTTPHandler) GetMovieByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "movieId")
	if !ok {
		return
	}
	movie, err := h.movies.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, toMovieResponse(movie))
}

// UpdateMovie частично обновляет описательные поля фильма.
func (h *HTTPHandler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "movieId")
	if !ok {
		return
	}
	var req domain.UpdateMovieRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	info := domain.MovieInfo{Title: req.Title, Description: req.Description}
	if req.Genre != nil {
		g := domain.Genre(*req.Genre)
		info.Genre = &g
	}
	if req.ReleaseDate != nil {
		d, _ := time.Parse(dateLayout, *req.ReleaseDate)
		info.ReleaseDate = &d
	}

	movie, err := h.movies.UpdateInfo(r.Context(), id, info)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, toMovieResponse(movie))
}

func (h *HTTPHandler) ChangeMovieDirector(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "movieId")
	if !ok {
		return
	}
	var req domain.ChangeDirectorRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	movie, err := h.movies.ChangeDirector(r.Context(), id, domain.ID(req.DirectorID))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, toMovieResponse(movie))
}

func (h *HTTPHandler) AddMovieActor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "movieId")
	if !ok {
		return
	}
	actorID, ok := h.pathID(w, r, "actorId")
	if !ok {
		return
	}
	movie, err := h.movies.AddActor(r.Context(), id, actorID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, toMovieResponse(movie))
}

func (h *HTTPHandler) RemoveMovieActor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "movieId")
	if !ok {
		return
	}
	actorID, ok := h.pathID(w, r, "actorId")
	if !ok {
		return
	}
	movie, err := h.movies.RemoveActor(r.Context(), id, actorID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, toMovieResponse(movie))
}

// ChangeRatingPolicy переключает политику и запускает пересчет рейтинга.
func (h *HTTPHandler) ChangeRatingPolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "movieId")
	if !ok {
		return
	}
	var req domain.ChangeRatingPolicyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	movie, err := h.movies.ChangeRatingPolicy(r.Context(), id, domain.RatingPolicy(req.Policy))
	if !h.succeeded(w, r, err) {
		return
	}
	if reloaded, err := h.movies.Get(r.Context(), id); err == nil {
		movie = reloaded
	}
	h.respondJSON(w, r, http.StatusOK, toMovieResponse(movie))
}

func (h *HTTPHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "movieId")
	if !ok {
		return
	}
	if err := h.movies.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) GetMovieReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "movieId")
	if !ok {
		return
	}
	reviews, err := h.reviews.ListByMovie(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, toReviewResponses(reviews))
}
