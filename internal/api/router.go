// internal/api/router.go
package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter настраивает маршруты каталога. Чтение открыто, любые изменения
// требуют токена. metrics может быть nil.
func NewRouter(handler *HTTPHandler, metrics http.Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(handler.RequestLogger)

	if metrics != nil {
		router.Handle("/metrics", metrics).Methods(http.MethodGet)
	}

	apiRouter := router.PathPrefix("/api").Subrouter()

	// Публичные эндпоинты
	apiRouter.HandleFunc("/users", handler.CreateUser).Methods(http.MethodPost)
	apiRouter.HandleFunc("/users/{userId}", handler.GetUserByID).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/{userId}/reviews", handler.GetUserReviews).Methods(http.MethodGet)

	apiRouter.HandleFunc("/movies", handler.GetMovies).Methods(http.MethodGet)
	apiRouter.HandleFunc("/movies/{movieId}", handler.GetMovieByID).Methods(http.MethodGet)
	apiRouter.HandleFunc("/movies/{movieId}/reviews", handler.GetMovieReviews).Methods(http.MethodGet)

	apiRouter.HandleFunc("/actors", handler.GetActors).Methods(http.MethodGet)
	apiRouter.HandleFunc("/actors/{actorId}", handler.GetActorByID).Methods(http.MethodGet)
	apiRouter.HandleFunc("/directors", handler.GetDirectors).Methods(http.MethodGet)
	apiRouter.HandleFunc("/directors/{directorId}", handler.GetDirectorByID).Methods(http.MethodGet)
	apiRouter.HandleFunc("/reviews/{reviewId}", handler.GetReviewByID).Methods(http.MethodGet)

	// Эндпоинты, требующие аутентификации
	protected := apiRouter.NewRoute().Subrouter()
	protected.Use(handler.AuthMiddleware)

	protected.HandleFunc("/movies", handler.CreateMovie).Methods(http.MethodPost)
	protected.HandleFunc("/movies/{movieId}", handler.UpdateMovie).Methods(http.MethodPatch)
	protected.HandleFunc("/movies/{movieId}", handler.DeleteMovie).Methods(http.MethodDelete)
	protected.HandleFunc("/movies/{movieId}/director", handler.ChangeMovieDirector).Methods(http.MethodPut)
	protected.HandleFunc("/movies/{movieId}/rating-policy", handler.ChangeRatingPolicy).Methods(http.MethodPut)
	protected.HandleFunc("/movies/{movieId}/actors/{actorId}", handler.AddMovieActor).Methods(http.MethodPut)
	protected.HandleFunc("/movies/{movieId}/actors/{actorId}", handler.RemoveMovieActor).Methods(http.MethodDelete)

	protected.HandleFunc("/actors", handler.CreateActor).Methods(http.MethodPost)
	protected.HandleFunc("/actors/{actorId}", handler.RenameActor).Methods(http.MethodPut)
	protected.HandleFunc("/actors/{actorId}", handler.DeleteActor).Methods(http.MethodDelete)
	protected.HandleFunc("/directors", handler.CreateDirector).Methods(http.MethodPost)
	protected.HandleFunc("/directors/{directorId}", handler.RenameDirector).Methods(http.MethodPut)
	protected.HandleFunc("/directors/{directorId}", handler.DeleteDirector).Methods(http.MethodDelete)

	protected.HandleFunc("/reviews", handler.CreateReview).Methods(http.MethodPost)
	protected.HandleFunc("/reviews/{reviewId}", handler.UpdateReview).Methods(http.MethodPut)
	protected.HandleFunc("/reviews/{reviewId}", handler.DeleteReview).Methods(http.MethodDelete)

	return router
}
