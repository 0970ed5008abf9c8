package service

import (
	"context"
	"log/slog"
	"time"

	"catalog-service/internal/domain"
	"catalog-service/internal/rating"
	"catalog-service/internal/store"
)

type CreateMovieInput struct {
	Title       string
	Genre       domain.Genre
	ReleaseDate time.Time
	Description string
	DirectorID  domain.ID
	ActorIDs    []domain.ID
}

// MovieService - операции над агрегатом фильма: загрузить, изменить, сохранить.
type MovieService struct {
	movies    store.MovieStore
	actors    store.ActorStore
	directors store.DirectorStore
	notifier  rating.Notifier
	logger    *slog.Logger
}

func NewMovieService(movies store.MovieStore, actors store.ActorStore, directors store.DirectorStore, notifier rating.Notifier, logger *slog.Logger) *MovieService {
	return &MovieService{movies: movies, actors: actors, directors: directors, notifier: notifier, logger: logger}
}

func (s *MovieService) Create(ctx context.Context, in CreateMovieInput) (*domain.Movie, error) {
	director, err := s.directors.GetByID(ctx, in.DirectorID)
	if err != nil {
		return nil, err
	}
	actors, err := s.actors.GetByIDs(ctx, in.ActorIDs)
	if err != nil {
		return nil, err
	}
	movie, err := domain.NewMovie(in.Title, director, in.Genre, in.ReleaseDate, in.Description, actors)
	if err != nil {
		return nil, err
	}
	created, err := s.movies.Create(ctx, movie)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Movie created", slog.Int64("movieID", int64(created.ID())), slog.String("title", created.Title()))
	return created, nil
}

func (s *MovieService) Get(ctx context.Context, id domain.ID) (*domain.Movie, error) {
	return s.movies.GetByID(ctx, id)
}

func (s *MovieService) List(ctx context.Context, filter store.MovieFilter) ([]*domain.Movie, error) {
	return s.movies.List(ctx, filter)
}

// UpdateInfo меняет описательные поля. Пустое название и nil-поля не меняются.
func (s *MovieService) UpdateInfo(ctx context.Context, id domain.ID, info domain.MovieInfo) (*domain.Movie, error) {
	return s.mutate(ctx, id, func(m *domain.Movie) error { return m.UpdateInfo(info) })
}

func (s *MovieService) ChangeDirector(ctx context.Context, id, directorID domain.ID) (*domain.Movie, error) {
	director, err := s.directors.GetByID(ctx, directorID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(m *domain.Movie) error { return m.ChangeDirector(director) })
}

// AddActor идемпотентен: повторное добавление ничего не меняет.
func (s *MovieService) AddActor(ctx context.Context, id, actorID domain.ID) (*domain.Movie, error) {
	actor, err := s.actors.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(m *domain.Movie) error { return m.AddActor(actor) })
}

func (s *MovieService) RemoveActor(ctx context.Context, id, actorID domain.ID) (*domain.Movie, error) {
	return s.mutate(ctx, id, func(m *domain.Movie) error {
		return m.RemoveActor(domain.RestoreActor(actorID, ""))
	})
}

// ChangeRatingPolicy сохраняет новую политику и запрашивает пересчет рейтинга.
func (s *MovieService) ChangeRatingPolicy(ctx context.Context, id domain.ID, policy domain.RatingPolicy) (*domain.Movie, error) {
	movie, err := s.mutate(ctx, id, func(m *domain.Movie) error { return m.ChangeRatingPolicy(policy) })
	if err != nil {
		return nil, err
	}
	return movie, notify(ctx, s.notifier, s.logger, id)
}

// Delete удаляет фильм вместе со связями и отзывами.
func (s *MovieService) Delete(ctx context.Context, id domain.ID) error {
	if err := s.movies.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Movie deleted", slog.Int64("movieID", int64(id)))
	return nil
}

func (s *MovieService) mutate(ctx context.Context, id domain.ID, apply func(*domain.Movie) error) (*domain.Movie, error) {
	movie, err := s.movies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(movie); err != nil {
		return nil, err
	}
	if err := s.movies.Update(ctx, movie); err != nil {
		return nil, err
	}
	return movie, nil
}
