package service

import (
	"context"
	"log/slog"

	"catalog-service/internal/domain"
	"catalog-service/internal/store"
)

// PeopleService - справочники актеров и режиссеров.
type PeopleService struct {
	actors    store.ActorStore
	directors store.DirectorStore
	movies    store.MovieStore
	logger    *slog.Logger
}

func NewPeopleService(actors store.ActorStore, directors store.DirectorStore, movies store.MovieStore, logger *slog.Logger) *PeopleService {
	return &PeopleService{actors: actors, directors: directors, movies: movies, logger: logger}
}

func (s *PeopleService) CreateActor(ctx context.Context, name string) (domain.Actor, error) {
	actor, err := domain.NewActor(name)
	if err != nil {
		return domain.Actor{}, err
	}
	return s.actors.Create(ctx, actor)
}

func (s *PeopleService) GetActor(ctx context.Context, id domain.ID) (domain.Actor, error) {
	return s.actors.GetByID(ctx, id)
}

func (s *PeopleService) ListActors(ctx context.Context, nameContains string) ([]domain.Actor, error) {
	return s.actors.List(ctx, nameContains)
}

func (s *PeopleService) RenameActor(ctx context.Context, id domain.ID, name string) (domain.Actor, error) {
	actor, err := s.actors.GetByID(ctx, id)
	if err != nil {
		return domain.Actor{}, err
	}
	renamed, err := actor.Rename(name)
	if err != nil {
		return domain.Actor{}, err
	}
	if err := s.actors.Update(ctx, renamed); err != nil {
		return domain.Actor{}, err
	}
	return renamed, nil
}

// DeleteActor убирает актера из всех фильмов.
func (s *PeopleService) DeleteActor(ctx context.Context, id domain.ID) error {
	if err := s.actors.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Actor deleted", slog.Int64("actorID", int64(id)))
	return nil
}

func (s *PeopleService) CreateDirector(ctx context.Context, name string) (domain.Director, error) {
	director, err := domain.NewDirector(name)
	if err != nil {
		return domain.Director{}, err
	}
	return s.directors.Create(ctx, director)
}

func (s *PeopleService) GetDirector(ctx context.Context, id domain.ID) (domain.Director, error) {
	return s.directors.GetByID(ctx, id)
}

func (s *PeopleService) ListDirectors(ctx context.Context, nameContains string) ([]domain.Director, error) {
	return s.directors.List(ctx, nameContains)
}

func (s *PeopleService) RenameDirector(ctx context.Context, id domain.ID, name string) (domain.Director, error) {
	director, err := s.directors.GetByID(ctx, id)
	if err != nil {
		return domain.Director{}, err
	}
	renamed, err := director.Rename(name)
	if err != nil {
		return domain.Director{}, err
	}
	if err := s.directors.Update(ctx, renamed); err != nil {
		return domain.Director{}, err
	}
	return renamed, nil
}

// DeleteDirector отказывает, пока у режиссера есть фильмы.
func (s *PeopleService) DeleteDirector(ctx context.Context, id domain.ID) error {
	if _, err := s.directors.GetByID(ctx, id); err != nil {
		return err
	}
	count, err := s.movies.CountByDirector(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		s.logger.WarnContext(ctx, "Refusing to delete director with movies", slog.Int64("directorID", int64(id)), slog.Int("movies", count))
		return store.ErrDirectorInUse
	}
	return s.directors.Delete(ctx, id)
}
