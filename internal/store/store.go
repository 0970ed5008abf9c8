// internal/store/store.go
package store

import (
	"context"
	"fmt"

	"catalog-service/internal/domain"
)

var (
	ErrMovieNotFound    = fmt.Errorf("movie %w", domain.ErrNotFound)
	ErrActorNotFound    = fmt.Errorf("actor %w", domain.ErrNotFound)
	ErrDirectorNotFound = fmt.Errorf("director %w", domain.ErrNotFound)
	ErrReviewNotFound   = fmt.Errorf("review %w", domain.ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", domain.ErrNotFound)

	ErrDuplicateReview = fmt.Errorf("user has already reviewed this movie: %w", domain.ErrConflict)
	ErrUsernameTaken   = fmt.Errorf("username is already taken: %w", domain.ErrConflict)
	ErrDirectorInUse   = fmt.Errorf("director still has movies: %w", domain.ErrConflict)
)

// MovieFilter задает условия выборки фильмов. Пустые поля не фильтруют,
// заданные объединяются через AND. Поиск по подстроке регистронезависимый.
type MovieFilter struct {
	DirectorID           domain.ID
	ActorID              domain.ID
	TitleContains        string
	DirectorNameContains string
	ActorNameContains    string
}

// MovieStore хранит агрегаты фильмов вместе со связями фильм-актер.
// Любая выборка нескольких фильмов с актерами выполняется одним запросом.
type MovieStore interface {
	Create(ctx context.Context, movie *domain.Movie) (*domain.Movie, error)
	GetByID(ctx context.Context, id domain.ID) (*domain.Movie, error)
	List(ctx context.Context, filter MovieFilter) ([]*domain.Movie, error)
	// Update перезаписывает поля фильма и полностью заменяет список актеров.
	// Рейтинг не трогает - для него есть UpdateRating.
	Update(ctx context.Context, movie *domain.Movie) error
	UpdateRating(ctx context.Context, movie *domain.Movie) error
	// Delete удаляет фильм вместе со связями и отзывами.
	Delete(ctx context.Context, id domain.ID) error
	CountByDirector(ctx context.Context, directorID domain.ID) (int, error)
}

type ActorStore interface {
	Create(ctx context.Context, actor domain.Actor) (domain.Actor, error)
	GetByID(ctx context.Context, id domain.ID) (domain.Actor, error)
	// GetByIDs возвращает актеров в порядке ids. Если хоть одного нет - ErrActorNotFound.
	GetByIDs(ctx context.Context, ids []domain.ID) ([]domain.Actor, error)
	List(ctx context.Context, nameContains string) ([]domain.Actor, error)
	Update(ctx context.Context, actor domain.Actor) error
	// Delete удаляет актера и все его связи с фильмами.
	Delete(ctx context.Context, id domain.ID) error
}

type DirectorStore interface {
	Create(ctx context.Context, director domain.Director) (domain.Director, error)
	GetByID(ctx context.Context, id domain.ID) (domain.Director, error)
	List(ctx context.Context, nameContains string) ([]domain.Director, error)
	Update(ctx context.Context, director domain.Director) error
	Delete(ctx context.Context, id domain.ID) error
}

type ReviewStore interface {
	Create(ctx context.Context, review *domain.Review) (*domain.Review, error)
	GetByID(ctx context.Context, id domain.ID) (*domain.Review, error)
	Update(ctx context.Context, review *domain.Review) error
	Delete(ctx context.Context, id domain.ID) error
	ListByMovie(ctx context.Context, movieID domain.ID) ([]*domain.Review, error)
	ListByUser(ctx context.Context, userID domain.ID) ([]*domain.Review, error)
	ExistsByUserAndMovie(ctx context.Context, userID, movieID domain.ID) (bool, error)
	// StarHistogram возвращает распределение оценок фильма.
	StarHistogram(ctx context.Context, movieID domain.ID) (domain.StarHistogram, error)
}

type UserStore interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByID(ctx context.Context, id domain.ID) (domain.User, error)
}
