// Package service связывает хранилища каталога, доменные операции и
// пересчет рейтинга. HTTP-обработчики работают только через него.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"catalog-service/internal/domain"
	"catalog-service/internal/rating"
	"catalog-service/internal/store"
)

var (
	ErrNotReviewOwner = fmt.Errorf("review belongs to another user: %w", domain.ErrForbidden)

	// ErrSignalNotDelivered означает, что изменение сохранено, но сигнал
	// пересчета рейтинга не доставлен.
	ErrSignalNotDelivered = errors.New("rating signal not delivered")
)

type CreateReviewInput struct {
	MovieID domain.ID
	Stars   int
	Content string
}

// ReviewService выполняет изменения отзывов и после каждого успешного
// изменения отправляет сигнал пересчета рейтинга фильма.
type ReviewService struct {
	reviews  store.ReviewStore
	movies   store.MovieStore
	users    store.UserStore
	notifier rating.Notifier
	logger   *slog.Logger
}

func NewReviewService(reviews store.ReviewStore, movies store.MovieStore, users store.UserStore, notifier rating.Notifier, logger *slog.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, movies: movies, users: users, notifier: notifier, logger: logger}
}

// Create отклоняет второй отзыв той же пары (пользователь, фильм) до того,
// как что-либо сохранено, и в этом случае сигнала нет.
func (s *ReviewService) Create(ctx context.Context, userID domain.ID, in CreateReviewInput) (*domain.Review, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	movie, err := s.movies.GetByID(ctx, in.MovieID)
	if err != nil {
		return nil, err
	}

	exists, err := s.reviews.ExistsByUserAndMovie(ctx, user.ID(), movie.ID())
	if err != nil {
		return nil, err
	}
	if exists {
		s.logger.WarnContext(ctx, "User has already reviewed this movie", slog.Int64("userID", int64(user.ID())), slog.Int64("movieID", int64(movie.ID())))
		return nil, store.ErrDuplicateReview
	}

	review, err := domain.NewReview(in.Content, in.Stars, user, movie)
	if err != nil {
		return nil, err
	}
	created, err := s.reviews.Create(ctx, review)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Review created", slog.Int64("reviewID", int64(created.ID())), slog.Int64("movieID", int64(movie.ID())))
	return created, s.signal(ctx, movie.ID())
}

func (s *ReviewService) Get(ctx context.Context, id domain.ID) (*domain.Review, error) {
	return s.reviews.GetByID(ctx, id)
}

// Update: существование, затем владелец, затем изменение и сигнал.
func (s *ReviewService) Update(ctx context.Context, actorID, reviewID domain.ID, content string, stars int) (*domain.Review, error) {
	review, err := s.owned(ctx, actorID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := review.Update(content, stars); err != nil {
		return nil, err
	}
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Review updated", slog.Int64("reviewID", int64(review.ID())))
	return review, s.signal(ctx, review.MovieID())
}

// Delete запоминает фильм отзыва до удаления, сигнал уходит по нему.
func (s *ReviewService) Delete(ctx context.Context, actorID, reviewID domain.ID) error {
	review, err := s.owned(ctx, actorID, reviewID)
	if err != nil {
		return err
	}
	movieID := review.MovieID()
	if err := s.reviews.Delete(ctx, review.ID()); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Review deleted", slog.Int64("reviewID", int64(reviewID)), slog.Int64("movieID", int64(movieID)))
	return s.signal(ctx, movieID)
}

func (s *ReviewService) ListByMovie(ctx context.Context, movieID domain.ID) ([]*domain.Review, error) {
	if _, err := s.movies.GetByID(ctx, movieID); err != nil {
		return nil, err
	}
	return s.reviews.ListByMovie(ctx, movieID)
}

func (s *ReviewService) ListByUser(ctx context.Context, userID domain.ID) ([]*domain.Review, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.reviews.ListByUser(ctx, userID)
}

func (s *ReviewService) owned(ctx context.Context, actorID, reviewID domain.ID) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if !review.IsOwnedBy(actorID) {
		s.logger.WarnContext(ctx, "User is not the review owner", slog.Int64("reviewID", int64(reviewID)), slog.Int64("userID", int64(actorID)))
		return nil, ErrNotReviewOwner
	}
	return review, nil
}

// signal отправляет сигнал пересчета. Изменение к этому моменту уже сохранено
// и не откатывается, ошибка доставки оборачивается в ErrSignalNotDelivered.
func (s *ReviewService) signal(ctx context.Context, movieID domain.ID) error {
	return notify(ctx, s.notifier, s.logger, movieID)
}

func notify(ctx context.Context, n rating.Notifier, logger *slog.Logger, movieID domain.ID) error {
	sig := rating.NewSignal(movieID)
	if err := n.Notify(ctx, sig); err != nil {
		logger.ErrorContext(ctx, "Failed to deliver rating signal",
			slog.String("eventID", sig.EventID.String()),
			slog.Int64("movieID", int64(movieID)),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: movie %d: %w", ErrSignalNotDelivered, movieID, err)
	}
	return nil
}
