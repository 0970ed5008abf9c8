package rating

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"catalog-service/internal/domain"
	"catalog-service/internal/store"
)

// Coordinator пересчитывает рейтинг фильма по сигналу: загрузить фильм,
// посчитать рейтинг его политикой по всем текущим отзывам, применить
// через Movie.UpdateRating и сохранить отдельной операцией хранилища.
// Пересчет всегда полный, поэтому повторный сигнал дает тот же результат.
type Coordinator struct {
	movies  store.MovieStore
	reviews store.ReviewStore
	metrics *Metrics
	logger  *slog.Logger
}

func NewCoordinator(movies store.MovieStore, reviews store.ReviewStore, metrics *Metrics, logger *slog.Logger) *Coordinator {
	return &Coordinator{movies: movies, reviews: reviews, metrics: metrics, logger: logger}
}

// Handle применяет сигнал. Сигнал для удаленного фильма пропускается без ошибки.
func (c *Coordinator) Handle(ctx context.Context, sig Signal) error {
	started := time.Now()
	log := c.logger.With(slog.String("eventID", sig.EventID.String()), slog.Int64("movieID", int64(sig.MovieID)))

	movie, err := c.movies.GetByID(ctx, sig.MovieID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.WarnContext(ctx, "Skipping rating signal for missing movie")
			c.metrics.observe(outcomeSkipped, started)
			return nil
		}
		c.metrics.observe(outcomeFailed, started)
		return fmt.Errorf("failed to load movie %d for rating recompute: %w", sig.MovieID, err)
	}

	histogram, err := c.reviews.StarHistogram(ctx, sig.MovieID)
	if err != nil {
		c.metrics.observe(outcomeFailed, started)
		return fmt.Errorf("failed to load reviews of movie %d: %w", sig.MovieID, err)
	}

	value, err := movie.RatingPolicy().Calculate(histogram)
	if err != nil {
		c.metrics.observe(outcomeFailed, started)
		return err
	}
	previous := movie.Rating()
	if err := movie.UpdateRating(value); err != nil {
		c.metrics.observe(outcomeFailed, started)
		return err
	}
	if err := c.movies.UpdateRating(ctx, movie); err != nil {
		c.metrics.observe(outcomeFailed, started)
		return fmt.Errorf("failed to persist rating of movie %d: %w", sig.MovieID, err)
	}

	c.metrics.observe(outcomeApplied, started)
	log.InfoContext(ctx, "Movie rating recomputed",
		slog.String("policy", string(movie.RatingPolicy())),
		slog.Int64("reviews", histogram.Total()),
		slog.Float64("previous", previous),
		slog.Float64("rating", value))
	return nil
}
