// internal/store/sql_review_store.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"catalog-service/internal/domain"
)

const reviewColumns = `id, content, rating, user_id, movie_id, created_at, updated_at`

type reviewRow struct {
	ID        int64     `db:"id"`
	Content   string    `db:"content"`
	Rating    int       `db:"rating"`
	UserID    int64     `db:"user_id"`
	MovieID   int64     `db:"movie_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r reviewRow) toDomain() *domain.Review {
	return domain.RestoreReview(domain.ReviewState{
		ID:        domain.ID(r.ID),
		Content:   r.Content,
		Stars:     r.Rating,
		UserID:    domain.ID(r.UserID),
		MovieID:   domain.ID(r.MovieID),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	})
}

// SQLReviewStore реализует ReviewStore.
type SQLReviewStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewSQLReviewStore создает новый экземпляр SQLReviewStore.
func NewSQLReviewStore(db *sqlx.DB, logger *slog.Logger) (*SQLReviewStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	return &SQLReviewStore{db: db, logger: logger}, nil
}

// Create сохраняет отзыв. Повторный отзыв той же пары (пользователь, фильм)
// отклоняется ограничением uq_user_movie_review.
func (s *SQLReviewStore) Create(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	st := review.State()
	now := time.Now().UTC()
	query := s.db.Rebind(`INSERT INTO reviews (content, rating, user_id, movie_id, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)

	s.logger.DebugContext(ctx, "Executing Create review query",
		slog.Int64("movieID", int64(st.MovieID)),
		slog.Int64("userID", int64(st.UserID)))

	var id int64
	err := s.db.QueryRowxContext(ctx, query,
		st.Content, st.Stars, int64(st.UserID), int64(st.MovieID), now, now,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err, "uq_user_movie_review") {
			s.logger.WarnContext(ctx, "User has already reviewed this movie (DB constraint)",
				slog.Int64("movieID", int64(st.MovieID)), slog.Int64("userID", int64(st.UserID)))
			return nil, ErrDuplicateReview
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("failed to create review: %w", domain.ErrNotFound)
		}
		s.logger.ErrorContext(ctx, "Failed to create review in DB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	s.logger.InfoContext(ctx, "Review created successfully in DB", slog.Int64("reviewID", id))
	return review.Persisted(domain.ID(id), now), nil
}

// GetByID находит отзыв по его ID.
func (s *SQLReviewStore) GetByID(ctx context.Context, id domain.ID) (*domain.Review, error) {
	var row reviewRow
	query := s.db.Rebind(`SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`)

	s.logger.DebugContext(ctx, "Executing GetReviewByID query", slog.Int64("reviewID", int64(id)))
	if err := s.db.GetContext(ctx, &row, query, int64(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.WarnContext(ctx, "Review not found by ID in DB", slog.Int64("reviewID", int64(id)))
			return nil, ErrReviewNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get review by ID from DB", slog.Int64("reviewID", int64(id)), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get review by ID: %w", err)
	}
	return row.toDomain(), nil
}

// Update перезаписывает текст и оценку отзыва и обновляет updated_at.
func (s *SQLReviewStore) Update(ctx context.Context, review *domain.Review) error {
	now := time.Now().UTC()
	query := s.db.Rebind(`UPDATE reviews SET content = ?, rating = ?, updated_at = ? WHERE id = ?`)

	s.logger.DebugContext(ctx, "Executing Update review query", slog.Int64("reviewID", int64(review.ID())))
	result, err := s.db.ExecContext(ctx, query, review.Content(), review.Stars(), now, int64(review.ID()))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update review in DB", slog.Int64("reviewID", int64(review.ID())), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update review: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check review update result: %w", err)
	}
	if rowsAffected == 0 {
		s.logger.WarnContext(ctx, "No review found to update", slog.Int64("reviewID", int64(review.ID())))
		return ErrReviewNotFound
	}
	review.Touch(now)
	s.logger.InfoContext(ctx, "Review updated successfully in DB", slog.Int64("reviewID", int64(review.ID())))
	return nil
}

// Delete удаляет отзыв.
func (s *SQLReviewStore) Delete(ctx context.Context, id domain.ID) error {
	query := s.db.Rebind(`DELETE FROM reviews WHERE id = ?`)

	s.logger.DebugContext(ctx, "Executing Delete review query", slog.Int64("reviewID", int64(id)))
	result, err := s.db.ExecContext(ctx, query, int64(id))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete review from DB", slog.Int64("reviewID", int64(id)), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete review: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check review delete result: %w", err)
	}
	if rowsAffected == 0 {
		s.logger.WarnContext(ctx, "No review found to delete", slog.Int64("reviewID", int64(id)))
		return ErrReviewNotFound
	}
	s.logger.InfoContext(ctx, "Review deleted successfully from DB", slog.Int64("reviewID", int64(id)))
	return nil
}

// ListByMovie получает все отзывы для указанного фильма, новые первыми.
func (s *SQLReviewStore) ListByMovie(ctx context.Context, movieID domain.ID) ([]*domain.Review, error) {
	s.logger.DebugContext(ctx, "Executing ListReviewsByMovie query", slog.Int64("movieID", int64(movieID)))
	return s.list(ctx, "movie_id", int64(movieID))
}

// ListByUser получает все отзывы, оставленные пользователем, новые первыми.
func (s *SQLReviewStore) ListByUser(ctx context.Context, userID domain.ID) ([]*domain.Review, error) {
	s.logger.DebugContext(ctx, "Executing ListReviewsByUser query", slog.Int64("userID", int64(userID)))
	return s.list(ctx, "user_id", int64(userID))
}

func (s *SQLReviewStore) list(ctx context.Context, column string, value int64) ([]*domain.Review, error) {
	var rows []reviewRow
	query := s.db.Rebind(`SELECT ` + reviewColumns + ` FROM reviews WHERE ` + column + ` = ? ORDER BY created_at DESC, id DESC`)
	if err := s.db.SelectContext(ctx, &rows, query, value); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list reviews from DB", slog.String("by", column), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list reviews by %s: %w", column, err)
	}
	reviews := make([]*domain.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, row.toDomain())
	}
	return reviews, nil
}

func (s *SQLReviewStore) ExistsByUserAndMovie(ctx context.Context, userID, movieID domain.ID) (bool, error) {
	var count int
	query := s.db.Rebind(`SELECT COUNT(*) FROM reviews WHERE user_id = ? AND movie_id = ?`)
	if err := s.db.GetContext(ctx, &count, query, int64(userID), int64(movieID)); err != nil {
		return false, fmt.Errorf("failed to check review existence: %w", err)
	}
	return count > 0, nil
}

// StarHistogram считает отзывы фильма по каждой оценке.
func (s *SQLReviewStore) StarHistogram(ctx context.Context, movieID domain.ID) (domain.StarHistogram, error) {
	var buckets []struct {
		Stars int   `db:"stars"`
		Count int64 `db:"cnt"`
	}
	query := s.db.Rebind(`SELECT rating AS stars, COUNT(*) AS cnt FROM reviews WHERE movie_id = ? GROUP BY rating`)

	s.logger.DebugContext(ctx, "Executing StarHistogram query", slog.Int64("movieID", int64(movieID)))
	if err := s.db.SelectContext(ctx, &buckets, query, int64(movieID)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to get star histogram from DB", slog.Int64("movieID", int64(movieID)), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get star histogram for movie %d: %w", movieID, err)
	}
	h := make(domain.StarHistogram, len(buckets))
	for _, b := range buckets {
		h[b.Stars] = b.Count
	}
	return h, nil
}

// SQLUserStore реализует UserStore.
type SQLUserStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewSQLUserStore(db *sqlx.DB, logger *slog.Logger) (*SQLUserStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	return &SQLUserStore{db: db, logger: logger}, nil
}

// Create создает нового пользователя. Занятое имя - ErrUsernameTaken.
func (s *SQLUserStore) Create(ctx context.Context, user domain.User) (domain.User, error) {
	var id int64
	query := s.db.Rebind(`INSERT INTO users (username) VALUES (?) RETURNING id`)

	s.logger.DebugContext(ctx, "Executing Create user query", slog.String("username", user.Username()))
	if err := s.db.QueryRowxContext(ctx, query, user.Username()).Scan(&id); err != nil {
		if isUniqueViolation(err, "") {
			s.logger.WarnContext(ctx, "User already exists (unique constraint violation in DB)", slog.String("username", user.Username()))
			return domain.User{}, ErrUsernameTaken
		}
		s.logger.ErrorContext(ctx, "Failed to create user in DB", slog.String("error", err.Error()))
		return domain.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.InfoContext(ctx, "User created successfully in DB", slog.Int64("userID", id))
	return user.Persisted(domain.ID(id)), nil
}

func (s *SQLUserStore) GetByID(ctx context.Context, id domain.ID) (domain.User, error) {
	var row struct {
		ID       int64  `db:"id"`
		Username string `db:"username"`
	}
	query := s.db.Rebind(`SELECT id, username FROM users WHERE id = ?`)
	if err := s.db.GetContext(ctx, &row, query, int64(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.WarnContext(ctx, "User not found by ID in DB", slog.Int64("userID", int64(id)))
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return domain.RestoreUser(domain.ID(row.ID), row.Username), nil
}
