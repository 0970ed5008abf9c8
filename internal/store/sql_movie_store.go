// internal/store/sql_movie_store.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"catalog-service/internal/domain"
)

// Один запрос на всю выборку: фильм, режиссер и все актеры фильма.
// Фильтры по актерам накладываются через подзапрос, чтобы не обрезать
// список актеров у найденных фильмов.
const movieSelect = `SELECT m.id, m.title, m.genre, m.release_date, m.description, m.rating, m.rating_policy,
       d.id AS director_id, d.name AS director_name,
       a.id AS actor_id, a.name AS actor_name
FROM movies m
JOIN directors d ON d.id = m.director_id
LEFT JOIN movie_actor ma ON ma.movie_id = m.id
LEFT JOIN actors a ON a.id = ma.actor_id`

const movieOrder = ` ORDER BY m.id, a.id`

// SQLMovieStore реализует MovieStore поверх sqlx. Работает с Postgres и SQLite.
type SQLMovieStore struct {
	db     *sqlx.DB
	reader sqlx.QueryerContext
	links  *LinkWriter
	logger *slog.Logger
}

// NewSQLMovieStore создает новый экземпляр SQLMovieStore.
func NewSQLMovieStore(db *sqlx.DB, logger *slog.Logger) (*SQLMovieStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	return &SQLMovieStore{db: db, reader: db, links: NewLinkWriter(logger), logger: logger}, nil
}

// Create сохраняет фильм и его связи с актерами в одной транзакции.
func (s *SQLMovieStore) Create(ctx context.Context, movie *domain.Movie) (*domain.Movie, error) {
	st := movie.State()
	query := s.db.Rebind(`INSERT INTO movies (title, director_id, genre, release_date, description, rating, rating_policy)
              VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)

	s.logger.DebugContext(ctx, "Executing Create movie query", slog.String("title", st.Title), slog.Int("actors", len(st.Actors)))
	var id int64
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := tx.QueryRowxContext(ctx, query,
			st.Title, int64(st.Director.ID()), string(st.Genre), nullableDate(st),
			st.Description, st.Rating, string(st.RatingPolicy),
		).Scan(&id); err != nil {
			if isForeignKeyViolation(err) {
				return ErrDirectorNotFound
			}
			return fmt.Errorf("failed to insert movie: %w", err)
		}
		return s.links.Insert(ctx, tx, domain.ID(id), movie.ActorIDs())
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create movie in DB", slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.InfoContext(ctx, "Movie created successfully in DB", slog.Int64("movieID", id))
	return movie.Persisted(domain.ID(id)), nil
}

// GetByID загружает агрегат тем же соединенным запросом, что и List.
func (s *SQLMovieStore) GetByID(ctx context.Context, id domain.ID) (*domain.Movie, error) {
	s.logger.DebugContext(ctx, "Executing GetMovieByID query", slog.Int64("movieID", int64(id)))
	movies, err := s.selectMovies(ctx, []string{"m.id = ?"}, []interface{}{int64(id)})
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		s.logger.WarnContext(ctx, "Movie not found by ID in DB", slog.Int64("movieID", int64(id)))
		return nil, ErrMovieNotFound
	}
	return movies[0], nil
}

// List возвращает фильмы, подходящие под фильтр, упорядоченные по id.
func (s *SQLMovieStore) List(ctx context.Context, filter MovieFilter) ([]*domain.Movie, error) {
	var conditions []string
	var args []interface{}

	if filter.DirectorID.Assigned() {
		conditions = append(conditions, "m.director_id = ?")
		args = append(args, int64(filter.DirectorID))
	}
	if filter.TitleContains != "" {
		conditions = append(conditions, "LOWER(m.title) LIKE ?")
		args = append(args, likePattern(filter.TitleContains))
	}
	if filter.DirectorNameContains != "" {
		conditions = append(conditions, "LOWER(d.name) LIKE ?")
		args = append(args, likePattern(filter.DirectorNameContains))
	}
	if filter.ActorID.Assigned() {
		conditions = append(conditions, "m.id IN (SELECT movie_id FROM movie_actor WHERE actor_id = ?)")
		args = append(args, int64(filter.ActorID))
	}
	if filter.ActorNameContains != "" {
		conditions = append(conditions, `m.id IN (SELECT fma.movie_id FROM movie_actor fma
              JOIN actors fa ON fa.id = fma.actor_id WHERE LOWER(fa.name) LIKE ?)`)
		args = append(args, likePattern(filter.ActorNameContains))
	}

	s.logger.DebugContext(ctx, "Executing List movies query", slog.Int("conditions", len(conditions)))
	return s.selectMovies(ctx, conditions, args)
}

// selectMovies выполняет соединенный запрос и сворачивает строки по мере чтения.
func (s *SQLMovieStore) selectMovies(ctx context.Context, conditions []string, args []interface{}) ([]*domain.Movie, error) {
	query := movieSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query = s.db.Rebind(query + movieOrder)

	rows, err := s.reader.QueryxContext(ctx, query, args...)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to query movies from DB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	asm := newMovieAssembler()
	for rows.Next() {
		var row movieRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("failed to scan movie row: %w", err)
		}
		frag, err := decodeMovieRow(row)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to decode movie row", slog.Int64("movieID", row.ID), slog.String("error", err.Error()))
			return nil, err
		}
		if err := asm.add(frag); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate movie rows: %w", err)
	}
	return asm.movies(), nil
}

// Update перезаписывает поля фильма и заменяет его связи с актерами.
func (s *SQLMovieStore) Update(ctx context.Context, movie *domain.Movie) error {
	st := movie.State()
	query := s.db.Rebind(`UPDATE movies SET title = ?, director_id = ?, genre = ?, release_date = ?, description = ?, rating_policy = ?
              WHERE id = ?`)

	s.logger.DebugContext(ctx, "Executing Update movie query", slog.Int64("movieID", int64(st.ID)))
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query,
			st.Title, int64(st.Director.ID()), string(st.Genre), nullableDate(st),
			st.Description, string(st.RatingPolicy), int64(st.ID),
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrDirectorNotFound
			}
			return fmt.Errorf("failed to update movie: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrMovieNotFound
		}
		return s.links.Replace(ctx, tx, st.ID, movie.ActorIDs())
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update movie in DB", slog.Int64("movieID", int64(st.ID)), slog.String("error", err.Error()))
		return err
	}
	s.logger.InfoContext(ctx, "Movie updated successfully in DB", slog.Int64("movieID", int64(st.ID)))
	return nil
}

// UpdateRating пишет только денормализованный рейтинг.
func (s *SQLMovieStore) UpdateRating(ctx context.Context, movie *domain.Movie) error {
	query := s.db.Rebind(`UPDATE movies SET rating = ? WHERE id = ?`)

	s.logger.DebugContext(ctx, "Executing UpdateRating query", slog.Int64("movieID", int64(movie.ID())), slog.Float64("rating", movie.Rating()))
	res, err := s.db.ExecContext(ctx, query, movie.Rating(), int64(movie.ID()))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update movie rating in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to update movie rating: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// Delete удаляет связи, отзывы и сам фильм в одной транзакции.
func (s *SQLMovieStore) Delete(ctx context.Context, id domain.ID) error {
	s.logger.DebugContext(ctx, "Executing Delete movie query", slog.Int64("movieID", int64(id)))
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := s.links.DeleteByMovie(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM reviews WHERE movie_id = ?`), int64(id)); err != nil {
			return fmt.Errorf("failed to delete reviews of movie %d: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM movies WHERE id = ?`), int64(id))
		if err != nil {
			return fmt.Errorf("failed to delete movie: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrMovieNotFound
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrMovieNotFound) {
			s.logger.ErrorContext(ctx, "Failed to delete movie from DB", slog.Int64("movieID", int64(id)), slog.String("error", err.Error()))
		}
		return err
	}
	s.logger.InfoContext(ctx, "Movie deleted successfully from DB", slog.Int64("movieID", int64(id)))
	return nil
}

func (s *SQLMovieStore) CountByDirector(ctx context.Context, directorID domain.ID) (int, error) {
	var count int
	query := s.db.Rebind(`SELECT COUNT(*) FROM movies WHERE director_id = ?`)
	if err := s.db.GetContext(ctx, &count, query, int64(directorID)); err != nil {
		return 0, fmt.Errorf("failed to count movies of director %d: %w", directorID, err)
	}
	return count, nil
}

func nullableDate(st domain.MovieState) sql.NullTime {
	if st.ReleaseDate.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: st.ReleaseDate, Valid: true}
}

func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}
