package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"catalog-service/internal/domain"
)

// LinkWriter поддерживает таблицу связей movie_actor. Все методы работают
// в переданной единице работы (обычно *sqlx.Tx) и сами транзакций не открывают.
type LinkWriter struct {
	logger *slog.Logger
}

func NewLinkWriter(logger *slog.Logger) *LinkWriter {
	return &LinkWriter{logger: logger}
}

// Insert пишет по одной строке на каждого различного актера.
func (w *LinkWriter) Insert(ctx context.Context, ext sqlx.ExtContext, movieID domain.ID, actorIDs []domain.ID) error {
	distinct := make([]domain.ID, 0, len(actorIDs))
	seen := make(map[domain.ID]struct{}, len(actorIDs))
	for _, id := range actorIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}
	if len(distinct) == 0 {
		return nil
	}

	values := make([]string, 0, len(distinct))
	args := make([]interface{}, 0, len(distinct)*2)
	for _, actorID := range distinct {
		values = append(values, "(?, ?)")
		args = append(args, int64(movieID), int64(actorID))
	}
	query := ext.Rebind("INSERT INTO movie_actor (movie_id, actor_id) VALUES " + strings.Join(values, ", "))

	w.logger.DebugContext(ctx, "Inserting movie-actor links", slog.Int64("movieID", int64(movieID)), slog.Int("count", len(distinct)))
	if _, err := ext.ExecContext(ctx, query, args...); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("failed to link actors to movie %d: %w", movieID, ErrActorNotFound)
		}
		return fmt.Errorf("failed to link actors to movie %d: %w", movieID, err)
	}
	return nil
}

// Replace делает набор связей фильма равным actorIDs: удаляет все и пишет заново.
func (w *LinkWriter) Replace(ctx context.Context, ext sqlx.ExtContext, movieID domain.ID, actorIDs []domain.ID) error {
	if _, err := w.DeleteByMovie(ctx, ext, movieID); err != nil {
		return err
	}
	return w.Insert(ctx, ext, movieID, actorIDs)
}

func (w *LinkWriter) DeleteByMovie(ctx context.Context, ext sqlx.ExtContext, movieID domain.ID) (int64, error) {
	res, err := ext.ExecContext(ctx, ext.Rebind("DELETE FROM movie_actor WHERE movie_id = ?"), int64(movieID))
	if err != nil {
		return 0, fmt.Errorf("failed to unlink actors from movie %d: %w", movieID, err)
	}
	n, _ := res.RowsAffected()
	w.logger.DebugContext(ctx, "Removed movie-actor links for movie", slog.Int64("movieID", int64(movieID)), slog.Int64("removed", n))
	return n, nil
}

func (w *LinkWriter) DeleteByActor(ctx context.Context, ext sqlx.ExtContext, actorID domain.ID) (int64, error) {
	res, err := ext.ExecContext(ctx, ext.Rebind("DELETE FROM movie_actor WHERE actor_id = ?"), int64(actorID))
	if err != nil {
		return 0, fmt.Errorf("failed to unlink movies from actor %d: %w", actorID, err)
	}
	n, _ := res.RowsAffected()
	w.logger.DebugContext(ctx, "Removed movie-actor links for actor", slog.Int64("actorID", int64(actorID)), slog.Int64("removed", n))
	return n, nil
}

// LinkedActorIDs читает текущий набор связей фильма, упорядоченный по actor_id.
func (w *LinkWriter) LinkedActorIDs(ctx context.Context, ext sqlx.ExtContext, movieID domain.ID) ([]domain.ID, error) {
	var raw []int64
	query := ext.Rebind("SELECT actor_id FROM movie_actor WHERE movie_id = ? ORDER BY actor_id")
	if err := sqlx.SelectContext(ctx, ext, &raw, query, int64(movieID)); err != nil {
		return nil, fmt.Errorf("failed to read links of movie %d: %w", movieID, err)
	}
	ids := make([]domain.ID, len(raw))
	for i, id := range raw {
		ids[i] = domain.ID(id)
	}
	return ids, nil
}
