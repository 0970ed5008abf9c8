// internal/store/sql_people_store.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"catalog-service/internal/domain"
)

type personRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// SQLActorStore реализует ActorStore.
type SQLActorStore struct {
	db     *sqlx.DB
	links  *LinkWriter
	logger *slog.Logger
}

func NewSQLActorStore(db *sqlx.DB, logger *slog.Logger) (*SQLActorStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	return &SQLActorStore{db: db, links: NewLinkWriter(logger), logger: logger}, nil
}

func (s *SQLActorStore) Create(ctx context.Context, actor domain.Actor) (domain.Actor, error) {
	id, err := insertPerson(ctx, s.db, "actors", actor.Name())
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create actor in DB", slog.String("error", err.Error()))
		return domain.Actor{}, err
	}
	s.logger.InfoContext(ctx, "Actor created successfully in DB", slog.Int64("actorID", id))
	return actor.Persisted(domain.ID(id)), nil
}

func (s *SQLActorStore) GetByID(ctx context.Context, id domain.ID) (domain.Actor, error) {
	var row personRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT id, name FROM actors WHERE id = ?`), int64(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.WarnContext(ctx, "Actor not found by ID in DB", slog.Int64("actorID", int64(id)))
			return domain.Actor{}, ErrActorNotFound
		}
		return domain.Actor{}, fmt.Errorf("failed to get actor by ID: %w", err)
	}
	return domain.RestoreActor(domain.ID(row.ID), row.Name), nil
}

// GetByIDs читает всех актеров одним запросом и возвращает их в порядке ids.
func (s *SQLActorStore) GetByIDs(ctx context.Context, ids []domain.ID) ([]domain.Actor, error) {
	if len(ids) == 0 {
		return []domain.Actor{}, nil
	}
	query, args, err := sqlx.In(`SELECT id, name FROM actors WHERE id IN (?)`, toInt64s(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to build actors query: %w", err)
	}
	var rows []personRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get actors by IDs: %w", err)
	}

	byID := make(map[domain.ID]domain.Actor, len(rows))
	for _, row := range rows {
		byID[domain.ID(row.ID)] = domain.RestoreActor(domain.ID(row.ID), row.Name)
	}
	actors := make([]domain.Actor, 0, len(ids))
	for _, id := range ids {
		actor, ok := byID[id]
		if !ok {
			s.logger.WarnContext(ctx, "Actor not found by ID in DB", slog.Int64("actorID", int64(id)))
			return nil, fmt.Errorf("%w: id %d", ErrActorNotFound, id)
		}
		actors = append(actors, actor)
	}
	return actors, nil
}

func (s *SQLActorStore) List(ctx context.Context, nameContains string) ([]domain.Actor, error) {
	rows, err := listPeople(ctx, s.db, "actors", nameContains)
	if err != nil {
		return nil, err
	}
	actors := make([]domain.Actor, 0, len(rows))
	for _, row := range rows {
		actors = append(actors, domain.RestoreActor(domain.ID(row.ID), row.Name))
	}
	return actors, nil
}

func (s *SQLActorStore) Update(ctx context.Context, actor domain.Actor) error {
	if err := updatePerson(ctx, s.db, "actors", actor.ID(), actor.Name(), ErrActorNotFound); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Actor updated successfully in DB", slog.Int64("actorID", int64(actor.ID())))
	return nil
}

// Delete удаляет связи актера с фильмами и самого актера. Остальные связи
// затронутых фильмов остаются.
func (s *SQLActorStore) Delete(ctx context.Context, id domain.ID) error {
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := s.links.DeleteByActor(ctx, tx, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM actors WHERE id = ?`), int64(id))
		if err != nil {
			return fmt.Errorf("failed to delete actor: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrActorNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Actor deleted successfully from DB", slog.Int64("actorID", int64(id)))
	return nil
}

// SQLDirectorStore реализует DirectorStore.
type SQLDirectorStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewSQLDirectorStore(db *sqlx.DB, logger *slog.Logger) (*SQLDirectorStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	return &SQLDirectorStore{db: db, logger: logger}, nil
}

func (s *SQLDirectorStore) Create(ctx context.Context, director domain.Director) (domain.Director, error) {
	id, err := insertPerson(ctx, s.db, "directors", director.Name())
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create director in DB", slog.String("error", err.Error()))
		return domain.Director{}, err
	}
	s.logger.InfoContext(ctx, "Director created successfully in DB", slog.Int64("directorID", id))
	return director.Persisted(domain.ID(id)), nil
}

func (s *SQLDirectorStore) GetByID(ctx context.Context, id domain.ID) (domain.Director, error) {
	var row personRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT id, name FROM directors WHERE id = ?`), int64(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.WarnContext(ctx, "Director not found by ID in DB", slog.Int64("directorID", int64(id)))
			return domain.Director{}, ErrDirectorNotFound
		}
		return domain.Director{}, fmt.Errorf("failed to get director by ID: %w", err)
	}
	return domain.RestoreDirector(domain.ID(row.ID), row.Name), nil
}

func (s *SQLDirectorStore) List(ctx context.Context, nameContains string) ([]domain.Director, error) {
	rows, err := listPeople(ctx, s.db, "directors", nameContains)
	if err != nil {
		return nil, err
	}
	directors := make([]domain.Director, 0, len(rows))
	for _, row := range rows {
		directors = append(directors, domain.RestoreDirector(domain.ID(row.ID), row.Name))
	}
	return directors, nil
}

func (s *SQLDirectorStore) Update(ctx context.Context, director domain.Director) error {
	if err := updatePerson(ctx, s.db, "directors", director.ID(), director.Name(), ErrDirectorNotFound); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Director updated successfully in DB", slog.Int64("directorID", int64(director.ID())))
	return nil
}

// Delete не удаляет режиссера, у которого остались фильмы (ErrDirectorInUse).
func (s *SQLDirectorStore) Delete(ctx context.Context, id domain.ID) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM directors WHERE id = ?`), int64(id))
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrDirectorInUse
		}
		return fmt.Errorf("failed to delete director: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDirectorNotFound
	}
	s.logger.InfoContext(ctx, "Director deleted successfully from DB", slog.Int64("directorID", int64(id)))
	return nil
}

// Таблицы actors и directors устроены одинаково, table всегда константа пакета.

func insertPerson(ctx context.Context, db *sqlx.DB, table, name string) (int64, error) {
	var id int64
	query := db.Rebind(`INSERT INTO ` + table + ` (name) VALUES (?) RETURNING id`)
	if err := db.QueryRowxContext(ctx, query, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return id, nil
}

func listPeople(ctx context.Context, db *sqlx.DB, table, nameContains string) ([]personRow, error) {
	query := `SELECT id, name FROM ` + table
	var args []interface{}
	if nameContains != "" {
		query += ` WHERE LOWER(name) LIKE ?`
		args = append(args, likePattern(nameContains))
	}
	var rows []personRow
	if err := db.SelectContext(ctx, &rows, db.Rebind(query+` ORDER BY id`), args...); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	return rows, nil
}

func updatePerson(ctx context.Context, db *sqlx.DB, table string, id domain.ID, name string, notFound error) error {
	res, err := db.ExecContext(ctx, db.Rebind(`UPDATE `+table+` SET name = ? WHERE id = ?`), name, int64(id))
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound
	}
	return nil
}
