package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Типы колонок, которые отличаются между диалектами.
type dialectTypes struct {
	id        string
	timestamp string
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS directors (
		id {{id}},
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS actors (
		id {{id}},
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id {{id}},
		username TEXT NOT NULL,
		CONSTRAINT uq_users_username UNIQUE (username)
	)`,
	`CREATE TABLE IF NOT EXISTS movies (
		id {{id}},
		title TEXT NOT NULL,
		director_id BIGINT NOT NULL REFERENCES directors(id),
		genre TEXT NOT NULL,
		release_date DATE,
		description TEXT,
		rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		rating_policy TEXT NOT NULL DEFAULT 'BASIC'
	)`,
	`CREATE TABLE IF NOT EXISTS movie_actor (
		movie_id BIGINT NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
		actor_id BIGINT NOT NULL REFERENCES actors(id) ON DELETE CASCADE,
		PRIMARY KEY (movie_id, actor_id)
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id {{id}},
		content TEXT NOT NULL DEFAULT '',
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		movie_id BIGINT NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
		created_at {{timestamp}} NOT NULL,
		updated_at {{timestamp}} NOT NULL,
		CONSTRAINT uq_user_movie_review UNIQUE (user_id, movie_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_movies_director ON movies (director_id)`,
	`CREATE INDEX IF NOT EXISTS idx_movie_actor_actor ON movie_actor (actor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_movie ON reviews (movie_id)`,
}

// Migrate создает таблицы каталога, если их еще нет. Поддерживаются драйверы
// "postgres" и "sqlite3".
func Migrate(ctx context.Context, db *sqlx.DB) error {
	var types dialectTypes
	switch db.DriverName() {
	case "postgres":
		types = dialectTypes{id: "BIGSERIAL PRIMARY KEY", timestamp: "TIMESTAMPTZ"}
	case "sqlite3":
		types = dialectTypes{id: "INTEGER PRIMARY KEY AUTOINCREMENT", timestamp: "TIMESTAMP"}
	default:
		return fmt.Errorf("unsupported database driver %q", db.DriverName())
	}

	r := strings.NewReplacer("{{id}}", types.id, "{{timestamp}}", types.timestamp)
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, r.Replace(stmt)); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
