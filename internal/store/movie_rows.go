package store

import (
	"database/sql"
	"strconv"

	"catalog-service/internal/domain"
)

// movieRow - одна строка соединения movies x directors x (movie_actor x actors).
// Колонки актера пустые, если у фильма нет актеров (LEFT JOIN).
type movieRow struct {
	ID           int64          `db:"id"`
	Title        string         `db:"title"`
	Genre        string         `db:"genre"`
	ReleaseDate  sql.NullTime   `db:"release_date"`
	Description  sql.NullString `db:"description"`
	Rating       float64        `db:"rating"`
	RatingPolicy string         `db:"rating_policy"`
	DirectorID   int64          `db:"director_id"`
	DirectorName string         `db:"director_name"`
	ActorID      sql.NullInt64  `db:"actor_id"`
	ActorName    sql.NullString `db:"actor_name"`
}

// movieFragment - результат разбора одной строки: фильм без актеров
// и, возможно, один актер.
type movieFragment struct {
	movie *domain.Movie
	actor *domain.Actor
}

// decodeMovieRow разбирает строку соединения. Коды жанра и политики рейтинга
// сопоставляются фиксированными таблицами, неизвестный код - DecodeError.
func decodeMovieRow(row movieRow) (movieFragment, error) {
	if row.ID <= 0 {
		return movieFragment{}, &domain.DecodeError{Column: "id", Value: strconv.FormatInt(row.ID, 10)}
	}
	genre, ok := domain.ParseGenre(row.Genre)
	if !ok {
		return movieFragment{}, &domain.DecodeError{Column: "genre", Value: row.Genre}
	}
	policy, ok := domain.ParseRatingPolicy(row.RatingPolicy)
	if !ok {
		return movieFragment{}, &domain.DecodeError{Column: "rating_policy", Value: row.RatingPolicy}
	}
	if row.DirectorID <= 0 {
		return movieFragment{}, &domain.DecodeError{Column: "director_id", Value: strconv.FormatInt(row.DirectorID, 10)}
	}

	state := domain.MovieState{
		ID:           domain.ID(row.ID),
		Title:        row.Title,
		Director:     domain.RestoreDirector(domain.ID(row.DirectorID), row.DirectorName),
		Genre:        genre,
		Description:  row.Description.String,
		Rating:       row.Rating,
		RatingPolicy: policy,
	}
	if row.ReleaseDate.Valid {
		state.ReleaseDate = row.ReleaseDate.Time
	}

	frag := movieFragment{movie: domain.RestoreMovie(state)}
	if row.ActorID.Valid {
		if row.ActorID.Int64 <= 0 {
			return movieFragment{}, &domain.DecodeError{Column: "actor_id", Value: strconv.FormatInt(row.ActorID.Int64, 10)}
		}
		actor := domain.RestoreActor(domain.ID(row.ActorID.Int64), row.ActorName.String)
		frag.actor = &actor
	}
	return frag, nil
}
