// internal/domain/movie.go
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Movie - агрегат каталога: фильм, его режиссер и упорядоченный список актеров
// без повторов. Рейтинг денормализован и пересчитывается по отзывам.
type Movie struct {
	id           ID
	title        string
	director     Director
	genre        Genre
	releaseDate  time.Time
	description  string
	actors       []Actor
	rating       float64
	ratingPolicy RatingPolicy
}

// MovieState - плоский снимок агрегата для хранилища и ответов API.
type MovieState struct {
	ID           ID
	Title        string
	Director     Director
	Genre        Genre
	ReleaseDate  time.Time
	Description  string
	Actors       []Actor
	Rating       float64
	RatingPolicy RatingPolicy
}

// MovieInfo - частичное обновление описательных полей. nil означает "не менять".
type MovieInfo struct {
	Title       *string
	Genre       *Genre
	ReleaseDate *time.Time
	Description *string
}

// NewMovie создает еще не сохраненный фильм с рейтингом 0.0 и политикой BASIC.
func NewMovie(title string, director Director, genre Genre, releaseDate time.Time, description string, actors []Actor) (*Movie, error) {
	if strings.TrimSpace(title) == "" {
		return nil, invalid("title", "must not be blank")
	}
	if !director.ID().Assigned() {
		return nil, invalid("director", "is required")
	}
	if !genre.Valid() {
		return nil, invalid("genre", fmt.Sprintf("unknown genre %q", string(genre)))
	}

	m := &Movie{
		title:        title,
		director:     director,
		genre:        genre,
		releaseDate:  releaseDate,
		description:  description,
		actors:       make([]Actor, 0, len(actors)),
		rating:       0.0,
		ratingPolicy: RatingPolicyBasic,
	}
	for _, a := range actors {
		if err := m.AddActor(a); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RestoreMovie собирает агрегат из уже сохраненного состояния. Проверки
// конструктора не повторяются, но повторы актеров отбрасываются.
func RestoreMovie(s MovieState) *Movie {
	m := &Movie{
		id:           s.ID,
		title:        s.Title,
		director:     s.Director,
		genre:        s.Genre,
		releaseDate:  s.ReleaseDate,
		description:  s.Description,
		actors:       make([]Actor, 0, len(s.Actors)),
		rating:       s.Rating,
		ratingPolicy: s.RatingPolicy,
	}
	for _, a := range s.Actors {
		if !m.HasActor(a) {
			m.actors = append(m.actors, a)
		}
	}
	return m
}

// Persisted возвращает копию фильма с идентификатором, выданным хранилищем.
func (m *Movie) Persisted(id ID) *Movie {
	s := m.State()
	s.ID = id
	return RestoreMovie(s)
}

// State возвращает снимок агрегата. Список актеров копируется.
func (m *Movie) State() MovieState {
	return MovieState{
		ID:           m.id,
		Title:        m.title,
		Director:     m.director,
		Genre:        m.genre,
		ReleaseDate:  m.releaseDate,
		Description:  m.description,
		Actors:       m.Actors(),
		Rating:       m.rating,
		RatingPolicy: m.ratingPolicy,
	}
}

func (m *Movie) ID() ID                     { return m.id }
func (m *Movie) Title() string              { return m.title }
func (m *Movie) Director() Director         { return m.director }
func (m *Movie) Genre() Genre               { return m.genre }
func (m *Movie) ReleaseDate() time.Time     { return m.releaseDate }
func (m *Movie) Description() string        { return m.description }
func (m *Movie) Rating() float64            { return m.rating }
func (m *Movie) RatingPolicy() RatingPolicy { return m.ratingPolicy }

func (m *Movie) Actors() []Actor {
	out := make([]Actor, len(m.actors))
	copy(out, m.actors)
	return out
}

// ActorIDs возвращает идентификаторы актеров в порядке списка.
func (m *Movie) ActorIDs() []ID {
	ids := make([]ID, len(m.actors))
	for i, a := range m.actors {
		ids[i] = a.ID()
	}
	return ids
}

func (m *Movie) HasActor(a Actor) bool {
	for _, existing := range m.actors {
		if existing.SameAs(a) {
			return true
		}
	}
	return false
}

func (m *Movie) IsDirectedBy(d Director) bool {
	return m.director.SameAs(d)
}

// UpdateInfo применяет частичное обновление. Пустой заголовок игнорируется.
func (m *Movie) UpdateInfo(info MovieInfo) error {
	if info.Genre != nil && !info.Genre.Valid() {
		return invalid("genre", fmt.Sprintf("unknown genre %q", string(*info.Genre)))
	}
	if info.Title != nil && strings.TrimSpace(*info.Title) != "" {
		m.title = *info.Title
	}
	if info.Genre != nil {
		m.genre = *info.Genre
	}
	if info.ReleaseDate != nil {
		m.releaseDate = *info.ReleaseDate
	}
	if info.Description != nil {
		m.description = *info.Description
	}
	return nil
}

func (m *Movie) ChangeDirector(d Director) error {
	if !d.ID().Assigned() {
		return invalid("director", "is required")
	}
	m.director = d
	return nil
}

// AddActor добавляет актера в конец списка. Повторное добавление - no-op.
func (m *Movie) AddActor(a Actor) error {
	if !a.ID().Assigned() {
		return invalid("actor", "must be persisted before linking")
	}
	if m.HasActor(a) {
		return nil
	}
	m.actors = append(m.actors, a)
	return nil
}

func (m *Movie) RemoveActor(a Actor) error {
	for i, existing := range m.actors {
		if existing.SameAs(a) {
			m.actors = append(m.actors[:i], m.actors[i+1:]...)
			return nil
		}
	}
	return invalid("actor", fmt.Sprintf("actor %d is not in the movie cast", a.ID()))
}

// UpdateRating записывает пересчитанный рейтинг.
func (m *Movie) UpdateRating(rating float64) error {
	if math.IsNaN(rating) || rating < MinRating || rating > MaxRating {
		return invalid("rating", fmt.Sprintf("%v is outside [%v, %v]", rating, MinRating, MaxRating))
	}
	m.rating = rating
	return nil
}

// ChangeRatingPolicy меняет способ расчета. Сам рейтинг не пересчитывается.
func (m *Movie) ChangeRatingPolicy(p RatingPolicy) error {
	if !p.Valid() {
		return invalid("rating_policy", fmt.Sprintf("unknown policy %q", string(p)))
	}
	m.ratingPolicy = p
	return nil
}
