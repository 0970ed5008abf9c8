// internal/domain/review.go
package domain

import (
	"fmt"
	"time"
)

// Review - отзыв пользователя о фильме. Уникальность пары (пользователь, фильм)
// проверяется до создания отзыва, сама сущность ее не гарантирует.
type Review struct {
	id        ID
	content   string
	stars     int
	userID    ID
	movieID   ID
	createdAt time.Time
	updatedAt time.Time
}

// ReviewState - снимок отзыва для хранилища.
type ReviewState struct {
	ID        ID
	Content   string
	Stars     int
	UserID    ID
	MovieID   ID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewReview создает еще не сохраненный отзыв сохраненного пользователя о сохраненном фильме.
func NewReview(content string, stars int, user User, movie *Movie) (*Review, error) {
	if err := validateStars(stars); err != nil {
		return nil, err
	}
	if !user.ID().Assigned() {
		return nil, invalid("user", "is required")
	}
	if movie == nil || !movie.ID().Assigned() {
		return nil, invalid("movie", "is required")
	}
	return &Review{
		content: content,
		stars:   stars,
		userID:  user.ID(),
		movieID: movie.ID(),
	}, nil
}

func RestoreReview(s ReviewState) *Review {
	return &Review{
		id:        s.ID,
		content:   s.Content,
		stars:     s.Stars,
		userID:    s.UserID,
		movieID:   s.MovieID,
		createdAt: s.CreatedAt,
		updatedAt: s.UpdatedAt,
	}
}

// Persisted возвращает копию отзыва с идентификатором и временем создания из хранилища.
func (r *Review) Persisted(id ID, createdAt time.Time) *Review {
	s := r.State()
	s.ID = id
	s.CreatedAt = createdAt
	s.UpdatedAt = createdAt
	return RestoreReview(s)
}

func (r *Review) State() ReviewState {
	return ReviewState{
		ID:        r.id,
		Content:   r.content,
		Stars:     r.stars,
		UserID:    r.userID,
		MovieID:   r.movieID,
		CreatedAt: r.createdAt,
		UpdatedAt: r.updatedAt,
	}
}

func (r *Review) ID() ID               { return r.id }
func (r *Review) Content() string      { return r.content }
func (r *Review) Stars() int           { return r.stars }
func (r *Review) UserID() ID           { return r.userID }
func (r *Review) MovieID() ID          { return r.movieID }
func (r *Review) CreatedAt() time.Time { return r.createdAt }
func (r *Review) UpdatedAt() time.Time { return r.updatedAt }

// Update меняет текст и оценку. При неверной оценке отзыв не меняется.
func (r *Review) Update(content string, stars int) error {
	if err := validateStars(stars); err != nil {
		return err
	}
	r.content = content
	r.stars = stars
	return nil
}

func (r *Review) Touch(at time.Time) { r.updatedAt = at }

func (r *Review) IsOwnedBy(userID ID) bool {
	return userID.Assigned() && r.userID == userID
}

func validateStars(stars int) error {
	if stars < MinStars || stars > MaxStars {
		return invalid("rating", fmt.Sprintf("%d stars is outside [%d, %d]", stars, MinStars, MaxStars))
	}
	return nil
}
