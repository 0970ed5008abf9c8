package api

import (
	"time"

	"catalog-service/internal/domain"
)

const dateLayout = "2006-01-02"

type personResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type movieResponse struct {
	ID           int64            `json:"id"`
	Title        string           `json:"title"`
	Genre        string           `json:"genre"`
	ReleaseDate  string           `json:"release_date,omitempty"`
	Description  string           `json:"description,omitempty"`
	Rating       float64          `json:"rating"`
	RatingPolicy string           `json:"rating_policy"`
	Director     personResponse   `json:"director"`
	Actors       []personResponse `json:"actors"`
}

type reviewResponse struct {
	ID        int64     `json:"id"`
	MovieID   int64     `json:"movie_id"`
	UserID    int64     `json:"user_id"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type createUserResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

func toMovieResponse(m *domain.Movie) movieResponse {
	resp := movieResponse{
		ID:           int64(m.ID()),
		Title:        m.Title(),
		Genre:        string(m.Genre()),
		Description:  m.Description(),
		Rating:       m.Rating(),
		RatingPolicy: string(m.RatingPolicy()),
		Director:     personResponse{ID: int64(m.Director().ID()), Name: m.Director().Name()},
		Actors:       make([]personResponse, 0, len(m.Actors())),
	}
	if !m.ReleaseDate().IsZero() {
		resp.ReleaseDate = m.ReleaseDate().Format(dateLayout)
	}
	for _, a := range m.Actors() {
		resp.Actors = append(resp.Actors, personResponse{ID: int64(a.ID()), Name: a.Name()})
	}
	return resp
}

func toMovieResponses(movies []*domain.Movie) []movieResponse {
	out := make([]movieResponse, 0, len(movies))
	for _, m := range movies {
		out = append(out, toMovieResponse(m))
	}
	return out
}

func toReviewResponse(r *domain.Review) reviewResponse {
	return reviewResponse{
		ID:        int64(r.ID()),
		MovieID:   int64(r.MovieID()),
		UserID:    int64(r.UserID()),
		Rating:    r.Stars(),
		Content:   r.Content(),
		CreatedAt: r.CreatedAt(),
		UpdatedAt: r.UpdatedAt(),
	}
}

func toReviewResponses(reviews []*domain.Review) []reviewResponse {
	out := make([]reviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, toReviewResponse(r))
	}
	return out
}

func toActorResponse(a domain.Actor) personResponse {
	return personResponse{ID: int64(a.ID()), Name: a.Name()}
}

func toDirectorResponse(d domain.Director) personResponse {
	return personResponse{ID: int64(d.ID()), Name: d.Name()}
}
