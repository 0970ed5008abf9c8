package domain

// CreateMovieRequest определяет тело запроса для создания фильма.
type CreateMovieRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Genre       string  `json:"genre" validate:"required,oneof=ACTION COMEDY DRAMA FANTASY HORROR THRILLER"`
	ReleaseDate string  `json:"release_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Description string  `json:"description,omitempty" validate:"max=2000"`
	DirectorID  int64   `json:"director_id" validate:"required,gt=0"`
	ActorIDs    []int64 `json:"actor_ids,omitempty" validate:"omitempty,dive,gt=0"`
}

// UpdateMovieRequest - частичное обновление описательных полей фильма.
type UpdateMovieRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=255"`
	Genre       *string `json:"genre,omitempty" validate:"omitempty,oneof=ACTION COMEDY DRAMA FANTASY HORROR THRILLER"`
	ReleaseDate *string `json:"release_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

type ChangeDirectorRequest struct {
	DirectorID int64 `json:"director_id" validate:"required,gt=0"`
}

type ChangeRatingPolicyRequest struct {
	Policy string `json:"policy" validate:"required,oneof=BASIC MEDIAN"`
}

// PersonRequest используется и для актеров, и для режиссеров.
type PersonRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
}

// CreateReviewRequest определяет тело запроса для создания отзыва.
type CreateReviewRequest struct {
	MovieID int64  `json:"movie_id" validate:"required,gt=0"`
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Content string `json:"content,omitempty" validate:"max=2000"`
}

// UpdateReviewRequest определяет тело запроса для обновления отзыва.
type UpdateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Content string `json:"content,omitempty" validate:"max=2000"`
}
