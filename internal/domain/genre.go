package domain

// Genre - жанр фильма. В хранилище пишется текстовым кодом 1:1.
type Genre string

const (
	GenreAction   Genre = "ACTION"
	GenreComedy   Genre = "COMEDY"
	GenreDrama    Genre = "DRAMA"
	GenreFantasy  Genre = "FANTASY"
	GenreHorror   Genre = "HORROR"
	GenreThriller Genre = "THRILLER"
)

var genresByCode = map[string]Genre{
	string(GenreAction):   GenreAction,
	string(GenreComedy):   GenreComedy,
	string(GenreDrama):    GenreDrama,
	string(GenreFantasy):  GenreFantasy,
	string(GenreHorror):   GenreHorror,
	string(GenreThriller): GenreThriller,
}

// ParseGenre сопоставляет код жанру. Регистр кода значим.
func ParseGenre(code string) (Genre, bool) {
	g, ok := genresByCode[code]
	return g, ok
}

func (g Genre) Valid() bool {
	_, ok := genresByCode[string(g)]
	return ok
}
