package store

import (
	"fmt"

	"catalog-service/internal/domain"
)

// movieAssembler сворачивает поток фрагментов в агрегаты.
// Фильм берется из первой встреченной строки с его id, следующие строки
// того же фильма только добавляют своего актера. Порядок фильмов и актеров -
// порядок первого появления.
type movieAssembler struct {
	order []domain.ID
	byID  map[domain.ID]*domain.Movie
}

func newMovieAssembler() *movieAssembler {
	return &movieAssembler{byID: make(map[domain.ID]*domain.Movie)}
}

func (a *movieAssembler) add(frag movieFragment) error {
	id := frag.movie.ID()
	movie, seen := a.byID[id]
	if !seen {
		movie = frag.movie
		a.byID[id] = movie
		a.order = append(a.order, id)
	}
	if frag.actor == nil {
		return nil
	}
	if err := movie.AddActor(*frag.actor); err != nil {
		return fmt.Errorf("movie %d: %w", id, err)
	}
	return nil
}

func (a *movieAssembler) movies() []*domain.Movie {
	out := make([]*domain.Movie, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.byID[id])
	}
	return out
}

// assembleMovies - свертка уже прочитанных строк.
func assembleMovies(rows []movieRow) ([]*domain.Movie, error) {
	asm := newMovieAssembler()
	for _, row := range rows {
		frag, err := decodeMovieRow(row)
		if err != nil {
			return nil, err
		}
		if err := asm.add(frag); err != nil {
			return nil, err
		}
	}
	return asm.movies(), nil
}
