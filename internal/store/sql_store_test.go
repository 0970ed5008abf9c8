package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/domain"
)

type testStores struct {
	db        *sqlx.DB
	movies    *SQLMovieStore
	actors    *SQLActorStore
	directors *SQLDirectorStore
	reviews   *SQLReviewStore
	users     *SQLUserStore
}

func newTestStores(t *testing.T) *testStores {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	// :memory: живет в пределах одного соединения.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(context.Background(), db))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := &testStores{db: db}
	ts.movies, err = NewSQLMovieStore(db, logger)
	require.NoError(t, err)
	ts.actors, err = NewSQLActorStore(db, logger)
	require.NoError(t, err)
	ts.directors, err = NewSQLDirectorStore(db, logger)
	require.NoError(t, err)
	ts.reviews, err = NewSQLReviewStore(db, logger)
	require.NoError(t, err)
	ts.users, err = NewSQLUserStore(db, logger)
	require.NoError(t, err)
	return ts
}

func (ts *testStores) director(t *testing.T, name string) domain.Director {
	t.Helper()
	d, err := domain.NewDirector(name)
	require.NoError(t, err)
	d, err = ts.directors.Create(context.Background(), d)
	require.NoError(t, err)
	return d
}

func (ts *testStores) actor(t *testing.T, name string) domain.Actor {
	t.Helper()
	a, err := domain.NewActor(name)
	require.NoError(t, err)
	a, err = ts.actors.Create(context.Background(), a)
	require.NoError(t, err)
	return a
}

func (ts *testStores) user(t *testing.T, name string) domain.User {
	t.Helper()
	u, err := domain.NewUser(name)
	require.NoError(t, err)
	u, err = ts.users.Create(context.Background(), u)
	require.NoError(t, err)
	return u
}

func (ts *testStores) movie(t *testing.T, title string, d domain.Director, actors ...domain.Actor) *domain.Movie {
	t.Helper()
	m, err := domain.NewMovie(title, d, domain.GenreDrama, time.Time{}, "", actors)
	require.NoError(t, err)
	m, err = ts.movies.Create(context.Background(), m)
	require.NoError(t, err)
	return m
}

func (ts *testStores) review(t *testing.T, u domain.User, m *domain.Movie, stars int) *domain.Review {
	t.Helper()
	r, err := domain.NewReview("", stars, u, m)
	require.NoError(t, err)
	r, err = ts.reviews.Create(context.Background(), r)
	require.NoError(t, err)
	return r
}

func (ts *testStores) linkCount(t *testing.T, where string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, ts.db.Get(&n, ts.db.Rebind("SELECT COUNT(*) FROM movie_actor WHERE "+where), args...))
	return n
}

// countingQueryer считает обращения к базе на чтение.
type countingQueryer struct {
	sqlx.QueryerContext
	calls int
}

func (c *countingQueryer) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	c.calls++
	return c.QueryerContext.QueryxContext(ctx, query, args...)
}

func TestSQLMovieStore_CreateAndGet(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	d := ts.director(t, "Céline Sciamma")
	a1 := ts.actor(t, "Noémie Merlant")
	a2 := ts.actor(t, "Adèle Haenel")
	release := time.Date(2019, 9, 18, 0, 0, 0, 0, time.UTC)

	m, err := domain.NewMovie("Portrait of a Lady on Fire", d, domain.GenreDrama, release, "Brittany, 1770", []domain.Actor{a2, a1, a2})
	require.NoError(t, err)
	created, err := ts.movies.Create(ctx, m)
	require.NoError(t, err)
	require.True(t, created.ID().Assigned())
	assert.Equal(t, 2, ts.linkCount(t, "movie_id = ?", int64(created.ID())))

	got, err := ts.movies.GetByID(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, "Portrait of a Lady on Fire", got.Title())
	assert.Equal(t, "Céline Sciamma", got.Director().Name())
	assert.Equal(t, domain.GenreDrama, got.Genre())
	assert.Equal(t, "Brittany, 1770", got.Description())
	assert.True(t, release.Equal(got.ReleaseDate()), "release date %v", got.ReleaseDate())
	assert.Equal(t, 0.0, got.Rating())
	assert.Equal(t, domain.RatingPolicyBasic, got.RatingPolicy())
	assert.Equal(t, []domain.ID{a1.ID(), a2.ID()}, got.ActorIDs())
}

func TestSQLMovieStore_GetByIDNotFound(t *testing.T) {
	ts := newTestStores(t)

	_, err := ts.movies.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrMovieNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLMovieStore_CreateUnknownDirector(t *testing.T) {
	ts := newTestStores(t)

	m, err := domain.NewMovie("Ghost", domain.RestoreDirector(99, "Nobody"), domain.GenreHorror, time.Time{}, "", nil)
	require.NoError(t, err)
	_, err = ts.movies.Create(context.Background(), m)
	assert.ErrorIs(t, err, ErrDirectorNotFound)
}

func TestSQLMovieStore_ListUsesSingleQuery(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	d := ts.director(t, "Wong Kar-wai")
	a1 := ts.actor(t, "Tony Leung")
	a2 := ts.actor(t, "Maggie Cheung")
	a3 := ts.actor(t, "Faye Wong")
	m1 := ts.movie(t, "In the Mood for Love", d, a1, a2)
	m2 := ts.movie(t, "Chungking Express", d, a1, a3)
	m3 := ts.movie(t, "Fallen Angels", d)

	counter := &countingQueryer{QueryerContext: ts.db}
	ts.movies.reader = counter

	movies, err := ts.movies.List(ctx, MovieFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, counter.calls)

	require.Len(t, movies, 3)
	assert.Equal(t, m1.ID(), movies[0].ID())
	assert.Equal(t, m2.ID(), movies[1].ID())
	assert.Equal(t, m3.ID(), movies[2].ID())
	assert.Equal(t, []domain.ID{a1.ID(), a2.ID()}, movies[0].ActorIDs())
	assert.Equal(t, []domain.ID{a1.ID(), a3.ID()}, movies[1].ActorIDs())
	assert.Empty(t, movies[2].Actors())
}

func TestSQLMovieStore_ListFilters(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	wong := ts.director(t, "Wong Kar-wai")
	varda := ts.director(t, "Agnès Varda")
	leung := ts.actor(t, "Tony Leung")
	cheung := ts.actor(t, "Maggie Cheung")
	bonnaire := ts.actor(t, "Sandrine Bonnaire")
	mood := ts.movie(t, "In the Mood for Love", wong, leung, cheung)
	angels := ts.movie(t, "Fallen Angels", wong)
	vagabond := ts.movie(t, "Vagabond", varda, bonnaire)

	testCases := []struct {
		name   string
		filter MovieFilter
		want   []domain.ID
	}{
		{name: "by director", filter: MovieFilter{DirectorID: wong.ID()}, want: []domain.ID{mood.ID(), angels.ID()}},
		{name: "by actor", filter: MovieFilter{ActorID: bonnaire.ID()}, want: []domain.ID{vagabond.ID()}},
		{name: "title contains", filter: MovieFilter{TitleContains: "ANGEL"}, want: []domain.ID{angels.ID()}},
		{name: "director name contains", filter: MovieFilter{DirectorNameContains: "varda"}, want: []domain.ID{vagabond.ID()}},
		{name: "actor name contains", filter: MovieFilter{ActorNameContains: "cheung"}, want: []domain.ID{mood.ID()}},
		{name: "combined", filter: MovieFilter{DirectorID: wong.ID(), TitleContains: "mood"}, want: []domain.ID{mood.ID()}},
		{name: "no match", filter: MovieFilter{TitleContains: "zzz"}, want: []domain.ID{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			movies, err := ts.movies.List(ctx, tc.filter)
			require.NoError(t, err)
			got := make([]domain.ID, 0, len(movies))
			for _, m := range movies {
				got = append(got, m.ID())
			}
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("actor filter keeps full cast", func(t *testing.T) {
		movies, err := ts.movies.List(ctx, MovieFilter{ActorID: cheung.ID()})
		require.NoError(t, err)
		require.Len(t, movies, 1)
		assert.Equal(t, []domain.ID{leung.ID(), cheung.ID()}, movies[0].ActorIDs())
	})
}

func TestSQLMovieStore_UpdateReplacesLinks(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	d := ts.director(t, "Hirokazu Kore-eda")
	other := ts.director(t, "Yasujirō Ozu")
	a1 := ts.actor(t, "Lily Franky")
	a2 := ts.actor(t, "Sakura Ando")
	a3 := ts.actor(t, "Kirin Kiki")
	m := ts.movie(t, "Shoplifters", d, a1, a2)

	require.NoError(t, m.RemoveActor(a1))
	require.NoError(t, m.AddActor(a3))
	require.NoError(t, m.ChangeDirector(other))
	require.NoError(t, m.UpdateRating(4.9))

	require.NoError(t, ts.movies.Update(ctx, m))
	require.NoError(t, ts.movies.Update(ctx, m))

	got, err := ts.movies.GetByID(ctx, m.ID())
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{a2.ID(), a3.ID()}, got.ActorIDs())
	assert.Equal(t, other.ID(), got.Director().ID())
	assert.Equal(t, 0.0, got.Rating(), "Update must not write the rating")
	assert.Equal(t, 2, ts.linkCount(t, "movie_id = ?", int64(m.ID())))
	assert.Equal(t, 0, ts.linkCount(t, "actor_id = ?", int64(a1.ID())))
}

func TestSQLMovieStore_UpdateMissing(t *testing.T) {
	ts := newTestStores(t)
	d := ts.director(t, "Chantal Akerman")

	m, err := domain.NewMovie("Jeanne Dielman", d, domain.GenreDrama, time.Time{}, "", nil)
	require.NoError(t, err)
	err = ts.movies.Update(context.Background(), m.Persisted(77))
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestLinkWriter_ReplaceIsIdempotent(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	d := ts.director(t, "Jane Campion")
	a1 := ts.actor(t, "Holly Hunter")
	a2 := ts.actor(t, "Harvey Keitel")
	m := ts.movie(t, "The Piano", d)
	w := NewLinkWriter(slog.New(slog.NewTextHandler(io.Discard, nil)))

	ids := []domain.ID{a2.ID(), a1.ID(), a2.ID()}
	for i := 0; i < 2; i++ {
		tx, err := ts.db.BeginTxx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, w.Replace(ctx, tx, m.ID(), ids))
		require.NoError(t, tx.Commit())

		linked, err := w.LinkedActorIDs(ctx, ts.db, m.ID())
		require.NoError(t, err)
		assert.Equal(t, []domain.ID{a1.ID(), a2.ID()}, linked)
	}

	tx, err := ts.db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, w.Replace(ctx, tx, m.ID(), nil))
	require.NoError(t, tx.Commit())
	assert.Equal(t, 0, ts.linkCount(t, "movie_id = ?", int64(m.ID())))
}

func TestLinkWriter_RollbackKeepsPreviousLinks(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	d := ts.director(t, "Jane Campion")
	a1 := ts.actor(t, "Holly Hunter")
	m := ts.movie(t, "The Piano", d, a1)
	w := NewLinkWriter(slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := withTx(ctx, ts.db, func(tx *sqlx.Tx) error {
		return w.Replace(ctx, tx, m.ID(), []domain.ID{a1.ID(), 404})
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrActorNotFound)

	linked, err := w.LinkedActorIDs(ctx, ts.db, m.ID())
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{a1.ID()}, linked)
}

func TestSQLMovieStore_DeleteRemovesLinksAndReviews(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	d := ts.director(t, "Andrei Tarkovsky")
	a1 := ts.actor(t, "Anatoly Solonitsyn")
	u := ts.user(t, "stalker")
	m := ts.movie(t, "Andrei Rublev", d, a1)
	ts.review(t, u, m, 5)

	require.NoError(t, ts.movies.Delete(ctx, m.ID()))

	assert.Equal(t, 0, ts.linkCount(t, "movie_id = ?", int64(m.ID())))
	reviews, err := ts.reviews.ListByMovie(ctx, m.ID())
	require.NoError(t, err)
	assert.Empty(t, reviews)

	_, err = ts.movies.GetByID(ctx, m.ID())
	assert.ErrorIs(t, err, ErrMovieNotFound)
	_, err = ts.actors.GetByID(ctx, a1.ID())
	assert.NoError(t, err, "actors outlive the movie")

	assert.ErrorIs(t, ts.movies.Delete(ctx, m.ID()), ErrMovieNotFound)
}

func TestSQLActorStore_DeleteRemovesOnlyItsLinks(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	d := ts.director(t, "Andrei Tarkovsky")
	a1 := ts.actor(t, "Margarita Terekhova")
	a2 := ts.actor(t, "Oleg Yankovsky")
	m := ts.movie(t, "Mirror", d, a1, a2)

	require.NoError(t, ts.actors.Delete(ctx, a1.ID()))

	got, err := ts.movies.GetByID(ctx, m.ID())
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{a2.ID()}, got.ActorIDs())
	assert.Equal(t, 0, ts.linkCount(t, "actor_id = ?", int64(a1.ID())))

	assert.ErrorIs(t, ts.actors.Delete(ctx, a1.ID()), ErrActorNotFound)
}

func TestSQLActorStore_GetByIDs(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	a1 := ts.actor(t, "Toshiro Mifune")
	a2 := ts.actor(t, "Takashi Shimura")

	actors, err := ts.actors.GetByIDs(ctx, []domain.ID{a2.ID(), a1.ID()})
	require.NoError(t, err)
	require.Len(t, actors, 2)
	assert.Equal(t, "Takashi Shimura", actors[0].Name())
	assert.Equal(t, "Toshiro Mifune", actors[1].Name())

	_, err = ts.actors.GetByIDs(ctx, []domain.ID{a1.ID(), 999})
	assert.ErrorIs(t, err, ErrActorNotFound)
}

func TestSQLPeopleStores_ListAndRename(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	a := ts.actor(t, "Toshiro Mifune")
	ts.actor(t, "Takashi Shimura")

	renamed, err := a.Rename("Mifune Toshirō")
	require.NoError(t, err)
	require.NoError(t, ts.actors.Update(ctx, renamed))

	actors, err := ts.actors.List(ctx, "mifune")
	require.NoError(t, err)
	require.Len(t, actors, 1)
	assert.Equal(t, "Mifune Toshirō", actors[0].Name())

	d := ts.director(t, "Akira Kurosawa")
	directors, err := ts.directors.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, directors, 1)
	assert.True(t, directors[0].SameAs(d))

	assert.ErrorIs(t, ts.directors.Update(ctx, domain.RestoreDirector(500, "Ghost")), ErrDirectorNotFound)
}

func TestSQLDirectorStore_DeleteInUse(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	d := ts.director(t, "Akira Kurosawa")
	m := ts.movie(t, "Ikiru", d)

	count, err := ts.movies.CountByDirector(ctx, d.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = ts.directors.Delete(ctx, d.ID())
	assert.ErrorIs(t, err, ErrDirectorInUse)
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, ts.movies.Delete(ctx, m.ID()))
	require.NoError(t, ts.directors.Delete(ctx, d.ID()))
	_, err = ts.directors.GetByID(ctx, d.ID())
	assert.ErrorIs(t, err, ErrDirectorNotFound)
}

func TestSQLReviewStore_DuplicateAndHistogram(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	d := ts.director(t, "Lucrecia Martel")
	m := ts.movie(t, "Zama", d)
	u1 := ts.user(t, "alice")
	u2 := ts.user(t, "bob")
	u3 := ts.user(t, "carol")

	ts.review(t, u1, m, 4)
	ts.review(t, u2, m, 5)
	ts.review(t, u3, m, 4)

	dup, err := domain.NewReview("again", 1, u1, m)
	require.NoError(t, err)
	_, err = ts.reviews.Create(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateReview)
	assert.ErrorIs(t, err, domain.ErrConflict)

	exists, err := ts.reviews.ExistsByUserAndMovie(ctx, u1.ID(), m.ID())
	require.NoError(t, err)
	assert.True(t, exists)

	h, err := ts.reviews.StarHistogram(ctx, m.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StarHistogram{4: 2, 5: 1}, h)

	empty, err := ts.reviews.StarHistogram(ctx, 12345)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLReviewStore_UpdateDeleteAndLists(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	d := ts.director(t, "Kelly Reichardt")
	m1 := ts.movie(t, "First Cow", d)
	m2 := ts.movie(t, "Certain Women", d)
	u := ts.user(t, "dora")
	r1 := ts.review(t, u, m1, 3)
	r2 := ts.review(t, u, m2, 4)

	require.NoError(t, r1.Update("better on rewatch", 5))
	require.NoError(t, ts.reviews.Update(ctx, r1))

	got, err := ts.reviews.GetByID(ctx, r1.ID())
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stars())
	assert.Equal(t, "better on rewatch", got.Content())
	assert.Equal(t, m1.ID(), got.MovieID())
	assert.True(t, got.IsOwnedBy(u.ID()))

	byUser, err := ts.reviews.ListByUser(ctx, u.ID())
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	require.NoError(t, ts.reviews.Delete(ctx, r2.ID()))
	assert.ErrorIs(t, ts.reviews.Delete(ctx, r2.ID()), ErrReviewNotFound)

	byMovie, err := ts.reviews.ListByMovie(ctx, m2.ID())
	require.NoError(t, err)
	assert.Empty(t, byMovie)
}

func TestSQLUserStore(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	u := ts.user(t, "eve")
	got, err := ts.users.GetByID(ctx, u.ID())
	require.NoError(t, err)
	assert.Equal(t, "eve", got.Username())

	_, err = ts.users.Create(ctx, domain.RestoreUser(0, "eve"))
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = ts.users.GetByID(ctx, 9000)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSQLMovieStore_UnknownGenreInStorage(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	d := ts.director(t, "Sergio Leone")
	m := ts.movie(t, "Once Upon a Time in the West", d)
	_, err := ts.db.Exec(ts.db.Rebind("UPDATE movies SET genre = ? WHERE id = ?"), "WESTERN", int64(m.ID()))
	require.NoError(t, err)

	_, err = ts.movies.GetByID(ctx, m.ID())
	var dErr *domain.DecodeError
	require.True(t, errors.As(err, &dErr))
	assert.Equal(t, "genre", dErr.Column)
	assert.Equal(t, "WESTERN", dErr.Value)
}

func TestSQLMovieStore_UpdateRating(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	d := ts.director(t, "Abbas Kiarostami")
	m := ts.movie(t, "Close-Up", d)
	require.NoError(t, m.UpdateRating(3.7))
	require.NoError(t, ts.movies.UpdateRating(ctx, m))

	got, err := ts.movies.GetByID(ctx, m.ID())
	require.NoError(t, err)
	assert.Equal(t, 3.7, got.Rating())

	assert.ErrorIs(t, ts.movies.UpdateRating(ctx, m.Persisted(31337)), ErrMovieNotFound)
}
