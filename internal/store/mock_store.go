// internal/store/mock_store.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"catalog-service/internal/domain"
)

// memoryDB - общее состояние in-memory хранилищ. Таблицы повторяют схему SQL,
// фильмы собираются теми же декодером и сборщиком, что и в SQL-хранилище.
type memoryDB struct {
	mu        sync.RWMutex
	seq       int64
	movies    map[domain.ID]domain.MovieState
	links     map[domain.ID]map[domain.ID]struct{}
	actors    map[domain.ID]string
	directors map[domain.ID]string
	reviews   map[domain.ID]domain.ReviewState
	users     map[domain.ID]string
	logger    *slog.Logger
}

func (m *memoryDB) nextID() domain.ID {
	m.seq++
	return domain.ID(m.seq)
}

// MockStores - набор in-memory хранилищ над одним состоянием. Используется
// в тестах и в режиме CATALOG_STORAGE=memory.
type MockStores struct {
	Movies    *MockMovieStore
	Actors    *MockActorStore
	Directors *MockDirectorStore
	Reviews   *MockReviewStore
	Users     *MockUserStore
}

func NewMockStores(logger *slog.Logger) *MockStores {
	db := &memoryDB{
		movies:    make(map[domain.ID]domain.MovieState),
		links:     make(map[domain.ID]map[domain.ID]struct{}),
		actors:    make(map[domain.ID]string),
		directors: make(map[domain.ID]string),
		reviews:   make(map[domain.ID]domain.ReviewState),
		users:     make(map[domain.ID]string),
		logger:    logger,
	}
	return &MockStores{
		Movies:    &MockMovieStore{db: db},
		Actors:    &MockActorStore{db: db},
		Directors: &MockDirectorStore{db: db},
		Reviews:   &MockReviewStore{db: db},
		Users:     &MockUserStore{db: db},
	}
}

type MockMovieStore struct {
	db *memoryDB
}

func (s *MockMovieStore) Create(ctx context.Context, movie *domain.Movie) (*domain.Movie, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	st := movie.State()
	if _, ok := s.db.directors[st.Director.ID()]; !ok {
		return nil, ErrDirectorNotFound
	}
	for _, a := range st.Actors {
		if _, ok := s.db.actors[a.ID()]; !ok {
			return nil, fmt.Errorf("failed to link actors to movie: %w", ErrActorNotFound)
		}
	}

	id := s.db.nextID()
	st.ID = id
	st.Actors = nil
	s.db.movies[id] = st
	s.db.replaceLinks(id, movie.ActorIDs())
	s.db.logger.DebugContext(ctx, "[MOCK STORE] Movie created", slog.Int64("movieID", int64(id)))
	return movie.Persisted(id), nil
}

func (s *MockMovieStore) GetByID(ctx context.Context, id domain.ID) (*domain.Movie, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	movies, err := s.db.assemble(func(st domain.MovieState) bool { return st.ID == id })
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, ErrMovieNotFound
	}
	return movies[0], nil
}

func (s *MockMovieStore) List(ctx context.Context, filter MovieFilter) ([]*domain.Movie, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return s.db.assemble(func(st domain.MovieState) bool { return s.db.matches(st, filter) })
}

func (s *MockMovieStore) Update(ctx context.Context, movie *domain.Movie) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	st := movie.State()
	stored, ok := s.db.movies[st.ID]
	if !ok {
		return ErrMovieNotFound
	}
	if _, ok := s.db.directors[st.Director.ID()]; !ok {
		return ErrDirectorNotFound
	}
	for _, a := range st.Actors {
		if _, ok := s.db.actors[a.ID()]; !ok {
			return fmt.Errorf("failed to link actors to movie %d: %w", st.ID, ErrActorNotFound)
		}
	}
	st.Rating = stored.Rating
	st.Actors = nil
	s.db.movies[st.ID] = st
	s.db.replaceLinks(st.ID, movie.ActorIDs())
	return nil
}

func (s *MockMovieStore) UpdateRating(ctx context.Context, movie *domain.Movie) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	stored, ok := s.db.movies[movie.ID()]
	if !ok {
		return ErrMovieNotFound
	}
	stored.Rating = movie.Rating()
	s.db.movies[movie.ID()] = stored
	return nil
}

func (s *MockMovieStore) Delete(ctx context.Context, id domain.ID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.movies[id]; !ok {
		return ErrMovieNotFound
	}
	delete(s.db.links, id)
	for rid, r := range s.db.reviews {
		if r.MovieID == id {
			delete(s.db.reviews, rid)
		}
	}
	delete(s.db.movies, id)
	return nil
}

func (s *MockMovieStore) CountByDirector(ctx context.Context, directorID domain.ID) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	count := 0
	for _, st := range s.db.movies {
		if st.Director.ID() == directorID {
			count++
		}
	}
	return count, nil
}

func (m *memoryDB) replaceLinks(movieID domain.ID, actorIDs []domain.ID) {
	set := make(map[domain.ID]struct{}, len(actorIDs))
	for _, id := range actorIDs {
		set[id] = struct{}{}
	}
	m.links[movieID] = set
}

// assemble строит строки соединения в порядке (movie id, actor id) и
// сворачивает их так же, как SQL-хранилище.
func (m *memoryDB) assemble(keep func(domain.MovieState) bool) ([]*domain.Movie, error) {
	ids := make([]domain.ID, 0, len(m.movies))
	for id, st := range m.movies {
		if keep(st) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var rows []movieRow
	for _, id := range ids {
		st := m.movies[id]
		base := movieRow{
			ID:           int64(st.ID),
			Title:        st.Title,
			Genre:        string(st.Genre),
			Description:  sql.NullString{String: st.Description, Valid: st.Description != ""},
			ReleaseDate:  sql.NullTime{Time: st.ReleaseDate, Valid: !st.ReleaseDate.IsZero()},
			Rating:       st.Rating,
			RatingPolicy: string(st.RatingPolicy),
			DirectorID:   int64(st.Director.ID()),
			DirectorName: m.directors[st.Director.ID()],
		}
		actorIDs := m.linkedActors(id)
		if len(actorIDs) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, actorID := range actorIDs {
			row := base
			row.ActorID = sql.NullInt64{Int64: int64(actorID), Valid: true}
			row.ActorName = sql.NullString{String: m.actors[actorID], Valid: true}
			rows = append(rows, row)
		}
	}
	return assembleMovies(rows)
}

func (m *memoryDB) linkedActors(movieID domain.ID) []domain.ID {
	ids := make([]domain.ID, 0, len(m.links[movieID]))
	for id := range m.links[movieID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *memoryDB) matches(st domain.MovieState, f MovieFilter) bool {
	if f.DirectorID.Assigned() && st.Director.ID() != f.DirectorID {
		return false
	}
	if f.TitleContains != "" && !containsFold(st.Title, f.TitleContains) {
		return false
	}
	if f.DirectorNameContains != "" && !containsFold(m.directors[st.Director.ID()], f.DirectorNameContains) {
		return false
	}
	if f.ActorID.Assigned() {
		if _, ok := m.links[st.ID][f.ActorID]; !ok {
			return false
		}
	}
	if f.ActorNameContains != "" {
		found := false
		for actorID := range m.links[st.ID] {
			if containsFold(m.actors[actorID], f.ActorNameContains) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

type MockActorStore struct {
	db *memoryDB
}

func (s *MockActorStore) Create(ctx context.Context, actor domain.Actor) (domain.Actor, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	id := s.db.nextID()
	s.db.actors[id] = actor.Name()
	return actor.Persisted(id), nil
}

func (s *MockActorStore) GetByID(ctx context.Context, id domain.ID) (domain.Actor, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	name, ok := s.db.actors[id]
	if !ok {
		return domain.Actor{}, ErrActorNotFound
	}
	return domain.RestoreActor(id, name), nil
}

func (s *MockActorStore) GetByIDs(ctx context.Context, ids []domain.ID) ([]domain.Actor, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	actors := make([]domain.Actor, 0, len(ids))
	for _, id := range ids {
		name, ok := s.db.actors[id]
		if !ok {
			return nil, fmt.Errorf("%w: id %d", ErrActorNotFound, id)
		}
		actors = append(actors, domain.RestoreActor(id, name))
	}
	return actors, nil
}

func (s *MockActorStore) List(ctx context.Context, nameContains string) ([]domain.Actor, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	actors := make([]domain.Actor, 0, len(s.db.actors))
	for _, id := range sortedIDs(s.db.actors) {
		if nameContains == "" || containsFold(s.db.actors[id], nameContains) {
			actors = append(actors, domain.RestoreActor(id, s.db.actors[id]))
		}
	}
	return actors, nil
}

func (s *MockActorStore) Update(ctx context.Context, actor domain.Actor) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.actors[actor.ID()]; !ok {
		return ErrActorNotFound
	}
	s.db.actors[actor.ID()] = actor.Name()
	return nil
}

func (s *MockActorStore) Delete(ctx context.Context, id domain.ID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.actors[id]; !ok {
		return ErrActorNotFound
	}
	for _, set := range s.db.links {
		delete(set, id)
	}
	delete(s.db.actors, id)
	return nil
}

type MockDirectorStore struct {
	db *memoryDB
}

func (s *MockDirectorStore) Create(ctx context.Context, director domain.Director) (domain.Director, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	id := s.db.nextID()
	s.db.directors[id] = director.Name()
	return director.Persisted(id), nil
}

func (s *MockDirectorStore) GetByID(ctx context.Context, id domain.ID) (domain.Director, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	name, ok := s.db.directors[id]
	if !ok {
		return domain.Director{}, ErrDirectorNotFound
	}
	return domain.RestoreDirector(id, name), nil
}

func (s *MockDirectorStore) List(ctx context.Context, nameContains string) ([]domain.Director, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	directors := make([]domain.Director, 0, len(s.db.directors))
	for _, id := range sortedIDs(s.db.directors) {
		if nameContains == "" || containsFold(s.db.directors[id], nameContains) {
			directors = append(directors, domain.RestoreDirector(id, s.db.directors[id]))
		}
	}
	return directors, nil
}

func (s *MockDirectorStore) Update(ctx context.Context, director domain.Director) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.directors[director.ID()]; !ok {
		return ErrDirectorNotFound
	}
	s.db.directors[director.ID()] = director.Name()
	return nil
}

func (s *MockDirectorStore) Delete(ctx context.Context, id domain.ID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.directors[id]; !ok {
		return ErrDirectorNotFound
	}
	for _, st := range s.db.movies {
		if st.Director.ID() == id {
			return ErrDirectorInUse
		}
	}
	delete(s.db.directors, id)
	return nil
}

type MockReviewStore struct {
	db *memoryDB
}

func (s *MockReviewStore) Create(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	st := review.State()
	if _, ok := s.db.movies[st.MovieID]; !ok {
		return nil, ErrMovieNotFound
	}
	if _, ok := s.db.users[st.UserID]; !ok {
		return nil, ErrUserNotFound
	}
	for _, r := range s.db.reviews {
		if r.UserID == st.UserID && r.MovieID == st.MovieID {
			return nil, ErrDuplicateReview
		}
	}
	id := s.db.nextID()
	persisted := review.Persisted(id, time.Now().UTC())
	s.db.reviews[id] = persisted.State()
	return persisted, nil
}

func (s *MockReviewStore) GetByID(ctx context.Context, id domain.ID) (*domain.Review, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	st, ok := s.db.reviews[id]
	if !ok {
		return nil, ErrReviewNotFound
	}
	return domain.RestoreReview(st), nil
}

func (s *MockReviewStore) Update(ctx context.Context, review *domain.Review) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stored, ok := s.db.reviews[review.ID()]
	if !ok {
		return ErrReviewNotFound
	}
	review.Touch(time.Now().UTC())
	stored.Content = review.Content()
	stored.Stars = review.Stars()
	stored.UpdatedAt = review.UpdatedAt()
	s.db.reviews[review.ID()] = stored
	return nil
}

func (s *MockReviewStore) Delete(ctx context.Context, id domain.ID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.reviews[id]; !ok {
		return ErrReviewNotFound
	}
	delete(s.db.reviews, id)
	return nil
}

func (s *MockReviewStore) ListByMovie(ctx context.Context, movieID domain.ID) ([]*domain.Review, error) {
	return s.list(func(r domain.ReviewState) bool { return r.MovieID == movieID }), nil
}

func (s *MockReviewStore) ListByUser(ctx context.Context, userID domain.ID) ([]*domain.Review, error) {
	return s.list(func(r domain.ReviewState) bool { return r.UserID == userID }), nil
}

// list возвращает отзывы новыми первыми, как SQL-хранилище.
func (s *MockReviewStore) list(keep func(domain.ReviewState) bool) []*domain.Review {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var states []domain.ReviewState
	for _, r := range s.db.reviews {
		if keep(r) {
			states = append(states, r)
		}
	}
	sort.Slice(states, func(i, j int) bool {
		if !states[i].CreatedAt.Equal(states[j].CreatedAt) {
			return states[i].CreatedAt.After(states[j].CreatedAt)
		}
		return states[i].ID > states[j].ID
	})
	reviews := make([]*domain.Review, 0, len(states))
	for _, st := range states {
		reviews = append(reviews, domain.RestoreReview(st))
	}
	return reviews
}

func (s *MockReviewStore) ExistsByUserAndMovie(ctx context.Context, userID, movieID domain.ID) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, r := range s.db.reviews {
		if r.UserID == userID && r.MovieID == movieID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MockReviewStore) StarHistogram(ctx context.Context, movieID domain.ID) (domain.StarHistogram, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	h := make(domain.StarHistogram)
	for _, r := range s.db.reviews {
		if r.MovieID == movieID {
			h[r.Stars]++
		}
	}
	return h, nil
}

type MockUserStore struct {
	db *memoryDB
}

func (s *MockUserStore) Create(ctx context.Context, user domain.User) (domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, name := range s.db.users {
		if name == user.Username() {
			return domain.User{}, ErrUsernameTaken
		}
	}
	id := s.db.nextID()
	s.db.users[id] = user.Username()
	return user.Persisted(id), nil
}

func (s *MockUserStore) GetByID(ctx context.Context, id domain.ID) (domain.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	name, ok := s.db.users[id]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return domain.RestoreUser(id, name), nil
}

func sortedIDs(m map[domain.ID]string) []domain.ID {
	ids := make([]domain.ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

var (
	_ MovieStore    = (*MockMovieStore)(nil)
	_ ActorStore    = (*MockActorStore)(nil)
	_ DirectorStore = (*MockDirectorStore)(nil)
	_ ReviewStore   = (*MockReviewStore)(nil)
	_ UserStore     = (*MockUserStore)(nil)

	_ MovieStore    = (*SQLMovieStore)(nil)
	_ ActorStore    = (*SQLActorStore)(nil)
	_ DirectorStore = (*SQLDirectorStore)(nil)
	_ ReviewStore   = (*SQLReviewStore)(nil)
	_ UserStore     = (*SQLUserStore)(nil)
)
