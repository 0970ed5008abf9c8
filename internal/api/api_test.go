package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/rating"
	"catalog-service/internal/service"
	"catalog-service/internal/store"
	"catalog-service/pkg/auth"
)

type testAPI struct {
	t      *testing.T
	server *httptest.Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stores := store.NewMockStores(logger)
	registry := prometheus.NewRegistry()
	coord := rating.NewCoordinator(stores.Movies, stores.Reviews, rating.NewMetrics("test", registry), logger)
	notifier := rating.NewSyncNotifier(coord)

	tm, err := auth.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)

	h := NewHTTPHandler(Services{
		Movies:  service.NewMovieService(stores.Movies, stores.Actors, stores.Directors, notifier, logger),
		People:  service.NewPeopleService(stores.Actors, stores.Directors, stores.Movies, logger),
		Reviews: service.NewReviewService(stores.Reviews, stores.Movies, stores.Users, notifier, logger),
		Users:   service.NewUserService(stores.Users, logger),
	}, tm, logger, validator.New())

	srv := httptest.NewServer(NewRouter(h, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	t.Cleanup(srv.Close)
	return &testAPI{t: t, server: srv}
}

// do выполняет запрос и декодирует JSON-ответ в out, если он задан.
func (a *testAPI) do(method, path, token string, body interface{}, out interface{}) int {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *testAPI) user(name string) (int64, string) {
	a.t.Helper()
	var resp createUserResponse
	require.Equal(a.t, http.StatusCreated, a.do(http.MethodPost, "/api/users", "", map[string]string{"username": name}, &resp))
	require.NotEmpty(a.t, resp.Token)
	return resp.User.ID, resp.Token
}

func TestAPI_ReviewFlowKeepsRatingConsistent(t *testing.T) {
	a := newTestAPI(t)
	_, adminToken := a.user("curator")

	var director personResponse
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/directors", adminToken, map[string]string{"name": "Chloé Zhao"}, &director))
	var actor personResponse
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/actors", adminToken, map[string]string{"name": "Frances McDormand"}, &actor))

	var movie movieResponse
	status := a.do(http.MethodPost, "/api/movies", adminToken, map[string]interface{}{
		"title":        "Nomadland",
		"genre":        "DRAMA",
		"release_date": "2020-09-11",
		"director_id":  director.ID,
		"actor_ids":    []int64{actor.ID, actor.ID},
	}, &movie)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "2020-09-11", movie.ReleaseDate)
	assert.Equal(t, "BASIC", movie.RatingPolicy)
	require.Len(t, movie.Actors, 1)

	var reviewIDs []int64
	for i, stars := range []int{4, 5, 2} {
		_, token := a.user(fmt.Sprintf("viewer%d", i))
		var rv reviewResponse
		require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/reviews", token, map[string]interface{}{
			"movie_id": movie.ID, "rating": stars, "content": "seen it",
		}, &rv))
		reviewIDs = append(reviewIDs, rv.ID)
		if i == 0 {
			// второй отзыв того же пользователя
			assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/api/reviews", token, map[string]interface{}{
				"movie_id": movie.ID, "rating": 1,
			}, nil))
		}
	}

	var got movieResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, fmt.Sprintf("/api/movies/%d", movie.ID), "", nil, &got))
	assert.Equal(t, 3.7, got.Rating)

	var reviews []reviewResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, fmt.Sprintf("/api/movies/%d/reviews", movie.ID), "", nil, &reviews))
	assert.Len(t, reviews, 3)

	_, strangerToken := a.user("stranger")
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPut, fmt.Sprintf("/api/reviews/%d", reviewIDs[0]), strangerToken,
		map[string]interface{}{"rating": 1}, nil))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/api/reviews/9999", strangerToken, nil, nil))

	var policyResp movieResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodPut, fmt.Sprintf("/api/movies/%d/rating-policy", movie.ID), adminToken,
		map[string]string{"policy": "MEDIAN"}, &policyResp))
	assert.Equal(t, "MEDIAN", policyResp.RatingPolicy)
	assert.Equal(t, 4.0, policyResp.Rating)
}

func TestAPI_AuthAndValidation(t *testing.T) {
	a := newTestAPI(t)
	_, token := a.user("critic")

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/api/reviews", "", map[string]interface{}{"movie_id": 1, "rating": 3}, nil))
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/api/reviews", "garbage", map[string]interface{}{"movie_id": 1, "rating": 3}, nil))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/reviews", token, map[string]interface{}{"movie_id": 1, "rating": 9}, nil))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPost, "/api/reviews", token, map[string]interface{}{"movie_id": 1, "rating": 3}, nil))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/movies/abc", "", nil, nil))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/movies", token, map[string]interface{}{"title": "X", "genre": "WESTERN", "director_id": 1}, nil))
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/api/users", "", map[string]string{"username": "critic"}, nil))
}

func TestAPI_MovieSearchAndCast(t *testing.T) {
	a := newTestAPI(t)
	_, token := a.user("editor")

	var d personResponse
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/directors", token, map[string]string{"name": "Park Chan-wook"}, &d))
	var a1, a2 personResponse
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/actors", token, map[string]string{"name": "Choi Min-sik"}, &a1))
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/actors", token, map[string]string{"name": "Kim Min-hee"}, &a2))

	var m1, m2 movieResponse
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/movies", token, map[string]interface{}{"title": "Oldboy", "genre": "THRILLER", "director_id": d.ID, "actor_ids": []int64{a1.ID}}, &m1))
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/movies", token, map[string]interface{}{"title": "The Handmaiden", "genre": "DRAMA", "director_id": d.ID}, &m2))

	var cast movieResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodPut, fmt.Sprintf("/api/movies/%d/actors/%d", m2.ID, a2.ID), token, nil, &cast))
	require.Len(t, cast.Actors, 1)

	var found []movieResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/movies?actor=kim", "", nil, &found))
	require.Len(t, found, 1)
	assert.Equal(t, m2.ID, found[0].ID)

	require.Equal(t, http.StatusOK, a.do(http.MethodGet, fmt.Sprintf("/api/movies?director_id=%d", d.ID), "", nil, &found))
	assert.Len(t, found, 2)

	assert.Equal(t, http.StatusConflict, a.do(http.MethodDelete, fmt.Sprintf("/api/directors/%d", d.ID), token, nil, nil))
	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, fmt.Sprintf("/api/actors/%d", a1.ID), token, nil, nil))

	var old movieResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, fmt.Sprintf("/api/movies/%d", m1.ID), "", nil, &old))
	assert.Empty(t, old.Actors)

	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, fmt.Sprintf("/api/movies/%d", m1.ID), token, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, fmt.Sprintf("/api/movies/%d", m1.ID), "", nil, nil))
}

func TestAPI_MetricsEndpoint(t *testing.T) {
	a := newTestAPI(t)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/metrics", "", nil, nil))
}
