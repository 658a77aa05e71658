package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkravets/photoshare-service/internal/auth"
	"github.com/dkravets/photoshare-service/internal/config"
	"github.com/dkravets/photoshare-service/internal/integrations/imagecdn"
	"github.com/dkravets/photoshare-service/internal/middleware"
	"github.com/dkravets/photoshare-service/internal/repository"
	"github.com/dkravets/photoshare-service/internal/service"
	"github.com/dkravets/photoshare-service/internal/utils/email"
)

type memBlacklist map[string]bool

func (b memBlacklist) Add(_ context.Context, jti string, _ time.Time) error {
	b[jti] = true
	return nil
}

func (b memBlacklist) Contains(_ context.Context, jti string) (bool, error) {
	return b[jti], nil
}

type fixture struct {
	mock   sqlmock.Sqlmock
	tokens *auth.TokenManager
	router *mux.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		JWTSecret:      "test-secret",
		AccessTTL:      time.Minute,
		RefreshTTL:     time.Hour,
		CDNCloudName:   "testcloud",
		CDNUploadURL:   "https://api.cloudinary.com/v1_1",
		CDNDeliveryURL: "https://res.cloudinary.com",
		CDNFolder:      "photoshare",
	}
	repo := repository.NewRepository(db)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	blacklist := memBlacklist{}
	svc := service.NewService(repo, logger, cfg, tokens,
		blacklist, imagecdn.NewClient(cfg, logger), email.NewSender(cfg, logger))
	h := NewHandler(svc, logger)

	r := mux.NewRouter()
	r.HandleFunc("/auth/signup", h.Signup).Methods("POST")
	r.HandleFunc("/auth/login", h.Login).Methods("POST")

	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(tokens, blacklist, repo, logger))
	authRouter.HandleFunc("/photos/{id:[0-9]+}", h.UpdatePhoto).Methods("PUT")
	authRouter.HandleFunc("/ratings/{photo_id:[0-9]+}", h.CreateRating).Methods("POST")

	r.HandleFunc("/photos", h.ListPhotos).Methods("GET")
	r.HandleFunc("/photos/{id:[0-9]+}", h.GetPhoto).Methods("GET")
	r.HandleFunc("/ratings/photo/{photo_id:[0-9]+}", h.PhotoRating).Methods("GET")

	return &fixture{mock: mock, tokens: tokens, router: r}
}

func (f *fixture) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// loginAs issues a token for the user and queues its middleware lookup.
func (f *fixture) loginAs(t *testing.T, userID int64) string {
	t.Helper()
	now := time.Now()
	f.mock.ExpectQuery(`SELECT id, username, email`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "password_hash", "role", "banned", "created_at", "updated_at",
		}).AddRow(userID, "alice", "alice@example.com", "hash", "user", false, now, now))

	pair, err := f.tokens.IssuePair(userID)
	require.NoError(t, err)
	return pair.AccessToken
}

func (f *fixture) expectPhoto(photoID, ownerID int64) {
	now := time.Now()
	f.mock.ExpectQuery(`SELECT(.|\n)+FROM photos p`).
		WithArgs(photoID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "username", "url", "public_id", "description",
			"created_at", "updated_at", "avg", "count",
		}).AddRow(photoID, ownerID, "owner", "https://cdn.test/p.jpg", "photoshare/p", "a photo", now, now, nil, 0))
	f.mock.ExpectQuery(`SELECT pt.photo_id, t.name`).
		WillReturnRows(sqlmock.NewRows([]string{"photo_id", "name"}))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestSignup(t *testing.T) {
	f := newFixture(t)

	now := time.Now()
	f.mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(1), now, now))

	w := f.do(t, http.MethodPost, "/auth/signup",
		`{"username":"alice","email":"alice@example.com","password":"password123"}`, "")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
	assert.NotContains(t, w.Body.String(), "password", "hash must never leak")
}

func TestSignupDuplicate(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	w := f.do(t, http.MethodPost, "/auth/signup",
		`{"username":"alice","email":"alice@example.com","password":"password123"}`, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", errorCode(t, w))
}

func TestSignupMalformedBody(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/auth/signup", `{"username":`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", errorCode(t, w))
}

func TestGetPhotoNotFound(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(`SELECT(.|\n)+FROM photos p`).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "username", "url", "public_id", "description",
			"created_at", "updated_at", "avg", "count",
		}))

	w := f.do(t, http.MethodGet, "/photos/404", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", errorCode(t, w))
}

func TestListPhotosEnvelope(t *testing.T) {
	f := newFixture(t)

	now := time.Now()
	f.mock.ExpectQuery(`SELECT(.|\n)+FROM photos p`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "username", "url", "public_id", "description",
			"created_at", "updated_at", "avg", "count",
		}).AddRow(int64(1), int64(2), "alice", "https://cdn.test/p.jpg", "photoshare/p", "", now, now, 4.5, 2))
	f.mock.ExpectQuery(`SELECT pt.photo_id, t.name`).
		WillReturnRows(sqlmock.NewRows([]string{"photo_id", "name"}).AddRow(int64(1), "nature"))
	f.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM photos`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(41))

	w := f.do(t, http.MethodGet, "/photos?page=2&size=20", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Items []struct {
			AverageRating *float64 `json:"average_rating"`
			Tags          []string `json:"tags"`
		} `json:"items"`
		Total int `json:"total"`
		Page  int `json:"page"`
		Pages int `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	require.NotNil(t, body.Items[0].AverageRating)
	assert.Equal(t, 4.5, *body.Items[0].AverageRating)
	assert.Equal(t, []string{"nature"}, body.Items[0].Tags)
	assert.Equal(t, 41, body.Total)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 3, body.Pages)
}

func TestCreateRating(t *testing.T) {
	f := newFixture(t)
	token := f.loginAs(t, 3)

	f.expectPhoto(10, 1)
	f.mock.ExpectQuery(`INSERT INTO ratings`).
		WithArgs(int64(10), int64(3), 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now()))

	w := f.do(t, http.MethodPost, "/ratings/10", `{"score":5}`, token)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateRatingUnauthenticated(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/ratings/10", `{"score":5}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRatingOwnPhoto(t *testing.T) {
	f := newFixture(t)
	token := f.loginAs(t, 1)

	f.expectPhoto(10, 1)

	w := f.do(t, http.MethodPost, "/ratings/10", `{"score":5}`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", errorCode(t, w))
}

func TestCreateRatingDuplicate(t *testing.T) {
	f := newFixture(t)
	token := f.loginAs(t, 3)

	f.expectPhoto(10, 1)
	f.mock.ExpectQuery(`INSERT INTO ratings`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "ratings_photo_user_unique"})

	w := f.do(t, http.MethodPost, "/ratings/10", `{"score":5}`, token)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", errorCode(t, w))
}

func TestPhotoRatingAggregate(t *testing.T) {
	f := newFixture(t)

	f.expectPhoto(10, 1)
	f.mock.ExpectQuery(`SELECT AVG\(score\)`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"avg", "count"}).AddRow(nil, 0))

	w := f.do(t, http.MethodGet, "/ratings/photo/10", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var stats struct {
		Average *float64 `json:"average"`
		Count   int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Nil(t, stats.Average)
	assert.Equal(t, 0, stats.Count)
}

func TestUpdatePhotoForbidden(t *testing.T) {
	f := newFixture(t)
	token := f.loginAs(t, 9)

	f.expectPhoto(10, 1)

	w := f.do(t, http.MethodPut, "/photos/10", `{"description":"mine"}`, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", errorCode(t, w))
}

func TestNewPageBody(t *testing.T) {
	assert.Equal(t, 3, newPageBody(nil, 41, 1, 20).Pages)
	assert.Equal(t, 1, newPageBody(nil, 20, 1, 20).Pages)
	assert.Equal(t, 0, newPageBody(nil, 0, 1, 20).Pages)
}
