package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khomenkoalx/api-yamdb/internal/auth"
	"github.com/khomenkoalx/api-yamdb/internal/cache/memory"
	"github.com/khomenkoalx/api-yamdb/internal/codes"
	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/repository"
	"github.com/khomenkoalx/api-yamdb/internal/repository/sqlite"
	"github.com/khomenkoalx/api-yamdb/internal/service"
)

// captureMailer records issued confirmation codes for the test flow.
type captureMailer struct {
	codes map[string]string
}

func (m *captureMailer) SendConfirmationCode(ctx context.Context, to, username, code string) error {
	m.codes[username] = code
	return nil
}

// testAPI is a full API stack over an in-memory SQLite database.
type testAPI struct {
	server *httptest.Server
	repos  *repository.Repositories
	mail   *captureMailer
	tokens auth.TokenManager
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()

	db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(":memory:"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))

	repos := sqlite.NewRepositories(db)

	cache := memory.NewCache()
	t.Cleanup(cache.Stop)
	codeStore := codes.NewStore(cache, time.Hour, logger)

	tokens, err := auth.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)

	mail := &captureMailer{codes: make(map[string]string)}
	policy := auth.Policy{}

	authSvc := service.NewAuthService(repos.User, codeStore, mail, tokens, logger)
	userSvc := service.NewUserService(repos.User, policy, logger)
	catalogSvc := service.NewCatalogService(repos.Category, repos.Genre, repos.Title, policy, logger)
	reviewSvc := service.NewReviewService(repos.Review, repos.Comment, repos.Title, policy, logger)

	router := NewRouter(RouterConfig{
		AuthHandler:    NewAuthHandler(authSvc, logger),
		UserHandler:    NewUserHandler(userSvc, logger),
		CatalogHandler: NewCatalogHandler(catalogSvc, logger),
		ReviewHandler:  NewReviewHandler(reviewSvc, logger),
		AuthMiddleware: auth.Middleware(tokens, repos.User),
		Logger:         logger,
	})

	server := httptest.NewServer(router.Handler())
	t.Cleanup(server.Close)

	return &testAPI{server: server, repos: repos, mail: mail, tokens: tokens}
}

// do sends a JSON request, optionally authenticated, and decodes the
// response body into out when it is non-nil.
func (a *testAPI) do(t *testing.T, method, path, token string, body, out interface{}) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// tokenFor runs the signup + exchange flow and returns a bearer token.
func (a *testAPI) tokenFor(t *testing.T, username string) string {
	t.Helper()

	status := a.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, status)

	var out struct {
		Token string `json:"token"`
	}
	status = a.do(t, http.MethodPost, "/api/v1/auth/token", "", map[string]string{
		"username":          username,
		"confirmation_code": a.mail.codes[username],
	}, &out)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, out.Token)
	return out.Token
}

// adminToken creates an admin account directly and mints its token.
func (a *testAPI) adminToken(t *testing.T) string {
	t.Helper()

	admin := domain.NewUser("admin", "admin@example.com")
	admin.Role = domain.RoleAdmin
	require.NoError(t, a.repos.User.Create(context.Background(), admin))

	token, err := a.tokens.Generate(admin)
	require.NoError(t, err)
	return token
}

func TestRouter_SignupAndTokenFlow(t *testing.T) {
	api := newTestAPI(t)

	token := api.tokenFor(t, "alice")

	var me struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	status := api.do(t, http.MethodGet, "/api/v1/users/me", token, nil, &me)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "user", me.Role)
}

func TestRouter_SignupRejectsReservedUsername(t *testing.T) {
	api := newTestAPI(t)

	var body map[string][]string
	status := api.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"username": "me",
		"email":    "me@example.com",
	}, &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "username")
}

func TestRouter_MeRequiresAuth(t *testing.T) {
	api := newTestAPI(t)

	status := api.do(t, http.MethodGet, "/api/v1/users/me", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRouter_InvalidTokenRejected(t *testing.T) {
	api := newTestAPI(t)

	status := api.do(t, http.MethodGet, "/api/v1/users/me", "garbage", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRouter_ProfileRoleIsReadOnly(t *testing.T) {
	api := newTestAPI(t)
	token := api.tokenFor(t, "alice")

	var me struct {
		Role string `json:"role"`
	}
	status := api.do(t, http.MethodPatch, "/api/v1/users/me", token, map[string]string{
		"role": "admin",
		"bio":  "just a reader",
	}, &me)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "user", me.Role)
}

func TestRouter_UserAdministration(t *testing.T) {
	api := newTestAPI(t)
	adminToken := api.adminToken(t)
	userToken := api.tokenFor(t, "alice")

	// Non-admins get 403.
	status := api.do(t, http.MethodGet, "/api/v1/users", userToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Admin creates a moderator.
	var created struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	status = api.do(t, http.MethodPost, "/api/v1/users", adminToken, map[string]string{
		"username": "mod",
		"email":    "mod@example.com",
		"role":     "moderator",
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "moderator", created.Role)

	// Admin promotes alice.
	status = api.do(t, http.MethodPatch, "/api/v1/users/alice", adminToken, map[string]string{
		"role": "moderator",
	}, nil)
	assert.Equal(t, http.StatusOK, status)

	// The promotion is effective on the next request with the old token.
	var me struct {
		Role string `json:"role"`
	}
	status = api.do(t, http.MethodGet, "/api/v1/users/me", userToken, nil, &me)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "moderator", me.Role)

	// Admin deletes.
	status = api.do(t, http.MethodDelete, "/api/v1/users/mod", adminToken, nil, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status = api.do(t, http.MethodGet, "/api/v1/users/mod", adminToken, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRouter_CatalogCRUD(t *testing.T) {
	api := newTestAPI(t)
	adminToken := api.adminToken(t)
	userToken := api.tokenFor(t, "alice")

	// Catalog writes are admin only.
	status := api.do(t, http.MethodPost, "/api/v1/categories", userToken, map[string]string{
		"name": "Books", "slug": "books",
	}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status = api.do(t, http.MethodPost, "/api/v1/categories", adminToken, map[string]string{
		"name": "Books", "slug": "books",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	status = api.do(t, http.MethodPost, "/api/v1/genres", adminToken, map[string]string{
		"name": "Drama", "slug": "drama",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	// Anonymous reads are fine.
	var list struct {
		Count   int64             `json:"count"`
		Results []json.RawMessage `json:"results"`
	}
	status = api.do(t, http.MethodGet, "/api/v1/categories", "", nil, &list)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), list.Count)

	// Titles.
	var title struct {
		ID     int64    `json:"id"`
		Rating *float64 `json:"rating"`
	}
	status = api.do(t, http.MethodPost, "/api/v1/titles", adminToken, map[string]interface{}{
		"name":     "War and Peace",
		"year":     1869,
		"category": "books",
		"genre":    []string{"drama"},
	}, &title)
	require.Equal(t, http.StatusCreated, status)
	assert.Nil(t, title.Rating)

	// Future year rejected with a field-keyed 400.
	var fieldsBody map[string][]string
	status = api.do(t, http.MethodPost, "/api/v1/titles", adminToken, map[string]interface{}{
		"name":     "Prophecy",
		"year":     time.Now().Year() + 1,
		"category": "books",
		"genre":    []string{"drama"},
	}, &fieldsBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, fieldsBody, "year")
}

func TestRouter_ReviewsAndRating(t *testing.T) {
	api := newTestAPI(t)
	adminToken := api.adminToken(t)
	alice := api.tokenFor(t, "alice")
	bob := api.tokenFor(t, "bob")

	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/v1/categories", adminToken,
		map[string]string{"name": "Books", "slug": "books"}, nil))
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/v1/genres", adminToken,
		map[string]string{"name": "Drama", "slug": "drama"}, nil))

	var title struct {
		ID int64 `json:"id"`
	}
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/v1/titles", adminToken,
		map[string]interface{}{"name": "War and Peace", "year": 1869, "category": "books", "genre": []string{"drama"}}, &title))

	reviewsPath := fmt.Sprintf("/api/v1/titles/%d/reviews", title.ID)

	// Anonymous cannot review.
	status := api.do(t, http.MethodPost, reviewsPath, "", map[string]interface{}{"text": "x", "score": 5}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	var review struct {
		ID     int64  `json:"id"`
		Author string `json:"author"`
	}
	status = api.do(t, http.MethodPost, reviewsPath, alice, map[string]interface{}{"text": "Great.", "score": 10}, &review)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "alice", review.Author)

	// Second review by the same author is rejected.
	status = api.do(t, http.MethodPost, reviewsPath, alice, map[string]interface{}{"text": "Again.", "score": 5}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// Bob reviews too; the rating becomes the mean of both scores.
	status = api.do(t, http.MethodPost, reviewsPath, bob, map[string]interface{}{"text": "Fine.", "score": 5}, nil)
	require.Equal(t, http.StatusCreated, status)

	var got struct {
		Rating *float64 `json:"rating"`
	}
	status = api.do(t, http.MethodGet, fmt.Sprintf("/api/v1/titles/%d", title.ID), "", nil, &got)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, got.Rating)
	assert.InDelta(t, 7.5, *got.Rating, 0.001)

	// Bob cannot edit alice's review.
	reviewPath := fmt.Sprintf("%s/%d", reviewsPath, review.ID)
	status = api.do(t, http.MethodPatch, reviewPath, bob, map[string]interface{}{"text": "Hijack."}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Alice can; rating follows the updated score.
	status = api.do(t, http.MethodPatch, reviewPath, alice, map[string]interface{}{"score": 7}, nil)
	assert.Equal(t, http.StatusOK, status)

	status = api.do(t, http.MethodGet, fmt.Sprintf("/api/v1/titles/%d", title.ID), "", nil, &got)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, got.Rating)
	assert.InDelta(t, 6.0, *got.Rating, 0.001)

	// Comments.
	commentsPath := reviewPath + "/comments"
	var comment struct {
		ID int64 `json:"id"`
	}
	status = api.do(t, http.MethodPost, commentsPath, bob, map[string]string{"text": "Agreed."}, &comment)
	require.Equal(t, http.StatusCreated, status)

	// Unknown nested parents are 404s.
	status = api.do(t, http.MethodGet, "/api/v1/titles/999/reviews", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status = api.do(t, http.MethodGet, fmt.Sprintf("/api/v1/titles/%d/reviews/999", title.ID), "", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRouter_ReviewErrorMessages(t *testing.T) {
	api := newTestAPI(t)
	adminToken := api.adminToken(t)
	alice := api.tokenFor(t, "alice")

	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/v1/categories", adminToken,
		map[string]string{"name": "Books", "slug": "books"}, nil))
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/v1/genres", adminToken,
		map[string]string{"name": "Drama", "slug": "drama"}, nil))

	var title struct {
		ID int64 `json:"id"`
	}
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/v1/titles", adminToken,
		map[string]interface{}{"name": "War and Peace", "year": 1869, "category": "books", "genre": []string{"drama"}}, &title))

	reviewsPath := fmt.Sprintf("/api/v1/titles/%d/reviews", title.ID)

	// A submitted zero reaches the range check and names the lower bound.
	var errs map[string][]string
	status := api.do(t, http.MethodPost, reviewsPath, alice, map[string]interface{}{"text": "x", "score": 0}, &errs)
	assert.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, errs, "score")
	assert.Equal(t, []string{"score must be at least 1"}, errs["score"])

	errs = nil
	status = api.do(t, http.MethodPost, reviewsPath, alice, map[string]interface{}{"text": "x", "score": 11}, &errs)
	assert.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, errs, "score")
	assert.Equal(t, []string{"score must be at most 10"}, errs["score"])

	// An omitted score is still a missing-field error.
	errs = nil
	status = api.do(t, http.MethodPost, reviewsPath, alice, map[string]interface{}{"text": "x"}, &errs)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errs, "score")

	// The duplicate-review conflict names the title.
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, reviewsPath, alice,
		map[string]interface{}{"text": "First.", "score": 5}, nil))
	errs = nil
	status = api.do(t, http.MethodPost, reviewsPath, alice, map[string]interface{}{"text": "Second.", "score": 6}, &errs)
	assert.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, errs, "non_field_errors")
	require.Len(t, errs["non_field_errors"], 1)
	assert.Contains(t, errs["non_field_errors"][0], `"War and Peace"`)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	api := newTestAPI(t)

	req, err := http.NewRequest(http.MethodPut, api.server.URL+"/api/v1/categories", bytes.NewReader(nil))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRouter_TrailingSlashTolerated(t *testing.T) {
	api := newTestAPI(t)

	status := api.do(t, http.MethodGet, "/api/v1/categories/", "", nil, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestRouter_Health(t *testing.T) {
	api := newTestAPI(t)

	var body map[string]string
	status := api.do(t, http.MethodGet, "/health", "", nil, &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
}
