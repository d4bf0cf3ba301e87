package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/book-rental-backend/internal/auth"
	"github.com/nekogravitycat/book-rental-backend/internal/user"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubUsers struct {
	user.Service
	users map[string]*user.User
}

func (s stubUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func newTestRouter(db Pinger) (*gin.Engine, *auth.JWTManager) {
	gin.SetMode(gin.TestMode)
	jwtManager := auth.NewJWTManager("test-secret", time.Minute)
	r := NewRouter(Config{
		JWTManager: jwtManager,
		DB:         db,
		UserService: stubUsers{users: map[string]*user.User{
			"active":   {ID: "active", Email: "a@library.org", IsActive: true},
			"inactive": {ID: "inactive", Email: "i@library.org", IsActive: false},
		}},
	})
	return r, jwtManager
}

func serve(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(stubPinger{})
	w := serve(r, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	r, _ = newTestRouter(stubPinger{err: errors.New("db down")})
	w = serve(r, "GET", "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(stubPinger{})
	w := serve(r, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "book_rental_rental_created_total")
}

func TestProtectedRoutes(t *testing.T) {
	r, jwtManager := newTestRouter(stubPinger{})

	inactiveToken, err := jwtManager.GenerateAccessToken("inactive")
	require.NoError(t, err)
	deletedToken, err := jwtManager.GenerateAccessToken("deleted")
	require.NoError(t, err)

	paths := []string{
		"/v1/books",
		"/v1/customers",
		"/v1/rentals",
		"/v1/calendar?from=2024-01-01&to=2024-01-31",
		"/v1/books/6f1c2b8e-3a4d-4e5f-8a9b-0c1d2e3f4a5b/blocked-ranges",
		"/files/6f1c2b8e-3a4d-4e5f-8a9b-0c1d2e3f4a5b",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, serve(r, "GET", path, "").Code)
			assert.Equal(t, http.StatusForbidden, serve(r, "GET", path, inactiveToken).Code)
			assert.Equal(t, http.StatusUnauthorized, serve(r, "GET", path, deletedToken).Code)
		})
	}
}

func TestChainStopsAtFirstAbort(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var ran []string
	r := gin.New()
	r.GET("/", chain(
		func(c *gin.Context) { ran = append(ran, "first") },
		func(c *gin.Context) { ran = append(ran, "second"); c.AbortWithStatus(http.StatusTeapot) },
		func(c *gin.Context) { ran = append(ran, "third") },
	), func(c *gin.Context) { ran = append(ran, "handler") })

	w := serve(r, "GET", "/", "")
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, []string{"first", "second"}, ran)
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, splitOrigins(" https://a.example, ,https://b.example "))
	assert.Empty(t, splitOrigins(""))
}
