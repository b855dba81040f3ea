package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voting-app/votingapp/internal/entity"
	"github.com/voting-app/votingapp/internal/lib/jwt"
	"github.com/voting-app/votingapp/internal/storage"
)

var testSecret = []byte("test-secret")

type stubUserProvider struct {
	users map[string]entity.User
}

func (s *stubUserProvider) User(ctx context.Context, username string) (entity.User, error) {
	user, ok := s.users[username]
	if !ok {
		return entity.User{}, storage.ErrUserNotFound
	}
	return user, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider := &stubUserProvider{users: map[string]entity.User{
		"alice": {ID: 1, Username: "alice", Email: "a@x.com"},
	}}

	m := NewAuthMiddleware(provider, testSecret)

	r := gin.New()
	r.Use(m.Identity())

	r.GET("/public", func(c *gin.Context) {
		username, ok := Username(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok, "username": username})
	})
	r.GET("/private", RequireAuth(), func(c *gin.Context) {
		username, _ := Username(c)
		c.JSON(http.StatusOK, gin.H{"username": username})
	})

	return r
}

func doGet(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdentity_NoToken_FallsThrough(t *testing.T) {
	r := newTestRouter(t)

	w := doGet(r, "/public", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)
}

func TestIdentity_ValidToken(t *testing.T) {
	r := newTestRouter(t)

	token, err := jwt.NewToken("alice", testSecret, time.Hour)
	require.NoError(t, err)

	w := doGet(r, "/private", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
}

func TestRequireAuth_NoToken(t *testing.T) {
	r := newTestRouter(t)

	w := doGet(r, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdentity_ExpiredToken(t *testing.T) {
	r := newTestRouter(t)

	token, err := jwt.NewToken("alice", testSecret, -time.Minute)
	require.NoError(t, err)

	w := doGet(r, "/private", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdentity_TamperedToken(t *testing.T) {
	r := newTestRouter(t)

	token, err := jwt.NewToken("alice", testSecret, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + "AAAA" + parts[2][4:]

	w := doGet(r, "/private", "Bearer "+tampered)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdentity_UnknownSubject(t *testing.T) {
	r := newTestRouter(t)

	// signed correctly but the subject does not resolve to a stored user
	token, err := jwt.NewToken("ghost", testSecret, time.Hour)
	require.NoError(t, err)

	w := doGet(r, "/private", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdentity_MalformedHeader(t *testing.T) {
	r := newTestRouter(t)

	token, err := jwt.NewToken("alice", testSecret, time.Hour)
	require.NoError(t, err)

	for _, header := range []string{"Token " + token, token, "Bearer", fmt.Sprintf("bearer %s", token)} {
		w := doGet(r, "/private", header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}
