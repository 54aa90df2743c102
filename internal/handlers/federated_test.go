package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aonuma/task-tracker-api/internal/constants"
	"github.com/aonuma/task-tracker-api/internal/federation"
	"github.com/aonuma/task-tracker-api/internal/logging"
	"github.com/aonuma/task-tracker-api/internal/models"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// stubProvider satisfies federation.Provider without any network traffic.
type stubProvider struct {
	profile federation.Profile
	err     error
}

func (s *stubProvider) AuthURL(state string) string {
	return "https://provider.example/auth?state=" + state
}

func (s *stubProvider) Exchange(_ context.Context, code string) (*federation.Token, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &federation.Token{AccessToken: "access-" + code}, nil
}

func (s *stubProvider) FetchProfile(_ context.Context, _ *federation.Token) (*federation.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &s.profile, nil
}

func newFederatedRouter(env authHandlerTestEnv, provider federation.Provider) *gin.Engine {
	handler := NewFederatedAuthHandler(provider, env.authService, logging.NewNop())

	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.GET("/login/google", handler.Begin)
	r.GET("/login/google/callback", handler.Callback)
	r.GET("/home", handler.Home)

	// Test-only hook to prime the session the way Callback would.
	r.GET("/prime-token", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(constants.SessionKeyOAuthToken, "access-token\n")
		_ = session.Save()
		c.Status(http.StatusOK)
	})

	return r
}

func get(r *gin.Engine, url string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, url, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFederatedAuthHandler_Begin(t *testing.T) {
	env := setupAuthHandlerTestEnv(t)
	r := newFederatedRouter(env, &stubProvider{})

	w := get(r, "/login/google", nil)

	require.Equal(t, http.StatusFound, w.Code)
	require.Contains(t, w.Header().Get("Location"), "https://provider.example/auth?state=")
	require.NotEmpty(t, w.Result().Cookies(), "state must be stored in the session")
}

func TestFederatedAuthHandler_Callback_InvalidState(t *testing.T) {
	env := setupAuthHandlerTestEnv(t)
	r := newFederatedRouter(env, &stubProvider{})

	w := get(r, "/login/google/callback?state=forged&code=abc", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFederatedAuthHandler_Home_WithoutHandshake(t *testing.T) {
	env := setupAuthHandlerTestEnv(t)
	r := newFederatedRouter(env, &stubProvider{})

	w := get(r, "/home", nil)

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login/google", w.Header().Get("Location"))
}

// First federated login lazily creates the account and signs it in.
func TestFederatedAuthHandler_Home_FirstLogin(t *testing.T) {
	env := setupAuthHandlerTestEnv(t)
	r := newFederatedRouter(env, &stubProvider{
		profile: federation.Profile{Email: "dana@x.com", Name: "Dana"},
	})

	primed := get(r, "/prime-token", nil)
	require.Equal(t, http.StatusOK, primed.Code)

	w := get(r, "/home", primed.Result().Cookies())

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/tasks", w.Header().Get("Location"))

	var user models.User
	require.NoError(t, env.db.Where("email = ?", "dana@x.com").First(&user).Error)
	require.Equal(t, "dana", user.Username)
	require.True(t, user.IsFederatedOnly())
}

// A returning federated user maps onto the existing account.
func TestFederatedAuthHandler_Home_ExistingUser(t *testing.T) {
	env := setupAuthHandlerTestEnv(t)

	existing, err := env.authService.FindOrCreateByEmail("dana@x.com", "Dana")
	require.NoError(t, err)

	r := newFederatedRouter(env, &stubProvider{
		profile: federation.Profile{Email: "dana@x.com", Name: "Dana"},
	})

	primed := get(r, "/prime-token", nil)
	w := get(r, "/home", primed.Result().Cookies())

	require.Equal(t, http.StatusFound, w.Code)

	var count int64
	env.db.Model(&models.User{}).Count(&count)
	require.EqualValues(t, 1, count)
	require.NotZero(t, existing.ID)
}
