package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aonuma/task-tracker-api/internal/constants"
	"github.com/aonuma/task-tracker-api/internal/database"
	"github.com/aonuma/task-tracker-api/internal/dto"
	apierrors "github.com/aonuma/task-tracker-api/internal/errors"
	"github.com/aonuma/task-tracker-api/internal/models"
	"github.com/aonuma/task-tracker-api/internal/repository"
	"github.com/aonuma/task-tracker-api/internal/services"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type authHandlerTestEnv struct {
	db          *gorm.DB
	handler     *AuthHandler
	authService *services.AuthService
}

func setupAuthHandlerTestEnv(t *testing.T) authHandlerTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.Task{})
	require.NoError(t, err)

	database.SetDB(db)

	authService := services.NewAuthService(repository.NewUserRepository(db))
	handler := NewAuthHandler(authService)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	gin.SetMode(gin.TestMode)

	return authHandlerTestEnv{
		db:          db,
		handler:     handler,
		authService: authService,
	}
}

func newSessionRouter(env authHandlerTestEnv) *gin.Engine {
	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.POST("/signup", env.handler.Signup)
	r.POST("/login", env.handler.Login)
	r.GET("/logout", env.handler.Logout)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, url string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signupPayload() map[string]string {
	return map[string]string{
		"name":     "New User",
		"email":    "newuser@x.com",
		"username": "newuser",
		"password": "supersecret",
	}
}

func TestAuthHandler_Signup(t *testing.T) {
	env := setupAuthHandlerTestEnv(t)
	r := newSessionRouter(env)

	w := postJSON(t, r, "/signup", signupPayload())

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "newuser", response.Username)
	require.Equal(t, "newuser@x.com", response.Email)
}

func TestAuthHandler_Signup_Conflict(t *testing.T) {
	env := setupAuthHandlerTestEnv(t)
	r := newSessionRouter(env)

	require.Equal(t, http.StatusCreated, postJSON(t, r, "/signup", signupPayload()).Code)

	w := postJSON(t, r, "/signup", signupPayload())
	require.Equal(t, http.StatusConflict, w.Code)

	var apiErr apierrors.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	require.Equal(t, apierrors.ErrCodeConflict, apiErr.Code)

	var count int64
	env.db.Model(&models.User{}).Count(&count)
	require.EqualValues(t, 1, count)
}

func TestAuthHandler_Login(t *testing.T) {
	env := setupAuthHandlerTestEnv(t)
	r := newSessionRouter(env)

	require.Equal(t, http.StatusCreated, postJSON(t, r, "/signup", signupPayload()).Code)

	w := postJSON(t, r, "/login", map[string]string{
		"username": "newuser",
		"password": "supersecret",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "newuser", response.Username)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "expected session cookie to be set")
}

func TestAuthHandler_Login_ByEmail(t *testing.T) {
	env := setupAuthHandlerTestEnv(t)
	r := newSessionRouter(env)

	require.Equal(t, http.StatusCreated, postJSON(t, r, "/signup", signupPayload()).Code)

	w := postJSON(t, r, "/login", map[string]string{
		"username": "newuser@x.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	env := setupAuthHandlerTestEnv(t)
	r := newSessionRouter(env)

	require.Equal(t, http.StatusCreated, postJSON(t, r, "/signup", signupPayload()).Code)

	w := postJSON(t, r, "/login", map[string]string{
		"username": "newuser",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var apiErr apierrors.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	require.Equal(t, apierrors.ErrCodeInvalidCredentials, apiErr.Code)
}

// Form-encoded bodies work the same as JSON; the original surface posted
// HTML forms.
func TestAuthHandler_Login_FormEncoded(t *testing.T) {
	env := setupAuthHandlerTestEnv(t)
	r := newSessionRouter(env)

	require.Equal(t, http.StatusCreated, postJSON(t, r, "/signup", signupPayload()).Code)

	form := "username=newuser&password=supersecret"
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	env := setupAuthHandlerTestEnv(t)

	user, err := env.authService.Register(services.RegisterInput{
		Name:     "Current",
		Email:    "current@x.com",
		Username: "current-user",
		Password: "supersecret",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(constants.ContextKeyUserID, user.ID)

	env.handler.GetCurrentUser(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, user.Username, response.Username)
}
