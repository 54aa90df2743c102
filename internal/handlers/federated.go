package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/aonuma/task-tracker-api/internal/constants"
	apierrors "github.com/aonuma/task-tracker-api/internal/errors"
	"github.com/aonuma/task-tracker-api/internal/federation"
	"github.com/aonuma/task-tracker-api/internal/services"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FederatedAuthHandler drives the identity-provider login flow. It only
// talks to the federation.Provider interface; the handshake protocol lives
// behind it.
type FederatedAuthHandler struct {
	provider    federation.Provider
	authService *services.AuthService
	logger      *zap.SugaredLogger
}

// NewFederatedAuthHandler creates a new FederatedAuthHandler.
func NewFederatedAuthHandler(provider federation.Provider, authService *services.AuthService, logger *zap.SugaredLogger) *FederatedAuthHandler {
	return &FederatedAuthHandler{
		provider:    provider,
		authService: authService,
		logger:      logger,
	}
}

// Begin redirects the browser to the provider's consent URL.
func (h *FederatedAuthHandler) Begin(c *gin.Context) {
	state, err := randomState()
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	session := sessions.Default(c)
	session.Set(constants.SessionKeyOAuthState, state)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.Redirect(http.StatusFound, h.provider.AuthURL(state))
}

// Callback completes the handshake: verifies state, exchanges the code, and
// stashes the provider token in the session for Home.
func (h *FederatedAuthHandler) Callback(c *gin.Context) {
	session := sessions.Default(c)

	expectedState, _ := session.Get(constants.SessionKeyOAuthState).(string)
	session.Delete(constants.SessionKeyOAuthState)
	if expectedState == "" || c.Query("state") != expectedState {
		apierrors.BadRequest(c, "Invalid OAuth state")
		return
	}

	code := c.Query("code")
	if code == "" {
		apierrors.BadRequest(c, "Missing authorization code")
		return
	}

	token, err := h.provider.Exchange(c.Request.Context(), code)
	if err != nil {
		h.logger.Warnw("authorization code exchange failed", "error", err)
		apierrors.ServiceUnavailable(c, "Identity provider is unavailable")
		return
	}

	session.Set(constants.SessionKeyOAuthToken, token.AccessToken+"\n"+token.IDToken)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.Redirect(http.StatusFound, "/home")
}

// Home resolves a completed handshake into a signed-in local account,
// creating it on first login, then redirects to the task list.
func (h *FederatedAuthHandler) Home(c *gin.Context) {
	session := sessions.Default(c)

	token := tokenFromSession(session)
	if token == nil {
		c.Redirect(http.StatusFound, "/login/google")
		return
	}

	profile, err := h.provider.FetchProfile(c.Request.Context(), token)
	if err != nil {
		h.logger.Warnw("profile fetch failed", "error", err)
		session.Delete(constants.SessionKeyOAuthToken)
		_ = session.Save()
		c.Redirect(http.StatusFound, "/login/google")
		return
	}

	user, err := h.authService.FindOrCreateByEmail(profile.Email, profile.Name)
	if err != nil {
		apierrors.InternalError(c, "Failed to resolve account")
		return
	}

	session.Delete(constants.SessionKeyOAuthToken)
	session.Set(constants.ContextKeyUserID, user.ID)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.Redirect(http.StatusFound, "/tasks")
}

// tokenFromSession rebuilds the provider token stored by Callback. The two
// parts are joined with a newline, which cannot appear in either.
func tokenFromSession(session sessions.Session) *federation.Token {
	raw, _ := session.Get(constants.SessionKeyOAuthToken).(string)
	if raw == "" {
		return nil
	}

	parts := strings.SplitN(raw, "\n", 2)
	token := &federation.Token{AccessToken: parts[0]}
	if len(parts) == 2 {
		token.IDToken = parts[1]
	}

	if token.AccessToken == "" && token.IDToken == "" {
		return nil
	}
	return token
}

func randomState() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
