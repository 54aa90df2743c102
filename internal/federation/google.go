package federation

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleCertsURL    = "https://www.googleapis.com/oauth2/v3/certs"
	googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

var (
	ErrTokenRequired = errors.New("provider token is required")
	ErrProfileFetch  = errors.New("failed to fetch profile from provider")
	ErrTokenInvalid  = errors.New("provider identity token is invalid")
	ErrUnknownKeyID  = errors.New("identity token signed with unknown key")
	ErrEmailMissing  = errors.New("provider profile has no email")
)

// GoogleProvider implements Provider against Google's OAuth2 endpoints. All
// outbound HTTP goes through a circuit breaker so a flapping provider fails
// fast instead of tying up request workers.
type GoogleProvider struct {
	oauth   *oauth2.Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker

	// Endpoint URLs, overridable in tests.
	certsURL    string
	userinfoURL string
}

// NewGoogleProvider creates a GoogleProvider for the given client credentials.
func NewGoogleProvider(clientID, clientSecret, redirectURL string, logger *zap.SugaredLogger) *GoogleProvider {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "google-federation",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Infow("circuit breaker state change",
				"name", name, "from", from.String(), "to", to.String())
		},
	})

	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
				"openid",
			},
			Endpoint: oauth2.Endpoint{
				AuthURL:  googleAuthURL,
				TokenURL: googleTokenURL,
			},
		},
		client:      &http.Client{Timeout: 10 * time.Second},
		breaker:     breaker,
		certsURL:    googleCertsURL,
		userinfoURL: googleUserinfoURL,
	}
}

// AuthURL returns the consent URL for the given anti-forgery state.
func (g *GoogleProvider) AuthURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for provider credentials.
func (g *GoogleProvider) Exchange(ctx context.Context, code string) (*Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	token := &Token{AccessToken: tok.AccessToken}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		token.IDToken = idToken
	}

	return token, nil
}

// FetchProfile resolves credentials into a verified email/name pair. The ID
// token is preferred and verified against Google's published keys; when it is
// absent the userinfo endpoint is queried with the access token.
func (g *GoogleProvider) FetchProfile(ctx context.Context, token *Token) (*Profile, error) {
	if token == nil || (token.AccessToken == "" && token.IDToken == "") {
		return nil, ErrTokenRequired
	}

	if token.IDToken != "" {
		profile, err := g.profileFromIDToken(ctx, token.IDToken)
		if err == nil {
			return profile, nil
		}
		if token.AccessToken == "" {
			return nil, err
		}
	}

	return g.profileFromUserinfo(ctx, token.AccessToken)
}

type idTokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

func (g *GoogleProvider) profileFromIDToken(ctx context.Context, rawToken string) (*Profile, error) {
	keys, err := g.fetchSigningKeys(ctx)
	if err != nil {
		return nil, err
	}

	var claims idTokenClaims
	parsed, err := jwt.ParseWithClaims(rawToken, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		kid, _ := t.Header["kid"].(string)
		key, ok := keys[kid]
		if !ok {
			return nil, ErrUnknownKeyID
		}
		return key, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	if !claims.VerifyAudience(g.oauth.ClientID, true) {
		return nil, ErrTokenInvalid
	}
	if iss := claims.Issuer; iss != "accounts.google.com" && iss != "https://accounts.google.com" {
		return nil, ErrTokenInvalid
	}
	if claims.Email == "" {
		return nil, ErrEmailMissing
	}

	return &Profile{Email: claims.Email, Name: claims.Name}, nil
}

func (g *GoogleProvider) profileFromUserinfo(ctx context.Context, accessToken string) (*Profile, error) {
	body, err := g.get(ctx, g.userinfoURL, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}

	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}
	if info.Email == "" {
		return nil, ErrEmailMissing
	}

	return &Profile{Email: info.Email, Name: info.Name}, nil
}

// fetchSigningKeys downloads Google's JWKS and converts each entry to an RSA
// public key, indexed by key ID.
func (g *GoogleProvider) fetchSigningKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	body, err := g.get(ctx, g.certsURL, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch provider keys: %w", err)
	}

	var jwks struct {
		Keys []struct {
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.Unmarshal(body, &jwks); err != nil {
		return nil, fmt.Errorf("failed to parse provider keys: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for _, k := range jwks.Keys {
		nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			continue
		}
		eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = &rsa.PublicKey{
			N: new(big.Int).SetBytes(nBytes),
			E: int(new(big.Int).SetBytes(eBytes).Int64()),
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("provider published no usable keys")
	}

	return keys, nil
}

// get performs a GET through the circuit breaker, optionally with a bearer
// token, and returns the response body.
func (g *GoogleProvider) get(ctx context.Context, url, bearer string) ([]byte, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}
