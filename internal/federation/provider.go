package federation

import (
	"context"
)

// Profile is the verified identity returned by a provider.
type Profile struct {
	Email string
	Name  string
}

// Token carries the provider credentials needed to fetch a profile. Kept to
// plain strings so it can live in a cookie session.
type Token struct {
	AccessToken string
	IDToken     string
}

// Provider is the narrow capability the application consumes: the handshake
// protocol behind AuthURL/Exchange stays entirely inside the implementation.
type Provider interface {
	// AuthURL returns the consent URL for the given anti-forgery state.
	AuthURL(state string) string

	// Exchange trades an authorization code for provider credentials.
	Exchange(ctx context.Context, code string) (*Token, error)

	// FetchProfile resolves credentials into a verified email/name pair.
	FetchProfile(ctx context.Context, token *Token) (*Profile, error)
}
