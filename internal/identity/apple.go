package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/preciousyou/precious-backend/pkg/config"
	"github.com/preciousyou/precious-backend/pkg/errors"
)

const (
	appleJWKSURL = "https://appleid.apple.com/auth/keys"
	appleIssuer  = "https://appleid.apple.com"
)

// AppleVerifier validates Sign in with Apple identity tokens against Apple's
// published JWKS.
type AppleVerifier struct {
	clientID string
	jwks     *keyfunc.JWKS
}

// NewAppleVerifier starts a background-refreshing JWKS client. The context
// bounds the refresh goroutine's lifetime.
func NewAppleVerifier(ctx context.Context, cfg config.AppleConfig) (*AppleVerifier, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("apple client id is required")
	}

	jwks, err := keyfunc.Get(appleJWKSURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching apple jwks: %w", err)
	}

	return &AppleVerifier{clientID: cfg.ClientID, jwks: jwks}, nil
}

func (v *AppleVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, v.jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(appleIssuer),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Wrap(errors.CodeUnauthorized, err, "invalid apple identity token")
	}
	if !token.Valid {
		return nil, errors.New(errors.CodeUnauthorized, "invalid apple identity token")
	}

	id := identityFromClaims(claims)
	if id.Subject == "" {
		return nil, errors.New(errors.CodeUnauthorized, "apple identity token missing subject")
	}
	return id, nil
}
