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

const googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// Google signs tokens under either issuer form.
var googleIssuers = map[string]struct{}{
	"accounts.google.com":         {},
	"https://accounts.google.com": {},
}

// GoogleVerifier validates Google Sign-In id tokens against Google's
// published JWKS.
type GoogleVerifier struct {
	clientID string
	jwks     *keyfunc.JWKS
}

// NewGoogleVerifier starts a background-refreshing JWKS client. The context
// bounds the refresh goroutine's lifetime.
func NewGoogleVerifier(ctx context.Context, cfg config.GoogleConfig) (*GoogleVerifier, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("google client id is required")
	}

	jwks, err := keyfunc.Get(googleJWKSURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching google jwks: %w", err)
	}

	return &GoogleVerifier{clientID: cfg.ClientID, jwks: jwks}, nil
}

func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, v.jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Wrap(errors.CodeUnauthorized, err, "invalid google id token")
	}
	if !token.Valid {
		return nil, errors.New(errors.CodeUnauthorized, "invalid google id token")
	}

	// two issuer spellings, checked by hand instead of jwt.WithIssuer
	iss, _ := claims.GetIssuer()
	if _, ok := googleIssuers[iss]; !ok {
		return nil, errors.New(errors.CodeUnauthorized, "unexpected google token issuer")
	}

	id := identityFromClaims(claims)
	if id.Subject == "" {
		return nil, errors.New(errors.CodeUnauthorized, "google id token missing subject")
	}
	return id, nil
}
