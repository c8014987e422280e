// Package identity verifies provider-issued id tokens (Apple, Google) and
// maps them onto a common identity shape.
package identity

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what a provider attests about the signed-in person.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Verifier validates a raw id token and extracts the attested identity.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// identityFromClaims maps provider claims onto Identity. Apple encodes
// email_verified as the string "true"; Google uses a real boolean.
func identityFromClaims(claims jwt.MapClaims) *Identity {
	id := &Identity{}

	if sub, ok := claims["sub"].(string); ok {
		id.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		id.Email = email
	}
	switch v := claims["email_verified"].(type) {
	case bool:
		id.EmailVerified = v
	case string:
		id.EmailVerified = v == "true"
	}
	if name, ok := claims["name"].(string); ok {
		id.Name = name
	}
	if picture, ok := claims["picture"].(string); ok {
		id.Picture = picture
	}
	return id
}
