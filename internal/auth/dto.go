package auth

import (
	"strings"

	"github.com/google/uuid"
)

// AppleSignInRequest carries the Apple identity token plus the one-time user
// hint iOS includes on the very first authorization.
type AppleSignInRequest struct {
	IdentityToken string         `json:"identity_token" validate:"required"`
	User          *AppleUserHint `json:"user,omitempty"`
}

type AppleUserHint struct {
	Email string         `json:"email,omitempty" validate:"omitempty,email"`
	Name  *AppleNameHint `json:"name,omitempty"`
}

type AppleNameHint struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

func (h *AppleNameHint) full() string {
	if h == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(h.FirstName) + " " + strings.TrimSpace(h.LastName))
}

type GoogleSignInRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// RefreshRequest pairs the expired (or expiring) access token with the live
// refresh token so the session can be rotated.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthUser struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	IsNewUser   bool      `json:"is_new_user"`
}

type SignInResponse struct {
	TokenPair
	User AuthUser `json:"user"`
}
