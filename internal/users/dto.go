package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/preciousyou/precious-backend/pkg/db/models"
	"github.com/preciousyou/precious-backend/pkg/enums"
)

// UserDTO is the transport shape returned to clients.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Tone        enums.Tone `json:"tone"`
	AvatarURL   *string    `json:"avatar_url,omitempty"`
	PushEnabled bool       `json:"push_enabled"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email       string
	DisplayName string
	Tone        enums.Tone
	AppleID     *string
	GoogleID    *string
	AvatarURL   *string
}

// UpdateUserDTO is a partial update: nil fields are left untouched.
type UpdateUserDTO struct {
	DisplayName *string
	Tone        *enums.Tone
	PushToken   *string
	PushEnabled *bool
}

// PushTarget is the projection the dispatch pass works from.
type PushTarget struct {
	ID          uuid.UUID
	DisplayName string
	Tone        enums.Tone
	PushToken   string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Tone:        u.Tone,
		AvatarURL:   u.AvatarURL,
		PushEnabled: u.PushEnabled,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	tone := c.Tone
	if !tone.IsValid() {
		tone = enums.ToneFemale
	}

	return &models.User{
		Email:       c.Email,
		DisplayName: c.DisplayName,
		Tone:        tone,
		AppleID:     c.AppleID,
		GoogleID:    c.GoogleID,
		AvatarURL:   c.AvatarURL,
		PushEnabled: true,
	}
}

// columns maps set fields onto their column updates.
func (u UpdateUserDTO) columns() map[string]any {
	cols := map[string]any{}
	if u.DisplayName != nil {
		cols["display_name"] = *u.DisplayName
	}
	if u.Tone != nil {
		cols["tone"] = *u.Tone
	}
	if u.PushToken != nil {
		cols["push_token"] = *u.PushToken
	}
	if u.PushEnabled != nil {
		cols["push_enabled"] = *u.PushEnabled
	}
	return cols
}
