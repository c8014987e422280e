package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/preciousyou/precious-backend/pkg/enums"
)

// User is the single persisted entity: one row per signed-in person.
//
// Exactly one of AppleID/GoogleID is set after the first sign-in; linking the
// second provider to the same email fills in the other. A user with
// PushEnabled and a non-empty PushToken is push-eligible.
type User struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email       string     `gorm:"type:text;not null;uniqueIndex"`
	DisplayName string     `gorm:"column:display_name;type:text;not null"`
	Tone        enums.Tone `gorm:"type:text;not null;default:female"`
	AppleID     *string    `gorm:"column:apple_id;type:text;uniqueIndex"`
	GoogleID    *string    `gorm:"column:google_id;type:text;uniqueIndex"`
	AvatarURL   *string    `gorm:"column:avatar_url;type:text"`
	PushToken   *string    `gorm:"column:push_token;type:text"`
	PushEnabled bool       `gorm:"column:push_enabled;not null;default:true"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
