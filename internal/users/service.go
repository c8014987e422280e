package users

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/preciousyou/precious-backend/pkg/enums"
	pkgerrors "github.com/preciousyou/precious-backend/pkg/errors"
)

// UpdateProfileRequest is the PUT /me body. Omitted fields stay unchanged.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,min=1,max=100"`
	Tone        *string `json:"tone,omitempty" validate:"omitempty,oneof=female male neutral"`
}

// RegisterDeviceRequest is the POST /device body.
type RegisterDeviceRequest struct {
	PushToken   string `json:"push_token" validate:"required"`
	PushEnabled *bool  `json:"push_enabled,omitempty"`
}

// Service wraps the repository with profile-level rules.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	return &Service{repo: repo}, nil
}

// UpdateProfile applies a partial profile update and returns the fresh DTO.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserDTO, error) {
	patch := UpdateUserDTO{DisplayName: req.DisplayName}
	if req.Tone != nil {
		tone := enums.NormalizeTone(*req.Tone)
		patch.Tone = &tone
	}

	user, err := s.repo.Update(ctx, userID, patch)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating profile")
	}
	return FromModel(user), nil
}

// RegisterDevice stores the push token. Pushes default to enabled when the
// client does not say otherwise.
func (s *Service) RegisterDevice(ctx context.Context, userID uuid.UUID, req RegisterDeviceRequest) error {
	enabled := true
	if req.PushEnabled != nil {
		enabled = *req.PushEnabled
	}

	_, err := s.repo.Update(ctx, userID, UpdateUserDTO{
		PushToken:   &req.PushToken,
		PushEnabled: &enabled,
	})
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "registering device")
	}
	return nil
}
