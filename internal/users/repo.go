package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/preciousyou/precious-backend/pkg/db/models"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	// sqlite has no gen_random_uuid(), assign up front
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByAppleID retrieves the user whose Apple subject matches.
func (r *Repository) FindByAppleID(ctx context.Context, appleID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("apple_id = ?", appleID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByGoogleID retrieves the user whose Google subject matches.
func (r *Repository) FindByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("google_id = ?", googleID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update applies the set fields of the patch and returns the fresh row.
// A patch with no set fields is a plain read.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch UpdateUserDTO) (*models.User, error) {
	cols := patch.columns()
	if len(cols) > 0 {
		res := r.db.WithContext(ctx).
			Model(&models.User{}).
			Where("id = ?", id).
			Updates(cols)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.FindByID(ctx, id)
}

// LinkAppleID attaches an Apple subject to an existing account.
func (r *Repository) LinkAppleID(ctx context.Context, id uuid.UUID, appleID string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("apple_id", appleID).Error
}

// LinkGoogleID attaches a Google subject to an existing account.
func (r *Repository) LinkGoogleID(ctx context.Context, id uuid.UUID, googleID string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("google_id", googleID).Error
}

// Delete removes the row and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListPushEligible returns every user the dispatch pass should notify:
// pushes enabled and a device token on file.
func (r *Repository) ListPushEligible(ctx context.Context) ([]PushTarget, error) {
	var targets []PushTarget
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "display_name", "tone", "push_token").
		Where("push_enabled = ? AND push_token IS NOT NULL AND push_token <> ''", true).
		Find(&targets).Error
	if err != nil {
		return nil, err
	}
	return targets, nil
}
