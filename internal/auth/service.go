// Package auth implements provider sign-in, session refresh and account
// lifecycle on top of the identity verifiers and the users repository.
package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/preciousyou/precious-backend/internal/identity"
	"github.com/preciousyou/precious-backend/internal/users"
	pkgAuth "github.com/preciousyou/precious-backend/pkg/auth"
	"github.com/preciousyou/precious-backend/pkg/auth/session"
	"github.com/preciousyou/precious-backend/pkg/config"
	"github.com/preciousyou/precious-backend/pkg/db/models"
	pkgerrors "github.com/preciousyou/precious-backend/pkg/errors"
)

// Apple withholds the email on repeat sign-ins; the relay domain keeps the
// column unique and recognizably synthetic.
const appleRelayDomain = "privaterelay.appleid.com"

const defaultDisplayName = "User"

// Service defines the behavior needed by the auth controller.
type Service interface {
	SignInWithApple(ctx context.Context, req AppleSignInRequest) (*SignInResponse, error)
	SignInWithGoogle(ctx context.Context, req GoogleSignInRequest) (*SignInResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
	Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByAppleID(ctx context.Context, appleID string) (*models.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	LinkAppleID(ctx context.Context, id uuid.UUID, appleID string) error
	LinkGoogleID(ctx context.Context, id uuid.UUID, googleID string) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type service struct {
	users   userRepository
	apple   identity.Verifier
	google  identity.Verifier
	session sessionManager
	jwtCfg  config.JWTConfig
	now     func() time.Time
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	AppleVerifier  identity.Verifier
	GoogleVerifier identity.Verifier
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.AppleVerifier == nil || params.GoogleVerifier == nil {
		return nil, fmt.Errorf("both identity verifiers are required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		users:   params.UserRepo,
		apple:   params.AppleVerifier,
		google:  params.GoogleVerifier,
		session: params.SessionManager,
		jwtCfg:  params.JWTConfig,
		now:     time.Now,
	}, nil
}

func (s *service) SignInWithApple(ctx context.Context, req AppleSignInRequest) (*SignInResponse, error) {
	id, err := s.apple.Verify(ctx, req.IdentityToken)
	if err != nil {
		return nil, err
	}

	user, isNew, err := s.resolveUser(ctx, resolveParams{
		subject:       id.Subject,
		findBySubject: s.users.FindByAppleID,
		link:          s.users.LinkAppleID,
		email:         appleEmail(id, req.User),
		create: users.CreateUserDTO{
			DisplayName: appleDisplayName(req.User, appleEmail(id, req.User)),
			AppleID:     &id.Subject,
		},
	})
	if err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user, isNew)
}

func (s *service) SignInWithGoogle(ctx context.Context, req GoogleSignInRequest) (*SignInResponse, error) {
	id, err := s.google.Verify(ctx, req.IDToken)
	if err != nil {
		return nil, err
	}
	if id.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "google token missing email")
	}

	var avatar *string
	if id.Picture != "" {
		avatar = &id.Picture
	}

	user, isNew, err := s.resolveUser(ctx, resolveParams{
		subject:       id.Subject,
		findBySubject: s.users.FindByGoogleID,
		link:          s.users.LinkGoogleID,
		email:         id.Email,
		create: users.CreateUserDTO{
			DisplayName: googleDisplayName(id),
			GoogleID:    &id.Subject,
			AvatarURL:   avatar,
		},
	})
	if err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user, isNew)
}

type resolveParams struct {
	subject       string
	findBySubject func(ctx context.Context, subject string) (*models.User, error)
	link          func(ctx context.Context, id uuid.UUID, subject string) error
	email         string
	create        users.CreateUserDTO
}

// resolveUser implements the three-step flow shared by both providers:
// known subject, link by email, otherwise create a fresh account.
func (s *service) resolveUser(ctx context.Context, p resolveParams) (*models.User, bool, error) {
	user, err := p.findBySubject(ctx, p.subject)
	if err == nil {
		return user, false, nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up subject")
	}

	existing, err := s.users.FindByEmail(ctx, p.email)
	if err == nil {
		if linkErr := p.link(ctx, existing.ID, p.subject); linkErr != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, linkErr, "linking provider")
		}
		return existing, false, nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up email")
	}

	dto := p.create
	dto.Email = p.email
	created, err := s.users.Create(ctx, dto)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating user")
	}
	return created, true, nil
}

func (s *service) issueTokens(ctx context.Context, user *models.User, isNew bool) (*SignInResponse, error) {
	accessID := session.NewAccessID()
	access, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}

	refresh, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating refresh session")
	}

	return &SignInResponse{
		TokenPair: TokenPair{AccessToken: access, RefreshToken: refresh},
		User: AuthUser{
			ID:          user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			IsNewUser:   isNew,
		},
	}, nil
}

// Refresh rotates the refresh session tied to the presented access token.
// The access token may be expired; its signature must still verify.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}

	newAccessID, newRefresh, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if stderrors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotating session")
	}

	access, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}

	return &TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

// Logout revokes the refresh session for the presented access id.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return nil
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoking session")
	}
	return nil
}

// DeleteAccount hard-deletes the user row.
func (s *service) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	found, err := s.users.Delete(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting account")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	return users.FromModel(user), nil
}

func appleEmail(id *identity.Identity, hint *AppleUserHint) string {
	if id.Email != "" {
		return id.Email
	}
	if hint != nil && hint.Email != "" {
		return hint.Email
	}
	return id.Subject + "@" + appleRelayDomain
}

func appleDisplayName(hint *AppleUserHint, email string) string {
	if hint != nil {
		if name := hint.Name.full(); name != "" {
			return name
		}
	}
	if local := localPart(email); local != "" {
		return local
	}
	return defaultDisplayName
}

func googleDisplayName(id *identity.Identity) string {
	if id.Name != "" {
		return id.Name
	}
	if local := localPart(id.Email); local != "" {
		return local
	}
	return defaultDisplayName
}

func localPart(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found {
		return ""
	}
	return local
}
