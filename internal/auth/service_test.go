package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/preciousyou/precious-backend/internal/identity"
	"github.com/preciousyou/precious-backend/internal/users"
	pkgAuth "github.com/preciousyou/precious-backend/pkg/auth"
	"github.com/preciousyou/precious-backend/pkg/auth/session"
	"github.com/preciousyou/precious-backend/pkg/config"
	"github.com/preciousyou/precious-backend/pkg/db/models"
	"github.com/preciousyou/precious-backend/pkg/enums"
	pkgerrors "github.com/preciousyou/precious-backend/pkg/errors"
)

var testJWT = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "precious.you",
	ExpirationMinutes: 15,
}

type stubVerifier struct {
	id  *identity.Identity
	err error
}

func (v *stubVerifier) Verify(ctx context.Context, idToken string) (*identity.Identity, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.id, nil
}

type fakeRepo struct {
	byID     map[uuid.UUID]*models.User
	byEmail  map[string]*models.User
	byApple  map[string]*models.User
	byGoogle map[string]*models.User
	created  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byID:     map[uuid.UUID]*models.User{},
		byEmail:  map[string]*models.User{},
		byApple:  map[string]*models.User{},
		byGoogle: map[string]*models.User{},
	}
}

func (f *fakeRepo) add(u *models.User) *models.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	if u.AppleID != nil {
		f.byApple[*u.AppleID] = u
	}
	if u.GoogleID != nil {
		f.byGoogle[*u.GoogleID] = u
	}
	return u
}

func find(m map[string]*models.User, key string) (*models.User, error) {
	if u, ok := m[key]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return find(f.byEmail, email)
}

func (f *fakeRepo) FindByAppleID(ctx context.Context, appleID string) (*models.User, error) {
	return find(f.byApple, appleID)
}

func (f *fakeRepo) FindByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return find(f.byGoogle, googleID)
}

func (f *fakeRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	f.created++
	return f.add(dto.ToModel()), nil
}

func (f *fakeRepo) LinkAppleID(ctx context.Context, id uuid.UUID, appleID string) error {
	u, ok := f.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.AppleID = &appleID
	f.byApple[appleID] = u
	return nil
}

func (f *fakeRepo) LinkGoogleID(ctx context.Context, id uuid.UUID, googleID string) error {
	u, ok := f.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.GoogleID = &googleID
	f.byGoogle[googleID] = u
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	u, ok := f.byID[id]
	if !ok {
		return false, nil
	}
	delete(f.byID, id)
	delete(f.byEmail, u.Email)
	return true, nil
}

type fakeSessions struct {
	tokens  map[string]string
	revoked []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{tokens: map[string]string{}}
}

func (f *fakeSessions) Generate(ctx context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	f.tokens[accessID] = token
	return token, nil
}

func (f *fakeSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := f.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.tokens, oldAccessID)
	newID := session.NewAccessID()
	token := "refresh-" + newID
	f.tokens[newID] = token
	return newID, token, nil
}

func (f *fakeSessions) Revoke(ctx context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	delete(f.tokens, accessID)
	return nil
}

func newTestService(t *testing.T, repo *fakeRepo, apple, google identity.Verifier) Service {
	t.Helper()
	if apple == nil {
		apple = &stubVerifier{id: &identity.Identity{Subject: "unused"}}
	}
	if google == nil {
		google = &stubVerifier{id: &identity.Identity{Subject: "unused"}}
	}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		AppleVerifier:  apple,
		GoogleVerifier: google,
		SessionManager: newFakeSessions(),
		JWTConfig:      testJWT,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestAppleSignInCreatesUser(t *testing.T) {
	repo := newFakeRepo()
	apple := &stubVerifier{id: &identity.Identity{Subject: "apple-1", Email: "ana@example.com"}}
	svc := newTestService(t, repo, apple, nil)

	res, err := svc.SignInWithApple(context.Background(), AppleSignInRequest{
		IdentityToken: "token",
		User: &AppleUserHint{
			Name: &AppleNameHint{FirstName: "Аня", LastName: "Иванова"},
		},
	})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if !res.User.IsNewUser {
		t.Fatal("expected new user")
	}
	if res.User.DisplayName != "Аня Иванова" {
		t.Fatalf("unexpected display name %q", res.User.DisplayName)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if repo.created != 1 {
		t.Fatalf("expected one created user, got %d", repo.created)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, res.AccessToken)
	if err != nil {
		t.Fatalf("access token must verify: %v", err)
	}
	if claims.UserID != res.User.ID {
		t.Fatal("token subject mismatch")
	}
}

func TestAppleSignInExistingSubject(t *testing.T) {
	repo := newFakeRepo()
	appleID := "apple-1"
	existing := repo.add(&models.User{Email: "ana@example.com", DisplayName: "Аня", AppleID: &appleID})

	apple := &stubVerifier{id: &identity.Identity{Subject: appleID}}
	svc := newTestService(t, repo, apple, nil)

	res, err := svc.SignInWithApple(context.Background(), AppleSignInRequest{IdentityToken: "token"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if res.User.IsNewUser {
		t.Fatal("repeat sign-in must not be flagged new")
	}
	if res.User.ID != existing.ID {
		t.Fatal("expected the existing account")
	}
	if repo.created != 0 {
		t.Fatal("no user should be created")
	}
}

func TestAppleSignInLinksByEmail(t *testing.T) {
	repo := newFakeRepo()
	googleID := "google-1"
	existing := repo.add(&models.User{Email: "ana@example.com", DisplayName: "Аня", GoogleID: &googleID})

	apple := &stubVerifier{id: &identity.Identity{Subject: "apple-9", Email: "ana@example.com"}}
	svc := newTestService(t, repo, apple, nil)

	res, err := svc.SignInWithApple(context.Background(), AppleSignInRequest{IdentityToken: "token"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if res.User.IsNewUser {
		t.Fatal("linked account is not new")
	}
	if res.User.ID != existing.ID {
		t.Fatal("expected link onto the existing account")
	}
	if existing.AppleID == nil || *existing.AppleID != "apple-9" {
		t.Fatal("apple subject must be linked")
	}
}

func TestAppleSignInRelayEmailFallback(t *testing.T) {
	repo := newFakeRepo()
	apple := &stubVerifier{id: &identity.Identity{Subject: "apple-7"}}
	svc := newTestService(t, repo, apple, nil)

	res, err := svc.SignInWithApple(context.Background(), AppleSignInRequest{IdentityToken: "token"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if res.User.Email != "apple-7@privaterelay.appleid.com" {
		t.Fatalf("unexpected fallback email %q", res.User.Email)
	}
	if res.User.DisplayName != "apple-7" {
		t.Fatalf("display name should fall back to local part, got %q", res.User.DisplayName)
	}
}

func TestGoogleSignInCreatesUserWithAvatar(t *testing.T) {
	repo := newFakeRepo()
	google := &stubVerifier{id: &identity.Identity{
		Subject: "google-5",
		Email:   "pat@example.com",
		Name:    "Pat",
		Picture: "https://example.com/pat.png",
	}}
	svc := newTestService(t, repo, nil, google)

	res, err := svc.SignInWithGoogle(context.Background(), GoogleSignInRequest{IDToken: "token"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if !res.User.IsNewUser {
		t.Fatal("expected new user")
	}

	stored, err := repo.FindByGoogleID(context.Background(), "google-5")
	if err != nil {
		t.Fatalf("lookup created user: %v", err)
	}
	if stored.AvatarURL == nil || !strings.HasSuffix(*stored.AvatarURL, "pat.png") {
		t.Fatal("avatar url must be stored")
	}
	if stored.Tone != enums.ToneFemale {
		t.Fatalf("new accounts default to the female tone, got %s", stored.Tone)
	}
}

func TestGoogleSignInRejectsMissingEmail(t *testing.T) {
	google := &stubVerifier{id: &identity.Identity{Subject: "google-5"}}
	svc := newTestService(t, newFakeRepo(), nil, google)

	_, err := svc.SignInWithGoogle(context.Background(), GoogleSignInRequest{IDToken: "token"})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestSignInVerifierFailure(t *testing.T) {
	apple := &stubVerifier{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid apple identity token")}
	svc := newTestService(t, newFakeRepo(), apple, nil)

	if _, err := svc.SignInWithApple(context.Background(), AppleSignInRequest{IdentityToken: "bad"}); err == nil {
		t.Fatal("expected verifier error to surface")
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	repo := newFakeRepo()
	apple := &stubVerifier{id: &identity.Identity{Subject: "apple-1", Email: "ana@example.com"}}
	svc := newTestService(t, repo, apple, nil)

	signin, err := svc.SignInWithApple(context.Background(), AppleSignInRequest{IdentityToken: "token"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	pair, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  signin.AccessToken,
		RefreshToken: signin.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.RefreshToken == signin.RefreshToken {
		t.Fatal("refresh token must rotate")
	}

	// replaying the old pair must fail
	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  signin.AccessToken,
		RefreshToken: signin.RefreshToken,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized on replay, got %v", err)
	}
}

func TestRefreshRejectsForgedAccessToken(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), nil, nil)

	_, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  "not-a-jwt",
		RefreshToken: "whatever",
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	repo := newFakeRepo()
	user := repo.add(&models.User{Email: "gone@example.com", DisplayName: "Gone"})
	svc := newTestService(t, repo, nil, nil)

	if err := svc.DeleteAccount(context.Background(), user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	err := svc.DeleteAccount(context.Background(), user.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestMe(t *testing.T) {
	repo := newFakeRepo()
	user := repo.add(&models.User{Email: "me@example.com", DisplayName: "Me", Tone: enums.ToneNeutral})
	svc := newTestService(t, repo, nil, nil)

	dto, err := svc.Me(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if dto.Email != "me@example.com" || dto.Tone != enums.ToneNeutral {
		t.Fatalf("unexpected dto %+v", dto)
	}

	if _, err := svc.Me(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected not found for unknown id")
	}
}

func TestLogoutEmptyAccessIDIsNoop(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), nil, nil)
	if err := svc.Logout(context.Background(), "  "); err != nil {
		t.Fatalf("logout: %v", err)
	}
}
