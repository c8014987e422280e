package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/preciousyou/precious-backend/api/middleware"
	"github.com/preciousyou/precious-backend/internal/auth"
	"github.com/preciousyou/precious-backend/internal/users"
	pkgerrors "github.com/preciousyou/precious-backend/pkg/errors"
)

type stubAuthService struct {
	signIn    *auth.SignInResponse
	pair      *auth.TokenPair
	me        *users.UserDTO
	err       error
	loggedOut []string
	deleted   []uuid.UUID
}

func (s *stubAuthService) SignInWithApple(ctx context.Context, req auth.AppleSignInRequest) (*auth.SignInResponse, error) {
	return s.signIn, s.err
}

func (s *stubAuthService) SignInWithGoogle(ctx context.Context, req auth.GoogleSignInRequest) (*auth.SignInResponse, error) {
	return s.signIn, s.err
}

func (s *stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.TokenPair, error) {
	return s.pair, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	s.loggedOut = append(s.loggedOut, accessID)
	return s.err
}

func (s *stubAuthService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	s.deleted = append(s.deleted, userID)
	return s.err
}

func (s *stubAuthService) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return s.me, s.err
}

func authedRequest(method, path string, body []byte, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	ctx := middleware.WithUserID(req.Context(), userID.String())
	return req.WithContext(ctx)
}

func TestAuthAppleSuccess(t *testing.T) {
	userID := uuid.New()
	svc := &stubAuthService{signIn: &auth.SignInResponse{
		TokenPair: auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
		User: auth.AuthUser{
			ID:          userID,
			Email:       "anya@example.com",
			DisplayName: "Аня",
			IsNewUser:   true,
		},
	}}
	handler := AuthApple(svc, nil)

	body := []byte(`{"identity_token":"apple-token","user":{"email":"anya@example.com","name":{"firstName":"Аня"}}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/apple", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			AccessToken  string        `json:"access_token"`
			RefreshToken string        `json:"refresh_token"`
			User         auth.AuthUser `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AccessToken != "access" {
		t.Fatalf("expected access token in payload got %+v", envelope.Data)
	}
	if !envelope.Data.User.IsNewUser || envelope.Data.User.ID != userID {
		t.Fatalf("expected new user in payload got %+v", envelope.Data.User)
	}
}

func TestAuthAppleMissingToken(t *testing.T) {
	handler := AuthApple(&stubAuthService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/apple", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthGoogleVerificationFailure(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid identity token")}
	handler := AuthGoogle(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/google", bytes.NewReader([]byte(`{"id_token":"bad"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRefreshSuccess(t *testing.T) {
	svc := &stubAuthService{pair: &auth.TokenPair{AccessToken: "next-access", RefreshToken: "next-refresh"}}
	handler := AuthRefresh(svc, nil)

	body := []byte(`{"access_token":"stale","refresh_token":"live"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data auth.TokenPair `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.RefreshToken != "next-refresh" {
		t.Fatalf("expected rotated pair got %+v", envelope.Data)
	}
}

func TestAuthMeSuccess(t *testing.T) {
	userID := uuid.New()
	svc := &stubAuthService{me: &users.UserDTO{ID: userID, Email: "anya@example.com", DisplayName: "Аня"}}
	handler := AuthMe(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/auth/me", nil, userID))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data users.UserDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != userID {
		t.Fatalf("expected profile in payload got %+v", envelope.Data)
	}
}

func TestAuthMeMissingContext(t *testing.T) {
	handler := AuthMe(&stubAuthService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthDeleteAccount(t *testing.T) {
	userID := uuid.New()
	svc := &stubAuthService{}
	handler := AuthDeleteAccount(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodDelete, "/api/v1/auth/account", nil, userID))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(svc.deleted) != 1 || svc.deleted[0] != userID {
		t.Fatalf("expected delete call for %s got %v", userID, svc.deleted)
	}
}
