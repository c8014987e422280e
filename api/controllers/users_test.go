package controllers

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/preciousyou/precious-backend/internal/dispatch"
	"github.com/preciousyou/precious-backend/internal/messages"
	"github.com/preciousyou/precious-backend/internal/push"
	"github.com/preciousyou/precious-backend/internal/users"
	"github.com/preciousyou/precious-backend/pkg/db/models"
	"github.com/preciousyou/precious-backend/pkg/enums"
	"github.com/preciousyou/precious-backend/pkg/logger"
)

func newTestUserService(t *testing.T) (*users.Service, *users.Repository) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		conn.Exec("DELETE FROM users")
	})
	repo := users.NewRepository(conn)
	svc, err := users.NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func seedUser(t *testing.T, repo *users.Repository) *models.User {
	t.Helper()
	user, err := repo.Create(context.Background(), users.CreateUserDTO{
		Email:       "anya@example.com",
		DisplayName: "Аня",
		Tone:        enums.ToneFemale,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestUpdateProfileSuccess(t *testing.T) {
	svc, repo := newTestUserService(t)
	user := seedUser(t, repo)
	handler := UpdateProfile(svc, nil)

	body := []byte(`{"display_name":"Мария","tone":"neutral"}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPut, "/api/v1/me", body, user.ID))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data users.UserDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.DisplayName != "Мария" || envelope.Data.Tone != enums.ToneNeutral {
		t.Fatalf("expected updated profile got %+v", envelope.Data)
	}
}

func TestUpdateProfileRejectsUnknownTone(t *testing.T) {
	svc, repo := newTestUserService(t)
	user := seedUser(t, repo)
	handler := UpdateProfile(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPut, "/api/v1/me", []byte(`{"tone":"robot"}`), user.ID))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	svc, _ := newTestUserService(t)
	handler := UpdateProfile(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPut, "/api/v1/me", []byte(`{"display_name":"Кто-то"}`), uuid.New()))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestRegisterDeviceSuccess(t *testing.T) {
	svc, repo := newTestUserService(t)
	user := seedUser(t, repo)
	handler := RegisterDevice(svc, nil)

	body := []byte(`{"push_token":"fcm-token-1"}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/device", body, user.ID))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	targets, err := repo.ListPushEligible(context.Background())
	if err != nil {
		t.Fatalf("list eligible: %v", err)
	}
	if len(targets) != 1 || targets[0].PushToken != "fcm-token-1" {
		t.Fatalf("expected registered device to be eligible got %+v", targets)
	}
}

func TestRegisterDeviceMissingToken(t *testing.T) {
	svc, repo := newTestUserService(t)
	user := seedUser(t, repo)
	handler := RegisterDevice(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/device", []byte(`{}`), user.ID))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

type memoryUserSource struct {
	byID map[uuid.UUID]*models.User
}

func (m *memoryUserSource) ListPushEligible(ctx context.Context) ([]users.PushTarget, error) {
	return nil, nil
}

func (m *memoryUserSource) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

type recordingGateway struct {
	sent []push.Notification
}

func (g *recordingGateway) Send(ctx context.Context, token string, n push.Notification) bool {
	g.sent = append(g.sent, n)
	return true
}

func newTestDispatch(t *testing.T, src *memoryUserSource, gw *recordingGateway) *dispatch.Service {
	t.Helper()
	svc, err := dispatch.NewService(dispatch.ServiceParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Users:   src,
		Bank:    messages.NewBankWithSource(messages.Catalog, rand.NewSource(3)),
		Gateway: gw,
		Title:   "precious.you",
	})
	if err != nil {
		t.Fatalf("new dispatch service: %v", err)
	}
	return svc
}

func TestTestPushSuccess(t *testing.T) {
	token := "fcm-token-2"
	user := &models.User{
		ID:          uuid.New(),
		Email:       "anya@example.com",
		DisplayName: "Аня",
		Tone:        enums.ToneFemale,
		PushToken:   &token,
		PushEnabled: true,
	}
	gw := &recordingGateway{}
	svc := newTestDispatch(t, &memoryUserSource{byID: map[uuid.UUID]*models.User{user.ID: user}}, gw)
	handler := TestPush(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/push/test", nil, user.ID))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data dispatch.NudgeResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Sent || envelope.Data.Message == "" {
		t.Fatalf("expected delivered nudge got %+v", envelope.Data)
	}
	if len(gw.sent) != 1 {
		t.Fatalf("expected one gateway send got %d", len(gw.sent))
	}
}

func TestTestPushWithoutToken(t *testing.T) {
	user := &models.User{
		ID:          uuid.New(),
		Email:       "anya@example.com",
		DisplayName: "Аня",
		Tone:        enums.ToneFemale,
		PushEnabled: true,
	}
	gw := &recordingGateway{}
	svc := newTestDispatch(t, &memoryUserSource{byID: map[uuid.UUID]*models.User{user.ID: user}}, gw)
	handler := TestPush(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/push/test", nil, user.ID))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if len(gw.sent) != 0 {
		t.Fatalf("expected no gateway sends got %d", len(gw.sent))
	}
}
