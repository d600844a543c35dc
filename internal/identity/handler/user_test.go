package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"slotboard/pkg/middleware"
	"slotboard/pkg/model"

	"github.com/julienschmidt/httprouter"
)

func requestWithCaller(method, target, body string, caller *model.Caller) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.WithValue(req.Context(), middleware.CallerKey, caller)
	return req.WithContext(ctx)
}

func TestMe(t *testing.T) {
	var receivedID string
	mockService := &mockIdentityService{
		currentUserFunc: func(ctx context.Context, caller *model.Caller) (*model.User, error) {
			receivedID = caller.UserID
			return &model.User{ID: caller.UserID, Name: "alice", Timezone: "UTC"}, nil
		},
	}
	handler := &UserHandler{service: mockService, log: testLogger()}

	caller := &model.Caller{UserID: "u-1", Username: "alice", Role: model.RoleMember}
	req := requestWithCaller(http.MethodGet, "/api/v1/users/me", "", caller)
	w := httptest.NewRecorder()

	handler.Me(w, req, httprouter.Params{})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if receivedID != "u-1" {
		t.Errorf("service received caller ID %q, want u-1", receivedID)
	}

	var response struct {
		Data model.User `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Data.Name != "alice" {
		t.Errorf("expected user alice, got %q", response.Data.Name)
	}
}

func TestMe_MissingCaller(t *testing.T) {
	handler := &UserHandler{service: &mockIdentityService{}, log: testLogger()}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	w := httptest.NewRecorder()

	handler.Me(w, req, httprouter.Params{})

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 without caller in context, got %d", w.Code)
	}
}

func TestUpdateTimezone(t *testing.T) {
	var receivedTz string
	mockService := &mockIdentityService{
		updateTimezoneFunc: func(ctx context.Context, caller *model.Caller, tz string) (*model.User, error) {
			receivedTz = tz
			return &model.User{ID: caller.UserID, Name: "alice", Timezone: tz}, nil
		},
	}
	handler := &UserHandler{service: mockService, log: testLogger()}

	caller := &model.Caller{UserID: "u-1", Username: "alice", Role: model.RoleMember}
	req := requestWithCaller(http.MethodPut, "/api/v1/users/me/timezone", `{"timezone":"Asia/Tokyo"}`, caller)
	w := httptest.NewRecorder()

	handler.UpdateTimezone(w, req, httprouter.Params{})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if receivedTz != "Asia/Tokyo" {
		t.Errorf("service received timezone %q, want Asia/Tokyo", receivedTz)
	}
}

func TestListUsers_OmitsPasswordHash(t *testing.T) {
	mockService := &mockIdentityService{
		listUsersFunc: func(ctx context.Context) ([]*model.User, error) {
			return []*model.User{
				{ID: "u-1", Name: "alice", PasswordHash: "$argon2id$secret", Role: model.RoleMember, Timezone: "UTC"},
				{ID: "u-2", Name: "bob", PasswordHash: "$argon2id$secret", Role: model.RoleAdmin, Timezone: "UTC"},
			}, nil
		},
	}
	handler := &UserHandler{service: mockService, log: testLogger()}

	caller := &model.Caller{UserID: "u-1", Username: "alice", Role: model.RoleMember}
	req := requestWithCaller(http.MethodGet, "/api/v1/users", "", caller)
	w := httptest.NewRecorder()

	handler.List(w, req, httprouter.Params{})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	if strings.Contains(body, "password_hash") || strings.Contains(body, "argon2id") {
		t.Error("user directory response leaks password hashes")
	}

	var response struct {
		Data []model.User `json:"data"`
	}
	if err := json.NewDecoder(strings.NewReader(body)).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Data) != 2 {
		t.Errorf("expected 2 users, got %d", len(response.Data))
	}
}
