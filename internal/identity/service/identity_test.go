package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"slotboard/internal/identity/limiter"
	"slotboard/internal/identity/repository"
	"slotboard/internal/identity/token"
	"slotboard/internal/identity/validator"
	"slotboard/pkg/config"
	apperrors "slotboard/pkg/errors"
	"slotboard/pkg/logger"
	"slotboard/pkg/model"
)

const testLockout = 15 * time.Minute

func newTestService(t *testing.T, admins ...string) IdentityService {
	t.Helper()

	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	cfg := &config.Config{
		Log:            log,
		AdminUsernames: admins,
	}

	loginLimiter := limiter.NewLoginLimiter(5, testLockout, testLockout)
	t.Cleanup(loginLimiter.Stop)

	return NewIdentityService(
		repository.NewMemoryUserRepository(),
		validator.NewUserValidator(8, false),
		token.NewManager("test-secret", time.Hour),
		loginLimiter,
		cfg,
	)
}

func register(t *testing.T, svc IdentityService, name, pass, tz string) *model.AuthResponse {
	t.Helper()

	resp, err := svc.Register(context.Background(), &model.RegisterRequest{
		Name:     name,
		Password: pass,
		Timezone: tz,
	})
	if err != nil {
		t.Fatalf("Register(%q) failed: %v", name, err)
	}
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	reg := register(t, svc, "alice", "correct horse", "America/New_York")

	if reg.AccessToken == "" {
		t.Error("registration returned empty access token")
	}
	if reg.User.Role != model.RoleMember {
		t.Errorf("expected member role, got %q", reg.User.Role)
	}
	if reg.User.ID == "" {
		t.Error("registration returned empty user ID")
	}

	login, err := svc.Login(ctx, &model.LoginRequest{Name: "alice", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if login.User.ID != reg.User.ID {
		t.Errorf("login returned user %q, registered %q", login.User.ID, reg.User.ID)
	}

	caller, err := svc.Verify(login.AccessToken)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if caller.UserID != reg.User.ID || caller.Username != "alice" || caller.Role != model.RoleMember {
		t.Errorf("unexpected caller %+v", caller)
	}
}

func TestRegisterDuplicateIsCaseInsensitive(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	register(t, svc, "Alice", "correct horse", "UTC")

	_, err := svc.Register(ctx, &model.RegisterRequest{
		Name:     "aLiCe",
		Password: "another pass",
		Timezone: "UTC",
	})
	if err == nil {
		t.Fatal("case-variant duplicate registration succeeded")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
}

func TestRegisterAdminRoleFromConfiguredSet(t *testing.T) {
	svc := newTestService(t, "rutvik")

	reg := register(t, svc, "Rutvik", "correct horse", "Asia/Kolkata")
	if reg.User.Role != model.RoleAdmin {
		t.Errorf("configured admin username got role %q", reg.User.Role)
	}

	other := register(t, svc, "bob", "correct horse", "UTC")
	if other.User.Role != model.RoleMember {
		t.Errorf("unlisted username got role %q", other.User.Role)
	}
}

func TestLoginUniformErrorForUnknownUserAndWrongPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	register(t, svc, "alice", "correct horse", "UTC")

	_, errUnknown := svc.Login(ctx, &model.LoginRequest{Name: "nobody", Password: "whatever"})
	_, errWrongPass := svc.Login(ctx, &model.LoginRequest{Name: "alice", Password: "wrong"})

	if errUnknown == nil || errWrongPass == nil {
		t.Fatal("expected both logins to fail")
	}

	unknownErr := apperrors.AsAppError(errUnknown)
	wrongPassErr := apperrors.AsAppError(errWrongPass)

	if unknownErr.Code != apperrors.CodeUnauthorized {
		t.Errorf("unknown user: expected %s, got %s", apperrors.CodeUnauthorized, unknownErr.Code)
	}
	if unknownErr.Message != wrongPassErr.Message || unknownErr.Code != wrongPassErr.Code {
		t.Errorf("responses differ between unknown user (%q) and wrong password (%q)",
			unknownErr.Message, wrongPassErr.Message)
	}
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	register(t, svc, "alice", "correct horse", "UTC")

	for i := 0; i < 5; i++ {
		_, err := svc.Login(ctx, &model.LoginRequest{Name: "alice", Password: "wrong"})
		if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeUnauthorized {
			t.Fatalf("failure %d: expected %s, got %s", i+1, apperrors.CodeUnauthorized, appErr.Code)
		}
	}

	// Locked now, even for the correct password.
	_, err := svc.Login(ctx, &model.LoginRequest{Name: "alice", Password: "correct horse"})
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeRateLimited {
		t.Fatalf("expected %s after lockout, got %s", apperrors.CodeRateLimited, appErr.Code)
	}

	retryAfter, ok := appErr.Details["retry_after_seconds"].(int)
	if !ok {
		t.Fatalf("missing retry_after_seconds detail: %+v", appErr.Details)
	}
	if retryAfter <= 0 || retryAfter > int(testLockout.Seconds()) {
		t.Errorf("retry_after_seconds out of range: %d", retryAfter)
	}

	// Case variants map to the same identifier.
	_, err = svc.Login(ctx, &model.LoginRequest{Name: "ALICE", Password: "correct horse"})
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeRateLimited {
		t.Errorf("case variant bypassed lockout: got %s", appErr.Code)
	}
}

func TestLoginSuccessClearsFailureHistory(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	register(t, svc, "alice", "correct horse", "UTC")

	for i := 0; i < 4; i++ {
		svc.Login(ctx, &model.LoginRequest{Name: "alice", Password: "wrong"})
	}

	if _, err := svc.Login(ctx, &model.LoginRequest{Name: "alice", Password: "correct horse"}); err != nil {
		t.Fatalf("login below threshold failed: %v", err)
	}

	// The slate is clean: four more failures stay below the threshold.
	for i := 0; i < 4; i++ {
		svc.Login(ctx, &model.LoginRequest{Name: "alice", Password: "wrong"})
	}
	if _, err := svc.Login(ctx, &model.LoginRequest{Name: "alice", Password: "correct horse"}); err != nil {
		t.Errorf("failure history not cleared by successful login: %v", err)
	}
}

func TestCurrentUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	reg := register(t, svc, "alice", "correct horse", "Europe/Berlin")

	user, err := svc.CurrentUser(ctx, &model.Caller{UserID: reg.User.ID})
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if user.Name != "alice" || user.Timezone != "Europe/Berlin" {
		t.Errorf("unexpected user %+v", user)
	}

	_, err = svc.CurrentUser(ctx, &model.Caller{UserID: "no-such-id"})
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected %s for unknown ID, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestUpdateTimezone(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	reg := register(t, svc, "alice", "correct horse", "UTC")
	caller := &model.Caller{UserID: reg.User.ID, Username: "alice", Role: model.RoleMember}

	updated, err := svc.UpdateTimezone(ctx, caller, "Asia/Tokyo")
	if err != nil {
		t.Fatalf("UpdateTimezone failed: %v", err)
	}
	if updated.Timezone != "Asia/Tokyo" {
		t.Errorf("timezone not updated, got %q", updated.Timezone)
	}

	if _, err := svc.UpdateTimezone(ctx, caller, "Not/AZone"); err == nil {
		t.Error("unknown timezone accepted")
	}
	if _, err := svc.UpdateTimezone(ctx, caller, "Local"); err == nil {
		t.Error("Local timezone accepted")
	}
}

func TestListUsers(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i, name := range []string{"charlie", "alice", "bob"} {
		register(t, svc, name, fmt.Sprintf("password %d", i), "UTC")
	}

	users, err := svc.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}
	for i, want := range []string{"alice", "bob", "charlie"} {
		if users[i].Name != want {
			t.Errorf("position %d: expected %q, got %q", i, want, users[i].Name)
		}
	}
}

func TestRegisterNormalizesUsernameWhitespace(t *testing.T) {
	svc := newTestService(t)

	reg := register(t, svc, "  alice   smith ", "correct horse", "UTC")
	if reg.User.Name != "alice smith" {
		t.Errorf("expected normalized name %q, got %q", "alice smith", reg.User.Name)
	}
}
