package service

import (
	"context"
	"errors"

	identityerrors "slotboard/internal/identity/errors"
	"slotboard/internal/identity/limiter"
	"slotboard/internal/identity/password"
	"slotboard/internal/identity/repository"
	"slotboard/internal/identity/token"
	"slotboard/internal/identity/validator"
	"slotboard/pkg/config"
	apperrors "slotboard/pkg/errors"
	"slotboard/pkg/model"
	"slotboard/pkg/sanitizer"
)

// invalidCredentials is returned for unknown usernames and wrong passwords
// alike, so responses cannot be used to probe which accounts exist.
const invalidCredentials = "Invalid username or password"

type IdentityService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error)
	Verify(tokenString string) (*model.Caller, error)
	CurrentUser(ctx context.Context, caller *model.Caller) (*model.User, error)
	UpdateTimezone(ctx context.Context, caller *model.Caller, tz string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
}

type identityService struct {
	repo      repository.UserRepository
	validator *validator.UserValidator
	tokens    *token.Manager
	limiter   *limiter.LoginLimiter
	cfg       *config.Config
}

func NewIdentityService(
	repo repository.UserRepository,
	validator *validator.UserValidator,
	tokens *token.Manager,
	loginLimiter *limiter.LoginLimiter,
	cfg *config.Config,
) IdentityService {
	return &identityService{
		repo:      repo,
		validator: validator,
		tokens:    tokens,
		limiter:   loginLimiter,
		cfg:       cfg,
	}
}

func (s *identityService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	req.Name = sanitizer.NormalizeUsername(req.Name)

	if err := s.validator.ValidateRegister(req); err != nil {
		s.cfg.Log.Warn("Registration validation failed", "error", err)
		return nil, apperrors.Validation("Invalid registration input", map[string]any{"error": err.Error()})
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to process credentials", err)
	}

	user := &model.User{
		Name:         req.Name,
		NameLower:    sanitizer.UsernameKey(req.Name),
		PasswordHash: hash,
		Role:         model.RoleMember,
		Timezone:     req.Timezone,
	}
	if s.cfg.IsAdminUsername(user.Name) {
		user.Role = model.RoleAdmin
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx context.Context) error {
		_, err := s.repo.FindByNameKey(sessCtx, user.NameLower)
		if err == nil {
			return apperrors.Conflict("Username is already taken")
		}
		if !errors.Is(err, identityerrors.ErrNotFound) {
			return apperrors.Internal("Failed to check username availability", err)
		}

		if err := s.repo.Create(sessCtx, user); err != nil {
			// The unique index catches races the pre-check missed.
			if errors.Is(err, identityerrors.ErrDuplicateUsername) {
				return apperrors.Conflict("Username is already taken")
			}
			return apperrors.Internal("Failed to create user", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Warn("Registration failed", "name", req.Name, "error", err)
		return nil, err
	}

	accessToken, err := s.tokens.Mint(user)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue access token", err)
	}

	s.cfg.Log.Info("User registered",
		"id", user.ID,
		"name", user.Name,
		"role", user.Role,
	)

	return &model.AuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		User:        *user,
	}, nil
}

func (s *identityService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	req.Name = sanitizer.NormalizeUsername(req.Name)

	if err := s.validator.ValidateLogin(req); err != nil {
		return nil, apperrors.Validation("Invalid login input", map[string]any{"error": err.Error()})
	}

	key := sanitizer.UsernameKey(req.Name)

	// The lockout check runs before credentials are examined, so a locked
	// identifier stays locked even when the password is correct.
	if remaining, locked := s.limiter.Check(key); locked {
		s.cfg.Log.Warn("Login attempt while locked out", "name", req.Name, "retry_after", remaining)
		return nil, apperrors.RateLimited("Too many failed login attempts", remaining)
	}

	user, err := s.repo.FindByNameKey(ctx, key)
	if err != nil {
		if errors.Is(err, identityerrors.ErrNotFound) {
			s.limiter.RecordFailure(key)
			return nil, apperrors.Unauthorized(invalidCredentials)
		}
		return nil, apperrors.Internal("Failed to look up user", err)
	}

	if err := password.Verify(req.Password, user.PasswordHash); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			s.limiter.RecordFailure(key)
			s.cfg.Log.Warn("Login failed", "name", req.Name)
			return nil, apperrors.Unauthorized(invalidCredentials)
		}
		return nil, apperrors.Internal("Failed to verify credentials", err)
	}

	s.limiter.Clear(key)

	accessToken, err := s.tokens.Mint(user)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue access token", err)
	}

	s.cfg.Log.Info("User logged in", "id", user.ID, "name", user.Name)

	return &model.AuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		User:        *user,
	}, nil
}

// Verify resolves a bearer token to the caller it identifies. Pure token
// work, no database round-trip.
func (s *identityService) Verify(tokenString string) (*model.Caller, error) {
	return s.tokens.Verify(tokenString)
}

func (s *identityService) CurrentUser(ctx context.Context, caller *model.Caller) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, identityerrors.ErrNotFound) {
			return nil, apperrors.NotFound("User")
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}

	return user, nil
}

func (s *identityService) UpdateTimezone(ctx context.Context, caller *model.Caller, tz string) (*model.User, error) {
	if err := s.validator.ValidateTimezone(tz); err != nil {
		return nil, apperrors.Validation("Invalid timezone", map[string]any{"error": err.Error()})
	}

	if err := s.repo.UpdateTimezone(ctx, caller.UserID, tz); err != nil {
		if errors.Is(err, identityerrors.ErrNotFound) {
			return nil, apperrors.NotFound("User")
		}
		return nil, apperrors.Internal("Failed to update timezone", err)
	}

	user, err := s.repo.FindByID(ctx, caller.UserID)
	if err != nil {
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}

	s.cfg.Log.Info("User timezone updated", "id", caller.UserID, "timezone", tz)
	return user, nil
}

func (s *identityService) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list users", "error", err)
		return nil, apperrors.Internal("Failed to retrieve users", err)
	}

	return users, nil
}
