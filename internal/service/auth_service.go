package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/shift-service/internal/auth"
	"github.com/spec-kit/shift-service/internal/config"
	"github.com/spec-kit/shift-service/internal/domain"
	"github.com/spec-kit/shift-service/internal/repository"
	apperrors "github.com/spec-kit/shift-service/pkg/util"
)

// AuthService coordinates login and account provisioning.
type AuthService struct {
	users      repository.UserRepository
	stores     repository.StoreRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	StoreRepo    repository.StoreRepository
	TokenManager *auth.TokenManager
	Logger       *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	tokens := deps.TokenManager
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	}
	return &AuthService{
		users:      deps.UserRepo,
		stores:     deps.StoreRepo,
		tokenMgr:   tokens,
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     loggerOrNop(deps.Logger),
	}
}

// UserInput describes a new store member.
type UserInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
	StoreID  string
}

var errInvalidCredentials = apperrors.NewUnauthorized("invalid email or password")

// Login verifies credentials and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", time.Time{}, errInvalidCredentials
	}
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, errInvalidCredentials
	}
	if !user.Active {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account is deactivated")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.Identity())
	if err != nil {
		return nil, "", time.Time{}, err
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, token, exp, nil
}

// IssueToken mints a token for an existing active user.
func (s *AuthService) IssueToken(ctx context.Context, userID string) (string, time.Time, error) {
	if err := requireID("user", userID); err != nil {
		return "", time.Time{}, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", time.Time{}, notFound(err, "user", userID)
	}
	if !user.Active {
		return "", time.Time{}, apperrors.NewUnauthorized("account is deactivated")
	}
	return s.tokenMgr.GenerateToken(user.Identity())
}

// Me returns the stored account behind an identity.
func (s *AuthService) Me(ctx context.Context, actor domain.Identity) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, notFound(err, "user", actor.UserID)
	}
	return user, nil
}

// CreateUser provisions a store member with a hashed password.
func (s *AuthService) CreateUser(ctx context.Context, input UserInput) (*domain.User, error) {
	details := map[string]any{}
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" {
		details["name"] = "is required"
	}
	if !strings.Contains(email, "@") {
		details["email"] = "must be a valid address"
	}
	if !input.Role.Valid() {
		details["role"] = "must be admin, manager or employee"
	}
	if len(input.Password) < auth.MinPasswordLength {
		details["password"] = "is too short"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid user", details)
	}

	if err := requireID("store", input.StoreID); err != nil {
		return nil, err
	}
	if _, err := s.stores.GetByID(ctx, input.StoreID); err != nil {
		return nil, notFound(err, "store", input.StoreID)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		StoreID:      input.StoreID,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, err
	}
	return user, nil
}

// CreateStore registers a store with its default approval policy.
func (s *AuthService) CreateStore(ctx context.Context, name string, approvalRequired bool) (*domain.Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("store name is required", nil)
	}
	store := &domain.Store{Name: name, ApprovalRequired: approvalRequired}
	if err := s.stores.Create(ctx, store); err != nil {
		return nil, err
	}
	return store, nil
}
