package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/supportdesk/ticket-dashboard/internal/api/dto"
	"github.com/supportdesk/ticket-dashboard/internal/auth"
	"github.com/supportdesk/ticket-dashboard/internal/config"
	"github.com/supportdesk/ticket-dashboard/internal/domain"
	"github.com/supportdesk/ticket-dashboard/internal/repository"
	"github.com/supportdesk/ticket-dashboard/pkg/util"
)

const refreshTokenTTL = 30 * 24 * time.Hour

// AuthService coordinates registration, login and token refresh.
type AuthService struct {
	users      repository.UserRepository
	tokens     repository.RefreshTokenRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo  repository.UserRepository
	TokenRepo repository.RefreshTokenRepository
	Logger    *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     deps.TokenRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL()),
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     deps.Logger,
	}
}

// TokenManager exposes the manager for the HTTP middleware.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates an account. Username and email must be unique across all
// accounts, including deactivated ones.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResult, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if err := validateRegistration(username, email, req.Password); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	if !role.Valid() {
		return nil, util.NewValidationError("unknown role", map[string]any{"role": req.Role})
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, util.NewConflict("username already taken", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, util.MapError(err)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, util.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, util.MapError(err)
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, util.NewInternalError(err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, util.MapError(err)
	}
	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))

	return s.issueTokens(ctx, user)
}

// Login authenticates by username and password. A valid login stamps
// lastLoginAt.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResult, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewUnauthorized("invalid credentials")
		}
		return nil, util.MapError(err)
	}
	if !user.IsActive {
		return nil, util.NewUnauthorized("account deactivated")
	}
	if err := auth.ComparePassword(user.PasswordHash, req.Password); err != nil {
		return nil, util.NewUnauthorized("invalid credentials")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Warn("failed to stamp last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	return s.issueTokens(ctx, user)
}

// Refresh exchanges a refresh token for a new token pair. The presented
// token is consumed even when expired.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResult, error) {
	stored, err := s.tokens.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewUnauthorized("invalid refresh token")
		}
		return nil, util.MapError(err)
	}
	if err := s.tokens.Delete(ctx, refreshToken); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, util.MapError(err)
	}
	if stored.Expired(time.Now()) {
		return nil, util.NewUnauthorized("refresh token expired")
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, util.NewUnauthorized("invalid refresh token")
	}
	if !user.IsActive {
		return nil, util.NewUnauthorized("account deactivated")
	}
	return s.issueTokens(ctx, user)
}

// Logout revokes every refresh token of the user. Access tokens stay valid
// until they expire.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	return util.MapError(s.tokens.DeleteForUser(ctx, userID))
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, util.MapError(err)
	}
	resp := dto.NewUserResponse(*user)
	return &resp, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*dto.AuthResult, error) {
	access, expiresAt, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, util.NewInternalError(err)
	}

	refresh, err := newOpaqueToken()
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	row := &domain.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}
	if err := s.tokens.Create(ctx, row); err != nil {
		return nil, util.MapError(err)
	}

	resp := dto.NewUserResponse(*user)
	return &dto.AuthResult{
		Success:      true,
		Token:        access,
		RefreshToken: refresh,
		ExpiresAt:    &expiresAt,
		User:         &resp,
	}, nil
}

func newOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func validateRegistration(username, email, password string) error {
	details := map[string]any{}
	if len(username) < 3 {
		details["username"] = "must be at least 3 characters"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		details["email"] = "must be a valid email address"
	}
	if len(password) < 8 {
		details["password"] = "must be at least 8 characters"
	}
	if len(details) > 0 {
		return util.NewValidationError("invalid registration", details)
	}
	return nil
}
