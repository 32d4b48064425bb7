package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/yanqian/workout-coach/pkg/errors"
)

const defaultIssuer = "workout-coach"

// Service exposes authentication workflows.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (UserView, error)
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
	Refresh(ctx context.Context, refreshToken string) (LoginResponse, error)
	Me(ctx context.Context, userID int64) (UserView, error)
}

type service struct {
	cfg    Config
	repo   Repository
	admins adminSet
	tokens *tokenSigner
	logger *slog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg Config, repo Repository, logger *slog.Logger) Service {
	if cfg.Issuer == "" {
		cfg.Issuer = defaultIssuer
	}
	return &service{
		cfg:    cfg,
		repo:   repo,
		admins: newAdminSet(cfg.AdminEmails),
		tokens: &tokenSigner{secret: []byte(cfg.Secret), issuer: cfg.Issuer, now: time.Now},
		logger: logger.With("component", "auth.service"),
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (UserView, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return UserView{}, apperrors.Wrap("invalid_input", "invalid email address", err)
	}
	nickname, err := normalizeNickname(req.Nickname, email)
	if err != nil {
		return UserView{}, apperrors.Wrap("invalid_input", err.Error(), nil)
	}
	if err := validatePassword(req.Password); err != nil {
		return UserView{}, apperrors.Wrap("invalid_input", err.Error(), nil)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserView{}, apperrors.Wrap("auth_error", "failed to hash password", err)
	}
	// Email uniqueness is enforced by the repository.
	user, err := s.repo.Create(ctx, email, nickname, string(hashed))
	switch {
	case errors.Is(err, ErrEmailExists):
		return UserView{}, apperrors.Wrap("email_exists", "email already registered", err)
	case err != nil:
		return UserView{}, apperrors.Wrap("auth_error", "failed to create user", err)
	}
	s.logger.Info("user registered", "user_id", user.ID, "admin", s.admins.contains(user.Email))
	return s.view(user), nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("invalid_input", "invalid email address", err)
	}
	if strings.TrimSpace(req.Password) == "" {
		return LoginResponse{}, apperrors.Wrap("invalid_input", "password cannot be empty", nil)
	}
	user, found, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("auth_error", "failed to fetch user", err)
	}
	if !found || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return LoginResponse{}, apperrors.Wrap("invalid_credentials", "invalid email or password", nil)
	}
	return s.session(user)
}

// ValidateToken accepts access tokens only. Admin is derived from the
// current configuration, not from the token.
func (s *service) ValidateToken(ctx context.Context, token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing", nil)
	}
	claims, err := s.tokens.verify(token, kindAccess)
	if err != nil {
		return Claims{}, err
	}
	return Claims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		TokenType: string(claims.Kind),
		ExpiresAt: claims.ExpiresAt.Time,
		Admin:     s.admins.contains(claims.Email),
	}, nil
}

func (s *service) Me(ctx context.Context, userID int64) (UserView, error) {
	user, err := s.lookup(ctx, userID)
	if err != nil {
		return UserView{}, err
	}
	return s.view(user), nil
}

// Refresh trades a refresh token for a new session. The account must still
// exist.
func (s *service) Refresh(ctx context.Context, refreshToken string) (LoginResponse, error) {
	claims, err := s.tokens.verify(refreshToken, kindRefresh)
	if err != nil {
		return LoginResponse{}, err
	}
	user, err := s.lookup(ctx, claims.UserID)
	if err != nil {
		return LoginResponse{}, err
	}
	return s.session(user)
}

func (s *service) lookup(ctx context.Context, userID int64) (User, error) {
	user, found, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, apperrors.Wrap("auth_error", "failed to load account", err)
	}
	if !found {
		return User{}, apperrors.Wrap("user_not_found", "user not found", nil)
	}
	return user, nil
}

func (s *service) session(user User) (LoginResponse, error) {
	access, expiresAt, err := s.tokens.issue(user, kindAccess, s.cfg.TokenTTL)
	if err != nil {
		return LoginResponse{}, err
	}
	refresh, _, err := s.tokens.issue(user, kindRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{
		Token:        access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		User:         s.view(user),
	}, nil
}

func (s *service) view(user User) UserView {
	return UserView{
		ID:        user.ID,
		Email:     user.Email,
		Nickname:  user.Nickname,
		CreatedAt: user.CreatedAt,
		Admin:     s.admins.contains(user.Email),
	}
}
