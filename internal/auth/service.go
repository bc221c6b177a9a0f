package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bizinsight360/bizinsight360/internal/platform/httpx"
	"github.com/bizinsight360/bizinsight360/internal/rbac"
	"github.com/bizinsight360/bizinsight360/internal/shared"
	"github.com/bizinsight360/bizinsight360/internal/users"
)

// ResetMailer delivers password reset links.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

// Options configures the Service.
type Options struct {
	FrontendURL   string
	ResetTokenTTL time.Duration
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	TokenPair
	User users.PublicUser `json:"user"`
}

// RegisterInput creates a new USER account.
type RegisterInput struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	FullName *string `json:"fullName" validate:"omitempty,max=255"`
}

// Service implements the credential and token lifecycle.
type Service struct {
	users    users.Repository
	tokens   *TokenIssuer
	mailer   ResetMailer
	opts     Options
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs a Service.
func NewService(repo users.Repository, tokens *TokenIssuer, mailer ResetMailer, opts Options, logger *slog.Logger) *Service {
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:    repo,
		tokens:   tokens,
		mailer:   mailer,
		opts:     opts,
		logger:   logger,
		validate: httpx.NewValidator(),
		now:      time.Now,
	}
}

// Login verifies credentials, stores a fresh refresh token and returns both tokens.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return LoginResult{}, shared.ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}
	if !VerifyPassword(password, u.PasswordHash) {
		return LoginResult{}, shared.ErrInvalidCredentials
	}
	pair, err := s.issueAndStore(ctx, u.ID, u.Role)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{TokenPair: pair, User: u.Public()}, nil
}

// Refresh exchanges a valid refresh token for a new pair. The presented token
// must match the one stored on the user; the stored token is rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	userID, _ := claims.UserID()
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return TokenPair{}, fmt.Errorf("%w: invalid refresh token", shared.ErrUnauthorized)
		}
		return TokenPair{}, err
	}
	if u.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*u.RefreshToken), []byte(refreshToken)) != 1 {
		return TokenPair{}, fmt.Errorf("%w: invalid refresh token", shared.ErrUnauthorized)
	}
	return s.issueAndStore(ctx, u.ID, u.Role)
}

// Logout revokes the stored refresh token.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.users.SetRefreshToken(ctx, userID, nil)
}

// Register creates a USER account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (users.PublicUser, error) {
	if err := s.validate.Struct(in); err != nil {
		return users.PublicUser{}, httpx.ValidationError(err)
	}
	email := users.NormalizeEmail(in.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return users.PublicUser{}, fmt.Errorf("%w: email already exists", shared.ErrDuplicate)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return users.PublicUser{}, fmt.Errorf("lookup user: %w", err)
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return users.PublicUser{}, fmt.Errorf("hash password: %w", err)
	}
	fullName := users.DefaultFullName
	if in.FullName != nil && strings.TrimSpace(*in.FullName) != "" {
		fullName = strings.TrimSpace(*in.FullName)
	}
	created, err := s.users.Create(ctx, users.User{
		Email:        email,
		FullName:     &fullName,
		PasswordHash: hash,
		Role:         rbac.RoleUser,
	})
	if err != nil {
		return users.PublicUser{}, err
	}
	return created.Public(), nil
}

// ForgotPassword stores a new reset token and mails the reset link.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	return s.sendResetToken(ctx, email)
}

// ResendToken replaces any outstanding reset token and mails it again.
func (s *Service) ResendToken(ctx context.Context, email string) error {
	return s.sendResetToken(ctx, email)
}

// ResetPassword sets a new password for the holder of token. Unknown or
// expired tokens fail without touching the stored token.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return shared.ErrInvalidOrExpiredToken
	}
	if err := s.validate.Var(newPassword, "required,min=6,max=72"); err != nil {
		return httpx.FieldError("newPassword", err)
	}
	u, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}
	if u.ResetTokenExpires != nil && u.ResetTokenExpires.Before(s.now()) {
		return shared.ErrInvalidOrExpiredToken
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, u.ID, hash)
}

func (s *Service) sendResetToken(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: user not found", shared.ErrNotFound)
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	token, expires := GenerateResetToken(s.now(), s.opts.ResetTokenTTL)
	if err := s.users.SetResetToken(ctx, u.ID, &token, &expires); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	if err := s.mailer.SendPasswordReset(ctx, u.Email, s.resetURL(token)); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	s.logger.Info("password reset requested", slog.Int64("user_id", u.ID))
	return nil
}

func (s *Service) resetURL(token string) string {
	return strings.TrimRight(s.opts.FrontendURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

func (s *Service) issueAndStore(ctx context.Context, userID int64, role rbac.Role) (TokenPair, error) {
	pair, err := s.tokens.IssuePair(userID, role)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.users.SetRefreshToken(ctx, userID, &pair.RefreshToken); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return pair, nil
}
