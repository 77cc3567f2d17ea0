package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/restaurant-ops/internal"
)

type RepositoryAPI interface {
	// GetCredentials returns nil when no account has this email.
	GetCredentials(ctx context.Context, email string) (*Credentials, error)
	// GetUserWithPermissions returns nil when the user does not exist.
	GetUserWithPermissions(ctx context.Context, userID int64) (*User, error)
}

// Service is the main auth service with dependencies
type Service struct {
	repo           RepositoryAPI
	tokenGenerator TokenGeneratorAPI
	logger         *slog.Logger
	timeout        time.Duration
}

func NewService(repo RepositoryAPI, tokenGen TokenGeneratorAPI, logger *slog.Logger, queryTimeout time.Duration) *Service {
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		logger:         logger,
		timeout:        queryTimeout,
	}
}

// Authenticate validates credentials and returns an access token. Unknown
// emails and wrong passwords produce the same error.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(dto.Email))
	creds, err := s.repo.GetCredentials(ctx, email)
	if err != nil {
		s.logger.Error("failed to load credentials", "error", err)
		return AuthTokens{}, internal.NewStoreUnavailableError("load credentials", err)
	}
	if creds == nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}
	if err := VerifyPassword(creds.PasswordHash, dto.Password); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}
	if !creds.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	user, err := s.loadUser(ctx, creds.UserID)
	if err != nil {
		return AuthTokens{}, err
	}

	token, expiresAt, err := s.tokenGenerator.GenerateAccessToken(user)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign token", err)
	}

	s.logger.Info("user authenticated", "user_id", user.ID)
	return AuthTokens{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString)
}

// Principal resolves a token to the caller, re-reading permissions so that
// revocations and deactivations apply before the token expires.
func (s *Service) Principal(ctx context.Context, tokenString string) (*internal.Principal, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.loadUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return user.ToPrincipal(), nil
}

func (s *Service) loadUser(ctx context.Context, userID int64) (*User, error) {
	user, err := s.repo.GetUserWithPermissions(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load user", "user_id", userID, "error", err)
		return nil, internal.NewStoreUnavailableError("load user", err)
	}
	if user == nil {
		return nil, internal.ErrInvalidToken
	}
	if !user.IsActive {
		return nil, internal.ErrUserInactive
	}
	return user, nil
}
