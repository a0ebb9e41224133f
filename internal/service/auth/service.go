package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicore/intake-api/internal/model"
	"github.com/clinicore/intake-api/internal/repository"
	"github.com/clinicore/intake-api/pkg/auth"
	"github.com/clinicore/intake-api/pkg/errors"
	"github.com/clinicore/intake-api/pkg/security"
)

// Service issues and refreshes token pairs. Lookup failures and bad
// passwords collapse into one "invalid credentials" error so responses do
// not reveal which accounts exist.
type Service struct {
	users  repository.UserRepository
	jwt    auth.JWTService
	hasher security.PasswordHasher
	logger zerolog.Logger
}

func NewService(users repository.UserRepository, jwt auth.JWTService, hasher security.PasswordHasher, logger zerolog.Logger) *Service {
	return &Service{users: users, jwt: jwt, hasher: hasher, logger: logger}
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.Authentication("invalid credentials", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.Status != model.UserStatusActive {
		return nil, errors.Authentication("invalid credentials", fmt.Errorf("user %s is %s", user.ID, user.Status))
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, errors.Authentication("invalid credentials", err)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to record login time")
	}

	return tokens, nil
}

// RefreshToken exchanges a valid refresh token for a fresh pair. The user is
// re-read so a deactivation or role change takes effect immediately.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.Authentication("invalid refresh token", err)
	}

	user, err := s.users.Get(ctx, claims.UserID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.Authentication("invalid refresh token", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Status != model.UserStatusActive {
		return nil, errors.Authentication("invalid refresh token", fmt.Errorf("user %s is %s", user.ID, user.Status))
	}

	return s.issueTokens(user)
}

// ValidateToken parses an access token into the acting principal.
func (s *Service) ValidateToken(token string) (model.Principal, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return model.Principal{}, errors.Authentication("invalid token", err)
	}
	return claims.Principal(), nil
}

func (s *Service) issueTokens(user *model.User) (*model.TokenResponse, error) {
	access, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &model.TokenResponse{AccessToken: access, RefreshToken: refresh}, nil
}
