package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/useradmin/userapi/shared/cqrs"
	"github.com/useradmin/userapi/shared/errs"
	"github.com/useradmin/userapi/shared/middleware"
	"github.com/useradmin/userapi/user-service/internal/repository"
)

// ErrInvalidCredentials is returned by Login for an unknown login, a wrong
// password or a revoked account alike.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", errs.ErrUnauthenticated)

// TokenConfig holds the signing parameters for issued tokens.
type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// AuthQueryService exchanges credentials for bearer tokens. There's no
// command side because issuing a token does not change account state.
type AuthQueryService struct {
	store  repository.AccountStore
	config TokenConfig
	now    func() time.Time
}

func NewAuthQueryService(store repository.AccountStore, config TokenConfig) *AuthQueryService {
	return &AuthQueryService{store: store, config: config, now: time.Now}
}

func (s *AuthQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand) (string, error) {
	account, err := s.store.GetByLoginAndPassword(ctx, cmd.Login, cmd.Password)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to check credentials: %w", err)
	}
	return s.generateToken(account.Login, account.Admin)
}

// RefreshToken issues a fresh token for the account named in a still valid
// token. The role is re-read from the store, and revoked accounts are refused.
func (s *AuthQueryService) RefreshToken(ctx context.Context, cmd cqrs.RefreshTokenCommand) (string, error) {
	claims, err := middleware.ParseToken(cmd.Token, s.config.Secret, s.config.Issuer)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrUnauthenticated, err)
	}
	account, err := s.store.GetByLogin(ctx, claims.Login)
	if errors.Is(err, repository.ErrNotFound) {
		return "", errs.ErrUnauthenticated
	}
	if err != nil {
		return "", fmt.Errorf("failed to load account: %w", err)
	}
	if !account.IsActive() {
		return "", fmt.Errorf("%w: %w", errs.ErrUnauthenticated, errs.ErrRevoked)
	}
	return s.generateToken(account.Login, account.Admin)
}

func (s *AuthQueryService) generateToken(login string, admin bool) (string, error) {
	now := s.now()
	claims := middleware.Claims{
		Login: login,
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   login,
			Issuer:    s.config.Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}
