package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/useradmin/userapi/shared/cqrs"
	"github.com/useradmin/userapi/shared/errs"
	"github.com/useradmin/userapi/shared/models"
	"github.com/useradmin/userapi/user-service/internal/repository"
)

// AccountQueryService answers read-only account requests. Projections come
// from the read repository (Redis when configured), full records from the
// store.
type AccountQueryService struct {
	store    repository.AccountStore
	readRepo *repository.AccountReadRepository
}

func NewAccountQueryService(store repository.AccountStore, readRepo *repository.AccountReadRepository) *AccountQueryService {
	return &AccountQueryService{store: store, readRepo: readRepo}
}

// GetByLogin returns the projection of any account. Administrators only.
func (s *AccountQueryService) GetByLogin(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error) {
	if strings.TrimSpace(q.Login) == "" {
		return nil, fmt.Errorf("%w: login is required", errs.ErrValidation)
	}
	if err := requireAdmin(q.Caller); err != nil {
		return nil, err
	}
	view, err := s.readRepo.GetView(ctx, q.Login)
	if err != nil {
		return nil, notFound(err)
	}
	return view, nil
}

// GetCurrentUser returns the projection of the caller's own account. A
// revoked caller is treated as unauthenticated.
func (s *AccountQueryService) GetCurrentUser(ctx context.Context, q cqrs.GetCurrentAccountQuery) (*models.AccountView, error) {
	if !q.Caller.Authenticated() {
		return nil, errs.ErrUnauthenticated
	}
	account, err := s.store.GetByLogin(ctx, q.Caller.Login)
	if err != nil {
		return nil, notFound(err)
	}
	if !account.IsActive() {
		return nil, fmt.Errorf("%w: %w", errs.ErrUnauthenticated, errs.ErrRevoked)
	}
	return models.NewAccountView(account), nil
}

// GetOlderThan lists accounts at least age years old. Administrators only.
func (s *AccountQueryService) GetOlderThan(ctx context.Context, q cqrs.ListOlderThanQuery) ([]models.Account, error) {
	if err := requireAdmin(q.Caller); err != nil {
		return nil, err
	}
	if q.Age <= 0 {
		return nil, fmt.Errorf("%w: age must be positive", errs.ErrValidation)
	}
	accounts, err := s.store.GetOlderThan(ctx, q.Age)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// ListActive lists every account that is not revoked, oldest first.
// Administrators only.
func (s *AccountQueryService) ListActive(ctx context.Context, q cqrs.ListActiveQuery) ([]models.Account, error) {
	if err := requireAdmin(q.Caller); err != nil {
		return nil, err
	}
	accounts, err := s.store.GetAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func requireAdmin(caller models.Caller) error {
	if !caller.Authenticated() {
		return errs.ErrUnauthenticated
	}
	if !caller.Admin {
		return errs.ErrForbidden
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errs.ErrNotFound
	}
	return fmt.Errorf("failed to load account: %w", err)
}
