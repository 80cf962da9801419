package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/useradmin/userapi/shared/cqrs"
	"github.com/useradmin/userapi/shared/errs"
	"github.com/useradmin/userapi/shared/events"
	"github.com/useradmin/userapi/shared/models"
	"github.com/useradmin/userapi/shared/utils"
	"github.com/useradmin/userapi/shared/validation"
	"github.com/useradmin/userapi/user-service/internal/repository"
)

// EventPublisher is satisfied by *events.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

// AccountCommandService applies every account lifecycle mutation. All
// lookup-then-write sequences run under mu, so a login can never be taken
// twice and no update is applied to an account that changed in between.
// The cached projections are refreshed under the same lock; events are
// published after it is released.
type AccountCommandService struct {
	store     repository.AccountStore
	readRepo  *repository.AccountReadRepository
	hasher    utils.PasswordHasher
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time

	mu sync.Mutex
}

// NewAccountCommandService wires the service. publisher may be nil, in which
// case no events are emitted.
func NewAccountCommandService(
	store repository.AccountStore,
	readRepo *repository.AccountReadRepository,
	hasher utils.PasswordHasher,
	publisher EventPublisher,
	logger *slog.Logger,
) *AccountCommandService {
	return &AccountCommandService{
		store:     store,
		readRepo:  readRepo,
		hasher:    hasher,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used for audit stamps.
func (s *AccountCommandService) WithClock(now func() time.Time) *AccountCommandService {
	s.now = now
	return s
}

// Create adds a new account. Only administrators may create accounts.
func (s *AccountCommandService) Create(ctx context.Context, cmd cqrs.CreateAccountCommand) (*models.Account, error) {
	if strings.TrimSpace(cmd.Login) == "" {
		return nil, fmt.Errorf("%w: login is required", errs.ErrValidation)
	}
	if err := requireAdmin(cmd.Caller); err != nil {
		return nil, err
	}
	if err := validation.Check(cmd); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var created *models.Account
	err = s.mutate(ctx, func() (pendingEvent, error) {
		if _, err := s.store.GetByLogin(ctx, cmd.Login); err == nil {
			return pendingEvent{}, errs.ErrConflict
		} else if !errors.Is(err, repository.ErrNotFound) {
			return pendingEvent{}, fmt.Errorf("failed to check login: %w", err)
		}

		now := s.now()
		account := &models.Account{
			ID:         uuid.NewString(),
			Login:      cmd.Login,
			Password:   hash,
			Name:       cmd.Name,
			Gender:     cmd.Gender,
			Birthday:   copyTime(cmd.Birthday),
			Admin:      cmd.Admin,
			CreatedAt:  now,
			CreatedBy:  cmd.Caller.Login,
			ModifiedAt: now,
			ModifiedBy: cmd.Caller.Login,
		}

		added, err := s.store.Add(ctx, account)
		if err != nil {
			return pendingEvent{}, err
		}

		s.refreshView(ctx, added)
		s.logger.Info("account created", "login", added.Login, "admin", added.Admin, "by", cmd.Caller.Login)
		created = added
		return accountEvent(events.AccountCreated, added, cmd.Caller.Login, ""), nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateDetails overwrites name, gender and birthday. Administrators may
// update anyone, other callers only themselves.
func (s *AccountCommandService) UpdateDetails(ctx context.Context, cmd cqrs.UpdateDetailsCommand) (*models.Account, error) {
	var updated *models.Account
	err := s.mutate(ctx, func() (pendingEvent, error) {
		account, err := s.loadMutable(ctx, cmd.Login, cmd.Caller)
		if err != nil {
			return pendingEvent{}, err
		}
		if err := requireSelfOrAdmin(cmd.Caller, account); err != nil {
			return pendingEvent{}, err
		}
		if err := validation.Check(cmd); err != nil {
			return pendingEvent{}, err
		}

		account.Name = cmd.Name
		account.Gender = cmd.Gender
		account.Birthday = copyTime(cmd.Birthday)
		s.stamp(account, cmd.Caller.Login)

		if err := s.store.Update(ctx, account); err != nil {
			return pendingEvent{}, err
		}

		s.refreshView(ctx, account)
		updated = account
		return accountEvent(events.AccountDetailsUpdated, account, cmd.Caller.Login, ""), nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ChangePassword replaces the credential of the target account. Callers
// without the administrator role must present the current password.
func (s *AccountCommandService) ChangePassword(ctx context.Context, cmd cqrs.ChangePasswordCommand) error {
	return s.mutate(ctx, func() (pendingEvent, error) {
		account, err := s.loadMutable(ctx, cmd.Login, cmd.Caller)
		if err != nil {
			return pendingEvent{}, err
		}
		if err := validation.Check(cmd); err != nil {
			return pendingEvent{}, err
		}
		if !cmd.Caller.Admin {
			if cmd.OldPassword == "" {
				return pendingEvent{}, fmt.Errorf("%w: old password is required", errs.ErrValidation)
			}
			if !s.hasher.Compare(account.Password, cmd.OldPassword) {
				return pendingEvent{}, errs.ErrInvalidCredential
			}
		}

		hash, err := s.hasher.Hash(cmd.NewPassword)
		if err != nil {
			return pendingEvent{}, fmt.Errorf("failed to hash password: %w", err)
		}
		account.Password = hash
		s.stamp(account, cmd.Caller.Login)

		if err := s.store.Update(ctx, account); err != nil {
			return pendingEvent{}, err
		}
		return accountEvent(events.AccountPasswordChanged, account, cmd.Caller.Login, ""), nil
	})
}

// UpdateLogin renames the target account. Authorization is the same as for
// UpdateDetails.
func (s *AccountCommandService) UpdateLogin(ctx context.Context, cmd cqrs.UpdateLoginCommand) (*models.Account, error) {
	var renamed *models.Account
	err := s.mutate(ctx, func() (pendingEvent, error) {
		account, err := s.loadMutable(ctx, cmd.Login, cmd.Caller)
		if err != nil {
			return pendingEvent{}, err
		}
		if err := requireSelfOrAdmin(cmd.Caller, account); err != nil {
			return pendingEvent{}, err
		}
		if err := validation.Check(cmd); err != nil {
			return pendingEvent{}, err
		}

		existing, err := s.store.GetByLogin(ctx, cmd.NewLogin)
		switch {
		case err == nil && existing.ID != account.ID:
			return pendingEvent{}, errs.ErrConflict
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return pendingEvent{}, fmt.Errorf("failed to check login: %w", err)
		}

		previous := account.Login
		account.Login = cmd.NewLogin
		s.stamp(account, cmd.Caller.Login)

		if err := s.store.Update(ctx, account); err != nil {
			return pendingEvent{}, err
		}

		s.readRepo.InvalidateAccountView(ctx, previous)
		s.refreshView(ctx, account)
		s.logger.Info("account renamed", "from", previous, "to", account.Login, "by", cmd.Caller.Login)
		renamed = account
		return accountEvent(events.AccountLoginChanged, account, cmd.Caller.Login, previous), nil
	})
	if err != nil {
		return nil, err
	}
	return renamed, nil
}

// Revoke soft-deletes the target account, or removes it for good when
// cmd.Hard is set. Revoking an already revoked account re-stamps it.
func (s *AccountCommandService) Revoke(ctx context.Context, cmd cqrs.RevokeAccountCommand) error {
	return s.mutate(ctx, func() (pendingEvent, error) {
		account, err := s.loadForAdmin(ctx, cmd.Login, cmd.Caller)
		if err != nil {
			return pendingEvent{}, err
		}

		if cmd.Hard {
			if err := s.store.Delete(ctx, account); err != nil {
				return pendingEvent{}, err
			}
			s.readRepo.InvalidateAccountView(ctx, account.Login)
			s.logger.Info("account deleted", "login", account.Login, "by", cmd.Caller.Login)
			return accountEvent(events.AccountDeleted, account, cmd.Caller.Login, ""), nil
		}

		now := s.now()
		account.RevokedAt = &now
		account.RevokedBy = cmd.Caller.Login
		s.stamp(account, cmd.Caller.Login)

		if err := s.store.Update(ctx, account); err != nil {
			return pendingEvent{}, err
		}

		s.refreshView(ctx, account)
		s.logger.Info("account revoked", "login", account.Login, "by", cmd.Caller.Login)
		return accountEvent(events.AccountRevoked, account, cmd.Caller.Login, ""), nil
	})
}

// Restore clears the revocation of the target account whether or not it is
// currently revoked. The modification stamps are left untouched.
func (s *AccountCommandService) Restore(ctx context.Context, cmd cqrs.RestoreAccountCommand) (*models.Account, error) {
	var restored *models.Account
	err := s.mutate(ctx, func() (pendingEvent, error) {
		account, err := s.loadForAdmin(ctx, cmd.Login, cmd.Caller)
		if err != nil {
			return pendingEvent{}, err
		}

		account.RevokedAt = nil
		account.RevokedBy = ""

		if err := s.store.Update(ctx, account); err != nil {
			return pendingEvent{}, err
		}

		s.refreshView(ctx, account)
		s.logger.Info("account restored", "login", account.Login, "by", cmd.Caller.Login)
		restored = account
		return accountEvent(events.AccountRestored, account, cmd.Caller.Login, ""), nil
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// EnsureAdmin creates the administrator account on startup unless an account
// with that login already exists.
func (s *AccountCommandService) EnsureAdmin(ctx context.Context, login, password string) error {
	_, err := s.Create(ctx, cqrs.CreateAccountCommand{
		Login:    login,
		Password: password,
		Name:     "Admin",
		Gender:   models.GenderFemale,
		Admin:    true,
		Caller:   models.Caller{Login: models.SystemActor, Admin: true},
	})
	if errors.Is(err, errs.ErrConflict) {
		s.logger.Debug("administrator account already present", "login", login)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to seed administrator %q: %w", login, err)
	}
	return nil
}

// load applies the preconditions shared by every operation on an existing
// account: non-empty login, authenticated caller, existing account.
func (s *AccountCommandService) load(ctx context.Context, login string, caller models.Caller, adminOnly bool) (*models.Account, error) {
	if strings.TrimSpace(login) == "" {
		return nil, fmt.Errorf("%w: login is required", errs.ErrValidation)
	}
	if !caller.Authenticated() {
		return nil, errs.ErrUnauthenticated
	}
	if adminOnly && !caller.Admin {
		return nil, errs.ErrForbidden
	}
	account, err := s.store.GetByLogin(ctx, login)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return account, nil
}

func (s *AccountCommandService) loadForAdmin(ctx context.Context, login string, caller models.Caller) (*models.Account, error) {
	return s.load(ctx, login, caller, true)
}

// loadMutable additionally rejects revoked accounts.
func (s *AccountCommandService) loadMutable(ctx context.Context, login string, caller models.Caller) (*models.Account, error) {
	account, err := s.load(ctx, login, caller, false)
	if err != nil {
		return nil, err
	}
	if !account.IsActive() {
		return nil, errs.ErrRevoked
	}
	return account, nil
}

// stamp records actor as the last modifier. ModifiedAt never moves backwards.
func (s *AccountCommandService) stamp(account *models.Account, actor string) {
	now := s.now()
	if now.Before(account.ModifiedAt) {
		now = account.ModifiedAt
	}
	account.ModifiedAt = now
	account.ModifiedBy = actor
}

// pendingEvent is published once mu has been released.
type pendingEvent struct {
	eventType string
	payload   events.AccountEvent
}

func accountEvent(eventType string, account *models.Account, actor, previousLogin string) pendingEvent {
	return pendingEvent{
		eventType: eventType,
		payload: events.AccountEvent{
			AccountID:     account.ID,
			Login:         account.Login,
			PreviousLogin: previousLogin,
			Actor:         actor,
		},
	}
}

// mutate runs fn under mu and publishes the event it returns after unlocking.
func (s *AccountCommandService) mutate(ctx context.Context, fn func() (pendingEvent, error)) error {
	ev, err := s.locked(fn)
	if err != nil {
		return err
	}
	s.publish(ctx, ev)
	return nil
}

func (s *AccountCommandService) locked(fn func() (pendingEvent, error)) (pendingEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *AccountCommandService) refreshView(ctx context.Context, account *models.Account) {
	if err := s.readRepo.CacheAccountView(ctx, account); err != nil {
		s.logger.Warn("view cache refresh failed, entry dropped", "login", account.Login, "error", err)
	}
}

func (s *AccountCommandService) publish(ctx context.Context, ev pendingEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev.eventType, ev.payload); err != nil {
		s.logger.Error("failed to publish event", "type", ev.eventType, "login", ev.payload.Login, "error", err)
	}
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

func requireSelfOrAdmin(caller models.Caller, account *models.Account) error {
	if caller.Admin || models.NormalizeLogin(caller.Login) == models.NormalizeLogin(account.Login) {
		return nil
	}
	return errs.ErrForbidden
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
