package repository

import (
	"context"
	"errors"
	"time"

	"github.com/useradmin/userapi/shared/models"
)

// ErrNotFound is returned by lookups that match no account.
var ErrNotFound = errors.New("repository: not found")

// AccountStore holds accounts and answers lookups. It performs no
// authorization and does not re-check login uniqueness on Add; callers are
// expected to serialize check-then-write sequences themselves.
type AccountStore interface {
	Add(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByLogin(ctx context.Context, login string) (*models.Account, error)
	GetByLoginAndPassword(ctx context.Context, login, password string) (*models.Account, error)
	GetAllActive(ctx context.Context) ([]models.Account, error)
	GetOlderThan(ctx context.Context, age int) ([]models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, account *models.Account) error
}

// birthdayCutoff is the latest birthday that still counts as at least age
// years old at now. Feb 29 maps to Feb 28 in non-leap years.
func birthdayCutoff(now time.Time, age int) time.Time {
	cutoff := now.AddDate(-age, 0, 0)
	if cutoff.Month() != now.Month() {
		cutoff = cutoff.AddDate(0, 0, -cutoff.Day())
	}
	return cutoff
}
