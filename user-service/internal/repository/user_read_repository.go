package repository

import (
	"context"

	"github.com/useradmin/userapi/shared/models"
)

const accountViewKeyPrefix = "account:view:"

// ViewCache is the subset of shared/redis.ViewCache the read side needs.
type ViewCache interface {
	Get(ctx context.Context, key string) (*models.AccountView, bool)
	Set(ctx context.Context, key string, value *models.AccountView) error
	Delete(ctx context.Context, key string)
}

// AccountReadRepository serves account projections. It uses the view cache
// when one is configured and falls back to the store on a miss. The cache is
// only written by the command side, which holds its lock while doing so, so a
// slow read can never put a stale view back.
type AccountReadRepository struct {
	store AccountStore
	cache ViewCache
}

// NewAccountReadRepository builds a read repository; cache may be nil.
func NewAccountReadRepository(store AccountStore, cache ViewCache) *AccountReadRepository {
	return &AccountReadRepository{store: store, cache: cache}
}

// GetView returns the projection for login, or ErrNotFound.
func (r *AccountReadRepository) GetView(ctx context.Context, login string) (*models.AccountView, error) {
	if r.cache != nil {
		if view, ok := r.cache.Get(ctx, viewKey(login)); ok {
			return view, nil
		}
	}
	account, err := r.store.GetByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	return models.NewAccountView(account), nil
}

// CacheAccountView stores or refreshes the cached projection of account. When
// the write fails the old entry is dropped so reads fall back to the store.
func (r *AccountReadRepository) CacheAccountView(ctx context.Context, account *models.Account) error {
	if r.cache == nil {
		return nil
	}
	key := viewKey(account.Login)
	if err := r.cache.Set(ctx, key, models.NewAccountView(account)); err != nil {
		r.cache.Delete(ctx, key)
		return err
	}
	return nil
}

// InvalidateAccountView drops the cached projection stored under login.
func (r *AccountReadRepository) InvalidateAccountView(ctx context.Context, login string) {
	if r.cache == nil {
		return
	}
	r.cache.Delete(ctx, viewKey(login))
}

func viewKey(login string) string {
	return accountViewKeyPrefix + models.NormalizeLogin(login)
}
