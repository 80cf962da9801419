package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/useradmin/userapi/shared/models"
	"github.com/useradmin/userapi/shared/utils"
)

// MemoryAccountStore keeps accounts in process memory for the lifetime of
// the service. All access goes through mu; stored values are never handed
// out, only clones.
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts []*models.Account
	hasher   utils.PasswordHasher
	now      func() time.Time
}

func NewMemoryAccountStore(hasher utils.PasswordHasher) *MemoryAccountStore {
	return &MemoryAccountStore{
		hasher: hasher,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used by GetOlderThan.
func (s *MemoryAccountStore) WithClock(now func() time.Time) *MemoryAccountStore {
	s.now = now
	return s
}

func (s *MemoryAccountStore) Add(ctx context.Context, account *models.Account) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = append(s.accounts, account.Clone())
	return account.Clone(), nil
}

func (s *MemoryAccountStore) GetByLogin(ctx context.Context, login string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a := s.findByLogin(login); a != nil {
		return a.Clone(), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryAccountStore) GetByLoginAndPassword(ctx context.Context, login, password string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a := s.findByLogin(login)
	if a == nil || !a.IsActive() || !s.hasher.Compare(a.Password, password) {
		return nil, ErrNotFound
	}
	return a.Clone(), nil
}

func (s *MemoryAccountStore) GetAllActive(ctx context.Context) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if a.IsActive() {
			active = append(active, *a.Clone())
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})
	return active, nil
}

func (s *MemoryAccountStore) GetOlderThan(ctx context.Context, age int) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := birthdayCutoff(s.now(), age)
	older := make([]models.Account, 0)
	for _, a := range s.accounts {
		if a.Birthday != nil && !a.Birthday.After(cutoff) {
			older = append(older, *a.Clone())
		}
	}
	return older, nil
}

func (s *MemoryAccountStore) Update(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(account.ID); i >= 0 {
		s.accounts[i] = account.Clone()
	}
	return nil
}

func (s *MemoryAccountStore) Delete(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(account.ID); i >= 0 {
		s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
	}
	return nil
}

func (s *MemoryAccountStore) findByLogin(login string) *models.Account {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil
	}
	for _, a := range s.accounts {
		if strings.EqualFold(a.Login, login) {
			return a
		}
	}
	return nil
}

func (s *MemoryAccountStore) indexOf(id string) int {
	for i, a := range s.accounts {
		if a.ID == id {
			return i
		}
	}
	return -1
}
