package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/useradmin/userapi/shared/errs"
	"github.com/useradmin/userapi/shared/models"
	"github.com/useradmin/userapi/shared/utils"
)

const accountColumns = `id, login, password, name, gender, birthday, admin,
	created_at, created_by, modified_at, modified_by, revoked_at, revoked_by`

// PostgresAccountStore keeps accounts in PostgreSQL. The unique index on
// lower(login) backs up the uniqueness check the service performs.
type PostgresAccountStore struct {
	db     *sql.DB
	hasher utils.PasswordHasher
	now    func() time.Time
}

func NewPostgresAccountStore(db *sql.DB, hasher utils.PasswordHasher) *PostgresAccountStore {
	return &PostgresAccountStore{
		db:     db,
		hasher: hasher,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used by GetOlderThan.
func (r *PostgresAccountStore) WithClock(now func() time.Time) *PostgresAccountStore {
	r.now = now
	return r
}

func (r *PostgresAccountStore) Add(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.Login, account.Password, account.Name, int(account.Gender),
		nullTime(account.Birthday), account.Admin,
		account.CreatedAt, account.CreatedBy, account.ModifiedAt, account.ModifiedBy,
		nullTime(account.RevokedAt), nullString(account.RevokedBy),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, errs.ErrConflict
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account.Clone(), nil
}

func (r *PostgresAccountStore) GetByLogin(ctx context.Context, login string) (*models.Account, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, ErrNotFound
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(login) = lower($1)`
	return r.queryOne(ctx, query, login)
}

func (r *PostgresAccountStore) GetByLoginAndPassword(ctx context.Context, login, password string) (*models.Account, error) {
	account, err := r.GetByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if !account.IsActive() || !r.hasher.Compare(account.Password, password) {
		return nil, ErrNotFound
	}
	return account, nil
}

func (r *PostgresAccountStore) GetAllActive(ctx context.Context) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE revoked_at IS NULL ORDER BY created_at ASC`
	return r.queryMany(ctx, query)
}

func (r *PostgresAccountStore) GetOlderThan(ctx context.Context, age int) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE birthday IS NOT NULL AND birthday <= $1 ORDER BY created_at ASC`
	return r.queryMany(ctx, query, birthdayCutoff(r.now(), age))
}

func (r *PostgresAccountStore) Update(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET login = $2, password = $3, name = $4, gender = $5, birthday = $6,
			modified_at = $7, modified_by = $8, revoked_at = $9, revoked_by = $10
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.Login, account.Password, account.Name, int(account.Gender),
		nullTime(account.Birthday), account.ModifiedAt, account.ModifiedBy,
		nullTime(account.RevokedAt), nullString(account.RevokedBy),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return errs.ErrConflict
		}
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

func (r *PostgresAccountStore) Delete(ctx context.Context, account *models.Account) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, account.ID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresAccountStore) queryOne(ctx context.Context, query string, args ...any) (*models.Account, error) {
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (r *PostgresAccountStore) queryMany(ctx context.Context, query string, args ...any) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]models.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		account   models.Account
		gender    int
		birthday  sql.NullTime
		revokedAt sql.NullTime
		revokedBy sql.NullString
	)
	err := row.Scan(
		&account.ID, &account.Login, &account.Password, &account.Name, &gender, &birthday, &account.Admin,
		&account.CreatedAt, &account.CreatedBy, &account.ModifiedAt, &account.ModifiedBy,
		&revokedAt, &revokedBy,
	)
	if err != nil {
		return nil, err
	}

	account.Gender = models.Gender(gender)
	if birthday.Valid {
		b := birthday.Time
		account.Birthday = &b
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		account.RevokedAt = &t
	}
	if revokedBy.Valid {
		account.RevokedBy = revokedBy.String
	}
	return &account, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
