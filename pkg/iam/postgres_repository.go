package iam

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `
	id, username, email, first_name, last_name, sex, birth_date, phone, role,
	email_verified, email_verified_at, is_active, password_hash, created_at, updated_at
`

// PostgresAccountRepository implements AccountRepository on PostgreSQL.
type PostgresAccountRepository struct {
	db *pgxpool.Pool
}

// NewPostgresAccountRepository creates a PostgreSQL-backed account repository.
func NewPostgresAccountRepository(db *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

func (r *PostgresAccountRepository) CreateAccount(ctx context.Context, account Account) (Account, error) {
	query := `
		INSERT INTO accounts
			(username, email, first_name, last_name, sex, birth_date, phone, role,
			 email_verified, is_active, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + accountColumns

	row := r.db.QueryRow(ctx, query,
		account.Username,
		strings.ToLower(account.Email),
		account.FirstName,
		account.LastName,
		account.Sex,
		account.BirthDate,
		account.Phone,
		account.Role,
		account.EmailVerified,
		account.Active,
		account.PasswordHash,
	)
	created, err := scanAccount(row)
	if err != nil {
		return Account{}, mapConstraintError(err)
	}
	return created, nil
}

func (r *PostgresAccountRepository) GetAccount(ctx context.Context, id uuid.UUID) (Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return account, nil
}

func (r *PostgresAccountRepository) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return account, nil
}

func (r *PostgresAccountRepository) FindAccounts(ctx context.Context) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *PostgresAccountRepository) UpdateAccount(ctx context.Context, account Account) (Account, error) {
	query := `
		UPDATE accounts
		SET username = $2,
		    email = $3,
		    first_name = $4,
		    last_name = $5,
		    sex = $6,
		    birth_date = $7,
		    phone = $8,
		    role = $9,
		    email_verified = $10,
		    is_active = $11,
		    password_hash = $12,
		    updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1
		RETURNING ` + accountColumns

	row := r.db.QueryRow(ctx, query,
		account.ID,
		account.Username,
		strings.ToLower(account.Email),
		account.FirstName,
		account.LastName,
		account.Sex,
		account.BirthDate,
		account.Phone,
		account.Role,
		account.EmailVerified,
		account.Active,
		account.PasswordHash,
	)
	updated, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, mapConstraintError(err)
	}
	return updated, nil
}

func (r *PostgresAccountRepository) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	return err
}

func (r *PostgresAccountRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID, now time.Time) error {
	query := `
		UPDATE accounts
		SET email_verified = TRUE,
		    email_verified_at = $2,
		    is_active = TRUE,
		    updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, now)
	if err != nil {
		return mapConstraintError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *PostgresAccountRepository) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	query := `
		UPDATE accounts
		SET password_hash = $2, updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *PostgresAccountRepository) VerifiedPresidentExists(ctx context.Context) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM accounts WHERE role = 'president' AND email_verified = TRUE
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query).Scan(&exists)
	return exists, err
}

// mapConstraintError turns unique-violation errors from the accounts table
// into the package sentinels. The partial unique index on verified
// presidents enforces the single-president invariant at commit time.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		switch pgErr.ConstraintName {
		case "accounts_verified_president_idx":
			return ErrPresidentExists
		case "accounts_email_key":
			return ErrEmailTaken
		}
	}
	return err
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(
		&a.ID,
		&a.Username,
		&a.Email,
		&a.FirstName,
		&a.LastName,
		&a.Sex,
		&a.BirthDate,
		&a.Phone,
		&a.Role,
		&a.EmailVerified,
		&a.EmailVerifiedAt,
		&a.Active,
		&a.PasswordHash,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}
