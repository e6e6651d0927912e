package verification

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCodeRepository implements CodeRepository on PostgreSQL.
type PostgresCodeRepository struct {
	db *pgxpool.Pool
}

// NewPostgresCodeRepository creates a PostgreSQL-backed code repository.
func NewPostgresCodeRepository(db *pgxpool.Pool) *PostgresCodeRepository {
	return &PostgresCodeRepository{db: db}
}

func (r *PostgresCodeRepository) CreateCode(ctx context.Context, code VerificationCode) (VerificationCode, error) {
	query := `
		INSERT INTO verification_codes
			(subject_id, code, purpose, created_at, expires_at, is_used, attempt_count, resend_count)
		VALUES ($1, $2, $3, $4, $5, FALSE, 0, 0)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		code.SubjectID,
		code.Code,
		code.Purpose,
		code.CreatedAt,
		code.ExpiresAt,
	).Scan(&code.ID)
	if err != nil {
		return VerificationCode{}, err
	}

	return code, nil
}

func (r *PostgresCodeRepository) DeactivateActiveCodes(ctx context.Context, subjectID uuid.UUID, purpose Purpose, now time.Time) error {
	query := `
		UPDATE verification_codes
		SET is_used = TRUE, used_at = $3
		WHERE subject_id = $1
		AND purpose = $2
		AND is_used = FALSE
		AND expires_at >= $3
	`

	_, err := r.db.Exec(ctx, query, subjectID, purpose, now)
	return err
}

func (r *PostgresCodeRepository) GetActiveCodeByValue(ctx context.Context, subjectID uuid.UUID, purpose Purpose, value string, now time.Time) (*VerificationCode, error) {
	query := `
		SELECT id, subject_id, code, purpose, created_at, expires_at, is_used, used_at,
		       attempt_count, resend_count, last_resend_at
		FROM verification_codes
		WHERE subject_id = $1
		AND purpose = $2
		AND code = $3
		AND is_used = FALSE
		AND expires_at >= $4
		ORDER BY created_at DESC
		LIMIT 1
	`

	return r.scanCode(r.db.QueryRow(ctx, query, subjectID, purpose, value, now))
}

func (r *PostgresCodeRepository) GetLatestActiveCode(ctx context.Context, subjectID uuid.UUID, purpose Purpose, now time.Time) (*VerificationCode, error) {
	query := `
		SELECT id, subject_id, code, purpose, created_at, expires_at, is_used, used_at,
		       attempt_count, resend_count, last_resend_at
		FROM verification_codes
		WHERE subject_id = $1
		AND purpose = $2
		AND is_used = FALSE
		AND expires_at >= $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	return r.scanCode(r.db.QueryRow(ctx, query, subjectID, purpose, now))
}

func (r *PostgresCodeRepository) UpdateCode(ctx context.Context, code *VerificationCode) error {
	query := `
		UPDATE verification_codes
		SET is_used = $2,
		    used_at = $3,
		    attempt_count = $4,
		    resend_count = $5,
		    last_resend_at = $6
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query,
		code.ID,
		code.Used,
		code.UsedAt,
		code.AttemptCount,
		code.ResendCount,
		code.LastResendAt,
	)
	return err
}

func (r *PostgresCodeRepository) scanCode(row pgx.Row) (*VerificationCode, error) {
	var c VerificationCode
	err := row.Scan(
		&c.ID,
		&c.SubjectID,
		&c.Code,
		&c.Purpose,
		&c.CreatedAt,
		&c.ExpiresAt,
		&c.Used,
		&c.UsedAt,
		&c.AttemptCount,
		&c.ResendCount,
		&c.LastResendAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	return &c, nil
}

// PostgresSendLedgerRepository implements SendLedgerRepository on
// PostgreSQL. Rows are keyed by (email, day, purpose) and only ever
// incremented; old days become inert.
type PostgresSendLedgerRepository struct {
	db *pgxpool.Pool
}

// NewPostgresSendLedgerRepository creates a PostgreSQL-backed ledger.
func NewPostgresSendLedgerRepository(db *pgxpool.Pool) *PostgresSendLedgerRepository {
	return &PostgresSendLedgerRepository{db: db}
}

func (r *PostgresSendLedgerRepository) GetSendCount(ctx context.Context, email string, day time.Time, purpose Purpose) (int, error) {
	query := `
		INSERT INTO email_send_log (email, day, purpose, count)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (email, day, purpose) DO UPDATE SET email = email_send_log.email
		RETURNING count
	`

	var count int
	err := r.db.QueryRow(ctx, query, strings.ToLower(email), day.UTC().Truncate(24*time.Hour), purpose).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresSendLedgerRepository) IncrementSendCount(ctx context.Context, email string, day time.Time, purpose Purpose) error {
	query := `
		INSERT INTO email_send_log (email, day, purpose, count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (email, day, purpose) DO UPDATE SET count = email_send_log.count + 1
	`

	_, err := r.db.Exec(ctx, query, strings.ToLower(email), day.UTC().Truncate(24*time.Hour), purpose)
	return err
}

// PostgresAttemptLogRepository implements AttemptLogRepository on
// PostgreSQL. Rows are insert-only.
type PostgresAttemptLogRepository struct {
	db *pgxpool.Pool
}

// NewPostgresAttemptLogRepository creates a PostgreSQL-backed attempt log.
func NewPostgresAttemptLogRepository(db *pgxpool.Pool) *PostgresAttemptLogRepository {
	return &PostgresAttemptLogRepository{db: db}
}

func (r *PostgresAttemptLogRepository) CreateAttempt(ctx context.Context, record AttemptRecord) error {
	query := `
		INSERT INTO verification_attempt_log
			(subject_id, method, code, result, reason, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		record.SubjectID,
		record.Method,
		record.Code,
		record.Result,
		record.Reason,
		record.IPAddress,
		record.UserAgent,
		record.CreatedAt,
	)
	return err
}
