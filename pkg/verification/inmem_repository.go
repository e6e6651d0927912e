package verification

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemCodeRepository implements CodeRepository in memory for tests and
// local development.
type InMemCodeRepository struct {
	mu    sync.Mutex
	codes map[uuid.UUID]*VerificationCode
}

// NewInMemCodeRepository creates an empty in-memory code repository.
func NewInMemCodeRepository() *InMemCodeRepository {
	return &InMemCodeRepository{codes: make(map[uuid.UUID]*VerificationCode)}
}

func (r *InMemCodeRepository) CreateCode(ctx context.Context, code VerificationCode) (VerificationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code.ID = uuid.New()
	c := code
	r.codes[code.ID] = &c
	return code, nil
}

func (r *InMemCodeRepository) DeactivateActiveCodes(ctx context.Context, subjectID uuid.UUID, purpose Purpose, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.codes {
		if c.SubjectID == subjectID && c.Purpose == purpose && c.Active(now) {
			c.Used = true
			at := now
			c.UsedAt = &at
		}
	}
	return nil
}

func (r *InMemCodeRepository) GetActiveCodeByValue(ctx context.Context, subjectID uuid.UUID, purpose Purpose, value string, now time.Time) (*VerificationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var match *VerificationCode
	for _, c := range r.codes {
		if c.SubjectID == subjectID && c.Purpose == purpose && c.Code == value && c.Active(now) {
			if match == nil || c.CreatedAt.After(match.CreatedAt) {
				match = c
			}
		}
	}
	if match == nil {
		return nil, ErrCodeNotFound
	}
	copied := *match
	return &copied, nil
}

func (r *InMemCodeRepository) GetLatestActiveCode(ctx context.Context, subjectID uuid.UUID, purpose Purpose, now time.Time) (*VerificationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var active []*VerificationCode
	for _, c := range r.codes {
		if c.SubjectID == subjectID && c.Purpose == purpose && c.Active(now) {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		return nil, ErrCodeNotFound
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	copied := *active[0]
	return &copied, nil
}

func (r *InMemCodeRepository) UpdateCode(ctx context.Context, code *VerificationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.codes[code.ID]
	if !ok {
		return ErrCodeNotFound
	}
	*stored = *code
	return nil
}

// ActiveCount reports how many codes are active for (subject, purpose);
// used by tests to check the single-active-code invariant.
func (r *InMemCodeRepository) ActiveCount(subjectID uuid.UUID, purpose Purpose, now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, c := range r.codes {
		if c.SubjectID == subjectID && c.Purpose == purpose && c.Active(now) {
			count++
		}
	}
	return count
}

// InMemSendLedgerRepository implements SendLedgerRepository in memory.
type InMemSendLedgerRepository struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewInMemSendLedgerRepository creates an empty in-memory ledger.
func NewInMemSendLedgerRepository() *InMemSendLedgerRepository {
	return &InMemSendLedgerRepository{counts: make(map[string]int)}
}

func ledgerKey(email string, day time.Time, purpose Purpose) string {
	return fmt.Sprintf("%s/%s/%s", strings.ToLower(email), day.UTC().Format("2006-01-02"), purpose)
}

func (r *InMemSendLedgerRepository) GetSendCount(ctx context.Context, email string, day time.Time, purpose Purpose) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ledgerKey(email, day, purpose)
	if _, ok := r.counts[key]; !ok {
		r.counts[key] = 0
	}
	return r.counts[key], nil
}

func (r *InMemSendLedgerRepository) IncrementSendCount(ctx context.Context, email string, day time.Time, purpose Purpose) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counts[ledgerKey(email, day, purpose)]++
	return nil
}

// InMemAttemptLogRepository implements AttemptLogRepository in memory.
type InMemAttemptLogRepository struct {
	mu      sync.Mutex
	records []AttemptRecord
}

// NewInMemAttemptLogRepository creates an empty in-memory attempt log.
func NewInMemAttemptLogRepository() *InMemAttemptLogRepository {
	return &InMemAttemptLogRepository{}
}

func (r *InMemAttemptLogRepository) CreateAttempt(ctx context.Context, record AttemptRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record.ID = uuid.New()
	r.records = append(r.records, record)
	return nil
}

// Records returns a copy of the stored attempts.
func (r *InMemAttemptLogRepository) Records() []AttemptRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]AttemptRecord, len(r.records))
	copy(out, r.records)
	return out
}
