package verification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator returns a fixed sequence of codes.
type stubGenerator struct {
	codes []string
	next  int
}

func (g *stubGenerator) Generate() (string, error) {
	if g.next >= len(g.codes) {
		return "", fmt.Errorf("stub generator exhausted")
	}
	code := g.codes[g.next]
	g.next++
	return code, nil
}

func setupService(t *testing.T, opts ...VerificationServiceOption) (*VerificationService, *InMemCodeRepository, *InMemSendLedgerRepository, *InMemAttemptLogRepository) {
	t.Helper()
	codes := NewInMemCodeRepository()
	ledger := NewInMemSendLedgerRepository()
	attempts := NewInMemAttemptLogRepository()
	svc := NewVerificationService(codes, ledger, attempts, opts...)
	return svc, codes, ledger, attempts
}

func TestIssue_SingleActiveCodePerPurpose(t *testing.T) {
	svc, codes, _, _ := setupService(t)
	ctx := context.Background()
	subject := uuid.New()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		_, err := svc.Issue(ctx, subject, PurposePrimary, 0, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 1, codes.ActiveCount(subject, PurposePrimary, now.Add(time.Duration(i)*time.Second)))
	}

	// Codes for a different purpose are unaffected.
	_, err := svc.Issue(ctx, subject, PurposePasswordReset, 0, now)
	require.NoError(t, err)
	assert.Equal(t, 1, codes.ActiveCount(subject, PurposePrimary, now.Add(3*time.Second)))
	assert.Equal(t, 1, codes.ActiveCount(subject, PurposePasswordReset, now))
}

func TestVerify_AttemptLockout(t *testing.T) {
	svc, _, _, _ := setupService(t, WithGenerator(&stubGenerator{codes: []string{"123456"}}))
	ctx := context.Background()
	subject := uuid.New()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	_, err := svc.Issue(ctx, subject, PurposePrimary, 0, now)
	require.NoError(t, err)

	// Four wrong attempts leave the code active but charged.
	for i := 0; i < 4; i++ {
		match, err := svc.Verify(ctx, subject, "000000", PurposePrimary, now)
		require.NoError(t, err)
		assert.Nil(t, match)
	}
	active, err := svc.ActiveCode(ctx, subject, PurposePrimary, now)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 4, active.AttemptCount)

	// The fifth wrong attempt retires the code.
	match, err := svc.Verify(ctx, subject, "000000", PurposePrimary, now)
	require.NoError(t, err)
	assert.Nil(t, match)

	active, err = svc.ActiveCode(ctx, subject, PurposePrimary, now)
	require.NoError(t, err)
	assert.Nil(t, active)

	// Even the correct code is inert now.
	match, err = svc.Verify(ctx, subject, "123456", PurposePrimary, now)
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestVerify_ExpiredCodeNeverMatches(t *testing.T) {
	svc, _, _, _ := setupService(t, WithGenerator(&stubGenerator{codes: []string{"123456"}}))
	ctx := context.Background()
	subject := uuid.New()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	_, err := svc.Issue(ctx, subject, PurposePrimary, 15*time.Minute, now)
	require.NoError(t, err)

	match, err := svc.Verify(ctx, subject, "123456", PurposePrimary, now.Add(16*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestCanSend_ResendCeilingIndependentOfDailyCap(t *testing.T) {
	// Daily cap raised so only the per-code ceiling can deny.
	policy := Policy{DailyCap: 10, ResendCeiling: 5, Cooldown: 0}
	svc, _, _, _ := setupService(t, WithPolicy(policy))
	ctx := context.Background()
	subject := uuid.New()
	email := "member@coop.example"
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	_, err := svc.Issue(ctx, subject, PurposePrimary, 0, now)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.RecordSend(ctx, subject, email, PurposePrimary, now.Add(time.Duration(i)*time.Minute)))
	}

	decision, err := svc.CanSend(ctx, subject, email, PurposePrimary, now.Add(6*time.Minute))
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.ErrorIs(t, decision.Err, ErrResendLimitReached)
	assert.Equal(t, 5, decision.UsedToday)
}

func TestCanSend_DailyCap(t *testing.T) {
	svc, _, ledger, _ := setupService(t)
	ctx := context.Background()
	subject := uuid.New()
	email := "member@coop.example"
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, ledger.IncrementSendCount(ctx, email, now, PurposePrimary))
	}

	decision, err := svc.CanSend(ctx, subject, email, PurposePrimary, now)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.ErrorIs(t, decision.Err, ErrDailyLimitReached)
	assert.Equal(t, 5, decision.UsedToday)
	assert.Equal(t, 5, decision.DailyCap)

	// The other purpose keeps its own bucket.
	decision, err = svc.CanSend(ctx, subject, email, PurposePasswordReset, now)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 0, decision.UsedToday)
}

func TestCanSend_CooldownArithmetic(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()
	subject := uuid.New()
	email := "member@coop.example"
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	_, err := svc.Issue(ctx, subject, PurposePrimary, 0, t0)
	require.NoError(t, err)
	require.NoError(t, svc.RecordSend(ctx, subject, email, PurposePrimary, t0))

	decision, err := svc.CanSend(ctx, subject, email, PurposePrimary, t0.Add(30*time.Second))
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.ErrorIs(t, decision.Err, ErrCooldownActive)
	assert.Contains(t, decision.Reason, "30 more seconds")

	decision, err = svc.CanSend(ctx, subject, email, PurposePrimary, t0.Add(61*time.Second))
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCanSend_SharedAddressSharesBucket(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()
	subjectA := uuid.New()
	subjectB := uuid.New()
	email := "Shared@coop.example"
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	// Five sends for subject A exhaust the bucket for subject B too; the
	// ledger is keyed by the lowercased address, not the account.
	for i := 0; i < 5; i++ {
		require.NoError(t, svc.RecordSend(ctx, subjectA, email, PurposePrimary, now))
	}

	decision, err := svc.CanSend(ctx, subjectB, "shared@coop.example", PurposePrimary, now)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.ErrorIs(t, decision.Err, ErrDailyLimitReached)
	assert.Equal(t, 5, decision.UsedToday)
}

func TestCanSend_NoDestination(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()

	decision, err := svc.CanSend(ctx, uuid.New(), "  ", PurposePrimary, time.Now().UTC())
	assert.ErrorIs(t, err, ErrNoDestination)
	assert.False(t, decision.Allowed)
}

func TestRecordSend_NoActiveCodeIsNoOp(t *testing.T) {
	svc, _, ledger, _ := setupService(t)
	ctx := context.Background()
	subject := uuid.New()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	// No active code: the ledger is still charged, the counter update is
	// skipped.
	require.NoError(t, svc.RecordSend(ctx, subject, "member@coop.example", PurposePrimary, now))

	count, err := ledger.GetSendCount(ctx, "member@coop.example", now, PurposePrimary)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEndToEndScenario(t *testing.T) {
	svc, _, _, _ := setupService(t, WithGenerator(&stubGenerator{codes: []string{"123456"}}))
	ctx := context.Background()
	subject := uuid.New()
	email := "member@coop.example"
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	decision, err := svc.CanSend(ctx, subject, email, PurposePrimary, t0)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 0, decision.UsedToday)
	assert.Equal(t, 5, decision.DailyCap)

	code, err := svc.Issue(ctx, subject, PurposePrimary, 15*time.Minute, t0)
	require.NoError(t, err)
	assert.Equal(t, "123456", code)

	require.NoError(t, svc.RecordSend(ctx, subject, email, PurposePrimary, t0))

	decision, err = svc.CanSend(ctx, subject, email, PurposePrimary, t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, decision.UsedToday)

	// One wrong guess charges the attempt budget.
	match, err := svc.Verify(ctx, subject, "000000", PurposePrimary, t0.Add(3*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, match)

	// The right code matches without being mutated.
	match, err = svc.Verify(ctx, subject, "123456", PurposePrimary, t0.Add(4*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, 1, match.AttemptCount)
	assert.False(t, match.Used)

	require.NoError(t, svc.MarkUsed(ctx, match, t0.Add(4*time.Minute)))

	// Consumed codes never match again.
	match, err = svc.Verify(ctx, subject, "123456", PurposePrimary, t0.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestConsume(t *testing.T) {
	svc, _, _, _ := setupService(t, WithGenerator(&stubGenerator{codes: []string{"654321"}}))
	ctx := context.Background()
	subject := uuid.New()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	_, err := svc.Issue(ctx, subject, PurposePasswordReset, 0, now)
	require.NoError(t, err)

	t.Run("WrongCode", func(t *testing.T) {
		_, err := svc.Consume(ctx, subject, "111111", PurposePasswordReset, now)
		assert.ErrorIs(t, err, ErrCodeInvalid)
	})

	t.Run("Success", func(t *testing.T) {
		record, err := svc.Consume(ctx, subject, "654321", PurposePasswordReset, now)
		require.NoError(t, err)
		assert.True(t, record.Used)
		require.NotNil(t, record.UsedAt)
		assert.Equal(t, now, *record.UsedAt)
	})

	t.Run("Replay", func(t *testing.T) {
		_, err := svc.Consume(ctx, subject, "654321", PurposePasswordReset, now)
		assert.ErrorIs(t, err, ErrCodeInvalid)
	})
}

func TestRecordAttempt(t *testing.T) {
	svc, _, _, attempts := setupService(t)
	ctx := context.Background()
	subject := uuid.New()

	svc.RecordAttempt(ctx, subject, "email_primary", "000000", ResultInvalidCode, "code mismatch", Origin{
		IPAddress: "203.0.113.7",
		UserAgent: "test-agent",
	})

	records := attempts.Records()
	require.Len(t, records, 1)
	assert.Equal(t, subject, records[0].SubjectID)
	assert.Equal(t, ResultInvalidCode, records[0].Result)
	assert.Equal(t, "203.0.113.7", records[0].IPAddress)
}
