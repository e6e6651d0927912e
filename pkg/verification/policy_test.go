package verification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicyEvaluate(t *testing.T) {
	p := DefaultPolicy()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("AllowWithNoActiveCode", func(t *testing.T) {
		d := p.Evaluate(0, nil, now)
		assert.True(t, d.Allowed)
		assert.NoError(t, d.Err)
		assert.Equal(t, 5, d.DailyCap)
	})

	t.Run("DailyCapWinsFirst", func(t *testing.T) {
		// A code that would also fail the resend ceiling: the daily cap
		// is checked before any per-code rule.
		code := &VerificationCode{ResendCount: 5}
		d := p.Evaluate(5, code, now)
		assert.False(t, d.Allowed)
		assert.ErrorIs(t, d.Err, ErrDailyLimitReached)
		assert.Contains(t, d.Reason, "daily limit")
	})

	t.Run("ResendCeiling", func(t *testing.T) {
		code := &VerificationCode{ResendCount: 5}
		d := p.Evaluate(2, code, now)
		assert.False(t, d.Allowed)
		assert.ErrorIs(t, d.Err, ErrResendLimitReached)
	})

	t.Run("CooldownRemaining", func(t *testing.T) {
		last := now.Add(-45 * time.Second)
		code := &VerificationCode{ResendCount: 1, LastResendAt: &last}
		d := p.Evaluate(2, code, now)
		assert.False(t, d.Allowed)
		assert.ErrorIs(t, d.Err, ErrCooldownActive)
		assert.Contains(t, d.Reason, "15 more seconds")
	})

	t.Run("CooldownElapsedExactly", func(t *testing.T) {
		last := now.Add(-60 * time.Second)
		code := &VerificationCode{ResendCount: 1, LastResendAt: &last}
		d := p.Evaluate(2, code, now)
		assert.True(t, d.Allowed)
	})

	t.Run("NeverResentCodeHasNoCooldown", func(t *testing.T) {
		code := &VerificationCode{}
		d := p.Evaluate(0, code, now)
		assert.True(t, d.Allowed)
	})

	t.Run("FractionalCooldownRoundsUp", func(t *testing.T) {
		last := now.Add(-59*time.Second - 500*time.Millisecond)
		code := &VerificationCode{LastResendAt: &last}
		d := p.Evaluate(0, code, now)
		assert.False(t, d.Allowed)
		assert.Contains(t, d.Reason, "1 more seconds")
	})
}
