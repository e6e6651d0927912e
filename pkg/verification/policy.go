package verification

import (
	"fmt"
	"math"
	"time"
)

// Policy holds the rate-limiting parameters for code sends.
type Policy struct {
	DailyCap      int
	ResendCeiling int
	Cooldown      time.Duration
}

// DefaultPolicy matches the fixed production limits: 5 sends per address
// and day, 5 resends per code, 60 seconds between resends.
func DefaultPolicy() Policy {
	return Policy{
		DailyCap:      5,
		ResendCeiling: 5,
		Cooldown:      60 * time.Second,
	}
}

// Evaluate decides whether a send is allowed given today's send count for
// the destination and the current active code (nil when none exists).
// Checks are ordered: daily cap, per-code resend ceiling, cooldown. The
// first failing check wins.
func (p Policy) Evaluate(usedToday int, active *VerificationCode, now time.Time) Decision {
	if usedToday >= p.DailyCap {
		return Decision{
			Reason:    fmt.Sprintf("daily limit of %d code emails reached for this address", p.DailyCap),
			UsedToday: usedToday,
			DailyCap:  p.DailyCap,
			Err:       ErrDailyLimitReached,
		}
	}

	if active == nil {
		return Decision{Allowed: true, UsedToday: usedToday, DailyCap: p.DailyCap}
	}

	if active.ResendCount >= p.ResendCeiling {
		return Decision{
			Reason:    "maximum resends reached for this code",
			UsedToday: usedToday,
			DailyCap:  p.DailyCap,
			Err:       ErrResendLimitReached,
		}
	}

	if active.LastResendAt != nil {
		elapsed := now.Sub(*active.LastResendAt)
		if elapsed < p.Cooldown {
			wait := int(math.Ceil((p.Cooldown - elapsed).Seconds()))
			return Decision{
				Reason:    fmt.Sprintf("must wait %d more seconds before resending the code", wait),
				UsedToday: usedToday,
				DailyCap:  p.DailyCap,
				Err:       ErrCooldownActive,
			}
		}
	}

	return Decision{Allowed: true, UsedToday: usedToday, DailyCap: p.DailyCap}
}
