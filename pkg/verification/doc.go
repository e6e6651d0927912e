// Package verification implements the one-time email code engine shared by
// the signup verification flow and the password reset flow.
//
// A code is a 6-digit numeric secret with a short validity window. Each
// (subject, purpose) pair has at most one active code: issuing a new code
// retires the previous one. Codes carry their own attempt and resend
// budgets, and a daily ledger caps how many codes may be mailed to one
// address per purpose, independent of which account requested them.
//
// # Basic usage
//
//	svc := verification.NewVerificationService(codes, ledger, attempts)
//
//	decision, err := svc.CanSend(ctx, subjectID, email, verification.PurposePrimary, now)
//	if err != nil || !decision.Allowed {
//		// surface decision.Reason to the user
//	}
//
//	code, err := svc.Issue(ctx, subjectID, verification.PurposePrimary, 0, now)
//	// ... mail the code; only on success:
//	err = svc.RecordSend(ctx, subjectID, email, verification.PurposePrimary, now)
//
//	// later, when the user submits a code:
//	record, err := svc.Consume(ctx, subjectID, submitted, verification.PurposePrimary, now)
//
// Wrong submissions charge the attempt budget of the current active code,
// so garbage input cannot be used to probe without consuming attempts, and
// five wrong tries retire the code outright.
//
// CanSend never mutates state; Issue and RecordSend are separate so the
// reset flow can resend a still-valid code without cycling it. Callers
// sequence CanSend, Issue and RecordSend for one subject under
// KeyLock.Lock to keep the check and the send from racing.
package verification
