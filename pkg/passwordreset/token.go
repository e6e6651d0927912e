package passwordreset

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Stages of the recovery flow carried inside the reset-session token.
// A token is only valid for the stage it was minted for.
const (
	stageCodePending = "code_pending"
	stageCodeOK      = "code_ok"
)

type sessionClaims struct {
	Stage string `json:"stage"`
	jwt.RegisteredClaims
}

// newSessionToken mints an HS256 token binding an account to a stage of
// the recovery flow. It replaces the server-side session pointer the flow
// would otherwise need.
func newSessionToken(secret []byte, accountID uuid.UUID, stage string, ttl time.Duration, now time.Time) (string, error) {
	claims := sessionClaims{
		Stage: stage,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign recovery session token: %w", err)
	}
	return token, nil
}

// parseSessionToken validates the token and required stage, returning the
// account it was minted for. Every failure collapses to ErrSessionExpired;
// the caller cannot distinguish tampering from expiry, by construction.
func parseSessionToken(secret []byte, tokenString, wantStage string, now time.Time) (uuid.UUID, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil || !token.Valid {
		return uuid.Nil, ErrSessionExpired
	}

	if claims.Stage != wantStage {
		return uuid.Nil, ErrSessionExpired
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrSessionExpired
	}
	return accountID, nil
}
