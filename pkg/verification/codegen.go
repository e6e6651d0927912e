package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeLength is the fixed number of digits in a verification code.
const CodeLength = 6

var codeSpace = big.NewInt(1000000)

// Generator produces verification codes.
type Generator interface {
	Generate() (string, error)
}

// RandomGenerator draws 6-digit codes uniformly from [0, 999999] using a
// cryptographic source.
type RandomGenerator struct{}

// Generate returns a zero-padded 6-digit numeric code.
func (RandomGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
