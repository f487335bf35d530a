// Package token mints the credit tokens returned to customers on a successful
// purchase. A token is derived deterministically from the purchase sequence
// assigned by the store together with the meter id, so uniqueness follows from
// the sequence and needs no coordination between generators.
package token

import (
	"fmt"
	"strings"

	"github.com/voltvend/voltvend/internal/faults"
)

// MaxLen is the longest token the generator produces, including separators.
// Callers treat tokens as opaque strings of at most this length.
const MaxLen = 24

const (
	meterDigits    = 6
	sequenceDigits = 13
	groupSize      = 4
)

// Generator mints purchase tokens.
type Generator struct{}

// NewGenerator builds a token generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate derives the token for a purchase. The sequence must be the
// store-assigned purchase sequence; two calls with the same inputs return the
// same token, and distinct sequences always yield distinct tokens.
func (g *Generator) Generate(meterID, sequence int64) (string, error) {
	if meterID <= 0 || sequence <= 0 {
		return "", faults.Validationf("token inputs must be positive (meter=%d sequence=%d)", meterID, sequence)
	}

	digits := fmt.Sprintf("%0*d%0*d",
		meterDigits, meterID%pow10(meterDigits),
		sequenceDigits, sequence%pow10(sequenceDigits))
	digits += luhnDigit(digits)

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && i%groupSize == 0 {
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

// Valid reports whether a token is well formed and its check digit holds.
func Valid(token string) bool {
	digits := strings.ReplaceAll(token, "-", "")
	if len(digits) != meterDigits+sequenceDigits+1 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return luhnDigit(digits[:len(digits)-1]) == digits[len(digits)-1:]
}

// luhnDigit computes the Luhn check digit for a numeric string.
func luhnDigit(digits string) string {
	sum := 0
	double := true
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return fmt.Sprintf("%d", (10-sum%10)%10)
}

func pow10(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}
