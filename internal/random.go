package internal

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// OTP length bounds. Below six digits the code space is too small for a
// five-minute window; above ten it stops fitting in the mail templates.
const (
	minOTPDigits = 6
	maxOTPDigits = 10
)

// NewOTP returns a numeric one-time code of the given length. Digits come
// from crypto/rand with rejection sampling, so every value including codes
// with leading zeros is equally likely. Callers must treat the result as an
// opaque string, never an integer.
func NewOTP(digits int) (string, error) {
	if digits < minOTPDigits || digits > maxOTPDigits {
		return "", fmt.Errorf("otp length %d outside [%d, %d]", digits, minOTPDigits, maxOTPDigits)
	}

	out := make([]byte, 0, digits)
	buf := make([]byte, digits)
	for len(out) < digits {
		if _, err := rand.Read(buf); err != nil {
			return "", errors.Join(errors.New("otp entropy source failed"), err)
		}
		for _, b := range buf {
			// Reject 250..255 so the modulo below stays uniform.
			if b >= 250 {
				continue
			}
			out = append(out, '0'+b%10)
			if len(out) == digits {
				break
			}
		}
	}

	return string(out), nil
}
