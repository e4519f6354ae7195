package password

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// Length of generated one-time passwords.
	Length = 12

	charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
)

// Generate returns a random one-time password drawn from a mixed
// letter/digit/symbol charset using crypto/rand. The password is handed to
// the new account holder over email and is expected to be rotated on first
// login.
func Generate() (string, error) {
	buf := make([]byte, Length)
	max := big.NewInt(int64(len(charset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		buf[i] = charset[n.Int64()]
	}
	return string(buf), nil
}
