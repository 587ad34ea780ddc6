package membership

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

const (
	ShareCodeLength   = 6
	shareCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var shareCodePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// NewShareCode samples ShareCodeLength characters uniformly from A-Z0-9.
func NewShareCode() (string, error) {
	max := big.NewInt(int64(len(shareCodeAlphabet)))
	var b strings.Builder
	b.Grow(ShareCodeLength)
	for range ShareCodeLength {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(shareCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeShareCode trims and upper-cases user input.
func NormalizeShareCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func ValidShareCode(code string) bool {
	return shareCodePattern.MatchString(code)
}
