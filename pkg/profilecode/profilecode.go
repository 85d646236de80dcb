// Package profilecode generates and recognises profile codes of the form
// XXX-XXX-XXX (ASCII letters and digits).
package profilecode

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	alphabet    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	groupLength = 3
	groups      = 3
)

var pattern = regexp.MustCompile(`^[A-Za-z0-9]{3}-[A-Za-z0-9]{3}-[A-Za-z0-9]{3}$`)

// Generate returns a new random profile code.
func Generate() (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, 0, groups*groupLength+groups-1)
	for i := 0; i < groups*groupLength; i++ {
		if i > 0 && i%groupLength == 0 {
			out = append(out, '-')
		}
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out = append(out, alphabet[n.Int64()])
	}
	return string(out), nil
}

// Valid reports whether code has the profile code shape.
func Valid(code string) bool {
	return pattern.MatchString(code)
}
