// Package secrets generates and digests opaque API key secrets.
package secrets

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/sha3"

	dErrors "trustplane/pkg/domain-errors"
)

// Separator joins the prefix and the random part of a secret.
const Separator = "_"

// Config shapes generated secrets.
type Config struct {
	Prefix string
	Length int
}

// Generate returns Prefix + "_" + Length hex characters drawn from r.
// A nil reader uses crypto/rand.
func Generate(cfg Config, r io.Reader) (string, error) {
	if cfg.Length <= 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "secret length must be positive")
	}
	if r == nil {
		r = rand.Reader
	}
	buf := make([]byte, (cfg.Length+1)/2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("could not generate secret: %w", err)
	}
	return cfg.Prefix + Separator + hex.EncodeToString(buf)[:cfg.Length], nil
}

// Hash returns the hex SHA3-256 digest of plaintext||salt.
func Hash(plaintext, salt string) string {
	sum := sha3.Sum256([]byte(plaintext + salt))
	return hex.EncodeToString(sum[:])
}

// HasPrefix reports whether candidate has the configured shape. It is a cheap
// pre-filter only; a false result maps to the same not-found as a miss.
func HasPrefix(cfg Config, candidate string) bool {
	return strings.HasPrefix(candidate, cfg.Prefix+Separator) &&
		len(candidate) == len(cfg.Prefix)+len(Separator)+cfg.Length
}
