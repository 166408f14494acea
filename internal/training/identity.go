package training

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// DeterministicID derives a stable identifier from content.
// It hashes the content with SHA-256 and folds the hex digest into a
// version 5 UUID under the nil namespace, so identical content always maps
// to the same id across calls and process restarts. Callers append the
// collection suffix ("-sql", "-ddl", "-doc") themselves.
//
// The function is pure and total: any string, including the empty string,
// yields a valid id.
func DeterministicID(content string) string {
	digest := sha256.Sum256([]byte(content))
	hexDigest := hex.EncodeToString(digest[:])
	return uuid.NewSHA1(uuid.Nil, []byte(hexDigest)).String()
}
