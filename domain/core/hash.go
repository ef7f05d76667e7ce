package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// HashStrings hashes an ordered list of string parts with a separator so
// ("ab","c") and ("a","bc") do not collide.
func HashStrings(parts ...string) Hash {
	return NewHash([]byte(strings.Join(parts, "\x1f")))
}

// FingerprintEntities produces a stable hash over an entity selection,
// independent of selection order. Used to tag rebuilt profile sets in
// logs and admin responses.
func FingerprintEntities(entities []string, rows int) Hash {
	sorted := append([]string(nil), NormalizeEntities(entities)...)
	sort.Strings(sorted)
	parts := append(sorted, "rows", strconv.Itoa(rows))
	return HashStrings(parts...)
}
