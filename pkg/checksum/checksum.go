// Package checksum produces deterministic content digests of JSON-like value
// trees. Digests drive the lock file's change detection: two trees hash
// identically exactly when their canonical serializations are byte-identical.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/go-go-golems/buildmcp/pkg/document"
)

// Algorithm selects the digest function. SHA-256 is the default; BLAKE3 is
// the faster alternative. The choice is always explicit, never inferred.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	BLAKE3 Algorithm = "blake3"
)

// ParseAlgorithm validates an algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case SHA256, BLAKE3:
		return Algorithm(name), nil
	case "":
		return SHA256, nil
	default:
		return "", fmt.Errorf("unknown hash algorithm '%s' (want sha256 or blake3)", name)
	}
}

// Canonical serializes a tree with keys sorted lexically at every nesting
// level and no incidental whitespace. Values carrying their own JSON
// marshaling (such as insertion-ordered server sets) are first flattened to
// plain maps so that key order never leaks into the digest.
func Canonical(v any) ([]byte, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize value for hashing: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(encoded, &normalized); err != nil {
		return nil, fmt.Errorf("failed to normalize value for hashing: %w", err)
	}
	// encoding/json emits map keys in sorted order at every level, which is
	// exactly the canonical form.
	canonical, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize value: %w", err)
	}
	return canonical, nil
}

// Hash returns the hex digest of the canonical serialization of v.
func Hash(v any, algorithm Algorithm) (string, error) {
	canonical, err := Canonical(v)
	if err != nil {
		return "", err
	}
	switch algorithm {
	case BLAKE3:
		sum := blake3.Sum256(canonical)
		return hex.EncodeToString(sum[:]), nil
	case SHA256, "":
		sum := sha256.Sum256(canonical)
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("unknown hash algorithm '%s'", algorithm)
	}
}

// HashPaths digests the values at several dotted paths of one JSON file as a
// single sequence, so a change at any of the paths changes the digest.
func HashPaths(file string, algorithm Algorithm, paths ...string) (string, error) {
	values := make([]any, 0, len(paths))
	for _, p := range paths {
		v, err := document.ReadFileAt(file, p)
		if err != nil {
			return "", err
		}
		values = append(values, v)
	}
	return Hash(values, algorithm)
}
