// Package document works with the JSON-like value trees that flow through the
// builder: map[string]any, []any, strings, numbers, booleans and nil. Server
// definitions are opaque trees, so everything here operates on `any` rather
// than fixed record types.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/copystructure"
)

// Clone returns an independent deep copy of a JSON-like tree. Values pulled
// from shared mappings (templates, base servers) must be cloned before they
// enter a resolved set so that mutating one never affects the other.
func Clone(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	c, err := copystructure.Copy(v)
	if err != nil {
		return nil, fmt.Errorf("failed to deep copy value: %w", err)
	}
	return c, nil
}

// SplitPath splits a jq-style dotted path into segments. "." and "" address
// the root and yield no segments.
func SplitPath(path string) []string {
	trimmed := strings.Trim(path, ".")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, ".")
}

// Get resolves a dotted path ('.a.b.0.c', leading dot optional) against a
// tree. Sequence segments are decimal indices.
func Get(data any, path string) (any, error) {
	current := data
	for i, part := range SplitPath(path) {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[part]
			if !ok {
				return nil, fmt.Errorf("path not found: key '%s' at segment %d of '%s'", part, i+1, path)
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid sequence index '%s' at segment %d of '%s'", part, i+1, path)
			}
			if idx < 0 || idx >= len(v) {
				return nil, fmt.Errorf("sequence index %d out of bounds (length %d) at segment %d of '%s'", idx, len(v), i+1, path)
			}
			current = v[idx]
		default:
			return nil, fmt.Errorf("cannot navigate into %T at segment %d of '%s'", current, i+1, path)
		}
	}
	return current, nil
}

// Set writes value at the dotted path inside root, creating intermediate
// mappings as needed, and returns the new root. A path of "." replaces the
// root entirely.
func Set(root any, path string, value any) (any, error) {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return value, nil
	}

	rootMap, ok := root.(map[string]any)
	if !ok {
		if root == nil {
			rootMap = map[string]any{}
		} else {
			return nil, fmt.Errorf("cannot set path '%s': root is %T, not a mapping", path, root)
		}
	}

	current := rootMap
	for _, part := range parts[:len(parts)-1] {
		next, exists := current[part]
		if !exists {
			child := map[string]any{}
			current[part] = child
			current = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cannot set path '%s': segment '%s' is %T, not a mapping", path, part, next)
		}
		current = child
	}
	current[parts[len(parts)-1]] = value
	return rootMap, nil
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
