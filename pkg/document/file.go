package document

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ReadFileAt parses a JSON file and returns the value at the dotted path.
func ReadFileAt(path string, at string) (any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var data any
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return Get(data, at)
}

// WriteFileAt writes value at the dotted path inside the JSON file, merging
// with any pre-existing content at other paths. An unreadable or unparsable
// existing file is treated as empty. Parent directories are created; output
// is pretty-printed with a trailing newline.
func WriteFileAt(path string, value any, at string) error {
	var root any
	if b, err := os.ReadFile(path); err == nil && len(b) > 0 {
		if err := json.Unmarshal(b, &root); err != nil {
			root = nil
		}
	}

	merged, err := Set(root, at, value)
	if err != nil {
		return fmt.Errorf("failed to place value at '%s' in %s: %w", at, path, err)
	}

	buf, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal content for %s: %w", path, err)
	}
	buf = append(buf, '\n')

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
