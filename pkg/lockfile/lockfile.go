// Package lockfile persists the mapping from profile name to the content hash
// of its last committed build. The lock file lives beside the configuration
// file and is safe to delete; a missing or corrupt lock simply forces a full
// rebuild.
package lockfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

const suffix = ".lock"

// Store reads and writes one lock file.
type Store struct {
	path string
}

// NewStore derives the lock path from the configuration path by replacing its
// extension with ".lock".
func NewStore(configPath string) *Store {
	base := strings.TrimSuffix(configPath, filepath.Ext(configPath))
	return &Store{path: base + suffix}
}

// Path returns the lock file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the locked hashes, or an empty mapping if the lock file is
// absent or unparsable. A parse failure is logged, not fatal.
func (s *Store) Load() map[string]string {
	hashes := map[string]string{}
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Str("path", s.path).Err(err).Msg("could not read lock file")
		}
		return hashes
	}
	if err := json.Unmarshal(b, &hashes); err != nil {
		log.Warn().Str("path", s.path).Err(err).Msg("could not parse lock file, treating as empty")
		return map[string]string{}
	}
	log.Debug().Str("path", s.path).Int("profiles", len(hashes)).Msg("loaded lock file")
	return hashes
}

// Save atomically replaces the lock file with the given hashes. An empty
// mapping is a no-op so a run that built nothing never clobbers prior state.
func (s *Store) Save(hashes map[string]string) error {
	if len(hashes) == 0 {
		return nil
	}
	buf, err := json.MarshalIndent(hashes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal lock data: %w", err)
	}
	buf = append(buf, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary lock file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temporary lock file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temporary lock file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace lock file %s: %w", s.path, err)
	}
	log.Debug().Str("path", s.path).Int("profiles", len(hashes)).Msg("updated lock file")
	return nil
}
