// Package config loads the declarative build configuration: base servers that
// every profile includes, named templates, profiles selecting templates, and
// per-profile targets. Configurations are authored as JSON (with optional
// comments and trailing commas) or YAML.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ServerSetKey is the reserved top-level key holding base server definitions
// in the configuration, and the envelope key in every emitted document.
const ServerSetKey = "mcpServers"

// Config is the root configuration document. Server definitions are opaque
// JSON-like trees; only the reserved "name" key inside a definition carries
// meaning for the builder.
type Config struct {
	BaseServers map[string]any      `json:"mcpServers" yaml:"mcpServers"`
	Templates   map[string]any      `json:"templates" yaml:"templates"`
	Profiles    map[string][]string `json:"profiles" yaml:"profiles"`
	Targets     map[string]Target   `json:"targets" yaml:"targets"`
}

// DefaultPath is the conventional configuration location when none is given.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "mcp.json"
	}
	return filepath.Join(home, ".claude", "mcp.json")
}

// Load reads and parses the configuration file. YAML is selected by file
// extension; anything else is parsed as JSON with comments and trailing
// commas allowed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML configuration %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration %s: %w", path, err)
		}
	}

	log.Debug().
		Str("path", path).
		Int("base_servers", len(cfg.BaseServers)).
		Int("templates", len(cfg.Templates)).
		Int("profiles", len(cfg.Profiles)).
		Int("targets", len(cfg.Targets)).
		Msg("loaded configuration")
	return &cfg, nil
}
