package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// TargetKind discriminates the target union.
type TargetKind int

const (
	// TargetMalformed marks a spec that is neither a string nor a mapping
	// with a "write" or "path" key. Malformed targets are kept in the
	// configuration and rejected per profile at dispatch time, so one bad
	// entry never aborts the run.
	TargetMalformed TargetKind = iota
	// TargetFile writes the document into a JSON file at a sub-path.
	TargetFile
	// TargetShell pipes the serialized document to an external command.
	TargetShell
)

// DefaultSubPath is where the resolved server set lands inside a file target
// unless the target says otherwise. "." replaces the whole file.
const DefaultSubPath = "." + ServerSetKey

// Target is one profile's destination: either a file path (optionally with a
// sub-path) or an external write command.
type Target struct {
	Kind TargetKind

	// Path is the destination file for TargetFile.
	Path string
	// At is the dotted sub-path inside the file for TargetFile.
	At string
	// Command is the shell command for TargetShell.
	Command string
	// Reason says why a TargetMalformed spec was rejected.
	Reason string
}

func fileTarget(path, at string) Target {
	if at == "" {
		at = DefaultSubPath
	}
	return Target{Kind: TargetFile, Path: path, At: at}
}

func targetFromMapping(m map[string]any) Target {
	if cmd, ok := m["write"].(string); ok && cmd != "" {
		return Target{Kind: TargetShell, Command: cmd}
	}
	if path, ok := m["path"].(string); ok && path != "" {
		at, _ := m["at"].(string)
		return fileTarget(path, at)
	}
	return Target{Kind: TargetMalformed, Reason: "mapping without a 'write' command or 'path'"}
}

// UnmarshalJSON accepts a plain string (file target) or a mapping. It never
// returns an error for an unsupported shape; the malformed kind is recorded
// instead and reported when the profile is processed.
func (t *Target) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = fileTarget(s, "")
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err == nil {
		*t = targetFromMapping(m)
		return nil
	}
	*t = Target{Kind: TargetMalformed, Reason: "expected a string or a mapping"}
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML configurations.
func (t *Target) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil || s == "" {
			*t = Target{Kind: TargetMalformed, Reason: "expected a string or a mapping"}
			return nil
		}
		*t = fileTarget(s, "")
		return nil
	case yaml.MappingNode:
		var m map[string]any
		if err := node.Decode(&m); err != nil {
			*t = Target{Kind: TargetMalformed, Reason: "expected a string or a mapping"}
			return nil
		}
		*t = targetFromMapping(m)
		return nil
	default:
		*t = Target{Kind: TargetMalformed, Reason: "expected a string or a mapping"}
		return nil
	}
}

// String describes the target for progress output.
func (t Target) String() string {
	switch t.Kind {
	case TargetFile:
		return t.Path
	case TargetShell:
		return fmt.Sprintf("write command: %s", t.Command)
	default:
		return fmt.Sprintf("malformed target (%s)", t.Reason)
	}
}
