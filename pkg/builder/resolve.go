package builder

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/buildmcp/pkg/document"
)

// nameKey is the one reserved key inside a server definition: when present,
// its value overrides the key under which the definition is emitted, and the
// key itself is stripped from the output.
const nameKey = "name"

// ResolveServers overlays the named templates onto a copy of the base server
// set. Base entries come first (sorted by name for determinism), then
// templates in list order; a colliding output name is replaced wholesale by
// the later entry. Unknown template names are warned about and skipped.
// Every stored definition is an independent deep copy of its source.
func ResolveServers(templateNames []string, templates, base map[string]any) (*ServerSet, error) {
	servers := NewServerSet()

	baseNames := make([]string, 0, len(base))
	for name := range base {
		baseNames = append(baseNames, name)
	}
	sort.Strings(baseNames)
	for _, name := range baseNames {
		if err := addServer(servers, name, base[name]); err != nil {
			return nil, fmt.Errorf("base server '%s': %w", name, err)
		}
	}
	if len(base) > 0 {
		log.Debug().Int("count", len(base)).Msg("starting with base servers")
	}

	for _, name := range templateNames {
		def, ok := templates[name]
		if !ok {
			fmt.Printf("  Warning: template '%s' not found\n", name)
			log.Warn().Str("template", name).Msg("template not found, skipping")
			continue
		}
		if err := addServer(servers, name, def); err != nil {
			return nil, fmt.Errorf("template '%s': %w", name, err)
		}
		log.Debug().Str("template", name).Msg("added server")
	}

	return servers, nil
}

// addServer clones the definition, applies the reserved name override and
// stores the result.
func addServer(servers *ServerSet, key string, def any) error {
	cloned, err := document.Clone(def)
	if err != nil {
		return err
	}
	outputName := key
	if m, ok := cloned.(map[string]any); ok {
		if custom, ok := m[nameKey].(string); ok && custom != "" {
			outputName = custom
			delete(m, nameKey)
		}
	}
	servers.Set(outputName, cloned)
	return nil
}
