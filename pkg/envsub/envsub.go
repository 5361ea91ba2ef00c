// Package envsub rewrites string leaves of JSON-like trees by expanding
// ${VAR} placeholders from the process environment. Unresolved names are left
// in place verbatim and accumulated so the caller can report them once at the
// end of a build pass.
package envsub

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

var placeholderPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// sensitiveMarkers flags variable names whose values should be redacted in
// verbose output. Matching is a case-insensitive substring test on the name.
var sensitiveMarkers = []string{"KEY", "TOKEN", "SECRET", "PASSWORD"}

// redactThreshold is the value length above which a sensitive value is shown
// redacted. Shorter values are printed in full; redacting them would reveal
// almost as much as showing them.
const redactThreshold = 10

// Substitutor expands placeholders and tracks names that did not resolve.
// One Substitutor lives for a whole build pass, so missing names accumulate
// across profiles and are reported once, deduplicated.
type Substitutor struct {
	// Lookup resolves a variable name. Defaults to os.LookupEnv via New.
	Lookup func(name string) (string, bool)

	// Verbose reports each successful substitution, redacting sensitive
	// values. Redaction only affects diagnostics, never the output tree.
	Verbose bool

	missing map[string]struct{}
}

// New returns a Substitutor resolving against lookup (typically
// os.LookupEnv).
func New(lookup func(string) (string, bool)) *Substitutor {
	return &Substitutor{
		Lookup:  lookup,
		missing: map[string]struct{}{},
	}
}

// Substitute recursively rewrites the tree. Mappings keep their keys, lists
// keep their shape, and non-string scalars pass through untouched. Every
// replacement is a plain string splice, so multiple placeholders in one
// string concatenate as strings.
func (s *Substitutor) Substitute(v any) any {
	switch value := v.(type) {
	case string:
		return placeholderPattern.ReplaceAllStringFunc(value, s.replace)
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, child := range value {
			out[k] = s.Substitute(child)
		}
		return out
	case []any:
		out := make([]any, len(value))
		for i, child := range value {
			out[i] = s.Substitute(child)
		}
		return out
	default:
		return v
	}
}

func (s *Substitutor) replace(match string) string {
	name := match[2 : len(match)-1]
	value, ok := s.Lookup(name)
	if !ok {
		s.missing[name] = struct{}{}
		log.Debug().Str("variable", name).Msg("environment variable not set, keeping placeholder")
		return match
	}
	if s.Verbose {
		fmt.Printf("    Substituted ${%s} -> %s\n", name, displayValue(name, value))
	}
	log.Debug().Str("variable", name).Msg("substituted environment variable")
	return value
}

// Missing returns the accumulated unresolved names, sorted lexically.
func (s *Substitutor) Missing() []string {
	names := make([]string, 0, len(s.missing))
	for name := range s.missing {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// displayValue redacts long values of sensitive-looking variables to a short
// prefix and suffix.
func displayValue(name, value string) string {
	if len(value) <= redactThreshold {
		return value
	}
	upper := strings.ToUpper(name)
	for _, marker := range sensitiveMarkers {
		if strings.Contains(upper, marker) {
			return value[:3] + "..." + value[len(value)-3:]
		}
	}
	return value
}
