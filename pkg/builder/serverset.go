package builder

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ServerSet is the per-profile resolved mapping from output server name to
// its definition. Insertion order is preserved: base servers first, then
// templates in profile list order. Re-setting an existing name replaces the
// value in place, so a later template fully overrides an earlier entry
// without changing its position.
type ServerSet struct {
	entries *orderedmap.OrderedMap[string, any]
}

// NewServerSet returns an empty set.
func NewServerSet() *ServerSet {
	return &ServerSet{entries: orderedmap.New[string, any]()}
}

// Set stores a definition under name, replacing any earlier entry wholesale.
func (s *ServerSet) Set(name string, def any) {
	s.entries.Set(name, def)
}

// Get returns the definition stored under name.
func (s *ServerSet) Get(name string) (any, bool) {
	return s.entries.Get(name)
}

// Len returns the number of servers in the set.
func (s *ServerSet) Len() int {
	return s.entries.Len()
}

// Names returns server names in insertion order.
func (s *ServerSet) Names() []string {
	names := make([]string, 0, s.entries.Len())
	for pair := s.entries.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Each visits every entry in insertion order.
func (s *ServerSet) Each(fn func(name string, def any)) {
	for pair := s.entries.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Map returns the entries as a plain mapping. Values are shared, not copied.
func (s *ServerSet) Map() map[string]any {
	out := make(map[string]any, s.entries.Len())
	for pair := s.entries.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}

// MarshalJSON emits the set as a JSON object in insertion order.
func (s *ServerSet) MarshalJSON() ([]byte, error) {
	return s.entries.MarshalJSON()
}
