// Package cmdutil holds small helpers shared by the CLI commands.
package cmdutil

// BuildSelectorSet returns a set of non-empty selector strings for quick membership checks.
func BuildSelectorSet(selectors []string) map[string]struct{} {
	set := make(map[string]struct{}, len(selectors))
	for _, s := range selectors {
		if s == "" {
			continue
		}
		set[s] = struct{}{}
	}
	return set
}

// FilterItems keeps the items whose key matches any selector. When selectors
// is empty or all selectors are blank, the original slice is returned, so an
// absent --profiles flag means "all profiles".
func FilterItems[T any](items []T, selectors []string, keyFn func(T) string) []T {
	if len(items) == 0 {
		return items
	}
	set := BuildSelectorSet(selectors)
	if len(set) == 0 || keyFn == nil {
		return items
	}
	result := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := set[keyFn(item)]; ok {
			result = append(result, item)
		}
	}
	return result
}
