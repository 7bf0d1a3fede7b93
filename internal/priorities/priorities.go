// Package priorities resolves generator-chosen priority names against a
// project's priority list.
package priorities

import (
	"sort"
	"strings"

	"github.com/UllasZ/teams-taiga-integration/internal/types"
)

// Names returns the priority names in the order the backend listed them.
func Names(list []types.Priority) []string {
	names := make([]string, 0, len(list))
	for _, p := range list {
		names = append(names, p.Name)
	}
	return names
}

// Resolve finds the priority whose name case-insensitively equals name.
// Names are unique within a project; the first match wins if they are not.
func Resolve(name string, list []types.Priority) (types.Priority, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Priority{}, false
	}
	for _, p := range list {
		if strings.EqualFold(strings.TrimSpace(p.Name), name) {
			return p, true
		}
	}
	return types.Priority{}, false
}

// Sorted returns a copy of list ordered by the backend's Order field,
// lowest first. Ties keep their original order.
func Sorted(list []types.Priority) []types.Priority {
	out := append([]types.Priority(nil), list...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
