// Package update describes partial document updates addressed by dot-notation field paths.
package update

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/firedoc/internal/domain"
)

// Update changes or removes one field. Path uses dot notation for nested
// fields, e.g. "stats.health".
type Update struct {
	Path   string
	Value  any
	Delete bool
}

// Set returns an update assigning v to path.
func Set(path string, v any) Update { return Update{Path: path, Value: v} }

// DeleteField returns an update removing path.
func DeleteField(path string) Update { return Update{Path: path, Delete: true} }

// FromMap converts a path->value map plus a list of deleted paths into
// updates sorted by path.
func FromMap(values map[string]any, deletes []string) []Update {
	out := make([]Update, 0, len(values)+len(deletes))
	for p, v := range values {
		out = append(out, Set(p, v))
	}
	for _, p := range deletes {
		out = append(out, DeleteField(p))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Validate rejects empty lists, empty path segments, duplicate paths, and
// paths where one is a prefix of another.
func Validate(updates []Update) error {
	if len(updates) == 0 {
		return fmt.Errorf("at least one field update is required: %w", domain.ErrInvalidDocument)
	}
	seen := make(map[string]struct{}, len(updates))
	for _, u := range updates {
		if u.Path == "" {
			return fmt.Errorf("field path is required: %w", domain.ErrInvalidDocument)
		}
		for _, seg := range strings.Split(u.Path, ".") {
			if seg == "" {
				return fmt.Errorf("field path %q has an empty segment: %w", u.Path, domain.ErrInvalidDocument)
			}
		}
		if _, dup := seen[u.Path]; dup {
			return fmt.Errorf("field path %q updated twice: %w", u.Path, domain.ErrInvalidDocument)
		}
		seen[u.Path] = struct{}{}
	}
	for p := range seen {
		for q := range seen {
			if p != q && strings.HasPrefix(q, p+".") {
				return fmt.Errorf("field path %q conflicts with %q: %w", p, q, domain.ErrInvalidDocument)
			}
		}
	}
	return nil
}

// Apply applies updates to doc in place. Intermediate maps are created as
// needed; a non-map value on the way is replaced.
func Apply(doc map[string]any, updates []Update) {
	for _, u := range updates {
		segs := strings.Split(u.Path, ".")
		parent := doc
		for _, seg := range segs[:len(segs)-1] {
			next, ok := parent[seg].(map[string]any)
			if !ok {
				if u.Delete {
					parent = nil
					break
				}
				next = map[string]any{}
				parent[seg] = next
			}
			parent = next
		}
		if parent == nil {
			continue
		}
		last := segs[len(segs)-1]
		if u.Delete {
			delete(parent, last)
			continue
		}
		parent[last] = u.Value
	}
}

// Merge deep-merges src into dst: nested maps merge recursively, any other
// value replaces the existing one.
func Merge(dst, src map[string]any) {
	for k, v := range src {
		sm, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		dm, ok := dst[k].(map[string]any)
		if !ok {
			dm = map[string]any{}
			dst[k] = dm
		}
		Merge(dm, sm)
	}
}
