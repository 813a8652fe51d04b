package configobj

import (
	"path/filepath"
	"sort"
	"strings"
)

// ShouldModify reports whether a relative path value may be rewritten. A nil
// ShouldModify allows every value.
type ShouldModify func(value string) bool

// ExceptContaining returns a ShouldModify that leaves values containing token
// untouched, for placeholders the downstream tool expands itself.
func ExceptContaining(token string) ShouldModify {
	return func(value string) bool {
		return !strings.Contains(value, token)
	}
}

// Absolutize resolves value against base unless it is empty, already absolute,
// or excluded by shouldModify.
func Absolutize(base, value string, shouldModify ShouldModify) string {
	if value == "" || filepath.IsAbs(value) {
		return value
	}
	if shouldModify != nil && !shouldModify(value) {
		return value
	}
	return filepath.Join(base, value)
}

// RewritePaths absolutizes the values at the given dotted field paths in
// place. Missing fields are skipped, lists are rewritten element by element,
// and non-string values are left alone.
func RewritePaths(obj Object, base string, fields []string, shouldModify ShouldModify) {
	for _, field := range fields {
		value, ok := obj.Get(field)
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			if v == "" {
				continue
			}
			obj.Set(field, Absolutize(base, v, shouldModify))
		case []any:
			out := make([]any, len(v))
			for i, item := range v {
				if s, ok := item.(string); ok {
					out[i] = Absolutize(base, s, shouldModify)
				} else {
					out[i] = item
				}
			}
			obj.Set(field, out)
		case []string:
			out := make([]any, len(v))
			for i, item := range v {
				out[i] = Absolutize(base, item, shouldModify)
			}
			obj.Set(field, out)
		}
	}
}

// ApplyFields sets every dotted path in fields to its value, in sorted path
// order so a parent path is applied before its children.
func ApplyFields(obj Object, fields map[string]any) {
	paths := make([]string, 0, len(fields))
	for path := range fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		obj.Set(path, fields[path])
	}
}
