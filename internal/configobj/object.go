// Package configobj loads, edits, and writes the tree-shaped configuration
// objects handed to wrapped tools.
package configobj

import (
	"fmt"
	"strconv"
	"strings"
)

// Object is a configuration tree: nested maps of strings to strings, numbers,
// bools, lists, and sub-maps.
type Object map[string]any

// Get fetches the value at a dotted field path such as
// "compilerOptions.outDir". Numeric segments index into lists.
func (o Object) Get(path string) (any, bool) {
	var cur any = map[string]any(o)
	for _, seg := range splitPath(path) {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case Object:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Set assigns value at a dotted field path, creating intermediate maps as
// needed. Numeric segments index into existing lists in place. An
// intermediate value that is neither a map nor a list holding that index is
// replaced by a map.
func (o Object) Set(path string, value any) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return
	}
	setIn(map[string]any(o), segs, value)
}

// setIn assigns value below node and returns the node to store in its parent.
func setIn(node any, segs []string, value any) any {
	seg, rest := segs[0], segs[1:]
	switch n := node.(type) {
	case map[string]any:
		n[seg] = setChild(n[seg], rest, value)
		return n
	case Object:
		n[seg] = setChild(n[seg], rest, value)
		return n
	case []any:
		if idx, err := strconv.Atoi(seg); err == nil && idx >= 0 && idx < len(n) {
			n[idx] = setChild(n[idx], rest, value)
			return n
		}
	}
	return map[string]any{seg: setChild(nil, rest, value)}
}

func setChild(child any, rest []string, value any) any {
	if len(rest) == 0 {
		return value
	}
	return setIn(child, rest, value)
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Clone returns a deep copy of o.
func (o Object) Clone() Object {
	if o == nil {
		return nil
	}
	return cloneValue(map[string]any(o)).(map[string]any)
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = cloneValue(item)
		}
		return out
	case Object:
		return map[string]any(v.Clone())
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}

// normalize rewrites decoder-specific container types into map[string]any and
// []any so every source format yields the same shapes.
func normalize(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, item := range v {
			v[k] = normalize(item)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range v {
			v[i] = normalize(item)
		}
		return v
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	default:
		return v
	}
}
