// Package argsobj parses raw command-line arguments into an ordered flag
// mapping without knowing the flags in advance, and flattens such a mapping back
// into argument tokens.
package argsobj

import (
	"fmt"
	"strconv"
	"strings"
)

// Keys that argument parsers conventionally use for positional arguments and
// the script name. They never appear in a flattened argument array.
const (
	PositionalKey = "_"
	ScriptKey     = "$0"
)

// Object is an ordered mapping from flag name to value. Values are string,
// bool, or []any for flags given more than once.
type Object struct {
	keys   []string
	values map[string]any

	// Positional holds arguments not attached to any flag.
	Positional []string
	// Script is the name the script was invoked as.
	Script string
}

// Parse reads args the way a permissive option parser does:
//
//	--name value, --name=value, --no-name (false), --name (true when the
//	next token is another flag or absent), -x value, -abc (a, b, c true; the
//	last letter may take a value), and -- to end flag parsing.
func Parse(args []string) Object {
	var obj Object
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			obj.Positional = append(obj.Positional, args[i+1:]...)
			return obj
		case strings.HasPrefix(arg, "--") && len(arg) > 2:
			name := arg[2:]
			if k, v, ok := strings.Cut(name, "="); ok {
				obj.add(k, v)
				continue
			}
			if rest, ok := strings.CutPrefix(name, "no-"); ok && rest != "" {
				obj.add(rest, false)
				continue
			}
			if i+1 < len(args) && !isFlag(args[i+1]) {
				obj.add(name, args[i+1])
				i++
				continue
			}
			obj.add(name, true)
		case isFlag(arg):
			letters := arg[1:]
			value, hasValue := "", false
			if k, v, ok := strings.Cut(letters, "="); ok {
				letters, value, hasValue = k, v, true
			}
			runes := []rune(letters)
			if len(runes) == 0 {
				obj.Positional = append(obj.Positional, arg)
				continue
			}
			for _, r := range runes[:len(runes)-1] {
				obj.add(string(r), true)
			}
			last := string(runes[len(runes)-1])
			switch {
			case hasValue:
				obj.add(last, value)
			case i+1 < len(args) && !isFlag(args[i+1]):
				obj.add(last, args[i+1])
				i++
			default:
				obj.add(last, true)
			}
		default:
			obj.Positional = append(obj.Positional, arg)
		}
	}
	return obj
}

func isFlag(s string) bool {
	if len(s) < 2 || s[0] != '-' {
		return false
	}
	if s == "--" {
		return true
	}
	if c := s[1]; (c >= '0' && c <= '9') || c == '.' {
		_, err := strconv.ParseFloat(s, 64)
		return err != nil
	}
	return true
}

func (o *Object) add(name string, value any) {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	prev, ok := o.values[name]
	if !ok {
		o.keys = append(o.keys, name)
		o.values[name] = value
		return
	}
	if list, ok := prev.([]any); ok {
		o.values[name] = append(list, value)
		return
	}
	o.values[name] = []any{prev, value}
}

// Set assigns a value, appending the key when it is new.
func (o *Object) Set(name string, value any) {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, ok := o.values[name]; !ok {
		o.keys = append(o.keys, name)
	}
	o.values[name] = value
}

// Keys returns flag names in the order they were first seen.
func (o Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Get returns the raw value of a flag.
func (o Object) Get(name string) (any, bool) {
	v, ok := o.values[name]
	return v, ok
}

// Has reports whether a flag was given.
func (o Object) Has(name string) bool {
	_, ok := o.values[name]
	return ok
}

// Present returns, in the order given, which of names were supplied.
func (o Object) Present(names ...string) []string {
	var found []string
	for _, name := range names {
		if o.Has(name) {
			found = append(found, name)
		}
	}
	return found
}

// Without returns a copy of o with the named flags removed. Absent names are
// ignored.
func (o Object) Without(names ...string) Object {
	out := Object{
		Positional: append([]string(nil), o.Positional...),
		Script:     o.Script,
	}
	drop := make(map[string]bool, len(names))
	for _, name := range names {
		drop[name] = true
	}
	for _, key := range o.keys {
		if drop[key] {
			continue
		}
		out.Set(key, o.values[key])
	}
	return out
}

// Array flattens the mapping into tokens: one-letter names become -x, longer
// names --name, each followed by its value. Flags given more than once repeat
// the name for every value. The positional and script-name keys are skipped.
func (o Object) Array() []string {
	var out []string
	for _, key := range o.keys {
		if key == PositionalKey || key == ScriptKey {
			continue
		}
		name := "--" + key
		if len([]rune(key)) == 1 {
			name = "-" + key
		}
		values, ok := o.values[key].([]any)
		if !ok {
			values = []any{o.values[key]}
		}
		for _, v := range values {
			out = append(out, name, FormatValue(v))
		}
	}
	return out
}

// FormatValue renders a flag value as a single argument token.
func FormatValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = FormatValue(item)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}
