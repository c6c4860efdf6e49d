// Package rawval reads loosely-typed fields out of raw node records.
//
// Input records arrive as map[string]any decoded from JSON, YAML or CSV, so a
// field may be missing, null, or any scalar type. Value keeps those cases
// distinct (present-with-null is not the same as absent, which matters for
// the explicit-active fallback chain) and pins the truthiness and
// stringification rules in one place instead of coercing ad hoc at each
// call site.
package rawval

import (
	"strconv"
	"strings"
)

// Kind discriminates the scalar shapes a raw field can take.
type Kind int

const (
	Absent Kind = iota
	Null
	Bool
	Number
	String
)

// Value is one raw field. The zero value is Absent.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
}

// Get looks up key in raw, distinguishing a missing key from an explicit null.
func Get(raw map[string]any, key string) Value {
	v, ok := raw[key]
	if !ok {
		return Value{}
	}
	return of(v)
}

// First returns the value of the first key that is present in raw, null
// included. It mirrors a chain of presence-defaulted lookups: a key that
// exists wins even when its value is null or falsy.
func First(raw map[string]any, keys ...string) Value {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			return of(v)
		}
	}
	return Value{}
}

// Coalesce returns the primary key's value unless it is absent, null or
// falsy, in which case the fallback key's value is returned as-is. This is
// the truthiness-based fallback used for aliased fields like flag/emoji.
func Coalesce(raw map[string]any, primary, fallback string) Value {
	v := Get(raw, primary)
	if v.Truthy() {
		return v
	}
	return Get(raw, fallback)
}

// FirstText probes keys in order and returns the first trimmed non-empty
// text. Keys whose value is null, or trims to empty, are skipped rather
// than accepted.
func FirstText(raw map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		text := strings.TrimSpace(Get(raw, key).Text())
		if text != "" {
			return text, true
		}
	}
	return "", false
}

func of(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{kind: Null}
	case bool:
		return Value{kind: Bool, b: t}
	case float64:
		return Value{kind: Number, num: t}
	case float32:
		return Value{kind: Number, num: float64(t)}
	case int:
		return Value{kind: Number, num: float64(t)}
	case int32:
		return Value{kind: Number, num: float64(t)}
	case int64:
		return Value{kind: Number, num: float64(t)}
	case uint:
		return Value{kind: Number, num: float64(t)}
	case uint64:
		return Value{kind: Number, num: float64(t)}
	case string:
		return Value{kind: String, str: t}
	default:
		// Containers and anything else are outside the record contract.
		return Value{}
	}
}

// Kind reports the shape of the value.
func (v Value) Kind() Kind { return v.kind }

// Number returns the numeric value and whether the value is a number.
func (v Value) Number() (float64, bool) {
	return v.num, v.kind == Number
}

// Truthy interprets the value the way its source type naturally would:
// absent and null are false, booleans are themselves, numbers are true when
// non-zero, strings are true when non-empty. Note that this makes the
// string "false" truthy; callers relying on explicit-active flags inherit
// that behavior deliberately.
func (v Value) Truthy() bool {
	switch v.kind {
	case Bool:
		return v.b
	case Number:
		return v.num != 0
	case String:
		return v.str != ""
	default:
		return false
	}
}

// Text renders the value as a string. Absent and null render as the empty
// string so that a null field can never leak a "null" literal into a name
// or status. Numbers use the shortest decimal form that round-trips.
func (v Value) Text() string {
	switch v.kind {
	case Bool:
		return strconv.FormatBool(v.b)
	case Number:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case String:
		return v.str
	default:
		return ""
	}
}
