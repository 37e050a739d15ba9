// Package casing rewrites JSON object keys between snake_case (the wire
// convention of the Nomad Cafes backend) and camelCase (the convention of the
// typed client models).
//
// The transforms are purely structural: they walk decoded JSON values
// (map[string]any, []any and scalars) of any depth and only touch object
// keys. Arrays, nulls and scalar leaves are returned unchanged.
package casing

import (
	"strings"
)

// SnakeToCamel converts a single key: every "_x" where x is a lowercase ASCII
// letter becomes "X". Keys without such a sequence are returned unchanged.
func SnakeToCamel(key string) string {
	if !strings.Contains(key, "_") {
		return key
	}

	var b strings.Builder
	b.Grow(len(key))

	for i := 0; i < len(key); i++ {
		c := key[i]
		if c == '_' && i+1 < len(key) && isLower(key[i+1]) {
			b.WriteByte(key[i+1] - 'a' + 'A')
			i++
			continue
		}
		b.WriteByte(c)
	}

	return b.String()
}

// CamelToSnake converts a single key: every uppercase ASCII letter X becomes
// "_x". Keys without uppercase letters are returned unchanged.
func CamelToSnake(key string) string {
	upper := 0
	for i := 0; i < len(key); i++ {
		if isUpper(key[i]) {
			upper++
		}
	}
	if upper == 0 {
		return key
	}

	var b strings.Builder
	b.Grow(len(key) + upper)

	for i := 0; i < len(key); i++ {
		c := key[i]
		if isUpper(c) {
			b.WriteByte('_')
			b.WriteByte(c - 'A' + 'a')
			continue
		}
		b.WriteByte(c)
	}

	return b.String()
}

// ToCamel returns a copy of v with every object key converted to camelCase.
func ToCamel(v any) any {
	return transformKeys(v, SnakeToCamel)
}

// ToSnake returns a copy of v with every object key converted to snake_case.
func ToSnake(v any) any {
	return transformKeys(v, CamelToSnake)
}

func transformKeys(v any, convert func(string) string) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[convert(k)] = transformKeys(item, convert)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = transformKeys(item, convert)
		}
		return out
	default:
		return v
	}
}

func isLower(c byte) bool { return c >= 'a' && c <= 'z' }

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
