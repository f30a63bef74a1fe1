// File: lixenwraith/nodeconf/helper.go
package nodeconf

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
)

// flattenMap converts a nested *Map to a flat map[string]any with dot-notation paths.
func flattenMap(nested *Map, prefix string) map[string]any {
	flat := make(map[string]any)

	for key, value := range nested.All() {
		newPath := key
		if prefix != "" {
			newPath = prefix + "." + key
		}

		// Recurse into nested mappings, anything else is a leaf
		if nestedMap, isMap := value.(*Map); isMap && nestedMap.Len() > 0 {
			for subPath, subValue := range flattenMap(nestedMap, newPath) {
				flat[subPath] = subValue
			}
		} else {
			flat[newPath] = value
		}
	}

	return flat
}

// splitPath splits a dotted path into its segments. An empty path has no segments.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// joinPath appends key to a dotted prefix.
func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// isValidKeySegment checks if a single path segment is a valid key part:
// ASCII letters, digits, underscores and dashes.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}

	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isUnderscore := r == '_'
		isDash := r == '-'

		if !(isLetter || isDigit || isUnderscore || isDash) {
			return false
		}
	}
	return true
}

// normalize converts plain Go maps into *Map (keys sorted, since Go maps carry
// no order) and rebuilds []any so nested maps are converted as well. Integers
// of every width become int64 (unsigned values above math.MaxInt64 are kept)
// and float32 becomes float64. Other values are returned unchanged.
func normalize(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint:
		return normalizeUint(uint64(t))
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return normalizeUint(t)
	case float32:
		return float64(t)
	case *Map:
		if t == nil {
			return NewMap()
		}
		return t
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			m.Set(k, t[k])
		}
		return m
	case map[any]any:
		byKey := make(map[string]any, len(t))
		for k, val := range t {
			byKey[fmt.Sprintf("%v", k)] = val
		}
		return normalize(byKey)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}

func normalizeUint(u uint64) any {
	if u > math.MaxInt64 {
		return u
	}
	return int64(u)
}

// deepCopy copies mappings and sequences; scalars are shared.
func deepCopy(v any) any {
	switch t := v.(type) {
	case *Map:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = deepCopy(item)
		}
		return out
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice && !rv.IsNil() {
			cp := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
			reflect.Copy(cp, rv)
			return cp.Interface()
		}
		return v
	}
}

// toStd converts *Map values (at any depth) into map[string]any.
func toStd(v any) any {
	switch t := v.(type) {
	case *Map:
		return t.ToStd()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = toStd(item)
		}
		return out
	default:
		return v
	}
}
