// FILE: lixenwraith/nodeconf/cast.go
package nodeconf

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Cast converts value to the first of types that accepts it.
//
// A value that already is an instance of any declared type is returned
// unchanged. Otherwise each type is tried in declared order and the first
// successful conversion wins. Literal types additionally require the result
// to be one of their allowed values.
func Cast(value any, types ...Type) (any, error) {
	if len(types) == 0 {
		return nil, &ConfigError{Reason: "at least one type must be declared"}
	}
	for _, t := range types {
		if err := t.checkValue("cast target"); err != nil {
			return nil, err
		}
	}

	// Numbers take their canonical width so identity does not depend on the source
	canonical := normalize(value)

	// Already-correct values are never re-cast
	for _, t := range types {
		if t.is(canonical) {
			return canonical, nil
		}
	}

	var lastErr error
	var notAllowed *CastError
	for _, t := range types {
		out, err := t.convert(canonical)
		if err == nil {
			return out, nil
		}
		var ce *CastError
		if notAllowed == nil && errors.As(err, &ce) && ce.NotAllowed {
			notAllowed = ce
		}
		lastErr = err
	}

	if notAllowed != nil {
		return nil, notAllowed
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return nil, &CastError{Value: value, Types: names, Err: lastErr}
}

// Cast converts value to t. See the package-level Cast.
func (t Type) Cast(value any) (any, error) {
	return Cast(value, t)
}

// Is reports whether value already is an instance of t.
func (t Type) Is(value any) bool {
	return t.is(value)
}

func (t Type) is(value any) bool {
	switch t.kind {
	case KindAny:
		return true
	case KindNull:
		return value == nil
	case KindString:
		_, ok := value.(string)
		return ok
	case KindInt:
		_, ok := value.(int64)
		return ok
	case KindFloat:
		_, ok := value.(float64)
		return ok
	case KindBool:
		_, ok := value.(bool)
		return ok
	case KindDuration:
		_, ok := value.(time.Duration)
		return ok
	case KindList:
		_, ok := value.([]any)
		return ok
	case KindMap:
		m, ok := value.(*Map)
		return ok && m != nil
	case KindListOf:
		list, ok := value.([]any)
		if !ok {
			return false
		}
		for _, item := range list {
			if !t.members[0].is(item) {
				return false
			}
		}
		return true
	case KindGo:
		return value != nil && reflect.TypeOf(value) == t.goType
	case KindUnion:
		for _, member := range t.members {
			if member.is(value) {
				return true
			}
		}
		return false
	case KindLiteral:
		return t.members[0].is(value) && containsLiteral(t.literals, value)
	default:
		return false
	}
}

func (t Type) convert(value any) (any, error) {
	switch t.kind {
	case KindAny:
		return value, nil
	case KindNull:
		return nil, fmt.Errorf("value %v is not null", value)
	case KindString:
		return castString(value)
	case KindInt:
		return castInt(value)
	case KindFloat:
		return castFloat(value)
	case KindBool:
		return castBool(value)
	case KindDuration:
		return castDuration(value)
	case KindList:
		return castList(value)
	case KindMap:
		return castMapping(value)
	case KindListOf:
		list, err := castList(value)
		if err != nil {
			return nil, err
		}
		for i, item := range list {
			cast, err := Cast(item, t.members[0])
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			list[i] = cast
		}
		return list, nil
	case KindGo:
		return castGo(value, t.goType)
	case KindUnion:
		return Cast(value, t.members...)
	case KindLiteral:
		out, err := Cast(value, t.members...)
		if err != nil {
			return nil, err
		}
		if !containsLiteral(t.literals, out) {
			return nil, &CastError{Value: out, Types: []string{t.String()}, NotAllowed: true, Allowed: t.Literals()}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot cast to %s", t)
	}
}

func containsLiteral(literals []any, value any) bool {
	return slices.ContainsFunc(literals, func(l any) bool {
		return reflect.DeepEqual(l, value)
	})
}

// castString converts scalars to their string form.
func castString(val any) (string, error) {
	switch v := val.(type) {
	case nil:
		return "", fmt.Errorf("cannot convert nil to string")
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case []byte:
		return string(v), nil
	case int, int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(val).Int(), 10), nil
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(val).Uint(), 10), nil
	case float32, float64:
		return strconv.FormatFloat(reflect.ValueOf(val).Float(), 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("cannot convert type %T to string", val)
	}
}

// castInt converts numeric kinds, strictly-parsed strings and booleans to int64.
// Floats are truncated.
func castInt(val any) (int64, error) {
	if val == nil {
		return 0, fmt.Errorf("cannot convert nil to int")
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		maxInt64 := int64(^uint64(0) >> 1)
		if u > uint64(maxInt64) {
			return 0, fmt.Errorf("cannot convert unsigned integer %d to int: overflow", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return int64(v.Float()), nil
	case reflect.String:
		s := v.String()
		// Base 0 for auto-detection (e.g., "0xFF")
		i, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert string %q to int: %w", s, err)
		}
		return i, nil
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	}

	return 0, fmt.Errorf("cannot convert type %T to int", val)
}

// castFloat converts numeric kinds, parsable strings and booleans to float64.
func castFloat(val any) (float64, error) {
	if val == nil {
		return 0, fmt.Errorf("cannot convert nil to float")
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	case reflect.String:
		s := v.String()
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert string %q to float: %w", s, err)
		}
		return f, nil
	case reflect.Bool:
		if v.Bool() {
			return 1.0, nil
		}
		return 0.0, nil
	}

	return 0, fmt.Errorf("cannot convert type %T to float", val)
}

// castBool converts parsable strings and numbers (0=false, non-zero=true) to bool.
func castBool(val any) (bool, error) {
	if val == nil {
		return false, fmt.Errorf("cannot convert nil to bool")
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.String:
		s := v.String()
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("cannot convert string %q to bool: %w", s, err)
		}
		return b, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() != 0, nil
	case reflect.Float32, reflect.Float64:
		return v.Float() != 0, nil
	}

	return false, fmt.Errorf("cannot convert type %T to bool", val)
}

// castDuration parses duration strings ("1m30s"); integers are nanoseconds.
func castDuration(val any) (time.Duration, error) {
	if val == nil {
		return 0, fmt.Errorf("cannot convert nil to duration")
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.String:
		d, err := time.ParseDuration(v.String())
		if err != nil {
			return 0, fmt.Errorf("cannot convert string %q to duration: %w", v.String(), err)
		}
		return d, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return time.Duration(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return time.Duration(v.Uint()), nil
	}

	return 0, fmt.Errorf("cannot convert type %T to duration", val)
}

// castList copies any slice or array into a fresh []any.
func castList(val any) ([]any, error) {
	if val == nil {
		return nil, fmt.Errorf("cannot convert nil to list")
	}
	if list, ok := val.([]any); ok {
		return slices.Clone(list), nil
	}

	v := reflect.ValueOf(val)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, fmt.Errorf("cannot convert type %T to list", val)
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = normalize(v.Index(i).Interface())
	}
	return out, nil
}

// castMapping accepts plain Go maps and returns them as *Map.
func castMapping(val any) (*Map, error) {
	switch val.(type) {
	case map[string]any, map[any]any:
		return normalize(val).(*Map), nil
	}
	return nil, fmt.Errorf("cannot convert type %T to map", val)
}

// castGo decodes value into a new instance of target through mapstructure.
func castGo(value any, target reflect.Type) (any, error) {
	if value == nil {
		return nil, fmt.Errorf("cannot convert nil to %s", target)
	}

	result := reflect.New(target)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           result.Interface(),
		TagName:          DefaultTagName,
		WeaklyTypedInput: true,
		DecodeHook:       decodeHook(),
	})
	if err != nil {
		return nil, fmt.Errorf("decoder creation failed: %w", err)
	}
	if err := decoder.Decode(toStd(value)); err != nil {
		return nil, err
	}
	return result.Elem().Interface(), nil
}
