// FILE: lixenwraith/nodeconf/register.go
package nodeconf

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"strings"
	"time"
)

// SchemaFromStruct derives a schema from a struct whose field values are the
// defaults. Keys come from the yaml tag (or the field name); a field tagged
// `nodeconf:"required"` has no default and must be supplied, and a `help`
// tag documents it. Nested structs become nodes, maps of structs node maps
// and slices of structs node lists.
//
// The resulting tree decodes back into the struct with Node.Decode.
func SchemaFromStruct(name string, structWithDefaults any) (*Schema, error) {
	v := reflect.ValueOf(structWithDefaults)

	// Handle pointer or direct struct value
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("SchemaFromStruct requires a non-nil struct pointer or value")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("SchemaFromStruct requires a struct or struct pointer, got %T", structWithDefaults)
	}

	return schemaFromValue(name, v, map[reflect.Type]bool{})
}

func schemaFromValue(name string, v reflect.Value, visiting map[reflect.Type]bool) (*Schema, error) {
	t := v.Type()
	if visiting[t] {
		return nil, fmt.Errorf("recursive struct type %s cannot be derived", t)
	}
	visiting[t] = true
	defer delete(visiting, t)

	b := NewSchema(name)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get(DefaultTagName)
		if tag == "-" {
			continue
		}
		key := field.Name
		if tag != "" {
			if parts := strings.Split(tag, ","); parts[0] != "" {
				key = parts[0]
			}
		}
		required := field.Tag.Get("nodeconf") == "required"

		if err := addField(b, key, field, v.Field(i), required, visiting); err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t.Name(), field.Name, err)
		}
		b.Help(field.Tag.Get("help"))
	}
	return b.Build()
}

func addField(b *SchemaBuilder, key string, field reflect.StructField, value reflect.Value, required bool, visiting map[reflect.Type]bool) error {
	ft := field.Type

	if elem, ok := nestedStruct(ft); ok {
		nested := reflect.New(elem).Elem()
		if ft.Kind() == reflect.Ptr && !value.IsNil() {
			nested = value.Elem()
		} else if ft.Kind() == reflect.Struct {
			nested = value
		}
		child, err := schemaFromValue(key, nested, visiting)
		if err != nil {
			return err
		}
		b.Node(key, child)
		return nil
	}

	if ft.Kind() == reflect.Map && ft.Key().Kind() == reflect.String {
		if elem, ok := nestedStruct(ft.Elem()); ok {
			child, err := schemaFromValue(key, reflect.New(elem).Elem(), visiting)
			if err != nil {
				return err
			}
			b.NodeMap(key, child)
			return nil
		}
	}

	if ft.Kind() == reflect.Slice {
		if elem, ok := nestedStruct(ft.Elem()); ok {
			child, err := schemaFromValue(key, reflect.New(elem).Elem(), visiting)
			if err != nil {
				return err
			}
			b.NodeList(key, child)
			return nil
		}
	}

	typ := typeForGo(ft)
	if required {
		b.Required(key, typ)
	} else {
		b.Optional(key, value.Interface(), typ)
	}
	return b.err
}

var (
	timeType   = reflect.TypeFor[time.Time]()
	ipNetType  = reflect.TypeFor[net.IPNet]()
	urlType    = reflect.TypeFor[url.URL]()
	anyMapType = reflect.TypeFor[map[string]any]()
)

// nestedStruct reports whether t (or what it points to) is a struct that maps
// to a nested node rather than a single decoded value.
func nestedStruct(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, false
	}
	switch t {
	case timeType, ipNetType, urlType:
		return nil, false
	}
	return t, true
}

// typeForGo maps a Go field type to the closest declared type.
func typeForGo(t reflect.Type) Type {
	if t == reflect.TypeFor[time.Duration]() {
		return Duration
	}
	switch t.Kind() {
	case reflect.String:
		if t == reflect.TypeFor[string]() {
			return String
		}
	case reflect.Bool:
		if t == reflect.TypeFor[bool]() {
			return Bool
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int
	case reflect.Float32, reflect.Float64:
		return Float
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Interface {
			return List
		}
		if t.Elem().Kind() != reflect.Uint8 {
			return ListOf(typeForGo(t.Elem()))
		}
	case reflect.Map:
		if t == anyMapType {
			return Mapping
		}
	case reflect.Interface:
		return Any
	}
	return Type{kind: KindGo, goType: t}
}
