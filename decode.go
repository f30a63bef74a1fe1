// FILE: lixenwraith/nodeconf/decode.go
package nodeconf

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// DefaultTagName is the struct tag read when decoding into Go values.
const DefaultTagName = "yaml"

// Decode copies the node's values into target, which must be a non-nil
// pointer to a struct or map. Struct fields are matched by their yaml tag.
func (n *Node) Decode(target any) error {
	return n.DecodePath("", target)
}

// DecodePath decodes the subtree at a dotted path into target. An empty path
// decodes the whole node.
func (n *Node) DecodePath(path string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("decode target must be non-nil pointer, got %T", target)
	}

	var section any = n
	if path != "" {
		v, ok := n.Lookup(path)
		if !ok {
			return fmt.Errorf("path %q not found", path)
		}
		section = v
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          DefaultTagName,
		WeaklyTypedInput: true,
		DecodeHook:       decodeHook(),
		ZeroFields:       true,
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}

	if err := decoder.Decode(toStd(rawValue(section))); err != nil {
		return fmt.Errorf("decode failed for path %q: %w", path, err)
	}
	return nil
}

// decodeHook converts the strings of a node tree into the Go types fields
// commonly declare: addresses, networks, URLs, durations, timestamps and
// comma-separated lists.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		stringHook(45, parseIP),
		stringHook(49, parseCIDR),
		stringHook(2048, url.Parse),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// stringHook decodes a string into *T or T with parse, rejecting input longer
// than limit bytes.
func stringHook[T any](limit int, parse func(string) (*T, error)) mapstructure.DecodeHookFunc {
	target := reflect.TypeFor[T]()
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		isPtr := t.Kind() == reflect.Ptr
		if t != target && !(isPtr && t.Elem() == target) {
			return data, nil
		}

		str := data.(string)
		if len(str) > limit {
			return nil, fmt.Errorf("%s value too long: %d bytes", target, len(str))
		}
		v, err := parse(str)
		if err != nil {
			return nil, err
		}
		if isPtr {
			return v, nil
		}
		return *v, nil
	}
}

func parseIP(s string) (*net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("invalid IP address: %s", s)
	}
	return &ip, nil
}

func parseCIDR(s string) (*net.IPNet, error) {
	_, ipnet, err := net.ParseCIDR(s)
	if err != nil {
		return nil, fmt.Errorf("invalid CIDR: %w", err)
	}
	return ipnet, nil
}
