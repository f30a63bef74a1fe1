// FILE: lixenwraith/nodeconf/cast_test.go
package nodeconf

import (
	"errors"
	"math"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCast tests ordered union casting
func TestCast(t *testing.T) {
	t.Run("IdentityShortCircuit", func(t *testing.T) {
		// Float would convert 5 to 5.0 if it were attempted
		v, err := Cast(int64(5), Float, Int)
		require.NoError(t, err)
		assert.Equal(t, int64(5), v)
	})

	t.Run("IdentityForEveryNumberWidth", func(t *testing.T) {
		tests := []struct {
			name  string
			value any
			types []Type
			want  any
		}{
			{"Int", 5, []Type{String, Int}, int64(5)},
			{"Int32", int32(5), []Type{String, Int}, int64(5)},
			{"Uint8", uint8(5), []Type{String, Int}, int64(5)},
			{"Uint64", uint64(5), []Type{Float, Int}, int64(5)},
			{"Float32", float32(0.5), []Type{String, Float}, 0.5},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				v, err := Cast(tt.value, tt.types...)
				require.NoError(t, err)
				assert.Equal(t, tt.want, v)
			})
		}
	})

	t.Run("FallThroughToString", func(t *testing.T) {
		v, err := Cast("abc", Int, String)
		require.NoError(t, err)
		assert.Equal(t, "abc", v)
	})

	t.Run("FirstSuccessWins", func(t *testing.T) {
		v, err := Cast("3", Int, Float)
		require.NoError(t, err)
		assert.Equal(t, int64(3), v)

		v, err = Cast("3", Float, Int)
		require.NoError(t, err)
		assert.Equal(t, 3.0, v)

		v, err = Cast("0.5", Int, Float)
		require.NoError(t, err)
		assert.Equal(t, 0.5, v)
	})

	t.Run("NoTypeMatches", func(t *testing.T) {
		_, err := Cast("abc", Int, Float)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCast))

		var ce *CastError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "abc", ce.Value)
		assert.Equal(t, []string{"int", "float"}, ce.Types)
		assert.False(t, ce.NotAllowed)
		assert.Contains(t, err.Error(), "int, float")
	})

	t.Run("NoTypesDeclared", func(t *testing.T) {
		_, err := Cast(1)
		assert.True(t, errors.Is(err, ErrConfig))
	})

	t.Run("Null", func(t *testing.T) {
		v, err := Cast(nil, Int, Null)
		require.NoError(t, err)
		assert.Nil(t, v)

		_, err = Cast(nil, Int)
		assert.True(t, errors.Is(err, ErrCast))
	})

	t.Run("Primitives", func(t *testing.T) {
		tests := []struct {
			name  string
			value any
			typ   Type
			want  any
		}{
			{"IntFromInt", 42, Int, int64(42)},
			{"IntFromHex", "0x1F", Int, int64(31)},
			{"IntFromFloatTruncates", 3.9, Int, int64(3)},
			{"IntFromBool", true, Int, int64(1)},
			{"FloatFromInt", 2, Float, 2.0},
			{"FloatFromString", "1e-3", Float, 0.001},
			{"BoolFromString", "false", Bool, false},
			{"BoolFromNumber", 2, Bool, true},
			{"StringFromInt", 7, String, "7"},
			{"StringFromFloat", 0.25, String, "0.25"},
			{"StringFromDuration", time.Second, String, "1s"},
			{"DurationFromString", "1m30s", Duration, 90 * time.Second},
			{"DurationFromNanos", 1500, Duration, 1500 * time.Nanosecond},
			{"ListFromTypedSlice", []string{"a", "b"}, List, []any{"a", "b"}},
			{"MappingFromGoMap", map[string]any{"b": 1, "a": 2}, Mapping, MapOf("a", 2, "b", 1)},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := Cast(tt.value, tt.typ)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			})
		}
	})

	t.Run("PrimitiveFailures", func(t *testing.T) {
		tests := []struct {
			name  string
			value any
			typ   Type
		}{
			{"IntFromWord", "twelve", Int},
			{"IntOverflow", uint64(math.MaxUint64), Int},
			{"BoolFromYes", "yes", Bool},
			{"DurationFromWord", "soon", Duration},
			{"ListFromScalar", 5, List},
			{"MappingFromList", []any{1}, Mapping},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := Cast(tt.value, tt.typ)
				assert.True(t, errors.Is(err, ErrCast))
			})
		}
	})

	t.Run("ListOf", func(t *testing.T) {
		v, err := Cast([]any{"1", 2, 3.0}, ListOf(Int))
		require.NoError(t, err)
		assert.Equal(t, []any{int64(1), int64(2), int64(3)}, v)

		_, err = Cast([]any{"1", "x"}, ListOf(Int))
		var ce *CastError
		require.ErrorAs(t, err, &ce)
		require.Error(t, ce.Err)
		assert.Contains(t, ce.Err.Error(), "element 1")
	})

	t.Run("ListOfKeepsInput", func(t *testing.T) {
		input := []any{"1", "2"}
		_, err := Cast(input, ListOf(Int))
		require.NoError(t, err)
		assert.Equal(t, []any{"1", "2"}, input)
	})
}

// TestLiteral tests literal-restricted types
func TestLiteral(t *testing.T) {
	t.Run("Member", func(t *testing.T) {
		lit := Literal(Int, 1, 2, 3)
		require.NoError(t, lit.Err())

		v, err := Cast(2, lit)
		require.NoError(t, err)
		assert.Equal(t, int64(2), v)

		v, err = Cast("3", lit)
		require.NoError(t, err)
		assert.Equal(t, int64(3), v)
	})

	t.Run("CastSucceedsButNotAllowed", func(t *testing.T) {
		_, err := Cast(4, Literal(Int, 1, 2, 3))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCast))
		assert.True(t, errors.Is(err, ErrNotAllowed))

		var ce *CastError
		require.True(t, errors.As(err, &ce))
		assert.True(t, ce.NotAllowed)
		assert.Equal(t, int64(4), ce.Value)
		assert.Contains(t, err.Error(), "not in allowed set")
	})

	t.Run("NotAllowedWinsOverLaterFailure", func(t *testing.T) {
		_, err := Cast("gpu", Literal(String, "cpu"), Int)
		assert.True(t, errors.Is(err, ErrNotAllowed))
	})

	t.Run("FallsThroughToNextType", func(t *testing.T) {
		v, err := Cast("gpu", Literal(String, "cpu"), String)
		require.NoError(t, err)
		assert.Equal(t, "gpu", v)
	})

	t.Run("NoLiterals", func(t *testing.T) {
		lit := Literal(Int)
		assert.True(t, errors.Is(lit.Err(), ErrConfig))

		_, err := Cast(1, lit)
		assert.True(t, errors.Is(err, ErrConfig))
	})

	t.Run("UnionLiteralKeepsIntegers", func(t *testing.T) {
		lit := Literal(Union(String, Int), 1, "two")
		require.NoError(t, lit.Err())
		assert.Equal(t, []any{int64(1), "two"}, lit.Literals())

		v, err := Cast(1, lit)
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)
	})

	t.Run("UncastableLiteral", func(t *testing.T) {
		assert.True(t, errors.Is(Literal(Int, "one").Err(), ErrConfig))
	})

	t.Run("ZeroType", func(t *testing.T) {
		assert.True(t, errors.Is(Literal(Type{}, 1).Err(), ErrConfig))
	})
}

// TestTypeConstruction tests declaration-time checks and names
func TestTypeConstruction(t *testing.T) {
	child := NewSchema("child").Optional("x", 1, Int).MustBuild()

	t.Run("InvalidDeclarations", func(t *testing.T) {
		assert.True(t, errors.Is(Union().Err(), ErrConfig))
		assert.True(t, errors.Is(Union(Int, NodeType(child)).Err(), ErrConfig))
		assert.True(t, errors.Is(ListOf(NodeType(child)).Err(), ErrConfig))
		assert.True(t, errors.Is(NodeType(nil).Err(), ErrConfig))
		assert.True(t, errors.Is(Type{}.Err(), ErrConfig))
	})

	t.Run("Names", func(t *testing.T) {
		assert.Equal(t, "int", Int.String())
		assert.Equal(t, "int|string", Union(Int, String).String())
		assert.Equal(t, "list[float]", ListOf(Float).String())
		assert.Equal(t, "literal(int: 1, 2)", Literal(Int, 1, 2).String())
		assert.Equal(t, "node(child)", NodeType(child).String())
		assert.Equal(t, "map[string]node(child)", NodeMapType(child).String())
		assert.Equal(t, "list[node(child)]", NodeListType(child).String())
		assert.Equal(t, "net.IP", TypeOf[net.IP]().String())
	})

	t.Run("Is", func(t *testing.T) {
		assert.True(t, Int.Is(int64(1)))
		assert.False(t, Int.Is(1))
		assert.True(t, Union(Int, String).Is("a"))
		assert.True(t, Literal(String, "a").Is("a"))
		assert.False(t, Literal(String, "a").Is("b"))
		assert.True(t, Any.Is(nil))
	})
}

// TestTypeOf tests casting into arbitrary Go types
func TestTypeOf(t *testing.T) {
	type endpoint struct {
		Host    string        `yaml:"host"`
		Port    int           `yaml:"port"`
		Timeout time.Duration `yaml:"timeout"`
	}

	t.Run("Struct", func(t *testing.T) {
		v, err := Cast(MapOf("host", "example.com", "port", "8080", "timeout", "5s"), TypeOf[endpoint]())
		require.NoError(t, err)
		assert.Equal(t, endpoint{Host: "example.com", Port: 8080, Timeout: 5 * time.Second}, v)
	})

	t.Run("Identity", func(t *testing.T) {
		in := endpoint{Host: "h"}
		v, err := Cast(in, TypeOf[endpoint]())
		require.NoError(t, err)
		assert.Equal(t, in, v)
	})

	t.Run("NetIP", func(t *testing.T) {
		v, err := Cast("10.0.0.1", TypeOf[net.IP]())
		require.NoError(t, err)
		assert.True(t, net.ParseIP("10.0.0.1").Equal(v.(net.IP)))

		_, err = Cast("not-an-ip", TypeOf[net.IP]())
		assert.True(t, errors.Is(err, ErrCast))
	})

	t.Run("Nil", func(t *testing.T) {
		_, err := Cast(nil, TypeOf[endpoint]())
		assert.True(t, errors.Is(err, ErrCast))
	})
}
