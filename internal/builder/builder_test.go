package builder

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/dball/lazyattrs/internal/attribute"
	"github.com/dball/lazyattrs/internal/metrics"
	"github.com/dball/lazyattrs/internal/typecast"
	. "github.com/dball/lazyattrs/internal/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fetch unwraps a value read, failing the test on a cast error.
func fetch(t *testing.T) func(value any, err error) any {
	t.Helper()
	return func(value any, err error) any {
		t.Helper()
		require.NoError(t, err)
		return value
	}
}

func TestBuild(t *testing.T) {
	builder := New(NewFinite(Field{Name: "foo", Type: typecast.Integer{}}, Field{Name: "bar", Type: typecast.Float{}}), Config{})

	t.Run("from raw attributes", func(t *testing.T) {
		set := builder.Build(map[string]any{"foo": "1.1", "bar": "2.2"}, nil)
		assert.Equal(t, int64(1), fetch(t)(set.Get("foo").Value()))
		assert.Equal(t, 2.2, fetch(t)(set.Get("bar").Value()))
		assert.Equal(t, "foo", set.Get("foo").Name())
		assert.Equal(t, attribute.FromDatabase, set.Get("bar").Origin())
	})

	t.Run("in schema order", func(t *testing.T) {
		set := builder.Build(map[string]any{"bar": "3.3", "foo": "2.2"}, nil)
		assert.Equal(t, []string{"foo", "bar"}, set.Keys())
	})

	t.Run("with uninitialized names", func(t *testing.T) {
		set := builder.Build(map[string]any{"foo": "1.1"}, nil)
		assert.Equal(t, []string{"foo", "bar"}, set.Names())
		assert.Equal(t, []string{"foo"}, set.Keys())
		assert.False(t, set.Get("bar").Initialized())
		assert.Equal(t, typecast.Float{}, set.Get("bar").Type())
	})

	t.Run("drops names not in the schema", func(t *testing.T) {
		set := builder.Build(map[string]any{"foo": "1", "baz": "2"}, nil)
		assert.Equal(t, []string{"foo", "bar"}, set.Names())
		assert.Nil(t, set.Get("baz").ValueBeforeTypeCast())
	})

	t.Run("with custom types", func(t *testing.T) {
		floats := New(NewFinite(Field{Name: "foo", Type: typecast.Float{}}), Config{})
		set := floats.Build(map[string]any{"foo": "3.3", "bar": "4.4"}, map[string]Type{"bar": typecast.Integer{}})
		assert.Equal(t, 3.3, fetch(t)(set.Get("foo").Value()))
		assert.Equal(t, int64(4), fetch(t)(set.Get("bar").Value()))
		assert.Equal(t, []string{"foo", "bar"}, set.Names())

		set = floats.Build(map[string]any{"foo": "3.3"}, map[string]Type{"foo": typecast.Integer{}})
		assert.Equal(t, int64(3), fetch(t)(set.Get("foo").Value()))
	})

	t.Run("with no raw data", func(t *testing.T) {
		set := builder.Build(nil, nil)
		assert.Equal(t, 2, set.Len())
		assert.Equal(t, []string{}, set.Keys())
	})

	t.Run("builds equal sets from equal data", func(t *testing.T) {
		a := builder.Build(map[string]any{"foo": "1", "bar": "2"}, nil)
		b := builder.Build(map[string]any{"foo": "1", "bar": "2"}, nil)
		c := builder.Build(map[string]any{"foo": "2", "bar": "2"}, nil)
		assert.True(t, a.Equal(b))
		assert.False(t, a.Equal(c))
	})
}

func TestDefaults(t *testing.T) {
	t.Run("the primary key is always initialized", func(t *testing.T) {
		builder := New(NewFinite(Field{Name: "foo", Type: typecast.Integer{}}), Config{
			Defaults: map[string]*attribute.Attribute{"foo": attribute.NewFromDatabase("foo", nil, nil)},
		})
		set := builder.Build(nil, nil)
		assert.True(t, set.HasKey("foo"))
		assert.Equal(t, []string{"foo"}, set.Keys())
		assert.True(t, set.Get("foo").Initialized())

		set = builder.Build(map[string]any{"foo": "7"}, nil)
		assert.Equal(t, int64(7), fetch(t)(set.FetchValue("foo", nil)))
	})

	t.Run("each set gets its own copy", func(t *testing.T) {
		type box struct{ S string }
		builder := New(NewFinite(Field{Name: "id", Type: typecast.Value{}}), Config{
			Defaults: map[string]*attribute.Attribute{"id": attribute.NewFromDatabase("key", &box{S: "x"}, typecast.Value{})},
		})
		one := builder.Build(nil, nil)
		two := builder.Build(nil, nil)
		fetch(t)(one.FetchValue("id", nil)).(*box).S += "!"

		assert.Equal(t, "x!", fetch(t)(one.FetchValue("id", nil)).(*box).S)
		assert.Equal(t, "x", fetch(t)(two.FetchValue("id", nil)).(*box).S)
		assert.Equal(t, []string{"id"}, one.Names())
		assert.Equal(t, "id", one.Get("id").Name())
	})

	t.Run("type defaults", func(t *testing.T) {
		builder := New(NewFinite(Field{Name: "foo", Type: typecast.String{}}), Config{UseTypeDefaults: true})
		set := builder.Build(nil, nil)
		assert.True(t, set.Get("foo").CameFromUser())
		assert.Nil(t, fetch(t)(set.FetchValue("foo", nil)))
	})
}

func TestUnbounded(t *testing.T) {
	builder := New(NewUnbounded(typecast.Value{}), Config{})

	t.Run("has no names without raw data", func(t *testing.T) {
		set := builder.Build(nil, nil)
		assert.Equal(t, 0, set.Len())
		called := false
		value, err := set.FetchValue("wibble", func(string) any {
			called = true
			return "hello"
		})
		assert.NoError(t, err)
		assert.Nil(t, value)
		assert.False(t, called)
	})

	t.Run("adds raw names in sorted order", func(t *testing.T) {
		set := builder.Build(map[string]any{"zed": 1, "alpha": "a"}, nil)
		assert.Equal(t, []string{"alpha", "zed"}, set.Keys())
		assert.Equal(t, typecast.Value{}, set.Get("zed").Type())
	})

	t.Run("declared names come first", func(t *testing.T) {
		declared := New(NewUnbounded(typecast.Value{}, Field{Name: "id", Type: typecast.Integer{}}), Config{})
		set := declared.Build(map[string]any{"name": "x", "id": "3"}, nil)
		assert.Equal(t, []string{"id", "name"}, set.Keys())
		assert.Equal(t, int64(3), fetch(t)(set.FetchValue("id", nil)))

		typ, ok := declared.Schema().Lookup("anything")
		assert.True(t, ok)
		assert.Equal(t, typecast.Value{}, typ)
	})
}

func TestFinite(t *testing.T) {
	schema := NewFinite(
		Field{Name: "a", Type: typecast.Integer{}},
		Field{Name: "b", Type: typecast.Integer{}},
		Field{Name: "a", Type: typecast.String{}},
	)
	assert.Equal(t, []Field{{Name: "a", Type: typecast.String{}}, {Name: "b", Type: typecast.Integer{}}}, schema.Declared())
	_, ok := schema.Lookup("c")
	assert.False(t, ok)
}

func TestObservability(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	collector, err := metrics.NewCollector(nil)
	require.NoError(t, err)

	builder := New(NewFinite(Field{Name: "foo", Type: typecast.Integer{}}), Config{Logger: logger, Metrics: collector})
	set := builder.Build(map[string]any{"foo": "5"}, nil)
	assert.Contains(t, out.String(), "built attribute set")
	assert.Contains(t, out.String(), "fields=1")

	for i := 0; i < 2; i++ {
		assert.Equal(t, int64(5), fetch(t)(set.FetchValue("foo", nil)))
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Casts(typecast.IntegerIdent, metrics.SourceDatabase)))
}

func TestMetricsKeepEquality(t *testing.T) {
	collector, err := metrics.NewCollector(nil)
	require.NoError(t, err)
	schema := NewFinite(Field{Name: "foo", Type: typecast.Integer{}}, Field{Name: "bar", Type: typecast.String{}})
	counted := New(schema, Config{Metrics: collector}).Build(map[string]any{"foo": "5", "bar": "x"}, nil)
	plain := New(schema, Config{}).Build(map[string]any{"foo": "5", "bar": "x"}, nil)

	assert.NotEqual(t, typecast.Integer{}, counted.Get("foo").Type())
	assert.True(t, SameType(typecast.Integer{}, counted.Get("foo").Type()))
	assert.True(t, counted.Equal(plain))
	assert.True(t, plain.Equal(counted))
	assert.False(t, counted.Equal(New(schema, Config{}).Build(map[string]any{"foo": "6", "bar": "x"}, nil)))
}
