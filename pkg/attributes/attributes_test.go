package attributes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Person struct {
	Name  string     `attr:"name"`
	Age   int        `attr:"age,omitempty"`
	Admin *bool      `attr:"admin"`
	Born  time.Time  `attr:"born,omitempty"`
	Score float64    `attr:"score"`
	Died  *time.Time `attr:"died"`
}

func TestStructs(t *testing.T) {
	schema, err := SchemaOf((*Person)(nil))
	require.NoError(t, err)
	builder := NewBuilder(schema, Config{})

	set, err := BuildStruct(builder, Person{Name: "Donald", Age: 48, Score: 2.5})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age", "admin", "born", "score", "died"}, set.Names())
	assert.Equal(t, []string{"name", "age", "score"}, set.Keys())
	score, err := set.FetchValue("score", nil)
	assert.NoError(t, err)
	assert.Equal(t, 2.5, score)

	t.Run("user writes assemble", func(t *testing.T) {
		require.NoError(t, set.WriteFromUser("age", "49"))
		require.NoError(t, set.WriteFromUser("admin", "off"))
		require.NoError(t, set.WriteFromUser("score", "3.25"))
		var p Person
		err := Assemble(set, &p)
		require.NoError(t, err)
		admin := false
		assert.Equal(t, Person{Name: "Donald", Age: 49, Admin: &admin, Score: 3.25}, p)
	})

	t.Run("not a struct", func(t *testing.T) {
		_, err := SchemaOf(nil)
		assert.Error(t, err)
		_, err = BuildStruct(builder, "Donald")
		assert.Error(t, err)
	})
}

func TestWire(t *testing.T) {
	set := NewSet(
		NewFromDatabase("name", "Donald", String{}),
		NewFromUser("age", "42", Integer{}),
		NewUninitialized("born", Time{}),
	)
	for _, format := range []Format{JSON, CBOR} {
		data, err := Marshal(format, set)
		require.NoError(t, err)
		decoded, err := Unmarshal(format, data)
		require.NoError(t, err)
		assert.True(t, set.Equal(decoded))
	}

	doc, err := WireSchema()
	require.NoError(t, err)
	assert.Contains(t, doc["properties"], "entries")
}

type shouting struct{ String }

func (shouting) Ident() string { return "example/shouting" }

func TestRegister(t *testing.T) {
	require.NoError(t, Register(shouting{}))
	assert.True(t, HasCode(Register(shouting{}), "sys.duplicateIdent"))

	set := NewSet(NewFromDatabase("greeting", "hi", shouting{}))
	data, err := Marshal(JSON, set)
	require.NoError(t, err)
	decoded, err := Unmarshal(JSON, data)
	require.NoError(t, err)
	assert.Equal(t, shouting{}, decoded.Get("greeting").Type())
	assert.Equal(t, FromDatabase, decoded.Get("greeting").Origin())
}
