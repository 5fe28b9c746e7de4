package database

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/dball/lazyattrs/internal/attribute"
	"github.com/dball/lazyattrs/internal/attrset"
	"github.com/dball/lazyattrs/internal/codec"
	"github.com/dball/lazyattrs/internal/typecast"
	. "github.com/dball/lazyattrs/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type anonymous struct{}

func (anonymous) CastFromUser(raw any) (any, error)     { return raw, nil }
func (anonymous) CastFromDatabase(raw any) (any, error) { return raw, nil }
func (anonymous) Serialize(value any) (any, error)      { return value, nil }
func (anonymous) Default() any                          { return nil }

func open(t *testing.T, config Config) *Database {
	t.Helper()
	if config.Path == "" {
		config.Path = filepath.Join(t.TempDir(), "nested", "sets.db")
	}
	db, err := Open(context.Background(), config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func person() *attrset.Set {
	return attrset.Of(0,
		attribute.NewFromDatabase("name", "Donald", typecast.String{}),
		attribute.NewFromUser("age", "42", typecast.Integer{}),
		attribute.NewUninitialized("admin", typecast.Boolean{}),
	)
}

func TestDatabase(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	db := open(t, Config{Logger: slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))})

	set := person()
	id, err := db.Write(ctx, "", set)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Contains(t, logs.String(), "wrote attribute set")

	t.Run("read restores the set", func(t *testing.T) {
		read, err := db.Read(ctx, id)
		require.NoError(t, err)
		assert.True(t, set.Equal(read))
		assert.Empty(t, read.Accessed())
		age, err := read.FetchValue("age", nil)
		assert.NoError(t, err)
		assert.Equal(t, int64(42), age)
		assert.Equal(t, []string{"age"}, read.Accessed())
	})

	t.Run("write replaces", func(t *testing.T) {
		require.NoError(t, set.WriteFromUser("name", "Daisy"))
		again, err := db.Write(ctx, id, set)
		require.NoError(t, err)
		assert.Equal(t, id, again)
		read, err := db.Read(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Daisy", read.Get("name").ValueBeforeTypeCast())
	})

	t.Run("ids", func(t *testing.T) {
		_, err := db.Write(ctx, "a", person())
		require.NoError(t, err)
		ids, err := db.IDs(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", id}, ids)
	})

	t.Run("delete", func(t *testing.T) {
		deleted, err := db.Delete(ctx, "a")
		assert.NoError(t, err)
		assert.True(t, deleted)
		deleted, err = db.Delete(ctx, "a")
		assert.NoError(t, err)
		assert.False(t, deleted)
		_, err = db.Read(ctx, "a")
		assert.True(t, HasCode(err, NotFound))
	})

	t.Run("unnamed types are not stored", func(t *testing.T) {
		_, err := db.Write(ctx, "b", attrset.Of(0, attribute.NewFromDatabase("x", 1, anonymous{})))
		assert.True(t, HasCode(err, UnnamedType))
		_, err = db.Read(ctx, "b")
		assert.True(t, HasCode(err, NotFound))
	})
}

func TestFormats(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sets.db")
	db := open(t, Config{Path: path, Format: codec.CBOR})
	_, err := db.Write(ctx, "cbor", person())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db = open(t, Config{Path: path})
	_, err = db.Write(ctx, "json", person())
	require.NoError(t, err)
	for _, id := range []string{"cbor", "json"} {
		read, err := db.Read(ctx, id)
		require.NoError(t, err, id)
		assert.True(t, person().Equal(read), id)
	}
}

func TestDegree(t *testing.T) {
	ctx := context.Background()
	db := open(t, Config{Degree: 5})
	id, err := db.Write(ctx, "", person())
	require.NoError(t, err)
	read, err := db.Read(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, read.Degree())
	assert.True(t, person().Equal(read))
}
