package shredder

import (
	"testing"
	"time"

	"github.com/dball/lazyattrs/internal/structs/models"
	. "github.com/dball/lazyattrs/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestShred(t *testing.T) {
	type person struct {
		Name      string     `attr:"name"`
		Age       int        `attr:"age,omitempty"`
		Pets      *int       `attr:"pets"`
		Score     float32    `attr:"score"`
		Birthdate time.Time  `attr:"birthdate,omitempty"`
		Deathdate *time.Time `attr:"deathdate"`
		Ignored   string
	}
	analyzer := models.BuildCachingAnalyzer(nil)
	epoch := time.Date(1969, 7, 20, 20, 17, 54, 0, time.UTC)

	t.Run("struct", func(t *testing.T) {
		raw, err := Shred(analyzer, person{Name: "Donald", Age: 48, Score: 1.5, Birthdate: epoch, Ignored: "x"})
		assert.NoError(t, err)
		assert.Equal(t, map[string]any{
			"name":      "Donald",
			"age":       int64(48),
			"score":     1.5,
			"birthdate": epoch,
		}, raw)
	})

	t.Run("empty values", func(t *testing.T) {
		raw, err := Shred(analyzer, person{})
		assert.NoError(t, err)
		assert.Equal(t, map[string]any{"name": "", "score": 0.0}, raw)
	})

	t.Run("pointers", func(t *testing.T) {
		four := 4
		raw, err := Shred(analyzer, &person{Name: "Donald", Pets: &four, Deathdate: &epoch})
		assert.NoError(t, err)
		assert.Equal(t, map[string]any{
			"name":      "Donald",
			"pets":      int64(4),
			"score":     0.0,
			"deathdate": epoch,
		}, raw)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Shred(analyzer, 1)
		assert.True(t, HasCode(err, InvalidStruct))
		_, err = Shred(analyzer, (*person)(nil))
		assert.True(t, HasCode(err, InvalidStruct))
		_, err = Shred(analyzer, nil)
		assert.True(t, HasCode(err, InvalidStruct))
	})
}
