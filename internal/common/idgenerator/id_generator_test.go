package idgenerator

import (
	"regexp"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateID(t *testing.T) {
	t.Run("created new id with prefix", func(t *testing.T) {
		id := New().Generate("TRX")
		assert.Regexp(t, regexp.MustCompile(`^TRX-\d{13}[A-Za-z0-9_-]{22}$`), id)
	})

	t.Run("created new id without prefix", func(t *testing.T) {
		id := New().Generate()
		assert.Regexp(t, regexp.MustCompile(`^\d{13}[A-Za-z0-9_-]{22}$`), id)
	})

	t.Run("ids sort by creation time", func(t *testing.T) {
		base := time.UnixMilli(1_700_000_000_000)
		g := &IDGenerator{now: func() time.Time { return base }}
		first := g.Generate()
		g.now = func() time.Time { return base.Add(time.Millisecond) }
		second := g.Generate()

		assert.Less(t, first, second)
	})

	t.Run("ids within one millisecond keep creation order", func(t *testing.T) {
		base := time.UnixMilli(1_700_000_000_000)
		g := &IDGenerator{now: func() time.Time { return base }}

		ids := make([]string, 200)
		for i := range ids {
			ids[i] = g.Generate("TRX")
		}
		assert.True(t, sort.StringsAreSorted(ids))
		for i := 1; i < len(ids); i++ {
			assert.NotEqual(t, ids[i-1][:17], ids[i][:17])
		}
	})

	t.Run("clock going back does not reorder ids", func(t *testing.T) {
		base := time.UnixMilli(1_700_000_000_000)
		g := &IDGenerator{now: func() time.Time { return base }}
		first := g.Generate()
		g.now = func() time.Time { return base.Add(-time.Second) }
		second := g.Generate()

		assert.Less(t, first, second)
	})
}
