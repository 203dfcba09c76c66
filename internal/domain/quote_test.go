package domain_test

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"subsonic-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rowKeyPattern = regexp.MustCompile(`^\d+-[0-9a-z]{12}$`)

func TestRowKeyGenerator(t *testing.T) {
	fixed := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	gen := &domain.RowKeyGenerator{Now: func() time.Time { return fixed }}

	t.Run("Should prefix the key with epoch millis", func(t *testing.T) {
		key, ts := gen.Next()
		assert.Equal(t, fixed, ts)
		assert.Regexp(t, rowKeyPattern, key)

		millis, _, ok := strings.Cut(key, "-")
		require.True(t, ok)
		assert.Equal(t, strconv.FormatInt(fixed.UnixMilli(), 10), millis)
	})

	t.Run("Should stay unique within one millisecond", func(t *testing.T) {
		const n = 10000
		seen := make(map[string]struct{}, n)
		for i := 0; i < n; i++ {
			key, _ := gen.Next()
			_, dup := seen[key]
			require.False(t, dup, "duplicate row key %s", key)
			seen[key] = struct{}{}
		}
	})

	t.Run("Should fall back to the wall clock", func(t *testing.T) {
		var g *domain.RowKeyGenerator
		before := time.Now()
		key, ts := g.Next()
		assert.Regexp(t, rowKeyPattern, key)
		assert.False(t, ts.Before(before))
	})
}
