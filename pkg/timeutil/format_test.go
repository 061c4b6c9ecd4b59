package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatAt(t *testing.T) {
	now := time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC)

	t.Run("zero time renders empty", func(t *testing.T) {
		assert.Equal(t, "", formatAt(time.Time{}, now))
	})

	t.Run("under 24 hours renders clock time", func(t *testing.T) {
		at := now.Add(-2 * time.Hour)
		assert.Equal(t, "1:00 PM", formatAt(at, now))
	})

	t.Run("just under the day boundary still renders clock time", func(t *testing.T) {
		at := now.Add(-24*time.Hour + time.Minute)
		assert.Equal(t, "3:01 PM", formatAt(at, now))
	})

	t.Run("between 24 and 48 hours renders Yesterday", func(t *testing.T) {
		at := now.Add(-30 * time.Hour)
		assert.Equal(t, "Yesterday", formatAt(at, now))
	})

	t.Run("beyond 48 hours renders short date", func(t *testing.T) {
		at := now.Add(-72 * time.Hour)
		assert.Equal(t, "Mar 7", formatAt(at, now))
	})
}
