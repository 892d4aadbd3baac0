package contextutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	in := time.Date(2025, 3, 14, 15, 9, 26, 535, time.FixedZone("CET", 3600))
	got := NormalizeDate(in)

	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestNormalizeDate_MidnightBoundary(t *testing.T) {
	// 00:30 CET on the 15th is 23:30 UTC on the 14th; the UTC day wins.
	in := time.Date(2025, 3, 15, 0, 30, 0, 0, time.FixedZone("CET", 3600))
	got := NormalizeDate(in)
	assert.Equal(t, 14, got.Day())
}

func TestDaysBetween(t *testing.T) {
	day0 := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{"same day", day0, day0, 0},
		{"same day different hours", day0.Add(2 * time.Hour), day0.Add(20 * time.Hour), 0},
		{"next day", day0, day0.AddDate(0, 0, 1), 1},
		{"eight days", day0, day0.AddDate(0, 0, 8), 8},
		{"backwards", day0.AddDate(0, 0, 3), day0, -3},
		{"across month boundary", time.Date(2025, 2, 27, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.a, tt.b))
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("14/03/2025")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date format")
}

func TestParseDate_EmptyMeansToday(t *testing.T) {
	d, err := ParseDate("")
	require.NoError(t, err)
	assert.Equal(t, NormalizeDate(time.Now()), d)
}
