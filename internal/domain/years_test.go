package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYearRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		want       []YearBucket
	}{
		{"single year", 2000, 2000, []YearBucket{2000}},
		{"two years", 2000, 2001, []YearBucket{2000, 2001}},
		{"niamey example", 2000, 2023, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := YearRange(tt.start, tt.end)
			require.NoError(t, err)
			require.Len(t, got, tt.end-tt.start+1)
			if tt.want != nil {
				assert.Equal(t, tt.want, got)
			}
			for i := 1; i < len(got); i++ {
				assert.Equal(t, got[i-1]+1, got[i], "buckets must increase by one")
			}
			assert.Equal(t, YearBucket(tt.start), got[0])
			assert.Equal(t, YearBucket(tt.end), got[len(got)-1])
		})
	}
}

func TestYearRange_Inverted(t *testing.T) {
	_, err := YearRange(2001, 2000)
	require.ErrorIs(t, err, ErrInvertedRange)
}

func TestYearRange_Limits(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
	}{
		{"below minimum", MinYear - 1, 2000},
		{"above maximum", 2000, MaxYear + 1},
		{"full int range", math.MinInt, math.MaxInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := YearRange(tt.start, tt.end)
			require.ErrorIs(t, err, ErrInvalidRequest)
			assert.Nil(t, got)
		})
	}

	got, err := YearRange(MinYear, MinYear)
	require.NoError(t, err)
	assert.Equal(t, []YearBucket{MinYear}, got)

	got, err = YearRange(1850, 1900)
	require.NoError(t, err)
	assert.Len(t, got, 51)
}

func TestYearBucket_Bounds(t *testing.T) {
	y := YearBucket(2000)
	assert.Equal(t, time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC), y.Start())
	assert.Equal(t, time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC), y.End())

	assert.True(t, y.Contains(time.Date(2000, time.December, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, y.Contains(y.End()))
	assert.False(t, y.Contains(time.Date(1999, time.December, 31, 12, 0, 0, 0, time.UTC)))
}
