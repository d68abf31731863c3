package utils

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceHelpers(t *testing.T) {
	nums := []int{1, 2, 3, 4}

	assert.Equal(t, []int{2, 4}, Filter(nums, func(n int) bool { return n%2 == 0 }))
	assert.Nil(t, Filter(nums, func(n int) bool { return n > 10 }))
	assert.Equal(t, []string{"1", "2", "3", "4"}, Map(nums, strconv.Itoa))

	found, ok := Find(nums, func(n int) bool { return n > 2 })
	assert.True(t, ok)
	assert.Equal(t, 3, found)
	_, ok = Find(nums, func(n int) bool { return n > 10 })
	assert.False(t, ok)
}

func TestParseISOTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{in: "2025-10-13T09:30:00Z", want: time.Date(2025, 10, 13, 9, 30, 0, 0, time.UTC)},
		{in: "2025-10-13T09:30:00.123Z", want: time.Date(2025, 10, 13, 9, 30, 0, 123000000, time.UTC)},
		{in: "2025-10-13 09:30:00", want: time.Date(2025, 10, 13, 9, 30, 0, 0, time.UTC)},
		{in: "1760347800000", want: time.Date(2025, 10, 13, 9, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseISOTime(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(*got), "got %v", got)
		})
	}

	_, err := ParseISOTime("")
	assert.Error(t, err)
	_, err = ParseISOTime("yesterday")
	assert.Error(t, err)
}

func TestParseDateTimeIn(t *testing.T) {
	got, err := ParseDateTimeIn("2025-10-13", "08:15", BrisbaneTZ)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 10, 12, 22, 15, 0, 0, time.UTC)))

	_, err = ParseDateTimeIn("2025-10-13", "8am", BrisbaneTZ)
	assert.Error(t, err)
}

func TestSameDay(t *testing.T) {
	// 23:30 UTC is already the next day in Brisbane
	a := time.Date(2025, 10, 13, 23, 30, 0, 0, time.UTC)
	b := time.Date(2025, 10, 14, 1, 0, 0, 0, time.UTC)
	assert.True(t, SameDay(a, b, BrisbaneTZ))
	assert.False(t, SameDay(a, b, time.UTC))
}

func TestLoadLocation(t *testing.T) {
	assert.Equal(t, BrisbaneTZ, LoadLocation(""))
	assert.Equal(t, BrisbaneTZ, LoadLocation("Not/AZone"))
}

func TestDeref(t *testing.T) {
	n := 5
	assert.Equal(t, 0, Deref[int](nil))
	assert.Equal(t, 5, Deref(&n))
}

func TestYesNo(t *testing.T) {
	assert.Equal(t, "Y", YesNo(true))
	assert.Equal(t, "N", YesNo(false))

	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{in: "Y", want: true},
		{in: " yes ", want: true},
		{in: "1", want: true},
		{in: "n"},
		{in: ""},
		{in: "maybe", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseYesNo(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
