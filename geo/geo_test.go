package geo

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var office = Point{Lat: 25.0, Lng: 55.0}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		to   Point
		min  float64
		max  float64
	}{
		{name: "Same point", to: office, min: 0, max: 0},
		{name: "About 55m north", to: Point{Lat: 25.0005, Lng: 55.0}, min: 55, max: 56},
		{name: "About 1.1km north", to: Point{Lat: 25.01, Lng: 55.0}, min: 1110, max: 1113},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Distance(office, tt.to)
			assert.GreaterOrEqual(t, d, tt.min)
			assert.LessOrEqual(t, d, tt.max)
			assert.InDelta(t, d, Distance(tt.to, office), 1e-9)
		})
	}
}

func TestGeofenceMatch(t *testing.T) {
	fence := NewGeofence([]Point{office}, 500, true)

	t.Run("Inside", func(t *testing.T) {
		m := fence.Match(Point{Lat: 25.0005, Lng: 55.0})
		assert.True(t, m.Inside)
		require.NotNil(t, m.Office)
		assert.Equal(t, "[25,55]", m.Office.JSON())
	})

	t.Run("Outside", func(t *testing.T) {
		m := fence.Match(Point{Lat: 25.01, Lng: 55.0})
		assert.False(t, m.Inside)
		assert.Nil(t, m.Office)
		assert.Greater(t, m.Distance, 1000.0)
	})

	t.Run("Exactly at radius is inside", func(t *testing.T) {
		p := Point{Lat: 25.003, Lng: 55.002}
		d := Distance(p, office)

		assert.True(t, NewGeofence([]Point{office}, d, true).Match(p).Inside)
		assert.False(t, NewGeofence([]Point{office}, d-0.001, true).Match(p).Inside)
	})

	t.Run("First matching office wins", func(t *testing.T) {
		second := Point{Lat: 25.0004, Lng: 55.0}
		f := NewGeofence([]Point{office, second}, 500, true)
		m := f.Match(Point{Lat: 25.0004, Lng: 55.0})
		require.NotNil(t, m.Office)
		assert.Equal(t, office, *m.Office)
		assert.InDelta(t, 0, m.Distance, 1e-6)
	})

	t.Run("Default radius", func(t *testing.T) {
		assert.Equal(t, DefaultRadius, NewGeofence(nil, 0, true).Radius)
		assert.Equal(t, DefaultRadius, NewGeofence(nil, -3, true).Radius)
	})
}

func TestParseCoordinates(t *testing.T) {
	t.Run("Plain", func(t *testing.T) {
		points, err := ParseCoordinates(`[[25.0,55.0],[24.5,54.25]]`)
		require.NoError(t, err)
		assert.Equal(t, []Point{{25, 55}, {24.5, 54.25}}, points)
	})

	t.Run("Non-breaking space artifacts", func(t *testing.T) {
		raw := "[[25.0, 55.0],&nbsp;[24.5, 54.25]] "
		points, err := ParseCoordinates(raw)
		require.NoError(t, err)
		assert.Len(t, points, 2)
	})

	t.Run("Blank", func(t *testing.T) {
		points, err := ParseCoordinates("   ")
		require.NoError(t, err)
		assert.Empty(t, points)
	})

	t.Run("Malformed", func(t *testing.T) {
		for _, raw := range []string{`[[25.0]]`, `[25.0,55.0]`, `not json`, `[[95,10]]`} {
			_, err := ParseCoordinates(raw)
			assert.ErrorIs(t, err, ErrMalformedCoordinates, raw)
		}
	})
}

func TestPointJSON(t *testing.T) {
	assert.Equal(t, "[]", PointJSON(nil))
	assert.Equal(t, "[25.0005,55]", Point{Lat: 25.0005, Lng: 55}.JSON())

	var p Point
	require.NoError(t, p.UnmarshalJSON([]byte(`{"lat":1.5,"lng":2.5}`)))
	assert.Equal(t, Point{Lat: 1.5, Lng: 2.5}, p)
}

func TestLoadOfficesCSV(t *testing.T) {
	csvData := `name,lat,lng
Head Office,25.0,55.0
Depot, -27.47 ,153.02
`
	offices, err := LoadOfficesCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, offices, 2)
	assert.Equal(t, "Depot", offices[1].Name)
	assert.Equal(t, Point{Lat: -27.47, Lng: 153.02}, offices[1].Position)

	_, err = LoadOfficesCSV(strings.NewReader("name,lat,lng\nBad,abc,1\n"))
	assert.Error(t, err)
}

func TestWatcher(t *testing.T) {
	w := NewWatcher(0)

	var flips []bool
	w.OnChange(func(outside bool, m Match) { flips = append(flips, outside) })

	_, ok := w.Latest()
	assert.False(t, ok)

	w.SetFence(NewGeofence([]Point{office}, 500, true))
	w.Update(Point{Lat: 25.01, Lng: 55.0})
	assert.True(t, w.Outside())

	w.Update(Point{Lat: 25.0005, Lng: 55.0})
	assert.False(t, w.Outside())

	// fences that do not require validation never warn
	w.SetFence(NewGeofence([]Point{office}, 500, false))
	w.Update(Point{Lat: 25.01, Lng: 55.0})
	assert.False(t, w.Outside())

	assert.Equal(t, []bool{true, false}, flips)

	p, ok := w.Latest()
	assert.True(t, ok)
	assert.Equal(t, Point{Lat: 25.01, Lng: 55.0}, p)
}

func TestWatcherMaxAge(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	w := NewWatcher(time.Minute)
	w.now = func() time.Time { return now }

	w.Update(office)
	_, ok := w.Latest()
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = w.Latest()
	assert.False(t, ok)
}

func TestWatcherRun(t *testing.T) {
	w := NewWatcher(0)
	positions := make(chan Point, 2)
	positions <- Point{Lat: 1, Lng: 1}
	positions <- Point{Lat: 2, Lng: 2}
	close(positions)

	w.Run(context.Background(), positions)

	p, ok := w.Latest()
	require.True(t, ok)
	assert.Equal(t, Point{Lat: 2, Lng: 2}, p)
}
