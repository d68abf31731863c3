package geo

import (
	"math"
)

const DefaultRadius = 500.0

// Geofence is the set of permitted office positions for one employee.
type Geofence struct {
	Offices            []Point
	Radius             float64
	ValidationRequired bool
}

type Match struct {
	Inside   bool
	Office   *Point
	Distance float64
}

func NewGeofence(offices []Point, radius float64, validationRequired bool) *Geofence {
	if radius <= 0 || math.IsNaN(radius) {
		radius = DefaultRadius
	}
	return &Geofence{
		Offices:            offices,
		Radius:             radius,
		ValidationRequired: validationRequired,
	}
}

// Match checks p against every office. The first office within the radius
// wins; a distance equal to the radius counts as inside.
func (g *Geofence) Match(p Point) Match {
	m := Match{Distance: math.Inf(1)}
	for i := range g.Offices {
		d := Distance(p, g.Offices[i])
		if d < m.Distance {
			m.Distance = d
		}
		if !m.Inside && d <= g.Radius {
			office := g.Offices[i]
			m.Inside = true
			m.Office = &office
		}
	}
	return m
}
