package geo

import (
	"encoding/json"
	"math"
	"strconv"
)

// EarthRadiusKm is the mean earth radius used by Distance.
const EarthRadiusKm = 6371.0

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// JSON encodes the point as a [lat,lng] pair.
func (p Point) JSON() string {
	return "[" + formatCoord(p.Lat) + "," + formatCoord(p.Lng) + "]"
}

// PointJSON encodes an optional point, "[]" when absent.
func PointJSON(p *Point) string {
	if p == nil {
		return "[]"
	}
	return p.JSON()
}

func (p Point) MarshalJSON() ([]byte, error) {
	return []byte(p.JSON()), nil
}

func (p *Point) UnmarshalJSON(b []byte) error {
	var pair []float64
	if err := json.Unmarshal(b, &pair); err == nil {
		if len(pair) != 2 {
			return ErrMalformedCoordinates
		}
		p.Lat, p.Lng = pair[0], pair[1]
		return nil
	}

	// also accept the object form
	var obj struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return ErrMalformedCoordinates
	}
	p.Lat, p.Lng = obj.Lat, obj.Lng
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance returns the haversine great-circle distance between a and b in metres.
func Distance(a, b Point) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c * 1000
}
