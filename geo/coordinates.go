package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"axiapac.com/punchclock/utils"
)

var ErrMalformedCoordinates = errors.New("malformed coordinates")

var nbspReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"\u00a0", " ",
	"\u202f", " ",
	"\u2007", " ",
	"\ufeff", "",
)

// SanitizeCoordinates strips the non-breaking space artifacts that profile
// editors leave in the stored coordinate list.
func SanitizeCoordinates(raw string) string {
	return strings.TrimSpace(nbspReplacer.Replace(raw))
}

// ParseCoordinates parses a JSON array of [lat,lng] pairs.
func ParseCoordinates(raw string) ([]Point, error) {
	clean := SanitizeCoordinates(raw)
	if clean == "" {
		return []Point{}, nil
	}

	var pairs [][]float64
	if err := json.Unmarshal([]byte(clean), &pairs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCoordinates, err)
	}

	points := make([]Point, 0, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: entry %d has %d values", ErrMalformedCoordinates, i, len(pair))
		}
		p := Point{Lat: pair[0], Lng: pair[1]}
		if !p.Valid() {
			return nil, fmt.Errorf("%w: entry %d out of range", ErrMalformedCoordinates, i)
		}
		points = append(points, p)
	}
	return points, nil
}

type Office struct {
	Name     string
	Position Point
}

// LoadOfficesCSV reads an office registry with a name,lat,lng header.
func LoadOfficesCSV(r io.Reader) ([]Office, error) {
	rows, err := utils.ParseCSV(r)
	if err != nil {
		return nil, err
	}

	var offices []Office
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("row %d: expected 3 columns, got %d", i, len(row))
		}

		lat, err := strconv.ParseFloat(SanitizeCoordinates(row[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid latitude: %w", i, err)
		}
		lng, err := strconv.ParseFloat(SanitizeCoordinates(row[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid longitude: %w", i, err)
		}

		p := Point{Lat: lat, Lng: lng}
		if !p.Valid() {
			return nil, fmt.Errorf("row %d: %w", i, ErrMalformedCoordinates)
		}
		offices = append(offices, Office{Name: strings.TrimSpace(row[0]), Position: p})
	}
	return offices, nil
}
