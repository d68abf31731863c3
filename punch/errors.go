package punch

import (
	"errors"
	"fmt"

	"axiapac.com/punchclock/geo"
)

var (
	ErrPunchInProgress     = errors.New("a punch is already being submitted")
	ErrProfileMissing      = errors.New("user profile is not loaded")
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrNoCoordinates       = errors.New("no coordinates configured")
	ErrOutsideGeofence     = errors.New("outside geofenced area")
)

const (
	KindSensor        = "sensor"
	KindConfiguration = "configuration"
	KindPolicy        = "policy"
	KindNetwork       = "network"
	KindConflict      = "conflict"
	KindUnexpected    = "unexpected"
)

// GapError rejects a punch made before the minimum gap has elapsed.
type GapError struct {
	RequiredMinutes int
	ElapsedMinutes  float64
}

func (e *GapError) Error() string {
	return fmt.Sprintf("minimum gap of %d minutes required", e.RequiredMinutes)
}

// NetworkError wraps a failed backend call. Op is "time" or "submit".
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	switch e.Op {
	case "time":
		return fmt.Sprintf("unable to fetch server time: %v", e.Err)
	case "submit":
		return fmt.Sprintf("unable to submit punch: %v", e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Kind maps a punch error to its recovery class.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrPunchInProgress):
		return KindConflict
	case errors.Is(err, ErrLocationUnavailable):
		return KindSensor
	case errors.Is(err, ErrProfileMissing),
		errors.Is(err, ErrNoCoordinates),
		errors.Is(err, geo.ErrMalformedCoordinates):
		return KindConfiguration
	case errors.Is(err, ErrOutsideGeofence):
		return KindPolicy
	}

	var gapErr *GapError
	if errors.As(err, &gapErr) {
		return KindPolicy
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	return KindUnexpected
}
