package punch

import (
	"context"
	"time"

	"axiapac.com/punchclock/geo"
	"axiapac.com/punchclock/session"
)

type Type = session.PunchType

const (
	In  = session.PunchIn
	Out = session.PunchOut
)

// Next returns the type the following punch must have.
func Next(last Type) Type {
	if last == In {
		return Out
	}
	return In
}

type State = session.PunchState

type Submission struct {
	RequestID           string
	EmployeeID          string
	TransactionDate     string
	TransactionTime     string
	TransactionType     Type
	IsGeoValidated      bool
	OriginalCoordinates geo.Point
	MatchingCoordinates *geo.Point
}

type Result struct {
	RequestID      string     `json:"requestId"`
	Type           Type       `json:"type"`
	Time           time.Time  `json:"time"`
	IsGeoValidated bool       `json:"isGeoValidated"`
	Original       geo.Point  `json:"originalCoordinates"`
	Matching       *geo.Point `json:"matchingCoordinates,omitempty"`
	OfficeName     string     `json:"officeName,omitempty"`
	Distance       float64    `json:"distance"`
	Message        string     `json:"message"`
}

type TimeSource interface {
	ServerTime(ctx context.Context) (time.Time, error)
}

type Submitter interface {
	SubmitPunch(ctx context.Context, s Submission) (string, error)
}

type LocationSource interface {
	Latest() (geo.Point, bool)
}

// Notifier hears about rejected and failed punches.
type Notifier interface {
	PunchFailed(ctx context.Context, employeeID string, kind string, err error)
}
