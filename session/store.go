package session

import (
	"context"
	"strings"
	"time"
)

type PunchType string

const (
	PunchIn  PunchType = "IN"
	PunchOut PunchType = "OUT"
)

// NormalizePunchType maps loose backend spellings onto IN/OUT. Anything else
// becomes empty.
func NormalizePunchType(s string) PunchType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IN", "I", "CHECKIN", "CLOCKIN", "PUNCHIN":
		return PunchIn
	case "OUT", "O", "CHECKOUT", "CLOCKOUT", "PUNCHOUT":
		return PunchOut
	}
	return ""
}

// Transaction is the last punch the backend knows about.
type Transaction struct {
	Type        PunchType `json:"type"`
	Time        time.Time `json:"time"`
	DeviceClass string    `json:"deviceClass,omitempty"`
}

// Profile is the cached subset of the employee profile the punch flow reads.
type Profile struct {
	EmployeeID         string       `json:"employeeId"`
	ValidationRequired bool         `json:"validationRequired"`
	GeoCoordinates     string       `json:"geoCoordinates"`
	Radius             float64      `json:"radius"`
	MinimumPunchGap    int          `json:"minimumPunchGap"`
	LastPunchType      PunchType    `json:"lastPunchType,omitempty"`
	LastTransaction    *Transaction `json:"lastTransaction,omitempty"`
}

type PunchState struct {
	EmployeeID        string    `json:"employeeId"`
	LastPunchType     PunchType `json:"lastPunchType,omitempty"`
	LastPunchTime     time.Time `json:"lastPunchTime"`
	MinimumGapMinutes int       `json:"minimumGapMinutes"`
}

type TimerSnapshot struct {
	IsPunchedIn bool      `json:"isPunchedIn"`
	PunchInTime string    `json:"punchInTime,omitempty"`
	StartTime   time.Time `json:"startTime"`
}

// Consistent reports whether the snapshot can be trusted for reconstruction.
func (s *TimerSnapshot) Consistent() bool {
	if s == nil {
		return false
	}
	return !s.IsPunchedIn || !s.StartTime.IsZero()
}

// Entry is everything cached for one user on this device.
type Entry struct {
	Profile   *Profile       `json:"profile,omitempty"`
	Punch     PunchState     `json:"punch"`
	Timer     *TimerSnapshot `json:"timer,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	c := *e
	if e.Profile != nil {
		p := *e.Profile
		if e.Profile.LastTransaction != nil {
			tx := *e.Profile.LastTransaction
			p.LastTransaction = &tx
		}
		c.Profile = &p
	}
	if e.Timer != nil {
		ts := *e.Timer
		c.Timer = &ts
	}
	return &c
}

// NewEntry seeds a cache entry from a freshly fetched profile.
func NewEntry(p *Profile) *Entry {
	e := &Entry{Profile: p}
	if p == nil {
		return e
	}
	e.Punch = PunchState{
		EmployeeID:        p.EmployeeID,
		LastPunchType:     p.LastPunchType,
		MinimumGapMinutes: p.MinimumPunchGap,
	}
	if tx := p.LastTransaction; tx != nil {
		e.Punch.LastPunchTime = tx.Time
		if e.Punch.LastPunchType == "" {
			e.Punch.LastPunchType = tx.Type
		}
	}
	return e
}

// Store is the per-user cache shared by the validator and the timer.
// Get returns a nil entry and no error when nothing is cached.
type Store interface {
	Get(ctx context.Context, userID string) (*Entry, error)
	Set(ctx context.Context, userID string, entry *Entry) error
	Clear(ctx context.Context, userID string) error
}
