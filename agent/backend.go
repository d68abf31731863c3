package agent

import (
	"context"
	"math"
	"time"

	v1 "axiapac.com/punchclock/api/v1"
	"axiapac.com/punchclock/geo"
	"axiapac.com/punchclock/punch"
	"axiapac.com/punchclock/session"
)

// Backend is what the agent needs from the HR backend for one signed-in user.
type Backend interface {
	ServerTime(ctx context.Context) (time.Time, error)
	SubmitPunch(ctx context.Context, s punch.Submission) (string, error)
	Profile(ctx context.Context, employeeID string) (*session.Profile, error)
}

type BackendFactory func(token string) Backend

// RemoteBackend talks to the backend REST API.
type RemoteBackend struct {
	client *v1.Client
	loc    *time.Location
}

func NewRemoteBackend(client *v1.Client, loc *time.Location) *RemoteBackend {
	return &RemoteBackend{client: client, loc: loc}
}

// RemoteBackends builds a RemoteBackend per bearer token.
func RemoteBackends(baseURL string, loc *time.Location) BackendFactory {
	return func(token string) Backend {
		return NewRemoteBackend(v1.NewClient(baseURL, token), loc)
	}
}

func (b *RemoteBackend) ServerTime(ctx context.Context) (time.Time, error) {
	dto, err := b.client.Time.Current(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return dto.Time(b.loc)
}

func (b *RemoteBackend) SubmitPunch(ctx context.Context, s punch.Submission) (string, error) {
	ctx = v1.WithRequestID(ctx, s.RequestID)
	res, err := b.client.Punches.Submit(ctx, &v1.PunchDTO{
		EmployeeNumber:      s.EmployeeID,
		TransactionDate:     s.TransactionDate,
		TransactionTime:     s.TransactionTime,
		TransactionType:     string(s.TransactionType),
		IsGeoValidated:      s.IsGeoValidated,
		OriginalCoordinates: s.OriginalCoordinates.JSON(),
		MatchingCoordinates: geo.PointJSON(s.MatchingCoordinates),
	})
	if err != nil {
		return "", err
	}
	if res.Data != nil && res.Data.Message != "" {
		return res.Data.Message, nil
	}
	return res.Message, nil
}

func (b *RemoteBackend) Profile(ctx context.Context, employeeID string) (*session.Profile, error) {
	dto, err := b.client.Profiles.Get(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	p := &session.Profile{
		EmployeeID:         dto.EmployeeNumber,
		ValidationRequired: bool(dto.ToBeValidated),
		GeoCoordinates:     string(dto.GeoCoordinates),
		Radius:             float64(dto.Radius),
		MinimumPunchGap:    gapMinutes(float64(dto.MinimumPunchGap)),
		LastPunchType:      session.NormalizePunchType(dto.LastPunchType),
	}
	if tx := dto.LastTransaction; tx != nil {
		when, err := tx.When(b.loc)
		if err == nil {
			p.LastTransaction = &session.Transaction{
				Type:        session.NormalizePunchType(tx.TransactionType),
				Time:        when,
				DeviceClass: tx.DeviceClass,
			}
		}
	}
	return p, nil
}

// gapMinutes rounds a fractional gap up so the policy never gets looser.
func gapMinutes(v float64) int {
	if v <= 0 {
		return 0
	}
	return int(math.Ceil(v))
}
