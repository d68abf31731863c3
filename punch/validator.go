package punch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"axiapac.com/punchclock/geo"
	"axiapac.com/punchclock/logging"
	"axiapac.com/punchclock/session"
	"axiapac.com/punchclock/utils"
)

const DefaultDeviceClass = "WEB"

type Options struct {
	// Location is the display timezone the transaction date and time are
	// written in.
	Location    *time.Location
	DeviceClass string
	// Offices labels matched coordinates with a registry name.
	Offices  []geo.Office
	Notifier Notifier
	Logger   *slog.Logger
}

type Validator struct {
	store     session.Store
	clock     TimeSource
	submitter Submitter
	location  LocationSource
	opts      Options

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewValidator(store session.Store, clock TimeSource, submitter Submitter, location LocationSource, opts Options) *Validator {
	if opts.Location == nil {
		opts.Location = utils.BrisbaneTZ
	}
	if opts.DeviceClass == "" {
		opts.DeviceClass = DefaultDeviceClass
	}
	return &Validator{
		store:     store,
		clock:     clock,
		submitter: submitter,
		location:  location,
		opts:      opts,
		inflight:  make(map[string]struct{}),
	}
}

// Fence builds the geofence described by a cached profile.
func Fence(p *session.Profile) (*geo.Geofence, error) {
	if p == nil {
		return nil, ErrProfileMissing
	}
	offices, err := geo.ParseCoordinates(p.GeoCoordinates)
	if err != nil {
		return nil, err
	}
	return geo.NewGeofence(offices, p.Radius, p.ValidationRequired), nil
}

// Punch validates and submits the next punch for employeeID. The cached
// state is only written after the backend accepts the punch.
func (v *Validator) Punch(ctx context.Context, employeeID string) (*Result, error) {
	return v.PunchUsing(ctx, employeeID, v.clock, v.submitter)
}

// PunchUsing is Punch against the given time source and submitter, so that a
// punch stays on the backend of the user who started it.
func (v *Validator) PunchUsing(ctx context.Context, employeeID string, clock TimeSource, submitter Submitter) (*Result, error) {
	log := logging.Service(ctx, v.opts.Logger, "punch", "submit", "employee", employeeID)

	if !v.acquire(employeeID) {
		log.Warn("punch rejected", "kind", KindConflict)
		return nil, ErrPunchInProgress
	}
	defer v.release(employeeID)

	result, err := v.punch(ctx, employeeID, clock, submitter)
	if err != nil {
		kind := Kind(err)
		log.Warn("punch rejected", "kind", kind, "error", err)
		if v.opts.Notifier != nil && (kind == KindPolicy || kind == KindNetwork) {
			v.opts.Notifier.PunchFailed(ctx, employeeID, kind, err)
		}
		return nil, err
	}

	log.Info("punch recorded",
		"type", result.Type,
		"request_id", result.RequestID,
		"geo_validated", result.IsGeoValidated,
		"distance", result.Distance,
	)
	return result, nil
}

func (v *Validator) punch(ctx context.Context, employeeID string, clock TimeSource, submitter Submitter) (*Result, error) {
	entry, err := v.store.Get(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("load cached profile: %w", err)
	}
	if entry == nil || entry.Profile == nil {
		return nil, ErrProfileMissing
	}
	profile := entry.Profile

	position, ok := v.location.Latest()
	if !ok {
		return nil, ErrLocationUnavailable
	}

	result := &Result{Original: position}
	if profile.ValidationRequired {
		fence, err := Fence(profile)
		if err != nil {
			return nil, err
		}
		if len(fence.Offices) == 0 {
			return nil, ErrNoCoordinates
		}
		m := fence.Match(position)
		result.Distance = m.Distance
		if !m.Inside {
			return nil, fmt.Errorf("%w: nearest office is %.0f m away", ErrOutsideGeofence, m.Distance)
		}
		result.IsGeoValidated = true
		result.Matching = m.Office
		result.OfficeName = v.officeName(*m.Office)
	}

	serverTime, err := clock.ServerTime(ctx)
	if err != nil {
		return nil, &NetworkError{Op: "time", Err: err}
	}

	state := entry.Punch
	if state.MinimumGapMinutes == 0 {
		state.MinimumGapMinutes = profile.MinimumPunchGap
	}
	if state.LastPunchType == "" {
		state.LastPunchType = profile.LastPunchType
	}
	if !state.LastPunchTime.IsZero() {
		diff := serverTime.Sub(state.LastPunchTime).Minutes()
		if diff < float64(state.MinimumGapMinutes) {
			return nil, &GapError{RequiredMinutes: state.MinimumGapMinutes, ElapsedMinutes: diff}
		}
	}

	local := serverTime.In(v.opts.Location)
	sub := Submission{
		RequestID:           uuid.NewString(),
		EmployeeID:          employeeID,
		TransactionDate:     local.Format(utils.DateLayout),
		TransactionTime:     local.Format(utils.TimeLayout),
		TransactionType:     Next(state.LastPunchType),
		IsGeoValidated:      result.IsGeoValidated,
		OriginalCoordinates: position,
		MatchingCoordinates: result.Matching,
	}

	message, err := submitter.SubmitPunch(ctx, sub)
	if err != nil {
		return nil, &NetworkError{Op: "submit", Err: err}
	}
	if message == "" {
		message = fmt.Sprintf("Punch %s recorded at %s", sub.TransactionType, sub.TransactionTime)
	}

	entry.Punch = State{
		EmployeeID:        employeeID,
		LastPunchType:     sub.TransactionType,
		LastPunchTime:     serverTime,
		MinimumGapMinutes: state.MinimumGapMinutes,
	}
	profile.LastPunchType = sub.TransactionType
	if profile.LastTransaction != nil {
		profile.LastTransaction = &session.Transaction{
			Type:        sub.TransactionType,
			Time:        serverTime,
			DeviceClass: v.opts.DeviceClass,
		}
	}
	entry.UpdatedAt = serverTime
	if err := v.store.Set(ctx, employeeID, entry); err != nil {
		// backend already holds the punch
		logging.Service(ctx, v.opts.Logger, "punch", "cache").
			Error("failed to update cached punch state", "employee", employeeID, "error", err)
	}

	result.RequestID = sub.RequestID
	result.Type = sub.TransactionType
	result.Time = serverTime
	result.Message = message
	return result, nil
}

func (v *Validator) officeName(p geo.Point) string {
	office, ok := utils.Find(v.opts.Offices, func(o geo.Office) bool {
		return geo.Distance(o.Position, p) < 1
	})
	if !ok {
		return ""
	}
	return office.Name
}

func (v *Validator) acquire(employeeID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, busy := v.inflight[employeeID]; busy {
		return false
	}
	v.inflight[employeeID] = struct{}{}
	return true
}

func (v *Validator) release(employeeID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.inflight, employeeID)
}
