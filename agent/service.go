package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"axiapac.com/punchclock/geo"
	"axiapac.com/punchclock/logging"
	"axiapac.com/punchclock/punch"
	"axiapac.com/punchclock/session"
	"axiapac.com/punchclock/store"
	"axiapac.com/punchclock/utils"
)

var (
	ErrNotSignedIn     = errors.New("no user is signed in")
	ErrInvalidLocation = errors.New("location out of range")
)

type Journal interface {
	Append(ctx context.Context, rec *store.PunchRecord) error
	Recent(ctx context.Context, employeeID string, limit int) ([]store.PunchRecord, error)
}

type Options struct {
	Store      session.Store
	Journal    Journal
	NewBackend BackendFactory
	// Clock is the local clock the server offset is applied to.
	Clock                 session.Clock
	Location              *time.Location
	ExcludedDeviceClasses []string
	DeviceClass           string
	TickInterval          time.Duration
	LocationMaxAge        time.Duration
	Offices               []geo.Office
	Notifier              punch.Notifier
	Logger                *slog.Logger
}

// Status is the snapshot the UI renders.
type Status struct {
	Timer      session.State `json:"timer"`
	Outside    bool          `json:"outsideGeofence"`
	NextAction punch.Type    `json:"nextAction"`
	Location   *geo.Point    `json:"location,omitempty"`
	Distance   *float64      `json:"distance,omitempty"`
}

type PunchOutcome struct {
	Result *punch.Result `json:"result"`
	Timer  session.State `json:"timer"`
}

type Service struct {
	store     session.Store
	journal   Journal
	clock     *session.OffsetClock
	timer     *session.Timer
	watcher   *geo.Watcher
	validator *punch.Validator
	factory   BackendFactory
	loc       *time.Location
	logger    *slog.Logger

	// switching serializes punches against user changes, so a punch finishes
	// for the user who started it.
	switching sync.Mutex

	mu      sync.RWMutex
	userID  string
	token   string
	backend Backend
}

func New(opts Options) *Service {
	if opts.Store == nil {
		opts.Store = session.NewMemoryStore()
	}
	if opts.Journal == nil {
		opts.Journal = store.NewMemoryJournal()
	}
	if opts.Location == nil {
		opts.Location = utils.BrisbaneTZ
	}

	s := &Service{
		store:   opts.Store,
		journal: opts.Journal,
		clock:   session.NewOffsetClock(opts.Clock),
		watcher: geo.NewWatcher(opts.LocationMaxAge),
		factory: opts.NewBackend,
		loc:     opts.Location,
		logger:  opts.Logger,
	}
	s.timer = session.NewTimer(opts.Store, s.clock, session.TimerOptions{
		Location:              opts.Location,
		ExcludedDeviceClasses: opts.ExcludedDeviceClasses,
		TickInterval:          opts.TickInterval,
		Logger:                opts.Logger,
	})
	s.validator = punch.NewValidator(opts.Store, s, s, s.watcher, punch.Options{
		Location:    opts.Location,
		DeviceClass: opts.DeviceClass,
		Offices:     opts.Offices,
		Notifier:    opts.Notifier,
		Logger:      opts.Logger,
	})
	s.watcher.OnChange(func(outside bool, m geo.Match) {
		log := logging.Service(context.Background(), s.logger, "agent", "geofence", "employee", s.ActiveUser())
		if outside {
			log.Warn("device left the geofenced area", "distance", m.Distance)
		} else {
			log.Info("device back inside the geofenced area")
		}
	})
	return s
}

func (s *Service) Timer() *session.Timer { return s.timer }

func (s *Service) Watcher() *geo.Watcher { return s.watcher }

func (s *Service) Clock() *session.OffsetClock { return s.clock }

func (s *Service) ActiveUser() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// boundBackend keeps one user's backend for the length of a punch and syncs
// the timer clock with the server time it reads.
type boundBackend struct {
	Backend
	clock *session.OffsetClock
}

func (b boundBackend) ServerTime(ctx context.Context) (time.Time, error) {
	t, err := b.Backend.ServerTime(ctx)
	if err != nil {
		return time.Time{}, err
	}
	b.clock.Sync(t)
	return t, nil
}

func (s *Service) activeBackend() (Backend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.backend == nil {
		return nil, ErrNotSignedIn
	}
	return s.backend, nil
}

// ServerTime fetches the authoritative time and keeps the timer clock in step
// with it.
func (s *Service) ServerTime(ctx context.Context) (time.Time, error) {
	b, err := s.activeBackend()
	if err != nil {
		return time.Time{}, err
	}
	t, err := b.ServerTime(ctx)
	if err != nil {
		return time.Time{}, err
	}
	s.clock.Sync(t)
	return t, nil
}

func (s *Service) SubmitPunch(ctx context.Context, sub punch.Submission) (string, error) {
	b, err := s.activeBackend()
	if err != nil {
		return "", err
	}
	return b.SubmitPunch(ctx, sub)
}

// Login fetches the user's profile and makes them the active user. Nothing
// changes when the profile cannot be fetched.
func (s *Service) Login(ctx context.Context, employeeID, token string) (session.State, error) {
	s.switching.Lock()
	defer s.switching.Unlock()
	return s.login(ctx, employeeID, token)
}

func (s *Service) login(ctx context.Context, employeeID, token string) (session.State, error) {
	log := logging.Service(ctx, s.logger, "agent", "login", "employee", employeeID)

	backend := s.factory(token)
	profile, err := backend.Profile(ctx, employeeID)
	if err != nil {
		log.Warn("profile fetch failed", "error", err)
		return s.timer.Snapshot(), &punch.NetworkError{Op: "profile", Err: err}
	}
	if profile.EmployeeID == "" {
		profile.EmployeeID = employeeID
	}

	entry := session.NewEntry(profile)
	if cached, err := s.store.Get(ctx, employeeID); err == nil && cached != nil {
		entry.Timer = cached.Timer
	}
	entry.UpdatedAt = s.clock.Now()
	if err := s.store.Set(ctx, employeeID, entry); err != nil {
		return s.timer.Snapshot(), fmt.Errorf("cache profile: %w", err)
	}

	fence, err := punch.Fence(profile)
	if err != nil {
		log.Warn("profile geofence unusable", "error", err)
	}
	s.watcher.SetFence(fence)

	s.mu.Lock()
	prev := s.userID
	s.userID, s.token, s.backend = employeeID, token, backend
	s.mu.Unlock()

	if t, err := backend.ServerTime(ctx); err == nil {
		s.clock.Sync(t)
	} else {
		log.Warn("clock sync failed", "error", err)
	}

	var st session.State
	if prev == employeeID {
		st, err = s.timer.Load(ctx, employeeID)
	} else {
		st, err = s.timer.SwitchUser(ctx, employeeID)
	}
	if err != nil {
		return st, err
	}
	log.Info("user signed in", "previous", prev, "status", st.Status)
	return st, nil
}

func (s *Service) Logout(ctx context.Context) error {
	s.switching.Lock()
	defer s.switching.Unlock()
	return s.logout(ctx)
}

func (s *Service) logout(ctx context.Context) error {
	s.mu.Lock()
	prev := s.userID
	s.userID, s.token, s.backend = "", "", nil
	s.mu.Unlock()

	s.watcher.SetFence(nil)
	if _, err := s.timer.SwitchUser(ctx, ""); err != nil {
		return err
	}
	logging.Service(ctx, s.logger, "agent", "logout", "employee", prev).Info("user signed out")
	return nil
}

// EnsureUser is the identity change event raised by authenticated requests.
func (s *Service) EnsureUser(ctx context.Context, employeeID, token string) error {
	s.mu.Lock()
	if s.userID == employeeID && s.backend != nil {
		if s.token != token {
			s.token, s.backend = token, s.factory(token)
		}
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	_, err := s.Login(ctx, employeeID, token)
	return err
}

// IdentityChanged handles an identity observed without a token, such as the
// credentials file. The timer follows the new user; punching needs a login.
func (s *Service) IdentityChanged(ctx context.Context, employeeID string) {
	s.switching.Lock()
	defer s.switching.Unlock()

	if employeeID == "" {
		if err := s.logout(ctx); err != nil {
			logging.Service(ctx, s.logger, "agent", "identity").Warn("logout failed", "error", err)
		}
		return
	}

	s.mu.Lock()
	if s.userID == employeeID {
		s.mu.Unlock()
		return
	}
	s.userID, s.token, s.backend = employeeID, "", nil
	s.mu.Unlock()

	s.watcher.SetFence(nil)
	if _, err := s.timer.SwitchUser(ctx, employeeID); err != nil {
		logging.Service(ctx, s.logger, "agent", "identity", "employee", employeeID).
			Warn("timer switch failed", "error", err)
	}
}

func (s *Service) UpdateLocation(p geo.Point) error {
	if !p.Valid() {
		return ErrInvalidLocation
	}
	s.watcher.Update(p)
	return nil
}

// Punch submits the next punch for the active user and moves the timer.
func (s *Service) Punch(ctx context.Context) (*PunchOutcome, error) {
	s.switching.Lock()
	defer s.switching.Unlock()

	s.mu.RLock()
	employeeID, backend := s.userID, s.backend
	s.mu.RUnlock()
	if employeeID == "" || backend == nil {
		return nil, ErrNotSignedIn
	}

	bound := boundBackend{Backend: backend, clock: s.clock}
	res, err := s.validator.PunchUsing(ctx, employeeID, bound, bound)
	if err != nil {
		return nil, err
	}

	var st session.State
	if res.Type == punch.In {
		st, err = s.timer.ClockIn(ctx, employeeID, res.Time)
	} else {
		st, err = s.timer.ClockOut(ctx, employeeID, res.Time)
	}
	log := logging.Service(ctx, s.logger, "agent", "punch", "employee", employeeID)
	if err != nil {
		log.Warn("timer update failed", "error", err)
	}

	local := res.Time.In(s.loc)
	rec := &store.PunchRecord{
		RequestID:           res.RequestID,
		EmployeeID:          employeeID,
		TransactionType:     string(res.Type),
		ServerTime:          res.Time.UTC(),
		TransactionDate:     local.Format(utils.DateLayout),
		TransactionTime:     local.Format(utils.TimeLayout),
		IsGeoValidated:      res.IsGeoValidated,
		OriginalCoordinates: res.Original.JSON(),
		MatchingCoordinates: geo.PointJSON(res.Matching),
		Distance:            res.Distance,
		Message:             res.Message,
	}
	if err := s.journal.Append(ctx, rec); err != nil {
		log.Error("journal append failed", "request_id", res.RequestID, "error", err)
	}

	return &PunchOutcome{Result: res, Timer: st}, nil
}

func (s *Service) Status(ctx context.Context) (*Status, error) {
	st := s.timer.Tick()
	out := &Status{
		Timer:      st,
		Outside:    s.watcher.Outside(),
		NextAction: punch.In,
	}
	if p, ok := s.watcher.Latest(); ok {
		out.Location = &p
		if m := s.watcher.LastMatch(); m.Distance > 0 && !math.IsInf(m.Distance, 1) {
			d := m.Distance
			out.Distance = &d
		}
	}

	if st.UserID == "" {
		return out, nil
	}
	entry, err := s.store.Get(ctx, st.UserID)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		last := entry.Punch.LastPunchType
		if last == "" && entry.Profile != nil {
			last = entry.Profile.LastPunchType
		}
		out.NextAction = punch.Next(last)
	}
	return out, nil
}

func (s *Service) History(ctx context.Context, limit int) ([]store.PunchRecord, error) {
	employeeID := s.ActiveUser()
	if employeeID == "" {
		return nil, ErrNotSignedIn
	}
	return s.journal.Recent(ctx, employeeID, limit)
}

// SyncClock measures the offset between the local and the server clock.
func (s *Service) SyncClock(ctx context.Context) error {
	_, err := s.ServerTime(ctx)
	return err
}

// RunClockSync re-syncs the clock every interval while a user is signed in.
func (s *Service) RunClockSync(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.SyncClock(ctx); err != nil && !errors.Is(err, ErrNotSignedIn) {
				logging.Service(ctx, s.logger, "agent", "clock_sync").Warn("clock sync failed", "error", err)
			}
		}
	}
}
