package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"axiapac.com/punchclock/logging"
	"axiapac.com/punchclock/utils"
)

type Status string

const (
	StatusClockedOut Status = "CLOCKED_OUT"
	StatusClockedIn  Status = "CLOCKED_IN"
)

const DefaultTickInterval = time.Second

var (
	ErrNoUser      = errors.New("no active user")
	ErrUserChanged = errors.New("active user changed")
)

// State is the timer view shown to the user. PunchInTime and PunchOutTime are
// display strings in the configured timezone.
type State struct {
	UserID         string    `json:"userId"`
	Status         Status    `json:"status"`
	PunchInTime    string    `json:"punchInTime,omitempty"`
	PunchOutTime   string    `json:"punchOutTime,omitempty"`
	StartTimestamp time.Time `json:"startTimestamp"`
	ElapsedSeconds int64     `json:"elapsedSeconds"`
}

func (s State) ClockedIn() bool { return s.Status == StatusClockedIn }

type TimerOptions struct {
	Location              *time.Location
	ExcludedDeviceClasses []string
	TickInterval          time.Duration
	Logger                *slog.Logger
}

type Timer struct {
	store        Store
	clock        Clock
	loc          *time.Location
	excluded     map[string]struct{}
	tickInterval time.Duration
	logger       *slog.Logger

	// op serializes store-touching transitions; mu guards state only
	op    sync.Mutex
	mu    sync.RWMutex
	state State
}

func NewTimer(store Store, clock Clock, opts TimerOptions) *Timer {
	if clock == nil {
		clock = SystemClock{}
	}
	if opts.Location == nil {
		opts.Location = utils.BrisbaneTZ
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	excluded := make(map[string]struct{}, len(opts.ExcludedDeviceClasses))
	for _, c := range opts.ExcludedDeviceClasses {
		excluded[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}
	return &Timer{
		store:        store,
		clock:        clock,
		loc:          opts.Location,
		excluded:     excluded,
		tickInterval: opts.TickInterval,
		logger:       opts.Logger,
		state:        State{Status: StatusClockedOut},
	}
}

func (t *Timer) Snapshot() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *Timer) UserID() string {
	return t.Snapshot().UserID
}

// Load rebuilds the timer for userID from the cached entry.
func (t *Timer) Load(ctx context.Context, userID string) (State, error) {
	t.op.Lock()
	defer t.op.Unlock()
	return t.load(ctx, userID)
}

func (t *Timer) load(ctx context.Context, userID string) (State, error) {
	entry, err := t.store.Get(ctx, userID)
	if err != nil {
		return t.Snapshot(), err
	}
	st := t.reconstruct(userID, entry, t.clock.Now())

	t.mu.Lock()
	t.state = st
	t.mu.Unlock()

	logging.Service(ctx, t.logger, "timer", "load", "employee", userID).
		Debug("timer reconstructed", "status", st.Status, "elapsed", st.ElapsedSeconds)
	return st, nil
}

// reconstruct applies the precedence: backend last transaction, then a
// consistent local snapshot, then clocked out.
func (t *Timer) reconstruct(userID string, entry *Entry, now time.Time) State {
	st := State{UserID: userID, Status: StatusClockedOut}
	if entry == nil {
		return st
	}

	if entry.Profile != nil && entry.Profile.LastTransaction != nil {
		tx := entry.Profile.LastTransaction
		switch {
		case tx.Type == PunchIn && !tx.Time.IsZero() && utils.SameDay(tx.Time, now, t.loc) && !t.isExcluded(tx.DeviceClass):
			st.Status = StatusClockedIn
			st.StartTimestamp = tx.Time
			st.PunchInTime = t.display(tx.Time)
			st.ElapsedSeconds = elapsed(tx.Time, now)
		case tx.Type == PunchOut && !tx.Time.IsZero():
			st.PunchOutTime = t.display(tx.Time)
		}
		return st
	}

	if snap := entry.Timer; snap.Consistent() && snap.IsPunchedIn {
		st.Status = StatusClockedIn
		st.StartTimestamp = snap.StartTime
		st.PunchInTime = snap.PunchInTime
		if st.PunchInTime == "" {
			st.PunchInTime = t.display(snap.StartTime)
		}
		st.ElapsedSeconds = elapsed(snap.StartTime, now)
	}
	return st
}

// ClockIn starts the timer for userID. It does nothing when userID is no
// longer the active user.
func (t *Timer) ClockIn(ctx context.Context, userID string, at time.Time) (State, error) {
	t.op.Lock()
	defer t.op.Unlock()

	t.mu.Lock()
	if t.state.UserID == "" {
		t.mu.Unlock()
		return State{Status: StatusClockedOut}, ErrNoUser
	}
	if t.state.UserID != userID {
		st := t.state
		t.mu.Unlock()
		return st, ErrUserChanged
	}
	t.state.Status = StatusClockedIn
	t.state.StartTimestamp = at
	t.state.PunchInTime = t.display(at)
	t.state.PunchOutTime = ""
	t.state.ElapsedSeconds = 0
	st := t.state
	t.mu.Unlock()

	return st, t.persist(ctx, st)
}

func (t *Timer) ClockOut(ctx context.Context, userID string, at time.Time) (State, error) {
	t.op.Lock()
	defer t.op.Unlock()

	t.mu.Lock()
	if t.state.UserID == "" {
		t.mu.Unlock()
		return State{Status: StatusClockedOut}, ErrNoUser
	}
	if t.state.UserID != userID {
		st := t.state
		t.mu.Unlock()
		return st, ErrUserChanged
	}
	if t.state.Status == StatusClockedIn {
		if e := elapsed(t.state.StartTimestamp, at); e > t.state.ElapsedSeconds {
			t.state.ElapsedSeconds = e
		}
	}
	t.state.Status = StatusClockedOut
	t.state.StartTimestamp = time.Time{}
	t.state.PunchOutTime = t.display(at)
	st := t.state
	t.mu.Unlock()

	return st, t.persist(ctx, st)
}

// Tick recomputes elapsed from the wall clock. Elapsed never goes backwards.
func (t *Timer) Tick() State {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Status == StatusClockedIn {
		if e := elapsed(t.state.StartTimestamp, now); e > t.state.ElapsedSeconds {
			t.state.ElapsedSeconds = e
		}
	}
	return t.state
}

func (t *Timer) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.Tick()
		}
	}
}

// SwitchUser handles an identity change. The previous user's cached entry is
// cleared and the timer is reset before the new user is loaded. An empty
// userID is a logout.
func (t *Timer) SwitchUser(ctx context.Context, userID string) (State, error) {
	t.op.Lock()
	defer t.op.Unlock()

	prev := t.UserID()
	if prev == userID {
		return t.Snapshot(), nil
	}

	log := logging.Service(ctx, t.logger, "timer", "switch_user", "employee", userID)
	if prev != "" {
		if err := t.store.Clear(ctx, prev); err != nil {
			log.Warn("failed to clear previous user", "previous", prev, "error", err)
		}
	}

	t.mu.Lock()
	t.state = State{Status: StatusClockedOut}
	t.mu.Unlock()

	if userID == "" {
		log.Info("user logged out", "previous", prev)
		return t.Snapshot(), nil
	}

	t.mu.Lock()
	t.state.UserID = userID
	t.mu.Unlock()

	log.Info("user switched", "previous", prev)
	return t.load(ctx, userID)
}

func (t *Timer) persist(ctx context.Context, st State) error {
	entry, err := t.store.Get(ctx, st.UserID)
	if err != nil {
		return err
	}
	if entry == nil {
		entry = &Entry{Punch: PunchState{EmployeeID: st.UserID}}
	}
	entry.Timer = &TimerSnapshot{
		IsPunchedIn: st.Status == StatusClockedIn,
		PunchInTime: st.PunchInTime,
		StartTime:   st.StartTimestamp,
	}
	entry.UpdatedAt = t.clock.Now()
	return t.store.Set(ctx, st.UserID, entry)
}

func (t *Timer) isExcluded(deviceClass string) bool {
	_, ok := t.excluded[strings.ToUpper(strings.TrimSpace(deviceClass))]
	return ok && deviceClass != ""
}

func (t *Timer) display(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.In(t.loc).Format(utils.TimeLayout)
}

func elapsed(start, now time.Time) int64 {
	if start.IsZero() {
		return 0
	}
	d := int64(now.Sub(start) / time.Second)
	if d < 0 {
		return 0
	}
	return d
}
