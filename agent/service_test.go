package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axiapac.com/punchclock/geo"
	"axiapac.com/punchclock/punch"
	"axiapac.com/punchclock/session"
	"axiapac.com/punchclock/store"
	"axiapac.com/punchclock/utils"
)

// 09:00 Brisbane
var serverNow = time.Date(2025, 10, 13, 23, 0, 0, 0, time.UTC)

type fakeBackend struct {
	mu         sync.Mutex
	token      string
	now        time.Time
	profiles   map[string]*session.Profile
	profileErr error
	subs       []punch.Submission
	subTokens  []string

	// block holds SubmitPunch until closed; entered is told when it starts.
	block   chan struct{}
	entered chan struct{}
}

func (b *fakeBackend) ServerTime(context.Context) (time.Time, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.now, nil
}

func (b *fakeBackend) SubmitPunch(ctx context.Context, s punch.Submission) (string, error) {
	return b.submit(ctx, "", s)
}

func (b *fakeBackend) submit(_ context.Context, token string, s punch.Submission) (string, error) {
	if b.entered != nil {
		b.entered <- struct{}{}
	}
	if b.block != nil {
		<-b.block
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, s)
	b.subTokens = append(b.subTokens, token)
	return "", nil
}

// tokenBackend is the fake as seen through one bearer token.
type tokenBackend struct {
	*fakeBackend
	token string
}

func (b tokenBackend) SubmitPunch(ctx context.Context, s punch.Submission) (string, error) {
	return b.submit(ctx, b.token, s)
}

func (b *fakeBackend) Profile(_ context.Context, id string) (*session.Profile, error) {
	if b.profileErr != nil {
		return nil, b.profileErr
	}
	p, ok := b.profiles[id]
	if !ok {
		return nil, errors.New("not found")
	}
	c := *p
	return &c, nil
}

type localClock struct{ now time.Time }

func (c *localClock) Now() time.Time { return c.now }

type fixture struct {
	svc     *Service
	backend *fakeBackend
	store   *session.MemoryStore
	journal *store.MemoryJournal
	tokens  []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		backend: &fakeBackend{
			now: serverNow,
			profiles: map[string]*session.Profile{
				"A": {ValidationRequired: true, GeoCoordinates: "[[25.0,55.0]]", Radius: 500, MinimumPunchGap: 10},
				"B": {
					ValidationRequired: false,
					LastTransaction:    &session.Transaction{Type: session.PunchIn, Time: serverNow.Add(-time.Hour)},
				},
			},
		},
		store:   session.NewMemoryStore(),
		journal: store.NewMemoryJournal(),
	}
	f.svc = New(Options{
		Store:   f.store,
		Journal: f.journal,
		NewBackend: func(token string) Backend {
			f.tokens = append(f.tokens, token)
			return tokenBackend{fakeBackend: f.backend, token: token}
		},
		// local clock runs 30s behind the server
		Clock:                 &localClock{now: serverNow.Add(-30 * time.Second)},
		Location:              utils.BrisbaneTZ,
		ExcludedDeviceClasses: []string{"BIOMETRIC"},
	})
	return f
}

func TestLoginAndPunchCycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.svc.Login(ctx, "A", "tok-a")
	require.NoError(t, err)
	assert.Equal(t, "A", st.UserID)
	assert.Equal(t, session.StatusClockedOut, st.Status)
	assert.Equal(t, 30*time.Second, f.svc.Clock().Offset())

	_, err = f.svc.Punch(ctx)
	assert.ErrorIs(t, err, punch.ErrLocationUnavailable)

	require.NoError(t, f.svc.UpdateLocation(geo.Point{Lat: 25.0005, Lng: 55.0}))
	out, err := f.svc.Punch(ctx)
	require.NoError(t, err)
	assert.Equal(t, punch.In, out.Result.Type)
	assert.Equal(t, session.StatusClockedIn, out.Timer.Status)
	assert.Equal(t, "09:00:00", out.Timer.PunchInTime)

	status, err := f.svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, punch.Out, status.NextAction)
	assert.False(t, status.Outside)
	require.NotNil(t, status.Distance)

	history, err := f.svc.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "IN", history[0].TransactionType)
	assert.Equal(t, "[25,55]", history[0].MatchingCoordinates)
	assert.Equal(t, "2025-10-14", history[0].TransactionDate)

	// second punch inside the gap
	_, err = f.svc.Punch(ctx)
	var gapErr *punch.GapError
	require.ErrorAs(t, err, &gapErr)

	f.backend.now = serverNow.Add(2 * time.Hour)
	out, err = f.svc.Punch(ctx)
	require.NoError(t, err)
	assert.Equal(t, punch.Out, out.Result.Type)
	assert.Equal(t, session.StatusClockedOut, out.Timer.Status)
	assert.Equal(t, int64(7200), out.Timer.ElapsedSeconds)
}

func TestOutsideGeofenceFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Login(ctx, "A", "tok-a")
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateLocation(geo.Point{Lat: 25.01, Lng: 55.0}))
	status, err := f.svc.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Outside)

	_, err = f.svc.Punch(ctx)
	assert.ErrorIs(t, err, punch.ErrOutsideGeofence)
	assert.Empty(t, f.backend.subs)

	assert.ErrorIs(t, f.svc.UpdateLocation(geo.Point{Lat: 95, Lng: 0}), ErrInvalidLocation)
}

func TestSwitchUserResetsTimer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.svc.Login(ctx, "B", "tok-b")
	require.NoError(t, err)
	assert.Equal(t, session.StatusClockedIn, st.Status)
	assert.Equal(t, int64(3600), st.ElapsedSeconds)

	st, err = f.svc.Login(ctx, "A", "tok-a")
	require.NoError(t, err)
	assert.Equal(t, "A", st.UserID)
	assert.Equal(t, session.StatusClockedOut, st.Status)
	assert.Zero(t, st.ElapsedSeconds)

	prev, err := f.store.Get(ctx, "B")
	require.NoError(t, err)
	assert.Nil(t, prev)
}

func TestLoginFailureChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Login(ctx, "A", "tok-a")
	require.NoError(t, err)

	f.backend.profileErr = errors.New("connection refused")
	_, err = f.svc.Login(ctx, "B", "tok-b")
	require.Error(t, err)
	assert.Equal(t, punch.KindNetwork, punch.Kind(err))
	assert.Equal(t, "A", f.svc.ActiveUser())
}

func TestEnsureUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.EnsureUser(ctx, "A", "tok-a"))
	require.NoError(t, f.svc.EnsureUser(ctx, "A", "tok-a"))
	assert.Equal(t, []string{"tok-a"}, f.tokens)

	// refreshed token for the same user swaps the backend only
	require.NoError(t, f.svc.EnsureUser(ctx, "A", "tok-a2"))
	assert.Equal(t, []string{"tok-a", "tok-a2"}, f.tokens)
	assert.Equal(t, "A", f.svc.ActiveUser())

	require.NoError(t, f.svc.EnsureUser(ctx, "B", "tok-b"))
	assert.Equal(t, "B", f.svc.ActiveUser())
}

func TestLogoutAndIdentityChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Login(ctx, "B", "tok-b")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx))
	assert.Empty(t, f.svc.ActiveUser())
	assert.Equal(t, session.State{Status: session.StatusClockedOut}, f.svc.Timer().Snapshot())
	_, err = f.svc.Punch(ctx)
	assert.ErrorIs(t, err, ErrNotSignedIn)

	f.svc.IdentityChanged(ctx, "C")
	assert.Equal(t, "C", f.svc.ActiveUser())
	assert.Equal(t, "C", f.svc.Timer().Snapshot().UserID)
	_, err = f.svc.Punch(ctx)
	assert.ErrorIs(t, err, ErrNotSignedIn)

	f.svc.IdentityChanged(ctx, "")
	assert.Empty(t, f.svc.ActiveUser())
}

func TestUserSwitchWaitsForPunchInFlight(t *testing.T) {
	f := newFixture(t)
	f.backend.profiles["C"] = &session.Profile{}
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "A", "tok-a")
	require.NoError(t, err)
	require.NoError(t, f.svc.UpdateLocation(geo.Point{Lat: 25.0005, Lng: 55.0}))

	f.backend.block = make(chan struct{})
	f.backend.entered = make(chan struct{}, 1)

	punched := make(chan error, 1)
	go func() {
		_, err := f.svc.Punch(ctx)
		punched <- err
	}()
	<-f.backend.entered

	switched := make(chan error, 1)
	go func() {
		_, err := f.svc.Login(ctx, "C", "tok-c")
		switched <- err
	}()

	select {
	case <-switched:
		t.Fatal("user switched while a punch was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(f.backend.block)
	require.NoError(t, <-punched)
	require.NoError(t, <-switched)

	assert.Equal(t, []string{"tok-a"}, f.backend.subTokens)
	require.Len(t, f.backend.subs, 1)
	assert.Equal(t, "A", f.backend.subs[0].EmployeeID)

	st := f.svc.Timer().Snapshot()
	assert.Equal(t, "C", st.UserID)
	assert.Equal(t, session.StatusClockedOut, st.Status)

	prev, err := f.store.Get(ctx, "A")
	require.NoError(t, err)
	assert.Nil(t, prev)

	entry, err := f.store.Get(ctx, "C")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.Timer == nil || !entry.Timer.IsPunchedIn)

	records, err := f.journal.Recent(ctx, "A", 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
