package geo

import (
	"context"
	"sync"
	"time"
)

// Watcher tracks the device's live position against the active geofence.
// Outside is only ever raised for fences that require validation.
type Watcher struct {
	MaxAge time.Duration

	mu        sync.RWMutex
	now       func() time.Time
	fence     *Geofence
	latest    *Point
	seenAt    time.Time
	outside   bool
	lastMatch Match
	listeners []func(outside bool, m Match)
}

func NewWatcher(maxAge time.Duration) *Watcher {
	return &Watcher{MaxAge: maxAge, now: time.Now}
}

// OnChange registers fn to be called whenever the outside flag flips.
func (w *Watcher) OnChange(fn func(outside bool, m Match)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

func (w *Watcher) SetFence(f *Geofence) {
	w.mu.Lock()
	w.fence = f
	changed, outside, m := w.evaluateLocked()
	listeners := w.listeners
	w.mu.Unlock()

	if changed {
		notify(listeners, outside, m)
	}
}

func (w *Watcher) Update(p Point) {
	w.mu.Lock()
	w.latest = &p
	w.seenAt = w.now()
	changed, outside, m := w.evaluateLocked()
	listeners := w.listeners
	w.mu.Unlock()

	if changed {
		notify(listeners, outside, m)
	}
}

func (w *Watcher) Latest() (Point, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.latest == nil {
		return Point{}, false
	}
	if w.MaxAge > 0 && w.now().Sub(w.seenAt) > w.MaxAge {
		return Point{}, false
	}
	return *w.latest, true
}

func (w *Watcher) Outside() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.outside
}

func (w *Watcher) LastMatch() Match {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastMatch
}

// Run consumes positions until ctx is done or the channel closes.
func (w *Watcher) Run(ctx context.Context, positions <-chan Point) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-positions:
			if !ok {
				return
			}
			w.Update(p)
		}
	}
}

func (w *Watcher) evaluateLocked() (changed bool, outside bool, m Match) {
	prev := w.outside
	switch {
	case w.fence == nil || w.latest == nil:
		w.outside = false
		w.lastMatch = Match{}
	case !w.fence.ValidationRequired || len(w.fence.Offices) == 0:
		w.outside = false
		w.lastMatch = w.fence.Match(*w.latest)
	default:
		w.lastMatch = w.fence.Match(*w.latest)
		w.outside = !w.lastMatch.Inside
	}
	return prev != w.outside, w.outside, w.lastMatch
}

func notify(listeners []func(bool, Match), outside bool, m Match) {
	for _, fn := range listeners {
		fn(outside, m)
	}
}
