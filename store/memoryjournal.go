package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryJournal keeps punch records in process when no database is set up.
type MemoryJournal struct {
	mu      sync.RWMutex
	records []PunchRecord
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

func (j *MemoryJournal) Append(_ context.Context, rec *PunchRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, *rec)
	return nil
}

func (j *MemoryJournal) Between(_ context.Context, from, to time.Time) ([]PunchRecord, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []PunchRecord
	for _, r := range j.records {
		if !r.ServerTime.Before(from) && r.ServerTime.Before(to) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].EmployeeID != out[b].EmployeeID {
			return out[a].EmployeeID < out[b].EmployeeID
		}
		return out[a].ServerTime.Before(out[b].ServerTime)
	})
	return out, nil
}

func (j *MemoryJournal) Recent(_ context.Context, employeeID string, limit int) ([]PunchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []PunchRecord
	for i := len(j.records) - 1; i >= 0 && len(out) < limit; i-- {
		if j.records[i].EmployeeID == employeeID {
			out = append(out, j.records[i])
		}
	}
	return out, nil
}
