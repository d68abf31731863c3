package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"axiapac.com/punchclock/session"
)

// PunchSession is one user's cached session entry.
type PunchSession struct {
	UserID    string         `gorm:"column:user_id;primaryKey;size:64"`
	Payload   datatypes.JSON `gorm:"column:payload"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (PunchSession) TableName() string { return "punch_sessions" }

// SessionStore keeps session entries in MySQL so a restarted agent can
// rebuild the timer.
type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Get(ctx context.Context, userID string) (*session.Entry, error) {
	var row PunchSession
	result := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil // not found
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return decodeEntry(row.Payload)
}

func (s *SessionStore) Set(ctx context.Context, userID string, entry *session.Entry) error {
	row, err := newPunchSession(userID, entry)
	if err != nil {
		return err
	}
	return upsertSession(s.db.WithContext(ctx), row).Error
}

func (s *SessionStore) Clear(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&PunchSession{}).Error
}

func newPunchSession(userID string, entry *session.Entry) (*PunchSession, error) {
	if entry == nil {
		return nil, fmt.Errorf("nil session entry for %s", userID)
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("encode session entry: %w", err)
	}
	updated := entry.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	return &PunchSession{UserID: userID, Payload: datatypes.JSON(payload), UpdatedAt: updated.UTC()}, nil
}

func upsertSession(tx *gorm.DB, row *PunchSession) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(row)
}

func decodeEntry(payload datatypes.JSON) (*session.Entry, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	var entry session.Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("decode session entry: %w", err)
	}
	return &entry, nil
}
