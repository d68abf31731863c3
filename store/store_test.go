package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"axiapac.com/punchclock/session"
)

// dryDB builds SQL without a server.
func dryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "agent:secret@tcp(127.0.0.1:3306)/punchclock?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

var at = time.Date(2025, 10, 13, 23, 0, 0, 0, time.UTC)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelSilent, ParseLogLevel("silent"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("INFO"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel(""))
	assert.Equal(t, logger.Error, LogLevelError.gorm())
	assert.Equal(t, logger.Info, LogLevel(0).gorm())
}

func TestSessionUpsertSQL(t *testing.T) {
	db := dryDB(t)
	row, err := newPunchSession("E1", &session.Entry{UpdatedAt: at})
	require.NoError(t, err)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB { return upsertSession(tx, row) })
	assert.Contains(t, sql, "INSERT INTO `punch_sessions`")
	assert.Contains(t, sql, "ON DUPLICATE KEY UPDATE")
	assert.Contains(t, sql, "`payload`=")
	assert.Contains(t, sql, "`updated_at`=")
}

func TestSessionPayloadRoundTrip(t *testing.T) {
	entry := &session.Entry{
		Profile: &session.Profile{
			EmployeeID:         "E1",
			ValidationRequired: true,
			GeoCoordinates:     "[[25,55]]",
			Radius:             500,
			MinimumPunchGap:    10,
			LastTransaction:    &session.Transaction{Type: session.PunchIn, Time: at, DeviceClass: "WEB"},
		},
		Punch:     session.PunchState{EmployeeID: "E1", LastPunchType: session.PunchIn, LastPunchTime: at},
		Timer:     &session.TimerSnapshot{IsPunchedIn: true, PunchInTime: "09:00:00", StartTime: at},
		UpdatedAt: at,
	}

	row, err := newPunchSession("E1", entry)
	require.NoError(t, err)
	assert.Equal(t, "E1", row.UserID)
	assert.True(t, row.UpdatedAt.Equal(at))

	got, err := decodeEntry(row.Payload)
	require.NoError(t, err)
	assert.Equal(t, entry.Profile.LastTransaction.Type, got.Profile.LastTransaction.Type)
	assert.True(t, got.Timer.StartTime.Equal(at))
	assert.True(t, got.Punch.LastPunchTime.Equal(at))
	assert.Equal(t, "[[25,55]]", got.Profile.GeoCoordinates)

	empty, err := decodeEntry(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = newPunchSession("E1", nil)
	assert.Error(t, err)
}

func TestJournalBetweenSQL(t *testing.T) {
	db := dryDB(t)
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var records []PunchRecord
		return betweenQuery(tx, at, at.Add(24*time.Hour)).Find(&records)
	})
	assert.Contains(t, sql, "FROM `punch_records`")
	assert.Contains(t, sql, "server_time >= '2025-10-13 23:00:00'")
	assert.Contains(t, sql, "ORDER BY employee_id,server_time")
}

// Runs against a real database when PUNCHCLOCK_TEST_DSN is set.
func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("PUNCHCLOCK_TEST_DSN")
	if dsn == "" {
		t.Skip("PUNCHCLOCK_TEST_DSN not set")
	}

	db, err := Open(dsn, 2, LogLevelSilent)
	require.NoError(t, err)
	defer Close(db)
	require.NoError(t, AutoMigrate(db))

	ctx := context.Background()
	sessions := NewSessionStore(db)
	require.NoError(t, sessions.Set(ctx, "it-user", &session.Entry{Punch: session.PunchState{EmployeeID: "it-user"}, UpdatedAt: at}))
	require.NoError(t, sessions.Set(ctx, "it-user", &session.Entry{Punch: session.PunchState{EmployeeID: "it-user", LastPunchType: session.PunchIn}, UpdatedAt: at}))

	got, err := sessions.Get(ctx, "it-user")
	require.NoError(t, err)
	assert.Equal(t, session.PunchIn, got.Punch.LastPunchType)

	require.NoError(t, sessions.Clear(ctx, "it-user"))
	got, err = sessions.Get(ctx, "it-user")
	require.NoError(t, err)
	assert.Nil(t, got)

	journal := NewJournal(db)
	rec := &PunchRecord{RequestID: "it-" + at.Format("150405.000000000"), EmployeeID: "it-user", TransactionType: "IN", ServerTime: at}
	require.NoError(t, journal.Append(ctx, rec))
	assert.NotEmpty(t, rec.ID)

	records, err := journal.Between(ctx, at.Add(-time.Minute), at.Add(time.Minute))
	require.NoError(t, err)
	assert.NotEmpty(t, records)
	db.Where("id = ?", rec.ID).Delete(&PunchRecord{})
}
