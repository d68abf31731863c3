package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PunchRecord is the local audit trail of accepted punches.
type PunchRecord struct {
	ID                  string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	RequestID           string    `gorm:"column:request_id;size:36;uniqueIndex" json:"requestId"`
	EmployeeID          string    `gorm:"column:employee_id;size:64;index:idx_employee_time,priority:1" json:"employeeId"`
	TransactionType     string    `gorm:"column:transaction_type;size:3" json:"transactionType"`
	ServerTime          time.Time `gorm:"column:server_time;index:idx_employee_time,priority:2" json:"serverTime"`
	TransactionDate     string    `gorm:"column:transaction_date;size:10" json:"transactionDate"`
	TransactionTime     string    `gorm:"column:transaction_time;size:8" json:"transactionTime"`
	IsGeoValidated      bool      `gorm:"column:is_geo_validated" json:"isGeoValidated"`
	OriginalCoordinates string    `gorm:"column:original_coordinates;size:64" json:"originalCoordinates"`
	MatchingCoordinates string    `gorm:"column:matching_coordinates;size:64" json:"matchingCoordinates"`
	Distance            float64   `gorm:"column:distance" json:"distance"`
	Message             string    `gorm:"column:message;size:255" json:"message"`
	CreatedAt           time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (PunchRecord) TableName() string { return "punch_records" }

type Journal struct {
	db *gorm.DB
}

func NewJournal(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

func (j *Journal) Append(ctx context.Context, rec *PunchRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	return j.db.WithContext(ctx).Create(rec).Error
}

// Between lists records with from <= server_time < to.
func (j *Journal) Between(ctx context.Context, from, to time.Time) ([]PunchRecord, error) {
	var records []PunchRecord
	err := betweenQuery(j.db.WithContext(ctx), from, to).Find(&records).Error
	return records, err
}

func (j *Journal) Recent(ctx context.Context, employeeID string, limit int) ([]PunchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []PunchRecord
	err := j.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("server_time DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func betweenQuery(tx *gorm.DB, from, to time.Time) *gorm.DB {
	return tx.Model(&PunchRecord{}).
		Where("server_time >= ? AND server_time < ?", from.UTC(), to.UTC()).
		Order("employee_id").
		Order("server_time")
}
