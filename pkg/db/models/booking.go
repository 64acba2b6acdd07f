package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
)

// Booking is one scheduled service occurrence for a client with a staff member.
type Booking struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID         uuid.UUID           `gorm:"column:owner_id;type:uuid;not null;index"`
	ClientID        uuid.UUID           `gorm:"column:client_id;type:uuid;not null"`
	StaffID         uuid.UUID           `gorm:"column:staff_id;type:uuid;not null"`
	Date            time.Time           `gorm:"column:date;type:date;not null"`
	StartTime       string              `gorm:"column:start_time;not null"`
	DurationMinutes int                 `gorm:"column:duration_minutes;not null"`
	Status          enums.BookingStatus `gorm:"column:status;type:booking_status_enum;not null;default:'scheduled'"`
	Notes           *string             `gorm:"column:notes"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
