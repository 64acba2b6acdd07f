package models

import (
	"time"

	"github.com/google/uuid"
)

// StaffMember is a professional who delivers bookings for the tenant.
type StaffMember struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID    uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;index"`
	FullName   string     `gorm:"column:full_name;not null"`
	Specialty  *string    `gorm:"column:specialty"`
	ArchivedAt *time.Time `gorm:"column:archived_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
