package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is a person the tenant serves. Only the fields the ledger and quota
// subsystems touch live here; profile details stay in the CRUD layer.
type Client struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID   uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;index"`
	FullName  string     `gorm:"column:full_name;not null"`
	Email     *string    `gorm:"column:email"`
	Phone     *string    `gorm:"column:phone"`
	ArchivedAt *time.Time `gorm:"column:archived_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
