package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session is the billable unit derived from a completed booking. At most one
// session exists per booking; creation is guarded by an existence check on
// booking_id.
type Session struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID   uuid.UUID       `gorm:"column:owner_id;type:uuid;not null;index"`
	BookingID uuid.UUID       `gorm:"column:booking_id;type:uuid;not null;uniqueIndex"`
	ClientID  uuid.UUID       `gorm:"column:client_id;type:uuid;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null;default:0"`
	Discount  decimal.Decimal `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Paid      bool            `gorm:"column:paid;not null;default:false"`
	HeldAt    time.Time       `gorm:"column:held_at;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
