package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
)

// LedgerEntry records a single monetary transaction for a tenant. The ID is
// manufactured by the caller before the first write attempt so retries stay
// idempotent at the storage layer.
type LedgerEntry struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID     uuid.UUID             `gorm:"column:owner_id;type:uuid;not null;index"`
	ClientID    *uuid.UUID            `gorm:"column:client_id;type:uuid"`
	BookingID   *uuid.UUID            `gorm:"column:booking_id;type:uuid"`
	GrossAmount decimal.Decimal       `gorm:"column:gross_amount;type:numeric(12,2);not null"`
	Discount    decimal.Decimal       `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Currency    enums.Currency        `gorm:"column:currency;not null;default:'BRL'"`
	Status      enums.PaymentStatus   `gorm:"column:status;type:payment_status_enum;not null"`
	OccurredAt  time.Time             `gorm:"column:occurred_at;not null"`
	DueAt       *time.Time            `gorm:"column:due_at"`
	Notes       *string               `gorm:"column:notes"`
	Recurrence  *enums.RecurrenceKind `gorm:"column:recurrence"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// NetAmount returns gross minus discount.
func (e LedgerEntry) NetAmount() decimal.Decimal {
	return e.GrossAmount.Sub(e.Discount)
}
