package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
)

// PaymentRecordedEvent is emitted once per persisted ledger entry.
type PaymentRecordedEvent struct {
	EntryID     uuid.UUID           `json:"entry_id"`
	OwnerID     uuid.UUID           `json:"owner_id"`
	ClientID    *uuid.UUID          `json:"client_id,omitempty"`
	BookingID   *uuid.UUID          `json:"booking_id,omitempty"`
	GrossAmount decimal.Decimal     `json:"gross_amount"`
	NetAmount   decimal.Decimal     `json:"net_amount"`
	Currency    enums.Currency      `json:"currency"`
	Status      enums.PaymentStatus `json:"status"`
	OccurredAt  time.Time           `json:"occurred_at"`
}

// PaymentSettledEvent marks an outstanding entry transitioning to paid.
type PaymentSettledEvent struct {
	EntryID        uuid.UUID           `json:"entry_id"`
	OwnerID        uuid.UUID           `json:"owner_id"`
	PreviousStatus enums.PaymentStatus `json:"previous_status"`
	NetAmount      decimal.Decimal     `json:"net_amount"`
	SettledAt      time.Time           `json:"settled_at"`
}

// BookingCreatedEvent signals one booking of a (possibly recurring) batch.
type BookingCreatedEvent struct {
	BookingID  uuid.UUID             `json:"booking_id"`
	OwnerID    uuid.UUID             `json:"owner_id"`
	ClientID   uuid.UUID             `json:"client_id"`
	StaffID    uuid.UUID             `json:"staff_id"`
	Date       string                `json:"date"`
	StartTime  string                `json:"start_time"`
	Recurrence *enums.RecurrenceKind `json:"recurrence,omitempty"`
	BatchSize  int                   `json:"batch_size"`
}

// BookingCompletedEvent is emitted when a booking is marked held.
type BookingCompletedEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	ClientID    uuid.UUID `json:"client_id"`
	SessionID   uuid.UUID `json:"session_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// GoalReachedEvent fires when side-effect propagation pushes a goal over its target.
type GoalReachedEvent struct {
	GoalID       uuid.UUID          `json:"goal_id"`
	OwnerID      uuid.UUID          `json:"owner_id"`
	Category     enums.GoalCategory `json:"category"`
	CurrentValue decimal.Decimal    `json:"current_value"`
	TargetValue  decimal.Decimal    `json:"target_value"`
	ReachedAt    time.Time          `json:"reached_at"`
}

// NotificationRequestedEvent tells downstream systems to alert the tenant.
type NotificationRequestedEvent struct {
	OwnerID     uuid.UUID `json:"owner_id"`
	AggregateID uuid.UUID `json:"aggregate_id"`
	Type        string    `json:"type"`
}
