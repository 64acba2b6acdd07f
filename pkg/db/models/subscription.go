package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
)

// Subscription persists one billing interval of a tenant's plan membership.
// A tenant accumulates rows over time; the set of rows whose periods were
// active forms the subscription-active windows the monthly report gates on.
type Subscription struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID            uuid.UUID                `gorm:"column:owner_id;type:uuid;not null;index"`
	PlanID             string                   `gorm:"column:plan_id;not null"`
	Status             enums.SubscriptionStatus `gorm:"column:status;type:subscription_status_enum;not null;default:'active'"`
	CurrentPeriodStart time.Time                `gorm:"column:current_period_start;not null"`
	CurrentPeriodEnd   time.Time                `gorm:"column:current_period_end;not null"`
	CanceledAt         *time.Time               `gorm:"column:canceled_at"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
