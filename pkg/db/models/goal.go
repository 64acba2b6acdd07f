package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
)

// Goal tracks a tenant-defined target that side-effect propagation increments.
type Goal struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID      uuid.UUID          `gorm:"column:owner_id;type:uuid;not null;index"`
	Category     enums.GoalCategory `gorm:"column:category;type:goal_category_enum;not null"`
	Title        string             `gorm:"column:title;not null"`
	CurrentValue decimal.Decimal    `gorm:"column:current_value;type:numeric(14,2);not null;default:0"`
	TargetValue  decimal.Decimal    `gorm:"column:target_value;type:numeric(14,2);not null"`
	Status       enums.GoalStatus   `gorm:"column:status;type:goal_status_enum;not null;default:'in_progress'"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
