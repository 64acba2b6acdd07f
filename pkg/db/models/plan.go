package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
)

// UnlimitedQuota marks a dimension with no plan limit.
const UnlimitedQuota = -1

// Plan captures the metadata and quota limits of a subscription plan.
type Plan struct {
	ID                  string                `gorm:"column:id;primaryKey"`
	Name                string                `gorm:"column:name;not null"`
	IsDefault           bool                  `gorm:"column:is_default;not null;default:false"`
	Interval            enums.BillingInterval `gorm:"column:interval;type:billing_interval_enum;not null"`
	PriceAmount         decimal.Decimal       `gorm:"column:price_amount;type:numeric(12,2);not null"`
	CurrencyCode        string                `gorm:"column:currency_code;not null"`
	ClientLimit         int                   `gorm:"column:client_limit;not null;default:-1"`
	StaffLimit          int                   `gorm:"column:staff_limit;not null;default:-1"`
	MonthlyBookingLimit int                   `gorm:"column:monthly_booking_limit;not null;default:-1"`
	Features            pq.StringArray        `gorm:"column:features;type:text[];default:ARRAY[]::text[]"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// LimitFor returns the plan limit for the given quota dimension.
func (p Plan) LimitFor(dimension enums.QuotaDimension) int {
	switch dimension {
	case enums.QuotaDimensionClients:
		return p.ClientLimit
	case enums.QuotaDimensionStaff:
		return p.StaffLimit
	case enums.QuotaDimensionMonthlyBookings:
		return p.MonthlyBookingLimit
	}
	return UnlimitedQuota
}
