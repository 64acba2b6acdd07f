package enums

import "fmt"

// QuotaDimension identifies a countable resource subject to a plan limit.
type QuotaDimension string

const (
	QuotaDimensionClients         QuotaDimension = "clients"
	QuotaDimensionStaff           QuotaDimension = "staff"
	QuotaDimensionMonthlyBookings QuotaDimension = "monthly_bookings"
)

var validQuotaDimensions = []QuotaDimension{
	QuotaDimensionClients,
	QuotaDimensionStaff,
	QuotaDimensionMonthlyBookings,
}

// String implements fmt.Stringer.
func (q QuotaDimension) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QuotaDimension.
func (q QuotaDimension) IsValid() bool {
	for _, candidate := range validQuotaDimensions {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQuotaDimension converts raw input into a QuotaDimension.
func ParseQuotaDimension(value string) (QuotaDimension, error) {
	for _, candidate := range validQuotaDimensions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quota dimension %q", value)
}
