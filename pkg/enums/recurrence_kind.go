package enums

import "fmt"

// RecurrenceKind selects how a recurrence rule expands into occurrences.
type RecurrenceKind string

const (
	RecurrenceKindDaily   RecurrenceKind = "daily"
	RecurrenceKindWeekly  RecurrenceKind = "weekly"
	RecurrenceKindMonthly RecurrenceKind = "monthly"
)

var validRecurrenceKinds = []RecurrenceKind{
	RecurrenceKindDaily,
	RecurrenceKindWeekly,
	RecurrenceKindMonthly,
}

// String implements fmt.Stringer.
func (r RecurrenceKind) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RecurrenceKind.
func (r RecurrenceKind) IsValid() bool {
	for _, candidate := range validRecurrenceKinds {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRecurrenceKind converts raw input into a RecurrenceKind.
func ParseRecurrenceKind(value string) (RecurrenceKind, error) {
	for _, candidate := range validRecurrenceKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid recurrence kind %q", value)
}
