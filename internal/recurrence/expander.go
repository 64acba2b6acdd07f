package recurrence

import (
	"time"

	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
	pkgerrors "github.com/rmoralesp/clinicdesk-backend/pkg/errors"
)

// MaxOccurrences caps how many dates a single expansion may produce.
const MaxOccurrences = 100

// Rule describes how a series repeats. Weekdays applies to weekly rules only;
// when empty it defaults to the anchor date's weekday.
type Rule struct {
	Kind     enums.RecurrenceKind
	Weekdays []time.Weekday
	Count    int
}

// Expand materializes the occurrence dates for a recurring series. The anchor
// date is always eligible to be the first occurrence. Monthly series that
// anchor on a day-of-month missing from a shorter month clamp to that month's
// last day.
func Expand(anchor time.Time, rule Rule) ([]time.Time, error) {
	if anchor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "anchor date is required")
	}
	if !rule.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid recurrence kind")
	}
	count := rule.Count
	if count == 0 {
		count = 1
	}
	if count < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "occurrence count must be at least 1")
	}
	if count > MaxOccurrences {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "occurrence count exceeds maximum").
			WithDetails(map[string]any{"max": MaxOccurrences, "requested": count})
	}

	anchor = dateOnly(anchor)
	dates := make([]time.Time, 0, count)

	switch rule.Kind {
	case enums.RecurrenceKindDaily:
		for i := 0; i < count; i++ {
			dates = append(dates, anchor.AddDate(0, 0, i))
		}
	case enums.RecurrenceKindWeekly:
		allowed := weekdaySet(rule.Weekdays, anchor.Weekday())
		for day := anchor; len(dates) < count; day = day.AddDate(0, 0, 1) {
			if allowed[day.Weekday()] {
				dates = append(dates, day)
			}
		}
	case enums.RecurrenceKindMonthly:
		for i := 0; i < count; i++ {
			dates = append(dates, addMonthsClamped(anchor, i))
		}
	}

	return dates, nil
}

func weekdaySet(weekdays []time.Weekday, fallback time.Weekday) map[time.Weekday]bool {
	set := make(map[time.Weekday]bool, len(weekdays))
	for _, day := range weekdays {
		set[day] = true
	}
	if len(set) == 0 {
		set[fallback] = true
	}
	return set
}

// addMonthsClamped advances by whole months keeping the anchor's day-of-month,
// clamping to the target month's last day instead of letting time.AddDate roll
// over (Jan 31 + 1 month is Feb 28/29, not Mar 2/3).
func addMonthsClamped(anchor time.Time, months int) time.Time {
	year, month, day := anchor.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, anchor.Location())
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, anchor.Location())
}

func dateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
