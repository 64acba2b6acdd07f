package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesp/clinicdesk-backend/pkg/db/models"
	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
	pkgerrors "github.com/rmoralesp/clinicdesk-backend/pkg/errors"
)

type entrySource interface {
	ListByOccurredRange(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.LedgerEntry, error)
}

type subscriptionWindows interface {
	CoversDate(ctx context.Context, ownerID uuid.UUID, date time.Time) (bool, error)
}

// Bucket is one time slice of the revenue report.
type Bucket struct {
	Label    string          `json:"label"`
	NetTotal decimal.Decimal `json:"netTotal"`
}

// Summary aggregates a reporting window into three totals.
type Summary struct {
	TotalReceived    decimal.Decimal `json:"totalReceived"`
	TotalDiscounts   decimal.Decimal `json:"totalDiscounts"`
	TotalOutstanding decimal.Decimal `json:"totalOutstanding"`
}

// Service buckets committed ledger entries into revenue reports.
type Service interface {
	Report(ctx context.Context, ownerID uuid.UUID, period enums.ReportPeriod) ([]Bucket, error)
	Summarize(ctx context.Context, ownerID uuid.UUID, period enums.ReportPeriod) (*Summary, error)
}

// ServiceParams bundles the reporting dependencies.
type ServiceParams struct {
	Entries       entrySource
	Subscriptions subscriptionWindows
	Now           func() time.Time
}

type service struct {
	entries       entrySource
	subscriptions subscriptionWindows
	now           func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Entries == nil {
		return nil, fmt.Errorf("entry source required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription source required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		entries:       params.Entries,
		subscriptions: params.Subscriptions,
		now:           now,
	}, nil
}

// bucketDef is a half-open slice [from, to) with its display label.
type bucketDef struct {
	label string
	from  time.Time
	to    time.Time
}

// Report returns ordered buckets for the period. Every bucket in the window
// appears even when empty, except months with no subscription coverage on the
// 15th, which are omitted entirely rather than reported as zero revenue.
func (s *service) Report(ctx context.Context, ownerID uuid.UUID, period enums.ReportPeriod) ([]Bucket, error) {
	defs, err := s.buckets(ctx, ownerID, period)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return []Bucket{}, nil
	}

	entries, err := s.entries.ListByOccurredRange(ctx, ownerID, defs[0].from, defs[len(defs)-1].to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading ledger entries for report")
	}

	buckets := make([]Bucket, len(defs))
	for i, def := range defs {
		buckets[i] = Bucket{Label: def.label, NetTotal: decimal.Zero}
	}
	for _, entry := range entries {
		for i, def := range defs {
			if !entry.OccurredAt.Before(def.from) && entry.OccurredAt.Before(def.to) {
				buckets[i].NetTotal = buckets[i].NetTotal.Add(entry.NetAmount())
				break
			}
		}
	}
	return buckets, nil
}

// Summarize totals the period window: received counts paid entries, discounts
// count every status, outstanding counts pending and overdue net amounts.
func (s *service) Summarize(ctx context.Context, ownerID uuid.UUID, period enums.ReportPeriod) (*Summary, error) {
	from, to, err := s.window(ownerID, period)
	if err != nil {
		return nil, err
	}

	entries, err := s.entries.ListByOccurredRange(ctx, ownerID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading ledger entries for summary")
	}

	summary := &Summary{
		TotalReceived:    decimal.Zero,
		TotalDiscounts:   decimal.Zero,
		TotalOutstanding: decimal.Zero,
	}
	for _, entry := range entries {
		summary.TotalDiscounts = summary.TotalDiscounts.Add(entry.Discount)
		switch entry.Status {
		case enums.PaymentStatusPaid:
			summary.TotalReceived = summary.TotalReceived.Add(entry.NetAmount())
		case enums.PaymentStatusPending, enums.PaymentStatusOverdue:
			summary.TotalOutstanding = summary.TotalOutstanding.Add(entry.NetAmount())
		}
	}
	return summary, nil
}

func (s *service) window(ownerID uuid.UUID, period enums.ReportPeriod) (time.Time, time.Time, error) {
	if ownerID == uuid.Nil {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant identity required")
	}
	if !period.IsValid() {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid report period")
	}

	today := dateOnly(s.now())
	switch period {
	case enums.ReportPeriodDaily:
		return today.AddDate(0, 0, -6), today.AddDate(0, 0, 1), nil
	case enums.ReportPeriodWeekly:
		monday := startOfISOWeek(today)
		return monday.AddDate(0, 0, -11*7), monday.AddDate(0, 0, 7), nil
	default:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return first.AddDate(0, -11, 0), first.AddDate(0, 1, 0), nil
	}
}

func (s *service) buckets(ctx context.Context, ownerID uuid.UUID, period enums.ReportPeriod) ([]bucketDef, error) {
	from, _, err := s.window(ownerID, period)
	if err != nil {
		return nil, err
	}

	switch period {
	case enums.ReportPeriodDaily:
		defs := make([]bucketDef, 0, 7)
		for i := 0; i < 7; i++ {
			day := from.AddDate(0, 0, i)
			defs = append(defs, bucketDef{
				label: day.Format("2006-01-02"),
				from:  day,
				to:    day.AddDate(0, 0, 1),
			})
		}
		return defs, nil
	case enums.ReportPeriodWeekly:
		defs := make([]bucketDef, 0, 12)
		for i := 0; i < 12; i++ {
			start := from.AddDate(0, 0, i*7)
			defs = append(defs, bucketDef{
				label: start.Format("2006-01-02"),
				from:  start,
				to:    start.AddDate(0, 0, 7),
			})
		}
		return defs, nil
	default:
		defs := make([]bucketDef, 0, 12)
		for i := 0; i < 12; i++ {
			start := from.AddDate(0, i, 0)
			covered, err := s.subscriptions.CoversDate(ctx, ownerID, start.AddDate(0, 0, 14))
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking subscription coverage")
			}
			if !covered {
				continue
			}
			defs = append(defs, bucketDef{
				label: start.Format("2006-01"),
				from:  start,
				to:    start.AddDate(0, 1, 0),
			})
		}
		return defs, nil
	}
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfISOWeek(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
