package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesp/clinicdesk-backend/pkg/db/models"
	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
	pkgerrors "github.com/rmoralesp/clinicdesk-backend/pkg/errors"
)

type stubEntries struct {
	rows         []models.LedgerEntry
	err          error
	capturedFrom time.Time
	capturedTo   time.Time
}

func (s *stubEntries) ListByOccurredRange(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.LedgerEntry, error) {
	s.capturedFrom = from
	s.capturedTo = to
	return s.rows, s.err
}

type stubSubscriptions struct {
	coveredDates map[string]bool
	coverAll     bool
	checked      []time.Time
}

func (s *stubSubscriptions) CoversDate(ctx context.Context, ownerID uuid.UUID, date time.Time) (bool, error) {
	s.checked = append(s.checked, date)
	if s.coverAll {
		return true, nil
	}
	return s.coveredDates[date.Format("2006-01")], nil
}

// now pins the reporting window to Wednesday 2025-05-21.
func fixedNow() time.Time {
	return time.Date(2025, time.May, 21, 10, 30, 0, 0, time.UTC)
}

func newTestService(t *testing.T, entries *stubEntries, subs *stubSubscriptions) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Entries:       entries,
		Subscriptions: subs,
		Now:           fixedNow,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func entryAt(occurred time.Time, gross, discount int64, status enums.PaymentStatus) models.LedgerEntry {
	return models.LedgerEntry{
		ID:          uuid.New(),
		GrossAmount: decimal.NewFromInt(gross),
		Discount:    decimal.NewFromInt(discount),
		Status:      status,
		OccurredAt:  occurred,
	}
}

func TestDailyReportEmitsSevenBucketsWithZeroes(t *testing.T) {
	entries := &stubEntries{rows: []models.LedgerEntry{
		entryAt(time.Date(2025, time.May, 15, 9, 0, 0, 0, time.UTC), 100, 0, enums.PaymentStatusPaid),
		entryAt(time.Date(2025, time.May, 17, 14, 0, 0, 0, time.UTC), 50, 10, enums.PaymentStatusPending),
	}}
	svc := newTestService(t, entries, &stubSubscriptions{coverAll: true})

	buckets, err := svc.Report(context.Background(), uuid.New(), enums.ReportPeriodDaily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buckets) != 7 {
		t.Fatalf("expected 7 buckets got %d", len(buckets))
	}
	if buckets[0].Label != "2025-05-15" || buckets[6].Label != "2025-05-21" {
		t.Fatalf("unexpected bucket range: %s .. %s", buckets[0].Label, buckets[6].Label)
	}
	if !buckets[0].NetTotal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected 100 on first day got %s", buckets[0].NetTotal)
	}
	if !buckets[2].NetTotal.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected net 40 on May 17 got %s", buckets[2].NetTotal)
	}
	for _, i := range []int{1, 3, 4, 5, 6} {
		if !buckets[i].NetTotal.IsZero() {
			t.Fatalf("expected empty bucket %d to be zero", i)
		}
	}
}

func TestWeeklyReportStartsMondays(t *testing.T) {
	entries := &stubEntries{}
	svc := newTestService(t, entries, &stubSubscriptions{coverAll: true})

	buckets, err := svc.Report(context.Background(), uuid.New(), enums.ReportPeriodWeekly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buckets) != 12 {
		t.Fatalf("expected 12 buckets got %d", len(buckets))
	}
	// 2025-05-21 is a Wednesday, so the current week starts 2025-05-19.
	if buckets[11].Label != "2025-05-19" {
		t.Fatalf("expected last bucket 2025-05-19 got %s", buckets[11].Label)
	}
	if buckets[0].Label != "2025-03-03" {
		t.Fatalf("expected first bucket 2025-03-03 got %s", buckets[0].Label)
	}
	for _, b := range buckets {
		start, err := time.Parse("2006-01-02", b.Label)
		if err != nil {
			t.Fatalf("bad label %q: %v", b.Label, err)
		}
		if start.Weekday() != time.Monday {
			t.Fatalf("bucket %s does not start on Monday", b.Label)
		}
	}
}

func TestMonthlyReportOmitsUncoveredMonths(t *testing.T) {
	subs := &stubSubscriptions{coveredDates: map[string]bool{
		"2025-03": true,
		"2025-04": true,
		"2025-05": true,
	}}
	entries := &stubEntries{rows: []models.LedgerEntry{
		entryAt(time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC), 300, 0, enums.PaymentStatusPaid),
	}}
	svc := newTestService(t, entries, subs)

	buckets, err := svc.Report(context.Background(), uuid.New(), enums.ReportPeriodMonthly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buckets) != 3 {
		t.Fatalf("expected 3 covered months got %d", len(buckets))
	}
	if buckets[0].Label != "2025-03" || buckets[2].Label != "2025-05" {
		t.Fatalf("unexpected labels: %v", buckets)
	}
	if !buckets[1].NetTotal.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected April total 300 got %s", buckets[1].NetTotal)
	}
	if len(subs.checked) != 12 {
		t.Fatalf("expected every month checked, got %d checks", len(subs.checked))
	}
	for _, checked := range subs.checked {
		if checked.Day() != 15 {
			t.Fatalf("coverage must be checked on the 15th, got %s", checked)
		}
	}
}

func TestSummaryTotals(t *testing.T) {
	entries := &stubEntries{rows: []models.LedgerEntry{
		entryAt(time.Date(2025, time.May, 16, 0, 0, 0, 0, time.UTC), 100, 20, enums.PaymentStatusPaid),
		entryAt(time.Date(2025, time.May, 17, 0, 0, 0, 0, time.UTC), 60, 10, enums.PaymentStatusPending),
		entryAt(time.Date(2025, time.May, 18, 0, 0, 0, 0, time.UTC), 40, 0, enums.PaymentStatusOverdue),
		entryAt(time.Date(2025, time.May, 19, 0, 0, 0, 0, time.UTC), 30, 5, enums.PaymentStatusRefunded),
	}}
	svc := newTestService(t, entries, &stubSubscriptions{coverAll: true})

	summary, err := svc.Summarize(context.Background(), uuid.New(), enums.ReportPeriodDaily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !summary.TotalReceived.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("expected received 80 got %s", summary.TotalReceived)
	}
	if !summary.TotalDiscounts.Equal(decimal.NewFromInt(35)) {
		t.Fatalf("expected discounts 35 got %s", summary.TotalDiscounts)
	}
	if !summary.TotalOutstanding.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("expected outstanding 90 got %s", summary.TotalOutstanding)
	}
}

func TestReportValidation(t *testing.T) {
	svc := newTestService(t, &stubEntries{}, &stubSubscriptions{coverAll: true})

	if _, err := svc.Report(context.Background(), uuid.Nil, enums.ReportPeriodDaily); pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for missing owner, got %v", err)
	}
	if _, err := svc.Report(context.Background(), uuid.New(), enums.ReportPeriod("hourly")); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for unknown period, got %v", err)
	}
}

func TestReportDependencyFailure(t *testing.T) {
	entries := &stubEntries{err: errors.New("db down")}
	svc := newTestService(t, entries, &stubSubscriptions{coverAll: true})

	_, err := svc.Report(context.Background(), uuid.New(), enums.ReportPeriodDaily)
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error got %v", err)
	}
}
