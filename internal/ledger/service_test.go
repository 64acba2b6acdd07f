package ledger

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rmoralesp/clinicdesk-backend/internal/goals"
	"github.com/rmoralesp/clinicdesk-backend/pkg/db/models"
	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
	pkgerrors "github.com/rmoralesp/clinicdesk-backend/pkg/errors"
	"github.com/rmoralesp/clinicdesk-backend/pkg/logger"
	"github.com/rmoralesp/clinicdesk-backend/pkg/outbox"
	"github.com/rmoralesp/clinicdesk-backend/pkg/pagination"
)

var errDuplicatePK = errors.New(`duplicate key value violates unique constraint "ledger_entries_pkey"`)

type stubRepo struct {
	insertErrs     []error
	inserts        int
	minimalErrs    []error
	minimalInserts int
	patchErr       error
	patches        int
	countResults   []int64
	countErr       error
	counts         int
	stored         *models.LedgerEntry
	findErr        error
	saved          []models.LedgerEntry
	listRows       []models.LedgerEntry
	listNext       *pagination.Cursor
	capturedQuery  ListEntriesQuery
	overdue        int64
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Insert(ctx context.Context, entry *models.LedgerEntry) error {
	idx := s.inserts
	s.inserts++
	if idx < len(s.insertErrs) {
		return s.insertErrs[idx]
	}
	return nil
}

func (s *stubRepo) InsertMinimal(ctx context.Context, entry *models.LedgerEntry) error {
	idx := s.minimalInserts
	s.minimalInserts++
	if idx < len(s.minimalErrs) {
		return s.minimalErrs[idx]
	}
	return nil
}

func (s *stubRepo) PatchOptional(ctx context.Context, ownerID, id uuid.UUID, fields map[string]any) error {
	s.patches++
	return s.patchErr
}

func (s *stubRepo) CountByID(ctx context.Context, ownerID, id uuid.UUID) (int64, error) {
	idx := s.counts
	s.counts++
	if s.countErr != nil {
		return 0, s.countErr
	}
	if idx < len(s.countResults) {
		return s.countResults[idx], nil
	}
	return 1, nil
}

func (s *stubRepo) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*models.LedgerEntry, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.stored, nil
}

func (s *stubRepo) List(ctx context.Context, query ListEntriesQuery) ([]models.LedgerEntry, *pagination.Cursor, error) {
	s.capturedQuery = query
	return s.listRows, s.listNext, nil
}

func (s *stubRepo) ListByOccurredRange(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.LedgerEntry, error) {
	return nil, nil
}

func (s *stubRepo) Save(ctx context.Context, entry *models.LedgerEntry) error {
	s.saved = append(s.saved, *entry)
	return nil
}

func (s *stubRepo) MarkOverdue(ctx context.Context, before time.Time) (int64, error) {
	return s.overdue, nil
}

type stubTx struct{}

func (s *stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubGoals struct {
	increments []decimal.Decimal
	err        error
}

func (s *stubGoals) Create(ctx context.Context, input goals.CreateGoalInput) (*models.Goal, error) {
	return nil, nil
}

func (s *stubGoals) List(ctx context.Context, ownerID uuid.UUID) ([]models.Goal, error) {
	return nil, nil
}

func (s *stubGoals) IncrementTx(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, category enums.GoalCategory, delta decimal.Decimal) error {
	if s.err != nil {
		return s.err
	}
	s.increments = append(s.increments, delta)
	return nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
	err    error
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

type fixture struct {
	repo     *stubRepo
	elevated *stubRepo
	goals    *stubGoals
	box      *stubOutbox
	svc      Service
}

func newFixture(t *testing.T, repo *stubRepo, opts ...func(*ServiceParams)) *fixture {
	t.Helper()
	f := &fixture{
		repo:  repo,
		goals: &stubGoals{},
		box:   &stubOutbox{},
	}
	params := ServiceParams{
		Tx:     &stubTx{},
		Repo:   repo,
		Goals:  f.goals,
		Outbox: f.box,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Now:    func() time.Time { return time.Date(2025, time.May, 20, 9, 0, 0, 0, time.UTC) },
	}
	for _, opt := range opts {
		opt(&params)
	}
	svc, err := NewService(params)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	f.svc = svc
	if params.Elevated != nil {
		f.elevated = params.Elevated.(*stubRepo)
	}
	return f
}

func validIntent() PaymentIntent {
	return PaymentIntent{
		OwnerID:     uuid.New(),
		GrossAmount: decimal.NewFromInt(200),
		Discount:    decimal.NewFromInt(20),
	}
}

func TestRecordPaymentFullStrategyConfirmed(t *testing.T) {
	stored := &models.LedgerEntry{
		ID:          uuid.New(),
		GrossAmount: decimal.NewFromInt(200),
		Discount:    decimal.NewFromInt(20),
		Status:      enums.PaymentStatusPending,
	}
	f := newFixture(t, &stubRepo{stored: stored})

	result, err := f.svc.RecordPayment(context.Background(), validIntent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Confirmed || result.Reconstructed {
		t.Fatalf("expected confirmed result, got %+v", result)
	}
	if result.Strategy != strategyFull {
		t.Fatalf("expected full strategy got %s", result.Strategy)
	}
	if result.Passes != 1 {
		t.Fatalf("expected single pass got %d", result.Passes)
	}
	if len(f.goals.increments) != 1 || !f.goals.increments[0].Equal(decimal.NewFromInt(180)) {
		t.Fatalf("expected net-amount goal increment, got %v", f.goals.increments)
	}
	if len(f.box.events) != 1 || f.box.events[0].EventType != enums.EventPaymentRecorded {
		t.Fatalf("expected payment_recorded event")
	}
}

func TestRecordPaymentDegradesToMinimalAndToleratesPatchFailure(t *testing.T) {
	repo := &stubRepo{
		insertErrs: []error{errors.New(`column "recurrence" of relation "ledger_entries" does not exist`)},
		patchErr:   errors.New("patch failed"),
	}
	f := newFixture(t, repo)

	result, err := f.svc.RecordPayment(context.Background(), validIntent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Strategy != strategyMinimal {
		t.Fatalf("expected minimal strategy got %s", result.Strategy)
	}
	if repo.patches != 1 {
		t.Fatalf("expected an optional-field patch attempt")
	}
}

func TestRecordPaymentElevatedLastResort(t *testing.T) {
	repo := &stubRepo{
		insertErrs:  []error{errors.New(`column "recurrence" of relation "ledger_entries" does not exist`)},
		minimalErrs: []error{errors.New(`null value in column "owner_id"`)},
	}
	elevated := &stubRepo{}
	f := newFixture(t, repo, func(p *ServiceParams) { p.Elevated = elevated })

	result, err := f.svc.RecordPayment(context.Background(), validIntent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Strategy != strategyElevated {
		t.Fatalf("expected elevated strategy got %s", result.Strategy)
	}
	if repo.minimalInserts != 1 {
		t.Fatalf("expected the minimal rung to run before elevated")
	}
	if f.elevated.inserts != 1 {
		t.Fatalf("expected elevated insert")
	}
}

func TestRecordPaymentConstraintFailureSkipsMinimal(t *testing.T) {
	repo := &stubRepo{
		insertErrs: []error{errors.New(`null value in column "status" violates not-null constraint`)},
	}
	elevated := &stubRepo{}
	f := newFixture(t, repo, func(p *ServiceParams) { p.Elevated = elevated })

	result, err := f.svc.RecordPayment(context.Background(), validIntent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Strategy != strategyElevated {
		t.Fatalf("expected elevated strategy got %s", result.Strategy)
	}
	if repo.minimalInserts != 0 {
		t.Fatalf("minimal rung must not run for non-column failures, got %d inserts", repo.minimalInserts)
	}
}

func TestRecordPaymentConstraintFailureWithoutElevatedFails(t *testing.T) {
	repo := &stubRepo{
		insertErrs: []error{errors.New(`null value in column "status" violates not-null constraint`)},
	}
	f := newFixture(t, repo)

	_, err := f.svc.RecordPayment(context.Background(), validIntent())
	if err == nil {
		t.Fatal("expected persistence failure")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if repo.minimalInserts != 0 {
		t.Fatalf("minimal rung must not run for non-column failures")
	}
}

func TestRecordPaymentAllStrategiesExhausted(t *testing.T) {
	missingColumn := errors.New(`column "recurrence" of relation "ledger_entries" does not exist`)
	repo := &stubRepo{
		insertErrs:  []error{missingColumn, missingColumn},
		minimalErrs: []error{errors.New("down"), errors.New("down")},
	}
	f := newFixture(t, repo)

	_, err := f.svc.RecordPayment(context.Background(), validIntent())
	if err == nil {
		t.Fatal("expected persistence failure")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(f.goals.increments) != 0 || len(f.box.events) != 0 {
		t.Fatalf("no side effects expected on hard failure")
	}
}

func TestRecordPaymentRetriesWhenVerificationMisses(t *testing.T) {
	stored := &models.LedgerEntry{ID: uuid.New()}
	repo := &stubRepo{
		countResults: []int64{0, 1},
		insertErrs:   []error{nil, errDuplicatePK},
		stored:       stored,
	}
	f := newFixture(t, repo)

	result, err := f.svc.RecordPayment(context.Background(), validIntent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Confirmed {
		t.Fatalf("expected confirmed result after retry")
	}
	if result.Passes != 2 {
		t.Fatalf("expected two passes got %d", result.Passes)
	}
	if repo.inserts != 2 {
		t.Fatalf("expected the id to be reused for a second insert, got %d inserts", repo.inserts)
	}
}

func TestRecordPaymentFailsWhenNoPassVerifies(t *testing.T) {
	repo := &stubRepo{countResults: []int64{0, 0}}
	f := newFixture(t, repo)

	_, err := f.svc.RecordPayment(context.Background(), validIntent())
	if err == nil {
		t.Fatal("expected persistence failure")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if repo.inserts != 2 {
		t.Fatalf("expected both passes to run, got %d inserts", repo.inserts)
	}
	if len(f.goals.increments) != 0 {
		t.Fatalf("no goal increments expected for an unverified write, got %v", f.goals.increments)
	}
	if len(f.box.events) != 0 {
		t.Fatalf("no outbox events expected for an unverified write, got %d", len(f.box.events))
	}
}

func TestRecordPaymentVerificationErrorReturnsUnconfirmed(t *testing.T) {
	repo := &stubRepo{countErr: errors.New("read replica down")}
	f := newFixture(t, repo)

	intent := validIntent()
	result, err := f.svc.RecordPayment(context.Background(), intent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Confirmed {
		t.Fatalf("expected unconfirmed result")
	}
	if !result.Reconstructed {
		t.Fatalf("expected reconstructed entry")
	}
	if !result.Entry.GrossAmount.Equal(intent.GrossAmount) {
		t.Fatalf("reconstructed entry should carry the intent fields")
	}
	if len(f.goals.increments) != 0 || len(f.box.events) != 0 {
		t.Fatalf("side effects must wait for a confirmed write")
	}
}

func TestRecordPaymentReadBackFailureReturnsReconstructedConfirmed(t *testing.T) {
	repo := &stubRepo{findErr: errors.New("read path degraded")}
	f := newFixture(t, repo)

	result, err := f.svc.RecordPayment(context.Background(), validIntent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Confirmed || !result.Reconstructed {
		t.Fatalf("expected confirmed reconstructed result, got %+v", result)
	}
}

func TestRecordPaymentSideEffectFailureDoesNotFailWrite(t *testing.T) {
	stored := &models.LedgerEntry{ID: uuid.New()}
	f := newFixture(t, &stubRepo{stored: stored})
	f.goals.err = errors.New("goal update failed")

	if _, err := f.svc.RecordPayment(context.Background(), validIntent()); err != nil {
		t.Fatalf("side-effect failure must not fail the write: %v", err)
	}
}

func TestRecordPaymentValidation(t *testing.T) {
	f := newFixture(t, &stubRepo{})

	cases := []struct {
		name   string
		intent PaymentIntent
		code   pkgerrors.Code
	}{
		{"missing owner", PaymentIntent{GrossAmount: decimal.NewFromInt(1)}, pkgerrors.CodeUnauthorized},
		{"negative gross", PaymentIntent{OwnerID: uuid.New(), GrossAmount: decimal.NewFromInt(-1)}, pkgerrors.CodeValidation},
		{"discount exceeds gross", PaymentIntent{OwnerID: uuid.New(), GrossAmount: decimal.NewFromInt(10), Discount: decimal.NewFromInt(11)}, pkgerrors.CodeValidation},
		{"bad currency", PaymentIntent{OwnerID: uuid.New(), GrossAmount: decimal.NewFromInt(10), Currency: "XYZ"}, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.RecordPayment(context.Background(), tc.intent)
			if err == nil {
				t.Fatal("expected error")
			}
			if pkgerrors.As(err).Code() != tc.code {
				t.Fatalf("expected %s got %v", tc.code, err)
			}
		})
	}
	if f.repo.inserts != 0 {
		t.Fatalf("validation failures must reject before any write")
	}
}

func TestSettlePendingTransitionsToPaid(t *testing.T) {
	ownerID := uuid.New()
	entry := &models.LedgerEntry{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		GrossAmount: decimal.NewFromInt(100),
		Status:      enums.PaymentStatusOverdue,
	}
	repo := &stubRepo{stored: entry}
	f := newFixture(t, repo)

	paidAt := time.Date(2025, time.May, 19, 15, 0, 0, 0, time.UTC)
	settled, err := f.svc.SettlePending(context.Background(), ownerID, entry.ID, &paidAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settled.Status != enums.PaymentStatusPaid {
		t.Fatalf("expected paid status got %s", settled.Status)
	}
	if !settled.OccurredAt.Equal(paidAt) {
		t.Fatalf("expected occurred_at stamped with paid_at")
	}
	if len(repo.saved) != 1 {
		t.Fatalf("expected one save")
	}
	if len(f.box.events) != 1 || f.box.events[0].EventType != enums.EventPaymentSettled {
		t.Fatalf("expected payment_settled event")
	}
}

func TestSettlePendingAlreadyPaidIsNoop(t *testing.T) {
	ownerID := uuid.New()
	entry := &models.LedgerEntry{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Status:  enums.PaymentStatusPaid,
	}
	repo := &stubRepo{stored: entry}
	f := newFixture(t, repo)

	settled, err := f.svc.SettlePending(context.Background(), ownerID, entry.ID, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settled.ID != entry.ID {
		t.Fatalf("expected the same entry back")
	}
	if len(repo.saved) != 0 {
		t.Fatalf("no save expected for already-paid entry")
	}
	if len(f.box.events) != 0 {
		t.Fatalf("no event expected for no-op settlement")
	}
}

func TestSettlePendingRefundedRejected(t *testing.T) {
	ownerID := uuid.New()
	entry := &models.LedgerEntry{ID: uuid.New(), OwnerID: ownerID, Status: enums.PaymentStatusRefunded}
	f := newFixture(t, &stubRepo{stored: entry})

	_, err := f.svc.SettlePending(context.Background(), ownerID, entry.ID, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestSettlePendingNotFound(t *testing.T) {
	f := newFixture(t, &stubRepo{})

	_, err := f.svc.SettlePending(context.Background(), uuid.New(), uuid.New(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestListPaymentsInvalidCursor(t *testing.T) {
	f := newFixture(t, &stubRepo{})
	_, err := f.svc.ListPayments(context.Background(), ListPaymentsParams{
		OwnerID: uuid.New(),
		Cursor:  "not-a-cursor",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestListPaymentsEncodesNextCursor(t *testing.T) {
	next := &pagination.Cursor{CreatedAt: time.Now().UTC(), ID: uuid.New()}
	repo := &stubRepo{
		listRows: []models.LedgerEntry{{ID: uuid.New()}},
		listNext: next,
	}
	f := newFixture(t, repo)

	result, err := f.svc.ListPayments(context.Background(), ListPaymentsParams{
		OwnerID: uuid.New(),
		Status:  "pending",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NextCursor == "" {
		t.Fatalf("expected next cursor")
	}
	if repo.capturedQuery.Status == nil || *repo.capturedQuery.Status != enums.PaymentStatusPending {
		t.Fatalf("status filter not forwarded")
	}
}
