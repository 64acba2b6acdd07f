package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rmoralesp/clinicdesk-backend/internal/goals"
	"github.com/rmoralesp/clinicdesk-backend/pkg/db/models"
	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
	pkgerrors "github.com/rmoralesp/clinicdesk-backend/pkg/errors"
	"github.com/rmoralesp/clinicdesk-backend/pkg/logger"
	"github.com/rmoralesp/clinicdesk-backend/pkg/metrics"
	"github.com/rmoralesp/clinicdesk-backend/pkg/outbox"
	"github.com/rmoralesp/clinicdesk-backend/pkg/outbox/payloads"
	"github.com/rmoralesp/clinicdesk-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// PaymentIntent carries everything needed to record a payment except the
// identifier, which the writer manufactures so retries stay idempotent.
type PaymentIntent struct {
	OwnerID     uuid.UUID
	ClientID    *uuid.UUID
	BookingID   *uuid.UUID
	GrossAmount decimal.Decimal
	Discount    decimal.Decimal
	Currency    enums.Currency
	Status      enums.PaymentStatus
	OccurredAt  time.Time
	DueAt       *time.Time
	Notes       *string
	Recurrence  *enums.RecurrenceKind
}

// WriteResult reports how a payment landed. Confirmed entries passed the
// read-back existence check; reconstructed ones were synthesized from the
// intent after the store acknowledged the write but verification could not
// see it.
type WriteResult struct {
	Entry         *models.LedgerEntry
	Confirmed     bool
	Reconstructed bool
	Strategy      string
	Passes        int
}

// ListPaymentsParams filters the payment listing.
type ListPaymentsParams struct {
	OwnerID uuid.UUID
	Status  string
	From    *time.Time
	To      *time.Time
	Limit   int
	Cursor  string
}

// ListPaymentsResult is a cursor page of payments.
type ListPaymentsResult struct {
	Entries    []models.LedgerEntry
	NextCursor string
}

// Service records, settles and lists ledger entries.
type Service interface {
	RecordPayment(ctx context.Context, intent PaymentIntent) (*WriteResult, error)
	SettlePending(ctx context.Context, ownerID, entryID uuid.UUID, paidAt *time.Time) (*models.LedgerEntry, error)
	ListPayments(ctx context.Context, params ListPaymentsParams) (*ListPaymentsResult, error)
	MarkOverdue(ctx context.Context, before time.Time) (int64, error)
}

// ServiceParams bundles the dependencies required to build the ledger service.
type ServiceParams struct {
	Tx       txRunner
	Repo     Repository
	Elevated Repository
	Goals    goals.Service
	Outbox   outboxPublisher
	Logger   *logger.Logger
	Metrics  *metrics.LedgerWriteMetrics
	// MaxPasses caps end-to-end write+verify attempts per payment.
	MaxPasses int
	Now       func() time.Time
}

type service struct {
	tx        txRunner
	repo      Repository
	elevated  Repository
	verifier  *Verifier
	goals     goals.Service
	outbox    outboxPublisher
	logg      *logger.Logger
	metrics   *metrics.LedgerWriteMetrics
	maxPasses int
	now       func() time.Time
}

// NewService wires the ledger service. Elevated is optional; without it the
// chain has no last-resort rung.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Goals == nil {
		return nil, fmt.Errorf("goal service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	maxPasses := params.MaxPasses
	if maxPasses < 1 {
		maxPasses = 2
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		tx:        params.Tx,
		repo:      params.Repo,
		elevated:  params.Elevated,
		verifier:  NewVerifier(params.Repo),
		goals:     params.Goals,
		outbox:    params.Outbox,
		logg:      params.Logger,
		metrics:   params.Metrics,
		maxPasses: maxPasses,
		now:       now,
	}, nil
}

// RecordPayment persists one payment through the degrading write chain, then
// verifies it is visible to reads before confirming. A verification miss
// triggers one more end-to-end pass with the same manufactured id.
func (s *service) RecordPayment(ctx context.Context, intent PaymentIntent) (*WriteResult, error) {
	if err := s.validateIntent(&intent); err != nil {
		return nil, err
	}

	entry := s.entryFromIntent(intent, uuid.New())
	ctx = s.logg.WithFields(ctx, map[string]any{
		"entry_id": entry.ID.String(),
		"owner_id": entry.OwnerID.String(),
	})

	result, err := s.writeWithRetries(ctx, entry)
	if err != nil {
		return nil, err
	}

	if result.Confirmed {
		s.propagateSideEffects(ctx, result.Entry)
	}
	return result, nil
}

func (s *service) validateIntent(intent *PaymentIntent) error {
	if intent.OwnerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant identity required")
	}
	if intent.GrossAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "gross amount must not be negative")
	}
	if intent.Discount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
	}
	if intent.Discount.GreaterThan(intent.GrossAmount) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount must not exceed gross amount")
	}
	if intent.Currency == "" {
		intent.Currency = enums.DefaultCurrency
	}
	if !intent.Currency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}
	if intent.Status == "" {
		intent.Status = enums.PaymentStatusPending
	}
	if !intent.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}
	if intent.Recurrence != nil && !intent.Recurrence.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid recurrence kind")
	}
	if intent.OccurredAt.IsZero() {
		intent.OccurredAt = s.now()
	}
	return nil
}

func (s *service) entryFromIntent(intent PaymentIntent, id uuid.UUID) *models.LedgerEntry {
	return &models.LedgerEntry{
		ID:          id,
		OwnerID:     intent.OwnerID,
		ClientID:    intent.ClientID,
		BookingID:   intent.BookingID,
		GrossAmount: intent.GrossAmount,
		Discount:    intent.Discount,
		Currency:    intent.Currency,
		Status:      intent.Status,
		OccurredAt:  intent.OccurredAt,
		DueAt:       intent.DueAt,
		Notes:       intent.Notes,
		Recurrence:  intent.Recurrence,
	}
}

func (s *service) writeWithRetries(ctx context.Context, entry *models.LedgerEntry) (*WriteResult, error) {
	chain := s.buildChain()

	var lastStrategy string
	var lastVerifyErr error
	for pass := 1; pass <= s.maxPasses; pass++ {
		strategy, err := s.runChain(ctx, chain, entry)
		if err != nil {
			return nil, err
		}
		lastStrategy = strategy

		confirmed, verr := s.verifier.Confirm(ctx, entry.OwnerID, entry.ID)
		lastVerifyErr = verr
		if verr != nil {
			s.logg.Error(ctx, "ledger verification read failed", verr)
			s.metrics.ObserveVerification("error")
			continue
		}
		if confirmed {
			s.metrics.ObserveVerification("confirmed")
			stored, rerr := s.repo.FindByID(ctx, entry.OwnerID, entry.ID)
			if rerr != nil || stored == nil {
				if rerr != nil {
					s.logg.Error(ctx, "ledger read-back failed, returning reconstructed entry", rerr)
				}
				return &WriteResult{
					Entry:         entry,
					Confirmed:     true,
					Reconstructed: true,
					Strategy:      strategy,
					Passes:        pass,
				}, nil
			}
			return &WriteResult{
				Entry:     stored,
				Confirmed: true,
				Strategy:  strategy,
				Passes:    pass,
			}, nil
		}
		s.metrics.ObserveVerification("missing")
		s.logg.Warn(ctx, "ledger write acknowledged but not visible, retrying")
	}

	if lastVerifyErr != nil {
		// The store acknowledged the write but the verification read itself
		// kept failing, so absence was never established. Surface the intent
		// as an unconfirmed, reconstructed entry rather than discarding a
		// possibly durable financial record.
		s.logg.Warn(ctx, "ledger write unverifiable, returning reconstructed entry")
		return &WriteResult{
			Entry:         entry,
			Confirmed:     false,
			Reconstructed: true,
			Strategy:      lastStrategy,
			Passes:        s.maxPasses,
		}, nil
	}

	// Every pass read back a clean zero count. The write never became durable.
	return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger write not visible after all passes")
}

func (s *service) buildChain() []writeStrategy {
	chain := []writeStrategy{
		{
			name: strategyFull,
			run: func(ctx context.Context, entry *models.LedgerEntry) (writeOutcome, error) {
				return classifyFullInsertError(s.repo.Insert(ctx, entry)), nil
			},
		},
		{
			name: strategyMinimal,
			run: func(ctx context.Context, entry *models.LedgerEntry) (writeOutcome, error) {
				outcome := classifyWriteError(s.repo.InsertMinimal(ctx, entry))
				if outcome != outcomeSuccess {
					return outcome, nil
				}
				if err := s.repo.PatchOptional(ctx, entry.OwnerID, entry.ID, optionalFields(entry)); err != nil {
					// Optional data loss is acceptable, financial-record loss is not.
					s.logg.Error(ctx, "ledger optional-field patch failed", err)
				}
				return outcomeSuccess, nil
			},
		},
	}
	if s.elevated != nil {
		chain = append(chain, writeStrategy{
			name: strategyElevated,
			run: func(ctx context.Context, entry *models.LedgerEntry) (writeOutcome, error) {
				s.logg.Warn(ctx, "ledger falling back to elevated-privilege write")
				return classifyWriteError(s.elevated.Insert(ctx, entry)), nil
			},
		})
	}
	return chain
}

func (s *service) runChain(ctx context.Context, chain []writeStrategy, entry *models.LedgerEntry) (string, error) {
	for i := 0; i < len(chain); i++ {
		strategy := chain[i]
		outcome, err := strategy.run(ctx, entry)
		if err != nil {
			return "", err
		}
		switch outcome {
		case outcomeSuccess:
			s.metrics.ObserveStrategy(strategy.name, "success")
			return strategy.name, nil
		case outcomeFatal:
			s.metrics.ObserveStrategy(strategy.name, "fatal")
			next := elevatedIndex(chain, i+1)
			if next < 0 {
				return "", pkgerrors.New(pkgerrors.CodeDependency, "ledger write failed")
			}
			i = next - 1
		default:
			s.metrics.ObserveStrategy(strategy.name, "degraded")
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeDependency, "all ledger write strategies exhausted")
}

func elevatedIndex(chain []writeStrategy, from int) int {
	for i := from; i < len(chain); i++ {
		if chain[i].name == strategyElevated {
			return i
		}
	}
	return -1
}

// propagateSideEffects applies goal increments and queues the recorded event.
// Failures are logged, never rolled back onto the ledger write.
func (s *service) propagateSideEffects(ctx context.Context, entry *models.LedgerEntry) {
	net := entry.NetAmount()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.goals.IncrementTx(ctx, tx, entry.OwnerID, enums.GoalCategoryBilling, net); err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventPaymentRecorded,
			AggregateType: enums.AggregateLedgerEntry,
			AggregateID:   entry.ID,
			Version:       1,
			OccurredAt:    s.now(),
			Data: payloads.PaymentRecordedEvent{
				EntryID:     entry.ID,
				OwnerID:     entry.OwnerID,
				ClientID:    entry.ClientID,
				BookingID:   entry.BookingID,
				GrossAmount: entry.GrossAmount,
				NetAmount:   net,
				Currency:    entry.Currency,
				Status:      entry.Status,
				OccurredAt:  entry.OccurredAt,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		s.logg.Error(ctx, "ledger side-effect propagation failed", err)
	}
}

// SettlePending transitions a pending or overdue entry to paid. Settling an
// already-paid entry is an idempotent no-op.
func (s *service) SettlePending(ctx context.Context, ownerID, entryID uuid.UUID, paidAt *time.Time) (*models.LedgerEntry, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant identity required")
	}
	if entryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entry id is required")
	}

	entry, err := s.repo.FindByID(ctx, ownerID, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ledger entry not found")
	}
	if entry.Status == enums.PaymentStatusPaid {
		return entry, nil
	}
	if entry.Status == enums.PaymentStatusRefunded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "refunded entries cannot be settled")
	}

	previous := entry.Status
	settledAt := s.now()
	if paidAt != nil {
		settledAt = *paidAt
	}
	entry.Status = enums.PaymentStatusPaid
	entry.OccurredAt = settledAt

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Save(ctx, entry); err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventPaymentSettled,
			AggregateType: enums.AggregateLedgerEntry,
			AggregateID:   entry.ID,
			Version:       1,
			OccurredAt:    settledAt,
			Data: payloads.PaymentSettledEvent{
				EntryID:        entry.ID,
				OwnerID:        entry.OwnerID,
				PreviousStatus: previous,
				NetAmount:      entry.NetAmount(),
				SettledAt:      settledAt,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) ListPayments(ctx context.Context, params ListPaymentsParams) (*ListPaymentsResult, error) {
	if params.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant identity required")
	}

	query := ListEntriesQuery{
		OwnerID: params.OwnerID,
		From:    params.From,
		To:      params.To,
		Limit:   params.Limit,
	}
	if params.Status != "" {
		status, err := enums.ParsePaymentStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status filter")
		}
		query.Status = &status
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	entries, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, err
	}
	result := &ListPaymentsResult{Entries: entries}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

// MarkOverdue flips pending entries past their due date to overdue.
func (s *service) MarkOverdue(ctx context.Context, before time.Time) (int64, error) {
	return s.repo.MarkOverdue(ctx, before)
}
