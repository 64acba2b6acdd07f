package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rmoralesp/clinicdesk-backend/internal/goals"
	"github.com/rmoralesp/clinicdesk-backend/internal/quotas"
	"github.com/rmoralesp/clinicdesk-backend/internal/recurrence"
	"github.com/rmoralesp/clinicdesk-backend/pkg/db/models"
	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
	pkgerrors "github.com/rmoralesp/clinicdesk-backend/pkg/errors"
	"github.com/rmoralesp/clinicdesk-backend/pkg/logger"
	"github.com/rmoralesp/clinicdesk-backend/pkg/outbox"
	"github.com/rmoralesp/clinicdesk-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CreateParams describes a booking request before recurrence expansion.
type CreateParams struct {
	OwnerID         uuid.UUID
	ClientID        uuid.UUID
	StaffID         uuid.UUID
	Date            time.Time
	StartTime       string
	DurationMinutes int
	Notes           *string
	Recurrence      *recurrence.Rule
}

// CompleteParams finalizes a booking into a billable session.
type CompleteParams struct {
	OwnerID   uuid.UUID
	BookingID uuid.UUID
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
}

// Service creates and completes bookings.
type Service interface {
	Create(ctx context.Context, params CreateParams) ([]models.Booking, error)
	Complete(ctx context.Context, params CompleteParams) (*models.Booking, error)
	ListByDateRange(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.Booking, error)
}

// ServiceParams bundles the booking service dependencies.
type ServiceParams struct {
	Tx     txRunner
	Repo   Repository
	Quotas quotas.Service
	Goals  goals.Service
	Outbox outboxPublisher
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	tx     txRunner
	repo   Repository
	quotas quotas.Service
	goals  goals.Service
	outbox outboxPublisher
	logg   *logger.Logger
	now    func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if params.Quotas == nil {
		return nil, fmt.Errorf("quota service required")
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
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		tx:     params.Tx,
		repo:   params.Repo,
		quotas: params.Quotas,
		goals:  params.Goals,
		outbox: params.Outbox,
		logg:   params.Logger,
		now:    now,
	}, nil
}

// Create expands the recurrence rule, gates the batch against the monthly
// booking quota, and persists every occurrence in one transaction. Either the
// whole batch lands or none of it does.
func (s *service) Create(ctx context.Context, params CreateParams) ([]models.Booking, error) {
	if err := validateCreate(params); err != nil {
		return nil, err
	}

	rule := recurrence.Rule{Kind: enums.RecurrenceKindDaily, Count: 1}
	if params.Recurrence != nil {
		rule = *params.Recurrence
	}
	dates, err := recurrence.Expand(params.Date, rule)
	if err != nil {
		return nil, err
	}

	if err := s.quotas.CheckQuota(ctx, params.OwnerID, enums.QuotaDimensionMonthlyBookings, len(dates)); err != nil {
		return nil, err
	}

	batch := make([]models.Booking, 0, len(dates))
	for _, date := range dates {
		batch = append(batch, models.Booking{
			ID:              uuid.New(),
			OwnerID:         params.OwnerID,
			ClientID:        params.ClientID,
			StaffID:         params.StaffID,
			Date:            date,
			StartTime:       params.StartTime,
			DurationMinutes: params.DurationMinutes,
			Status:          enums.BookingStatusScheduled,
			Notes:           params.Notes,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).InsertBatch(ctx, batch); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting booking batch")
		}
		var kind *enums.RecurrenceKind
		if params.Recurrence != nil {
			kind = &params.Recurrence.Kind
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventBookingCreated,
			AggregateType: enums.AggregateBooking,
			AggregateID:   batch[0].ID,
			Version:       1,
			OccurredAt:    s.now(),
			Data: payloads.BookingCreatedEvent{
				BookingID:  batch[0].ID,
				OwnerID:    params.OwnerID,
				ClientID:   params.ClientID,
				StaffID:    params.StaffID,
				Date:       batch[0].Date.Format("2006-01-02"),
				StartTime:  params.StartTime,
				Recurrence: kind,
				BatchSize:  len(batch),
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func validateCreate(params CreateParams) error {
	if params.OwnerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant identity required")
	}
	if params.ClientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	if params.StaffID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "staff id is required")
	}
	if params.Date.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking date is required")
	}
	if _, err := time.Parse("15:04", params.StartTime); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "start time must be HH:MM")
	}
	if params.DurationMinutes <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "duration must be positive")
	}
	return nil
}

// Complete transitions a scheduled booking to completed and materializes its
// session. Completing an already-completed booking returns it unchanged;
// cancelled bookings never produce a session.
func (s *service) Complete(ctx context.Context, params CompleteParams) (*models.Booking, error) {
	if params.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant identity required")
	}
	if params.BookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}
	if params.UnitPrice.IsNegative() || params.Discount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price and discount must not be negative")
	}
	if params.Discount.GreaterThan(params.UnitPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must not exceed unit price")
	}

	booking, err := s.repo.FindByID(ctx, params.OwnerID, params.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}
	if booking.Status == enums.BookingStatusCompleted {
		return booking, nil
	}
	if booking.Status == enums.BookingStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled bookings cannot be completed")
	}

	completedAt := s.now()
	booking.Status = enums.BookingStatusCompleted

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Save(ctx, booking); err != nil {
			return err
		}

		existing, err := repo.FindSessionByBooking(ctx, params.OwnerID, booking.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		session := &models.Session{
			ID:        uuid.New(),
			OwnerID:   booking.OwnerID,
			BookingID: booking.ID,
			ClientID:  booking.ClientID,
			UnitPrice: params.UnitPrice,
			Discount:  params.Discount,
			HeldAt:    completedAt,
		}
		if err := repo.InsertSession(ctx, session); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventBookingCompleted,
			AggregateType: enums.AggregateBooking,
			AggregateID:   booking.ID,
			Version:       1,
			OccurredAt:    completedAt,
			Data: payloads.BookingCompletedEvent{
				BookingID:   booking.ID,
				OwnerID:     booking.OwnerID,
				ClientID:    booking.ClientID,
				SessionID:   session.ID,
				CompletedAt: completedAt,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	s.propagateSchedulingGoal(ctx, booking.OwnerID)
	return booking, nil
}

// propagateSchedulingGoal bumps in-progress scheduling goals by one completed
// booking. Failures are logged, never surfaced to the caller.
func (s *service) propagateSchedulingGoal(ctx context.Context, ownerID uuid.UUID) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.goals.IncrementTx(ctx, tx, ownerID, enums.GoalCategoryScheduling, decimal.NewFromInt(1))
	})
	if err != nil {
		s.logg.Error(ctx, "scheduling goal increment failed", err)
	}
}

func (s *service) ListByDateRange(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.Booking, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant identity required")
	}
	return s.repo.ListByDateRange(ctx, ownerID, from, to)
}
