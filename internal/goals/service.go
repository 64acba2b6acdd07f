package goals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rmoralesp/clinicdesk-backend/pkg/db/models"
	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
	pkgerrors "github.com/rmoralesp/clinicdesk-backend/pkg/errors"
	"github.com/rmoralesp/clinicdesk-backend/pkg/outbox"
	"github.com/rmoralesp/clinicdesk-backend/pkg/outbox/payloads"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service manages tenant goals and their progress.
type Service interface {
	Create(ctx context.Context, input CreateGoalInput) (*models.Goal, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]models.Goal, error)
	IncrementTx(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, category enums.GoalCategory, delta decimal.Decimal) error
}

// CreateGoalInput captures the fields a new goal requires.
type CreateGoalInput struct {
	OwnerID     uuid.UUID
	Category    enums.GoalCategory
	Title       string
	TargetValue decimal.Decimal
}

// ServiceParams bundles the dependencies required to build a goal service.
type ServiceParams struct {
	Repo   Repository
	Outbox outboxPublisher
	Now    func() time.Time
}

type service struct {
	repo   Repository
	outbox outboxPublisher
	now    func() time.Time
}

// NewService wires a goal service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("goal repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, outbox: params.Outbox, now: now}, nil
}

func (s *service) Create(ctx context.Context, input CreateGoalInput) (*models.Goal, error) {
	if input.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid goal category")
	}
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !input.TargetValue.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target value must be positive")
	}

	goal := &models.Goal{
		OwnerID:     input.OwnerID,
		Category:    input.Category,
		Title:       input.Title,
		TargetValue: input.TargetValue,
		Status:      enums.GoalStatusInProgress,
	}
	if err := s.repo.Create(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *service) List(ctx context.Context, ownerID uuid.UUID) ([]models.Goal, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

// IncrementTx adds delta to every in-progress goal of the category inside the
// caller's transaction. Goals crossing their target flip to done and queue a
// goal_reached event on the same transaction.
func (s *service) IncrementTx(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, category enums.GoalCategory, delta decimal.Decimal) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	if ownerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if !category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid goal category")
	}
	if delta.IsZero() {
		return nil
	}

	repo := s.repo.WithTx(tx)
	goals, err := repo.ListActiveByCategory(ctx, ownerID, category)
	if err != nil {
		return err
	}

	now := s.now()
	for i := range goals {
		goal := &goals[i]
		goal.CurrentValue = goal.CurrentValue.Add(delta)
		reached := goal.CurrentValue.GreaterThanOrEqual(goal.TargetValue)
		if reached {
			goal.Status = enums.GoalStatusDone
		}
		if err := repo.Save(ctx, goal); err != nil {
			return err
		}
		if !reached {
			continue
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventGoalReached,
			AggregateType: enums.AggregateGoal,
			AggregateID:   goal.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.GoalReachedEvent{
				GoalID:       goal.ID,
				OwnerID:      goal.OwnerID,
				Category:     goal.Category,
				CurrentValue: goal.CurrentValue,
				TargetValue:  goal.TargetValue,
				ReachedAt:    now,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
	}
	return nil
}
