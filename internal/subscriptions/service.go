package subscriptions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rmoralesp/clinicdesk-backend/pkg/db/models"
	pkgerrors "github.com/rmoralesp/clinicdesk-backend/pkg/errors"
)

// Service resolves the plan and coverage windows behind a tenant's subscription.
type Service interface {
	CurrentPlan(ctx context.Context, ownerID uuid.UUID, at time.Time) (*models.Plan, error)
	CoversDate(ctx context.Context, ownerID uuid.UUID, date time.Time) (bool, error)
}

type service struct {
	repo Repository
}

// NewService wires a subscription service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	return &service{repo: repo}, nil
}

// CurrentPlan returns the plan of the subscription covering the given instant.
// Tenants without a covering subscription fall back to the default plan.
func (s *service) CurrentPlan(ctx context.Context, ownerID uuid.UUID, at time.Time) (*models.Plan, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}

	sub, err := s.repo.FindCurrent(ctx, ownerID, at)
	if err != nil {
		return nil, err
	}
	if sub != nil && sub.Status.CountsAsActive() {
		plan, err := s.repo.FindPlan(ctx, sub.PlanID)
		if err != nil {
			return nil, err
		}
		if plan != nil {
			return plan, nil
		}
	}

	plan, err := s.repo.FindDefaultPlan(ctx)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "default plan is not configured")
	}
	return plan, nil
}

// CoversDate reports whether any active subscription period contains the date.
func (s *service) CoversDate(ctx context.Context, ownerID uuid.UUID, date time.Time) (bool, error) {
	if ownerID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	subs, err := s.repo.ListOverlapping(ctx, ownerID, dayStart, dayEnd)
	if err != nil {
		return false, err
	}
	for _, sub := range subs {
		if sub.Status.CountsAsActive() {
			return true, nil
		}
	}
	return false, nil
}
