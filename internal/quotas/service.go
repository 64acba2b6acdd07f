package quotas

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/rmoralesp/clinicdesk-backend/internal/subscriptions"
	"github.com/rmoralesp/clinicdesk-backend/pkg/db/models"
	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
	pkgerrors "github.com/rmoralesp/clinicdesk-backend/pkg/errors"
)

// Usage reports current consumption against a plan limit. Percentage is
// rounded to the nearest whole point; Remaining never goes below zero.
// Unlimited dimensions report zero for both.
type Usage struct {
	Dimension  enums.QuotaDimension `json:"dimension"`
	Used       int64                `json:"used"`
	Limit      int                  `json:"limit"`
	Unlimited  bool                 `json:"unlimited"`
	Percentage int                  `json:"percentage"`
	Remaining  int64                `json:"remaining"`
}

// Service enforces plan quotas before writes. Enforcement is check-then-create
// without locking, so concurrent writes can land one row past the limit.
type Service interface {
	CheckQuota(ctx context.Context, ownerID uuid.UUID, dimension enums.QuotaDimension, additional int) error
	Snapshot(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]Usage, error)
}

// ServiceParams bundles the dependencies required to build a quota service.
type ServiceParams struct {
	Repo  Repository
	Plans subscriptions.Service
	Now   func() time.Time
}

type service struct {
	repo  Repository
	plans subscriptions.Service
	now   func() time.Time
}

// NewService wires a quota service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("quota repository required")
	}
	if params.Plans == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, plans: params.Plans, now: now}, nil
}

func (s *service) CheckQuota(ctx context.Context, ownerID uuid.UUID, dimension enums.QuotaDimension, additional int) error {
	if ownerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if !dimension.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid quota dimension")
	}
	if additional < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "additional count must be at least 1")
	}

	now := s.now()
	plan, err := s.plans.CurrentPlan(ctx, ownerID, now)
	if err != nil {
		return err
	}
	limit := plan.LimitFor(dimension)
	if limit == models.UnlimitedQuota {
		return nil
	}

	used, err := s.count(ctx, ownerID, dimension, now)
	if err != nil {
		return err
	}
	if used+int64(additional) > int64(limit) {
		usage := usageFor(dimension, used, limit)
		return pkgerrors.New(pkgerrors.CodeStateConflict, "plan limit exceeded").
			WithDetails(map[string]any{
				"dimension":  dimension,
				"limit":      limit,
				"used":       used,
				"requested":  additional,
				"percentage": usage.Percentage,
				"remaining":  usage.Remaining,
			})
	}
	return nil
}

// Snapshot reports usage for every dimension at once, for the quota endpoint.
func (s *service) Snapshot(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]Usage, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}

	plan, err := s.plans.CurrentPlan(ctx, ownerID, now)
	if err != nil {
		return nil, err
	}

	dims := []enums.QuotaDimension{
		enums.QuotaDimensionClients,
		enums.QuotaDimensionStaff,
		enums.QuotaDimensionMonthlyBookings,
	}
	usages := make([]Usage, 0, len(dims))
	for _, dim := range dims {
		used, err := s.count(ctx, ownerID, dim, now)
		if err != nil {
			return nil, err
		}
		usages = append(usages, usageFor(dim, used, plan.LimitFor(dim)))
	}
	return usages, nil
}

func usageFor(dimension enums.QuotaDimension, used int64, limit int) Usage {
	usage := Usage{Dimension: dimension, Used: used, Limit: limit}
	if limit == models.UnlimitedQuota {
		usage.Unlimited = true
		return usage
	}
	if limit > 0 {
		usage.Percentage = int(math.Round(float64(used) / float64(limit) * 100))
	} else if used > 0 {
		usage.Percentage = 100
	}
	if remaining := int64(limit) - used; remaining > 0 {
		usage.Remaining = remaining
	}
	return usage
}

func (s *service) count(ctx context.Context, ownerID uuid.UUID, dimension enums.QuotaDimension, now time.Time) (int64, error) {
	switch dimension {
	case enums.QuotaDimensionClients:
		return s.repo.CountClients(ctx, ownerID)
	case enums.QuotaDimensionStaff:
		return s.repo.CountStaff(ctx, ownerID)
	case enums.QuotaDimensionMonthlyBookings:
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		to := from.AddDate(0, 1, 0)
		return s.repo.CountBookingsInRange(ctx, ownerID, from, to)
	}
	return 0, fmt.Errorf("unhandled quota dimension %q", dimension)
}
