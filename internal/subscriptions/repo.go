package subscriptions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmoralesp/clinicdesk-backend/pkg/db/models"
)

// Repository manages persistence for plans and subscription periods.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindCurrent(ctx context.Context, ownerID uuid.UUID, at time.Time) (*models.Subscription, error)
	ListOverlapping(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.Subscription, error)
	FindPlan(ctx context.Context, id string) (*models.Plan, error)
	FindDefaultPlan(ctx context.Context) (*models.Plan, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a subscription repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindCurrent(ctx context.Context, ownerID uuid.UUID, at time.Time) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where("current_period_start <= ? AND current_period_end > ?", at, at).
		Order("current_period_start DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) ListOverlapping(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where("current_period_start < ? AND current_period_end > ?", to, from).
		Order("current_period_start ASC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repository) FindPlan(ctx context.Context, id string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repository) FindDefaultPlan(ctx context.Context) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.WithContext(ctx).Where("is_default = TRUE").First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}
