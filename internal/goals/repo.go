package goals

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmoralesp/clinicdesk-backend/pkg/db/models"
	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
)

// Repository manages persistence for tenant goals.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, goal *models.Goal) error
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Goal, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Goal, error)
	ListActiveByCategory(ctx context.Context, ownerID uuid.UUID, category enums.GoalCategory) ([]models.Goal, error)
	Save(ctx context.Context, goal *models.Goal) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a goal repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, goal *models.Goal) error {
	return r.db.WithContext(ctx).Create(goal).Error
}

func (r *repository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Goal, error) {
	var goal models.Goal
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&goal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &goal, nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Goal, error) {
	var goals []models.Goal
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&goals).Error
	if err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *repository) ListActiveByCategory(ctx context.Context, ownerID uuid.UUID, category enums.GoalCategory) ([]models.Goal, error) {
	var goals []models.Goal
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where("category = ?", category).
		Where("status = ?", enums.GoalStatusInProgress).
		Order("created_at ASC").
		Find(&goals).Error
	if err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *repository) Save(ctx context.Context, goal *models.Goal) error {
	return r.db.WithContext(ctx).Save(goal).Error
}
