package quotas

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmoralesp/clinicdesk-backend/pkg/db/models"
)

// Repository counts the rows each quota dimension is measured against.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CountClients(ctx context.Context, ownerID uuid.UUID) (int64, error)
	CountStaff(ctx context.Context, ownerID uuid.UUID) (int64, error)
	CountBookingsInRange(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a quota repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CountClients(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("owner_id = ?", ownerID).
		Where("archived_at IS NULL").
		Count(&count).Error
	return count, err
}

func (r *repository) CountStaff(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StaffMember{}).
		Where("owner_id = ?", ownerID).
		Where("archived_at IS NULL").
		Count(&count).Error
	return count, err
}

func (r *repository) CountBookingsInRange(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("owner_id = ?", ownerID).
		Where("date >= ? AND date < ?", from, to).
		Count(&count).Error
	return count, err
}
