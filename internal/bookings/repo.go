package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmoralesp/clinicdesk-backend/pkg/db/models"
)

// Repository manages persistence for bookings and their sessions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertBatch(ctx context.Context, bookings []models.Booking) error
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Booking, error)
	ListByDateRange(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.Booking, error)
	Save(ctx context.Context, booking *models.Booking) error
	FindSessionByBooking(ctx context.Context, ownerID, bookingID uuid.UUID) (*models.Session, error)
	InsertSession(ctx context.Context, session *models.Session) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a booking repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) InsertBatch(ctx context.Context, bookings []models.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&bookings).Error
}

func (r *repository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) ListByDateRange(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.Booking, error) {
	var rows []models.Booking
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where("date >= ? AND date < ?", from, to).
		Order("date ASC").
		Order("start_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Save(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Save(booking).Error
}

func (r *repository) FindSessionByBooking(ctx context.Context, ownerID, bookingID uuid.UUID) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND booking_id = ?", ownerID, bookingID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *repository) InsertSession(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}
