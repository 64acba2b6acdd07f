package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmoralesp/clinicdesk-backend/pkg/db/models"
	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
	"github.com/rmoralesp/clinicdesk-backend/pkg/pagination"
)

// minimalColumns are the ledger columns every deployment is guaranteed to
// have. The degraded write path inserts only these.
var minimalColumns = []string{
	"id", "owner_id", "gross_amount", "status",
	"occurred_at", "due_at", "created_at", "updated_at",
}

// ListEntriesQuery filters the cursor-paginated payment listing.
type ListEntriesQuery struct {
	OwnerID uuid.UUID
	Status  *enums.PaymentStatus
	From    *time.Time
	To      *time.Time
	Limit   int
	Cursor  *pagination.Cursor
}

// Repository manages persistence for ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, entry *models.LedgerEntry) error
	InsertMinimal(ctx context.Context, entry *models.LedgerEntry) error
	PatchOptional(ctx context.Context, ownerID, id uuid.UUID, fields map[string]any) error
	CountByID(ctx context.Context, ownerID, id uuid.UUID) (int64, error)
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*models.LedgerEntry, error)
	List(ctx context.Context, query ListEntriesQuery) ([]models.LedgerEntry, *pagination.Cursor, error)
	ListByOccurredRange(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.LedgerEntry, error)
	Save(ctx context.Context, entry *models.LedgerEntry) error
	MarkOverdue(ctx context.Context, before time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) InsertMinimal(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).
		Select(minimalColumns).
		Create(entry).Error
}

func (r *repository) PatchOptional(ctx context.Context, ownerID, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Updates(fields).Error
}

func (r *repository) CountByID(ctx context.Context, ownerID, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Count(&count).Error
	return count, err
}

func (r *repository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repository) List(ctx context.Context, query ListEntriesQuery) ([]models.LedgerEntry, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(query.Limit)

	q := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("owner_id = ?", query.OwnerID)
	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}
	if query.From != nil {
		q = q.Where("occurred_at >= ?", *query.From)
	}
	if query.To != nil {
		q = q.Where("occurred_at < ?", *query.To)
	}
	if query.Cursor != nil {
		q = q.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			query.Cursor.CreatedAt, query.Cursor.CreatedAt, query.Cursor.ID,
		)
	}

	var rows []models.LedgerEntry
	err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	if len(rows) <= limit {
		return rows, nil, nil
	}
	rows = rows[:limit]
	last := rows[len(rows)-1]
	next := pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	return rows, &next, nil
}

func (r *repository) ListByOccurredRange(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.LedgerEntry, error) {
	var rows []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where("occurred_at >= ? AND occurred_at < ?", from, to).
		Order("occurred_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Save(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *repository) MarkOverdue(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("status = ?", enums.PaymentStatusPending).
		Where("due_at IS NOT NULL AND due_at < ?", before).
		Update("status", enums.PaymentStatusOverdue)
	return res.RowsAffected, res.Error
}
