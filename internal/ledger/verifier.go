package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Verifier confirms that a written entry is visible to reads. The store's own
// insert acknowledgment is not trusted as proof of durability.
type Verifier struct {
	repo Repository
}

// NewVerifier builds a verifier over the given repository.
func NewVerifier(repo Repository) *Verifier {
	return &Verifier{repo: repo}
}

// Confirm runs a count-by-id existence check for the entry.
func (v *Verifier) Confirm(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	if v == nil || v.repo == nil {
		return false, nil
	}
	count, err := v.repo.CountByID(ctx, ownerID, id)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
