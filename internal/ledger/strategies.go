package ledger

import (
	"context"

	dbpkg "github.com/rmoralesp/clinicdesk-backend/pkg/db"
	"github.com/rmoralesp/clinicdesk-backend/pkg/db/models"
)

// writeOutcome tags how a single strategy attempt concluded.
type writeOutcome int

const (
	outcomeSuccess writeOutcome = iota
	// outcomeRetryable means the next strategy in the chain should run.
	outcomeRetryable
	// outcomeFatal skips the remaining degradation rungs; only the elevated
	// last resort may still save the pass.
	outcomeFatal
)

// writeStrategy is one rung of the degrading write chain. Strategies run in
// order from most- to least-complete until one succeeds or the chain exhausts.
type writeStrategy struct {
	name string
	run  func(ctx context.Context, entry *models.LedgerEntry) (writeOutcome, error)
}

const (
	strategyFull     = "full"
	strategyMinimal  = "minimal_patch"
	strategyElevated = "elevated"
)

const ledgerPKConstraint = "ledger_entries_pkey"

// classifyWriteError decides whether an insert failure should degrade to the
// next strategy. A duplicate primary key means a previous attempt with the
// same manufactured id already landed, which counts as success.
func classifyWriteError(err error) writeOutcome {
	if err == nil {
		return outcomeSuccess
	}
	if dbpkg.IsUniqueViolation(err, ledgerPKConstraint) {
		return outcomeSuccess
	}
	return outcomeRetryable
}

// classifyFullInsertError routes a failed full insert. A missing optional
// column degrades to the minimal rung, which writes without it. Constraint
// failures such as NOT NULL violations cannot be saved by dropping optional
// columns, so they go straight to the elevated rung.
func classifyFullInsertError(err error) writeOutcome {
	switch {
	case err == nil, dbpkg.IsUniqueViolation(err, ledgerPKConstraint):
		return outcomeSuccess
	case dbpkg.IsUndefinedColumn(err):
		return outcomeRetryable
	case dbpkg.IsNotNullViolation(err):
		return outcomeFatal
	default:
		return outcomeFatal
	}
}

// optionalFields lists the columns the minimal strategy patches after its
// reduced insert. Keys missing from the live schema fail the patch, which is
// tolerated.
func optionalFields(entry *models.LedgerEntry) map[string]any {
	fields := map[string]any{
		"discount": entry.Discount,
		"currency": entry.Currency,
	}
	if entry.ClientID != nil {
		fields["client_id"] = *entry.ClientID
	}
	if entry.BookingID != nil {
		fields["booking_id"] = *entry.BookingID
	}
	if entry.Notes != nil {
		fields["notes"] = *entry.Notes
	}
	if entry.Recurrence != nil {
		fields["recurrence"] = *entry.Recurrence
	}
	return fields
}
