package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/rmoralesp/clinicdesk-backend/pkg/logger"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type overdueSweeper interface {
	MarkOverdue(ctx context.Context, before time.Time) (int64, error)
}

// OverdueSweepJobParams configure the nightly overdue sweep.
type OverdueSweepJobParams struct {
	Logger *logger.Logger
	Ledger overdueSweeper
}

// NewOverdueSweepJob builds the job that flips pending ledger entries past
// their due date to overdue.
func NewOverdueSweepJob(params OverdueSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger sweeper required")
	}
	return &overdueSweepJob{
		logg:   params.Logger,
		ledger: params.Ledger,
		now:    time.Now,
	}, nil
}

type overdueSweepJob struct {
	logg   *logger.Logger
	ledger overdueSweeper
	now    func() time.Time
}

func (j *overdueSweepJob) Name() string { return "overdue-sweep" }

func (j *overdueSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	affected, err := j.ledger.MarkOverdue(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("overdue sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_flipped": affected,
	})
	j.logg.Info(logCtx, "overdue sweep complete")
	return nil
}
