package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rmoralesp/clinicdesk-backend/pkg/logger"
)

type fakeSweeper struct {
	affected   int64
	err        error
	lastCutoff time.Time
}

func (f *fakeSweeper) MarkOverdue(ctx context.Context, before time.Time) (int64, error) {
	f.lastCutoff = before
	return f.affected, f.err
}

func TestOverdueSweepJobFlipsPendingEntries(t *testing.T) {
	now := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	sweeper := &fakeSweeper{affected: 3}
	jobIface, err := NewOverdueSweepJob(OverdueSweepJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Ledger: sweeper,
	})
	if err != nil {
		t.Fatalf("NewOverdueSweepJob: %v", err)
	}
	job := jobIface.(*overdueSweepJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sweeper.lastCutoff.Equal(now) {
		t.Fatalf("expected cutoff %s, got %s", now, sweeper.lastCutoff)
	}
}

func TestOverdueSweepJobPropagatesError(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("boom")}
	jobIface, err := NewOverdueSweepJob(OverdueSweepJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Ledger: sweeper,
	})
	if err != nil {
		t.Fatalf("NewOverdueSweepJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
