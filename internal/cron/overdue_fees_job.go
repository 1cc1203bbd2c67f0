package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/brightpath/schoolbooks-backend/pkg/logger"
)

// OverdueFeesJobParams configure the overdue dues sweep.
type OverdueFeesJobParams struct {
	Logger *logger.Logger
	Fees   overdueMarker
}

type overdueMarker interface {
	MarkOverdueDues(ctx context.Context, asOf time.Time) (int64, error)
}

// NewOverdueFeesJob builds the cron job that flips past-due pending fees to overdue.
func NewOverdueFeesJob(params OverdueFeesJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Fees == nil {
		return nil, fmt.Errorf("fees service required")
	}
	return &overdueFeesJob{
		logg: params.Logger,
		fees: params.Fees,
		now:  time.Now,
	}, nil
}

type overdueFeesJob struct {
	logg *logger.Logger
	fees overdueMarker
	now  func() time.Time
}

func (j *overdueFeesJob) Name() string { return "overdue-fees" }

func (j *overdueFeesJob) Run(ctx context.Context) error {
	asOf := j.now().UTC()
	marked, err := j.fees.MarkOverdueDues(ctx, asOf)
	if err != nil {
		return fmt.Errorf("mark overdue dues: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"as_of":       asOf,
		"rows_marked": marked,
	})
	j.logg.Info(logCtx, "overdue fees sweep complete")
	return nil
}
