// Package jobs contains the scheduled job implementations.
package jobs

import (
	"context"

	"github.com/takumi-oka/market-log/internal/contracts"
	"github.com/takumi-oka/market-log/internal/market"
	"github.com/takumi-oka/market-log/pkg/logger"
)

// HistoryWarmJob pre-computes the segment trading-value history so the
// first dashboard request after a quiet period hits the cache instead
// of scanning two weeks of daily snapshots.
type HistoryWarmJob struct {
	aggregator *market.Aggregator
	days       int
	schedule   string
	logger     *logger.Logger
}

// NewHistoryWarmJob creates a new history warm job
func NewHistoryWarmJob(agg *market.Aggregator, days int, schedule string, log *logger.Logger) *HistoryWarmJob {
	return &HistoryWarmJob{
		aggregator: agg,
		days:       days,
		schedule:   schedule,
		logger:     log,
	}
}

// Name returns the job name
func (j *HistoryWarmJob) Name() string {
	return "segment_history_warm"
}

// Schedule returns the cron schedule expression
func (j *HistoryWarmJob) Schedule() string {
	return j.schedule
}

// Run recomputes the segment history and stores it in the cache
func (j *HistoryWarmJob) Run(ctx context.Context) error {
	rows, err := j.aggregator.SegmentHistory(ctx, j.days)
	if err != nil {
		// 休場続きでデータが無いのは異常ではない
		if contracts.IsNoData(err) {
			j.logger.Info("No trading days in warm window, skipping")
			return nil
		}
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"days": j.days,
		"rows": len(rows),
	}).Info("Segment history warmed")

	return nil
}
