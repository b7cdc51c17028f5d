package jobs

import (
	"context"
	"time"

	"github.com/contoso/jobsite-api/internal/repository"
	"go.uber.org/zap"
)

// StoreStatsJobName is the name of the store statistics job
const StoreStatsJobName = "store_stats"

// StatsSource reports row counts for the job store
type StatsSource interface {
	Stats(ctx context.Context) (repository.Stats, error)
}

// StoreStatsJob logs job and photo counts so growth is visible in the logs
type StoreStatsJob struct {
	source  StatsSource
	logger  *zap.Logger
	timeout time.Duration
}

func NewStoreStatsJob(source StatsSource, logger *zap.Logger, timeout time.Duration) *StoreStatsJob {
	return &StoreStatsJob{
		source:  source,
		logger:  logger,
		timeout: timeout,
	}
}

// Run is invoked by the scheduler
func (j *StoreStatsJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.Collect(ctx); err != nil {
		j.logger.Error("store stats job failed", zap.Error(err))
	}
}

// Collect reads and logs the current counts
func (j *StoreStatsJob) Collect(ctx context.Context) (repository.Stats, error) {
	start := time.Now()

	stats, err := j.source.Stats(ctx)
	if err != nil {
		return repository.Stats{}, err
	}

	j.logger.Info("job store stats",
		zap.Int64("jobs", stats.Jobs),
		zap.Int64("photos", stats.Photos),
		zap.Duration("duration", time.Since(start)))

	return stats, nil
}
