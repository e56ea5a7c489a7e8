package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/besy-hub/besy-orders/internal/jobs"
	"github.com/besy-hub/besy-orders/internal/preferences"
)

// PresetCompactionJob cleans up duplicate-label order filter presets. The
// preset repository deletes duplicates defensively during rename, but
// interleaved writes from two browser tabs can still leave more than one
// preset with the same label; this job keeps the newest per (user, label).
type PresetCompactionJob struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewPresetCompactionJob constructs the job. Metrics may be nil.
func NewPresetCompactionJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *PresetCompactionJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &PresetCompactionJob{pool: pool, logger: logger, metrics: metrics}
}

const duplicatePresetQuery = `
SELECT id FROM (
	SELECT id, ROW_NUMBER() OVER (
		PARTITION BY user_id, preferences->>'label'
		ORDER BY updated_at DESC, id DESC
	) AS rn
	FROM user_preferences
	WHERE preference_type = $1
) ranked
WHERE ranked.rn > 1`

// Handle processes TaskPresetCompaction tasks.
func (j *PresetCompactionJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload PresetCompactionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics.Track(TaskPresetCompaction)
	return tracker.End(j.compact(ctx, payload))
}

func (j *PresetCompactionJob) compact(ctx context.Context, payload PresetCompactionPayload) error {

	rows, err := j.pool.Query(ctx, duplicatePresetQuery, preferences.TypeOrderFilterPresets)
	if err != nil {
		return err
	}
	var stale []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		stale = append(stale, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if len(stale) == 0 {
		j.logger.Info("preset compaction found no duplicates")
		return nil
	}
	if payload.DryRun {
		j.logger.Info("preset compaction dry run", slog.Int("stale", len(stale)))
		return nil
	}
	tag, err := j.pool.Exec(ctx, `DELETE FROM user_preferences WHERE id = ANY($1)`, stale)
	if err != nil {
		return err
	}
	j.metrics.AddDroppedPresets(tag.RowsAffected())
	j.logger.Info("preset compaction done", slog.Int64("deleted", tag.RowsAffected()))
	return nil
}
