package jobs

import (
	"context"
	"encoding/json"
	"time"

	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PruneAuditJob deletes audit rows past their retention window. The
// engine itself never mutates the trail; retention is this worker's
// concern.
type PruneAuditJob struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPruneAuditJob constructs the job.
func NewPruneAuditJob(pool *pgxpool.Pool, logger *slog.Logger) *PruneAuditJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &PruneAuditJob{pool: pool, logger: logger}
}

// Handle processes TaskPruneAudit tasks.
func (j *PruneAuditJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload PruneAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionHours <= 0 {
		return asynq.SkipRetry
	}
	cutoff := time.Now().Add(-time.Duration(payload.RetentionHours) * time.Hour)

	accessTag, err := j.pool.Exec(ctx, `DELETE FROM access_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return err
	}
	violationTag, err := j.pool.Exec(ctx, `DELETE FROM policy_violations WHERE created_at < $1`, cutoff)
	if err != nil {
		return err
	}
	j.logger.Info("pruned audit trail",
		slog.Time("cutoff", cutoff),
		slog.Int64("access_logs", accessTag.RowsAffected()),
		slog.Int64("policy_violations", violationTag.RowsAffected()))
	return nil
}
