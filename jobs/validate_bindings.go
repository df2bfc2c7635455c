package jobs

import (
	"context"

	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/gerbang-admin/gerbang/internal/authz"
)

// ValidateBindingsJob lints the stored route binding table by loading
// it into a scratch resolver. The server refreshes its own resolver
// in-process; this job exists to surface ambiguous or invalid rows in
// the worker logs before operators notice stale routing.
type ValidateBindingsJob struct {
	store  authz.Store
	logger *slog.Logger
}

// NewValidateBindingsJob constructs the job.
func NewValidateBindingsJob(store authz.Store, logger *slog.Logger) *ValidateBindingsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidateBindingsJob{store: store, logger: logger}
}

// Handle processes TaskValidateBindings tasks.
func (j *ValidateBindingsJob) Handle(ctx context.Context, t *asynq.Task) error {
	bindings, err := j.store.ListBindings(ctx)
	if err != nil {
		return err
	}
	scratch := authz.NewResolver()
	if err := scratch.Replace(bindings); err != nil {
		// A broken table is an operator error; retrying will not fix it.
		j.logger.Error("route binding table rejected", slog.Any("error", err))
		return asynq.SkipRetry
	}
	j.logger.Info("route binding table valid", slog.Int("count", len(bindings)))
	return nil
}
