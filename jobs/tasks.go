package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPruneAudit removes audit rows older than the retention window.
	TaskPruneAudit = "authz:prune_audit"
	// TaskValidateBindings lints the stored route binding table.
	TaskValidateBindings = "authz:validate_bindings"
)

// PruneAuditPayload carries the retention window for a prune run.
type PruneAuditPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewPruneAuditTask constructs an Asynq task for audit pruning.
func NewPruneAuditTask(payload PruneAuditPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPruneAudit, data), nil
}

// NewValidateBindingsTask constructs an Asynq task for binding validation.
func NewValidateBindingsTask() *asynq.Task {
	return asynq.NewTask(TaskValidateBindings, nil)
}
