package authz

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditSink receives the audit trail of authorization decisions.
// Implementations must treat entries as append-only.
type AuditSink interface {
	RecordAccess(ctx context.Context, entry AccessLogEntry) error
	RecordViolation(ctx context.Context, entry PolicyViolationEntry) error
}

// Recorder persists audit entries into access_logs and policy_violations.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder constructs a Recorder.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// RecordAccess inserts one access log row. Zero-valued ids are stored as
// NULL so denials for unmapped routes or invalid actors keep their rows.
func (r *Recorder) RecordAccess(ctx context.Context, entry AccessLogEntry) error {
	decision := "deny"
	if entry.Allowed {
		decision = "allow"
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO access_logs (decision_id, user_id, role_id, capability_id, path, method, decision, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))`,
		entry.DecisionID,
		optionalInt8(entry.UserID),
		optionalInt8(entry.RoleID),
		optionalInt8(entry.CapabilityID),
		entry.Path,
		entry.Method,
		decision,
		entry.Reason,
		optionalTimestamp(entry),
	)
	if err != nil {
		return fmt.Errorf("authz: record access: %w", err)
	}
	return nil
}

// RecordViolation inserts one policy violation row.
func (r *Recorder) RecordViolation(ctx context.Context, entry PolicyViolationEntry) error {
	requestData, err := json.Marshal(entry.RequestData)
	if err != nil {
		return fmt.Errorf("authz: marshal request data: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO policy_violations (decision_id, user_id, capability_id, attribute, reason, request_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		entry.DecisionID,
		optionalInt8(entry.UserID),
		optionalInt8(entry.CapabilityID),
		entry.Attribute,
		entry.Reason,
		requestData,
	)
	if err != nil {
		return fmt.Errorf("authz: record violation: %w", err)
	}
	return nil
}

func optionalInt8(v int64) pgtype.Int8 {
	if v == 0 {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: v, Valid: true}
}

func optionalTimestamp(entry AccessLogEntry) pgtype.Timestamptz {
	if entry.CreatedAt.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: entry.CreatedAt, Valid: true}
}
