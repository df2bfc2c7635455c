package authz

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// DecisionObserver receives the outcome of every evaluation, e.g. for
// metrics. Implementations must not block.
type DecisionObserver interface {
	ObserveDecision(allowed bool, reason string)
}

// Engine is the decision orchestrator and the single entry point for
// request handlers. Each Authorize call is independent: all evaluation
// state lives in call-local variables, the only shared resource is the
// storage layer.
type Engine struct {
	store    Store
	resolver *Resolver
	sink     AuditSink
	logger   *slog.Logger
	observer DecisionObserver
}

// NewEngine constructs an Engine. Sink and observer may be nil; the
// engine then skips audit persistence and metrics.
func NewEngine(store Store, resolver *Resolver, sink AuditSink, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, resolver: resolver, sink: sink, logger: logger}
}

// WithObserver attaches a decision observer.
func (e *Engine) WithObserver(observer DecisionObserver) *Engine {
	e.observer = observer
	return e
}

// Authorize evaluates whether the actor may perform the action implied
// by the request. The verdict sequence is route resolution, then the
// role stage, then the attribute stage; the first denial is final and
// the attribute stage is never reached after a role denial.
//
// Every outcome is written to the audit trail before returning. Audit
// write failures are logged and swallowed: durability of the record is
// weaker than correctness of the decision. Storage read failures fail
// closed with reason "storage_error" and a non-nil error.
func (e *Engine) Authorize(ctx context.Context, actor Actor, method, path string, action Action) (Decision, error) {
	decisionID := uuid.NewString()

	if actor.ID == 0 || actor.RoleIDs == nil {
		decision := Decision{Reason: ReasonInvalidActor}
		e.record(ctx, decisionID, actor, method, path, decision, 0, nil)
		return decision, nil
	}

	capabilityID, ok := e.resolver.Resolve(method, path)
	if !ok {
		decision := Decision{Reason: ReasonUnmappedRoute}
		e.record(ctx, decisionID, actor, method, path, decision, 0, nil)
		return decision, nil
	}

	roles, err := e.store.RolesByID(ctx, actor.RoleIDs)
	if err != nil {
		return e.failClosed(ctx, decisionID, actor, method, path, capabilityID, err)
	}

	if roleID, ok := fullAccessRole(roles); ok {
		decision := Decision{Allowed: true, Reason: ReasonGrantsAll, CapabilityID: capabilityID}
		e.record(ctx, decisionID, actor, method, path, decision, roleID, nil)
		return decision, nil
	}

	grants, err := e.store.GrantsFor(ctx, actor.RoleIDs, capabilityID)
	if err != nil {
		return e.failClosed(ctx, decisionID, actor, method, path, capabilityID, err)
	}
	verdict := evaluateGrants(grants, action)
	if !verdict.Allowed {
		decision := Decision{Reason: verdict.Reason, CapabilityID: capabilityID}
		e.record(ctx, decisionID, actor, method, path, decision, 0, nil)
		return decision, nil
	}

	policies, err := e.store.PoliciesFor(ctx, capabilityID)
	if err != nil {
		return e.failClosed(ctx, decisionID, actor, method, path, capabilityID, err)
	}
	if violation := evaluatePolicies(actor.Attributes, policies); violation != nil {
		decision := Decision{Reason: ReasonPolicyDenied, CapabilityID: capabilityID}
		e.record(ctx, decisionID, actor, method, path, decision, verdict.RoleID, violation)
		return decision, nil
	}

	decision := Decision{Allowed: true, Reason: ReasonGranted, CapabilityID: capabilityID}
	e.record(ctx, decisionID, actor, method, path, decision, verdict.RoleID, nil)
	return decision, nil
}

// failClosed turns a storage failure into a deny verdict. The error is
// returned so callers can distinguish an unavailable backend from a
// plain denial.
func (e *Engine) failClosed(ctx context.Context, decisionID string, actor Actor, method, path string, capabilityID int64, err error) (Decision, error) {
	e.logger.Error("authorize storage failure",
		slog.Int64("user_id", actor.ID),
		slog.String("path", path),
		slog.Any("error", err))
	decision := Decision{Reason: ReasonStorageError, CapabilityID: capabilityID}
	e.record(ctx, decisionID, actor, method, path, decision, 0, nil)
	return decision, err
}

// record writes the audit trail for one decision. Failures never
// propagate into the decision path.
func (e *Engine) record(ctx context.Context, decisionID string, actor Actor, method, path string, decision Decision, roleID int64, violation *PolicyViolation) {
	defer e.observe(decision)
	if e.sink == nil {
		return
	}
	entry := AccessLogEntry{
		DecisionID:   decisionID,
		UserID:       actor.ID,
		RoleID:       roleID,
		CapabilityID: decision.CapabilityID,
		Path:         path,
		Method:       method,
		Allowed:      decision.Allowed,
		Reason:       decision.Reason,
	}
	if err := e.sink.RecordAccess(ctx, entry); err != nil {
		e.logger.Error("record access log",
			slog.String("decision_id", decisionID),
			slog.Any("error", err))
	}
	if violation == nil {
		return
	}
	violationEntry := PolicyViolationEntry{
		DecisionID:   decisionID,
		UserID:       actor.ID,
		CapabilityID: decision.CapabilityID,
		Attribute:    violation.Policy.Attribute,
		Reason:       violation.Reason(),
		RequestData: map[string]any{
			"method":     method,
			"path":       path,
			"attributes": actor.Attributes,
		},
	}
	if err := e.sink.RecordViolation(ctx, violationEntry); err != nil {
		e.logger.Error("record policy violation",
			slog.String("decision_id", decisionID),
			slog.Any("error", err))
	}
}

func (e *Engine) observe(decision Decision) {
	if e.observer != nil {
		e.observer.ObserveDecision(decision.Allowed, decision.Reason)
	}
}
