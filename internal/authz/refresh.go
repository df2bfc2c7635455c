package authz

import (
	"context"
	"time"

	"log/slog"
)

// BindingRefresher periodically reloads route discovery output from
// storage into the resolver serving live traffic. It runs inside the
// server process: replacing a resolver anywhere else would never reach
// enforcement.
type BindingRefresher struct {
	store    Store
	resolver *Resolver
	logger   *slog.Logger
	interval time.Duration
}

// NewBindingRefresher constructs a refresher.
func NewBindingRefresher(store Store, resolver *Resolver, logger *slog.Logger, interval time.Duration) *BindingRefresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &BindingRefresher{store: store, resolver: resolver, logger: logger, interval: interval}
}

// Refresh loads the current binding table and swaps it in. An ambiguous
// or invalid table is rejected; the resolver keeps serving the previous
// table.
func (r *BindingRefresher) Refresh(ctx context.Context) error {
	bindings, err := r.store.ListBindings(ctx)
	if err != nil {
		return err
	}
	if err := r.resolver.Replace(bindings); err != nil {
		return err
	}
	return nil
}

// Run refreshes on the configured interval until ctx is cancelled.
// Failures are logged and the previous table stays in effect.
func (r *BindingRefresher) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.logger.Error("refresh route bindings", slog.Any("error", err))
				continue
			}
			r.logger.Debug("route bindings refreshed")
		}
	}
}
