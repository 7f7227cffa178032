package di

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"sync"
)

// Hook stops one component.
type Hook struct {
	Name   string
	OnStop func(ctx context.Context) error
}

// Lifecycle collects stop hooks as components are built and runs them in
// reverse order, so consumers stop before what they depend on.
type Lifecycle struct {
	mu    sync.Mutex
	hooks []Hook
}

func (l *Lifecycle) Append(h Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, h)
}

// Stop runs every hook once, even if earlier ones fail.
func (l *Lifecycle) Stop(ctx context.Context) error {
	l.mu.Lock()
	hooks := l.hooks
	l.hooks = nil
	l.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		slog.Debug("Stopping component", "component", h.Name)
		if err := h.OnStop(ctx); err != nil {
			slog.Error("Failed to stop component", "component", h.Name, "error", err)
			errs = append(errs, err)
		}
	}
	return stdErrors.Join(errs...)
}
