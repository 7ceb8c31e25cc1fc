package opdb

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Provider rebuilds in-memory state from the store at startup.
type Provider interface {
	Name() string
	Restore(ctx context.Context, store Store) error
}

// ProviderRegistry restores providers in registration order. A provider
// whose state depends on another must be registered after it.
type ProviderRegistry struct {
	providers []Provider
	logger    *slog.Logger
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{logger: slog.Default()}
}

func (r *ProviderRegistry) WithLogger(l *slog.Logger) *ProviderRegistry {
	r.logger = l
	return r
}

func (r *ProviderRegistry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

// RestoreAll stops at the first failing provider.
func (r *ProviderRegistry) RestoreAll(ctx context.Context, store Store) error {
	for _, p := range r.providers {
		start := time.Now()
		if err := p.Restore(ctx, store); err != nil {
			return fmt.Errorf("restore %s: %w", p.Name(), err)
		}
		r.logger.Debug("Restored state", "provider", p.Name(), "took", time.Since(start))
	}
	return nil
}
