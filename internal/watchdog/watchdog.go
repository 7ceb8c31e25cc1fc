package watchdog

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/veesix-networks/osvolt/pkg/component"
	"github.com/veesix-networks/osvolt/pkg/health"
	"github.com/veesix-networks/osvolt/pkg/logger"
)

const Name = "watchdog"

// Watchdog runs one check loop per target and derives daemon readiness from
// the critical ones.
type Watchdog struct {
	*component.Base
	logger *slog.Logger

	mu      sync.RWMutex
	runners []*targetRunner
}

var _ health.StateProvider = (*Watchdog)(nil)

func New() *Watchdog {
	return &Watchdog{
		Base:   component.NewBase(Name),
		logger: logger.Get(logger.Watchdog),
	}
}

func (w *Watchdog) find(name string) (int, bool) {
	return slices.BinarySearchFunc(w.runners, name, func(r *targetRunner, n string) int {
		return strings.Compare(r.target.Name(), n)
	})
}

// Register adds a target, replacing one with the same name. Targets must be
// registered before Start.
func (w *Watchdog) Register(target Target, cfg RunnerConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()

	runner := newTargetRunner(target, cfg, w.logger)
	if i, ok := w.find(target.Name()); ok {
		w.logger.Warn("Replacing target", "target", target.Name())
		w.runners[i] = runner
	} else {
		w.runners = slices.Insert(w.runners, i, runner)
	}
	w.logger.Info("Registered target", "target", target.Name(), "critical", target.Critical(), "interval", cfg.CheckInterval)
}

func (w *Watchdog) Start(ctx context.Context) error {
	w.StartContext(ctx)

	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, r := range w.runners {
		r.start(w.Ctx)
	}
	w.logger.Info("Watchdog started", "targets", len(w.runners))
	return nil
}

func (w *Watchdog) Stop(ctx context.Context) error {
	w.mu.RLock()
	for _, r := range w.runners {
		r.stop()
	}
	w.mu.RUnlock()

	w.StopContext()
	w.logger.Info("Watchdog stopped")
	return nil
}

func (w *Watchdog) GetState(name string) (health.StateInfo, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	i, ok := w.find(name)
	if !ok {
		return health.StateInfo{}, false
	}
	return w.runners[i].getStateInfo(), true
}

// GetAllStates returns the target states ordered by name.
func (w *Watchdog) GetAllStates() []health.StateInfo {
	w.mu.RLock()
	defer w.mu.RUnlock()

	states := make([]health.StateInfo, len(w.runners))
	for i, r := range w.runners {
		states[i] = r.getStateInfo()
	}
	return states
}

// IsReady reports whether every critical target is up.
func (w *Watchdog) IsReady() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return !slices.ContainsFunc(w.runners, func(r *targetRunner) bool {
		return r.target.Critical() && r.state.Load() != StateUp
	})
}
