package watchdog

import (
	"context"
	"sync/atomic"

	"github.com/veesix-networks/osvolt/pkg/health"
)

// Target is a dependency checked periodically. A critical target that is
// not up makes the daemon not ready.
type Target interface {
	Name() string
	Check(ctx context.Context) *health.Result
	Critical() bool
}

type TargetState int32

const (
	StateInit TargetState = iota
	StateUp
	StateDown
)

func (s TargetState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateUp:
		return "up"
	case StateDown:
		return "down"
	default:
		return "unknown"
	}
}

type atomicState struct {
	val atomic.Int32
}

func (s *atomicState) Load() TargetState {
	return TargetState(s.val.Load())
}

func (s *atomicState) Store(state TargetState) {
	s.val.Store(int32(state))
}
