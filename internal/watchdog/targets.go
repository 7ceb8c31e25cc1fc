package watchdog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/veesix-networks/osvolt/pkg/access"
	"github.com/veesix-networks/osvolt/pkg/health"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// OpDBTarget checks that the operational database answers.
type OpDBTarget struct {
	db Pinger
}

func NewOpDBTarget(db Pinger) *OpDBTarget {
	return &OpDBTarget{db: db}
}

func (t *OpDBTarget) Name() string   { return "opdb" }
func (t *OpDBTarget) Critical() bool { return true }

func (t *OpDBTarget) Check(ctx context.Context) *health.Result {
	start := time.Now()
	err := t.db.Ping(ctx)
	return health.NewResult(err, time.Since(start))
}

type AccessWorker interface {
	Running() bool
	Stats() access.Stats
}

// AccessTarget checks that the access worker runs and its queue is not
// full. A full queue means attachment requests are being dropped.
type AccessTarget struct {
	svc AccessWorker
}

func NewAccessTarget(svc AccessWorker) *AccessTarget {
	return &AccessTarget{svc: svc}
}

func (t *AccessTarget) Name() string   { return "access" }
func (t *AccessTarget) Critical() bool { return true }

func (t *AccessTarget) Check(ctx context.Context) *health.Result {
	start := time.Now()

	if !t.svc.Running() {
		return health.NewResult(errors.New("access worker is not running"), time.Since(start))
	}

	s := t.svc.Stats()
	if s.QueueCap > 0 && s.QueueLen >= s.QueueCap {
		return health.NewResult(fmt.Errorf("attachment queue full (%d/%d)", s.QueueLen, s.QueueCap), time.Since(start))
	}

	return health.NewResult(nil, time.Since(start))
}
