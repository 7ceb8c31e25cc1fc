package component

import (
	"context"
	"sync"
	"sync/atomic"
)

// Base carries the lifecycle plumbing shared by components: a context that
// is cancelled on stop and a WaitGroup for goroutines started with Go.
type Base struct {
	name    string
	Ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool
}

func NewBase(name string) *Base {
	return &Base{name: name, Ctx: context.Background()}
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) Running() bool {
	return b.running.Load()
}

func (b *Base) StartContext(parentCtx context.Context) {
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	b.Ctx, b.cancel = context.WithCancel(parentCtx)
	b.running.Store(true)
}

func (b *Base) StopContext() {
	b.running.Store(false)
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
}

// Go runs fn with the component context. StopContext waits for it to return.
func (b *Base) Go(fn func(ctx context.Context)) {
	ctx := b.Ctx
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn(ctx)
	}()
}
