package local

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/veesix-networks/osvolt/pkg/events"
	"github.com/veesix-networks/osvolt/pkg/logger"
)

const defaultQueueSize = 4096

type publishRequest struct {
	topic string
	event events.Event
}

type sub struct {
	bus   *Bus
	topic string
	id    uint64
}

func (s *sub) Unsubscribe() {
	s.bus.removeSub(s.topic, s.id)
}

// Bus is an in-process events.Bus. A single dispatch goroutine delivers
// events so that subscribers see each topic in publish order.
type Bus struct {
	subs        map[string]map[uint64]events.Handler
	debugTopics map[string]bool
	mu          sync.RWMutex
	nextID      atomic.Uint64
	queue       chan publishRequest
	done        chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup
	logger      *slog.Logger
	published   atomic.Uint64
	dropped     atomic.Uint64
}

func NewBus(queueSize int) *Bus {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	b := &Bus{
		subs:   make(map[string]map[uint64]events.Handler),
		queue:  make(chan publishRequest, queueSize),
		done:   make(chan struct{}),
		logger: logger.Get(logger.Events),
	}

	b.wg.Add(1)
	go b.dispatchLoop()

	return b
}

func (b *Bus) Publish(topic string, event events.Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Type == "" {
		event.Type = topic
	}

	select {
	case <-b.done:
		b.dropped.Add(1)
		return
	default:
	}

	select {
	case b.queue <- publishRequest{topic: topic, event: event}:
		b.published.Add(1)
	default:
		b.dropped.Add(1)
		b.logger.Warn("Event queue full, dropping event", "topic", topic, "event_id", event.ID)
	}
}

func (b *Bus) dispatchLoop() {
	defer b.wg.Done()

	for {
		select {
		case <-b.done:
			b.drain()
			return
		case req := <-b.queue:
			b.dispatch(req)
		}
	}
}

func (b *Bus) drain() {
	for {
		select {
		case req := <-b.queue:
			b.dispatch(req)
		default:
			return
		}
	}
}

func (b *Bus) dispatch(req publishRequest) {
	b.mu.RLock()
	handlers := make([]events.Handler, 0, len(b.subs[req.topic]))
	ids := make([]uint64, 0, len(b.subs[req.topic]))
	for id := range b.subs[req.topic] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		handlers = append(handlers, b.subs[req.topic][id])
	}
	debug := b.debugTopics[req.topic]
	b.mu.RUnlock()

	if debug {
		b.logger.Info("Event", "topic", req.topic, "id", req.event.ID, "source", req.event.Source, "data", req.event.Data)
	}

	for _, h := range handlers {
		b.invoke(req.topic, h, req.event)
	}
}

func (b *Bus) invoke(topic string, h events.Handler, e events.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panicked", "topic", topic, "event_id", e.ID, "panic", r)
		}
	}()
	h(e)
}

func (b *Bus) Subscribe(topic string, handler events.Handler) events.Subscription {
	id := b.nextID.Add(1)

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]events.Handler)
	}
	b.subs[topic][id] = handler
	count := len(b.subs[topic])
	b.mu.Unlock()

	b.logger.Debug("Subscribed to topic", "topic", topic, "handler_count", count)

	return &sub{bus: b, topic: topic, id: id}
}

func (b *Bus) removeSub(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if topicSubs, ok := b.subs[topic]; ok {
		delete(topicSubs, id)
		if len(topicSubs) == 0 {
			delete(b.subs, topic)
		}
	}
}

func (b *Bus) Stats() events.Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subscribers := make(map[string]int, len(b.subs))
	for topic, s := range b.subs {
		subscribers[topic] = len(s)
	}

	var debugTopics []string
	for t := range b.debugTopics {
		debugTopics = append(debugTopics, t)
	}
	sort.Strings(debugTopics)

	return events.Stats{
		Subscribers: subscribers,
		QueueLen:    len(b.queue),
		QueueCap:    cap(b.queue),
		Published:   b.published.Load(),
		Dropped:     b.dropped.Load(),
		DebugTopics: debugTopics,
	}
}

func (b *Bus) SetDebugTopics(topics []string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(topics) == 0 {
		b.debugTopics = nil
		b.logger.Info("Event debug logging disabled")
		return
	}

	b.debugTopics = make(map[string]bool, len(topics))
	for _, t := range topics {
		b.debugTopics[t] = true
	}
	b.logger.Info("Event debug logging enabled", "topics", topics)
}

// Close delivers already queued events and stops the dispatcher.
func (b *Bus) Close() error {
	b.closeOnce.Do(func() {
		close(b.done)
	})
	b.wg.Wait()
	return nil
}
