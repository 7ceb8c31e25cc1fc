package local

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/osvolt/pkg/events"
)

func collect(t *testing.T, b *Bus, topic string) (func() []events.Event, events.Subscription) {
	t.Helper()
	var mu sync.Mutex
	var got []events.Event
	s := b.Subscribe(topic, func(e events.Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})
	return func() []events.Event {
		mu.Lock()
		defer mu.Unlock()
		out := make([]events.Event, len(got))
		copy(out, got)
		return out
	}, s
}

func TestPublishOrderAndDefaults(t *testing.T) {
	b := NewBus(16)

	got, _ := collect(t, b, events.TopicProvisioning)
	for i := 0; i < 5; i++ {
		b.Publish(events.TopicProvisioning, events.Event{Data: i})
	}
	require.NoError(t, b.Close())

	evs := got()
	require.Len(t, evs, 5)
	for i, e := range evs {
		assert.Equal(t, i, e.Data)
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, events.TopicProvisioning, e.Type)
		assert.False(t, e.Timestamp.IsZero())
	}
	assert.EqualValues(t, 5, b.Stats().Published)
}

func TestUnsubscribe(t *testing.T) {
	b := NewBus(16)
	defer b.Close()

	got, s := collect(t, b, "topic")
	s.Unsubscribe()
	b.Publish("topic", events.Event{})

	assert.Never(t, func() bool { return len(got()) > 0 }, 50*time.Millisecond, 10*time.Millisecond)
	assert.Empty(t, b.Stats().Subscribers)
}

func TestHandlerPanicDoesNotStopDispatch(t *testing.T) {
	b := NewBus(16)

	b.Subscribe("topic", func(events.Event) { panic("boom") })
	got, _ := collect(t, b, "topic")

	b.Publish("topic", events.Event{Data: 1})
	b.Publish("topic", events.Event{Data: 2})
	require.NoError(t, b.Close())

	assert.Len(t, got(), 2)
}

func TestPublishAfterCloseIsDropped(t *testing.T) {
	b := NewBus(1)
	require.NoError(t, b.Close())

	b.Publish("topic", events.Event{})
	assert.EqualValues(t, 1, b.Stats().Dropped)
}

func TestSetDebugTopics(t *testing.T) {
	b := NewBus(1)
	defer b.Close()

	b.SetDebugTopics([]string{"b", "a"})
	assert.Equal(t, []string{"a", "b"}, b.Stats().DebugTopics)

	b.SetDebugTopics(nil)
	assert.Empty(t, b.Stats().DebugTopics)
}
