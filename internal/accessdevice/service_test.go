package accessdevice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/osvolt/pkg/config"
	"github.com/veesix-networks/osvolt/pkg/events"
	"github.com/veesix-networks/osvolt/pkg/events/local"
	"github.com/veesix-networks/osvolt/pkg/models/olt"
	"github.com/veesix-networks/osvolt/pkg/opdb"
	"github.com/veesix-networks/osvolt/pkg/opdb/sqlite"
)

const (
	devA = "of:00000000000000a1"
	devB = "of:00000000000000b1"
)

func uplink(p uint32) *uint32 {
	return &p
}

func testDevices() []config.Device {
	return []config.Device{
		{
			ID:     devA,
			Uplink: uplink(65536),
			Ports: []config.Port{
				{Number: 16, Name: "portA"},
				{Number: 17, Name: "portB"},
			},
		},
		{
			ID: devB,
			Ports: []config.Port{
				{Number: 1, Name: "portC"},
			},
		},
	}
}

type eventLog struct {
	mu  sync.Mutex
	evs []events.ProvisioningEvent
}

func (l *eventLog) handle(e events.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evs = append(l.evs, e.Data.(events.ProvisioningEvent))
}

func (l *eventLog) actions() []events.ProvisioningAction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]events.ProvisioningAction, 0, len(l.evs))
	for _, e := range l.evs {
		out = append(out, e.Action)
	}
	return out
}

func newTestService(t *testing.T) (*Service, opdb.Store, *local.Bus, *eventLog) {
	t.Helper()

	inv, err := NewInventory(testDevices())
	require.NoError(t, err)

	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bus := local.NewBus(64)
	log := &eventLog{}
	bus.Subscribe(events.TopicProvisioning, log.handle)

	svc := New(inv, store, bus, 16)
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(func() {
		svc.Stop(context.Background())
		bus.Close()
	})

	return svc, store, bus, log
}

func cpOf(t *testing.T, dev string, port int64) olt.ConnectPoint {
	t.Helper()
	cp, err := olt.NewConnectPoint(dev, port)
	require.NoError(t, err)
	return cp
}

func TestAttachmentQueueIsOrdered(t *testing.T) {
	svc, store, bus, log := newTestService(t)
	cp := cpOf(t, devA, 16)

	svc.ProvisionAttachment(cp)
	svc.ProvisionAttachment(cp)
	svc.RemoveAttachment(cp)
	svc.ProvisionAttachment(cp)

	require.Eventually(t, func() bool { return svc.Stats().Processed == 4 }, time.Second, 5*time.Millisecond)
	assert.True(t, svc.IsProvisioned(cp))

	n, err := store.Count(context.Background(), opdb.NamespaceAttachments)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, bus.Close())
	assert.Equal(t, []events.ProvisioningAction{
		events.ActionAttachmentProvisioned,
		events.ActionAttachmentRemoved,
		events.ActionAttachmentProvisioned,
	}, log.actions())
}

func TestRemoveUnknownAttachmentIsNoop(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	cp := cpOf(t, devB, 99)

	svc.RemoveAttachment(cp)
	require.Eventually(t, func() bool { return svc.Stats().Processed == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, svc.IsProvisioned(cp))
}

func TestProvisionSubscriberByPortName(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	ok, err := svc.ProvisionSubscriber(ctx, "portA", olt.NoVlan, olt.NoVlan)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, svc.IsProvisioned(cpOf(t, devA, 16)))

	ok, err = svc.ProvisionSubscriber(ctx, "portA", olt.NoVlan, olt.NoVlan)
	require.NoError(t, err)
	assert.True(t, ok, "re-provisioning is idempotent")

	ok, err = svc.ProvisionSubscriber(ctx, "unknown", olt.NoVlan, olt.NoVlan)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveSubscriberRoundTrip(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	ok, err := svc.ProvisionSubscriber(ctx, "portB", olt.NoVlan, olt.NoVlan)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.RemoveSubscriber(ctx, "portB", olt.NoVlan, olt.NoVlan)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.RemoveSubscriber(ctx, "portB", olt.NoVlan, olt.NoVlan)
	require.NoError(t, err)
	assert.False(t, ok, "subscriber is gone")
}

func TestSubscriberVlans(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	s, c := olt.SomeVlan(100), olt.SomeVlan(200)

	ok, err := svc.ProvisionSubscriber(ctx, "portA", s, c)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []olt.VlanPair{{STag: 100, CTag: 200}}, svc.Vlans(cpOf(t, devA, 16)))

	ok, err = svc.ProvisionSubscriber(ctx, "portA", s, c)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.ProvisionSubscriber(ctx, "portB", s, c)
	require.NoError(t, err)
	assert.False(t, ok, "pair already used on the device")

	ok, err = svc.ProvisionSubscriber(ctx, "portC", s, c)
	require.NoError(t, err)
	assert.False(t, ok, "device has no uplink")

	ok, err = svc.ProvisionSubscriber(ctx, "portA", s, olt.NoVlan)
	require.NoError(t, err)
	assert.False(t, ok, "single tag")

	ok, err = svc.RemoveSubscriber(ctx, "portA", olt.SomeVlan(200), olt.SomeVlan(100))
	require.NoError(t, err)
	assert.False(t, ok, "swapped pair is a different service")

	ok, err = svc.RemoveSubscriber(ctx, "portA", s, c)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, svc.Vlans(cpOf(t, devA, 16)))

	ok, err = svc.RemoveSubscriber(ctx, "portA", s, c)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveSubscriberDropsVlans(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ProvisionSubscriber(ctx, "portA", olt.NoVlan, olt.NoVlan)
	require.NoError(t, err)
	_, err = svc.ProvisionSubscriber(ctx, "portA", olt.SomeVlan(10), olt.SomeVlan(20))
	require.NoError(t, err)
	_, err = svc.ProvisionSubscriber(ctx, "portA", olt.SomeVlan(10), olt.SomeVlan(21))
	require.NoError(t, err)
	assert.Equal(t, 2, svc.Stats().SubscriberVlans)

	ok, err := svc.RemoveSubscriber(ctx, "portA", olt.NoVlan, olt.NoVlan)
	require.NoError(t, err)
	assert.True(t, ok)

	stats := svc.Stats()
	assert.Zero(t, stats.Attachments)
	assert.Zero(t, stats.SubscriberVlans)

	n, err := store.Count(ctx, opdb.NamespaceSubscriberVlans)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestService(t)

	_, err := svc.ProvisionSubscriber(ctx, "portA", olt.NoVlan, olt.NoVlan)
	require.NoError(t, err)
	_, err = svc.ProvisionSubscriber(ctx, "portA", olt.SomeVlan(10), olt.SomeVlan(20))
	require.NoError(t, err)

	inv, err := NewInventory(testDevices())
	require.NoError(t, err)
	restored := New(inv, store, nil, 4)

	registry := opdb.NewProviderRegistry()
	registry.Register(restored)
	require.NoError(t, registry.RestoreAll(ctx, store))

	cp := cpOf(t, devA, 16)
	assert.True(t, restored.IsProvisioned(cp))
	assert.Equal(t, []olt.VlanPair{{STag: 10, CTag: 20}}, restored.Vlans(cp))
}

func TestQueueFullDrops(t *testing.T) {
	inv, err := NewInventory(testDevices())
	require.NoError(t, err)
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	svc := New(inv, store, nil, 1)
	cp := cpOf(t, devA, 16)

	svc.ProvisionAttachment(cp)
	svc.ProvisionAttachment(cp)

	stats := svc.Stats()
	assert.EqualValues(t, 1, stats.Dropped)
	assert.Equal(t, 1, stats.QueueLen)

	require.NoError(t, svc.Start(context.Background()))
	require.NoError(t, svc.Stop(context.Background()))
	assert.True(t, svc.IsProvisioned(cp))
}

func TestNewInventoryRejectsDuplicateNames(t *testing.T) {
	_, err := NewInventory([]config.Device{
		{ID: devA, Ports: []config.Port{{Number: 1, Name: "x"}}},
		{ID: devB, Ports: []config.Port{{Number: 1, Name: "x"}}},
	})
	assert.Error(t, err)
}
