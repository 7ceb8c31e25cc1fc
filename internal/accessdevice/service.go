// Package accessdevice is the in-process access device service. It keeps the
// provisioning bookkeeping but programs no devices: every change is published
// on events.TopicProvisioning, which is where a flow-programming backend
// subscribes.
package accessdevice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/veesix-networks/osvolt/pkg/access"
	"github.com/veesix-networks/osvolt/pkg/component"
	"github.com/veesix-networks/osvolt/pkg/events"
	"github.com/veesix-networks/osvolt/pkg/logger"
	"github.com/veesix-networks/osvolt/pkg/models/olt"
	"github.com/veesix-networks/osvolt/pkg/opdb"
)

const (
	Name = "access"

	storeTimeout = 5 * time.Second
)

type opKind int

const (
	opProvision opKind = iota
	opRemove
)

func (k opKind) String() string {
	if k == opRemove {
		return "remove"
	}
	return "provision"
}

type request struct {
	op opKind
	cp olt.ConnectPoint
}

type attachmentRecord struct {
	ConnectPoint  string    `json:"connect_point"`
	Subscriber    string    `json:"subscriber,omitempty"`
	ProvisionedAt time.Time `json:"provisioned_at"`
}

type vlanRecord struct {
	ConnectPoint string `json:"connect_point"`
	Subscriber   string `json:"subscriber"`
	STag         uint16 `json:"s_tag"`
	CTag         uint16 `json:"c_tag"`
	Uplink       uint32 `json:"uplink"`
}

// Service is the in-process access device service. It keeps the record of
// which connect points and VLAN pairs are provisioned and announces every
// change on the event bus for the flow programming backend.
//
// Attachment requests go through a queue drained by a single worker, so
// requests for the same connect point are applied in arrival order.
type Service struct {
	*component.Base

	logger    *slog.Logger
	inventory *Inventory
	store     opdb.Store
	bus       events.Bus
	queue     chan request

	mu          sync.Mutex
	attachments map[olt.ConnectPoint]attachmentRecord
	vlans       map[olt.ConnectPoint]map[olt.VlanPair]struct{}

	processed atomic.Uint64
	dropped   atomic.Uint64
}

var (
	_ access.Service       = (*Service)(nil)
	_ access.StatsProvider = (*Service)(nil)
	_ opdb.Provider        = (*Service)(nil)
	_ component.Component  = (*Service)(nil)
)

func New(inventory *Inventory, store opdb.Store, bus events.Bus, queueSize int) *Service {
	if queueSize <= 0 {
		queueSize = 1
	}

	return &Service{
		Base:        component.NewBase(Name),
		logger:      logger.Get(logger.Access),
		inventory:   inventory,
		store:       store,
		bus:         bus,
		queue:       make(chan request, queueSize),
		attachments: make(map[olt.ConnectPoint]attachmentRecord),
		vlans:       make(map[olt.ConnectPoint]map[olt.VlanPair]struct{}),
	}
}

func (s *Service) Start(ctx context.Context) error {
	s.StartContext(ctx)
	s.logger.Info("Starting access device service", "known_ports", s.inventory.Len(), "queue_size", cap(s.queue))

	s.Go(s.worker)
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	s.logger.Info("Stopping access device service", "pending", len(s.queue))
	s.StopContext()
	return nil
}

func (s *Service) ProvisionAttachment(cp olt.ConnectPoint) {
	s.enqueue(request{op: opProvision, cp: cp})
}

func (s *Service) RemoveAttachment(cp olt.ConnectPoint) {
	s.enqueue(request{op: opRemove, cp: cp})
}

func (s *Service) enqueue(req request) {
	select {
	case s.queue <- req:
	default:
		s.dropped.Add(1)
		s.logger.Warn("Attachment queue full, dropping request", "op", req.op, "connect_point", req.cp)
	}
}

func (s *Service) worker(ctx context.Context) {
	log := logger.Get(logger.AccessWorker)

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case req := <-s.queue:
					s.apply(log, req)
				default:
					return
				}
			}
		case req := <-s.queue:
			s.apply(log, req)
		}
	}
}

func (s *Service) apply(log *slog.Logger, req request) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	s.mu.Lock()
	var changed bool
	var err error
	switch req.op {
	case opProvision:
		changed, err = s.provisionLocked(ctx, req.cp, "")
	case opRemove:
		changed, err = s.removeLocked(ctx, req.cp)
	}
	s.mu.Unlock()

	s.processed.Add(1)

	if err != nil {
		log.Error("Failed to apply attachment request", "op", req.op, "connect_point", req.cp, "error", err)
		return
	}
	if !changed {
		log.Debug("Attachment request is a no-op", "op", req.op, "connect_point", req.cp)
	}
}

func (s *Service) ProvisionSubscriber(ctx context.Context, id olt.SubscriberID, sTag, cTag olt.OptionalVlan) (bool, error) {
	cp, ok := s.inventory.Lookup(id)
	if !ok {
		s.logger.Warn("Unknown subscriber port", "subscriber", id)
		return false, nil
	}

	st, hasS := sTag.Get()
	ct, hasC := cTag.Get()

	switch {
	case !hasS && !hasC:
		s.mu.Lock()
		defer s.mu.Unlock()

		if _, err := s.provisionLocked(ctx, cp, id); err != nil {
			return false, err
		}
		return true, nil

	case hasS && hasC:
		uplink, ok := s.inventory.Uplink(cp.Device)
		if !ok {
			s.logger.Warn("No uplink configured for device, cannot add VLANs", "subscriber", id, "device", cp.Device)
			return false, nil
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		return s.addVlansLocked(ctx, cp, id, olt.VlanPair{STag: st, CTag: ct}, uplink)

	default:
		s.logger.Warn("Provisioning requires both or neither VLAN tag", "subscriber", id, "s_tag", sTag, "c_tag", cTag)
		return false, nil
	}
}

func (s *Service) RemoveSubscriber(ctx context.Context, id olt.SubscriberID, sTag, cTag olt.OptionalVlan) (bool, error) {
	cp, ok := s.inventory.Lookup(id)
	if !ok {
		s.logger.Warn("Unknown subscriber port", "subscriber", id)
		return false, nil
	}

	st, hasS := sTag.Get()
	ct, hasC := cTag.Get()

	switch {
	case !hasS && !hasC:
		s.mu.Lock()
		defer s.mu.Unlock()

		return s.removeLocked(ctx, cp)

	case hasS && hasC:
		s.mu.Lock()
		defer s.mu.Unlock()

		return s.removeVlansLocked(ctx, cp, id, olt.VlanPair{STag: st, CTag: ct})

	default:
		s.logger.Warn("Removal requires both or neither VLAN tag", "subscriber", id, "s_tag", sTag, "c_tag", cTag)
		return false, nil
	}
}

// provisionLocked returns false when cp was already provisioned.
func (s *Service) provisionLocked(ctx context.Context, cp olt.ConnectPoint, id olt.SubscriberID) (bool, error) {
	if _, ok := s.attachments[cp]; ok {
		return false, nil
	}

	rec := attachmentRecord{
		ConnectPoint:  cp.String(),
		Subscriber:    id.String(),
		ProvisionedAt: time.Now().UTC(),
	}
	if err := s.put(ctx, opdb.NamespaceAttachments, cp.String(), rec); err != nil {
		return false, err
	}

	s.attachments[cp] = rec
	s.logger.Info("Provisioned subscriber", "connect_point", cp, "subscriber", id)
	s.publish(events.ProvisioningEvent{
		Action:       events.ActionAttachmentProvisioned,
		ConnectPoint: cp,
		Subscriber:   id,
	})
	return true, nil
}

// removeLocked drops the attachment and every VLAN pair on it. It returns
// false when cp was not provisioned.
func (s *Service) removeLocked(ctx context.Context, cp olt.ConnectPoint) (bool, error) {
	rec, ok := s.attachments[cp]
	if !ok {
		return false, nil
	}

	for _, pair := range sortedPairs(s.vlans[cp]) {
		if err := s.store.Delete(ctx, opdb.NamespaceSubscriberVlans, vlanKey(cp, pair)); err != nil {
			return false, err
		}
		delete(s.vlans[cp], pair)

		p := pair
		s.publish(events.ProvisioningEvent{
			Action:       events.ActionVlansRemoved,
			ConnectPoint: cp,
			Subscriber:   olt.SubscriberID(rec.Subscriber),
			Vlans:        &p,
		})
	}
	delete(s.vlans, cp)

	if err := s.store.Delete(ctx, opdb.NamespaceAttachments, cp.String()); err != nil {
		return false, err
	}
	delete(s.attachments, cp)

	s.logger.Info("Removed subscriber", "connect_point", cp, "subscriber", rec.Subscriber)
	s.publish(events.ProvisioningEvent{
		Action:       events.ActionAttachmentRemoved,
		ConnectPoint: cp,
		Subscriber:   olt.SubscriberID(rec.Subscriber),
	})
	return true, nil
}

// addVlansLocked rejects a pair already carried by another port of the same
// device, since upstream the pair identifies the subscriber.
func (s *Service) addVlansLocked(ctx context.Context, cp olt.ConnectPoint, id olt.SubscriberID, pair olt.VlanPair, uplink olt.PortNumber) (bool, error) {
	if _, ok := s.vlans[cp][pair]; ok {
		return true, nil
	}

	for other, pairs := range s.vlans {
		if other.Device != cp.Device || other == cp {
			continue
		}
		if _, ok := pairs[pair]; ok {
			s.logger.Warn("VLAN pair already in use on device", "subscriber", id, "vlans", pair, "used_by", other)
			return false, nil
		}
	}

	rec := vlanRecord{
		ConnectPoint: cp.String(),
		Subscriber:   id.String(),
		STag:         uint16(pair.STag),
		CTag:         uint16(pair.CTag),
		Uplink:       uint32(uplink),
	}
	if err := s.put(ctx, opdb.NamespaceSubscriberVlans, vlanKey(cp, pair), rec); err != nil {
		return false, err
	}

	if s.vlans[cp] == nil {
		s.vlans[cp] = make(map[olt.VlanPair]struct{})
	}
	s.vlans[cp][pair] = struct{}{}

	s.logger.Info("Added subscriber VLANs", "connect_point", cp, "subscriber", id, "vlans", pair, "uplink", uplink)
	s.publish(events.ProvisioningEvent{
		Action:       events.ActionVlansAdded,
		ConnectPoint: cp,
		Subscriber:   id,
		Vlans:        &pair,
	})
	return true, nil
}

func (s *Service) removeVlansLocked(ctx context.Context, cp olt.ConnectPoint, id olt.SubscriberID, pair olt.VlanPair) (bool, error) {
	if _, ok := s.vlans[cp][pair]; !ok {
		s.logger.Warn("VLAN pair not provisioned", "subscriber", id, "vlans", pair)
		return false, nil
	}

	if err := s.store.Delete(ctx, opdb.NamespaceSubscriberVlans, vlanKey(cp, pair)); err != nil {
		return false, err
	}

	delete(s.vlans[cp], pair)
	if len(s.vlans[cp]) == 0 {
		delete(s.vlans, cp)
	}

	s.logger.Info("Removed subscriber VLANs", "connect_point", cp, "subscriber", id, "vlans", pair)
	s.publish(events.ProvisioningEvent{
		Action:       events.ActionVlansRemoved,
		ConnectPoint: cp,
		Subscriber:   id,
		Vlans:        &pair,
	})
	return true, nil
}

func (s *Service) put(ctx context.Context, namespace, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", namespace, err)
	}
	return s.store.Put(ctx, namespace, key, data)
}

func (s *Service) publish(ev events.ProvisioningEvent) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.TopicProvisioning, events.Event{
		Type:   string(ev.Action),
		Source: Name,
		Data:   ev,
	})
}

// Restore reloads provisioned state written by a previous run.
func (s *Service) Restore(ctx context.Context, store opdb.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := store.Load(ctx, opdb.NamespaceAttachments, func(key string, value []byte) error {
		var rec attachmentRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("decode attachment %s: %w", key, err)
		}
		cp, err := olt.ParseConnectPoint(key)
		if err != nil {
			return err
		}
		s.attachments[cp] = rec
		return nil
	})
	if err != nil {
		return err
	}

	err = store.Load(ctx, opdb.NamespaceSubscriberVlans, func(key string, value []byte) error {
		var rec vlanRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("decode subscriber vlans %s: %w", key, err)
		}
		cp, err := olt.ParseConnectPoint(rec.ConnectPoint)
		if err != nil {
			return err
		}
		if s.vlans[cp] == nil {
			s.vlans[cp] = make(map[olt.VlanPair]struct{})
		}
		s.vlans[cp][olt.VlanPair{STag: olt.VlanID(rec.STag), CTag: olt.VlanID(rec.CTag)}] = struct{}{}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Restored provisioning state", "attachments", len(s.attachments), "vlan_ports", len(s.vlans))
	return nil
}

func (s *Service) IsProvisioned(cp olt.ConnectPoint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.attachments[cp]
	return ok
}

func (s *Service) Vlans(cp olt.ConnectPoint) []olt.VlanPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedPairs(s.vlans[cp])
}

func (s *Service) Stats() access.Stats {
	s.mu.Lock()
	vlanCount := 0
	for _, pairs := range s.vlans {
		vlanCount += len(pairs)
	}
	attachments := len(s.attachments)
	s.mu.Unlock()

	return access.Stats{
		KnownPorts:      s.inventory.Len(),
		Attachments:     attachments,
		SubscriberVlans: vlanCount,
		QueueLen:        len(s.queue),
		QueueCap:        cap(s.queue),
		Processed:       s.processed.Load(),
		Dropped:         s.dropped.Load(),
	}
}

func vlanKey(cp olt.ConnectPoint, pair olt.VlanPair) string {
	return strings.Join([]string{cp.String(), pair.String()}, "|")
}

func sortedPairs(m map[olt.VlanPair]struct{}) []olt.VlanPair {
	pairs := make([]olt.VlanPair, 0, len(m))
	for p := range m {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].STag != pairs[j].STag {
			return pairs[i].STag < pairs[j].STag
		}
		return pairs[i].CTag < pairs[j].CTag
	})
	return pairs
}
