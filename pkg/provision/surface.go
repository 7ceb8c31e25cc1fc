package provision

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/veesix-networks/osvolt/pkg/access"
	"github.com/veesix-networks/osvolt/pkg/logger"
	"github.com/veesix-networks/osvolt/pkg/models/olt"
)

type Result int

const (
	// Accepted means the access service took the request. It does not mean
	// the device has been programmed yet.
	Accepted Result = iota
	AcceptedNoContent
	NotFound
)

func (r Result) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case AcceptedNoContent:
		return "accepted_no_content"
	case NotFound:
		return "not_found"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// Surface validates subscriber identities and hands them to the access
// service. It keeps no state; ordering of requests for the same subscriber is
// left to the access service.
type Surface struct {
	svc    access.Service
	logger *slog.Logger
}

func New(svc access.Service) *Surface {
	return &Surface{
		svc:    svc,
		logger: logger.Get(logger.Provision),
	}
}

func (s *Surface) ProvisionByAttachmentPoint(deviceID string, port int64) (Result, error) {
	cp, err := olt.NewConnectPoint(deviceID, port)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("Provisioning attachment point", "connect_point", cp)
	s.svc.ProvisionAttachment(cp)
	return Accepted, nil
}

func (s *Surface) RemoveByAttachmentPoint(deviceID string, port int64) (Result, error) {
	cp, err := olt.NewConnectPoint(deviceID, port)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("Removing attachment point", "connect_point", cp)
	s.svc.RemoveAttachment(cp)
	return AcceptedNoContent, nil
}

func (s *Surface) ProvisionByPortName(ctx context.Context, portName string) (Result, error) {
	id, err := olt.NewSubscriberID(portName)
	if err != nil {
		return 0, err
	}

	return s.provision(ctx, id, olt.NoVlan, olt.NoVlan)
}

func (s *Surface) ProvisionByPortNameWithTags(ctx context.Context, portName, sTag, cTag string) (Result, error) {
	id, pair, err := parseTagged(portName, sTag, cTag)
	if err != nil {
		return 0, err
	}

	st, ct := pair.Tags()
	return s.provision(ctx, id, st, ct)
}

func (s *Surface) RemoveByPortName(ctx context.Context, portName string) (Result, error) {
	id, err := olt.NewSubscriberID(portName)
	if err != nil {
		return 0, err
	}

	return s.remove(ctx, id, olt.NoVlan, olt.NoVlan)
}

func (s *Surface) RemoveByPortNameWithTags(ctx context.Context, portName, sTag, cTag string) (Result, error) {
	id, pair, err := parseTagged(portName, sTag, cTag)
	if err != nil {
		return 0, err
	}

	st, ct := pair.Tags()
	return s.remove(ctx, id, st, ct)
}

func (s *Surface) provision(ctx context.Context, id olt.SubscriberID, sTag, cTag olt.OptionalVlan) (Result, error) {
	ok, err := s.svc.ProvisionSubscriber(ctx, id, sTag, cTag)
	if err != nil {
		return 0, fmt.Errorf("provision subscriber %s: %w", id, err)
	}

	if !ok {
		s.logger.Info("Subscriber provisioning rejected", "subscriber", id, "s_tag", sTag, "c_tag", cTag)
		return NotFound, nil
	}
	return Accepted, nil
}

func (s *Surface) remove(ctx context.Context, id olt.SubscriberID, sTag, cTag olt.OptionalVlan) (Result, error) {
	ok, err := s.svc.RemoveSubscriber(ctx, id, sTag, cTag)
	if err != nil {
		return 0, fmt.Errorf("remove subscriber %s: %w", id, err)
	}

	if !ok {
		s.logger.Info("Subscriber removal rejected", "subscriber", id, "s_tag", sTag, "c_tag", cTag)
		return NotFound, nil
	}
	return Accepted, nil
}

func parseTagged(portName, sTag, cTag string) (olt.SubscriberID, olt.VlanPair, error) {
	id, err := olt.NewSubscriberID(portName)
	if err != nil {
		return "", olt.VlanPair{}, err
	}

	pair, err := olt.ParseVlanPair(sTag, cTag)
	if err != nil {
		return "", olt.VlanPair{}, err
	}

	return id, pair, nil
}
