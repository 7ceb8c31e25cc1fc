package access

import (
	"context"

	"github.com/veesix-networks/osvolt/pkg/models/olt"
)

// Service programs subscriber access on OLT devices.
//
// The attachment operations only trigger device programming and report
// nothing back. The subscriber operations resolve the port name first and
// return false when the subscriber cannot be provisioned or removed. A non-nil
// error means the service itself failed and is not a rejection.
type Service interface {
	ProvisionAttachment(cp olt.ConnectPoint)
	RemoveAttachment(cp olt.ConnectPoint)
	ProvisionSubscriber(ctx context.Context, id olt.SubscriberID, sTag, cTag olt.OptionalVlan) (bool, error)
	RemoveSubscriber(ctx context.Context, id olt.SubscriberID, sTag, cTag olt.OptionalVlan) (bool, error)
}

type Stats struct {
	KnownPorts      int    `json:"known_ports"`
	Attachments     int    `json:"attachments"`
	SubscriberVlans int    `json:"subscriber_vlans"`
	QueueLen        int    `json:"queue_length"`
	QueueCap        int    `json:"queue_capacity"`
	Processed       uint64 `json:"processed"`
	Dropped         uint64 `json:"dropped"`
}

// StatsProvider is implemented by services that can report their state.
type StatsProvider interface {
	Stats() Stats
}
