package events

import "github.com/veesix-networks/osvolt/pkg/models/olt"

type ProvisioningAction string

const (
	ActionAttachmentProvisioned ProvisioningAction = "attachment-provisioned"
	ActionAttachmentRemoved     ProvisioningAction = "attachment-removed"
	ActionVlansAdded            ProvisioningAction = "vlans-added"
	ActionVlansRemoved          ProvisioningAction = "vlans-removed"
)

type ProvisioningEvent struct {
	Action       ProvisioningAction `json:"action"`
	ConnectPoint olt.ConnectPoint   `json:"connect_point"`
	Subscriber   olt.SubscriberID   `json:"subscriber,omitempty"`
	Vlans        *olt.VlanPair      `json:"vlans,omitempty"`
}
