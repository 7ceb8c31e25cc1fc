package accessdevice

import (
	"fmt"

	"github.com/veesix-networks/osvolt/pkg/config"
	"github.com/veesix-networks/osvolt/pkg/models/olt"
)

// Inventory maps subscriber port names to connect points and records the
// uplink port of each device.
type Inventory struct {
	byName  map[olt.SubscriberID]olt.ConnectPoint
	uplinks map[olt.DeviceID]olt.PortNumber
}

func NewInventory(devices []config.Device) (*Inventory, error) {
	inv := &Inventory{
		byName:  make(map[olt.SubscriberID]olt.ConnectPoint),
		uplinks: make(map[olt.DeviceID]olt.PortNumber),
	}

	for _, d := range devices {
		dev, err := olt.ParseDeviceID(d.ID)
		if err != nil {
			return nil, err
		}

		if d.Uplink != nil {
			inv.uplinks[dev] = olt.PortNumber(*d.Uplink)
		}

		for _, p := range d.Ports {
			cp, err := olt.NewConnectPoint(d.ID, p.Number)
			if err != nil {
				return nil, err
			}
			id, err := olt.NewSubscriberID(p.Name)
			if err != nil {
				return nil, err
			}
			if other, ok := inv.byName[id]; ok {
				return nil, fmt.Errorf("port name %s used by both %s and %s", id, other, cp)
			}
			inv.byName[id] = cp
		}
	}

	return inv, nil
}

func (i *Inventory) Lookup(id olt.SubscriberID) (olt.ConnectPoint, bool) {
	cp, ok := i.byName[id]
	return cp, ok
}

func (i *Inventory) Uplink(dev olt.DeviceID) (olt.PortNumber, bool) {
	p, ok := i.uplinks[dev]
	return p, ok
}

func (i *Inventory) Len() int {
	return len(i.byName)
}
