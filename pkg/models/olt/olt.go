package olt

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode"
)

var ErrInvalidIdentifier = errors.New("invalid identifier")

const (
	MaxPortNumber = math.MaxUint32
	MaxVlanID     = 4094
)

// DeviceID identifies a network element, e.g. "of:00000000000000a1". Any
// URI that is already in canonical form is accepted, with or without a
// scheme.
type DeviceID string

func ParseDeviceID(s string) (DeviceID, error) {
	if s == "" {
		return "", fmt.Errorf("%w: device id cannot be empty", ErrInvalidIdentifier)
	}

	for _, c := range s {
		if unicode.IsSpace(c) || unicode.IsControl(c) || c == '/' || c == '?' || c == '#' {
			return "", fmt.Errorf("%w: device id contains invalid character %q: %s", ErrInvalidIdentifier, c, s)
		}
	}

	// url.Parse does not check escapes in the opaque part
	if _, err := url.PathUnescape(s); err != nil {
		return "", fmt.Errorf("%w: device id %q has an invalid escape", ErrInvalidIdentifier, s)
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: device id %q is not a valid URI", ErrInvalidIdentifier, s)
	}
	if u.Scheme != "" && u.Opaque == "" {
		return "", fmt.Errorf("%w: device id %q has an empty scheme-specific part", ErrInvalidIdentifier, s)
	}
	if u.String() != s {
		return "", fmt.Errorf("%w: device id %q is not in canonical form", ErrInvalidIdentifier, s)
	}

	return DeviceID(s), nil
}

func (d DeviceID) String() string {
	return string(d)
}

type PortNumber uint32

func NewPortNumber(n int64) (PortNumber, error) {
	if n < 0 || n > MaxPortNumber {
		return 0, fmt.Errorf("%w: port number %d out of range (0-%d)", ErrInvalidIdentifier, n, uint32(MaxPortNumber))
	}
	return PortNumber(n), nil
}

// ParsePort parses a port in canonical decimal form. "+5", "007" and "-0"
// are rejected even though strconv accepts them. Range is checked by
// NewPortNumber.
func ParsePort(s string) (int64, error) {
	port, err := strconv.ParseInt(s, 10, 64)
	if err != nil || strconv.FormatInt(port, 10) != s {
		return 0, fmt.Errorf("%w: invalid port number %q", ErrInvalidIdentifier, s)
	}
	return port, nil
}

func (p PortNumber) String() string {
	return strconv.FormatUint(uint64(p), 10)
}

// ConnectPoint is a subscriber-facing port on a device.
type ConnectPoint struct {
	Device DeviceID
	Port   PortNumber
}

func NewConnectPoint(device string, port int64) (ConnectPoint, error) {
	id, err := ParseDeviceID(device)
	if err != nil {
		return ConnectPoint{}, err
	}

	pn, err := NewPortNumber(port)
	if err != nil {
		return ConnectPoint{}, err
	}

	return ConnectPoint{Device: id, Port: pn}, nil
}

func (cp ConnectPoint) String() string {
	return cp.Device.String() + "/" + cp.Port.String()
}

// ParseConnectPoint is the inverse of ConnectPoint.String.
func ParseConnectPoint(s string) (ConnectPoint, error) {
	idx := strings.LastIndex(s, "/")
	if idx < 0 {
		return ConnectPoint{}, fmt.Errorf("%w: connect point %q must be of the form device/port", ErrInvalidIdentifier, s)
	}

	port, err := ParsePort(s[idx+1:])
	if err != nil {
		return ConnectPoint{}, err
	}

	return NewConnectPoint(s[:idx], port)
}

// SubscriberID is the logical name of the port a subscriber is connected to.
type SubscriberID string

func NewSubscriberID(portName string) (SubscriberID, error) {
	if portName == "" {
		return "", fmt.Errorf("%w: port name cannot be empty", ErrInvalidIdentifier)
	}

	if strings.TrimSpace(portName) != portName {
		return "", fmt.Errorf("%w: port name has surrounding whitespace: %q", ErrInvalidIdentifier, portName)
	}

	for _, c := range portName {
		if unicode.IsControl(c) || c == '/' {
			return "", fmt.Errorf("%w: port name contains invalid character %q: %s", ErrInvalidIdentifier, c, portName)
		}
	}

	return SubscriberID(portName), nil
}

func (s SubscriberID) String() string {
	return string(s)
}

type VlanID uint16

func ParseVlanID(s string) (VlanID, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid VLAN %q", ErrInvalidIdentifier, s)
	}

	if v > MaxVlanID {
		return 0, fmt.Errorf("%w: VLAN %d exceeds maximum (%d)", ErrInvalidIdentifier, v, MaxVlanID)
	}

	if strconv.FormatUint(v, 10) != s {
		return 0, fmt.Errorf("%w: VLAN %q is not in canonical form", ErrInvalidIdentifier, s)
	}

	return VlanID(v), nil
}

func (v VlanID) String() string {
	return strconv.FormatUint(uint64(v), 10)
}

// OptionalVlan is either no tag or exactly one VlanID.
type OptionalVlan struct {
	id    VlanID
	valid bool
}

var NoVlan = OptionalVlan{}

func SomeVlan(id VlanID) OptionalVlan {
	return OptionalVlan{id: id, valid: true}
}

func (o OptionalVlan) Get() (VlanID, bool) {
	return o.id, o.valid
}

func (o OptionalVlan) IsPresent() bool {
	return o.valid
}

func (o OptionalVlan) String() string {
	if !o.valid {
		return "none"
	}
	return o.id.String()
}

// VlanPair is a double-tagged service: outer (service) and inner (customer) tag.
type VlanPair struct {
	STag VlanID `json:"s_tag"`
	CTag VlanID `json:"c_tag"`
}

func ParseVlanPair(sTag, cTag string) (VlanPair, error) {
	s, err := ParseVlanID(sTag)
	if err != nil {
		return VlanPair{}, fmt.Errorf("service tag: %w", err)
	}

	c, err := ParseVlanID(cTag)
	if err != nil {
		return VlanPair{}, fmt.Errorf("customer tag: %w", err)
	}

	return VlanPair{STag: s, CTag: c}, nil
}

func (p VlanPair) String() string {
	return p.STag.String() + "." + p.CTag.String()
}

// Tags splits the pair into the optional tags passed to the access service.
func (p VlanPair) Tags() (sTag, cTag OptionalVlan) {
	return SomeVlan(p.STag), SomeVlan(p.CTag)
}
