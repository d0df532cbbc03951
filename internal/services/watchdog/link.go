package watchdog

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
)

// NetlinkLink watches a network interface through rtnetlink.
type NetlinkLink struct {
	name string
}

// NewNetlinkLink creates a link watcher for the named interface.
func NewNetlinkLink(name string) *NetlinkLink {
	return &NetlinkLink{name: name}
}

// Connected reports whether the interface is up and holds a routable IPv4
// address.
func (l *NetlinkLink) Connected() (bool, error) {
	link, err := netlink.LinkByName(l.name)
	if err != nil {
		return false, fmt.Errorf("looking up link %s: %w", l.name, err)
	}

	attrs := link.Attrs()
	switch attrs.OperState {
	case netlink.OperUp:
	case netlink.OperUnknown:
		// Some drivers never report an operational state.
		if attrs.Flags&net.FlagUp == 0 {
			return false, nil
		}
	default:
		return false, nil
	}

	addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
	if err != nil {
		return false, fmt.Errorf("listing addresses of %s: %w", l.name, err)
	}
	for _, addr := range addrs {
		if addr.IP.IsGlobalUnicast() {
			return true, nil
		}
	}
	return false, nil
}

// Reconnect takes the interface down and up again so the supplicant and
// DHCP client re-associate.
func (l *NetlinkLink) Reconnect() error {
	link, err := netlink.LinkByName(l.name)
	if err != nil {
		return fmt.Errorf("looking up link %s: %w", l.name, err)
	}
	if err := netlink.LinkSetDown(link); err != nil {
		return fmt.Errorf("setting %s down: %w", l.name, err)
	}
	if err := netlink.LinkSetUp(link); err != nil {
		return fmt.Errorf("setting %s up: %w", l.name, err)
	}
	return nil
}
