package wake

import (
	"fmt"
	"net"
	"strconv"

	"github.com/mdlayher/wol"
)

// Sender sends magic packets. It lets an operator exercise the relay from any
// machine on the LAN.
type Sender interface {
	Wake(broadcastIP string, port int, mac net.HardwareAddr) error
}

// DefaultSender is the default implementation using mdlayher/wol.
type DefaultSender struct{}

// Wake sends a magic packet for mac to broadcastIP:port.
func (s *DefaultSender) Wake(broadcastIP string, port int, mac net.HardwareAddr) error {
	client, err := wol.NewClient()
	if err != nil {
		return fmt.Errorf("failed to create WOL client: %w", err)
	}
	defer func() { _ = client.Close() }()

	ip := net.ParseIP(broadcastIP)
	if ip == nil {
		return fmt.Errorf("invalid broadcast IP: %s", broadcastIP)
	}

	if err := client.Wake(net.JoinHostPort(ip.String(), strconv.Itoa(port)), mac); err != nil {
		return fmt.Errorf("failed to send WOL packet: %w", err)
	}

	return nil
}
