package wake

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// pollTimeout bounds a single receive so the main loop never stalls on an
// idle socket.
const pollTimeout = time.Millisecond

// Receiver yields inbound datagrams without blocking.
type Receiver interface {
	Poll() ([]byte, bool, error)
	Close() error
}

// UDPReceiver receives magic packets on a UDP socket.
type UDPReceiver struct {
	conn *net.UDPConn
	buf  []byte
}

// Listen binds a UDP socket on addr (e.g. "0.0.0.0:9").
func Listen(addr string) (*UDPReceiver, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("invalid wake listen address %q: %w", addr, err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for magic packets on %s: %w", addr, err)
	}

	return &UDPReceiver{conn: conn, buf: make([]byte, 1024)}, nil
}

// Addr returns the bound address.
func (r *UDPReceiver) Addr() net.Addr {
	return r.conn.LocalAddr()
}

// Poll returns one pending datagram, if any.
func (r *UDPReceiver) Poll() ([]byte, bool, error) {
	if err := r.conn.SetReadDeadline(time.Now().Add(pollTimeout)); err != nil {
		return nil, false, fmt.Errorf("failed to set read deadline: %w", err)
	}

	n, _, err := r.conn.ReadFromUDP(r.buf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read datagram: %w", err)
	}

	packet := make([]byte, n)
	copy(packet, r.buf[:n])
	return packet, true, nil
}

// Close releases the socket.
func (r *UDPReceiver) Close() error {
	return r.conn.Close()
}
