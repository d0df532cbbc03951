package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"
)

// pollTimeout bounds the non-blocking checks on the listener and connection.
const pollTimeout = time.Millisecond

// Conn is a byte-oriented, line-capable, bidirectional session stream.
type Conn interface {
	Available() bool
	ReadByte() (byte, error)
	ReadLine() (string, error)
	Write(p []byte) (int, error)
	Close() error
}

// Transport hands out new session connections without blocking.
type Transport interface {
	Accept() (Conn, bool, error)
	Close() error
}

// TCPTransport accepts plain telnet-style TCP connections.
type TCPTransport struct {
	ln          *net.TCPListener
	lineTimeout time.Duration
}

// Listen starts a TCP listener on addr (e.g. "0.0.0.0:23"). lineTimeout bounds
// how long ReadLine and ReadByte wait for the rest of a line.
func Listen(addr string, lineTimeout time.Duration) (*TCPTransport, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("invalid session listen address %q: %w", addr, err)
	}

	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for sessions on %s: %w", addr, err)
	}

	return &TCPTransport{ln: ln, lineTimeout: lineTimeout}, nil
}

// Addr returns the bound address.
func (t *TCPTransport) Addr() net.Addr {
	return t.ln.Addr()
}

// Accept returns a newly connected client, if any.
func (t *TCPTransport) Accept() (Conn, bool, error) {
	if err := t.ln.SetDeadline(time.Now().Add(pollTimeout)); err != nil {
		return nil, false, fmt.Errorf("failed to set accept deadline: %w", err)
	}

	c, err := t.ln.AcceptTCP()
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to accept session: %w", err)
	}

	return newTCPConn(c, t.lineTimeout), true, nil
}

// Close stops listening.
func (t *TCPTransport) Close() error {
	return t.ln.Close()
}

type tcpConn struct {
	conn        net.Conn
	r           *bufio.Reader
	lineTimeout time.Duration
}

func newTCPConn(c net.Conn, lineTimeout time.Duration) *tcpConn {
	return &tcpConn{
		conn:        c,
		r:           bufio.NewReader(c),
		lineTimeout: lineTimeout,
	}
}

// Available also reports true when the peer has gone away, so the following
// ReadByte surfaces the error.
func (c *tcpConn) Available() bool {
	if c.r.Buffered() > 0 {
		return true
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(pollTimeout)); err != nil {
		return true
	}
	_, err := c.r.Peek(1)
	return err == nil || !errors.Is(err, os.ErrDeadlineExceeded)
}

func (c *tcpConn) ReadByte() (byte, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.lineTimeout)); err != nil {
		return 0, err
	}
	return c.r.ReadByte()
}

// ReadLine reads up to and including '\n'. When the line timeout expires or
// the peer closes after an unterminated line, the partial line is returned
// without error; the next read reports the close.
func (c *tcpConn) ReadLine() (string, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.lineTimeout)); err != nil {
		return "", err
	}
	line, err := c.r.ReadString('\n')
	if err != nil && errors.Is(err, os.ErrDeadlineExceeded) {
		return line, nil
	}
	if err != nil && errors.Is(err, io.EOF) && len(line) > 0 {
		return line, nil
	}
	return line, err
}

func (c *tcpConn) Write(p []byte) (int, error) {
	return c.conn.Write(p)
}

func (c *tcpConn) Close() error {
	return c.conn.Close()
}
