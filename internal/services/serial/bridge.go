// Package serial bridges the monitored device's console UART to the remote
// session.
package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fgeck/gopower-homelab/internal/models"
	"github.com/rs/zerolog"
	"go.bug.st/serial"
)

// readTimeout keeps Available from stalling the main loop.
const readTimeout = time.Millisecond

// ErrNoData is returned by ReadByte when nothing is buffered.
var ErrNoData = errors.New("no serial data available")

// Port is the subset of a serial port the bridge uses.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Bridge is a byte-oriented duplex stream to the console port. A Bridge
// without a port is disabled: it never has input and discards writes.
type Bridge struct {
	port    Port
	pending []byte
	buf     []byte
	logger  zerolog.Logger
}

// Open opens the configured port at the configured baud rate, 8N1. An empty
// port name returns a disabled bridge.
func Open(logger zerolog.Logger, cfg models.SerialConfig) (*Bridge, error) {
	if cfg.Port == "" {
		logger.Info().Msg("serial bridge disabled")
		return NewWithPort(logger, nil), nil
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}

	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", cfg.Port, err)
	}

	logger.Info().Str("port", cfg.Port).Int("baud", cfg.BaudRate).Msg("serial bridge opened")

	return NewWithPort(logger, port), nil
}

// NewWithPort creates a bridge on an already opened port (for testing).
func NewWithPort(logger zerolog.Logger, port Port) *Bridge {
	return &Bridge{
		port:   port,
		buf:    make([]byte, 256),
		logger: logger,
	}
}

// Available reports whether at least one byte can be read without blocking.
func (b *Bridge) Available() bool {
	if len(b.pending) > 0 {
		return true
	}
	if b.port == nil {
		return false
	}

	n, err := b.port.Read(b.buf)
	if n > 0 {
		b.pending = append(b.pending, b.buf[:n]...)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		b.logger.Error().Err(err).Msg("failed to read from serial port")
	}

	return len(b.pending) > 0
}

// Buffered returns the number of bytes read from the port but not yet
// consumed. It never touches the port.
func (b *Bridge) Buffered() int {
	return len(b.pending)
}

// ReadByte returns the next buffered byte.
func (b *Bridge) ReadByte() (byte, error) {
	if !b.Available() {
		return 0, ErrNoData
	}
	c := b.pending[0]
	b.pending = b.pending[1:]
	return c, nil
}

// WriteLine writes line terminated by CRLF.
func (b *Bridge) WriteLine(line string) error {
	if b.port == nil {
		b.logger.Debug().Str("line", line).Msg("serial bridge disabled, dropping line")
		return nil
	}
	if _, err := b.port.Write([]byte(line + "\r\n")); err != nil {
		return fmt.Errorf("failed to write to serial port: %w", err)
	}
	return nil
}

// Close closes the port.
func (b *Bridge) Close() error {
	if b.port == nil {
		return nil
	}
	return b.port.Close()
}
