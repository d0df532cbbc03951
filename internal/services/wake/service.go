// Package wake matches inbound Wake-on-LAN magic packets against the
// monitored device and presses its power button.
package wake

import (
	"bytes"
	"net"
	"time"

	"github.com/fgeck/gopower-homelab/internal/models"
	"github.com/fgeck/gopower-homelab/internal/services/power"
	"github.com/mdlayher/wol"
	"github.com/rs/zerolog"
)

// PacketSize is the length of a magic packet without a SecureOn password.
const PacketSize = 102

// Offsets of the first target repetition, right after the sync stream.
const (
	targetStart = 6
	targetEnd   = 12
)

// Service defines the interface for handling wake datagrams.
type Service interface {
	Handle(packet []byte) models.WakeResult
}

// Impl implements the wake Service interface.
type Impl struct {
	target net.HardwareAddr
	strict bool
	pulse  time.Duration
	power  power.Service
	logger zerolog.Logger
}

// New creates a new wake matcher for target.
func New(logger zerolog.Logger, cfg models.WakeConfig, pulse time.Duration, powerSvc power.Service) *Impl {
	return &Impl{
		target: cfg.Target,
		strict: cfg.Strict,
		pulse:  pulse,
		power:  powerSvc,
		logger: logger,
	}
}

// Handle inspects one datagram. Datagrams for other devices are dropped
// without any effect.
func (s *Impl) Handle(packet []byte) models.WakeResult {
	if len(packet) < PacketSize {
		return models.WakeResult{Outcome: models.WakeIgnoredUndersized}
	}

	if !s.matches(packet) {
		s.logger.Debug().Int("size", len(packet)).Msg("magic packet for another device")
		return models.WakeResult{Outcome: models.WakeIgnoredMismatch}
	}

	if s.power.IsOn() == models.PowerOn {
		s.logger.Info().Str("mac", s.target.String()).Msg("magic packet received, device is already on, ignoring")
		return models.WakeResult{Outcome: models.WakeIgnoredAlreadyOn}
	}

	s.logger.Info().
		Str("mac", s.target.String()).
		Dur("pulse", s.pulse).
		Msg("magic packet received, powering on device")

	s.power.Pulse(s.pulse)

	return models.WakeResult{Outcome: models.WakePulsed, Pulse: s.pulse}
}

func (s *Impl) matches(packet []byte) bool {
	if !s.strict {
		return bytes.Equal(packet[targetStart:targetEnd], s.target)
	}

	var p wol.MagicPacket
	if err := p.UnmarshalBinary(packet); err != nil {
		s.logger.Debug().Err(err).Msg("invalid magic packet")
		return false
	}
	if !bytes.Equal(p.Target, s.target) {
		return false
	}

	// Every repetition has to name the target, not just the first one.
	for off := targetStart; off+len(s.target) <= PacketSize; off += len(s.target) {
		if !bytes.Equal(packet[off:off+len(s.target)], s.target) {
			return false
		}
	}
	return true
}
