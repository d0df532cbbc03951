// Package power drives the power-button relay and the indicator LEDs.
package power

import (
	"sync"
	"time"

	"github.com/fgeck/gopower-homelab/internal/clock"
	"github.com/fgeck/gopower-homelab/internal/models"
	"github.com/rs/zerolog"
)

// Service defines the interface for power operations.
type Service interface {
	IsOn() models.PowerState
	Pulse(d time.Duration)
	Blink(line Line, times int, every time.Duration)
}

// Impl implements the power Service interface.
type Impl struct {
	gpio   GPIO
	clock  clock.Clock
	logger zerolog.Logger

	// relay is held for the whole pulse.
	relay sync.Mutex
}

// New creates a new power service on the wall clock.
func New(logger zerolog.Logger, g GPIO) *Impl {
	return NewWithClock(logger, g, clock.Real{})
}

// NewWithClock creates a new power service with a custom clock (for testing).
func NewWithClock(logger zerolog.Logger, g GPIO, clk clock.Clock) *Impl {
	return &Impl{
		gpio:   g,
		clock:  clk,
		logger: logger,
	}
}

// IsOn samples the status input. A read failure reports the device as off.
func (s *Impl) IsOn() models.PowerState {
	high, err := s.gpio.ReadStatus()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read device status")
		return models.PowerOff
	}
	return models.PowerState(high)
}

// Pulse presses the power button for d and blocks until it is released.
func (s *Impl) Pulse(d time.Duration) {
	s.relay.Lock()
	defer s.relay.Unlock()

	s.logger.Debug().Dur("duration", d).Msg("pressing power button")

	s.set(LinePulseLED, true)
	s.set(LineRelay, true)
	s.clock.Sleep(d)
	s.set(LineRelay, false)
	s.set(LinePulseLED, false)
}

// Blink flashes an indicator times times, on and off for every each.
func (s *Impl) Blink(line Line, times int, every time.Duration) {
	for i := 0; i < times; i++ {
		s.set(line, true)
		s.clock.Sleep(every)
		s.set(line, false)
		s.clock.Sleep(every)
	}
}

func (s *Impl) set(line Line, high bool) {
	if err := s.gpio.Write(line, high); err != nil {
		s.logger.Error().Err(err).Str("line", line.String()).Bool("high", high).Msg("failed to write GPIO")
	}
}
