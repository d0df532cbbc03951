// Package watchdog supervises network reachability and restarts the
// controller when the link cannot be recovered.
package watchdog

import (
	"context"
	"fmt"
	"time"

	"github.com/fgeck/gopower-homelab/internal/clock"
	"github.com/fgeck/gopower-homelab/internal/models"
	"github.com/fgeck/gopower-homelab/internal/services/power"
	"github.com/rs/zerolog"
)

// Blink patterns.
const (
	blinkEvery           = 200 * time.Millisecond
	blinkConnected       = 2
	blinkDisconnected    = 10
	blinkRestart         = 10
	linkWaitPollInterval = 500 * time.Millisecond
)

// Link reports and recovers the network link.
type Link interface {
	Connected() (bool, error)
	Reconnect() error
}

// Restarter performs a full restart. A successful restart does not return.
type Restarter interface {
	Restart() error
}

// Service defines the interface for the connectivity watchdog.
type Service interface {
	Tick() models.WatchdogResult
	WaitForLink(ctx context.Context, timeout time.Duration) error
}

// Impl implements the watchdog Service interface.
type Impl struct {
	link      Link
	restarter Restarter
	leds      power.Service
	policy    models.WatchdogPolicy
	clock     clock.Clock
	logger    zerolog.Logger

	attempts int
}

// New creates a new watchdog service.
func New(logger zerolog.Logger, policy models.WatchdogPolicy, link Link, restarter Restarter, leds power.Service) *Impl {
	return NewWithClock(logger, policy, link, restarter, leds, clock.Real{})
}

// NewWithClock creates a new watchdog service with a custom clock (for testing).
func NewWithClock(
	logger zerolog.Logger,
	policy models.WatchdogPolicy,
	link Link,
	restarter Restarter,
	leds power.Service,
	clk clock.Clock,
) *Impl {
	return &Impl{
		link:      link,
		restarter: restarter,
		leds:      leds,
		policy:    policy,
		clock:     clk,
		logger:    logger,
	}
}

// Attempts returns the number of consecutive failed observations.
func (s *Impl) Attempts() int {
	return s.attempts
}

// Tick observes the link once.
func (s *Impl) Tick() models.WatchdogResult {
	connected, err := s.link.Connected()
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to query link status")
	}

	if connected {
		s.leds.Blink(power.LineLinkLED, blinkConnected, blinkEvery)
		s.attempts = 0
		return models.WatchdogResult{State: models.LinkConnected}
	}

	result := models.WatchdogResult{State: models.LinkDisconnected, Error: err}

	s.logger.Warn().Int("attempt", s.attempts+1).Msg("network disconnected, trying to reconnect")
	s.leds.Blink(power.LineLinkLED, blinkDisconnected, blinkEvery)

	if rerr := s.link.Reconnect(); rerr != nil {
		s.logger.Error().Err(rerr).Msg("reconnect request failed")
		result.Error = rerr
	}
	result.Reconnected = true
	s.attempts++
	result.Attempts = s.attempts

	if s.attempts >= s.policy.Threshold {
		s.logger.Error().Int("attempts", s.attempts).Msg("could not reconnect, restarting")
		s.leds.Blink(power.LineFaultLED, blinkRestart, blinkEvery)
		result.Restarted = true

		// Nothing survives a restart; if it failed we start a fresh window.
		s.attempts = 0
		if rerr := s.restarter.Restart(); rerr != nil {
			s.logger.Error().Err(rerr).Msg("restart failed")
			result.Error = fmt.Errorf("restart failed: %w", rerr)
		}
	}

	return result
}

// WaitForLink blocks until the link is connected. A zero timeout waits forever.
func (s *Impl) WaitForLink(ctx context.Context, timeout time.Duration) error {
	start := s.clock.Now()

	for {
		connected, err := s.link.Connected()
		if err != nil {
			s.logger.Debug().Err(err).Msg("link not ready yet")
		}
		if connected {
			s.logger.Info().Dur("waited", s.clock.Now().Sub(start)).Msg("network connected")
			s.leds.Blink(power.LineLinkLED, blinkDisconnected, blinkEvery)
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		if timeout > 0 && s.clock.Now().Sub(start) >= timeout {
			return fmt.Errorf("timeout waiting for network link after %s", timeout)
		}

		s.clock.Sleep(linkWaitPollInterval)
	}
}
