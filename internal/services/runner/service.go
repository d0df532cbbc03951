// Package runner drives the controller loop: wake datagrams, the remote
// session, the connectivity watchdog and pulse notifications.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fgeck/gopower-homelab/internal/clock"
	"github.com/fgeck/gopower-homelab/internal/models"
	"github.com/fgeck/gopower-homelab/internal/services/power"
	"github.com/fgeck/gopower-homelab/internal/services/serial"
	"github.com/fgeck/gopower-homelab/internal/services/session"
	"github.com/fgeck/gopower-homelab/internal/services/telegram"
	"github.com/fgeck/gopower-homelab/internal/services/wake"
	"github.com/fgeck/gopower-homelab/internal/services/watchdog"
	"github.com/rs/zerolog"
)

// Service defines the interface for the controller loop.
type Service interface {
	Run(ctx context.Context) error
	Close() error
}

// Services bundles the collaborators of the loop.
type Services struct {
	Power     power.Service
	Matcher   wake.Service
	Receiver  wake.Receiver
	Transport session.Transport
	Sessions  session.Service
	Watchdog  watchdog.Service
	Telegram  telegram.Service // nil disables notifications
}

// notifyTimeout bounds how long Close waits for in-flight notifications.
const notifyTimeout = 10 * time.Second

// Impl implements the runner Service interface.
type Impl struct {
	svc       Services
	cfg       models.Config
	scheduler *Scheduler
	clock     clock.Clock
	logger    zerolog.Logger
	host      string

	closers []io.Closer
	notify  sync.WaitGroup
}

// New creates the controller with real hardware: GPIO pins, the serial
// console, the wake and session listeners and the netlink watchdog.
//
//nolint:funlen // wiring every peripheral happens here
func New(logger zerolog.Logger, cfg models.Config) (*Impl, error) {
	var closers []io.Closer
	fail := func(err error) (*Impl, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
		return nil, err
	}

	gpio, err := power.NewPeriphGPIO(cfg.GPIO)
	if err != nil {
		return fail(fmt.Errorf("initializing GPIO: %w", err))
	}
	powerSvc := power.New(logger.With().Str("component", "power").Logger(), gpio)

	bridge, err := serial.Open(logger.With().Str("component", "serial").Logger(), cfg.Serial)
	if err != nil {
		return fail(fmt.Errorf("opening serial console: %w", err))
	}
	closers = append(closers, bridge)

	receiver, err := wake.Listen(cfg.Wake.ListenAddress)
	if err != nil {
		return fail(fmt.Errorf("listening for wake packets: %w", err))
	}
	closers = append(closers, receiver)

	transport, err := session.Listen(cfg.Session.ListenAddress, cfg.Session.LineTimeout)
	if err != nil {
		return fail(fmt.Errorf("listening for sessions: %w", err))
	}
	closers = append(closers, transport)

	restarter, err := watchdog.NewRestarter(cfg.Watchdog.RestartMode)
	if err != nil {
		return fail(err)
	}

	var notifier telegram.Service
	if cfg.Telegram != nil {
		notifier = telegram.New(logger.With().Str("component", "telegram").Logger())
	}

	svc := Services{
		Power:     powerSvc,
		Matcher:   wake.New(logger.With().Str("component", "wake").Logger(), cfg.Wake, cfg.Power.Pulse, powerSvc),
		Receiver:  receiver,
		Transport: transport,
		Sessions: session.New(
			logger.With().Str("component", "session").Logger(),
			cfg.Session,
			cfg.Power,
			powerSvc,
			bridge,
			session.NewAuthenticator(cfg.Session),
		),
		Watchdog: watchdog.New(
			logger.With().Str("component", "watchdog").Logger(),
			cfg.Watchdog,
			watchdog.NewNetlinkLink(cfg.Network.Interface),
			restarter,
			powerSvc,
		),
		Telegram: notifier,
	}

	logger.Info().
		Str("wake_address", receiver.Addr().String()).
		Str("session_address", transport.Addr().String()).
		Str("interface", cfg.Network.Interface).
		Msg("peripherals initialized")

	s := NewWithServices(logger, cfg, svc, clock.Real{})
	s.closers = closers
	return s, nil
}

// NewWithServices creates a controller with custom services (for testing).
func NewWithServices(logger zerolog.Logger, cfg models.Config, svc Services, clk clock.Clock) *Impl {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return &Impl{
		svc:       svc,
		cfg:       cfg,
		scheduler: NewScheduler(),
		clock:     clk,
		logger:    logger,
		host:      host,
	}
}

// Run waits for the network, then polls every peripheral until ctx is done.
func (s *Impl) Run(ctx context.Context) error {
	s.logger.Info().
		Str("target", s.cfg.Wake.Target.String()).
		Msg("waiting for network")

	if err := s.svc.Watchdog.WaitForLink(ctx, s.cfg.Network.ConnectTimeout); err != nil {
		return fmt.Errorf("waiting for network: %w", err)
	}

	s.scheduler.Add(Task{
		Name:     "watchdog",
		Interval: s.cfg.Watchdog.Period,
		Run:      s.checkLink,
	}, s.clock.Now())

	s.logger.Info().
		Str("device", s.svc.Power.IsOn().String()).
		Dur("watchdog_period", s.cfg.Watchdog.Period).
		Msg("controller running")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("controller stopped")
			return nil
		default:
		}

		s.Step(ctx)
		s.clock.Sleep(s.idle())
	}
}

// idle returns how long to sleep between iterations: the configured idle
// time, cut short when a scheduled task falls due sooner.
func (s *Impl) idle() time.Duration {
	d := s.cfg.Loop.Idle
	if next := s.scheduler.Next(); !next.IsZero() {
		if until := next.Sub(s.clock.Now()); until < d {
			d = until
		}
	}
	if d < 0 {
		d = 0
	}
	return d
}

// Step runs one iteration of the loop.
func (s *Impl) Step(ctx context.Context) {
	s.pollWake(ctx)
	s.acceptSession()
	s.pollSession(ctx)
	s.scheduler.Execute(s.clock.Now())
}

// Close waits for pending notifications and releases the listeners.
func (s *Impl) Close() error {
	if !s.waitNotifications(notifyTimeout) {
		s.logger.Warn().Msg("gave up waiting for Telegram notifications")
	}

	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}

func (s *Impl) pollWake(ctx context.Context) {
	packet, ok, err := s.svc.Receiver.Poll()
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read wake packet")
		return
	}
	if !ok {
		return
	}

	result := s.svc.Matcher.Handle(packet)
	if result.Outcome == models.WakePulsed {
		s.notifyPulse(ctx, models.TelegramMessage{
			Source:      "wake",
			StateBefore: models.PowerOff,
			Pulse:       result.Pulse,
		})
	}
}

func (s *Impl) acceptSession() {
	conn, ok, err := s.svc.Transport.Accept()
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to accept session")
		return
	}
	if ok {
		s.svc.Sessions.Attach(conn)
	}
}

func (s *Impl) pollSession(ctx context.Context) {
	result := s.svc.Sessions.Poll()
	if result.Pulse == 0 {
		return
	}

	before := models.PowerOn
	if result.Outcome == models.CommandPoweringOn {
		before = models.PowerOff
	}
	s.notifyPulse(ctx, models.TelegramMessage{
		Source:      "session",
		Command:     result.Command,
		StateBefore: before,
		Pulse:       result.Pulse,
	})
}

func (s *Impl) checkLink() {
	result := s.svc.Watchdog.Tick()
	if result.Error != nil {
		s.logger.Warn().
			Err(result.Error).
			Str("state", result.State.String()).
			Int("attempts", result.Attempts).
			Msg("watchdog tick reported an error")
		return
	}
	s.logger.Debug().
		Str("state", result.State.String()).
		Int("attempts", result.Attempts).
		Msg("watchdog tick")
}

// notifyPulse sends msg on its own goroutine; the loop never waits for the Bot API.
func (s *Impl) notifyPulse(ctx context.Context, msg models.TelegramMessage) {
	if s.svc.Telegram == nil || s.cfg.Telegram == nil {
		return
	}

	msg.Host = s.host
	msg.Time = s.clock.Now()
	cfg := *s.cfg.Telegram

	s.notify.Add(1)
	go func() {
		defer s.notify.Done()

		result, err := s.svc.Telegram.SendNotification(ctx, cfg, msg)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to send Telegram notification")
			return
		}
		if result.Error != nil {
			s.logger.Error().Err(result.Error).Msg("failed to send Telegram notification")
			return
		}

		s.logger.Info().Str("source", msg.Source).Msg("Telegram notification sent")
	}()
}

// waitNotifications blocks until every in-flight notification finished.
func (s *Impl) waitNotifications(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.notify.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
