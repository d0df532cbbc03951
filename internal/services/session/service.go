// Package session implements the remote session: password login, serial
// console passthrough and the power command prompt.
package session

import (
	"strings"
	"time"

	"github.com/fgeck/gopower-homelab/internal/models"
	"github.com/fgeck/gopower-homelab/internal/services/power"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Control bytes.
const (
	EOT byte = 0x04 // Ctrl-D, ends the session
	SUB byte = 0x1A // Ctrl-Z, enters command mode
)

// Prompt is written before each command is read.
const Prompt = "telnet> "

// Responses written to the session.
const (
	MsgDisconnecting    = "Disconnecting..."
	MsgEnterCommandMode = "Entering command mode..."
	MsgLoginSuccessful  = "Login successful!"
	MsgAccessDenied     = "Access denied."
	MsgAlreadyOn        = "Device is already on."
	MsgPoweringOn       = "Powering on device..."
	MsgAlreadyOff       = "Device is already off."
	MsgPoweringOff      = "Powering off device..."
	MsgForcingShutdown  = "Forcing device shutdown..."
	MsgLeaveCommandMode = "Leaving command mode..."
	MsgUnrecognized     = "Unrecognized command."
)

// Commands understood in command mode.
const (
	CmdPowerOn       = "poweron"
	CmdPowerOff      = "poweroff"
	CmdForcePowerOff = "poweroff -f"
	CmdExit          = "exit"
)

// Bridge is the serial console the session is bridged to.
type Bridge interface {
	Available() bool
	Buffered() int
	ReadByte() (byte, error)
	WriteLine(line string) error
}

// Service defines the interface for the remote session controller.
type Service interface {
	Attach(conn Conn)
	Connected() bool
	State() models.Session
	Poll() models.SessionResult
}

// Impl implements the session Service interface. It owns at most one
// connection and its Session state.
type Impl struct {
	conn  Conn
	state models.Session

	power       power.Service
	bridge      Bridge
	auth        Authenticator
	pulse       time.Duration
	forcedPulse time.Duration
	requireAuth bool
	base        zerolog.Logger
	logger      zerolog.Logger // base plus the current session_id
}

// New creates a new session controller.
func New(
	logger zerolog.Logger,
	cfg models.SessionConfig,
	powerCfg models.PowerConfig,
	powerSvc power.Service,
	bridge Bridge,
	auth Authenticator,
) *Impl {
	return &Impl{
		power:       powerSvc,
		bridge:      bridge,
		auth:        auth,
		pulse:       powerCfg.Pulse,
		forcedPulse: powerCfg.ForcedPulse,
		requireAuth: cfg.RequireAuthForCommands,
		base:        logger,
		logger:      logger,
	}
}

// Attach makes conn the current session, dropping any previous one.
func (s *Impl) Attach(conn Conn) {
	if s.conn != nil {
		s.logger.Info().Msg("new session replaces the current one")
		_ = s.conn.Close()
	}
	s.conn = conn
	s.state = models.Session{}
	s.logger = s.base.With().Str("session_id", uuid.NewString()).Logger()
	s.logger.Info().Msg("session connected")
}

// Connected reports whether a session is attached.
func (s *Impl) Connected() bool {
	return s.conn != nil
}

// State returns a copy of the current session state.
func (s *Impl) State() models.Session {
	return s.state
}

// Poll handles at most one unit of session input, then relays pending console
// output unless the input was fully consumed by a control branch.
func (s *Impl) Poll() models.SessionResult {
	if s.conn == nil || !s.conn.Available() {
		return models.SessionResult{Action: models.SessionIdle, Echoed: s.drain()}
	}

	b, err := s.conn.ReadByte()
	if err != nil {
		s.logger.Info().Err(err).Msg("session closed by peer")
		s.detach()
		return models.SessionResult{Action: models.SessionClosed, Error: err}
	}

	switch b {
	case EOT:
		s.writeLine(MsgDisconnecting)
		s.detach()
		s.logger.Info().Msg("session disconnected")
		return models.SessionResult{Action: models.SessionDisconnected}
	case SUB:
		if s.requireAuth && !s.state.Authenticated {
			s.writeLine(MsgAccessDenied)
			s.logger.Warn().Msg("command mode refused, session not authenticated")
			return models.SessionResult{Action: models.SessionCommandRejected}
		}
		s.state.InCommandMode = true
		s.writeLine(MsgEnterCommandMode)
		s.logger.Info().Bool("authenticated", s.state.Authenticated).Msg("entered command mode")
		return models.SessionResult{Action: models.SessionEnteredCommandMode}
	}

	if s.state.InCommandMode {
		return s.handleCommand(b)
	}

	line, err := s.readLine(b)
	if err != nil {
		s.logger.Info().Err(err).Msg("session closed by peer")
		s.detach()
		return models.SessionResult{Action: models.SessionClosed, Error: err}
	}

	if !s.state.Authenticated {
		if s.auth.Verify(line) {
			s.state.Authenticated = true
			s.writeLine(MsgLoginSuccessful)
			s.logger.Info().Msg("session authenticated")
			return models.SessionResult{Action: models.SessionAuthSucceeded}
		}
		s.writeLine(MsgAccessDenied)
		s.logger.Warn().Msg("session login denied")
		return models.SessionResult{Action: models.SessionAuthDenied}
	}

	result := models.SessionResult{Action: models.SessionForwarded, Forwarded: line}
	if err := s.bridge.WriteLine(line); err != nil {
		s.logger.Error().Err(err).Msg("failed to forward line to console")
		result.Error = err
	}
	result.Echoed = s.drain()

	return result
}

// handleCommand runs exactly one command from the prompt.
func (s *Impl) handleCommand(first byte) models.SessionResult {
	s.write(Prompt)

	line, err := s.readLine(first)
	if err != nil {
		s.logger.Info().Err(err).Msg("session closed by peer")
		s.detach()
		return models.SessionResult{Action: models.SessionClosed, Error: err}
	}

	result := models.SessionResult{Action: models.SessionCommandHandled, Command: line}

	switch line {
	case CmdPowerOn:
		if s.power.IsOn() == models.PowerOn {
			result.Outcome = models.CommandAlreadyOn
			s.writeLine(MsgAlreadyOn)
		} else {
			result.Outcome = models.CommandPoweringOn
			s.writeLine(MsgPoweringOn)
			result.Pulse = s.press(s.pulse)
		}
	case CmdPowerOff:
		if s.power.IsOn() == models.PowerOff {
			result.Outcome = models.CommandAlreadyOff
			s.writeLine(MsgAlreadyOff)
		} else {
			result.Outcome = models.CommandPoweringOff
			s.writeLine(MsgPoweringOff)
			result.Pulse = s.press(s.pulse)
		}
	case CmdForcePowerOff:
		if s.power.IsOn() == models.PowerOff {
			result.Outcome = models.CommandAlreadyOff
			s.writeLine(MsgAlreadyOff)
		} else {
			result.Outcome = models.CommandForcingShutdown
			s.writeLine(MsgForcingShutdown)
			result.Pulse = s.press(s.forcedPulse)
		}
	case CmdExit:
		result.Outcome = models.CommandExit
		s.state.InCommandMode = false
		s.writeLine(MsgLeaveCommandMode)
	default:
		result.Outcome = models.CommandUnrecognized
		s.writeLine(MsgUnrecognized)
	}

	s.logger.Info().
		Str("command", line).
		Bool("authenticated", s.state.Authenticated).
		Dur("pulse", result.Pulse).
		Msg("session command")

	return result
}

func (s *Impl) press(d time.Duration) time.Duration {
	s.power.Pulse(d)
	return d
}

// readLine completes the line whose first byte was already consumed as the
// control byte.
func (s *Impl) readLine(first byte) (string, error) {
	if first == '\n' {
		return "", nil
	}
	rest, err := s.conn.ReadLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(append([]byte{first}, rest...))), nil
}

// drain copies what the console has buffered to the session. It polls the
// port at most once, so a continuously talking console cannot hold the loop.
// Without a session the output is discarded.
func (s *Impl) drain() int {
	if !s.bridge.Available() {
		return 0
	}
	n := s.bridge.Buffered()
	out := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		c, err := s.bridge.ReadByte()
		if err != nil {
			break
		}
		out = append(out, c)
	}
	if len(out) > 0 && s.conn != nil {
		s.write(string(out))
	}
	return len(out)
}

func (s *Impl) detach() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.conn = nil
	s.state = models.Session{}
	s.logger = s.base
}

func (s *Impl) writeLine(msg string) {
	s.write(msg + "\r\n")
}

func (s *Impl) write(msg string) {
	if s.conn == nil {
		return
	}
	if _, err := s.conn.Write([]byte(msg)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write to session")
	}
}
