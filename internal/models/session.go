package models

import "time"

// Session holds the per-connection state of the remote session.
// InCommandMode may be set while Authenticated is not.
type Session struct {
	Authenticated bool
	InCommandMode bool
}

// SessionAction says which branch a poll of the remote session took.
type SessionAction int

// Session actions.
const (
	SessionIdle SessionAction = iota
	SessionClosed
	SessionDisconnected
	SessionEnteredCommandMode
	SessionCommandRejected
	SessionCommandHandled
	SessionAuthSucceeded
	SessionAuthDenied
	SessionForwarded
)

func (a SessionAction) String() string {
	switch a {
	case SessionIdle:
		return "idle"
	case SessionClosed:
		return "closed"
	case SessionDisconnected:
		return "disconnected"
	case SessionEnteredCommandMode:
		return "entered_command_mode"
	case SessionCommandRejected:
		return "command_rejected"
	case SessionCommandHandled:
		return "command_handled"
	case SessionAuthSucceeded:
		return "auth_succeeded"
	case SessionAuthDenied:
		return "auth_denied"
	case SessionForwarded:
		return "forwarded"
	default:
		return "unknown"
	}
}

// CommandOutcome is the row of the command table that matched.
type CommandOutcome int

// Command outcomes.
const (
	CommandNone CommandOutcome = iota
	CommandAlreadyOn
	CommandPoweringOn
	CommandAlreadyOff
	CommandPoweringOff
	CommandForcingShutdown
	CommandExit
	CommandUnrecognized
)

// SessionResult holds the result of one poll of the remote session.
type SessionResult struct {
	Action    SessionAction
	Command   string
	Outcome   CommandOutcome
	Pulse     time.Duration // zero unless the relay was pulsed
	Forwarded string        // line written to the serial bridge
	Echoed    int           // bytes copied from the serial bridge to the session
	Error     error
}
