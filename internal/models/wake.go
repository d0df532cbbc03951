package models

import "time"

// WakeOutcome says what the matcher did with a datagram.
type WakeOutcome int

// Wake outcomes. Everything except WakePulsed has no observable effect.
const (
	WakeIgnoredUndersized WakeOutcome = iota
	WakeIgnoredMismatch
	WakeIgnoredAlreadyOn
	WakePulsed
)

func (o WakeOutcome) String() string {
	switch o {
	case WakeIgnoredUndersized:
		return "ignored_undersized"
	case WakeIgnoredMismatch:
		return "ignored_mismatch"
	case WakeIgnoredAlreadyOn:
		return "ignored_already_on"
	case WakePulsed:
		return "pulsed"
	default:
		return "unknown"
	}
}

// WakeResult holds the result of handling one datagram.
type WakeResult struct {
	Outcome WakeOutcome
	Pulse   time.Duration // zero unless Outcome is WakePulsed
}
