package models

import "time"

// LinkState is the observed network reachability.
type LinkState int

// Link states.
const (
	LinkDisconnected LinkState = iota
	LinkConnected
)

func (s LinkState) String() string {
	if s == LinkConnected {
		return "connected"
	}
	return "disconnected"
}

// WatchdogPolicy configures the connectivity watchdog.
type WatchdogPolicy struct {
	Period      time.Duration
	Threshold   int
	RestartMode string // "exec" (default), "reboot" or "exit"
}

// WatchdogResult holds the result of one watchdog tick.
type WatchdogResult struct {
	State       LinkState
	Attempts    int  // failure counter after the tick
	Reconnected bool // a reconnect was requested
	Restarted   bool // the restart action was invoked
	Error       error
}
