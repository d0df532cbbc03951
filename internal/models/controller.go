// Package models contains the data structures used throughout gopower-homelab.
package models

import (
	"net"
	"time"
)

// Config holds the complete configuration of the power controller.
type Config struct {
	Network  NetworkConfig
	Wake     WakeConfig
	Session  SessionConfig
	Serial   SerialConfig
	GPIO     GPIOConfig
	Power    PowerConfig
	Watchdog WatchdogPolicy
	Loop     LoopConfig
	Telegram *TelegramConfig // nil if not configured
}

// NetworkConfig describes the interface the watchdog supervises.
type NetworkConfig struct {
	Interface      string
	ConnectTimeout time.Duration // 0 waits forever at startup
}

// WakeConfig holds magic packet listener configuration.
type WakeConfig struct {
	MACAddress    string
	Target        net.HardwareAddr // parsed from MACAddress
	ListenAddress string
	Strict        bool // validate the full packet instead of the first repetition only
}

// SessionConfig holds the remote session configuration.
type SessionConfig struct {
	ListenAddress          string
	Secret                 string
	SecretHash             string // bcrypt, takes precedence over Secret
	RequireAuthForCommands bool
	LineTimeout            time.Duration
}

// SerialConfig holds the console bridge configuration.
type SerialConfig struct {
	Port     string // empty disables the bridge
	BaudRate int
}

// GPIOConfig holds pin names as understood by periph.io's gpioreg.
type GPIOConfig struct {
	Relay    string
	PulseLED string
	LinkLED  string
	FaultLED string
	Status   string
}

// PowerConfig holds relay pulse lengths.
type PowerConfig struct {
	Pulse       time.Duration
	ForcedPulse time.Duration
}

// LoopConfig tunes the cooperative main loop.
type LoopConfig struct {
	Idle time.Duration
}
