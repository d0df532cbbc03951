// Package config provides configuration file parsing.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/fgeck/gopower-homelab/internal/models"
	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultWakeListenAddress    = "0.0.0.0:9"
	DefaultSessionListenAddress = "0.0.0.0:23"
	DefaultLineTimeout          = time.Second
	DefaultBaudRate             = 115200
	DefaultPulse                = 1000 * time.Millisecond
	DefaultForcedPulse          = 5000 * time.Millisecond
	DefaultWatchdogPeriod       = 15 * time.Second
	DefaultWatchdogThreshold    = 10
	DefaultRestartMode          = "exec"
	DefaultLoopIdle             = 10 * time.Millisecond
)

// Default pin names: relay GPIO5, green GPIO18, red GPIO19, blue GPIO21.
const (
	DefaultRelayPin    = "GPIO5"
	DefaultPulseLEDPin = "GPIO18"
	DefaultLinkLEDPin  = "GPIO21"
	DefaultFaultLEDPin = "GPIO19"
	DefaultStatusPin   = "GPIO22"
)

// Parser handles configuration file parsing.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser.
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType("yaml")
	return &Parser{v: v}
}

// LoadFile loads configuration from a file path.
func (p *Parser) LoadFile(path string) (*models.Config, error) {
	p.v.SetConfigFile(path)

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return p.parse()
}

// LoadReader loads configuration from a reader (useful for testing).
func (p *Parser) LoadReader(content string) (*models.Config, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse()
}

//nolint:gocognit,gocyclo // parsing config requires checking many fields
func (p *Parser) parse() (*models.Config, error) {
	cfg := &models.Config{}

	// Parse network settings (required).
	cfg.Network = models.NetworkConfig{
		Interface:      p.v.GetString("network.interface"),
		ConnectTimeout: p.v.GetDuration("network.connect_timeout"),
	}

	if cfg.Network.Interface == "" {
		return nil, fmt.Errorf("network.interface is required")
	}

	// Parse wake settings (required).
	cfg.Wake = models.WakeConfig{
		MACAddress:    p.v.GetString("wake.mac_address"),
		ListenAddress: p.v.GetString("wake.listen_address"),
		Strict:        p.v.GetBool("wake.strict"),
	}

	if cfg.Wake.MACAddress == "" {
		return nil, fmt.Errorf("wake.mac_address is required")
	}
	mac, err := ParseHardwareAddr(cfg.Wake.MACAddress)
	if err != nil {
		return nil, fmt.Errorf("wake.mac_address: %w", err)
	}
	cfg.Wake.Target = mac

	if cfg.Wake.ListenAddress == "" {
		cfg.Wake.ListenAddress = DefaultWakeListenAddress
	}

	// Parse session settings.
	cfg.Session = models.SessionConfig{
		ListenAddress:          p.v.GetString("session.listen_address"),
		Secret:                 p.expandEnv(p.v.GetString("session.secret")),
		SecretHash:             p.v.GetString("session.secret_hash"), // bcrypt hashes contain '$'
		RequireAuthForCommands: p.v.GetBool("session.require_auth_for_commands"),
		LineTimeout:            p.v.GetDuration("session.line_timeout"),
	}

	if cfg.Session.Secret == "" && cfg.Session.SecretHash == "" {
		return nil, fmt.Errorf("session.secret or session.secret_hash is required")
	}
	if cfg.Session.ListenAddress == "" {
		cfg.Session.ListenAddress = DefaultSessionListenAddress
	}
	if cfg.Session.LineTimeout == 0 {
		cfg.Session.LineTimeout = DefaultLineTimeout
	}

	// Parse serial settings.
	cfg.Serial = models.SerialConfig{
		Port:     p.v.GetString("serial.port"),
		BaudRate: p.v.GetInt("serial.baud_rate"),
	}

	if cfg.Serial.BaudRate == 0 {
		cfg.Serial.BaudRate = DefaultBaudRate
	}

	// Parse GPIO pin assignments.
	cfg.GPIO = models.GPIOConfig{
		Relay:    p.stringOr("gpio.relay", DefaultRelayPin),
		PulseLED: p.stringOr("gpio.pulse_led", DefaultPulseLEDPin),
		LinkLED:  p.stringOr("gpio.link_led", DefaultLinkLEDPin),
		FaultLED: p.stringOr("gpio.fault_led", DefaultFaultLEDPin),
		Status:   p.stringOr("gpio.status", DefaultStatusPin),
	}

	// Parse pulse lengths.
	cfg.Power = models.PowerConfig{
		Pulse:       p.v.GetDuration("power.pulse"),
		ForcedPulse: p.v.GetDuration("power.forced_pulse"),
	}

	if cfg.Power.Pulse == 0 {
		cfg.Power.Pulse = DefaultPulse
	}
	if cfg.Power.ForcedPulse == 0 {
		cfg.Power.ForcedPulse = DefaultForcedPulse
	}

	// Parse watchdog policy.
	cfg.Watchdog = models.WatchdogPolicy{
		Period:      p.v.GetDuration("watchdog.period"),
		Threshold:   p.v.GetInt("watchdog.threshold"),
		RestartMode: p.v.GetString("watchdog.restart_mode"),
	}

	if cfg.Watchdog.Period == 0 {
		cfg.Watchdog.Period = DefaultWatchdogPeriod
	}
	if cfg.Watchdog.Threshold == 0 {
		cfg.Watchdog.Threshold = DefaultWatchdogThreshold
	}
	if cfg.Watchdog.RestartMode == "" {
		cfg.Watchdog.RestartMode = DefaultRestartMode
	}
	validModes := map[string]bool{"exec": true, "reboot": true, "exit": true}
	if !validModes[cfg.Watchdog.RestartMode] {
		return nil, fmt.Errorf("watchdog.restart_mode must be one of: exec, reboot, exit")
	}

	// Parse loop settings.
	cfg.Loop = models.LoopConfig{
		Idle: p.v.GetDuration("loop.idle"),
	}

	if cfg.Loop.Idle == 0 {
		cfg.Loop.Idle = DefaultLoopIdle
	}

	// Parse optional Telegram config.
	if p.v.IsSet("telegram") {
		cfg.Telegram = &models.TelegramConfig{
			BotToken: p.expandEnv(p.v.GetString("telegram.bot_token")),
			ChatID:   p.expandEnv(p.v.GetString("telegram.chat_id")),
		}

		if cfg.Telegram.BotToken == "" {
			return nil, fmt.Errorf("telegram.bot_token is required when telegram is configured")
		}
		if cfg.Telegram.ChatID == "" {
			return nil, fmt.Errorf("telegram.chat_id is required when telegram is configured")
		}
	}

	return cfg, nil
}

func (p *Parser) stringOr(key, def string) string {
	if s := p.v.GetString(key); s != "" {
		return s
	}
	return def
}

// expandEnv expands environment variables in the format ${VAR} or $VAR.
func (p *Parser) expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// ParseHardwareAddr parses a 6-byte MAC address.
func ParseHardwareAddr(s string) (net.HardwareAddr, error) {
	mac, err := net.ParseMAC(s)
	if err != nil {
		return nil, fmt.Errorf("invalid MAC address %q: %w", s, err)
	}
	if len(mac) != 6 {
		return nil, fmt.Errorf("invalid MAC address %q: expected 6 bytes, got %d", s, len(mac))
	}
	return mac, nil
}

// Validate performs validation on the loaded configuration.
func Validate(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if cfg.Network.Interface == "" {
		return fmt.Errorf("network.interface is required")
	}

	if len(cfg.Wake.Target) != 6 {
		return fmt.Errorf("wake.mac_address must be a 6-byte MAC address")
	}

	if cfg.Session.Secret == "" && cfg.Session.SecretHash == "" {
		return fmt.Errorf("session.secret or session.secret_hash is required")
	}

	if cfg.Power.Pulse <= 0 || cfg.Power.ForcedPulse <= 0 {
		return fmt.Errorf("power pulses must be positive")
	}

	if cfg.Watchdog.Period <= 0 {
		return fmt.Errorf("watchdog.period must be positive")
	}

	if cfg.Watchdog.Threshold < 1 {
		return fmt.Errorf("watchdog.threshold must be at least 1")
	}

	return nil
}
