package config

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fgeck/gopower-homelab/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_LoadReader_MinimalConfig(t *testing.T) {
	yaml := `
network:
  interface: wlan0
wake:
  mac_address: "A1:B2:C3:D4:E5:F6"
session:
  secret: "admin/passw0rd"
`
	parser := NewParser()
	cfg, err := parser.LoadReader(yaml)

	require.NoError(t, err)
	assert.Equal(t, "wlan0", cfg.Network.Interface)
	assert.Equal(t, net.HardwareAddr{0xA1, 0xB2, 0xC3, 0xD4, 0xE5, 0xF6}, cfg.Wake.Target)
	assert.Equal(t, "admin/passw0rd", cfg.Session.Secret)
	// Check defaults
	assert.Equal(t, "0.0.0.0:9", cfg.Wake.ListenAddress)
	assert.False(t, cfg.Wake.Strict)
	assert.Equal(t, "0.0.0.0:23", cfg.Session.ListenAddress)
	assert.Equal(t, time.Second, cfg.Session.LineTimeout)
	assert.False(t, cfg.Session.RequireAuthForCommands)
	assert.Equal(t, "", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, 1000*time.Millisecond, cfg.Power.Pulse)
	assert.Equal(t, 5000*time.Millisecond, cfg.Power.ForcedPulse)
	assert.Equal(t, 15*time.Second, cfg.Watchdog.Period)
	assert.Equal(t, 10, cfg.Watchdog.Threshold)
	assert.Equal(t, "exec", cfg.Watchdog.RestartMode)
	assert.Equal(t, 10*time.Millisecond, cfg.Loop.Idle)
	assert.Equal(t, models.GPIOConfig{
		Relay:    "GPIO5",
		PulseLED: "GPIO18",
		LinkLED:  "GPIO21",
		FaultLED: "GPIO19",
		Status:   "GPIO22",
	}, cfg.GPIO)
	assert.Nil(t, cfg.Telegram)
}

func TestParser_LoadReader_FullConfig(t *testing.T) {
	yaml := `
network:
  interface: eth0
  connect_timeout: 2m

wake:
  mac_address: "aa-bb-cc-dd-ee-ff"
  listen_address: "192.168.1.50:7"
  strict: true

session:
  listen_address: "0.0.0.0:2323"
  secret: "hunter2"
  secret_hash: "$2a$10$abcdefghijklmnopqrstuu"
  require_auth_for_commands: true
  line_timeout: 3s

serial:
  port: /dev/ttyAMA0
  baud_rate: 9600

gpio:
  relay: GPIO17
  pulse_led: GPIO27
  link_led: GPIO22
  fault_led: GPIO23
  status: GPIO24

power:
  pulse: 500ms
  forced_pulse: 8s

watchdog:
  period: 30s
  threshold: 4
  restart_mode: reboot

loop:
  idle: 5ms

telegram:
  bot_token: "123456:ABC"
  chat_id: "-100123456789"
`
	parser := NewParser()
	cfg, err := parser.LoadReader(yaml)

	require.NoError(t, err)

	// Network
	assert.Equal(t, "eth0", cfg.Network.Interface)
	assert.Equal(t, 2*time.Minute, cfg.Network.ConnectTimeout)

	// Wake
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", cfg.Wake.Target.String())
	assert.Equal(t, "192.168.1.50:7", cfg.Wake.ListenAddress)
	assert.True(t, cfg.Wake.Strict)

	// Session
	assert.Equal(t, "0.0.0.0:2323", cfg.Session.ListenAddress)
	assert.Equal(t, "hunter2", cfg.Session.Secret)
	assert.True(t, cfg.Session.RequireAuthForCommands)
	assert.Equal(t, 3*time.Second, cfg.Session.LineTimeout)

	// Serial
	assert.Equal(t, "/dev/ttyAMA0", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)

	// GPIO
	assert.Equal(t, "GPIO17", cfg.GPIO.Relay)
	assert.Equal(t, "GPIO27", cfg.GPIO.PulseLED)
	assert.Equal(t, "GPIO22", cfg.GPIO.LinkLED)
	assert.Equal(t, "GPIO23", cfg.GPIO.FaultLED)
	assert.Equal(t, "GPIO24", cfg.GPIO.Status)

	// Power
	assert.Equal(t, 500*time.Millisecond, cfg.Power.Pulse)
	assert.Equal(t, 8*time.Second, cfg.Power.ForcedPulse)

	// Watchdog
	assert.Equal(t, 30*time.Second, cfg.Watchdog.Period)
	assert.Equal(t, 4, cfg.Watchdog.Threshold)
	assert.Equal(t, "reboot", cfg.Watchdog.RestartMode)

	// Loop
	assert.Equal(t, 5*time.Millisecond, cfg.Loop.Idle)

	// Telegram
	require.NotNil(t, cfg.Telegram)
	assert.Equal(t, "123456:ABC", cfg.Telegram.BotToken)
	assert.Equal(t, "-100123456789", cfg.Telegram.ChatID)
}

func TestParser_LoadReader_EnvVarExpansion(t *testing.T) {
	// Set test environment variables
	t.Setenv("TEST_SESSION_SECRET", "env_secret")
	t.Setenv("TEST_TELEGRAM_TOKEN", "env_token")

	yaml := `
network:
  interface: wlan0
wake:
  mac_address: "A1:B2:C3:D4:E5:F6"
session:
  secret: "${TEST_SESSION_SECRET}"
telegram:
  bot_token: "$TEST_TELEGRAM_TOKEN"
  chat_id: "42"
`
	parser := NewParser()
	cfg, err := parser.LoadReader(yaml)

	require.NoError(t, err)
	assert.Equal(t, "env_secret", cfg.Session.Secret)
	assert.Equal(t, "env_token", cfg.Telegram.BotToken)
}

func TestParser_LoadReader_Errors(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		errMsg string
	}{
		{
			name: "missing interface",
			yaml: `
wake:
  mac_address: "A1:B2:C3:D4:E5:F6"
session:
  secret: "x"
`,
			errMsg: "network.interface is required",
		},
		{
			name: "missing mac",
			yaml: `
network:
  interface: wlan0
session:
  secret: "x"
`,
			errMsg: "wake.mac_address is required",
		},
		{
			name: "invalid mac",
			yaml: `
network:
  interface: wlan0
wake:
  mac_address: "invalid-mac"
session:
  secret: "x"
`,
			errMsg: "invalid MAC address",
		},
		{
			name: "eui64 mac",
			yaml: `
network:
  interface: wlan0
wake:
  mac_address: "00:00:00:00:fe:80:00:00"
session:
  secret: "x"
`,
			errMsg: "expected 6 bytes",
		},
		{
			name: "missing secret",
			yaml: `
network:
  interface: wlan0
wake:
  mac_address: "A1:B2:C3:D4:E5:F6"
`,
			errMsg: "session.secret or session.secret_hash is required",
		},
		{
			name: "invalid restart mode",
			yaml: `
network:
  interface: wlan0
wake:
  mac_address: "A1:B2:C3:D4:E5:F6"
session:
  secret: "x"
watchdog:
  restart_mode: halt
`,
			errMsg: "watchdog.restart_mode must be one of",
		},
		{
			name: "telegram missing token",
			yaml: `
network:
  interface: wlan0
wake:
  mac_address: "A1:B2:C3:D4:E5:F6"
session:
  secret: "x"
telegram:
  chat_id: "-100123456789"
`,
			errMsg: "telegram.bot_token is required",
		},
		{
			name: "telegram missing chat id",
			yaml: `
network:
  interface: wlan0
wake:
  mac_address: "A1:B2:C3:D4:E5:F6"
session:
  secret: "x"
telegram:
  bot_token: "123456:ABC"
`,
			errMsg: "telegram.chat_id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewParser()
			_, err := parser.LoadReader(tt.yaml)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParser_LoadReader_SecretHashOnly(t *testing.T) {
	yaml := `
network:
  interface: wlan0
wake:
  mac_address: "A1:B2:C3:D4:E5:F6"
session:
  secret_hash: "$2a$10$abcdefghijklmnopqrstuu"
`
	parser := NewParser()
	cfg, err := parser.LoadReader(yaml)

	require.NoError(t, err)
	assert.Empty(t, cfg.Session.Secret)
	assert.Equal(t, "$2a$10$abcdefghijklmnopqrstuu", cfg.Session.SecretHash)
}

func TestParser_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
network:
  interface: wlan0
wake:
  mac_address: "A1:B2:C3:D4:E5:F6"
session:
  secret: "admin/passw0rd"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	parser := NewParser()
	cfg, err := parser.LoadFile(path)

	require.NoError(t, err)
	assert.Equal(t, "wlan0", cfg.Network.Interface)
}

func TestParser_LoadFile_NotFound(t *testing.T) {
	parser := NewParser()
	_, err := parser.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestParseHardwareAddr(t *testing.T) {
	mac, err := ParseHardwareAddr("A1:B2:C3:D4:E5:F6")
	require.NoError(t, err)
	assert.Equal(t, net.HardwareAddr{0xA1, 0xB2, 0xC3, 0xD4, 0xE5, 0xF6}, mac)

	_, err = ParseHardwareAddr("A1:B2:C3")
	assert.Error(t, err)
}

func validConfig() *models.Config {
	return &models.Config{
		Network:  models.NetworkConfig{Interface: "wlan0"},
		Wake:     models.WakeConfig{Target: net.HardwareAddr{1, 2, 3, 4, 5, 6}},
		Session:  models.SessionConfig{Secret: "secret"},
		Power:    models.PowerConfig{Pulse: time.Second, ForcedPulse: 5 * time.Second},
		Watchdog: models.WatchdogPolicy{Period: 15 * time.Second, Threshold: 10},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     func() *models.Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "nil config",
			cfg:     func() *models.Config { return nil },
			wantErr: true,
			errMsg:  "configuration is nil",
		},
		{
			name: "missing interface",
			cfg: func() *models.Config {
				c := validConfig()
				c.Network.Interface = ""
				return c
			},
			wantErr: true,
			errMsg:  "network.interface is required",
		},
		{
			name: "missing target",
			cfg: func() *models.Config {
				c := validConfig()
				c.Wake.Target = nil
				return c
			},
			wantErr: true,
			errMsg:  "wake.mac_address",
		},
		{
			name: "missing secret",
			cfg: func() *models.Config {
				c := validConfig()
				c.Session.Secret = ""
				return c
			},
			wantErr: true,
			errMsg:  "session.secret",
		},
		{
			name: "zero pulse",
			cfg: func() *models.Config {
				c := validConfig()
				c.Power.ForcedPulse = 0
				return c
			},
			wantErr: true,
			errMsg:  "power pulses must be positive",
		},
		{
			name: "zero period",
			cfg: func() *models.Config {
				c := validConfig()
				c.Watchdog.Period = 0
				return c
			},
			wantErr: true,
			errMsg:  "watchdog.period",
		},
		{
			name: "zero threshold",
			cfg: func() *models.Config {
				c := validConfig()
				c.Watchdog.Threshold = 0
				return c
			},
			wantErr: true,
			errMsg:  "watchdog.threshold",
		},
		{
			name:    "valid config",
			cfg:     validConfig,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg())
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
