package models

import "time"

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// TelegramMessage describes a relay pulse worth notifying about.
type TelegramMessage struct {
	Host        string
	Source      string // "wake" or "session"
	Command     string // session command, empty for wake packets
	StateBefore PowerState
	Pulse       time.Duration
	Time        time.Time
}

// TelegramResult holds the result of a Telegram notification.
type TelegramResult struct {
	MessageSent bool
	Error       error
}
