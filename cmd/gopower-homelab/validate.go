package main

import (
	"fmt"
	"os"

	"github.com/fgeck/gopower-homelab/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file without touching any GPIO, serial port or socket.`,
	RunE:  validateConfig,
}

func validateConfig(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		log.Error().Msg("config file is required")
		return cmd.Help()
	}

	// Check if file exists
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		log.Error().Str("file", configFile).Msg("config file not found")
		return fmt.Errorf("config file not found: %s", configFile)
	}

	// Load configuration
	parser := config.NewParser()
	cfg, err := parser.LoadFile(configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to parse config")
		return err
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("configuration validation failed")
		return err
	}

	// Print configuration summary
	fmt.Println("Configuration is valid!")
	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  Interface: %s\n", cfg.Network.Interface)
	fmt.Printf("  Target MAC: %s\n", cfg.Wake.Target)
	fmt.Printf("  Wake listener: %s (strict: %v)\n", cfg.Wake.ListenAddress, cfg.Wake.Strict)
	fmt.Printf("  Session listener: %s\n", cfg.Session.ListenAddress)
	fmt.Printf("  Command mode requires login: %v\n", cfg.Session.RequireAuthForCommands)
	fmt.Println()
	fmt.Println("Power:")
	fmt.Printf("  Pulse: %s\n", cfg.Power.Pulse)
	fmt.Printf("  Forced pulse: %s\n", cfg.Power.ForcedPulse)
	fmt.Println()
	fmt.Println("Watchdog:")
	fmt.Printf("  Period: %s\n", cfg.Watchdog.Period)
	fmt.Printf("  Threshold: %d\n", cfg.Watchdog.Threshold)
	fmt.Printf("  Restart mode: %s\n", cfg.Watchdog.RestartMode)
	fmt.Println()
	fmt.Println("GPIO:")
	fmt.Printf("  Relay: %s\n", cfg.GPIO.Relay)
	fmt.Printf("  Status: %s\n", cfg.GPIO.Status)
	fmt.Printf("  LEDs: pulse=%s link=%s fault=%s\n", cfg.GPIO.PulseLED, cfg.GPIO.LinkLED, cfg.GPIO.FaultLED)
	fmt.Println()
	fmt.Println("Optional Features:")
	fmt.Printf("  Serial console: %v\n", cfg.Serial.Port != "")
	fmt.Printf("  Telegram: %v\n", cfg.Telegram != nil)

	if cfg.Serial.Port != "" {
		fmt.Println()
		fmt.Println("Serial Configuration:")
		fmt.Printf("  Port: %s\n", cfg.Serial.Port)
		fmt.Printf("  Baud rate: %d\n", cfg.Serial.BaudRate)
	}

	if cfg.Telegram != nil {
		fmt.Println()
		fmt.Println("Telegram Configuration:")
		fmt.Printf("  Chat ID: %s\n", cfg.Telegram.ChatID)
		fmt.Printf("  Bot Token: (configured)\n")
	}

	return nil
}
