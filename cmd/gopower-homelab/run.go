package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fgeck/gopower-homelab/internal/config"
	"github.com/fgeck/gopower-homelab/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the power controller",
	Long: `Run the power controller until interrupted:
1. Wait for the network interface to come up
2. Listen for Wake-on-LAN packets and pulse the power button
3. Accept one remote session at a time (login, serial passthrough, command mode)
4. Check connectivity periodically and restart after repeated failures
5. Send a Telegram notification on every pulse (if configured)`,
	RunE: runController,
}

func runController(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		log.Error().Msg("config file is required")
		return cmd.Help()
	}

	// Load configuration
	parser := config.NewParser()
	cfg, err := parser.LoadFile(configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to load config")
		return err
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return err
	}

	log.Info().
		Str("config", configFile).
		Str("interface", cfg.Network.Interface).
		Str("target", cfg.Wake.Target.String()).
		Msg("configuration loaded")

	if !cfg.Session.RequireAuthForCommands {
		log.Warn().Msg("command mode does not require login; set session.require_auth_for_commands to enforce it")
	}

	// Set up context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("received signal, shutting down")
		cancel()
	}()

	runnerSvc, err := runner.New(log.Logger, *cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize controller")
		return err
	}
	defer func() {
		if err := runnerSvc.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to release controller resources")
		}
	}()

	if err := runnerSvc.Run(ctx); err != nil {
		log.Error().Err(err).Msg("controller failed")
		return err
	}

	return nil
}
