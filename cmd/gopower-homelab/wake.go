package main

import (
	"fmt"
	"net"

	"github.com/fgeck/gopower-homelab/internal/config"
	"github.com/fgeck/gopower-homelab/internal/services/wake"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	wakeMAC       string
	wakeBroadcast string
	wakePort      int
)

var wakeCmd = &cobra.Command{
	Use:   "wake",
	Short: "Send a Wake-on-LAN packet",
	Long: `Send a magic packet from this machine. Point it at a running controller to
test the relay without a second tool. The MAC address defaults to
wake.mac_address from the config file.`,
	RunE: sendWake,
}

func init() {
	wakeCmd.Flags().StringVar(&wakeMAC, "mac", "", "target MAC address")
	wakeCmd.Flags().StringVar(&wakeBroadcast, "broadcast", "255.255.255.255", "destination broadcast IP")
	wakeCmd.Flags().IntVar(&wakePort, "port", 9, "destination UDP port")
}

func sendWake(cmd *cobra.Command, args []string) error {
	mac, err := resolveWakeMAC()
	if err != nil {
		log.Error().Err(err).Msg("no target MAC address")
		return err
	}

	log.Info().
		Str("mac", mac.String()).
		Str("broadcast", wakeBroadcast).
		Int("port", wakePort).
		Msg("sending Wake-on-LAN packet")

	sender := &wake.DefaultSender{}
	if err := sender.Wake(wakeBroadcast, wakePort, mac); err != nil {
		log.Error().Err(err).Msg("failed to send Wake-on-LAN packet")
		return err
	}

	log.Info().Msg("Wake-on-LAN packet sent")
	return nil
}

func resolveWakeMAC() (net.HardwareAddr, error) {
	if wakeMAC != "" {
		return config.ParseHardwareAddr(wakeMAC)
	}
	if configFile == "" {
		return nil, fmt.Errorf("either --mac or --config is required")
	}

	parser := config.NewParser()
	cfg, err := parser.LoadFile(configFile)
	if err != nil {
		return nil, err
	}
	return cfg.Wake.Target, nil
}
