package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thingify-app/thingify-net/internal/config"
	"github.com/thingify-app/thingify-net/internal/logging"
)

var (
	version = "dev"

	configPath string
	logLevel   string

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "thingify-net",
	Short: "Create virtual networks with web browsers over WebRTC",
	Long: `thingify-net bridges a local TUN interface to a paired web browser over a
WebRTC data channel, so the browser can reach this machine's services.

Pair with a browser:   thingify-net pair --shortcode CODE
Bring the link up:     thingify-net connect
Print a setup card:    thingify-net card`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: <user config dir>/thingrtc/config.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	c, err := config.Load(path)
	if err != nil {
		return err
	}
	c.ApplyEnv()
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}

	logging.Configure(logging.Config{Level: c.Log.Level, Format: c.Log.Format})
	cfg = c
	return nil
}

func Execute(v string) error {
	version = v
	rootCmd.Version = v
	return rootCmd.Execute()
}
