package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/thingify-app/thingify-net/internal/crypto"
	"github.com/thingify-app/thingify-net/internal/pairing"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and pairing status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Printf("Config: %s\n", cfg.Path)
	if _, err := os.Stat(cfg.Path); err != nil {
		fmt.Println("  (not present, using defaults)")
	}

	fmt.Printf("\nPairing server:    %s\n", cfg.PairingServerURL)
	fmt.Printf("Signalling server: %s\n", cfg.SignallingServerURL)
	fmt.Printf("Interface:         %s %s (mtu %d)\n", cfg.Interface.Name, cfg.Interface.Address, cfg.Interface.MTU)
	if cfg.Media.Enabled {
		source := "camera"
		if cfg.Media.RTSPURL != "" {
			source = cfg.Media.RTSPURL
		}
		fmt.Printf("Media:             %s\n", source)
	}

	store, err := pairing.Open(cfg.PairingServerURL, cfg.PairingFile)
	if err != nil {
		return err
	}
	ids := store.IDs()
	fmt.Println()
	if len(ids) == 0 {
		fmt.Printf("Paired: %s\n", yellow("No"))
		fmt.Println("  Run 'thingify-net pair --shortcode CODE' with the code shown in the browser")
		return nil
	}

	fmt.Printf("Paired: %s\n", green("Yes"))
	for i, id := range ids {
		fmt.Printf("  %d. %s\n", i+1, id)
	}

	sum, err := crypto.ChecksumFile(cfg.PairingFile)
	if err != nil {
		return err
	}
	fmt.Printf("Pairing file: %s\n", cfg.PairingFile)
	fmt.Printf("  Checksum: %s\n", truncateHash(sum))
	if info, err := os.Stat(cfg.PairingFile); err == nil {
		fmt.Printf("  Updated: %s ago\n", formatDuration(time.Since(info.ModTime())))
	}
	return nil
}
