package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thingify-app/thingify-net/internal/pairing"
)

var unpairCmd = &cobra.Command{
	Use:   "unpair",
	Short: "Forget all pairings",
	Args:  cobra.NoArgs,
	RunE:  runUnpair,
}

func init() {
	rootCmd.AddCommand(unpairCmd)
}

func runUnpair(cmd *cobra.Command, args []string) error {
	store, err := pairing.Open(cfg.PairingServerURL, cfg.PairingFile)
	if err != nil {
		return err
	}
	n := len(store.IDs())
	store.Clear()
	fmt.Printf("Removed %d pairing%s.\n", n, plural(n))
	return nil
}
