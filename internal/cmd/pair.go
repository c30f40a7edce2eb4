package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thingify-app/thingify-net/internal/pairing"
)

var pairCmd = &cobra.Command{
	Use:   "pair --shortcode CODE",
	Short: "Pair with a browser",
	Long: `Responds to a pairing started in the browser. Any existing pairing is
replaced; this machine only keeps one.

Example:
  thingify-net pair --shortcode Xk3p9Q`,
	Args: cobra.NoArgs,
	RunE: runPair,
}

var pairShortcode string

func init() {
	pairCmd.Flags().StringVar(&pairShortcode, "shortcode", "", "Shortcode provided by the initiating peer")
	_ = pairCmd.MarkFlagRequired("shortcode")
	rootCmd.AddCommand(pairCmd)
}

func runPair(cmd *cobra.Command, args []string) error {
	store, err := pairing.Open(cfg.PairingServerURL, cfg.PairingFile)
	if err != nil {
		return err
	}

	fmt.Println("Responding to pairing...")
	id, err := store.Respond(pairShortcode)
	if err != nil {
		return err
	}

	fmt.Printf("%s Pairing succeeded, pairingId: %s\n", green("✓"), id)
	return nil
}
