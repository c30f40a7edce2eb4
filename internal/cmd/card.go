package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"

	"github.com/thingify-app/thingify-net/internal/card"
	"github.com/thingify-app/thingify-net/internal/config"
	"github.com/thingify-app/thingify-net/internal/pairing"
)

var cardCmd = &cobra.Command{
	Use:   "card [--out FILE] [--terminal]",
	Short: "Print a connection card for this device",
	Long: `Generates a one-page PDF with a QR code linking to the web client, along
with the device's interface and server settings. With --terminal the QR
code is printed to the terminal instead.`,
	Args: cobra.NoArgs,
	RunE: runCard,
}

var (
	cardOut      string
	cardTerminal bool
)

func init() {
	cardCmd.Flags().StringVarP(&cardOut, "out", "o", "thingify-card.pdf", "Output PDF file")
	cardCmd.Flags().BoolVar(&cardTerminal, "terminal", false, "Print the QR code to the terminal instead of writing a PDF")
	rootCmd.AddCommand(cardCmd)
}

func cardData(c *config.Config, device string, ids []string, now time.Time) card.CardData {
	return card.CardData{
		DeviceName:          device,
		InterfaceName:       c.Interface.Name,
		AddressRange:        c.Interface.Address,
		RemoteHost:          c.Browser.RemoteHost,
		SSHPort:             c.Browser.SSHPort,
		PairingServerURL:    c.PairingServerURL,
		SignallingServerURL: c.SignallingServerURL,
		WebClientURL:        c.WebClientURL,
		PairingIDs:          ids,
		Version:             version,
		Created:             now,
	}
}

func runCard(cmd *cobra.Command, args []string) error {
	store, err := pairing.Open(cfg.PairingServerURL, cfg.PairingFile)
	if err != nil {
		return err
	}
	host, _ := os.Hostname()
	data := cardData(cfg, host, store.IDs(), time.Now())

	if cardTerminal {
		qr, err := card.TerminalQR(data.QRContent())
		if err != nil {
			return err
		}
		fmt.Print(qr)
		fmt.Println(data.QRContent())
		return nil
	}

	pdfBytes, err := card.Generate(data)
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(cardOut, pdfBytes, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", cardOut, err)
	}
	fmt.Printf("%s Wrote %s (%s)\n", green("✓"), cardOut, formatSize(int64(len(pdfBytes))))
	return nil
}
