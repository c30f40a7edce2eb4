package cmd

import (
	"fmt"
	"os"

	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"

	"github.com/thingify-app/thingify-net/internal/crypto"
	"github.com/thingify-app/thingify-net/internal/pairing"
)

const passphraseEnv = "THINGIFY_PASSPHRASE"

var exportCmd = &cobra.Command{
	Use:   "export [--out FILE]",
	Short: "Export the pairing as an encrypted backup",
	Long: `Encrypts the pairing file with age so it can be moved to another machine
or kept as a backup. The passphrase comes from --passphrase or
THINGIFY_PASSPHRASE; if neither is set a new one is generated and printed.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import FILE [--force]",
	Short: "Restore a pairing from an encrypted backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var (
	exportOut        string
	importForce      bool
	backupPassphrase string
)

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "pairing.age", "Output file")
	exportCmd.Flags().StringVar(&backupPassphrase, "passphrase", "", "Encryption passphrase (default: $"+passphraseEnv+" or generated)")
	importCmd.Flags().BoolVar(&importForce, "force", false, "Replace an existing pairing")
	importCmd.Flags().StringVar(&backupPassphrase, "passphrase", "", "Decryption passphrase (default: $"+passphraseEnv+")")
	rootCmd.AddCommand(exportCmd, importCmd)
}

// resolvePassphrase picks the flag value, then the environment.
func resolvePassphrase(flag string, getenv func(string) string) string {
	if flag != "" {
		return flag
	}
	return getenv(passphraseEnv)
}

func runExport(cmd *cobra.Command, args []string) error {
	pass := resolvePassphrase(backupPassphrase, os.Getenv)
	generated := pass == ""
	if generated {
		p, err := crypto.GeneratePassphrase(crypto.DefaultPassphraseBytes)
		if err != nil {
			return err
		}
		pass = p
	}

	sealed, err := pairing.Export(cfg.PairingFile, pass)
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(exportOut, sealed, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", exportOut, err)
	}

	fmt.Printf("%s Wrote %s (%s)\n", green("✓"), exportOut, formatSize(int64(len(sealed))))
	if generated {
		fmt.Println("\nPassphrase (store it somewhere safe, it is not saved):")
		fmt.Printf("  %s\n", pass)
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	pass := resolvePassphrase(backupPassphrase, os.Getenv)
	if pass == "" {
		return fmt.Errorf("a passphrase is required (--passphrase or $%s)", passphraseEnv)
	}

	sealed, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading backup: %w", err)
	}

	if err := pairing.Import(cfg.PairingFile, sealed, pass, importForce); err != nil {
		return err
	}

	fmt.Printf("%s Restored pairing to %s\n", green("✓"), cfg.PairingFile)
	return nil
}
