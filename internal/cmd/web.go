package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thingify-app/thingify-net/internal/logging"
	"github.com/thingify-app/thingify-net/internal/web"
)

var webCmd = &cobra.Command{
	Use:   "web [--dir DIR] [--addr ADDR]",
	Short: "Serve the browser client",
	Long: `Serves a built browser client (index.html, wasm_exec.js and the wasm
module) from DIR, together with /config.json describing this device.`,
	Args: cobra.NoArgs,
	RunE: runWeb,
}

var (
	webDir  string
	webAddr string
)

func init() {
	webCmd.Flags().StringVar(&webDir, "dir", "web", "Directory containing the built client")
	webCmd.Flags().StringVar(&webAddr, "addr", "127.0.0.1:8080", "Listen address")
	rootCmd.AddCommand(webCmd)
}

func runWeb(cmd *cobra.Command, args []string) error {
	info, err := os.Stat(webDir)
	if err != nil {
		return fmt.Errorf("client directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("client directory: %s is not a directory", webDir)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logging.WithComponent("web")
	h := web.Handler(webDir, web.NewClientConfig(cfg), log)
	return web.Serve(ctx, webAddr, h, log)
}
