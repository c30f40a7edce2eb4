package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/thingify-app/thingify-net/internal/logging"
	"github.com/thingify-app/thingify-net/internal/metrics"
	"github.com/thingify-app/thingify-net/internal/pairing"
	"github.com/thingify-app/thingify-net/internal/peer"
	"github.com/thingify-app/thingify-net/internal/tun"
	"github.com/thingify-app/thingify-net/internal/tunnel"
	"github.com/thingify-app/thingify-net/internal/web"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Create a network interface to the paired browser",
	Long: `Creates the TUN interface and bridges it to the paired browser until
interrupted. Requires root (or CAP_NET_ADMIN) to create the interface.

With --with-media a video track from the camera is sent as well; set
USE_RTSP=true and RTSP_URL to stream from an RTSP source instead.`,
	Args: cobra.NoArgs,
	RunE: runConnect,
}

var (
	connectWithMedia   bool
	connectMetricsAddr string
)

func init() {
	connectCmd.Flags().BoolVar(&connectWithMedia, "with-media", false, "Enable media (camera) streaming")
	connectCmd.Flags().BoolVar(&connectWithMedia, "withMedia", false, "Enable media (camera) streaming")
	_ = connectCmd.Flags().MarkHidden("withMedia")
	connectCmd.Flags().StringVar(&connectMetricsAddr, "metrics-addr", "", "Serve /metrics and /healthz on this address (default from config)")
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	log := logging.WithComponent("connect").With().Str("session", uuid.NewString()).Logger()

	if connectWithMedia {
		cfg.Media.Enabled = true
	}
	metricsAddr := cfg.MetricsAddr
	if connectMetricsAddr != "" {
		metricsAddr = connectMetricsAddr
	}

	store, err := pairing.Open(cfg.PairingServerURL, cfg.PairingFile)
	if err != nil {
		return err
	}
	id, err := store.First()
	if err != nil {
		return err
	}
	tg, err := store.TokenGenerator(id)
	if err != nil {
		return err
	}

	link, err := peer.New(cfg, tg)
	if err != nil {
		return err
	}

	dev, err := tun.Open(tun.Config{
		Name:    cfg.Interface.Name,
		Address: cfg.Interface.Address,
		MTU:     cfg.Interface.MTU,
	})
	if err != nil {
		return err
	}

	bridge := tunnel.New(dev, link, cfg.Interface.MTU, log)
	link.OnStateChange(logStateChange(log))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("pairing", id).
		Str("interface", cfg.Interface.Name).
		Str("address", cfg.Interface.Address).
		Int("mtu", cfg.Interface.MTU).
		Bool("media", cfg.Media.Enabled).
		Msg("starting")

	link.Connect()
	defer link.Disconnect()

	g, gctx := errgroup.WithContext(ctx)
	if metricsAddr != "" {
		g.Go(func() error {
			return web.Serve(gctx, metricsAddr, metrics.Handler(), log)
		})
	}
	g.Go(func() error {
		return bridge.Run(gctx)
	})
	err = g.Wait()

	st := bridge.Stats()
	log.Info().
		Uint64("packets_out", st.OutboundPackets).
		Uint64("packets_in", st.InboundPackets).
		Uint64("dropped", st.Dropped).
		Msg("stopped")
	return err
}

// stateMessage is the line printed for each peer state.
func stateMessage(s peer.State) string {
	switch s {
	case peer.Disconnected:
		return "Disconnected"
	case peer.Connecting:
		return "Connecting..."
	case peer.Connected:
		return "Connected."
	default:
		return s.String()
	}
}

func logStateChange(log zerolog.Logger) func(peer.State) {
	return func(s peer.State) {
		log.Info().Stringer("state", s).Msg(stateMessage(s))
	}
}
