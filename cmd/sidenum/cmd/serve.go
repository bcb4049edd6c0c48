package cmd

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/railsight/sidenum/internal/accumulator"
	"github.com/railsight/sidenum/internal/ocr"
	"github.com/railsight/sidenum/internal/pipeline"
	"github.com/railsight/sidenum/internal/resolver"
	"github.com/railsight/sidenum/internal/transport"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the side-number recognition service",
	Long: `Start the service: listen for camera triggers on UDP, stitch and
recognize the capture sequences, and report resolved train identities to
the configured peer.

Examples:
  sidenum serve
  sidenum serve --listen 0.0.0.0:18060 --train-type 0`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "UDP address to listen for triggers on")
	serveCmd.Flags().String("send", "", "UDP address to send results to")
	serveCmd.Flags().Int("train-type", -1, "fleet type: 0 metro, 1 none, 2 high-speed")
	serveCmd.Flags().String("image-root", "", "directory the cameras write capture folders into")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	log := slog.Default()

	if cmd.Flags().Changed("listen") {
		cfg.Transport.ListenAddr, _ = cmd.Flags().GetString("listen")
	}
	if cmd.Flags().Changed("send") {
		cfg.Transport.SendAddr, _ = cmd.Flags().GetString("send")
	}
	if cmd.Flags().Changed("train-type") {
		cfg.Pipeline.TrainType, _ = cmd.Flags().GetInt("train-type")
		cfg.Accumulator.TrainType = cfg.Pipeline.TrainType
	}
	if cmd.Flags().Changed("image-root") {
		cfg.Pipeline.ImageRoot, _ = cmd.Flags().GetString("image-root")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	engine, err := ocr.NewEngine(cfg.EngineConfig(), log)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	if err := engine.Warmup(); err != nil {
		log.Warn("engine warmup failed", "error", err)
	}

	udp, err := transport.New(cfg.Transport, log)
	if err != nil {
		return err
	}
	defer func() { _ = udp.Close() }()

	acc := accumulator.New(cfg.Accumulator, log)

	var res resolver.Resolver
	switch cfg.Pipeline.TrainType {
	case 0:
		res = resolver.NewMetro(cfg.Metro, log)
	case 2:
		res = resolver.NewCRH(cfg.CRH, log)
	}

	orch, err := pipeline.New(cfg.Pipeline, udp, engine, nil, acc, res, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		go func() {
			if err := pipeline.ServeMetrics(ctx, cfg.Metrics.Addr, log); err != nil {
				log.Error("metrics server failed", "error", err)
			}
		}()
	}

	log.Info("service started",
		"channel", cfg.Pipeline.Channel,
		"train_type", cfg.Pipeline.TrainType,
		"rec_mode", cfg.Pipeline.RecMode,
		"listen", cfg.Transport.ListenAddr)

	if err := orch.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("service stopped")
	return nil
}
