package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/transcast-io/transcast/internal/config"
	"github.com/transcast-io/transcast/internal/ffmpeg"
	"github.com/transcast-io/transcast/internal/observability"
	"github.com/transcast-io/transcast/internal/version"
	"github.com/transcast-io/transcast/internal/workerclient"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to a transcast-server and accept transcode work",
	Long: `Start the transcast worker: connect to the configured server, report
capacity, and run ffmpeg against whatever Encode work items the server
assigns, reconnecting with backoff if the connection drops.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadWorkerConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("loading worker config: %w", err)
	}

	logger := observability.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting transcast-worker",
		slog.String("version", version.Short()),
		slog.String("server_url", cfg.ServerURL),
		slog.Int("capacity", cfg.Capacity),
	)

	if err := os.MkdirAll(cfg.LocalTmpDir, 0o755); err != nil {
		return fmt.Errorf("preparing local temp dir: %w", err)
	}

	binInfo, err := ffmpeg.NewBinaryDetector().Detect(context.Background())
	if err != nil {
		return fmt.Errorf("detecting ffmpeg binary: %w", err)
	}
	logger.Info("detected ffmpeg",
		slog.String("path", binInfo.FFmpegPath),
		slog.String("version", binInfo.Version),
		slog.Int("encoders", len(binInfo.Encoders)),
		slog.Int("decoders", len(binInfo.Decoders)),
	)

	var existingID *uint64
	if cfg.WorkerID != 0 {
		existingID = &cfg.WorkerID
	}

	client := workerclient.New(workerclient.Config{
		ServerURL:   cfg.ServerURL,
		ExistingID:  existingID,
		Capacity:    cfg.Capacity,
		LocalTmpDir: cfg.LocalTmpDir,
		FFmpegPath:  cfg.FFmpegPath,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	err = client.Run(ctx)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
