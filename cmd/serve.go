package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/dataloom-cli/internal/quality"
	"github.com/KaramelBytes/dataloom-cli/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveAddr    string
	serveWorkers int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis engine over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults := quality.DefaultOptions()
		addr := serveAddr
		workers := serveWorkers
		if cfg != nil {
			defaults.SampleCap = cfg.SampleCap
			defaults.TopPairs = cfg.TopPairs
			defaults.TopMissing = cfg.TopMissingFields
			if addr == "" {
				addr = cfg.ServeAddr
			}
			if workers <= 0 {
				workers = cfg.BatchWorkers
			}
		}
		if addr == "" {
			addr = "127.0.0.1:8088"
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		srv := server.New(server.Config{
			Addr:     addr,
			Workers:  workers,
			Defaults: defaults,
			Logger:   slog.Default(),
		})
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config serve_addr)")
	serveCmd.Flags().IntVar(&serveWorkers, "workers", 0, "concurrent analyses per batch request (default from config)")
}
