package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mosaic-picture/internal/catalog"
	"mosaic-picture/internal/httpapi"
	"mosaic-picture/internal/logging"
	"mosaic-picture/internal/server"
)

// serve: run the SSH server, the catalog watcher and, with an address, the HTTP API.
func serveCmd(opts *options) *cobra.Command {
	var httpAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve pictures over SSH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			if cmd.Flags().Changed("http") {
				cfg.HTTPAddr = httpAddr
			}

			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			store, err := catalog.Open(cfg.CatalogPath)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			logger.Info("catalog loaded",
				zap.String("event", "catalog_loaded"),
				zap.String("path", store.Path()),
				zap.Strings("pictures", store.Current().Names()),
			)

			runtime, err := server.New(cfg, store, logger)
			if err != nil {
				return err
			}

			watcher, err := catalog.NewWatcher(store, cfg.CatalogDebounce, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := watcher.Start(ctx); err != nil {
				return err
			}
			defer watcher.Stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return runtime.Run(ctx) })
			if cfg.HTTPAddr != "" {
				api := httpapi.NewHandler(store, cfg.DevicePixelRatio, logger)
				g.Go(func() error { return api.Serve(ctx, cfg.HTTPAddr) })
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "HTTP API listen address (default $PICTURE_HTTP_ADDR, empty disables)")
	return cmd
}
