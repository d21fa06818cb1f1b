package commands

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mosaic-picture/internal/config"
)

// options is shared by the subcommands. cfg is filled in by the root
// command's PersistentPreRunE.
type options struct {
	catalogPath string
	logLevel    string
	cfg         config.Config
}

func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "picture",
		Short:        "Responsive terminal pictures selected by media queries",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}
			if path := strings.TrimSpace(opts.catalogPath); path != "" {
				cfg.CatalogPath = filepath.Clean(path)
			}
			if level := strings.TrimSpace(opts.logLevel); level != "" {
				cfg.LogLevel = level
			}
			opts.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "catalog file (default $PICTURE_CATALOG_PATH or catalog.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(serveCmd(opts), viewCmd(opts), matchCmd(opts), parseCmd())
	return root
}
