package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"mosaic-picture/internal/catalog"
	"mosaic-picture/internal/logging"
	"mosaic-picture/internal/media"
	"mosaic-picture/internal/platform"
	"mosaic-picture/internal/theme"
	"mosaic-picture/internal/tui"
)

const (
	fallbackWidth  = 80
	fallbackHeight = 24
)

// view <name>: render one picture in the local terminal with live reload.
func viewCmd(opts *options) *cobra.Command {
	var scheme, logFile string
	cmd := &cobra.Command{
		Use:   "view <name>",
		Short: "Render a picture in this terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if scheme != "" {
				cfg.ColorScheme = scheme
			}

			logger, err := logging.NewFile(cfg.LogLevel, logFile)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			store, err := catalog.Open(cfg.CatalogPath)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			p, err := store.Lookup(args[0])
			if err != nil {
				return err
			}

			watcher, err := catalog.NewWatcher(store, cfg.CatalogDebounce, logger)
			if err != nil {
				return err
			}
			if err := watcher.Start(cmd.Context()); err != nil {
				return err
			}
			defer watcher.Stop()

			updates, stopFeed := store.Feed()
			defer stopFeed()

			width, height, err := term.GetSize(os.Stdout.Fd())
			if err != nil || width <= 0 || height <= 0 {
				width, height = fallbackWidth, fallbackHeight
			}
			renderer := lipgloss.NewRenderer(os.Stdout)

			m := tui.New(tui.Options{
				Picture:          p,
				Display:          platform.NewDisplay(media.Size{Width: float64(width), Height: float64(height)}),
				Appearance:       platform.NewAppearance(theme.DetectScheme(cfg.ColorScheme, renderer)),
				DevicePixelRatio: cfg.DevicePixelRatio,
				Renderer:         renderer,
				Theme:            theme.OptionsFromEnv(os.Getenv("TERM"), logger),
				Updates:          updates,
				Logger:           logger,
			})
			defer m.Close()

			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", filepath.Join(os.TempDir(), "picture-view.log"), "file the view logs to; the terminal is taken by the picture")
	cmd.Flags().StringVar(&scheme, "scheme", "", "color scheme: auto, light or dark (default $PICTURE_COLOR_SCHEME)")
	return cmd
}
