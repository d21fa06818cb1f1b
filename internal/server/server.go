package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	bm "github.com/charmbracelet/wish/bubbletea"
	"go.uber.org/zap"

	"mosaic-picture/internal/catalog"
	"mosaic-picture/internal/config"
	"mosaic-picture/internal/media"
	"mosaic-picture/internal/platform"
	"mosaic-picture/internal/router"
	"mosaic-picture/internal/theme"
	"mosaic-picture/internal/tui"
)

const (
	version         = "dev"
	shutdownTimeout = 10 * time.Second
)

// Runtime wires config, catalog, middleware and the Wish server as a testable unit.
type Runtime struct {
	cfg    config.Config
	store  *catalog.Store
	logger *zap.Logger
	chain  []router.Descriptor
	server *ssh.Server

	newRenderer func(ssh.Session) *lipgloss.Renderer
}

// New builds the SSH server. Sessions are routed to the picture named by
// their username and rendered with the bubbletea picture view.
func New(cfg config.Config, store *catalog.Store, logger *zap.Logger) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runtime{
		cfg:         cfg,
		store:       store,
		logger:      logger,
		newRenderer: bm.MakeRenderer,
	}
	r.chain = router.DefaultChain(router.ChainConfig{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RateLimitBurst:     cfg.RateLimitBurst,
		MaxSessions:        cfg.MaxSessions,
		Lookup:             store.Lookup,
		Logger:             logger,
	})

	srv, err := wish.NewServer(
		wish.WithAddress(cfg.Address()),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(router.WishMiddleware(r.chain, bm.Middleware(r.teaHandler))...),
	)
	if err != nil {
		return nil, fmt.Errorf("build ssh server: %w", err)
	}
	r.server = srv
	return r, nil
}

// MiddlewareIDs lists the middleware in execution order.
func (r *Runtime) MiddlewareIDs() []string {
	return router.Names(r.chain)
}

func (r *Runtime) Address() string {
	return r.server.Addr
}

// Run serves until ctx is cancelled or the process receives SIGINT/SIGTERM.
func (r *Runtime) Run(ctx context.Context) error {
	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = r.server.Shutdown(shutdownCtx)
	}()

	r.logger.Info("ssh server starting",
		zap.String("event", "startup"),
		zap.String("version", version),
		zap.String("address", r.server.Addr),
		zap.Strings("middleware", r.MiddlewareIDs()),
		zap.String("host_key_path", r.cfg.HostKeyPath),
		zap.Duration("idle_timeout", r.cfg.IdleTimeout),
		zap.Int("max_sessions", r.cfg.MaxSessions),
		zap.String("catalog", r.store.Path()),
	)
	err := r.server.ListenAndServe()
	if errors.Is(err, ssh.ErrServerClosed) || err == nil {
		r.logger.Info("ssh server stopped", zap.String("event", "shutdown"))
		return nil
	}

	return err
}

// teaHandler mounts the picture view for a routed session. The PTY window at
// attach time becomes the screen size.
func (r *Runtime) teaHandler(s ssh.Session) (tea.Model, []tea.ProgramOption) {
	p, ok := router.PictureFrom(s.Context())
	if !ok {
		wish.Fatalln(s, "no picture routed for this session")
		return nil, nil
	}

	pty, _, _ := s.Pty()
	screen := media.Size{Width: float64(pty.Window.Width), Height: float64(pty.Window.Height)}
	renderer := r.newRenderer(s)

	log := r.logger.With(zap.String("picture", p.Name))
	if info, ok := router.SessionFrom(s.Context()); ok {
		log = log.With(zap.String("session_id", info.ID))
	}

	updates, stop := r.store.Feed()
	m := tui.New(tui.Options{
		Picture:          p,
		Display:          platform.NewDisplay(screen),
		Appearance:       platform.NewAppearance(theme.DetectScheme(r.cfg.ColorScheme, renderer)),
		DevicePixelRatio: r.cfg.DevicePixelRatio,
		Renderer:         renderer,
		Theme:            theme.OptionsFromEnv(pty.Term, log),
		Updates:          updates,
		Logger:           log,
	})

	go func() {
		<-s.Context().Done()
		stop()
		m.Close()
	}()

	return m, []tea.ProgramOption{tea.WithAltScreen()}
}
