package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"mosaic-picture/internal/catalog"
	"mosaic-picture/internal/media"
	"mosaic-picture/internal/picture"
	"mosaic-picture/internal/platform"
	"mosaic-picture/internal/theme"
)

const (
	headerPrefix = "PICTURE // "
	helpLine     = "t: toggle scheme   q: quit"
	noSource     = "NO SOURCE"
	fallbackTag  = "<fallback>"
)

// catalogMsg carries a reloaded catalog into the Update loop.
type catalogMsg struct{ catalog *catalog.Catalog }

// Options configures a Model.
type Options struct {
	Picture    catalog.Picture
	Display    *platform.Display
	Appearance *platform.Appearance

	// DevicePixelRatio defaults to media.DefaultDevicePixelRatio.
	DevicePixelRatio float64

	Renderer *lipgloss.Renderer
	Theme    theme.ResolveOptions

	// Updates delivers catalog reloads. Nil disables live reload.
	Updates <-chan *catalog.Catalog

	Logger *zap.Logger
}

// Model renders one picture and keeps its selected source current.
type Model struct {
	pic        catalog.Picture
	display    *platform.Display
	appearance *platform.Appearance
	matcher    *picture.Matcher[catalog.Art]

	renderer  *lipgloss.Renderer
	themeOpts theme.ResolveOptions
	styles    theme.Bundle

	updates <-chan *catalog.Catalog
	logger  *zap.Logger

	quitting bool
}

// New mounts a Model: it builds the matcher against the display and
// appearance and resolves the styles for the current scheme.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = lipgloss.DefaultRenderer()
	}
	ratio := opts.DevicePixelRatio
	if ratio <= 0 {
		ratio = media.DefaultDevicePixelRatio
	}

	name := opts.Picture.Name
	m := Model{
		pic:        opts.Picture,
		display:    opts.Display,
		appearance: opts.Appearance,
		renderer:   renderer,
		themeOpts:  opts.Theme,
		updates:    opts.Updates,
		logger:     logger,
	}
	m.matcher = picture.NewMatcher(opts.Display, opts.Appearance, opts.Picture.Sources(),
		picture.WithDevicePixelRatio[catalog.Art](ratio),
		picture.WithOnChange(func(selected media.Source[catalog.Art], ok bool) {
			logger.Debug("source selected",
				zap.String("event", "source_selected"),
				zap.String("picture", name),
				zap.Bool("matched", ok),
				zap.String("media", selected.Media),
			)
		}),
	)
	m.styles = m.resolveStyles()
	return m
}

// Init starts listening for catalog reloads.
func (m Model) Init() tea.Cmd {
	return waitForCatalog(m.updates)
}

// Update advances model state in response to events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.display.Resize(media.Size{Width: float64(msg.Width), Height: float64(msg.Height)})
	case tea.KeyMsg:
		switch msg.String() {
		case "t":
			m.appearance.Toggle()
			m.styles = m.resolveStyles()
		case "q", "ctrl+c":
			m.quitting = true
			m.matcher.Close()
			return m, tea.Quit
		}
	case catalogMsg:
		m.applyCatalog(msg.catalog)
		return m, waitForCatalog(m.updates)
	}
	return m, nil
}

func (m *Model) applyCatalog(c *catalog.Catalog) {
	p, err := c.Lookup(m.pic.Name)
	if err != nil {
		m.logger.Warn("picture removed from catalog",
			zap.String("event", "picture_removed"),
			zap.String("picture", m.pic.Name),
		)
		return
	}
	m.pic = p
	m.matcher.SetSources(p.Sources())
}

// Close releases the matcher's platform subscriptions.
func (m Model) Close() {
	m.matcher.Close()
}

// Selected returns the currently selected source.
func (m Model) Selected() (media.Source[catalog.Art], bool) {
	return m.matcher.Selected()
}

// View renders the header, the picture body, the caption and the status line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	width := int(m.display.Window().Width)
	header := m.styles.Header.Lipgloss(m.renderer)
	frame := m.styles.Frame.Lipgloss(m.renderer)
	caption := m.styles.Caption.Lipgloss(m.renderer)
	status := m.styles.Status.Lipgloss(m.renderer)
	if width > 0 {
		frame = frame.MaxWidth(width)
	}

	selected, ok := m.matcher.Selected()
	body := m.pic.Alt
	if ok {
		body = selected.SrcSet.Text
	}
	if body == "" {
		body = m.styles.Warning.Lipgloss(m.renderer).Render(noSource)
	}

	lines := []string{
		header.Render(headerPrefix + strings.ToUpper(m.pic.Name)),
		m.renderContext(),
		"",
		frame.Render(body),
	}
	if text := m.pic.Caption(); len(text) > 0 {
		lines = append(lines, "", caption.Render(strings.Join(text, "\n")))
	}
	lines = append(lines, "", status.Render(renderMedia(selected, ok)), helpLine)
	return strings.Join(lines, "\n")
}

func (m Model) renderContext() string {
	window := m.display.Window()
	screen := m.display.Screen()
	scheme := m.appearance.ColorScheme()
	if scheme == media.ColorSchemeNone {
		scheme = "no-preference"
	}
	return fmt.Sprintf("WINDOW %sx%s | SCREEN %sx%s | %s | DPR %s",
		formatNumber(window.Width), formatNumber(window.Height),
		formatNumber(screen.Width), formatNumber(screen.Height),
		strings.ToUpper(string(scheme)),
		formatNumber(m.matcher.Context().DevicePixelRatio),
	)
}

func (m Model) resolveStyles() theme.Bundle {
	bundle, err := theme.ResolveWithDetector(m.appearance.ColorScheme(), m.themeOpts, nil)
	if err != nil {
		m.logger.Warn("theme resolve failed", zap.String("event", "theme_failed"), zap.Error(err))
		return theme.Bundle{}
	}
	return bundle
}

func renderMedia(selected media.Source[catalog.Art], ok bool) string {
	switch {
	case !ok:
		return "MEDIA: " + noSource
	case selected.IsFallback():
		return "MEDIA: " + fallbackTag
	default:
		return "MEDIA: " + selected.Media
	}
}

func waitForCatalog(updates <-chan *catalog.Catalog) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		c, open := <-updates
		if !open {
			return nil
		}
		return catalogMsg{catalog: c}
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
