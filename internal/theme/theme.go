package theme

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"mosaic-picture/internal/media"
)

// SemanticRoles defines stable semantic color slots used across the UI.
//
// Components should generally depend on these semantic roles rather than
// scheme-specific color literals.
type SemanticRoles struct {
	Primary string
	Accent  string
	Muted   string
	Danger  string
	Border  string
}

// Style describes presentational attributes for a UI element.
type Style struct {
	Foreground string
	Background string
	Bold       bool
}

// Lipgloss converts s into a lipgloss style bound to r. Empty colors are left
// unset so the terminal default shows through.
func (s Style) Lipgloss(r *lipgloss.Renderer) lipgloss.Style {
	st := r.NewStyle().Bold(s.Bold)
	if s.Foreground != "" {
		st = st.Foreground(lipgloss.Color(s.Foreground))
	}
	if s.Background != "" {
		st = st.Background(lipgloss.Color(s.Background))
	}
	return st
}

// StyleSet provides strongly-typed styles for the picture view surfaces.
type StyleSet struct {
	Header  Style
	Frame   Style
	Caption Style
	Status  Style
	Warning Style
}

// Bundle contains all display styles needed by the picture view.
type Bundle struct {
	StyleSet
	Roles SemanticRoles
}

// TermProfile describes terminal rendering capabilities derived from TERM.
type TermProfile struct {
	Colors    int
	TrueColor bool
	IsTTY     bool
}

// TermProfileDetector maps a TERM value to a terminal capability profile.
type TermProfileDetector func(term string) TermProfile

// ErrUnknownScheme is returned when a requested color scheme has no palette.
var ErrUnknownScheme = errors.New("unknown color scheme")

var (
	termProfileCache sync.Map
	knownProfiles    = map[string]TermProfile{
		"dumb":           {Colors: 0, TrueColor: false, IsTTY: false},
		"ansi":           {Colors: 8, TrueColor: false, IsTTY: true},
		"linux":          {Colors: 16, TrueColor: false, IsTTY: true},
		"xterm":          {Colors: 16, TrueColor: false, IsTTY: true},
		"xterm-256color": {Colors: 256, TrueColor: false, IsTTY: true},
		"screen":         {Colors: 8, TrueColor: false, IsTTY: true},
		"tmux":           {Colors: 256, TrueColor: false, IsTTY: true},
		"vt100":          {Colors: 8, TrueColor: false, IsTTY: true},
		"xterm-kitty":    {Colors: 1 << 24, TrueColor: true, IsTTY: true},
		"wezterm":        {Colors: 1 << 24, TrueColor: true, IsTTY: true},
	}
)

var palettes = map[media.ColorScheme]Bundle{
	media.ColorSchemeLight: {
		StyleSet: StyleSet{
			Header:  Style{Foreground: "#1B2A3A", Background: "#E8EEF5", Bold: true},
			Frame:   Style{Foreground: "#24323F", Background: "#FAFBFC"},
			Caption: Style{Foreground: "#5A6B7C"},
			Status:  Style{Foreground: "#FFFFFF", Background: "#3A6EA5", Bold: true},
			Warning: Style{Foreground: "#5B1F2A", Background: "#FFDDE0", Bold: true},
		},
		Roles: SemanticRoles{Primary: "#3A6EA5", Accent: "#D4AF37", Muted: "#5A6B7C", Danger: "#C92035", Border: "#B8C4D0"},
	},
	media.ColorSchemeDark: {
		StyleSet: StyleSet{
			Header:  Style{Foreground: "#FFFFFF", Background: "#0B1F3A", Bold: true},
			Frame:   Style{Foreground: "#D7E3F4", Background: "#122A4A"},
			Caption: Style{Foreground: "#8FA6C1"},
			Status:  Style{Foreground: "#0B1F3A", Background: "#D8B94A", Bold: true},
			Warning: Style{Foreground: "#FFDDE0", Background: "#5B1F2A", Bold: true},
		},
		Roles: SemanticRoles{Primary: "#0B1F3A", Accent: "#D8B94A", Muted: "#122A4A", Danger: "#5B1F2A", Border: "#2A4C74"},
	},
}

var schemes = [...]media.ColorScheme{media.ColorSchemeLight, media.ColorSchemeDark}

// Resolve resolves a concrete style bundle for a color scheme and TERM value.
// No preference resolves like light.
//
// For lower-capability terminals (xterm-256color and below), Resolve returns
// a monochrome/high-contrast bundle unless color is explicitly forced.
func Resolve(scheme media.ColorScheme, term string) (Bundle, error) {
	return resolveWith(scheme, ResolveOptions{Term: term}, detectTermProfile)
}

// ResolveWithDetector resolves a bundle using a caller-provided TERM detector.
func ResolveWithDetector(scheme media.ColorScheme, opts ResolveOptions, detector TermProfileDetector) (Bundle, error) {
	if detector == nil {
		detector = detectTermProfile
	}
	return resolveWith(scheme, opts, detector)
}

// DetectTermProfile maps TERM to a terminal capability profile.
func DetectTermProfile(term string) TermProfile {
	return detectTermProfile(term)
}

// OptionsFromEnv reads the overrides:
//   - PICTURE_THEME_FORCE_COLOR (boolean)
//   - PICTURE_THEME_FORCE_MONO (boolean)
//
// When PICTURE_THEME_DEBUG is true, Resolve decisions are logged to logger.
func OptionsFromEnv(term string, logger *zap.Logger) ResolveOptions {
	opts := ResolveOptions{
		Term:       term,
		ForceColor: parseBoolEnv("PICTURE_THEME_FORCE_COLOR"),
		ForceMono:  parseBoolEnv("PICTURE_THEME_FORCE_MONO"),
	}
	if parseBoolEnv("PICTURE_THEME_DEBUG") {
		opts.Logger = logger
	}
	return opts
}

// ResolveOptions controls how a bundle is selected once a TERM profile exists.
type ResolveOptions struct {
	Term       string
	ForceColor bool
	ForceMono  bool
	Logger     *zap.Logger
}

func resolveWith(scheme media.ColorScheme, opts ResolveOptions, detector TermProfileDetector) (Bundle, error) {
	bundle, profile, err := resolveWithProfile(scheme, opts, detector)
	if err == nil && opts.Logger != nil {
		opts.Logger.Debug("theme resolved",
			zap.String("event", "theme_resolved"),
			zap.String("scheme", string(scheme)),
			zap.String("term", opts.Term),
			zap.Int("colors", profile.Colors),
			zap.Bool("truecolor", profile.TrueColor),
			zap.Bool("tty", profile.IsTTY),
			zap.Bool("force_color", opts.ForceColor),
			zap.Bool("force_mono", opts.ForceMono),
		)
	}
	return bundle, err
}

func resolveWithProfile(scheme media.ColorScheme, opts ResolveOptions, detector TermProfileDetector) (Bundle, TermProfile, error) {
	if scheme == media.ColorSchemeNone {
		scheme = media.ColorSchemeLight
	}
	base, ok := palettes[scheme]
	if !ok {
		return Bundle{}, TermProfile{}, fmt.Errorf("%w: %s", ErrUnknownScheme, scheme)
	}

	term := strings.TrimSpace(opts.Term)
	if term == "" {
		term = os.Getenv("TERM")
	}

	profile := detector(term)
	if shouldUseMonochrome(profile, opts) {
		return monochromeBundle(), profile, nil
	}

	return base, profile, nil
}

func parseBoolEnv(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func shouldUseMonochrome(profile TermProfile, opts ResolveOptions) bool {
	if opts.ForceMono {
		return true
	}
	if opts.ForceColor {
		return false
	}
	if !profile.IsTTY {
		return true
	}
	if !profile.TrueColor && profile.Colors <= 256 {
		return true
	}
	return false
}

func detectTermProfile(term string) TermProfile {
	norm := strings.ToLower(strings.TrimSpace(term))
	if cached, ok := termProfileCache.Load(norm); ok {
		return cached.(TermProfile)
	}

	profile := detectTermProfileUncached(norm)
	termProfileCache.Store(norm, profile)
	return profile
}

func detectTermProfileUncached(norm string) TermProfile {
	if norm == "" {
		return TermProfile{Colors: 0, TrueColor: false, IsTTY: false}
	}

	if p, ok := knownProfiles[norm]; ok {
		return p
	}

	profile := TermProfile{Colors: 16, TrueColor: false, IsTTY: true}
	if strings.Contains(norm, "truecolor") || strings.Contains(norm, "24bit") || strings.Contains(norm, "kitty") || strings.Contains(norm, "wezterm") {
		profile.TrueColor = true
		profile.Colors = 1 << 24
	}
	if strings.Contains(norm, "256") {
		profile.Colors = 256
	}
	if strings.Contains(norm, "dumb") {
		profile = TermProfile{Colors: 0, TrueColor: false, IsTTY: false}
	}
	if strings.Contains(norm, "screen") {
		profile.Colors = 8
	}

	return profile
}

// monochromeBundle leaves colors unset so the terminal's own foreground and
// background apply; emphasis comes from bold alone.
func monochromeBundle() Bundle {
	return Bundle{
		StyleSet: StyleSet{
			Header:  Style{Bold: true},
			Frame:   Style{},
			Caption: Style{},
			Status:  Style{Bold: true},
			Warning: Style{Bold: true},
		},
	}
}

// DetectScheme returns the scheme named by preference ("light" or "dark").
// Any other preference asks the renderer whether the terminal background is
// dark.
func DetectScheme(preference string, r *lipgloss.Renderer) media.ColorScheme {
	switch strings.ToLower(strings.TrimSpace(preference)) {
	case string(media.ColorSchemeLight):
		return media.ColorSchemeLight
	case string(media.ColorSchemeDark):
		return media.ColorSchemeDark
	}
	if r != nil && r.HasDarkBackground() {
		return media.ColorSchemeDark
	}
	return media.ColorSchemeLight
}
