package media

import (
	"fmt"
	"strings"
)

// ColorScheme is the system appearance. The empty value means no preference
// was reported.
type ColorScheme string

const (
	ColorSchemeNone  ColorScheme = ""
	ColorSchemeLight ColorScheme = "light"
	ColorSchemeDark  ColorScheme = "dark"
)

// Toggle flips light and dark. No preference becomes dark.
func (c ColorScheme) Toggle() ColorScheme {
	if c == ColorSchemeDark {
		return ColorSchemeLight
	}
	return ColorSchemeDark
}

// ParseColorScheme reads a scheme name. The empty string and "light" mean
// light; "none" and "no-preference" mean no preference.
func ParseColorScheme(s string) (ColorScheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "light":
		return ColorSchemeLight, nil
	case "dark":
		return ColorSchemeDark, nil
	case "none", "no-preference":
		return ColorSchemeNone, nil
	}
	return ColorSchemeNone, fmt.Errorf("unknown color scheme %q: want light, dark or none", s)
}

const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// DefaultDevicePixelRatio is used when the platform does not report one.
const DefaultDevicePixelRatio = 2

// Size is a width/height pair in pixels. In a terminal one cell is one pixel.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Context is the platform snapshot queries are evaluated against.
type Context struct {
	Width            float64     `json:"width"`
	Height           float64     `json:"height"`
	DeviceWidth      float64     `json:"device_width"`
	DeviceHeight     float64     `json:"device_height"`
	ColorScheme      ColorScheme `json:"color_scheme"`
	Orientation      string      `json:"orientation"`
	AspectRatio      float64     `json:"aspect_ratio"`
	DevicePixelRatio float64     `json:"device_pixel_ratio"`
}

// NewContext derives a Context from the window and screen sizes.
func NewContext(window, screen Size, scheme ColorScheme, devicePixelRatio float64) Context {
	c := Context{
		DeviceWidth:      screen.Width,
		DeviceHeight:     screen.Height,
		ColorScheme:      scheme,
		DevicePixelRatio: devicePixelRatio,
	}
	return c.WithWindow(window)
}

// WithWindow returns a copy of c with the viewport fields recomputed.
func (c Context) WithWindow(window Size) Context {
	c.Width = window.Width
	c.Height = window.Height
	c.Orientation = orientationOf(window)
	c.AspectRatio = ratioOf(window)
	return c
}

// WithColorScheme returns a copy of c with the color scheme replaced.
func (c Context) WithColorScheme(scheme ColorScheme) Context {
	c.ColorScheme = scheme
	return c
}

func orientationOf(s Size) string {
	if s.Width > s.Height {
		return OrientationLandscape
	}
	return OrientationPortrait
}

func ratioOf(s Size) float64 {
	if s.Height == 0 {
		return 0
	}
	return s.Width / s.Height
}
