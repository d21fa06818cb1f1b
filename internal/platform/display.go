package platform

import (
	"mosaic-picture/internal/media"
)

// Display is a viewport whose window can be resized. The screen is fixed at
// construction: for a terminal it is the size the session attached with.
type Display struct {
	screen media.Size
	window *Signal[media.Size]
}

// NewDisplay returns a Display whose window starts at the screen size.
func NewDisplay(screen media.Size) *Display {
	return &Display{screen: screen, window: NewSignal(screen)}
}

func (d *Display) Window() media.Size { return d.window.Get() }

func (d *Display) Screen() media.Size { return d.screen }

// Resize updates the window size. Subscribers run only on an actual change.
func (d *Display) Resize(size media.Size) bool { return d.window.Set(size) }

func (d *Display) Subscribe(fn func(media.Size)) func() { return d.window.Subscribe(fn) }

// Subscribers returns the number of live window subscriptions.
func (d *Display) Subscribers() int { return d.window.Subscribers() }

// Appearance is the system color scheme.
type Appearance struct {
	scheme *Signal[media.ColorScheme]
}

// NewAppearance returns an Appearance reporting initial.
func NewAppearance(initial media.ColorScheme) *Appearance {
	return &Appearance{scheme: NewSignal(initial)}
}

func (a *Appearance) ColorScheme() media.ColorScheme { return a.scheme.Get() }

// Toggle flips between light and dark and returns the new scheme.
func (a *Appearance) Toggle() media.ColorScheme {
	next := a.ColorScheme().Toggle()
	a.scheme.Set(next)
	return next
}

func (a *Appearance) Subscribe(fn func(media.ColorScheme)) func() { return a.scheme.Subscribe(fn) }

// Subscribers returns the number of live color scheme subscriptions.
func (a *Appearance) Subscribers() int { return a.scheme.Subscribers() }
