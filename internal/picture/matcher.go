// Package picture keeps a media selection current as the platform changes.
//
// A Matcher owns the only mutable state in media matching: the Context
// snapshot, the platform subscriptions and the current selection. Parsing and
// evaluation stay in package media.
package picture

import (
	"sync"

	"mosaic-picture/internal/media"
)

// Viewport reports the window and screen sizes and announces window changes.
type Viewport interface {
	Window() media.Size
	Screen() media.Size
	Subscribe(func(media.Size)) (unsubscribe func())
}

// Appearance reports the system color scheme and announces changes.
type Appearance interface {
	ColorScheme() media.ColorScheme
	Subscribe(func(media.ColorScheme)) (unsubscribe func())
}

// Option configures a Matcher.
type Option[T any] func(*Matcher[T])

// WithDevicePixelRatio overrides media.DefaultDevicePixelRatio.
func WithDevicePixelRatio[T any](ratio float64) Option[T] {
	return func(m *Matcher[T]) {
		if ratio > 0 {
			m.ctx.DevicePixelRatio = ratio
		}
	}
}

// WithOnChange registers fn to run after every reselection. It runs without
// the Matcher's lock held, so it may call back into the Matcher.
func WithOnChange[T any](fn func(selected media.Source[T], ok bool)) Option[T] {
	return func(m *Matcher[T]) { m.onChange = fn }
}

// Matcher selects the source that matches the current platform state and
// re-selects when the state or the source list changes.
type Matcher[T any] struct {
	viewport   Viewport
	appearance Appearance
	onChange   func(media.Source[T], bool)

	mu             sync.Mutex
	sources        []media.Source[T]
	deps           media.Dependencies
	ctx            media.Context
	selected       media.Source[T]
	ok             bool
	closed         bool
	stopViewport   func()
	stopAppearance func()
}

// NewMatcher snapshots the platform, subscribes to the signals the sources
// depend on and runs the first selection. Close releases the subscriptions.
func NewMatcher[T any](viewport Viewport, appearance Appearance, sources []media.Source[T], opts ...Option[T]) *Matcher[T] {
	m := &Matcher[T]{
		viewport:   viewport,
		appearance: appearance,
		ctx: media.NewContext(
			viewport.Window(),
			viewport.Screen(),
			appearance.ColorScheme(),
			media.DefaultDevicePixelRatio,
		),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.mu.Lock()
	m.sources = cloneSources(sources)
	m.resubscribeLocked()
	m.selectLocked()
	selected, ok := m.selected, m.ok
	m.mu.Unlock()

	m.notify(selected, ok)
	return m
}

// Selected returns the current selection.
func (m *Matcher[T]) Selected() (media.Source[T], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected, m.ok
}

// Context returns the snapshot the current selection was made against.
func (m *Matcher[T]) Context() media.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctx
}

// Dependencies returns the signals the current source list depends on.
func (m *Matcher[T]) Dependencies() media.Dependencies {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deps
}

// SetSources replaces the source list, adjusts subscriptions to its
// dependencies and re-selects.
func (m *Matcher[T]) SetSources(sources []media.Source[T]) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.sources = cloneSources(sources)
	m.resubscribeLocked()
	m.selectLocked()
	selected, ok := m.selected, m.ok
	m.mu.Unlock()

	m.notify(selected, ok)
}

// Close releases every platform subscription. Later platform changes are
// ignored. Close is idempotent.
func (m *Matcher[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.releaseViewportLocked()
	m.releaseAppearanceLocked()
}

func (m *Matcher[T]) resubscribeLocked() {
	m.deps = media.ScanDependencies(m.sources)

	if m.deps.Dimensions && m.stopViewport == nil {
		// Catch up on changes missed while unsubscribed.
		m.ctx = m.ctx.WithWindow(m.viewport.Window())
		m.stopViewport = m.viewport.Subscribe(m.onResize)
	} else if !m.deps.Dimensions {
		m.releaseViewportLocked()
	}

	if m.deps.ColorScheme && m.stopAppearance == nil {
		m.ctx = m.ctx.WithColorScheme(m.appearance.ColorScheme())
		m.stopAppearance = m.appearance.Subscribe(m.onColorScheme)
	} else if !m.deps.ColorScheme {
		m.releaseAppearanceLocked()
	}
}

func (m *Matcher[T]) releaseViewportLocked() {
	if m.stopViewport != nil {
		m.stopViewport()
		m.stopViewport = nil
	}
}

func (m *Matcher[T]) releaseAppearanceLocked() {
	if m.stopAppearance != nil {
		m.stopAppearance()
		m.stopAppearance = nil
	}
}

func (m *Matcher[T]) onResize(size media.Size) {
	m.update(func(ctx media.Context) media.Context { return ctx.WithWindow(size) })
}

func (m *Matcher[T]) onColorScheme(scheme media.ColorScheme) {
	m.update(func(ctx media.Context) media.Context { return ctx.WithColorScheme(scheme) })
}

func (m *Matcher[T]) update(apply func(media.Context) media.Context) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.ctx = apply(m.ctx)
	m.selectLocked()
	selected, ok := m.selected, m.ok
	m.mu.Unlock()

	m.notify(selected, ok)
}

func (m *Matcher[T]) selectLocked() {
	m.selected, m.ok = media.Select(m.sources, m.ctx)
}

func (m *Matcher[T]) notify(selected media.Source[T], ok bool) {
	if m.onChange != nil {
		m.onChange(selected, ok)
	}
}

func cloneSources[T any](in []media.Source[T]) []media.Source[T] {
	out := make([]media.Source[T], len(in))
	copy(out, in)
	return out
}
