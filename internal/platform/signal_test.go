package platform

import (
	"testing"

	"mosaic-picture/internal/media"
)

func TestSignalNotifiesOnlyOnChange(t *testing.T) {
	t.Parallel()

	s := NewSignal(1)
	var got []int
	unsubscribe := s.Subscribe(func(v int) { got = append(got, v) })

	if s.Set(1) {
		t.Fatal("Set(same) reported a change")
	}
	if !s.Set(2) {
		t.Fatal("Set(new) reported no change")
	}
	s.Set(3)

	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("notifications = %v, want [2 3]", got)
	}

	unsubscribe()
	unsubscribe()
	s.Set(4)
	if len(got) != 2 {
		t.Fatalf("notified after unsubscribe: %v", got)
	}
	if s.Subscribers() != 0 {
		t.Fatalf("Subscribers() = %d, want 0", s.Subscribers())
	}
}

func TestSignalSubscriberMaySetReentrantly(t *testing.T) {
	t.Parallel()

	s := NewSignal(0)
	s.Subscribe(func(v int) {
		if v < 3 {
			s.Set(v + 1)
		}
	})
	s.Set(1)

	if got := s.Get(); got != 3 {
		t.Fatalf("Get() = %d, want 3", got)
	}
}

func TestDisplayResize(t *testing.T) {
	t.Parallel()

	screen := media.Size{Width: 80, Height: 24}
	d := NewDisplay(screen)
	if d.Window() != screen || d.Screen() != screen {
		t.Fatalf("initial window=%v screen=%v", d.Window(), d.Screen())
	}

	var seen media.Size
	unsubscribe := d.Subscribe(func(s media.Size) { seen = s })
	defer unsubscribe()

	next := media.Size{Width: 120, Height: 40}
	if !d.Resize(next) {
		t.Fatal("Resize reported no change")
	}
	if seen != next || d.Window() != next {
		t.Fatalf("seen=%v window=%v, want %v", seen, d.Window(), next)
	}
	if d.Screen() != screen {
		t.Fatalf("screen changed to %v", d.Screen())
	}
}

func TestAppearanceToggle(t *testing.T) {
	t.Parallel()

	a := NewAppearance(media.ColorSchemeLight)
	calls := 0
	a.Subscribe(func(media.ColorScheme) { calls++ })

	if got := a.Toggle(); got != media.ColorSchemeDark {
		t.Fatalf("Toggle() = %q", got)
	}
	if got := a.Toggle(); got != media.ColorSchemeLight {
		t.Fatalf("second Toggle() = %q", got)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if a.Subscribers() != 1 {
		t.Fatalf("Subscribers() = %d, want 1", a.Subscribers())
	}
}
