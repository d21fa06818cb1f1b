package media

import "strings"

// Source is a candidate payload with an optional media condition. A Source
// with an empty Media is a fallback.
type Source[T any] struct {
	Media  string `json:"media,omitempty" yaml:"media,omitempty"`
	SrcSet T      `json:"src_set" yaml:"src_set"`
}

// IsFallback reports whether s carries no condition.
func (s Source[T]) IsFallback() bool { return s.Media == "" }

// Select returns the first source whose query matches ctx. When no
// conditional source matches it returns the first fallback, wherever that
// fallback sits in the list. ok is false when there is nothing to return.
func Select[T any](sources []Source[T], ctx Context) (selected Source[T], ok bool) {
	var fallback Source[T]
	hasFallback := false

	for _, src := range sources {
		if src.IsFallback() {
			if !hasFallback {
				fallback, hasFallback = src, true
			}
			continue
		}

		if Parse(src.Media).Matches(ctx) {
			return src, true
		}
	}

	return fallback, hasFallback
}

// Dependencies says which platform signals a source list can react to.
type Dependencies struct {
	Dimensions  bool `json:"dimensions"`
	ColorScheme bool `json:"color_scheme"`
}

var dimensionMarkers = [...]string{"width", "height", "orientation", "aspect-ratio"}

const colorSchemeMarker = "prefers-color-scheme"

// ScanDependencies does a case-insensitive substring scan of the media
// strings. It may report a dependency that parsing would reject, but it never
// misses one a supported feature needs.
func ScanDependencies[T any](sources []Source[T]) Dependencies {
	var deps Dependencies

	for _, src := range sources {
		if src.IsFallback() {
			continue
		}

		lower := strings.ToLower(src.Media)
		if !deps.Dimensions {
			for _, marker := range dimensionMarkers {
				if strings.Contains(lower, marker) {
					deps.Dimensions = true
					break
				}
			}
		}
		if strings.Contains(lower, colorSchemeMarker) {
			deps.ColorScheme = true
		}

		if deps.Dimensions && deps.ColorScheme {
			break
		}
	}

	return deps
}
