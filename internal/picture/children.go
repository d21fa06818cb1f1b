package picture

import "mosaic-picture/internal/media"

// Kind tags a Child.
type Kind int

const (
	KindSource Kind = iota + 1
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Child is one entry of a picture's content: a source candidate or a line of
// caption text. Callers build the list explicitly; nothing is inferred from
// the payload.
type Child[T any] struct {
	Kind   Kind
	Source media.Source[T]
	Text   string
}

// SourceOf returns a source child.
func SourceOf[T any](mediaQuery string, srcSet T) Child[T] {
	return Child[T]{Kind: KindSource, Source: media.Source[T]{Media: mediaQuery, SrcSet: srcSet}}
}

// TextOf returns a text child.
func TextOf[T any](text string) Child[T] {
	return Child[T]{Kind: KindText, Text: text}
}

// Split separates sources from text, preserving the order of each.
// Children with an unknown kind are skipped.
func Split[T any](children []Child[T]) (sources []media.Source[T], text []string) {
	for _, c := range children {
		switch c.Kind {
		case KindSource:
			sources = append(sources, c.Source)
		case KindText:
			text = append(text, c.Text)
		}
	}
	return sources, text
}
