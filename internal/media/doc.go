// Package media parses and evaluates CSS-like media queries and selects the
// first matching source from an ordered list.
//
// Everything in this package is pure: parsing, evaluation and selection take a
// Context snapshot and never consult platform state. The stateful part, keeping
// a Context current and re-running selection when it changes, lives in
// package picture.
//
// Integration example:
//
//	ctx := media.NewContext(media.Size{Width: 120, Height: 40}, media.Size{Width: 120, Height: 40}, media.ColorSchemeDark, 2)
//	src, ok := media.Select([]media.Source[string]{
//		{Media: "(min-width: 100px)", SrcSet: "wide.txt"},
//		{SrcSet: "narrow.txt"},
//	}, ctx)
//	if ok {
//		render(src.SrcSet)
//	}
package media
