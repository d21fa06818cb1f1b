// Package theme resolves typed, immutable style bundles for the picture view.
//
// A bundle is chosen by color scheme and degraded to monochrome on terminals
// that cannot show the palette.
//
// Integration example:
//
//	renderer := lipgloss.NewRenderer(os.Stdout)
//	bundle, err := theme.Resolve(media.ColorSchemeDark, os.Getenv("TERM"))
//	if err != nil {
//		return err
//	}
//	header := bundle.Header.Lipgloss(renderer)
//	frame := bundle.Frame.Lipgloss(renderer)
package theme
