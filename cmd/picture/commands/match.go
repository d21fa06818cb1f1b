package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"

	"mosaic-picture/internal/catalog"
	"mosaic-picture/internal/httpapi"
	"mosaic-picture/internal/media"
)

// match <name>: print the source a picture selects for a viewport.
func matchCmd(opts *options) *cobra.Command {
	var (
		width, height             float64
		deviceWidth, deviceHeight float64
		dpr                       float64
		scheme                    string
		asJSON                    bool
	)
	cmd := &cobra.Command{
		Use:   "match <name>",
		Short: "Print the source a picture selects for a viewport",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Load(opts.cfg.CatalogPath)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			p, err := c.Lookup(args[0])
			if err != nil {
				return err
			}

			for _, v := range []float64{width, height, deviceWidth, deviceHeight} {
				if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
					return fmt.Errorf("sizes must be non-negative numbers")
				}
			}
			if !cmd.Flags().Changed("device-width") {
				deviceWidth = width
			}
			if !cmd.Flags().Changed("device-height") {
				deviceHeight = height
			}
			if !cmd.Flags().Changed("dpr") {
				dpr = opts.cfg.DevicePixelRatio
			}
			if math.IsNaN(dpr) || math.IsInf(dpr, 0) || dpr <= 0 {
				return fmt.Errorf("dpr must be positive")
			}
			colorScheme, err := media.ParseColorScheme(scheme)
			if err != nil {
				return err
			}

			ctx := media.NewContext(
				media.Size{Width: width, Height: height},
				media.Size{Width: deviceWidth, Height: deviceHeight},
				colorScheme,
				dpr,
			)
			result := httpapi.Match(p, ctx)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			return writeMatch(out, result)
		},
	}
	cmd.Flags().Float64Var(&width, "width", 0, "viewport width in pixels")
	cmd.Flags().Float64Var(&height, "height", 0, "viewport height in pixels")
	cmd.Flags().Float64Var(&deviceWidth, "device-width", 0, "screen width in pixels (default --width)")
	cmd.Flags().Float64Var(&deviceHeight, "device-height", 0, "screen height in pixels (default --height)")
	cmd.Flags().Float64Var(&dpr, "dpr", media.DefaultDevicePixelRatio, "device pixel ratio (default $PICTURE_DEVICE_PIXEL_RATIO)")
	cmd.Flags().StringVar(&scheme, "scheme", "light", "color scheme: light, dark or none")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")
	return cmd
}

func writeMatch(w io.Writer, r httpapi.MatchResult) error {
	label := r.Media
	switch {
	case !r.Matched:
		label = "none"
	case r.Fallback:
		label = "<fallback>"
	}
	if _, err := fmt.Fprintf(w, "picture: %s\nmedia:   %s\n", r.Picture, label); err != nil {
		return err
	}

	body := r.Art
	if !r.Matched {
		body = r.Alt
	}
	if body == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, "\n%s\n", body)
	return err
}
