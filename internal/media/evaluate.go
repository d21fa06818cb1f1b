package media

import (
	"math"
	"strconv"
	"strings"
)

const (
	baseFontSize            = 16
	aspectRatioTolerance    = 0.01
	featureWidth            = "width"
	featureHeight           = "height"
	featureDeviceWidth      = "device-width"
	featureDeviceHeight     = "device-height"
	featureOrientation      = "orientation"
	featureAspectRatio      = "aspect-ratio"
	featureDeviceAspect     = "device-aspect-ratio"
	featureResolution       = "resolution"
	featureDevicePixelRatio = "device-pixel-ratio"
	featureColorScheme      = "prefers-color-scheme"
)

// Matches reports whether every condition of q holds in ctx. Print queries
// never match; there is no print surface.
func (q Query) Matches(ctx Context) bool {
	if q.Type == TypePrint {
		return false
	}

	for _, c := range q.Conditions {
		if !c.Matches(ctx) {
			return false
		}
	}
	return true
}

// Matches reports whether c holds in ctx. Unsupported features never match.
func (c Condition) Matches(ctx Context) bool {
	px := c.Pixels(ctx)

	switch c.Feature {
	case featureWidth:
		return compare(c.Operator, ctx.Width, px)
	case featureHeight:
		return compare(c.Operator, ctx.Height, px)
	case featureDeviceWidth:
		return compare(c.Operator, ctx.DeviceWidth, px)
	case featureDeviceHeight:
		return compare(c.Operator, ctx.DeviceHeight, px)
	case featureOrientation:
		return !c.Value.Numeric && ctx.Orientation == c.Value.Raw
	case featureAspectRatio:
		return compareRatio(c, ctx.AspectRatio)
	case featureDeviceAspect:
		return compareRatio(c, ratioOf(Size{Width: ctx.DeviceWidth, Height: ctx.DeviceHeight}))
	case featureResolution, featureDevicePixelRatio:
		n, ok := c.Value.float()
		if !ok {
			return false
		}
		return compare(c.Operator, ctx.DevicePixelRatio, n)
	case featureColorScheme:
		return !c.Value.Numeric && string(ctx.ColorScheme) == c.Value.Raw
	default:
		return false
	}
}

// Pixels converts the condition value to pixels relative to ctx. Non-numeric
// values convert to 0.
func (c Condition) Pixels(ctx Context) float64 {
	if !c.Value.Numeric {
		return 0
	}

	v := c.Value.Number
	switch c.Unit {
	case "em", "rem":
		return v * baseFontSize
	case "vw":
		return v / 100 * ctx.Width
	case "vh":
		return v / 100 * ctx.Height
	case "%":
		return v / 100 * ctx.Width
	default:
		return v
	}
}

func compare(op Operator, actual, target float64) bool {
	switch op {
	case OperatorMin:
		return actual >= target
	case OperatorMax:
		return actual <= target
	default:
		return actual == target
	}
}

func compareRatio(c Condition, actual float64) bool {
	target, ok := c.Value.ratio()
	if !ok {
		return false
	}

	switch c.Operator {
	case OperatorMin:
		return actual >= target
	case OperatorMax:
		return actual <= target
	default:
		return math.Abs(actual-target) < aspectRatioTolerance
	}
}

// ratio reads a "W/H" string value.
func (v Value) ratio() (float64, bool) {
	if v.Numeric || !strings.Contains(v.Raw, "/") {
		return 0, false
	}

	parts := strings.Split(v.Raw, "/")
	w, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, false
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, false
	}

	r := w / h
	if math.IsNaN(r) {
		return 0, false
	}
	return r, true
}

func (v Value) float() (float64, bool) {
	if v.Numeric {
		return v.Number, true
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v.Raw), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
