package event

import (
	"fmt"
	"math"
	"strings"

	"godna/domain/core"
)

// Shape is a campaign response curve. Value is evaluated per day at
// t days since the shock start, with p = t/duration the elapsed
// fraction.
type Shape string

const (
	// ShapeStep holds full strength for the whole window.
	ShapeStep Shape = "step"
	// ShapeLinearFade decays linearly from full strength to zero.
	ShapeLinearFade Shape = "linear_fade"
	// ShapeFrontLoaded decays exponentially, e^(-3p).
	ShapeFrontLoaded Shape = "front_loaded"
	// ShapeDelayedPeak is a Gaussian bump peaking at 40% of the window
	// with sigma 0.3*duration days.
	ShapeDelayedPeak Shape = "delayed_peak"
)

// Shapes lists the supported response curves.
func Shapes() []Shape {
	return []Shape{ShapeStep, ShapeLinearFade, ShapeFrontLoaded, ShapeDelayedPeak}
}

// ParseShape parses a shape name, tolerating hyphens, spaces and the
// legacy display names.
func ParseShape(s string) (Shape, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	norm = strings.ReplaceAll(norm, " ", "_")
	switch norm {
	case "step", "step_change":
		return ShapeStep, nil
	case "linear_fade":
		return ShapeLinearFade, nil
	case "front_loaded", "front_loaded_spike":
		return ShapeFrontLoaded, nil
	case "delayed_peak":
		return ShapeDelayedPeak, nil
	default:
		return "", fmt.Errorf("%w: unknown shape %q", core.ErrInvalidEvent, s)
	}
}

// String returns the canonical shape name.
func (s Shape) String() string { return string(s) }

// Value evaluates the curve at t days into a window of the given
// inclusive duration. Unknown shapes and non-positive durations
// contribute nothing.
func (s Shape) Value(t float64, duration int) float64 {
	if duration <= 0 {
		return 0
	}
	d := float64(duration)
	p := t / d

	switch s {
	case ShapeStep:
		return 1.0
	case ShapeLinearFade:
		return 1.0 - p
	case ShapeFrontLoaded:
		return math.Exp(-3.0 * p)
	case ShapeDelayedPeak:
		sigma := 0.3 * d
		offset := t - 0.4*d
		return math.Exp(-(offset * offset) / (2.0 * sigma * sigma))
	default:
		return 0
	}
}
