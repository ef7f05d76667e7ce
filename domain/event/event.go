// Package event defines the append-only log of simulation events and
// the closed set of variants the pipeline understands. Every consumer
// switches exhaustively over the four variants; unknown implementations
// of Event are ignored explicitly rather than half-applied.
package event

import (
	"fmt"

	"godna/domain/core"
)

// Event is the closed tagged union of simulation events. The unexported
// marker keeps the set of variants fixed to this package.
type Event interface {
	isEvent()
	// ID returns the event's identifier.
	ID() core.EventID
	// Label returns a short human description for event lists and
	// attribution rows.
	Label() string
}

// Scope controls which seasonality layer a structural event mutates.
// The zero value is post-trial, the default when callers leave scope
// unspecified.
type Scope string

const (
	ScopePreTrial  Scope = "pre_trial"
	ScopePostTrial Scope = "post_trial"
)

// IsPreTrial reports whether the scope targets the pre-trial layer.
// Anything other than the explicit pre-trial tag counts as post-trial.
func (s Scope) IsPreTrial() bool { return s == ScopePreTrial }

// Shock is a time-bound campaign whose daily lift follows a response
// shape. Lift is a signed fraction: 0.25 reads as +25% at full shape
// strength.
type Shock struct {
	EventID core.EventID
	Name    string
	Window  core.DayRange
	Shape   Shape
	Lift    float64
}

func (Shock) isEvent()           {}
func (s Shock) ID() core.EventID { return s.EventID }
func (s Shock) Duration() int    { return s.Window.Len() }
func (s Shock) Label() string {
	return fmt.Sprintf("Shock %q %s %s %+.0f%%", s.Name, s.Window, s.Shape, s.Lift*100)
}

// CustomDrag rescales every day of one period (at the event's own
// granularity) by a multiplier, across all three index dimensions.
type CustomDrag struct {
	EventID     core.EventID
	Name        string
	Granularity core.Granularity
	Period      int
	Multiplier  float64
	Scope       Scope
}

func (CustomDrag) isEvent()           {}
func (d CustomDrag) ID() core.EventID { return d.EventID }
func (d CustomDrag) Label() string {
	return fmt.Sprintf("Drag %q %s period %d x%.2f", d.Name, d.Granularity, d.Period, d.Multiplier)
}

// PeriodSel selects either a single period index or every period
// covered by a date range.
type PeriodSel struct {
	Period int
	Range  core.DayRange
}

// SinglePeriod selects one period index.
func SinglePeriod(p int) PeriodSel { return PeriodSel{Period: p} }

// PeriodRange selects all periods a date range touches.
func PeriodRange(r core.DayRange) PeriodSel { return PeriodSel{Range: r} }

// IsRange reports whether the selector is range-based.
func (s PeriodSel) IsRange() bool { return s.Range.IsValid() }

func (s PeriodSel) String() string {
	if s.IsRange() {
		return s.Range.String()
	}
	return fmt.Sprintf("period %d", s.Period)
}

// Swap exchanges the mean seasonality of two periods (or two period
// ranges, paired positionally).
type Swap struct {
	EventID     core.EventID
	Name        string
	Granularity core.Granularity
	A           PeriodSel
	B           PeriodSel
	Scope       Scope
}

func (Swap) isEvent()           {}
func (s Swap) ID() core.EventID { return s.EventID }
func (s Swap) Label() string {
	return fmt.Sprintf("Swap %q %s %s <-> %s", s.Name, s.Granularity, s.A, s.B)
}

// InjectionMode selects how a re-applied signature contributes to the
// simulation.
type InjectionMode string

const (
	// InjectAbsolute adds the stored daily excess volumes directly.
	InjectAbsolute InjectionMode = "absolute"
	// InjectRelative multiplies the stored daily fractions against the
	// baseline and adds the result.
	InjectRelative InjectionMode = "relative"
)

// ParseInjectionMode parses an injection mode name.
func ParseInjectionMode(s string) (InjectionMode, error) {
	switch s {
	case string(InjectAbsolute), "abs", "absolute_volume":
		return InjectAbsolute, nil
	case string(InjectRelative), "rel", "relative_uplift":
		return InjectRelative, nil
	default:
		return "", fmt.Errorf("%w: unknown injection mode %q", core.ErrInvalidEvent, s)
	}
}

// DailySeries bundles one per-day series per metric, day 0 being the
// event's first day.
type DailySeries struct {
	Sessions    []float64 `json:"sessions"`
	Conversions []float64 `json:"conversions"`
	Revenue     []float64 `json:"revenue"`
}

// ReappliedShock re-injects a previously extracted shock signature at a
// new start date.
type ReappliedShock struct {
	EventID   core.EventID
	Name      string
	Signature core.SignatureID
	Mode      InjectionMode
	Start     core.Day
	Duration  int
	DailyAbs  DailySeries
	DailyRel  DailySeries
}

func (ReappliedShock) isEvent()           {}
func (r ReappliedShock) ID() core.EventID { return r.EventID }
func (r ReappliedShock) Label() string {
	return fmt.Sprintf("Reapply %q from %s (%s, %dd)", r.Name, r.Start, r.Mode, r.Duration)
}

// Window returns the inclusive range the injection covers.
func (r ReappliedShock) Window() core.DayRange {
	return core.NewDayRange(r.Start, r.Start.AddDays(r.Duration-1))
}

// Validate checks an event's structural fields. All pipeline stages
// tolerate events that match nothing; Validate exists so the API layer
// can reject nonsense before it enters a log.
func Validate(e Event) error {
	switch ev := e.(type) {
	case Shock:
		if !ev.Window.IsValid() {
			return fmt.Errorf("%w: shock window %s", core.ErrInvalidEvent, ev.Window)
		}
		if _, err := ParseShape(string(ev.Shape)); err != nil {
			return err
		}
	case CustomDrag:
		if _, err := core.ParseGranularity(string(ev.Granularity)); err != nil {
			return fmt.Errorf("%w: %v", core.ErrInvalidEvent, err)
		}
		if ev.Period < 1 {
			return fmt.Errorf("%w: drag period %d", core.ErrInvalidEvent, ev.Period)
		}
	case Swap:
		if _, err := core.ParseGranularity(string(ev.Granularity)); err != nil {
			return fmt.Errorf("%w: %v", core.ErrInvalidEvent, err)
		}
		if !ev.A.IsRange() && ev.A.Period < 1 {
			return fmt.Errorf("%w: swap selector A", core.ErrInvalidEvent)
		}
		if !ev.B.IsRange() && ev.B.Period < 1 {
			return fmt.Errorf("%w: swap selector B", core.ErrInvalidEvent)
		}
	case ReappliedShock:
		if ev.Start.IsZero() || ev.Duration < 1 {
			return fmt.Errorf("%w: reapplied shock needs a start and positive duration", core.ErrInvalidEvent)
		}
		if _, err := ParseInjectionMode(string(ev.Mode)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown event variant %T", core.ErrInvalidEvent, e)
	}
	return nil
}

// KindOf returns the wire name of the event's variant.
func KindOf(e Event) string {
	switch e.(type) {
	case Shock:
		return "shock"
	case CustomDrag:
		return "custom_drag"
	case Swap:
		return "swap"
	case ReappliedShock:
		return "reapplied_shock"
	default:
		return "unknown"
	}
}
