package models

import (
	"fmt"
	"strings"

	"godna/domain/core"
	"godna/domain/event"
	"godna/domain/forecast"
)

// TrialPayload is the wire form of a trial observation: raw totals over
// a window plus optional pre-adjustment percentages.
type TrialPayload struct {
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Sessions    float64 `json:"sessions"`
	Conversions float64 `json:"conversions"`
	Revenue     float64 `json:"revenue"`

	AdjustSessionsPct    float64 `json:"adjust_sessions_pct,omitempty"`
	AdjustConversionsPct float64 `json:"adjust_conversions_pct,omitempty"`
	AdjustRevenuePct     float64 `json:"adjust_revenue_pct,omitempty"`
}

// ToObservation parses the payload into a domain trial observation.
func (p TrialPayload) ToObservation() (forecast.TrialObservation, error) {
	window, err := parseWindow(p.Start, p.End)
	if err != nil {
		return forecast.TrialObservation{}, fmt.Errorf("trial window: %w", err)
	}
	return forecast.TrialObservation{
		Window:               window,
		Sessions:             p.Sessions,
		Conversions:          p.Conversions,
		Revenue:              p.Revenue,
		AdjustSessionsPct:    p.AdjustSessionsPct,
		AdjustConversionsPct: p.AdjustConversionsPct,
		AdjustRevenuePct:     p.AdjustRevenuePct,
	}, nil
}

// EventPayload is the wire form of an event log entry. Type selects the
// variant (shock, custom_drag or swap); only the fields of that variant
// are read. Lift arrives as a percentage and is stored as a fraction.
type EventPayload struct {
	Type string `json:"type"`
	Name string `json:"name"`

	Start   string  `json:"start,omitempty"`
	End     string  `json:"end,omitempty"`
	Shape   string  `json:"shape,omitempty"`
	LiftPct float64 `json:"lift_pct,omitempty"`

	Granularity string  `json:"granularity,omitempty"`
	Period      int     `json:"period,omitempty"`
	Multiplier  float64 `json:"multiplier,omitempty"`
	Scope       string  `json:"scope,omitempty"`

	// Swap selectors: a period index or a date range per side.
	PeriodA     int    `json:"period_a,omitempty"`
	PeriodB     int    `json:"period_b,omitempty"`
	RangeAStart string `json:"range_a_start,omitempty"`
	RangeAEnd   string `json:"range_a_end,omitempty"`
	RangeBStart string `json:"range_b_start,omitempty"`
	RangeBEnd   string `json:"range_b_end,omitempty"`
}

// ToEvent converts the payload into a validated domain event carrying a
// fresh ID.
func (p EventPayload) ToEvent() (event.Event, error) {
	switch strings.ToLower(strings.TrimSpace(p.Type)) {
	case "shock", "campaign":
		return p.toShock()
	case "custom_drag", "drag":
		return p.toDrag()
	case "swap":
		return p.toSwap()
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", core.ErrInvalidEvent, p.Type)
	}
}

func (p EventPayload) toShock() (event.Event, error) {
	window, err := parseWindow(p.Start, p.End)
	if err != nil {
		return nil, fmt.Errorf("shock window: %w", err)
	}
	shape, err := event.ParseShape(p.Shape)
	if err != nil {
		return nil, err
	}
	ev := event.Shock{
		EventID: core.NewEventID(),
		Name:    p.Name,
		Window:  window,
		Shape:   shape,
		Lift:    p.LiftPct / 100,
	}
	return ev, event.Validate(ev)
}

func (p EventPayload) toDrag() (event.Event, error) {
	g, err := core.ParseGranularity(p.Granularity)
	if err != nil {
		return nil, err
	}
	ev := event.CustomDrag{
		EventID:     core.NewEventID(),
		Name:        p.Name,
		Granularity: g,
		Period:      p.Period,
		Multiplier:  p.Multiplier,
		Scope:       parseScope(p.Scope),
	}
	return ev, event.Validate(ev)
}

func (p EventPayload) toSwap() (event.Event, error) {
	g, err := core.ParseGranularity(p.Granularity)
	if err != nil {
		return nil, err
	}
	a, err := parseSelector(p.PeriodA, p.RangeAStart, p.RangeAEnd)
	if err != nil {
		return nil, fmt.Errorf("swap side a: %w", err)
	}
	b, err := parseSelector(p.PeriodB, p.RangeBStart, p.RangeBEnd)
	if err != nil {
		return nil, fmt.Errorf("swap side b: %w", err)
	}
	ev := event.Swap{
		EventID:     core.NewEventID(),
		Name:        p.Name,
		Granularity: g,
		A:           a,
		B:           b,
		Scope:       parseScope(p.Scope),
	}
	return ev, event.Validate(ev)
}

// ProjectionRequest is the body of a projection run: the entity
// selection, the trial observation and the working event log.
type ProjectionRequest struct {
	Entities    []string       `json:"entities,omitempty"`
	Trial       TrialPayload   `json:"trial"`
	Events      []EventPayload `json:"events,omitempty"`
	Granularity string         `json:"granularity,omitempty"`
}

// ToLog converts the payload events into a validated log, preserving
// order.
func (r ProjectionRequest) ToLog() (event.Log, error) {
	if len(r.Events) == 0 {
		return nil, nil
	}
	log := make(event.Log, 0, len(r.Events))
	for i, p := range r.Events {
		ev, err := p.ToEvent()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		log = append(log, ev)
	}
	return log, nil
}

// ToGranularity parses the requested granularity, defaulting to
// monthly.
func (r ProjectionRequest) ToGranularity() (core.Granularity, error) {
	if strings.TrimSpace(r.Granularity) == "" {
		return core.GranularityMonthly, nil
	}
	return core.ParseGranularity(r.Granularity)
}

// ExtractRequest names a historical window to lift a signature from.
type ExtractRequest struct {
	Name     string   `json:"name"`
	Entities []string `json:"entities,omitempty"`
	Start    string   `json:"start"`
	End      string   `json:"end"`
}

// ToWindow parses the extraction window.
func (r ExtractRequest) ToWindow() (core.DayRange, error) {
	return parseWindow(r.Start, r.End)
}

// ReapplyRequest re-injects a stored signature at a new start date.
type ReapplyRequest struct {
	Mode  string `json:"mode"`
	Start string `json:"start"`
}

// ShiftRequest moves an event to a new start date, or by a signed
// number of days when no date is given.
type ShiftRequest struct {
	Start string `json:"start,omitempty"`
	Days  int    `json:"days,omitempty"`
}

// AuditRequest runs gap attribution for a scenario: the projection
// inputs plus the goal and target window to attribute against.
type AuditRequest struct {
	ProjectionRequest
	TargetStart string  `json:"target_start"`
	TargetEnd   string  `json:"target_end"`
	Goal        string  `json:"goal"`
	GoalValue   float64 `json:"goal_value"`
}

// ToTarget parses the attribution target window.
func (r AuditRequest) ToTarget() (core.DayRange, error) {
	return parseWindow(r.TargetStart, r.TargetEnd)
}

// GoalRequest translates a target value into needed volumes over a
// window of the projection.
type GoalRequest struct {
	ProjectionRequest
	Metric      string  `json:"metric"`
	Value       float64 `json:"value"`
	Driver      string  `json:"driver,omitempty"`
	WindowStart string  `json:"window_start"`
	WindowEnd   string  `json:"window_end"`
}

// ToSpec parses the goal fields into a domain goal spec.
func (r GoalRequest) ToSpec() (forecast.GoalSpec, error) {
	metric, err := forecast.ParseGoalMetric(r.Metric)
	if err != nil {
		return forecast.GoalSpec{}, err
	}
	driver, err := forecast.ParseDriver(r.Driver)
	if err != nil {
		return forecast.GoalSpec{}, err
	}
	window, err := parseWindow(r.WindowStart, r.WindowEnd)
	if err != nil {
		return forecast.GoalSpec{}, fmt.Errorf("goal window: %w", err)
	}
	g, err := r.ToGranularity()
	if err != nil {
		return forecast.GoalSpec{}, err
	}
	return forecast.GoalSpec{
		Metric:      metric,
		Value:       r.Value,
		Driver:      driver,
		Window:      window,
		Granularity: g,
	}, nil
}

// CampaignDefaultPayload sets one shape's default lift for a scope. An
// empty entity targets the global fallback.
type CampaignDefaultPayload struct {
	Entity  string  `json:"entity,omitempty"`
	Shape   string  `json:"shape"`
	LiftPct float64 `json:"lift_pct"`
}

func parseWindow(start, end string) (core.DayRange, error) {
	s, err := core.ParseDay(start)
	if err != nil {
		return core.DayRange{}, err
	}
	e, err := core.ParseDay(end)
	if err != nil {
		return core.DayRange{}, err
	}
	return core.NewDayRange(s, e), nil
}

// parseSelector builds a swap side from the wire fields: a date range
// when both bounds are given, otherwise the period index.
func parseSelector(period int, start, end string) (event.PeriodSel, error) {
	if strings.TrimSpace(start) == "" && strings.TrimSpace(end) == "" {
		return event.SinglePeriod(period), nil
	}
	window, err := parseWindow(start, end)
	if err != nil {
		return event.PeriodSel{}, err
	}
	return event.PeriodRange(window), nil
}

// parseScope maps the wire value onto a layer scope. Anything but an
// explicit pre-trial tag targets the post-trial layer.
func parseScope(s string) event.Scope {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pre_trial", "pre-trial", "pre":
		return event.ScopePreTrial
	default:
		return event.ScopePostTrial
	}
}