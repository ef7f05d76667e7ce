package models

import (
	"time"

	"godna/domain/dna"
	"godna/domain/event"
	"godna/domain/forecast"
)

// ProjectionRow is one projected day flattened for charting. Bands are
// carried for revenue; the other metrics share the same fixed margin.
type ProjectionRow struct {
	Date string `json:"date"`

	BaselineSessions    float64 `json:"baseline_sessions"`
	BaselineConversions float64 `json:"baseline_conversions"`
	BaselineRevenue     float64 `json:"baseline_revenue"`

	SimulatedSessions    float64 `json:"simulated_sessions"`
	SimulatedConversions float64 `json:"simulated_conversions"`
	SimulatedRevenue     float64 `json:"simulated_revenue"`

	BaselineRevenueLow   float64 `json:"baseline_revenue_low"`
	BaselineRevenueHigh  float64 `json:"baseline_revenue_high"`
	SimulatedRevenueLow  float64 `json:"simulated_revenue_low"`
	SimulatedRevenueHigh float64 `json:"simulated_revenue_high"`

	Shock float64 `json:"shock"`
}

// NewProjectionRows flattens a projection's daily rows.
func NewProjectionRows(p *forecast.Projection) []ProjectionRow {
	if p == nil {
		return nil
	}
	rows := make([]ProjectionRow, len(p.Rows))
	for i, r := range p.Rows {
		rows[i] = ProjectionRow{
			Date:                 r.Day.String(),
			BaselineSessions:     r.Baseline.Sessions,
			BaselineConversions:  r.Baseline.Conversions,
			BaselineRevenue:      r.Baseline.Revenue,
			SimulatedSessions:    r.Simulated.Sessions,
			SimulatedConversions: r.Simulated.Conversions,
			SimulatedRevenue:     r.Simulated.Revenue,
			BaselineRevenueLow:   r.BaselineMin.Revenue,
			BaselineRevenueHigh:  r.BaselineMax.Revenue,
			SimulatedRevenueLow:  r.SimulatedMin.Revenue,
			SimulatedRevenueHigh: r.SimulatedMax.Revenue,
			Shock:                r.Shock,
		}
	}
	return rows
}

// WeightRow is one historical year's share of the blend.
type WeightRow struct {
	Year       int     `json:"year"`
	Weight     float64 `json:"weight"`
	BlendShare float64 `json:"blend_share"`
}

// NewWeightRows lists the similarity weights by ascending year.
func NewWeightRows(w dna.SimilarityWeights) []WeightRow {
	years := w.Years()
	rows := make([]WeightRow, len(years))
	for i, y := range years {
		rows[i] = WeightRow{Year: y, Weight: w[y], BlendShare: w.BlendShare(y)}
	}
	return rows
}

// EventRow describes one event log entry for listing.
type EventRow struct {
	Index int    `json:"index"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

// NewEventRows lists the log in order.
func NewEventRows(log event.Log) []EventRow {
	rows := make([]EventRow, len(log))
	for i, e := range log {
		rows[i] = EventRow{Index: i, Type: event.KindOf(e), Label: e.Label()}
	}
	return rows
}

// AttributionRow is one event's marginal share of the goal gap.
type AttributionRow struct {
	Index  int     `json:"index"`
	Label  string  `json:"label"`
	Delta  float64 `json:"delta"`
	GapPct float64 `json:"gap_pct"`
}

// AuditResponse is the full gap attribution of a scenario.
type AuditResponse struct {
	Goal     string           `json:"goal"`
	Metric   string           `json:"metric"`
	Organic  float64          `json:"organic"`
	Needed   float64          `json:"needed"`
	TotalGap float64          `json:"total_gap"`
	Rows     []AttributionRow `json:"rows"`
}

// NewAuditResponse converts an audit result for the wire.
func NewAuditResponse(r *forecast.AuditResult) AuditResponse {
	rows := make([]AttributionRow, len(r.Contributions))
	for i, c := range r.Contributions {
		rows[i] = AttributionRow{Index: c.Index, Label: c.Label, Delta: c.Delta, GapPct: c.GapPct}
	}
	return AuditResponse{
		Goal:     string(r.Goal),
		Metric:   r.Metric.String(),
		Organic:  r.Organic,
		Needed:   r.Needed,
		TotalGap: r.TotalGap,
		Rows:     rows,
	}
}

// GoalRow is one tracked period of a goal plan.
type GoalRow struct {
	Period    int                   `json:"period"`
	Start     string                `json:"start"`
	Needed    forecast.MetricValues `json:"needed"`
	Baseline  forecast.MetricValues `json:"baseline"`
	Simulated forecast.MetricValues `json:"simulated"`
	GapBase   forecast.MetricValues `json:"gap_base"`
	GapSim    forecast.MetricValues `json:"gap_sim"`
}

// GoalResponse is a translated goal with its per-period tracking table.
type GoalResponse struct {
	Metric    string           `json:"metric"`
	Value     float64          `json:"value"`
	Driver    string           `json:"driver"`
	Window    string           `json:"window"`
	Needed    forecast.GoalKPI `json:"needed"`
	Baseline  forecast.GoalKPI `json:"baseline"`
	Simulated forecast.GoalKPI `json:"simulated"`
	Rows      []GoalRow        `json:"rows"`
}

// NewGoalResponse converts a goal plan for the wire.
func NewGoalResponse(plan *forecast.GoalPlan) GoalResponse {
	rows := make([]GoalRow, len(plan.Periods))
	for i, p := range plan.Periods {
		rows[i] = GoalRow{
			Period:    p.Period,
			Start:     p.Start.String(),
			Needed:    p.Needed,
			Baseline:  p.Baseline,
			Simulated: p.Simulated,
			GapBase:   p.GapBase,
			GapSim:    p.GapSim,
		}
	}
	return GoalResponse{
		Metric:    string(plan.Spec.Metric),
		Value:     plan.Spec.Value,
		Driver:    string(plan.Spec.Driver),
		Window:    plan.Spec.Window.String(),
		Needed:    plan.Needed,
		Baseline:  plan.Baseline,
		Simulated: plan.Simulated,
		Rows:      rows,
	}
}

// SignaturePayload summarizes a stored shock signature.
type SignaturePayload struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Entities          []string `json:"entities"`
	Window            string   `json:"window"`
	Duration          int      `json:"duration"`
	ExcessSessions    float64  `json:"excess_sessions"`
	ExcessConversions float64  `json:"excess_conversions"`
	ExcessRevenue     float64  `json:"excess_revenue"`
	OrganicConvRate   float64  `json:"organic_conv_rate"`
	EventConvRate     float64  `json:"event_conv_rate"`
	ConvRateDelta     float64  `json:"conv_rate_delta"`
	CreatedAt         string   `json:"created_at"`
}

// NewSignaturePayload converts a signature for the wire.
func NewSignaturePayload(s forecast.Signature) SignaturePayload {
	return SignaturePayload{
		ID:                string(s.ID),
		Name:              s.Name,
		Entities:          s.Entities,
		Window:            s.Window.String(),
		Duration:          s.Duration,
		ExcessSessions:    s.ExcessSessions,
		ExcessConversions: s.ExcessConversions,
		ExcessRevenue:     s.ExcessRevenue,
		OrganicConvRate:   s.OrganicConvRate,
		EventConvRate:     s.EventConvRate,
		ConvRateDelta:     s.ConvRateDelta,
		CreatedAt:         s.CreatedAt.Time().Format(time.RFC3339),
	}
}

// NewSignaturePayloads converts a signature list for the wire.
func NewSignaturePayloads(sigs []forecast.Signature) []SignaturePayload {
	out := make([]SignaturePayload, len(sigs))
	for i := range sigs {
		out[i] = NewSignaturePayload(sigs[i])
	}
	return out
}