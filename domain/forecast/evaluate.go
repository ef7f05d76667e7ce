package forecast

import (
	"godna/domain/core"
	"godna/domain/dna"
	"godna/domain/event"
)

// Scenario bundles everything one projection needs: the projection
// year, the blended DNA, the observed trial and the event log.
type Scenario struct {
	Year  int
	DNA   dna.PureDNA
	Trial TrialObservation
	Log   event.Log
}

// WithLog returns a copy of the scenario evaluating a different log.
func (s Scenario) WithLog(log event.Log) Scenario {
	s.Log = log
	return s
}

// Projection compiles the scenario's log onto a fresh year frame,
// calibrates against the trial window and projects the year.
func (s Scenario) Projection() (*Projection, error) {
	frame := dna.NewYearFrame(s.Year)
	dna.CompileLayers(frame, s.DNA, s.Log)
	consts, err := Calibrate(frame, s.Trial.Window, s.Trial.Adjusted())
	if err != nil {
		return nil, err
	}
	return Project(frame, consts, s.Log), nil
}

// Evaluate projects the scenario and totals the simulated series over
// the target window. Scenarios that cannot be calibrated evaluate to
// zero totals rather than an error, so prefix scans over a log degrade
// smoothly instead of aborting.
func (s Scenario) Evaluate(target core.DayRange) MetricValues {
	p, err := s.Projection()
	if err != nil {
		return MetricValues{}
	}
	return p.TotalsOver(target, SeriesSimulated)
}
