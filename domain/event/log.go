package event

import (
	"fmt"

	"godna/domain/core"
)

// Log is the ordered, append-only list of simulation events. Operations
// return a new log; the projection pipeline is always a pure fold over
// a log value, never over shared mutable state.
type Log []Event

// Append returns a log with e added at the end.
func (l Log) Append(e Event) Log {
	out := make(Log, len(l), len(l)+1)
	copy(out, l)
	return append(out, e)
}

// RemoveAt returns a log without the event at index i.
func (l Log) RemoveAt(i int) (Log, error) {
	if i < 0 || i >= len(l) {
		return nil, fmt.Errorf("%w: index %d of %d", core.ErrEventNotFound, i, len(l))
	}
	out := make(Log, 0, len(l)-1)
	out = append(out, l[:i]...)
	return append(out, l[i+1:]...), nil
}

// Prefix returns the first n events, clamped to the log length. The
// attribution engine folds over successive prefixes.
func (l Log) Prefix(n int) Log {
	if n < 0 {
		n = 0
	}
	if n > len(l) {
		n = len(l)
	}
	return l[:n:n]
}

// ShiftStart moves the event at index i to a new start date, keeping
// its duration. Only Shock and ReappliedShock events can be shifted.
func (l Log) ShiftStart(i int, newStart core.Day) (Log, error) {
	if i < 0 || i >= len(l) {
		return nil, fmt.Errorf("%w: index %d of %d", core.ErrEventNotFound, i, len(l))
	}
	out := make(Log, len(l))
	copy(out, l)

	switch ev := out[i].(type) {
	case Shock:
		days := ev.Window.Len()
		ev.Window = core.NewDayRange(newStart, newStart.AddDays(days-1))
		out[i] = ev
	case ReappliedShock:
		ev.Start = newStart
		out[i] = ev
	default:
		return nil, fmt.Errorf("%w: event %d is not a shiftable campaign", core.ErrInvalidEvent, i)
	}
	return out, nil
}

// Shocks returns the campaign shocks in log order.
func (l Log) Shocks() []Shock {
	var out []Shock
	for _, e := range l {
		if s, ok := e.(Shock); ok {
			out = append(out, s)
		}
	}
	return out
}

// Reapplied returns the signature re-injections in log order.
func (l Log) Reapplied() []ReappliedShock {
	var out []ReappliedShock
	for _, e := range l {
		if r, ok := e.(ReappliedShock); ok {
			out = append(out, r)
		}
	}
	return out
}

// Labels returns the per-event display labels in log order.
func (l Log) Labels() []string {
	out := make([]string, len(l))
	for i, e := range l {
		out[i] = e.Label()
	}
	return out
}
