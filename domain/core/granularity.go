package core

import (
	"fmt"
	"strings"
)

// Granularity is the period resolution a profile row or event targets.
type Granularity string

const (
	GranularityMonthly Granularity = "monthly"
	GranularityWeekly  Granularity = "weekly"
	GranularityDaily   Granularity = "daily"
)

// ParseGranularity parses a granularity name, case-insensitively.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly", "month":
		return GranularityMonthly, nil
	case "weekly", "week":
		return GranularityWeekly, nil
	case "daily", "day":
		return GranularityDaily, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
	}
}

// String returns the granularity name.
func (g Granularity) String() string { return string(g) }

// PeriodOf maps a calendar day to its period key at this granularity:
// month 1-12, ISO week, or day-of-year.
func (g Granularity) PeriodOf(d Day) int {
	switch g {
	case GranularityMonthly:
		return d.Month()
	case GranularityWeekly:
		return d.ISOWeek()
	case GranularityDaily:
		return d.DayOfYear()
	default:
		return 0
	}
}

// MaxPeriods returns an upper bound on period keys at this granularity,
// used to size aggregation buckets.
func (g Granularity) MaxPeriods() int {
	switch g {
	case GranularityMonthly:
		return 12
	case GranularityWeekly:
		return 53
	case GranularityDaily:
		return 366
	default:
		return 0
	}
}

// Metric names one of the three projected demand series.
type Metric string

const (
	MetricSessions    Metric = "sessions"
	MetricConversions Metric = "conversions"
	MetricRevenue     Metric = "revenue"
)

// Metrics lists the three series in their derivation order: conversions
// chain from sessions and revenue from conversions.
func Metrics() []Metric {
	return []Metric{MetricSessions, MetricConversions, MetricRevenue}
}

// ParseMetric parses a metric name, case-insensitively.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sessions", "traffic":
		return MetricSessions, nil
	case "conversions", "orders":
		return MetricConversions, nil
	case "revenue":
		return MetricRevenue, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
}

// String returns the metric name.
func (m Metric) String() string { return string(m) }
