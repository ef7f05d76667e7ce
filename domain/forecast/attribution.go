package forecast

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"godna/domain/core"
)

// DefaultAuditParallelism bounds concurrent prefix evaluations when the
// caller does not set a limit.
const DefaultAuditParallelism = 4

// Contribution is one event's marginal effect on the audited metric:
// what the simulated total gained when the event joined the log.
type Contribution struct {
	Index  int     `json:"index"`
	Label  string  `json:"label"`
	Delta  float64 `json:"delta"`
	GapPct float64 `json:"gap_pct"`
}

// AuditResult is the sequential gap attribution of one event log: the
// organic projection, the needed volume and each event's marginal
// share of the gap between them.
type AuditResult struct {
	Goal          GoalMetric     `json:"goal"`
	Metric        core.Metric    `json:"metric"`
	Organic       float64        `json:"organic"`
	Needed        float64        `json:"needed"`
	TotalGap      float64        `json:"total_gap"`
	Contributions []Contribution `json:"contributions"`
}

// Attribute audits the scenario's event log against a goal over the
// target window. Every log prefix is evaluated through the full
// pipeline; prefix runs share no state and execute concurrently under
// a weighted semaphore. Contributions are marginal in log order, so
// they telescope: their sum equals the full simulation minus the
// organic projection.
//
// Organic is the simulated total of the empty log. For volume goals
// the needed amount is the goal value itself; rate goals audit through
// revenue, where needed is the full log's projected baseline revenue
// over the window. A gap of exactly zero is reported as 1 so coverage
// percentages stay finite.
func Attribute(ctx context.Context, scn Scenario, target core.DayRange, goal GoalMetric, goalValue float64, maxParallel int) (*AuditResult, error) {
	if maxParallel <= 0 {
		maxParallel = DefaultAuditParallelism
	}
	metric := goal.AttributionMetric()

	n := len(scn.Log)
	sums := make([]float64, n+1)

	sem := semaphore.NewWeighted(int64(maxParallel))
	var wg sync.WaitGroup
	var acquireErr error
	for i := 0; i <= n; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			acquireErr = err
			break
		}
		wg.Add(1)
		go func(prefix int) {
			defer wg.Done()
			defer sem.Release(1)
			sums[prefix] = scn.WithLog(scn.Log.Prefix(prefix)).Evaluate(target).Get(metric)
		}(i)
	}
	wg.Wait()
	if acquireErr != nil {
		return nil, fmt.Errorf("audit cancelled: %w", acquireErr)
	}

	organic := sums[0]
	needed := goalValue
	if !goal.IsVolume() {
		needed = 0
		if p, err := scn.Projection(); err == nil {
			needed = p.SumOver(target, metric, SeriesBaseline)
		}
	}

	gap := needed - organic
	if gap == 0 {
		gap = 1.0
	}

	contribs := make([]Contribution, n)
	for i := 0; i < n; i++ {
		delta := sums[i+1] - sums[i]
		contribs[i] = Contribution{
			Index:  i,
			Label:  scn.Log[i].Label(),
			Delta:  delta,
			GapPct: delta / gap * 100,
		}
	}

	return &AuditResult{
		Goal:          goal,
		Metric:        metric,
		Organic:       organic,
		Needed:        needed,
		TotalGap:      gap,
		Contributions: contribs,
	}, nil
}
