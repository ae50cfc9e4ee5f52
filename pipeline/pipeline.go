// Package pipeline screens observation series against a threshold
// set version and resolves the cross variable dependencies that no
// single series evaluator can see.
package pipeline

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"obsqc/qc"
	"obsqc/station"
	"obsqc/threshold"
)

// Pipeline runs the full screening pass for one station. The set
// version is pinned at construction, a rebuild finishing mid run does
// not change the thresholds already in use.
type Pipeline struct {
	Station   *station.Station
	Set       *threshold.Set
	Step      time.Duration
	Rules     []Rule
	WindPairs []WindPair
}

func NewPipeline(st *station.Station, set *threshold.Set, rules []Rule) (*Pipeline, error) {
	step, err := st.SampleStep()
	if err != nil {
		return nil, err
	}
	for i := range rules {
		if err := rules[i].Validate(); err != nil {
			return nil, err
		}
	}

	return &Pipeline{
		Station:   st,
		Set:       set,
		Step:      step,
		Rules:     rules,
		WindPairs: DefaultWindPairs,
	}, nil
}

// Screen evaluates each series in its own goroutine and applies the
// dependency cascades once every per variable pass has finished.
// Series without thresholds in the set are skipped with a warning.
// Input series must be sorted by timestamp.
func (p *Pipeline) Screen(series map[string][]qc.Observation) map[string][]qc.Result {
	results := make(map[string][]qc.Result, len(series))

	var mutex sync.Mutex
	var wg sync.WaitGroup
	for variable, obs := range series {
		thresholds, ok := p.Set.For(variable)
		if !ok {
			slog.Warn(fmt.Sprintf(
				"%s - %s: no thresholds in set version '%s', series skipped",
				p.Station.ID, variable, p.Set.Version,
			))
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			evaluated := p.evaluateSeries(variable, thresholds, obs)

			mutex.Lock()
			defer mutex.Unlock()
			results[variable] = evaluated
		}()
	}
	wg.Wait()

	p.applyCascades(results)
	return results
}

func (p *Pipeline) evaluateSeries(variable string, thresholds *qc.Thresholds, obs []qc.Observation) []qc.Result {
	logstr := fmt.Sprintf("%s - %s: ", p.Station.ID, variable)

	evaluator := qc.NewEvaluator(thresholds, p.Station.Binner(), p.Step)

	results := make([]qc.Result, 0, len(obs))
	var prev time.Time
	for _, o := range obs {
		// Placeholders for skipped slots keep the output on the
		// regular sampling grid
		if !prev.IsZero() {
			for _, slot := range missingSlots(prev, o.Obstime, p.Step) {
				res, err := evaluator.Evaluate(qc.Observation{Obstime: slot, Variable: variable})
				if err != nil {
					slog.Warn(logstr + err.Error())
				}
				results = append(results, res)
			}
		}

		res, err := evaluator.Evaluate(o)
		if err != nil {
			slog.Warn(logstr + err.Error())
		}
		results = append(results, res)
		prev = o.Obstime
	}
	return results
}

// missingSlots returns the grid timestamps skipped between two
// consecutive observations. The slot count is rounded so a slightly
// ragged logger clock does not shift the grid.
func missingSlots(prev, next time.Time, step time.Duration) []time.Time {
	dt := next.Sub(prev)
	if dt <= step {
		return nil
	}

	n := int(math.Round(float64(dt)/float64(step))) - 1
	slots := make([]time.Time, 0, n)
	for k := 1; k <= n; k++ {
		slot := prev.Add(time.Duration(k) * step)
		if !slot.Before(next) {
			break
		}
		slots = append(slots, slot)
	}
	return slots
}

func (p *Pipeline) applyCascades(results map[string][]qc.Result) {
	for _, pair := range p.WindPairs {
		if n := WindCascade(results, pair); n > 0 {
			slog.Info(fmt.Sprintf(
				"%s - %s: masked %d values, paired wind speed calm or invalid",
				p.Station.ID, pair.Direction, n,
			))
		}
	}

	for i := range p.Rules {
		rule := &p.Rules[i]
		if n := rule.Apply(results); n > 0 {
			slog.Info(fmt.Sprintf(
				"%s - %s: escalated %d values to '%s', triggered by %v",
				p.Station.ID, rule.Target, n, rule.SetCode, rule.Sources,
			))
		}
	}
}

// HarvestBaseline collects the accepted output values of a screening
// pass, keyed by variable. Called after the cascades so values masked
// by a dependency never reach the rolling history.
func HarvestBaseline(results map[string][]qc.Result) map[string]*threshold.Baseline {
	out := make(map[string]*threshold.Baseline, len(results))
	for variable, series := range results {
		baseline := &threshold.Baseline{Variable: variable}
		for _, res := range series {
			baseline.Add(res)
		}
		if len(baseline.Samples) > 0 {
			out[variable] = baseline
		}
	}
	return out
}
