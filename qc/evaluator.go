package qc

import (
	"math"
	"time"
)

// Evaluator resolves the flag for each observation of a single
// variable stream. Observations must arrive in ascending timestamp
// order, the rate-of-change and flatline checks are order sensitive.
type Evaluator struct {
	thresholds *Thresholds
	binner     *Binner
	scanner    *Scanner
}

// NewEvaluator returns an evaluator for one variable of the station
// described by binner, sampled every step.
func NewEvaluator(t *Thresholds, binner *Binner, step time.Duration) *Evaluator {
	return &Evaluator{
		thresholds: t,
		binner:     binner,
		scanner:    NewScanner(step, t),
	}
}

// Evaluate runs the check hierarchy for one observation and returns
// the resolved result. A timestamp that cannot be binned yields a
// missing placeholder together with the reason, the stream itself
// continues.
func (e *Evaluator) Evaluate(obs Observation) (Result, error) {
	code, err := e.classify(obs)

	res := Result{
		Obstime:  obs.Obstime,
		Variable: obs.Variable,
		Original: obs.Value,
		Code:     code,
	}
	if !code.Nullifies() {
		res.Corrected = obs.Value
	}

	e.scanner.Commit(obs.Obstime, obs.Value, code.Accepted())
	return res, err
}

func (e *Evaluator) classify(obs Observation) (Code, error) {
	if obs.Value == nil {
		return MISSING, nil
	}

	v := *obs.Value
	if math.IsNaN(v) {
		return NAN, nil
	}
	if math.IsInf(v, 0) {
		return INF, nil
	}

	key, err := e.binner.Key(obs.Obstime, e.thresholds.Diurnal)
	if err != nil {
		return MISSING, err
	}

	t := e.thresholds
	if v < t.HardMin || v > t.HardMax {
		return FAIL, nil
	}
	if t.NightMax != nil && !key.Daytime && v > *t.NightMax {
		// Radiation while the sun is down is a sensor fault, not a
		// seasonal outlier
		return FAIL, nil
	}

	sig := e.scanner.Check(obs.Obstime, v)
	if sig.RateExceeded {
		return SPIKE, nil
	}
	if sig.Flatline {
		return FLATLINE, nil
	}

	band := t.SoftBand(key)
	if v < band.SoftMin || v > band.SoftMax {
		return SOFT, nil
	}
	return PASS, nil
}
