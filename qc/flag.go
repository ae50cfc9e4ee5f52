package qc

import "time"

// Every observation leaves the evaluator with exactly one flag code:
//
//	NAN - the sensor reported a not-a-number value
//	INF - the sensor reported an infinite value
//	M   - no record exists at the expected timestamp
//	F   - a hard physical limit or the night ceiling was violated
//	SPK - the change from the previous sample exceeds the rate limit
//	FLT - the value was unchanged for at least the flatline window
//	LMT - the value is outside the seasonal percentile band
//	P   - all checks passed
//
// When several conditions hold at once, the code listed earlier wins.
// NAN, INF, M and F nullify the output value, while SPK, FLT and LMT
// keep it. Only non-nullified values feed back into the rolling
// baseline used to derive future thresholds.

type Code string

const (
	NAN      Code = "NAN"
	INF      Code = "INF"
	MISSING  Code = "M"
	FAIL     Code = "F"
	SPIKE    Code = "SPK"
	FLATLINE Code = "FLT"
	SOFT     Code = "LMT"
	PASS     Code = "P"
)

// severity orders the codes for precedence resolution, higher wins
var severity = map[Code]int{
	NAN:      7,
	INF:      6,
	MISSING:  5,
	FAIL:     4,
	SPIKE:    3,
	FLATLINE: 2,
	SOFT:     1,
	PASS:     0,
}

func (c Code) Valid() bool {
	_, ok := severity[c]
	return ok
}

// Outranks reports whether c takes precedence over other.
func (c Code) Outranks(other Code) bool {
	return severity[c] > severity[other]
}

// Nullifies reports whether the code replaces the output value with
// the no-data marker.
func (c Code) Nullifies() bool {
	switch c {
	case NAN, INF, MISSING, FAIL:
		return true
	}
	return false
}

// Accepted reports whether an observation with this code remains part
// of the historical baseline.
func (c Code) Accepted() bool {
	return c.Valid() && !c.Nullifies()
}

// Observation is a single reading of one variable. A nil value means
// the record exists but carries no data.
type Observation struct {
	Obstime  time.Time
	Variable string
	Value    *float64
}

// Result is the outcome of evaluating one observation. Original
// preserves the raw reading, Corrected holds the output value and is
// nil when the flag nullifies.
type Result struct {
	Obstime   time.Time
	Variable  string
	Original  *float64
	Corrected *float64
	Code      Code
}
