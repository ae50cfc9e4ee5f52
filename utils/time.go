package utils

import (
	"fmt"
	"time"

	"github.com/rickb777/period"
)

// Timestamp is a date-only CLI argument. It unmarshals "YYYY-MM-DD"
// strings and the special value "now".
type Timestamp struct {
	t time.Time
}

func (ts *Timestamp) UnmarshalText(b []byte) error {
	if string(b) == "now" {
		now, err := time.Parse(time.DateOnly, time.Now().Format(time.DateOnly))
		if err != nil {
			return err
		}
		ts.t = now
		return nil
	}

	t, err := time.Parse(time.DateOnly, string(b))
	if err != nil {
		return fmt.Errorf("Only the date-only format (\"YYYY-MM-DD\") is allowed. Got %s", b)
	}
	ts.t = t
	return nil
}

func (ts *Timestamp) After(other Timestamp) bool {
	return ts.t.After(other.t)
}

// Inner returns the wrapped time. A nil receiver yields nil, which
// leaves the corresponding timespan side unbounded.
func (ts *Timestamp) Inner() *time.Time {
	if ts == nil {
		return nil
	}
	return &ts.t
}

func (ts *Timestamp) Format(layout string) string {
	return ts.t.Format(layout)
}

func (ts *Timestamp) Time() time.Time {
	return ts.t
}

// ParseISODuration converts an ISO-8601 duration like "PT6H" or
// "-PT7H" to a concrete duration. Calendar components are resolved
// against a fixed reference instant.
func ParseISODuration(iso string) (time.Duration, error) {
	if iso == "" {
		return 0, nil
	}

	p, err := period.Parse(iso)
	if err != nil {
		return 0, err
	}
	if p.IsZero() {
		return 0, nil
	}

	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	end, _ := p.AddTo(base)
	return end.Sub(base), nil
}

type TimeSpan struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether t falls inside the span. A nil boundary
// leaves that side unbounded.
func (ts *TimeSpan) Contains(t time.Time) bool {
	if ts.From != nil && t.Before(*ts.From) {
		return false
	}
	if ts.To != nil && t.After(*ts.To) {
		return false
	}
	return true
}

// Returns:
// - "",                                if t.From and t.To are both nil
// - "from_<timestamp>",                if t.From is not nil, and t.To is nil
// - "to_<timestamp>",                  if t.From is nil, and t.To is not nil
// - "from_<timestamp>_to_<timestamp>", if both t.From and t.To are not nil
func (ts *TimeSpan) ToDirName() string {
	if ts.From != nil && ts.To != nil {
		from := "from_" + ts.From.Format(time.DateOnly)
		to := "to_" + ts.To.Format(time.DateOnly)
		return from + "_" + to
	} else if ts.From != nil {
		return "from_" + ts.From.Format(time.DateOnly)
	} else if ts.To != nil {
		return "to_" + ts.To.Format(time.DateOnly)
	}
	return ""
}
