package threshold

import (
	"fmt"
	"time"

	"obsqc/qc"
)

// Set is one immutable version of the derived thresholds for every
// variable of a station. Rebuilds produce a fresh version, runs that
// are already in flight keep the version they started with.
type Set struct {
	Station   string
	Version   string
	BuiltAt   time.Time
	Variables map[string]*qc.Thresholds
}

// For returns the thresholds of a variable.
func (s *Set) For(variable string) (*qc.Thresholds, bool) {
	t, ok := s.Variables[variable]
	return t, ok
}

// Validate checks every variable against the band ordering invariant.
// A set that fails validation must not replace the active version.
func (s *Set) Validate() error {
	for name, thr := range s.Variables {
		if err := thr.Validate(); err != nil {
			return fmt.Errorf("Variable '%s': %w", name, err)
		}
	}
	return nil
}
