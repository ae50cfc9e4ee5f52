package threshold

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rickb777/period"

	"obsqc/qc"
	"obsqc/utils"
)

// Row is the flat form of one seasonal band, shared between the CSV
// snapshot and the thresholds.band table. A set has one row per
// (variable, bin), with the variable-wide fields repeated on each row.
// Variables without profiled bins keep a single row with month 0 so
// their static limits survive the round trip.
type Row struct {
	Station         string    `csv:"station" db:"station"`
	Version         string    `csv:"version" db:"version"`
	BuiltAt         time.Time `csv:"built_at" db:"built_at"`
	Variable        string    `csv:"variable" db:"variable"`
	Month           int       `csv:"month" db:"month"`
	Daytime         bool      `csv:"daytime" db:"daytime"`
	SoftMin         float64   `csv:"soft_min" db:"soft_min"`
	SoftMax         float64   `csv:"soft_max" db:"soft_max"`
	HardMin         float64   `csv:"hard_min" db:"hard_min"`
	HardMax         float64   `csv:"hard_max" db:"hard_max"`
	RateLimit       float64   `csv:"rate_limit" db:"rate_limit"`
	FlatlineWindow  string    `csv:"flatline_window" db:"flatline_window"`
	FlatlineEpsilon float64   `csv:"flatline_epsilon" db:"flatline_epsilon"`
	Diurnal         bool      `csv:"diurnal" db:"diurnal"`
	NightMax        *float64  `csv:"night_max" db:"night_max"`
}

func (r *Row) ToRow() []any {
	return []any{
		r.Station, r.Version, r.BuiltAt, r.Variable, r.Month, r.Daytime,
		r.SoftMin, r.SoftMax, r.HardMin, r.HardMax, r.RateLimit,
		r.FlatlineWindow, r.FlatlineEpsilon, r.Diurnal, r.NightMax,
	}
}

// WriteCSV writes a snapshot of the set to path.
func WriteCSV(set *Set, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return gocsv.Marshal(ToRows(set), file)
}

// ReadCSV rebuilds a set from a snapshot written by WriteCSV. The set
// is validated before it is returned.
func ReadCSV(path string) (*Set, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rows []Row
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, err
	}
	return FromRows(rows)
}

// ToRows flattens a set into sorted band rows.
func ToRows(set *Set) []Row {
	var rows []Row
	for name, thr := range set.Variables {
		window, _ := period.NewOf(thr.FlatlineWindow)

		base := Row{
			Station:         set.Station,
			Version:         set.Version,
			BuiltAt:         set.BuiltAt,
			Variable:        name,
			HardMin:         thr.HardMin,
			HardMax:         thr.HardMax,
			RateLimit:       thr.RateLimit,
			FlatlineWindow:  window.String(),
			FlatlineEpsilon: thr.FlatlineEpsilon,
			Diurnal:         thr.Diurnal,
			NightMax:        thr.NightMax,
		}

		if len(thr.Seasonal) == 0 {
			row := base
			row.SoftMin = thr.HardMin
			row.SoftMax = thr.HardMax
			rows = append(rows, row)
			continue
		}

		for key, band := range thr.Seasonal {
			row := base
			row.Month = int(key.Month)
			row.Daytime = key.Daytime
			row.SoftMin = band.SoftMin
			row.SoftMax = band.SoftMax
			rows = append(rows, row)
		}
	}

	slices.SortFunc(rows, func(x, y Row) int {
		if c := strings.Compare(x.Variable, y.Variable); c != 0 {
			return c
		}
		if x.Month != y.Month {
			return x.Month - y.Month
		}
		if x.Daytime != y.Daytime {
			if x.Daytime {
				return -1
			}
			return 1
		}
		return 0
	})
	return rows
}

// FromRows rebuilds and validates a set from its band rows.
func FromRows(rows []Row) (*Set, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("Snapshot contains no rows")
	}

	set := &Set{
		Station:   rows[0].Station,
		Version:   rows[0].Version,
		BuiltAt:   rows[0].BuiltAt,
		Variables: make(map[string]*qc.Thresholds),
	}

	for _, row := range rows {
		thr, ok := set.Variables[row.Variable]
		if !ok {
			window, err := utils.ParseISODuration(row.FlatlineWindow)
			if err != nil {
				return nil, fmt.Errorf("Variable '%s': could not parse flatline window: %s", row.Variable, err)
			}
			thr = &qc.Thresholds{
				HardMin:         row.HardMin,
				HardMax:         row.HardMax,
				Seasonal:        make(map[qc.BinKey]qc.Band),
				RateLimit:       row.RateLimit,
				FlatlineWindow:  window,
				FlatlineEpsilon: row.FlatlineEpsilon,
				Diurnal:         row.Diurnal,
				NightMax:        row.NightMax,
			}
			set.Variables[row.Variable] = thr
		}

		if row.Month == 0 {
			continue
		}
		key := qc.BinKey{Month: time.Month(row.Month), Daytime: row.Daytime}
		thr.Seasonal[key] = qc.Band{SoftMin: row.SoftMin, SoftMax: row.SoftMax}
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}
