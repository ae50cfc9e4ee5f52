// Package tidy writes and reads cleaned observation files.
//
// The layout matches the downstream convention for cleaned data: a
// header row, a units row directly underneath, then one line per
// timestamp. Every variable occupies two columns, the value and a
// companion flag, with NaN as the no data marker.
package tidy

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"slices"
	"strconv"
	"time"

	"obsqc/qc"
)

const TIMEFORMAT string = "2006-01-02 15:04:05"

const TIMESTAMP_COLUMN string = "TIMESTAMP"
const TIMESTAMP_UNIT string = "TS"
const FLAG_SUFFIX string = "_Flag"
const NO_DATA string = "NaN"
const NO_UNIT string = "nan"

// Frame collects per variable results on a shared time axis.
type Frame struct {
	variables  []string
	units      map[string]string
	rows       map[int64]map[string]qc.Result
	duplicates int
}

func NewFrame(units map[string]string) *Frame {
	if units == nil {
		units = make(map[string]string)
	}
	return &Frame{
		units: units,
		rows:  make(map[int64]map[string]qc.Result),
	}
}

// AddSeries merges one variable's results into the frame. The first
// result wins when a (timestamp, variable) pair repeats.
func (f *Frame) AddSeries(variable string, results []qc.Result) {
	if !slices.Contains(f.variables, variable) {
		f.variables = append(f.variables, variable)
	}

	for _, res := range results {
		key := res.Obstime.Unix()
		row, ok := f.rows[key]
		if !ok {
			row = make(map[string]qc.Result)
			f.rows[key] = row
		}
		if _, ok := row[variable]; ok {
			f.duplicates++
			continue
		}
		row[variable] = res
	}
}

// Merge folds another frame into this one, first result wins.
// Returns the number of duplicate cells skipped.
func (f *Frame) Merge(other *Frame) int {
	before := f.duplicates
	for _, variable := range other.variables {
		if unit, ok := other.units[variable]; ok {
			if _, exists := f.units[variable]; !exists {
				f.units[variable] = unit
			}
		}
		f.AddSeries(variable, other.series(variable))
	}
	return f.duplicates - before
}

// Duplicates reports how many repeated cells were skipped so far.
func (f *Frame) Duplicates() int {
	return f.duplicates
}

// Len returns the number of rows on the time axis.
func (f *Frame) Len() int {
	return len(f.rows)
}

// Regularize inserts empty rows so the time axis has one row per step
// between the first and last timestamp. Returns the number of rows
// inserted. Cells without a result are serialized as missing.
func (f *Frame) Regularize(step time.Duration) int {
	interval := int64(step / time.Second)
	if interval <= 0 || len(f.rows) < 2 {
		return 0
	}

	keys := f.sortedKeys()
	first, last := keys[0], keys[len(keys)-1]

	inserted := 0
	for key := first; key < last; key += interval {
		if _, ok := f.rows[key]; !ok {
			f.rows[key] = make(map[string]qc.Result)
			inserted++
		}
	}
	return inserted
}

func (f *Frame) series(variable string) []qc.Result {
	series := make([]qc.Result, 0, len(f.rows))
	for _, key := range f.sortedKeys() {
		if res, ok := f.rows[key][variable]; ok {
			series = append(series, res)
		}
	}
	return series
}

func (f *Frame) sortedKeys() []int64 {
	keys := make([]int64, 0, len(f.rows))
	for key := range f.rows {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Write serializes the frame to path.
func (f *Frame) Write(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	err = f.write(file)
	if closeErr := file.Close(); closeErr != nil {
		return errors.Join(err, closeErr)
	}
	return err
}

func (f *Frame) write(w io.Writer) error {
	writer := csv.NewWriter(w)

	header := make([]string, 0, 1+2*len(f.variables))
	units := make([]string, 0, 1+2*len(f.variables))
	header = append(header, TIMESTAMP_COLUMN)
	units = append(units, TIMESTAMP_UNIT)
	for _, variable := range f.variables {
		header = append(header, variable, variable+FLAG_SUFFIX)

		unit := f.units[variable]
		if unit == "" {
			unit = NO_UNIT
		}
		units = append(units, unit, NO_UNIT)
	}

	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.Write(units); err != nil {
		return err
	}

	record := make([]string, len(header))
	for _, key := range f.sortedKeys() {
		row := f.rows[key]
		record[0] = time.Unix(key, 0).UTC().Format(TIMEFORMAT)

		i := 1
		for _, variable := range f.variables {
			res, ok := row[variable]
			if !ok || res.Corrected == nil {
				record[i] = NO_DATA
			} else {
				record[i] = strconv.FormatFloat(*res.Corrected, 'g', -1, 64)
			}

			if !ok {
				record[i+1] = string(qc.MISSING)
			} else {
				record[i+1] = string(res.Code)
			}
			i += 2
		}

		if err := writer.Write(record); err != nil {
			return errors.New("Could not write to file: " + err.Error())
		}
	}

	writer.Flush()
	return writer.Error()
}
