// Package station holds the metadata registry for monitored sites.
//
// Two CSV files describe a deployment:
//   - the station file, one row per site with coordinates, the fixed
//     UTC offset of the logger clock and the sampling interval
//   - the variable file, one row per (station, variable) with hard
//     limits and the per variable screening knobs
//
// Both files are read once at startup and validated up front. A
// malformed row is a configuration error and aborts the program,
// unlike data errors which only ever produce flags.
package station

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"obsqc/qc"
	"obsqc/threshold"
	"obsqc/utils"
)

var validate = validator.New()

var UNKNOWN_STATION_ERR error = errors.New("Station not found in the registry")

// Station describes one monitored site.
type Station struct {
	ID   string  `csv:"id" validate:"required"`
	Name string  `csv:"name"`
	Lat  float64 `csv:"lat" validate:"latitude"`
	Lon  float64 `csv:"lon" validate:"longitude"`
	// Fixed ISO 8601 offset between logger timestamps and UTC, e.g. "-PT7H"
	UTCOffset string `csv:"utc_offset"`
	// Sampling interval of the logger program, e.g. "PT1H"
	Step         string  `csv:"step" validate:"required"`
	SensorHeight float64 `csv:"sensor_height_m"`
}

// Binner returns the day and night classifier for the station coordinates.
func (s *Station) Binner() *qc.Binner {
	return &qc.Binner{Lat: s.Lat, Lon: s.Lon}
}

// Offset returns the fixed duration the logger clock runs ahead of UTC.
// Subtracting it from a logger timestamp yields UTC.
func (s *Station) Offset() (time.Duration, error) {
	return utils.ParseISODuration(s.UTCOffset)
}

// SampleStep returns the expected spacing between observations.
func (s *Station) SampleStep() (time.Duration, error) {
	step, err := utils.ParseISODuration(s.Step)
	if err != nil {
		return 0, err
	}
	if step <= 0 {
		return 0, errors.New("Station '" + s.ID + "' has a non-positive sampling interval")
	}
	return step, nil
}

// VariableRow is one line of the per station variable configuration file.
type VariableRow struct {
	Station         string   `csv:"station" validate:"required"`
	Variable        string   `csv:"variable" validate:"required"`
	HardMin         float64  `csv:"hard_min"`
	HardMax         float64  `csv:"hard_max"`
	Diurnal         bool     `csv:"diurnal"`
	NightMax        *float64 `csv:"night_max"`
	RateLimit       *float64 `csv:"rate_limit"`
	FlatlineWindow  string   `csv:"flatline_window"`
	FlatlineEpsilon float64  `csv:"flatline_epsilon"`
	// Space separated month numbers, e.g. "6 7 8 9"
	SnowFreeMonths string  `csv:"snow_free_months"`
	SnowFreeMax    float64 `csv:"snow_free_max"`
}

// ToConfig converts the CSV row into the profiler configuration.
func (row *VariableRow) ToConfig() (threshold.VariableConfig, error) {
	window, err := utils.ParseISODuration(row.FlatlineWindow)
	if err != nil {
		return threshold.VariableConfig{}, errors.New("Variable '" + row.Variable + "': " + err.Error())
	}

	months, err := parseMonths(row.SnowFreeMonths)
	if err != nil {
		return threshold.VariableConfig{}, errors.New("Variable '" + row.Variable + "': " + err.Error())
	}

	return threshold.VariableConfig{
		Name:            row.Variable,
		HardMin:         row.HardMin,
		HardMax:         row.HardMax,
		Diurnal:         row.Diurnal,
		NightMax:        row.NightMax,
		RateLimit:       row.RateLimit,
		FlatlineWindow:  window,
		FlatlineEpsilon: row.FlatlineEpsilon,
		SnowFreeMonths:  months,
		SnowFreeMax:     row.SnowFreeMax,
	}, nil
}

func parseMonths(s string) ([]time.Month, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, nil
	}

	months := make([]time.Month, 0, len(fields))
	for _, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 || n > 12 {
			return nil, errors.New("Invalid month number '" + field + "'")
		}
		months = append(months, time.Month(n))
	}
	return months, nil
}
