// Package ingest reads Campbell Scientific TOA5 logger files.
//
// A TOA5 table starts with a four line header:
//
//	"TOA5","fin01","CR1000X","12345","CR1000X.Std.03","hourly.CR1X","1234","Hourly"
//	"TIMESTAMP","RECORD","AirT_C_Avg",...
//	"TS","RN","Deg C",...
//	"","","Avg",...
//
// followed by one data row per scan. Timestamps are station local and
// carry no zone marker. A value matching one of the null sentinels is
// read as missing, everything else must parse as a float.
package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"obsqc/qc"
)

// Values the logger writes when a reading is absent
var NULL_VALUES []string = []string{"NAN", "", "-7999", "7999"}

var INVALID_TOA5_ERR error = errors.New("File is not a valid TOA5 table")
var MISSING_TIMESTAMP_ERR error = errors.New("File has no TIMESTAMP column")

const TIMESTAMP_COLUMN string = "TIMESTAMP"
const RECORD_COLUMN string = "RECORD"

var timeLayouts []string = []string{"2006-01-02 15:04:05", "2006-01-02 15:04"}

// Header holds the environment line of a logger file.
type Header struct {
	Station   string
	Model     string
	Serial    string
	OSVersion string
	Program   string
	Table     string
}

// LoggerID identifies the physical logger.
func (h *Header) LoggerID() string {
	return h.Model + "-" + h.Serial
}

// Row is a single scan with station local time.
type Row struct {
	Timestamp time.Time
	Values    map[string]*float64
}

// File is a fully parsed logger table. Columns lists the data columns
// in file order after alias resolution, without TIMESTAMP and without
// removed columns. Rows are sorted by timestamp.
type File struct {
	Header       Header
	Columns      []string
	Units        map[string]string
	ProcessCodes map[string]string
	Rows         []Row
}

// ReadTOA5 parses a logger file, renaming columns through the alias
// map when one is given.
func ReadTOA5(path string, aliases *AliasMap) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)

	var header [4]string
	for i := range header {
		if !scanner.Scan() {
			return nil, fmt.Errorf("%w: '%s' ends inside the header", INVALID_TOA5_ERR, path)
		}
		header[i] = scanner.Text()
	}

	environment, err := parseEnvironment(header[0])
	if err != nil {
		return nil, fmt.Errorf("%w: '%s'", err, path)
	}

	rawColumns := splitQuoted(header[1])
	units := splitQuoted(header[2])
	codes := splitQuoted(header[3])

	columns := make([]string, len(rawColumns))
	tsIndex := -1
	for i, raw := range rawColumns {
		name := raw
		if aliases != nil {
			name = aliases.Resolve(raw)
		}
		columns[i] = name
		if name == TIMESTAMP_COLUMN && tsIndex < 0 {
			tsIndex = i
		}
	}
	if tsIndex < 0 {
		return nil, fmt.Errorf("%w: '%s'", MISSING_TIMESTAMP_ERR, path)
	}

	kept := make([]string, 0, len(columns))
	unitMap := make(map[string]string)
	codeMap := make(map[string]string)
	for i, name := range columns {
		if i == tsIndex || name == REMOVE_COLUMN {
			continue
		}
		kept = append(kept, name)
		if i < len(units) {
			unitMap[name] = units[i]
		}
		if i < len(codes) {
			codeMap[name] = codes[i]
		}
	}

	var malformed int
	var rows []Row
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := splitQuoted(line)
		if len(fields) != len(columns) {
			malformed++
			continue
		}

		timestamp, err := parseTimestamp(fields[tsIndex])
		if err != nil {
			malformed++
			continue
		}

		values := make(map[string]*float64, len(kept))
		for i, name := range columns {
			if i == tsIndex || name == REMOVE_COLUMN {
				continue
			}
			values[name] = parseValue(fields[i])
		}
		rows = append(rows, Row{Timestamp: timestamp, Values: values})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if malformed > 0 {
		slog.Warn(fmt.Sprintf("%s: skipped %d malformed rows", path, malformed))
	}

	slices.SortStableFunc(rows, func(a, b Row) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	return &File{
		Header:       environment,
		Columns:      kept,
		Units:        unitMap,
		ProcessCodes: codeMap,
		Rows:         rows,
	}, nil
}

// Observations extracts one variable as a time ordered series in UTC.
// The offset is the fixed duration the logger clock runs ahead of UTC,
// so a reading stamped 14:00 at UTC-7 becomes 21:00Z.
func (f *File) Observations(variable string, offset time.Duration) []qc.Observation {
	if !slices.Contains(f.Columns, variable) {
		return nil
	}

	series := make([]qc.Observation, 0, len(f.Rows))
	for _, row := range f.Rows {
		series = append(series, qc.Observation{
			Obstime:  row.Timestamp.Add(-offset),
			Variable: variable,
			Value:    row.Values[variable],
		})
	}
	return series
}

func parseEnvironment(line string) (Header, error) {
	parts := splitQuoted(line)
	if len(parts) < 8 || parts[0] != "TOA5" {
		return Header{}, INVALID_TOA5_ERR
	}

	return Header{
		Station:   parts[1],
		Model:     parts[2],
		Serial:    parts[3],
		OSVersion: parts[4],
		Program:   parts[5],
		Table:     parts[7],
	}, nil
}

// TOA5 fields never contain commas, so a plain split with quote
// trimming is enough.
func splitQuoted(line string) []string {
	fields := strings.Split(strings.TrimRight(line, "\r"), ",")
	for i, field := range fields {
		fields[i] = strings.Trim(strings.TrimSpace(field), `"`)
	}
	return fields
}

func parseTimestamp(field string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, field); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("Unparsable timestamp '" + field + "'")
}

func parseValue(field string) *float64 {
	if slices.Contains(NULL_VALUES, field) {
		return nil
	}

	value, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return nil
	}
	return &value
}
