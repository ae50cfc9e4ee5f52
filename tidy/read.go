package tidy

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"obsqc/qc"
)

var BAD_LAYOUT_ERR error = errors.New("File does not look like a cleaned observation file")

// ReadFile loads a cleaned observation file back into a frame.
func ReadFile(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return read(file, path)
}

func read(r io.Reader, path string) (*Frame, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: '%s'", BAD_LAYOUT_ERR, path)
	}
	if len(header) < 3 || header[0] != TIMESTAMP_COLUMN || (len(header)-1)%2 != 0 {
		return nil, fmt.Errorf("%w: '%s'", BAD_LAYOUT_ERR, path)
	}

	units, err := reader.Read()
	if err != nil || units[0] != TIMESTAMP_UNIT {
		return nil, fmt.Errorf("%w: '%s' is missing the units row", BAD_LAYOUT_ERR, path)
	}

	variables := make([]string, 0, (len(header)-1)/2)
	unitMap := make(map[string]string)
	for i := 1; i < len(header); i += 2 {
		variable := header[i]
		if header[i+1] != variable+FLAG_SUFFIX {
			return nil, fmt.Errorf("%w: '%s' has no flag column for '%s'", BAD_LAYOUT_ERR, path, variable)
		}
		variables = append(variables, variable)
		if units[i] != NO_UNIT {
			unitMap[variable] = units[i]
		}
	}

	frame := NewFrame(unitMap)
	frame.variables = variables

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		obstime, err := time.Parse(TIMEFORMAT, record[0])
		if err != nil {
			return nil, fmt.Errorf("%w: '%s': %s", BAD_LAYOUT_ERR, path, err)
		}

		key := obstime.Unix()
		if _, ok := frame.rows[key]; ok {
			frame.duplicates++
			continue
		}

		row := make(map[string]qc.Result, len(variables))
		for i, variable := range variables {
			row[variable] = parseCell(obstime, variable, record[1+2*i], record[2+2*i])
		}
		frame.rows[key] = row
	}

	return frame, nil
}

func parseCell(obstime time.Time, variable, value, flag string) qc.Result {
	res := qc.Result{Obstime: obstime, Variable: variable}

	if value != NO_DATA && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(parsed) {
			res.Corrected = &parsed
			res.Original = &parsed
		}
	}

	// Older files leave the flag cell empty for untouched values
	code := qc.Code(strings.TrimSpace(flag))
	switch {
	case code.Valid():
		res.Code = code
	case res.Corrected != nil:
		res.Code = qc.PASS
	default:
		res.Code = qc.MISSING
	}
	return res
}
