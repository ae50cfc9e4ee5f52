package station

import (
	"errors"
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"obsqc/qc"
	"obsqc/threshold"
)

// Registry holds every configured station and its variable configs.
type Registry struct {
	Stations  map[string]*Station
	Variables map[string][]threshold.VariableConfig
}

// LoadRegistry reads and validates both metadata files.
func LoadRegistry(stationsPath, variablesPath string) (*Registry, error) {
	stations, err := loadStations(stationsPath)
	if err != nil {
		return nil, err
	}

	variables, err := loadVariables(variablesPath, stations)
	if err != nil {
		return nil, err
	}

	return &Registry{Stations: stations, Variables: variables}, nil
}

// Get looks up a station by id.
func (r *Registry) Get(id string) (*Station, error) {
	station, ok := r.Stations[id]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", UNKNOWN_STATION_ERR, id)
	}
	return station, nil
}

// Configs returns the variable configurations for a station.
func (r *Registry) Configs(id string) []threshold.VariableConfig {
	return r.Variables[id]
}

func loadStations(path string) (map[string]*Station, error) {
	csvfile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer csvfile.Close()

	var rows []*Station
	if err := gocsv.UnmarshalFile(csvfile, &rows); err != nil {
		return nil, err
	}

	stations := make(map[string]*Station, len(rows))
	for _, s := range rows {
		if err := validate.Struct(s); err != nil {
			return nil, fmt.Errorf("%w: station '%s': %s", qc.MALFORMED_THRESHOLDS_ERR, s.ID, err)
		}
		if _, err := s.Offset(); err != nil {
			return nil, fmt.Errorf("%w: station '%s': bad UTC offset: %s", qc.MALFORMED_THRESHOLDS_ERR, s.ID, err)
		}
		if _, err := s.SampleStep(); err != nil {
			return nil, fmt.Errorf("%w: station '%s': bad step: %s", qc.MALFORMED_THRESHOLDS_ERR, s.ID, err)
		}
		if _, ok := stations[s.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate station '%s'", qc.MALFORMED_THRESHOLDS_ERR, s.ID)
		}
		stations[s.ID] = s
	}

	if len(stations) == 0 {
		return nil, errors.New("Station file '" + path + "' contains no rows")
	}
	return stations, nil
}

func loadVariables(path string, stations map[string]*Station) (map[string][]threshold.VariableConfig, error) {
	csvfile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer csvfile.Close()

	var rows []*VariableRow
	if err := gocsv.UnmarshalFile(csvfile, &rows); err != nil {
		return nil, err
	}

	variables := make(map[string][]threshold.VariableConfig)
	for _, row := range rows {
		if err := validate.Struct(row); err != nil {
			return nil, fmt.Errorf("%w: variable '%s': %s", qc.MALFORMED_THRESHOLDS_ERR, row.Variable, err)
		}
		if _, ok := stations[row.Station]; !ok {
			return nil, fmt.Errorf("%w: variable '%s' references unknown station '%s'",
				qc.MALFORMED_THRESHOLDS_ERR, row.Variable, row.Station)
		}

		config, err := row.ToConfig()
		if err != nil {
			return nil, fmt.Errorf("%w: %s", qc.MALFORMED_THRESHOLDS_ERR, err)
		}
		variables[row.Station] = append(variables[row.Station], config)
	}
	return variables, nil
}
