package ingest

import (
	"os"
	"strings"

	"github.com/gocarina/gocsv"
)

// Canonical name that marks a raw column for removal
const REMOVE_COLUMN string = "REMOVE"

// AliasRow is one line of the column mapping file.
type AliasRow struct {
	Canonical string `csv:"canonical"`
	Unit      string `csv:"unit"`
	// Space separated alternative spellings seen in raw files
	Aliases string `csv:"aliases"`
}

// AliasMap resolves raw logger column names to canonical variable names.
type AliasMap struct {
	names map[string]string
	units map[string]string
}

// LoadAliases reads the column mapping file.
func LoadAliases(path string) (*AliasMap, error) {
	csvfile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer csvfile.Close()

	var rows []AliasRow
	if err := gocsv.UnmarshalFile(csvfile, &rows); err != nil {
		return nil, err
	}

	aliases := &AliasMap{
		names: make(map[string]string),
		units: make(map[string]string),
	}
	for _, row := range rows {
		aliases.names[row.Canonical] = row.Canonical
		aliases.units[row.Canonical] = row.Unit
		for _, alias := range strings.Fields(row.Aliases) {
			aliases.names[alias] = row.Canonical
		}
	}
	return aliases, nil
}

// Resolve maps a raw column name to its canonical form. Unknown columns
// pass through unchanged.
func (a *AliasMap) Resolve(raw string) string {
	if canonical, ok := a.names[raw]; ok {
		return canonical
	}
	return raw
}

// Unit returns the output unit for a canonical column, "nan" when the
// mapping does not carry one.
func (a *AliasMap) Unit(canonical string) string {
	if unit, ok := a.units[canonical]; ok && unit != "" {
		return unit
	}
	return "nan"
}
