package ingest

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const aliasCSV = `canonical,unit,aliases
AirT_C_Avg,Deg C,AirTC_Avg airt
SlrFD_W_Avg,W/m^2,
REMOVE,,Junk
`

const toa5File = `"TOA5","fin01","CR1000X","12345","CR1000X.Std.03.02","hourly.CR1X","65535","Hourly"
"TIMESTAMP","RECORD","AirTC_Avg","Junk","SlrFD_W_Avg"
"TS","RN","Deg C","","W/m^2"
"","","Avg","","Avg"
"2024-06-01 15:00:00",2,13.1,9,801.2
"2024-06-01 14:00:00",1,12.5,9,"NAN"
"2024-06-01 16:00:00",3,-7999,9,bogus
"2024-06-01 17:00:00",4
`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadTestFile(t *testing.T) *File {
	t.Helper()

	aliases, err := LoadAliases(writeFixture(t, "aliases.csv", aliasCSV))
	if err != nil {
		t.Fatal(err)
	}

	file, err := ReadTOA5(writeFixture(t, "data.dat", toa5File), aliases)
	if err != nil {
		t.Fatal(err)
	}
	return file
}

func TestReadTOA5Header(t *testing.T) {
	file := loadTestFile(t)

	if file.Header.Station != "fin01" {
		t.Errorf("Got station %q, wanted fin01", file.Header.Station)
	}
	if file.Header.LoggerID() != "CR1000X-12345" {
		t.Errorf("Got logger id %q, wanted CR1000X-12345", file.Header.LoggerID())
	}
	if file.Header.Table != "Hourly" {
		t.Errorf("Got table %q, wanted Hourly", file.Header.Table)
	}
}

func TestReadTOA5Columns(t *testing.T) {
	file := loadTestFile(t)

	want := []string{"RECORD", "AirT_C_Avg", "SlrFD_W_Avg"}
	if len(file.Columns) != len(want) {
		t.Fatalf("Got columns %v, wanted %v", file.Columns, want)
	}
	for i, name := range want {
		if file.Columns[i] != name {
			t.Errorf("Got column %q at %d, wanted %q", file.Columns[i], i, name)
		}
	}

	if file.Units["AirT_C_Avg"] != "Deg C" {
		t.Errorf("Got unit %q, wanted Deg C", file.Units["AirT_C_Avg"])
	}
	if file.ProcessCodes["AirT_C_Avg"] != "Avg" {
		t.Errorf("Got process code %q, wanted Avg", file.ProcessCodes["AirT_C_Avg"])
	}
}

func TestReadTOA5Rows(t *testing.T) {
	file := loadTestFile(t)

	// The short 17:00 row is dropped, the rest are sorted by time
	if len(file.Rows) != 3 {
		t.Fatalf("Got %d rows, wanted 3", len(file.Rows))
	}

	first := file.Rows[0]
	if first.Timestamp != time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC) {
		t.Errorf("Got first timestamp %v, rows should be sorted", first.Timestamp)
	}
	if v := first.Values["AirT_C_Avg"]; v == nil || *v != 12.5 {
		t.Errorf("Got %v, wanted 12.5", v)
	}
	if v := first.Values["SlrFD_W_Avg"]; v != nil {
		t.Errorf("Got %v, wanted nil for the NAN sentinel", *v)
	}
	if _, ok := first.Values["Junk"]; ok {
		t.Error("Removed column should not appear in the values")
	}

	last := file.Rows[2]
	if v := last.Values["AirT_C_Avg"]; v != nil {
		t.Errorf("Got %v, wanted nil for the -7999 sentinel", *v)
	}
	if v := last.Values["SlrFD_W_Avg"]; v != nil {
		t.Errorf("Got %v, wanted nil for an unparsable value", *v)
	}
}

func TestReadTOA5KeepsInfinities(t *testing.T) {
	content := `"TOA5","fin01","CR1000X","12345","os","prog","1","Hourly"
"TIMESTAMP","BattV_Avg"
"TS","Volts"
"",""
"2024-06-01 14:00:00",Inf
`
	file, err := ReadTOA5(writeFixture(t, "inf.dat", content), nil)
	if err != nil {
		t.Fatal(err)
	}

	v := file.Rows[0].Values["BattV_Avg"]
	if v == nil || !math.IsInf(*v, 1) {
		t.Error("An explicit Inf should parse as a value, not as missing")
	}
}

func TestObservations(t *testing.T) {
	file := loadTestFile(t)

	// Logger clock runs 7 hours behind UTC
	series := file.Observations("AirT_C_Avg", -7*time.Hour)
	if len(series) != 3 {
		t.Fatalf("Got %d observations, wanted 3", len(series))
	}

	want := time.Date(2024, 6, 1, 21, 0, 0, 0, time.UTC)
	if !series[0].Obstime.Equal(want) {
		t.Errorf("Got %v, wanted %v", series[0].Obstime, want)
	}
	if series[0].Value == nil || *series[0].Value != 12.5 {
		t.Errorf("Got %v, wanted 12.5", series[0].Value)
	}
	if series[2].Value != nil {
		t.Error("The sentinel reading should come through as missing")
	}

	if unknown := file.Observations("Junk", 0); unknown != nil {
		t.Error("Removed columns should yield no series")
	}
}

func TestReadTOA5Invalid(t *testing.T) {
	type testCase struct {
		name    string
		content string
		want    error
	}

	cases := []testCase{
		{
			name:    "truncated header",
			content: "\"TOA5\",\"fin01\"\n\"TIMESTAMP\"\n",
			want:    INVALID_TOA5_ERR,
		},
		{
			name:    "wrong format marker",
			content: "\"TOB1\",\"fin01\",\"m\",\"s\",\"os\",\"p\",\"sig\",\"t\"\n\"TIMESTAMP\"\n\"TS\"\n\"\"\n",
			want:    INVALID_TOA5_ERR,
		},
		{
			name:    "no timestamp column",
			content: "\"TOA5\",\"fin01\",\"m\",\"s\",\"os\",\"p\",\"sig\",\"t\"\n\"RECORD\"\n\"RN\"\n\"\"\n",
			want:    MISSING_TIMESTAMP_ERR,
		},
	}

	for _, c := range cases {
		t.Log("Testing case:", c.name)

		_, err := ReadTOA5(writeFixture(t, "bad.dat", c.content), nil)
		if !errors.Is(err, c.want) {
			t.Errorf("Got %v, wanted %v", err, c.want)
		}
	}
}
