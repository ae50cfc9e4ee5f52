package tidy

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"obsqc/qc"
)

func addr[T any](t T) *T {
	return &t
}

func TestFrameWrite(t *testing.T) {
	start := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)

	frame := NewFrame(map[string]string{"AirT_C_Avg": "Deg C"})
	frame.AddSeries("AirT_C_Avg", []qc.Result{
		{Obstime: start, Variable: "AirT_C_Avg", Corrected: addr(12.5), Code: qc.PASS},
		{Obstime: start.Add(time.Hour), Variable: "AirT_C_Avg", Code: qc.MISSING},
	})
	frame.AddSeries("RH", []qc.Result{
		{Obstime: start, Variable: "RH", Corrected: addr(55.0), Code: qc.SOFT},
	})

	path := filepath.Join(t.TempDir(), "clean.csv")
	if err := frame.Write(path); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 4 {
		t.Fatalf("Got %d lines, wanted 4", len(lines))
	}

	if lines[0] != "TIMESTAMP,AirT_C_Avg,AirT_C_Avg_Flag,RH,RH_Flag" {
		t.Errorf("Got header %q", lines[0])
	}
	if lines[1] != "TS,Deg C,nan,nan,nan" {
		t.Errorf("Got units %q", lines[1])
	}
	if lines[2] != "2024-06-01 14:00:00,12.5,P,55,LMT" {
		t.Errorf("Got row %q", lines[2])
	}
	if lines[3] != "2024-06-01 15:00:00,NaN,M,NaN,M" {
		t.Errorf("Got row %q", lines[3])
	}
}

func TestFrameRoundTrip(t *testing.T) {
	start := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)

	frame := NewFrame(nil)
	frame.AddSeries("WS_ms_Avg", []qc.Result{
		{Obstime: start, Variable: "WS_ms_Avg", Corrected: addr(3.2), Code: qc.PASS},
		{Obstime: start.Add(time.Hour), Variable: "WS_ms_Avg", Corrected: addr(25.0), Code: qc.SPIKE},
		{Obstime: start.Add(2 * time.Hour), Variable: "WS_ms_Avg", Code: qc.NAN},
	})

	path := filepath.Join(t.TempDir(), "clean.csv")
	if err := frame.Write(path); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	series := got.series("WS_ms_Avg")
	if len(series) != 3 {
		t.Fatalf("Got %d results, wanted 3", len(series))
	}

	if series[0].Code != qc.PASS || series[0].Corrected == nil || *series[0].Corrected != 3.2 {
		t.Errorf("Got %+v, wanted a pass with 3.2", series[0])
	}
	if series[1].Code != qc.SPIKE || series[1].Corrected == nil || *series[1].Corrected != 25 {
		t.Errorf("Got %+v, wanted a kept spike of 25", series[1])
	}
	if series[2].Code != qc.NAN || series[2].Corrected != nil {
		t.Errorf("Got %+v, wanted a nullified NAN", series[2])
	}
}

func TestFrameMergeKeepsFirst(t *testing.T) {
	start := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)

	a := NewFrame(nil)
	a.AddSeries("RH", []qc.Result{
		{Obstime: start, Variable: "RH", Corrected: addr(50.0), Code: qc.PASS},
	})

	b := NewFrame(map[string]string{"RH": "%"})
	b.AddSeries("RH", []qc.Result{
		{Obstime: start, Variable: "RH", Corrected: addr(60.0), Code: qc.PASS},
		{Obstime: start.Add(time.Hour), Variable: "RH", Corrected: addr(51.0), Code: qc.PASS},
	})

	dups := a.Merge(b)
	if dups != 1 {
		t.Errorf("Got %d duplicates, wanted 1", dups)
	}

	series := a.series("RH")
	if len(series) != 2 {
		t.Fatalf("Got %d results, wanted 2", len(series))
	}
	if *series[0].Corrected != 50 {
		t.Errorf("Got %v, wanted the first value 50 to win", *series[0].Corrected)
	}
	if a.units["RH"] != "%" {
		t.Error("Merging should adopt units for variables that lack one")
	}
}

func TestFrameRegularize(t *testing.T) {
	start := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)

	frame := NewFrame(nil)
	frame.AddSeries("AirT_C_Avg", []qc.Result{
		{Obstime: start, Variable: "AirT_C_Avg", Corrected: addr(10.0), Code: qc.PASS},
		{Obstime: start.Add(4 * time.Hour), Variable: "AirT_C_Avg", Corrected: addr(11.0), Code: qc.PASS},
	})

	inserted := frame.Regularize(time.Hour)
	if inserted != 3 {
		t.Errorf("Got %d inserted, wanted 3", inserted)
	}
	if frame.Len() != 5 {
		t.Errorf("Got %d rows, wanted 5", frame.Len())
	}

	path := filepath.Join(t.TempDir(), "clean.csv")
	if err := frame.Write(path); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 7 {
		t.Fatalf("Got %d lines, wanted 7", len(lines))
	}
	if !strings.HasSuffix(lines[3], "NaN,M") {
		t.Errorf("Got %q, wanted an inserted row marked missing", lines[3])
	}
}

func TestReadFileBadLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.csv")
	if err := os.WriteFile(path, []byte("a,b,c\n1,2,3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadFile(path); !errors.Is(err, BAD_LAYOUT_ERR) {
		t.Errorf("Got %v, wanted %v", err, BAD_LAYOUT_ERR)
	}
}
