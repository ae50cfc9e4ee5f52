package threshold

import (
	"errors"
	"testing"
	"time"

	"obsqc/qc"
)

func testBuilder() Builder {
	return Builder{
		Station: "fin01",
		Binner:  &qc.Binner{Lat: 53.7217, Lon: -125.6417},
		Step:    time.Hour,
		Opts:    DefaultOptions(),
	}
}

func TestBuilderBuild(t *testing.T) {
	b := testBuilder()

	// Two readings per June day, one step apart, rising by 0.5 within the day
	baseline := &Baseline{Variable: "AirT_C_Avg"}
	for day := 1; day <= 30; day++ {
		base := 10 + float64(day)*0.1
		baseline.AddSample(time.Date(2024, 6, day, 20, 0, 0, 0, time.UTC), base)
		baseline.AddSample(time.Date(2024, 6, day, 21, 0, 0, 0, time.UTC), base+0.5)
	}

	configs := []VariableConfig{{Name: "AirT_C_Avg", HardMin: -50, HardMax: 60}}
	set, err := b.Build(configs, map[string]*Baseline{"AirT_C_Avg": baseline})
	if err != nil {
		t.Fatal(err)
	}

	if set.Station != "fin01" || set.Version == "" {
		t.Error("Set should carry the station name and a version")
	}

	thr, ok := set.For("AirT_C_Avg")
	if !ok {
		t.Fatal("Missing thresholds for AirT_C_Avg")
	}

	band, ok := thr.Seasonal[qc.BinKey{Month: time.June, Daytime: true}]
	if !ok {
		t.Fatal("Missing June band")
	}
	if band.SoftMin < 10 || band.SoftMax > 14.1 || band.SoftMin >= band.SoftMax {
		t.Errorf("Got band [%v, %v], wanted it inside the sample spread", band.SoftMin, band.SoftMax)
	}

	if thr.RateLimit != 0.5 {
		t.Errorf("Got rate limit %v, wanted 0.5 from the consecutive pairs", thr.RateLimit)
	}
}

func TestBuilderWindowTrim(t *testing.T) {
	b := testBuilder()

	// Thirty recent June days plus a block of stale samples far
	// outside the three year window
	baseline := &Baseline{Variable: "AirT_C_Avg"}
	for day := 1; day <= 30; day++ {
		baseline.AddSample(time.Date(2024, 6, day, 20, 0, 0, 0, time.UTC), 10+float64(day)*0.1)
		baseline.AddSample(time.Date(2019, 6, day, 20, 0, 0, 0, time.UTC), 1500)
	}

	configs := []VariableConfig{{Name: "AirT_C_Avg", HardMin: -50, HardMax: 2000}}
	set, err := b.Build(configs, map[string]*Baseline{"AirT_C_Avg": baseline})
	if err != nil {
		t.Fatal(err)
	}

	thr, _ := set.For("AirT_C_Avg")
	band := thr.SoftBand(qc.BinKey{Month: time.June, Daytime: true})
	if band.SoftMax > 100 {
		t.Errorf("Got band max %v, stale samples should not shape the bands", band.SoftMax)
	}
}

func TestBuilderInsufficientHistory(t *testing.T) {
	b := testBuilder()

	baseline := &Baseline{Variable: "RH"}
	for i := 0; i < 10; i++ {
		baseline.AddSample(time.Date(2024, 6, 1+i, 20, 0, 0, 0, time.UTC), 50)
	}

	configs := []VariableConfig{{Name: "RH", HardMin: 0, HardMax: 100}}
	set, err := b.Build(configs, map[string]*Baseline{"RH": baseline})
	if err != nil {
		t.Fatal(err)
	}

	thr, _ := set.For("RH")
	band := thr.SoftBand(qc.BinKey{Month: time.June, Daytime: true})
	if band.SoftMin != 0 || band.SoftMax != 100 {
		t.Errorf("Got [%v, %v], wanted hard limit fallback for a thin bin", band.SoftMin, band.SoftMax)
	}
}

func TestBuilderRateOverride(t *testing.T) {
	b := testBuilder()

	configs := []VariableConfig{{Name: "WS_ms_Avg", HardMin: 0, HardMax: 70, RateLimit: addr(5.0)}}
	set, err := b.Build(configs, nil)
	if err != nil {
		t.Fatal(err)
	}

	thr, _ := set.For("WS_ms_Avg")
	if thr.RateLimit != 5 {
		t.Errorf("Got %v, wanted the configured override 5", thr.RateLimit)
	}
}

func TestBuilderSnowFree(t *testing.T) {
	b := testBuilder()

	configs := []VariableConfig{{
		Name:           "DBTCDT_Avg",
		HardMin:        0,
		HardMax:        3,
		SnowFreeMonths: []time.Month{time.June, time.July, time.August, time.September},
		SnowFreeMax:    0.05,
	}}

	set, err := b.Build(configs, nil)
	if err != nil {
		t.Fatal(err)
	}

	thr, _ := set.For("DBTCDT_Avg")
	summer := thr.SoftBand(qc.BinKey{Month: time.July, Daytime: true})
	if summer.SoftMin != 0 || summer.SoftMax != 0.05 {
		t.Errorf("Got [%v, %v], wanted the snow free band [0, 0.05]", summer.SoftMin, summer.SoftMax)
	}

	winter := thr.SoftBand(qc.BinKey{Month: time.January, Daytime: true})
	if winter.SoftMax != 3 {
		t.Errorf("Got %v, wanted the hard fallback outside the snow free months", winter.SoftMax)
	}
}

func TestBuilderRejectsMalformedConfig(t *testing.T) {
	b := testBuilder()

	configs := []VariableConfig{{Name: "RH", HardMin: 100, HardMax: 0}}
	if _, err := b.Build(configs, nil); !errors.Is(err, qc.MALFORMED_THRESHOLDS_ERR) {
		t.Errorf("Got %v, wanted %v", err, qc.MALFORMED_THRESHOLDS_ERR)
	}
}
