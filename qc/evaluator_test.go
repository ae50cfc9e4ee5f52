package qc

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestEvaluateHierarchy(t *testing.T) {
	thr := Thresholds{
		HardMin: -5,
		HardMax: 1350,
		Seasonal: map[BinKey]Band{
			{Month: time.June, Daytime: true}:  {SoftMin: 0, SoftMax: 400},
			{Month: time.June, Daytime: false}: {SoftMin: 0, SoftMax: 5},
		},
		Diurnal:  true,
		NightMax: addr(5.0),
	}

	day := time.Date(2024, 6, 21, 20, 0, 0, 0, time.UTC)
	night := time.Date(2024, 6, 21, 9, 0, 0, 0, time.UTC)

	type testCase struct {
		name string
		obs  Observation
		want Code
	}

	cases := []testCase{
		{
			name: "value inside all bands",
			obs:  Observation{Obstime: day, Variable: "SWin_Avg", Value: addr(50.0)},
			want: PASS,
		},
		{
			name: "missing value",
			obs:  Observation{Obstime: day, Variable: "SWin_Avg", Value: nil},
			want: MISSING,
		},
		{
			name: "not a number",
			obs:  Observation{Obstime: day, Variable: "SWin_Avg", Value: addr(math.NaN())},
			want: NAN,
		},
		{
			// NaN wins over the hard-limit check it would also fail
			name: "nan outranks hard failure",
			obs:  Observation{Obstime: night, Variable: "SWin_Avg", Value: addr(math.NaN())},
			want: NAN,
		},
		{
			name: "positive infinity",
			obs:  Observation{Obstime: day, Variable: "SWin_Avg", Value: addr(math.Inf(1))},
			want: INF,
		},
		{
			name: "negative infinity",
			obs:  Observation{Obstime: day, Variable: "SWin_Avg", Value: addr(math.Inf(-1))},
			want: INF,
		},
		{
			name: "above hard maximum",
			obs:  Observation{Obstime: day, Variable: "SWin_Avg", Value: addr(2000.0)},
			want: FAIL,
		},
		{
			name: "below hard minimum",
			obs:  Observation{Obstime: day, Variable: "SWin_Avg", Value: addr(-100.0)},
			want: FAIL,
		},
		{
			// 50 W/m2 with the sun below the horizon breaks the night
			// ceiling of 5 and is a hard failure, while the same
			// reading during the day passes
			name: "radiation at night",
			obs:  Observation{Obstime: night, Variable: "SWin_Avg", Value: addr(50.0)},
			want: FAIL,
		},
		{
			name: "above seasonal band",
			obs:  Observation{Obstime: day, Variable: "SWin_Avg", Value: addr(450.0)},
			want: SOFT,
		},
	}

	for _, c := range cases {
		t.Log("Testing case:", c.name)

		ev := NewEvaluator(&thr, testBinner(), 15*time.Minute)
		res, err := ev.Evaluate(c.obs)
		if err != nil {
			t.Fatal(err)
		}

		if res.Code != c.want {
			t.Errorf("Got %s, wanted %s", res.Code, c.want)
		}
		if res.Code.Nullifies() && res.Corrected != nil {
			t.Errorf("Code %s should nullify the output value", res.Code)
		}
		if !res.Code.Nullifies() && res.Corrected == nil {
			t.Errorf("Code %s should keep the output value", res.Code)
		}
	}
}

func TestEvaluateSpike(t *testing.T) {
	thr := Thresholds{HardMin: -50, HardMax: 60, RateLimit: 5}
	ev := NewEvaluator(&thr, testBinner(), 15*time.Minute)

	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	first, err := ev.Evaluate(Observation{Obstime: start, Variable: "AirT_C_Avg", Value: addr(10.0)})
	if err != nil {
		t.Fatal(err)
	}
	if first.Code != PASS {
		t.Errorf("Got %s, wanted %s", first.Code, PASS)
	}

	// 10 degrees in one step against a limit of 5
	second, err := ev.Evaluate(Observation{
		Obstime:  start.Add(15 * time.Minute),
		Variable: "AirT_C_Avg",
		Value:    addr(20.0),
	})
	if err != nil {
		t.Fatal(err)
	}
	if second.Code != SPIKE {
		t.Errorf("Got %s, wanted %s", second.Code, SPIKE)
	}
	if second.Corrected == nil || *second.Corrected != 20.0 {
		t.Error("A spike keeps its value in the output")
	}
}

func TestEvaluateFlatline(t *testing.T) {
	thr := Thresholds{HardMin: -50, HardMax: 60, FlatlineWindow: 6 * time.Hour}
	ev := NewEvaluator(&thr, testBinner(), time.Hour)

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		res, err := ev.Evaluate(Observation{
			Obstime:  start.Add(time.Duration(i) * time.Hour),
			Variable: "AirT_C_Avg",
			Value:    addr(12.0),
		})
		if err != nil {
			t.Fatal(err)
		}

		want := PASS
		if i == 5 {
			want = FLATLINE
		}
		if res.Code != want {
			t.Errorf("Reading %d: got %s, wanted %s", i+1, res.Code, want)
		}
	}
}

func TestEvaluateIdempotence(t *testing.T) {
	thr := Thresholds{
		HardMin: -50,
		HardMax: 60,
		Seasonal: map[BinKey]Band{
			{Month: time.June, Daytime: true}: {SoftMin: 0, SoftMax: 30},
		},
		RateLimit: 5,
	}
	obs := Observation{
		Obstime:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Variable: "AirT_C_Avg",
		Value:    addr(15.0),
	}

	first, err := NewEvaluator(&thr, testBinner(), 15*time.Minute).Evaluate(obs)
	if err != nil {
		t.Fatal(err)
	}
	if first.Code != PASS {
		t.Fatalf("Got %s, wanted %s", first.Code, PASS)
	}

	// Feeding the accepted output back in yields the same flag
	again := Observation{Obstime: obs.Obstime, Variable: obs.Variable, Value: first.Corrected}
	second, err := NewEvaluator(&thr, testBinner(), 15*time.Minute).Evaluate(again)
	if err != nil {
		t.Fatal(err)
	}
	if second.Code != PASS {
		t.Errorf("Got %s on re-evaluation, wanted %s", second.Code, PASS)
	}
}

func TestEvaluateInvalidTimestamp(t *testing.T) {
	thr := Thresholds{HardMin: -50, HardMax: 60}
	ev := NewEvaluator(&thr, testBinner(), 15*time.Minute)

	local := time.Date(2024, 6, 1, 12, 0, 0, 0, time.FixedZone("PDT", -7*3600))
	res, err := ev.Evaluate(Observation{Obstime: local, Variable: "AirT_C_Avg", Value: addr(15.0)})

	if !errors.Is(err, INVALID_TIMESTAMP_ERR) {
		t.Errorf("Got %v, wanted %v", err, INVALID_TIMESTAMP_ERR)
	}
	if res.Code != MISSING {
		t.Errorf("Got %s, wanted a %s placeholder", res.Code, MISSING)
	}
	if res.Corrected != nil {
		t.Error("An invalid timestamp should nullify the output value")
	}
	if res.Original == nil {
		t.Error("The original value should be preserved for the audit trail")
	}
}
