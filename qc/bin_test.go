package qc

import (
	"errors"
	"testing"
	"time"
)

func testBinner() *Binner {
	return &Binner{Lat: 53.7217, Lon: -125.6417}
}

func TestBinnerRequiresUTC(t *testing.T) {
	type testCase struct {
		name string
		time time.Time
		ok   bool
	}

	cases := []testCase{
		{
			name: "utc timestamp",
			time: time.Date(2024, 6, 21, 20, 0, 0, 0, time.UTC),
			ok:   true,
		},
		{
			name: "zero offset zone",
			time: time.Date(2024, 6, 21, 20, 0, 0, 0, time.FixedZone("", 0)),
			ok:   true,
		},
		{
			name: "local clock time",
			time: time.Date(2024, 6, 21, 13, 0, 0, 0, time.FixedZone("PDT", -7*3600)),
			ok:   false,
		},
		{
			name: "zero timestamp",
			time: time.Time{},
			ok:   false,
		},
	}

	binner := testBinner()
	for _, c := range cases {
		t.Log("Testing case:", c.name)

		_, err := binner.Key(c.time, true)
		if c.ok && err != nil {
			t.Errorf("Got unexpected error: %v", err)
		}
		if !c.ok && !errors.Is(err, INVALID_TIMESTAMP_ERR) {
			t.Errorf("Got %v, wanted %v", err, INVALID_TIMESTAMP_ERR)
		}
	}
}

func TestBinnerKey(t *testing.T) {
	// Local solar noon at the station is around 20:22 UTC, with the
	// summer night roughly between 05:00 and 12:00 UTC
	day := time.Date(2024, 6, 21, 20, 0, 0, 0, time.UTC)
	night := time.Date(2024, 6, 21, 9, 0, 0, 0, time.UTC)

	type testCase struct {
		name    string
		time    time.Time
		diurnal bool
		want    BinKey
	}

	cases := []testCase{
		{
			name:    "summer day",
			time:    day,
			diurnal: true,
			want:    BinKey{Month: time.June, Daytime: true},
		},
		{
			name:    "summer night",
			time:    night,
			diurnal: true,
			want:    BinKey{Month: time.June, Daytime: false},
		},
		{
			name:    "night folded for non-diurnal variable",
			time:    night,
			diurnal: false,
			want:    BinKey{Month: time.June, Daytime: true},
		},
	}

	binner := testBinner()
	for _, c := range cases {
		t.Log("Testing case:", c.name)

		key, err := binner.Key(c.time, c.diurnal)
		if err != nil {
			t.Fatal(err)
		}
		if key != c.want {
			t.Errorf("Got %v, wanted %v", key, c.want)
		}
	}
}

func TestBinKeyString(t *testing.T) {
	key := BinKey{Month: time.April, Daytime: false}
	if key.String() != "Apr night" {
		t.Errorf("Got %q, wanted \"Apr night\"", key.String())
	}
}
