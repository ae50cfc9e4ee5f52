package qc

import (
	"errors"
	"fmt"
	"time"

	"obsqc/solar"
)

var INVALID_TIMESTAMP_ERR error = errors.New("Timestamp is missing or not normalized to UTC")

// BinKey identifies the (month, day/night) group that seasonal
// statistics are computed over. Variables without a diurnal split
// always use the day key, giving twelve bins instead of twenty-four.
type BinKey struct {
	Month   time.Month
	Daytime bool
}

func (k BinKey) String() string {
	half := "night"
	if k.Daytime {
		half = "day"
	}
	return fmt.Sprintf("%s %s", k.Month.String()[:3], half)
}

// Binner assigns timestamps to bin keys using the coordinates of one
// station. Day and night membership has to be reproducible between
// evaluation and threshold rebuilds, so the key depends only on the
// timestamp and the coordinates.
type Binner struct {
	Lat float64
	Lon float64
}

// Key returns the bin for time t. Timestamps must already be
// normalized to UTC, binning on local clock time shifts the day/night
// boundary by the station's UTC offset and corrupts the diurnal
// statistics.
func (b *Binner) Key(t time.Time, diurnal bool) (BinKey, error) {
	if t.IsZero() {
		return BinKey{}, INVALID_TIMESTAMP_ERR
	}
	if _, offset := t.Zone(); offset != 0 {
		return BinKey{}, fmt.Errorf("%w: %s", INVALID_TIMESTAMP_ERR, t.Format(time.RFC3339))
	}

	day := true
	if diurnal {
		day = solar.PositionAt(t, b.Lat, b.Lon).IsDay()
	}
	return BinKey{Month: t.Month(), Daytime: day}, nil
}
