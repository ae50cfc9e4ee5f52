// Package solar computes the apparent position of the sun from a
// timestamp and station coordinates, following the NOAA general solar
// position formulas (fractional year, equation of time, declination,
// hour angle). The result drives day/night classification for diurnal
// statistics, so it depends on the inputs alone and is reproducible
// across runs.
package solar

import (
	"math"
	"time"
)

type Position struct {
	// Elevation of the sun above the horizon, in degrees.
	// Negative when the sun is below the horizon.
	Elevation float64
	// Declination of the sun, in degrees.
	Declination float64
	// HourAngle of the sun, in degrees, in the range [-180, 180).
	HourAngle float64
}

// IsDay reports whether the sun is above the horizon.
func (p Position) IsDay() bool {
	return p.Elevation > 0
}

// PositionAt computes the solar position at time t for the given
// coordinates. The timestamp is converted to UTC internally; latitude
// and longitude are decimal degrees, north and east positive.
func PositionAt(t time.Time, lat, lon float64) Position {
	utc := t.UTC()

	doy := float64(utc.YearDay())
	hour := float64(utc.Hour()) + float64(utc.Minute())/60 + float64(utc.Second())/3600

	// Fractional year, radians
	gamma := 2 * math.Pi / 365 * (doy - 1 + (hour-12)/24)

	// Equation of time, minutes
	eqtime := 229.18 * (0.000075 +
		0.001868*math.Cos(gamma) -
		0.032077*math.Sin(gamma) -
		0.014615*math.Cos(2*gamma) -
		0.040849*math.Sin(2*gamma))

	// Solar declination, radians
	decl := 0.006918 -
		0.399912*math.Cos(gamma) +
		0.070257*math.Sin(gamma) -
		0.006758*math.Cos(2*gamma) +
		0.000907*math.Sin(2*gamma) -
		0.002697*math.Cos(3*gamma) +
		0.00148*math.Sin(3*gamma)

	// True solar time, minutes since solar midnight.
	// The timezone term is zero since the timestamp is UTC.
	tst := math.Mod(hour*60+eqtime+4*lon, 1440)
	if tst < 0 {
		tst += 1440
	}

	ha := tst/4 - 180

	latRad := lat * math.Pi / 180
	haRad := ha * math.Pi / 180

	cosZenith := math.Sin(latRad)*math.Sin(decl) + math.Cos(latRad)*math.Cos(decl)*math.Cos(haRad)
	// Guard against rounding pushing the cosine out of [-1, 1]
	cosZenith = math.Max(-1, math.Min(1, cosZenith))
	zenith := math.Acos(cosZenith) * 180 / math.Pi

	return Position{
		Elevation:   90 - zenith,
		Declination: decl * 180 / math.Pi,
		HourAngle:   ha,
	}
}
