// Package solar derives the sun's horizontal coordinates for an instant and
// a geographic location, using the meeus ephemeris routines.
package solar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"

	"github.com/cityscale/shadowcast/internal/domain/model"
)

const radToDeg = 180 / math.Pi

// Position returns the sun's apparent azimuth and elevation as seen from the
// given latitude and longitude at time t. Azimuth is compass degrees
// clockwise from north in [0, 360); elevation is geometric, without
// atmospheric refraction. East longitudes are positive.
func Position(t time.Time, latDeg, lonDeg float64) model.SunPosition {
	jd := julian.TimeToJD(t.UTC())

	ra, dec := solar.ApparentEquatorial(jd)

	// Local apparent sidereal time, then the sun's hour angle.
	lst := sidereal.Apparent0UT(jd).Angle() + unit.AngleFromDeg(lonDeg)
	ha := (lst - unit.Angle(ra)).Mod1()

	lat := unit.AngleFromDeg(latDeg)

	sinEl := dec.Sin()*lat.Sin() + dec.Cos()*lat.Cos()*ha.Cos()
	el := math.Asin(clamp1(sinEl))

	// Meeus measures azimuth from south, westward positive; shift to a
	// compass bearing from north.
	az := math.Atan2(ha.Sin(), ha.Cos()*lat.Sin()-dec.Tan()*lat.Cos())
	az += math.Pi
	az = math.Mod(az, 2*math.Pi)
	if az < 0 {
		az += 2 * math.Pi
	}

	return model.SunPosition{
		AzimuthDeg:   az * radToDeg,
		ElevationDeg: el * radToDeg,
	}
}

func clamp1(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
