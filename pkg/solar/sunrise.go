package solar

import (
	"math"
	"time"
)

// Daylight holds sunrise and sunset for one UTC calendar day. Both are zero
// with Polar set when the sun never rises or never sets on that day.
type Daylight struct {
	Date    time.Time
	Sunrise time.Time
	Sunset  time.Time
	Polar   bool
}

// CalculateDaylight returns sunrise and sunset (UTC) for the UTC date of day at
// the given latitude and longitude.
func CalculateDaylight(day time.Time, latitude, longitude float64) Daylight {
	day = day.UTC()
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	d := Daylight{Date: midnight}

	// Solar declination, the angle between the Sun and the celestial equator
	doy := float64(day.YearDay())
	innerAngle := (356.6 + 0.9856*doy) * (math.Pi / 180.0)
	outerAngle := (278.97 + 0.9856*doy + 1.9165*math.Sin(innerAngle)) * (math.Pi / 180.0)
	declinationRad := math.Asin(0.39785 * math.Sin(outerAngle))

	latRad := latitude * (math.Pi / 180.0)

	// At sunrise/sunset the sun is at the horizon: cos(H) = -tan(lat) * tan(declination)
	cosH := -math.Tan(latRad) * math.Tan(declinationRad)
	if cosH < -1.0 || cosH > 1.0 {
		// Midnight sun or polar night
		d.Polar = true
		return d
	}

	hourAngleMinutes := math.Acos(cosH) * (180.0 / math.Pi) * 4.0 // 4 minutes per degree

	// Solar noon in UTC minutes from midnight, adjusted for longitude and equation of time
	noon := midnight.Add(12 * time.Hour)
	solarNoonUTC := 720.0 - longitude*4.0 - equationOfTime(noon)

	d.Sunrise = midnight.Add(time.Duration((solarNoonUTC - hourAngleMinutes) * float64(time.Minute))).Round(time.Minute)
	d.Sunset = midnight.Add(time.Duration((solarNoonUTC + hourAngleMinutes) * float64(time.Minute))).Round(time.Minute)

	return d
}

// DayLength returns the time between sunrise and sunset
func (d Daylight) DayLength() time.Duration {
	if d.Polar {
		return 0
	}
	return d.Sunset.Sub(d.Sunrise)
}
