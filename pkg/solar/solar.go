// Package solar estimates clear-sky global radiation.
package solar

import (
	"math"
	"time"
)

// solarConstant in W/m²
const solarConstant = 1361.0

// step is the integration step of DailyRadiation
const step = 10 * time.Minute

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// equationOfTime returns the equation of time in minutes
func equationOfTime(t time.Time) float64 {
	b := degToRad(360.0 / 365.0 * float64(t.YearDay()-81))
	return 9.87*math.Sin(2*b) - 7.53*math.Cos(b) - 1.5*math.Sin(b)
}

// Site is a location on the ground. Altitude is in metres.
type Site struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Altitude  float64 `yaml:"altitude"`
}

// zenith returns the solar zenith angle at t in degrees
func (s Site) zenith(t time.Time) float64 {
	n := float64(t.YearDay())
	decl := degToRad(23.45 * math.Sin(degToRad(360.0/365.0*(n-81))))

	utcMin := float64(t.Hour()*60+t.Minute()) + float64(t.Second())/60
	tst := utcMin + 4*s.Longitude + equationOfTime(t)
	hour := degToRad(tst/4 - 180)

	lat := degToRad(s.Latitude)
	cosZ := math.Sin(lat)*math.Sin(decl) + math.Cos(lat)*math.Cos(decl)*math.Cos(hour)
	return radToDeg(math.Acos(math.Max(-1, math.Min(1, cosZ))))
}

// GHI returns the Ineichen-Perez clear-sky global horizontal irradiance at t,
// in W/m². It is 0 while the sun is below the horizon.
func (s Site) GHI(t time.Time) float64 {
	thetaZ := s.zenith(t)
	if thetaZ >= 90 {
		return 0
	}
	n := float64(t.YearDay())
	g0 := solarConstant * (1 + 0.033*math.Cos(degToRad(360*(n-3)/365)))

	const linke = 2.0
	// Kasten-Young air mass
	am := 1 / (math.Cos(degToRad(thetaZ)) + 0.50572*math.Pow(96.07995-thetaZ, -1.6364))
	dni := g0 * 0.7 * math.Exp(-0.027*am*linke*math.Exp(-s.Altitude/8000))
	fh := 0.1 + 0.05*math.Sin(math.Pi*(n-100)/365)
	dhi := fh * g0 * math.Sin(degToRad(thetaZ))
	return dni*math.Cos(degToRad(thetaZ)) + dhi
}

// DailyRadiation integrates GHI over the UTC day containing day and returns
// the clear-sky global radiation in MJ/m²/day.
func (s Site) DailyRadiation(day time.Time) float64 {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	var joules float64
	for t := start.Add(step / 2); t.Before(start.AddDate(0, 0, 1)); t = t.Add(step) {
		joules += s.GHI(t) * step.Seconds()
	}
	return joules / 1e6
}
