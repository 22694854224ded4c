package solver

import (
	"math"

	"github.com/gnssrx/gnssrx/internal/navigation"
)

// earthMuGPS is the GPS-specific WGS-84 earth gravitational constant
// used by the broadcast-ephemeris orbit model (ICD-200), distinct from
// the general WGS-84 value.
const earthMuGPS = 3.9860058e14

// earthRotationRate is the WGS-84 value of the earth's rotation rate,
// radians/second.
const earthRotationRate = 7.2921151467e-5

// maxKeplerIter bounds Newton's-method iteration on Kepler's equation
// (spec.md §4.5/§8 E4: cap at 30 iterations, converge to 1e-14).
const maxKeplerIter = 30

// eccentricAnomaly solves Kepler's equation M = E - e*sin(E) for E via
// Newton's method, given the ephemeris's mean-motion correction and a
// time-since-toe tk (seconds), ground-truthed against
// original_source's get_eccentric_anomaly.
func eccentricAnomaly(eph navigation.Ephemeris, tk float64) float64 {
	n0 := math.Sqrt(earthMuGPS / (eph.A * eph.A * eph.A))
	n := n0 + eph.DeltaN
	mk := eph.M0 + n*tk

	e := mk
	ek := 0.0
	for iter := 0; math.Abs(e-ek) > 1e-14 && iter < maxKeplerIter; iter++ {
		ek = e
		e = e + (mk-e+eph.Ecc*math.Sin(e))/(1-eph.Ecc*math.Cos(e))
	}
	return e
}

// svPositionECEF computes an SV's ECEF position at GPS time tGpst
// (seconds) from its ephemeris, per spec.md §4.5, ground-truthed against
// original_source's compute_sv_position_ecef line for line.
func svPositionECEF(eph navigation.Ephemeris, tGpst float64) (x, y, z float64) {
	tk := tGpst - eph.ToeGpst
	if tk > 302400 {
		tk -= 604800
	}
	if tk < -302400 {
		tk += 604800
	}

	e := eccentricAnomaly(eph, tk)
	vk := math.Atan2(math.Sqrt(1-eph.Ecc*eph.Ecc)*math.Sin(e), math.Cos(e)-eph.Ecc)

	phik := vk + eph.Omega
	sin2phi, cos2phi := math.Sin(2*phik), math.Cos(2*phik)
	duk := eph.Cus*sin2phi + eph.Cuc*cos2phi
	drk := eph.Crs*sin2phi + eph.Crc*cos2phi
	dik := eph.Cis*sin2phi + eph.Cic*cos2phi

	uk := phik + duk
	rk := eph.A*(1-eph.Ecc*math.Cos(e)) + drk
	ik := eph.I0 + eph.IDot*tk + dik

	orbPlaneX := rk * math.Cos(uk)
	orbPlaneY := rk * math.Sin(uk)

	omega := eph.Omega0 + (eph.OmegaDot-earthRotationRate)*tk - earthRotationRate*float64(eph.Toe)
	sinOmega, cosOmega := math.Sin(omega), math.Cos(omega)
	sinI, cosI := math.Sin(ik), math.Cos(ik)

	x = orbPlaneX*cosOmega - orbPlaneY*cosI*sinOmega
	y = orbPlaneX*sinOmega + orbPlaneY*cosI*cosOmega
	z = orbPlaneY * sinI
	return x, y, z
}
