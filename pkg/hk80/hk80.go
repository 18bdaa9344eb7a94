// Package hk80 converts Hong Kong 1980 Grid System coordinates
// (EPSG:2326) into WGS84 latitude and longitude.
//
// The conversion is the inverse Transverse Mercator projection on the
// International 1924 ellipsoid followed by the simplified HK80 to WGS84
// datum shift published by the Lands Department. The error of the
// shift is about one metre, good enough for stop locations.
package hk80

import "math"

const (
	// semi-major axis of International 1924 ellipsoid
	a = 6378388.0
	// first eccentricity squared
	e2 = 6.722670022e-3

	northing0 = 819069.80
	easting0  = 836694.05
	// scale factor on the central meridian
	m0 = 1.0

	// datum shift in arc seconds
	shiftLat = -5.5
	shiftLon = 8.8
)

var (
	lat0 = dms(22, 18, 43.68)
	lon0 = dms(114, 10, 42.80)

	a0 = 1 - e2/4 - 3*e2*e2/64
	a2 = 3.0 / 8.0 * (e2 + e2*e2/4)
	a4 = 15.0 / 256.0 * e2 * e2

	meridian0 = meridian(lat0)
)

func dms(d, m, s float64) float64 {
	return (d + m/60 + s/3600) * math.Pi / 180
}

// meridian is the meridian distance from the equator to latitude phi.
func meridian(phi float64) float64 {
	return a * (a0*phi - a2*math.Sin(2*phi) + a4*math.Sin(4*phi))
}

// ToWGS84 converts HK80 easting (x) and northing (y) in metres into WGS84
// latitude and longitude in degrees.
func ToWGS84(x, y float64) (lat, lon float64) {
	dE := x - easting0
	dN := y - northing0

	m := dN/m0 + meridian0

	// latitude of the foot point
	phi := m / (a * a0)
	for range 20 {
		next := phi + (m-meridian(phi))/(a*a0)
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}

	sin := math.Sin(phi)
	w := 1 - e2*sin*sin
	nu := a / math.Sqrt(w)
	rho := a * (1 - e2) / math.Pow(w, 1.5)
	psi := nu / rho
	t := math.Tan(phi)
	cos := math.Cos(phi)

	latR := phi - (t/(m0*rho))*(dE*dE/(2*m0*nu))
	lonR := lon0 + dE/(m0*nu*cos) -
		math.Pow(dE, 3)/(6*math.Pow(m0, 3)*math.Pow(nu, 3)*cos)*(psi+2*t*t)

	lat = latR*180/math.Pi + shiftLat/3600
	lon = lonR*180/math.Pi + shiftLon/3600
	return lat, lon
}

// Valid reports if grid coordinates are inside the area covered by the
// HK80 grid with a generous margin.
func Valid(x, y float64) bool {
	return x > 780000 && x < 880000 && y > 790000 && y < 860000
}
