package geo

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

const (
	earthRadiusM = 6371007.0
)

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

func degreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

// CalculateHaversineDistance returns the great-circle distance between
// two coordinates in meters.
func CalculateHaversineDistance(latOne, longOne, latTwo, longTwo float64) float64 {
	latOne = degreeToRadians(latOne)
	longOne = degreeToRadians(longOne)
	latTwo = degreeToRadians(latTwo)
	longTwo = degreeToRadians(longTwo)

	a := havFunction(latOne-latTwo) + math.Cos(latOne)*math.Cos(latTwo)*havFunction(longOne-longTwo)
	c := 2.0 * math.Asin(math.Sqrt(a))
	return earthRadiusM * c
}

// GeodesicDistance returns the distance over the earth's surface between
// two points in meters, computed on the s2 sphere. Used for the
// straight-line routing fallback.
func GeodesicDistance(a, b orb.Point) float64 {
	llA := s2.LatLngFromDegrees(a.Lat(), a.Lon())
	llB := s2.LatLngFromDegrees(b.Lat(), b.Lon())
	return llA.Distance(llB).Radians() * earthRadiusM
}

// LineLength returns the geographic length of a line in meters, the sum
// of great-circle distances between consecutive points.
func LineLength(line orb.LineString) float64 {
	total := 0.0
	if len(line) < 2 {
		return total
	}
	for i := 1; i < len(line); i++ {
		total += CalculateHaversineDistance(line[i-1].Lat(), line[i-1].Lon(), line[i].Lat(), line[i].Lon())
	}
	return total
}

// GeometryLength returns the geographic length of a LineString or
// MultiLineString in meters. Any other geometry has length 0.
func GeometryLength(geom orb.Geometry) float64 {
	switch g := geom.(type) {
	case orb.LineString:
		return LineLength(g)
	case orb.MultiLineString:
		total := 0.0
		for _, part := range g {
			total += LineLength(part)
		}
		return total
	default:
		return 0
	}
}
