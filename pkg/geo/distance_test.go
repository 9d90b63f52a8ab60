package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestCalculateHaversineDistance(t *testing.T) {
	// Lagos National Stadium to Teslim Balogun Stadium, roughly 500m
	d := CalculateHaversineDistance(6.498146, 3.362944, 6.495050, 3.366086)
	assert.InDelta(t, 490, d, 60)

	assert.Equal(t, 0.0, CalculateHaversineDistance(6.5, 3.35, 6.5, 3.35))
}

func TestGeodesicDistanceMatchesHaversine(t *testing.T) {
	a := orb.Point{3.362944, 6.498146}
	b := orb.Point{3.366086, 6.495050}

	s2Dist := GeodesicDistance(a, b)
	havDist := CalculateHaversineDistance(a.Lat(), a.Lon(), b.Lat(), b.Lon())
	assert.InDelta(t, havDist, s2Dist, 1.0)
}

func TestLineLength(t *testing.T) {
	ls := orb.LineString{{3.35, 6.50}, {3.36, 6.50}, {3.36, 6.51}}
	expected := CalculateHaversineDistance(6.50, 3.35, 6.50, 3.36) +
		CalculateHaversineDistance(6.50, 3.36, 6.51, 3.36)
	assert.InDelta(t, expected, LineLength(ls), 1e-9)

	assert.Equal(t, 0.0, LineLength(orb.LineString{}))
	assert.Equal(t, 0.0, LineLength(orb.LineString{{3.35, 6.50}}))
}

func TestGeometryLength(t *testing.T) {
	single := orb.LineString{{3.35, 6.50}, {3.36, 6.50}}
	multi := orb.MultiLineString{
		{{3.35, 6.50}, {3.36, 6.50}},
		{{3.36, 6.50}, {3.36, 6.51}},
	}

	assert.InDelta(t, LineLength(single), GeometryLength(single), 1e-9)
	assert.InDelta(t, LineLength(multi[0])+LineLength(multi[1]), GeometryLength(multi), 1e-9)
	assert.Equal(t, 0.0, GeometryLength(orb.Point{3.35, 6.50}))
	assert.Equal(t, 0.0, GeometryLength(nil))
}
