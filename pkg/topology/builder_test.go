package topology

import (
	"testing"

	"github.com/lagos-gis/streetguide/pkg/datastructure"
	"github.com/lagos-gis/streetguide/pkg/geo"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(points ...orb.Point) datastructure.LineFeature {
	return datastructure.LineFeature{Geometry: orb.LineString(points)}
}

// three segments: A-B, B-C and D-E disjoint from the first two
func disjointNetwork() []datastructure.LineFeature {
	return []datastructure.LineFeature{
		line(orb.Point{3.350000, 6.500000}, orb.Point{3.360000, 6.500000}), // A-B
		line(orb.Point{3.360000, 6.500000}, orb.Point{3.370000, 6.510000}), // B-C
		line(orb.Point{3.400000, 6.550000}, orb.Point{3.410000, 6.560000}), // D-E
	}
}

func TestBuildSharedEndpointsMergeIntoOneNode(t *testing.T) {
	nodes, edges := Build(disjointNetwork())

	require.Len(t, nodes, 5)
	require.Len(t, edges, 3)

	// B is shared between the first two segments
	assert.Equal(t, edges[0].Target, edges[1].Source)

	// distinct rounded endpoint values == distinct node ids
	seen := map[[2]float64]int64{}
	for _, n := range nodes {
		seen[[2]float64{n.Lat, n.Lon}] = n.ID
	}
	assert.Len(t, seen, 5)
}

func TestBuildDeterministicAcrossRuns(t *testing.T) {
	nodesOne, edgesOne := Build(disjointNetwork())
	nodesTwo, edgesTwo := Build(disjointNetwork())

	assert.Equal(t, nodesOne, nodesTwo)
	assert.Equal(t, edgesOne, edgesTwo)
}

func TestBuildNodeIDsAreFirstSeenSequential(t *testing.T) {
	nodes, edges := Build(disjointNetwork())

	for i, n := range nodes {
		assert.Equal(t, int64(i+1), n.ID)
	}
	assert.Equal(t, int64(1), edges[0].Source)
	assert.Equal(t, int64(2), edges[0].Target)
	assert.Equal(t, int64(2), edges[1].Source)
	assert.Equal(t, int64(3), edges[1].Target)
	assert.Equal(t, int64(4), edges[2].Source)
	assert.Equal(t, int64(5), edges[2].Target)
}

func TestBuildEdgeIDsMatchInputPosition(t *testing.T) {
	_, edges := Build(disjointNetwork())
	for i, e := range edges {
		assert.Equal(t, int64(i+1), e.ID)
	}
}

func TestBuildCostIsGeographicLength(t *testing.T) {
	lines := disjointNetwork()
	_, edges := Build(lines)

	for i, e := range edges {
		expected := geo.GeometryLength(lines[i].Geometry)
		assert.InDelta(t, expected, e.Cost, 1e-9)
		assert.Equal(t, e.Cost, e.ReverseCost)
		assert.GreaterOrEqual(t, e.Cost, 0.0)
	}
	// sanity: roughly 1.1km for 0.01 degrees of longitude near the equator
	assert.Greater(t, edges[0].Cost, 1000.0)
	assert.Less(t, edges[0].Cost, 1300.0)
}

func TestBuildNilGeometryYieldsExcludedEdge(t *testing.T) {
	lines := []datastructure.LineFeature{
		{Name: "broken"},
		line(orb.Point{3.35, 6.50}, orb.Point{3.36, 6.50}),
	}
	nodes, edges := Build(lines)

	require.Len(t, edges, 2)
	assert.False(t, edges[0].Connectable())
	assert.Equal(t, 0.0, edges[0].Cost)
	assert.Equal(t, int64(1), edges[0].ID)
	assert.Equal(t, "broken", edges[0].Name)

	// the broken line allocates no nodes
	require.Len(t, nodes, 2)
	assert.True(t, edges[1].Connectable())
}

func TestBuildEmptyLineStringYieldsExcludedEdge(t *testing.T) {
	_, edges := Build([]datastructure.LineFeature{
		{Geometry: orb.LineString{}},
	})
	require.Len(t, edges, 1)
	assert.False(t, edges[0].Connectable())
	assert.Equal(t, 0.0, edges[0].Cost)
}

func TestBuildMultiLineStringUsesOuterEndpoints(t *testing.T) {
	geom := orb.MultiLineString{
		{},
		{{3.35, 6.50}, {3.36, 6.50}},
		{{3.36, 6.50}, {3.37, 6.51}},
		{},
	}
	nodes, edges := Build([]datastructure.LineFeature{{Geometry: geom}})

	require.Len(t, edges, 1)
	require.Len(t, nodes, 2)
	assert.Equal(t, int64(1), edges[0].Source)
	assert.Equal(t, int64(2), edges[0].Target)
	assert.InDelta(t, geo.GeometryLength(geom), edges[0].Cost, 1e-9)

	assert.InDelta(t, 6.50, nodes[0].Lat, 1e-9)
	assert.InDelta(t, 3.35, nodes[0].Lon, 1e-9)
	assert.InDelta(t, 6.51, nodes[1].Lat, 1e-9)
	assert.InDelta(t, 3.37, nodes[1].Lon, 1e-9)
}

func TestBuildMultiLineStringAllPartsEmpty(t *testing.T) {
	_, edges := Build([]datastructure.LineFeature{
		{Geometry: orb.MultiLineString{{}, {}}},
	})
	require.Len(t, edges, 1)
	assert.False(t, edges[0].Connectable())
}

func TestBuildSinglePointLineYieldsSelfLoop(t *testing.T) {
	nodes, edges := Build([]datastructure.LineFeature{
		{Geometry: orb.LineString{{3.35, 6.50}}},
	})

	require.Len(t, edges, 1)
	require.Len(t, nodes, 1)
	assert.True(t, edges[0].Connectable())
	assert.Equal(t, edges[0].Source, edges[0].Target)
	assert.Equal(t, 0.0, edges[0].Cost)
}

func TestBuildEndpointsMergeAtPrecision(t *testing.T) {
	// endpoints differ only in the 8th decimal digit: same node
	nodes, edges := Build([]datastructure.LineFeature{
		line(orb.Point{3.35000001, 6.50000001}, orb.Point{3.36, 6.50}),
		line(orb.Point{3.35000002, 6.49999999}, orb.Point{3.37, 6.51}),
	})
	require.Len(t, nodes, 3)
	assert.Equal(t, edges[0].Source, edges[1].Source)
}

func TestBuildEndpointsSplitBeyondPrecision(t *testing.T) {
	// endpoints differ in the 5th decimal digit: separate nodes
	nodes, _ := Build([]datastructure.LineFeature{
		line(orb.Point{3.35001, 6.50}, orb.Point{3.36, 6.50}),
		line(orb.Point{3.35002, 6.50}, orb.Point{3.37, 6.51}),
	})
	assert.Len(t, nodes, 4)
}

func TestBuildConfigurablePrecision(t *testing.T) {
	builder := NewBuilder(2)
	nodes, edges := builder.Build([]datastructure.LineFeature{
		line(orb.Point{3.351, 6.501}, orb.Point{3.449, 6.449}),
		line(orb.Point{3.352, 6.502}, orb.Point{3.37, 6.51}),
	})
	// at two digits both start points collapse to (3.35, 6.50)
	require.Len(t, nodes, 3)
	assert.Equal(t, edges[0].Source, edges[1].Source)
}

func TestBuildDegenerateAfterRounding(t *testing.T) {
	// both endpoints round to the same key: self-loop, non-zero length
	nodes, edges := Build([]datastructure.LineFeature{
		line(orb.Point{3.3500000001, 6.35}, orb.Point{3.3500000002, 6.35}),
	})
	require.Len(t, nodes, 1)
	assert.Equal(t, edges[0].Source, edges[0].Target)
	assert.GreaterOrEqual(t, edges[0].Cost, 0.0)
}
