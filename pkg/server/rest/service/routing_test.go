package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lagos-gis/streetguide/pkg/datastructure"
	"github.com/lagos-gis/streetguide/pkg/engine/routingalgorithm"
	"github.com/lagos-gis/streetguide/pkg/geo"
	"github.com/lagos-gis/streetguide/pkg/snap"
	"github.com/lagos-gis/streetguide/pkg/topology"
	"github.com/lagos-gis/streetguide/pkg/util"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pointA = orb.Point{3.350000, 6.500000}
	pointB = orb.Point{3.360000, 6.500000}
	pointC = orb.Point{3.370000, 6.510000}
	pointD = orb.Point{3.400000, 6.550000}
	pointE = orb.Point{3.410000, 6.560000}
)

type fakeFacilityFinder struct {
	facility *datastructure.Facility
	err      error
}

func (f *fakeFacilityFinder) NearestFeature(ctx context.Context, c datastructure.Coordinate, category string) (*datastructure.Facility, error) {
	return f.facility, f.err
}

// builds the A-B, B-C, D-E network from real components: topology
// builder, graph, r-tree snapping and dijkstra
func newTestService(facilities FacilityFinder) (*RoutingService, *datastructure.Graph) {
	lines := []datastructure.LineFeature{
		{Name: "AB", Geometry: orb.LineString{pointA, pointB}},
		{Name: "BC", Geometry: orb.LineString{pointB, pointC}},
		{Name: "DE", Geometry: orb.LineString{pointD, pointE}},
	}
	nodes, edges := topology.Build(lines)
	graph := datastructure.NewGraph(nodes, edges)
	idx := snap.NewVertexIndex(graph)
	ra := routingalgorithm.NewRouteAlgorithm(graph)
	return NewRoutingService(idx, ra, facilities), graph
}

func coord(p orb.Point) datastructure.Coordinate {
	return datastructure.CoordinateFromPoint(p)
}

func TestRouteAcrossConnectedComponent(t *testing.T) {
	svc, _ := newTestService(&fakeFacilityFinder{})

	result, err := svc.Route(context.Background(), coord(pointA), coord(pointC))
	require.NoError(t, err)
	require.Equal(t, datastructure.ModeNetwork, result.Mode)
	require.Len(t, result.Edges, 2)

	sum := 0.0
	for _, e := range result.Edges {
		sum += e.Cost
	}
	assert.InDelta(t, sum, result.Distance, 1e-9)

	// stitched geometry runs A -> B -> C
	require.NotEmpty(t, result.Geometry)
	assert.Equal(t, pointA, result.Geometry[0])
	assert.Equal(t, pointC, result.Geometry[len(result.Geometry)-1])
	assert.NotEmpty(t, result.Polyline)
}

func TestRouteSnapsOffNetworkCoordinates(t *testing.T) {
	svc, _ := newTestService(&fakeFacilityFinder{})

	// slightly off the vertices, still snaps to A and C
	result, err := svc.Route(context.Background(),
		datastructure.NewCoordinate(6.5002, 3.3498),
		datastructure.NewCoordinate(6.5101, 3.3702))
	require.NoError(t, err)
	assert.Equal(t, datastructure.ModeNetwork, result.Mode)
	assert.Len(t, result.Edges, 2)
}

func TestRouteDisconnectedReturnsEmpty(t *testing.T) {
	svc, _ := newTestService(&fakeFacilityFinder{})

	result, err := svc.Route(context.Background(), coord(pointA), coord(pointD))
	require.NoError(t, err)
	assert.Equal(t, datastructure.ModeEmpty, result.Mode)
	assert.False(t, result.Found())
}

func TestRouteEmptyGraphReturnsEmpty(t *testing.T) {
	graph := datastructure.NewGraph(nil, nil)
	svc := NewRoutingService(snap.NewVertexIndex(graph), routingalgorithm.NewRouteAlgorithm(graph), &fakeFacilityFinder{})

	result, err := svc.Route(context.Background(), coord(pointA), coord(pointC))
	require.NoError(t, err)
	assert.Equal(t, datastructure.ModeEmpty, result.Mode)
}

func TestNearestFacilityNoMatchReturnsEmpty(t *testing.T) {
	svc, _ := newTestService(&fakeFacilityFinder{facility: nil})

	result, err := svc.NearestFacility(context.Background(), coord(pointA), "Hospital")
	require.NoError(t, err)
	assert.Equal(t, datastructure.ModeEmpty, result.Mode)
	assert.Nil(t, result.Facility)
}

func TestNearestFacilityConnectedUsesNetwork(t *testing.T) {
	facility := &datastructure.Facility{
		Name:     "General Hospital",
		Category: "Hospital",
		Location: coord(pointC),
	}
	svc, _ := newTestService(&fakeFacilityFinder{facility: facility})

	result, err := svc.NearestFacility(context.Background(), coord(pointA), "Hospital")
	require.NoError(t, err)
	require.Equal(t, datastructure.ModeNetwork, result.Mode)
	require.NotNil(t, result.Facility)
	assert.Equal(t, "General Hospital", result.Facility.Name)

	expectedMsg := fmt.Sprintf("Road Distance: %dm", util.RoundToMeter(result.Distance))
	assert.Equal(t, expectedMsg, result.Message)
}

func TestNearestFacilityDisconnectedFallsBackToStraightLine(t *testing.T) {
	facility := &datastructure.Facility{
		Name:     "Ikate Market",
		Category: "Market",
		Location: coord(pointE),
	}
	svc, _ := newTestService(&fakeFacilityFinder{facility: facility})

	origin := coord(pointA)
	result, err := svc.NearestFacility(context.Background(), origin, "Market")
	require.NoError(t, err)
	require.Equal(t, datastructure.ModeStraightLine, result.Mode)

	expectedDist := geo.GeodesicDistance(origin.Point(), pointE)
	assert.InDelta(t, expectedDist, result.Distance, 1e-9)
	expectedMsg := fmt.Sprintf("Straight Distance: %dm (No road path)", util.RoundToMeter(expectedDist))
	assert.Equal(t, expectedMsg, result.Message)

	require.Len(t, result.Geometry, 2)
	assert.Equal(t, origin.Point(), result.Geometry[0])
	assert.Equal(t, pointE, result.Geometry[1])
	require.NotNil(t, result.Facility)
	assert.Equal(t, "Ikate Market", result.Facility.Name)
}

func TestNearestFacilityCollaboratorFailureIsFatal(t *testing.T) {
	svc, _ := newTestService(&fakeFacilityFinder{err: errors.New("db down")})

	_, err := svc.NearestFacility(context.Background(), coord(pointA), "Bank")
	require.Error(t, err)
}

func TestScenarioFiveNodesThreeEdges(t *testing.T) {
	_, graph := newTestService(&fakeFacilityFinder{})

	assert.Equal(t, 5, graph.NumNodes())
	assert.Equal(t, 3, graph.NumEdges())
}
