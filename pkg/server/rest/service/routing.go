package service

import (
	"context"
	"fmt"

	"github.com/lagos-gis/streetguide/pkg/datastructure"
	"github.com/lagos-gis/streetguide/pkg/geo"
	"github.com/lagos-gis/streetguide/pkg/server"
	"github.com/lagos-gis/streetguide/pkg/util"

	"github.com/paulmach/orb"
)

// VertexSnapper maps an arbitrary coordinate to its nearest graph
// vertex. ok is false only when the graph has no vertices.
type VertexSnapper interface {
	NearestVertex(c datastructure.Coordinate) (datastructure.Node, bool)
}

// ShortestPath is the path-search collaborator. found=false means the
// two vertices are disconnected, which is a definite answer.
type ShortestPath interface {
	ShortestPath(from, to int64) ([]datastructure.Edge, float64, bool)
}

// FacilityFinder locates the geometrically nearest point of interest of
// a category. A nil facility with nil error means no match exists.
type FacilityFinder interface {
	NearestFeature(ctx context.Context, c datastructure.Coordinate, category string) (*datastructure.Facility, error)
}

// RoutingService answers point-to-point and nearest-facility routing
// queries over the read-only road graph. Every query is stateless;
// concurrent requests share only the injected collaborators.
type RoutingService struct {
	snapper    VertexSnapper
	router     ShortestPath
	facilities FacilityFinder
}

func NewRoutingService(snapper VertexSnapper, router ShortestPath, facilities FacilityFinder) *RoutingService {
	return &RoutingService{snapper: snapper, router: router, facilities: facilities}
}

// Route snaps both coordinates onto the network and asks the path
// search for a minimum-cost path between the snapped vertices. A
// disconnected pair (or an empty graph) yields an empty-mode result,
// never an error.
func (uc *RoutingService) Route(ctx context.Context, origin, destination datastructure.Coordinate) (datastructure.RouteResult, error) {
	fromNode, ok := uc.snapper.NearestVertex(origin)
	if !ok {
		return datastructure.NewEmptyRouteResult(), nil
	}
	toNode, ok := uc.snapper.NearestVertex(destination)
	if !ok {
		return datastructure.NewEmptyRouteResult(), nil
	}

	path, totalCost, found := uc.router.ShortestPath(fromNode.ID, toNode.ID)
	if !found {
		return datastructure.NewEmptyRouteResult(), nil
	}

	geometry := concatPath(fromNode.ID, path)
	return datastructure.RouteResult{
		Mode:     datastructure.ModeNetwork,
		Edges:    path,
		Geometry: geometry,
		Polyline: datastructure.CreatePolyline(geometry),
		Distance: totalCost,
	}, nil
}

// NearestFacility finds the geometrically nearest facility of the
// category and routes to it over the road network. When the facility is
// not reachable through the graph the result falls back to the direct
// great-circle segment, tagged straight-line; callers must treat that
// as a normal outcome.
func (uc *RoutingService) NearestFacility(ctx context.Context, origin datastructure.Coordinate, category string) (datastructure.RouteResult, error) {
	facility, err := uc.facilities.NearestFeature(ctx, origin, category)
	if err != nil {
		return datastructure.RouteResult{}, server.WrapErrorf(err, server.ErrInternalServerError, "nearest facility lookup")
	}
	if facility == nil {
		return datastructure.NewEmptyRouteResult(), nil
	}

	result, err := uc.Route(ctx, origin, facility.Location)
	if err != nil {
		return datastructure.RouteResult{}, err
	}

	if result.Mode == datastructure.ModeNetwork {
		result.Facility = facility
		result.Message = fmt.Sprintf("Road Distance: %dm", util.RoundToMeter(result.Distance))
		return result, nil
	}

	straightDist := geo.GeodesicDistance(origin.Point(), facility.Location.Point())
	return datastructure.RouteResult{
		Mode:     datastructure.ModeStraightLine,
		Geometry: orb.LineString{origin.Point(), facility.Location.Point()},
		Distance: straightDist,
		Message:  fmt.Sprintf("Straight Distance: %dm (No road path)", util.RoundToMeter(straightDist)),
		Facility: facility,
	}, nil
}

// concatPath stitches edge geometries together in traversal order,
// flipping each edge so it continues from the previous one.
func concatPath(startNode int64, path []datastructure.Edge) orb.LineString {
	geometry := make(orb.LineString, 0)
	current := startNode
	for _, edge := range path {
		segment := edge.Geometry
		next := edge.Target
		if edge.Target == current && edge.Source != current {
			segment = reverseLine(segment)
			next = edge.Source
		}
		if len(geometry) > 0 && len(segment) > 0 && geometry[len(geometry)-1] == segment[0] {
			segment = segment[1:]
		}
		geometry = append(geometry, segment...)
		current = next
	}
	return geometry
}

func reverseLine(line orb.LineString) orb.LineString {
	out := make(orb.LineString, len(line))
	for i, p := range line {
		out[len(line)-1-i] = p
	}
	return out
}
