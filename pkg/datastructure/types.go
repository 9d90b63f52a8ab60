package datastructure

import (
	"github.com/paulmach/orb"
	"github.com/twpayne/go-polyline"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{Lat: lat, Lon: lon}
}

func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

func CoordinateFromPoint(p orb.Point) Coordinate {
	return Coordinate{Lat: p.Lat(), Lon: p.Lon()}
}

// LineFeature is one digitized road segment as read from the source
// dataset, before topology processing. Geometry is an orb.LineString or
// orb.MultiLineString and may be nil for broken source rows.
type LineFeature struct {
	Name     string
	Geometry orb.Geometry
}

// Node is a deduplicated graph vertex. Coordinates are already rounded
// to the builder precision when the node is created.
type Node struct {
	ID  int64
	Lat float64
	Lon float64
}

func (n Node) Coordinate() Coordinate {
	return Coordinate{Lat: n.Lat, Lon: n.Lon}
}

// Edge is one road segment promoted to a graph edge. Source/Target are 0
// when the source row had no usable geometry; such edges are kept for
// record-count parity with the dataset but never enter the graph.
type Edge struct {
	ID          int64
	Name        string
	Source      int64
	Target      int64
	Cost        float64 // meters
	ReverseCost float64 // meters, always equal to Cost
	Geometry    orb.LineString
}

// Connectable reports whether the edge can take part in path search.
func (e Edge) Connectable() bool {
	return e.Source != 0 && e.Target != 0
}

type RouteMode string

const (
	// ModeNetwork: a road path was found between the two points.
	ModeNetwork RouteMode = "network"
	// ModeStraightLine: no road path exists, distance is the direct
	// great-circle estimate. An expected outcome, not an error.
	ModeStraightLine RouteMode = "straight-line"
	// ModeEmpty: no path and no fallback target (empty graph or no
	// facility of the requested category).
	ModeEmpty RouteMode = "empty"
)

// Facility is a matched point of interest for nearest-facility queries.
type Facility struct {
	Name     string     `json:"name"`
	Category string     `json:"category"`
	Location Coordinate `json:"location"`
}

// RouteResult is the outcome of one routing query. Exactly one Mode tag
// applies; callers must branch on it, never on field presence.
type RouteResult struct {
	Mode     RouteMode      `json:"mode"`
	Edges    []Edge         `json:"-"`
	Geometry orb.LineString `json:"-"`
	Polyline string         `json:"polyline,omitempty"`
	Distance float64        `json:"distance"` // meters
	Message  string         `json:"message,omitempty"`
	Facility *Facility      `json:"facility,omitempty"`
}

func NewEmptyRouteResult() RouteResult {
	return RouteResult{Mode: ModeEmpty}
}

func (r RouteResult) Found() bool {
	return r.Mode != ModeEmpty
}

// CreatePolyline encodes a path geometry as a google encoded polyline.
func CreatePolyline(path orb.LineString) string {
	coords := make([][]float64, 0, len(path))
	for _, p := range path {
		coords = append(coords, []float64{p.Lat(), p.Lon()})
	}
	return string(polyline.EncodeCoords(coords))
}
