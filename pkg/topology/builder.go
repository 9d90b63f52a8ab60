package topology

import (
	"github.com/lagos-gis/streetguide/pkg/datastructure"
	"github.com/lagos-gis/streetguide/pkg/geo"
	"github.com/lagos-gis/streetguide/pkg/util"

	"github.com/paulmach/orb"
)

// DefaultPrecision is the number of decimal digits endpoint coordinates
// are rounded to before node deduplication. Two endpoints that differ
// only beyond this digit merge into one shared vertex; endpoints that
// differ within it stay separate nodes even if geometrically coincident.
// A deliberate dataset-level choice, kept configurable via NewBuilder.
const DefaultPrecision uint = 6

// Builder turns independently digitized road polylines into a connected
// node/edge set loadable into a shortest-path-capable store. One-shot:
// a Builder performs a single batch pass and is not safe for concurrent
// use.
type Builder struct {
	precision uint
}

func NewBuilder(precision uint) *Builder {
	return &Builder{precision: precision}
}

type coordKey struct {
	lat float64
	lon float64
}

// Build produces the node and edge sets for the given lines, in input
// order. Node ids and edge ids are fully deterministic for an unchanged
// input sequence: nodes are numbered from 1 in first-seen order, edge
// ids are the 1-based input positions. Malformed lines never fail the
// build; a line without usable geometry yields an edge with cost 0 and
// no endpoints, kept for record-count parity with the source but
// excluded from any graph.
func (b *Builder) Build(lines []datastructure.LineFeature) ([]datastructure.Node, []datastructure.Edge) {
	nodeIDs := make(map[coordKey]int64)
	nodeOrder := make([]coordKey, 0)
	nextNodeID := int64(1)

	edges := make([]datastructure.Edge, 0, len(lines))

	for i, line := range lines {
		edgeID := int64(i + 1)

		start, end, flat, ok := endpoints(line.Geometry)
		if !ok {
			edges = append(edges, datastructure.Edge{
				ID:   edgeID,
				Name: line.Name,
			})
			continue
		}

		startKey := b.roundKey(start)
		endKey := b.roundKey(end)

		source, found := nodeIDs[startKey]
		if !found {
			source = nextNodeID
			nodeIDs[startKey] = source
			nodeOrder = append(nodeOrder, startKey)
			nextNodeID++
		}
		target, found := nodeIDs[endKey]
		if !found {
			target = nextNodeID
			nodeIDs[endKey] = target
			nodeOrder = append(nodeOrder, endKey)
			nextNodeID++
		}

		cost := geo.GeometryLength(line.Geometry)

		edges = append(edges, datastructure.Edge{
			ID:          edgeID,
			Name:        line.Name,
			Source:      source,
			Target:      target,
			Cost:        cost,
			ReverseCost: cost,
			Geometry:    flat,
		})
	}

	nodes := make([]datastructure.Node, 0, len(nodeOrder))
	for _, key := range nodeOrder {
		nodes = append(nodes, datastructure.Node{
			ID:  nodeIDs[key],
			Lat: key.lat,
			Lon: key.lon,
		})
	}
	return nodes, edges
}

// Build runs a one-shot topology build with the default precision.
func Build(lines []datastructure.LineFeature) ([]datastructure.Node, []datastructure.Edge) {
	return NewBuilder(DefaultPrecision).Build(lines)
}

func (b *Builder) roundKey(p orb.Point) coordKey {
	return coordKey{
		lat: util.RoundFloat(p.Lat(), b.precision),
		lon: util.RoundFloat(p.Lon(), b.precision),
	}
}

// endpoints extracts the first and last coordinate of a line geometry
// and a flattened single-part copy of it. For multi-part lines the
// first coordinate of the first non-empty part and the last coordinate
// of the last non-empty part are used; empty parts are skipped. ok is
// false when the geometry holds no coordinates at all.
func endpoints(geom orb.Geometry) (start, end orb.Point, flat orb.LineString, ok bool) {
	switch g := geom.(type) {
	case orb.LineString:
		if len(g) == 0 {
			return orb.Point{}, orb.Point{}, nil, false
		}
		return g[0], g[len(g)-1], g, true
	case orb.MultiLineString:
		for _, part := range g {
			if len(part) == 0 {
				continue
			}
			if !ok {
				start = part[0]
				ok = true
			}
			end = part[len(part)-1]
			flat = append(flat, part...)
		}
		if !ok {
			return orb.Point{}, orb.Point{}, nil, false
		}
		return start, end, flat, true
	default:
		return orb.Point{}, orb.Point{}, nil, false
	}
}
