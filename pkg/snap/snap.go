package snap

import (
	"github.com/lagos-gis/streetguide/pkg/datastructure"

	"github.com/dhconnelly/rtreego"
)

const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50

	// side length of the point bounding boxes, degrees
	pointTolerance = 0.000001
)

type vertexEntry struct {
	node datastructure.Node
	rect *rtreego.Rect
}

func (e *vertexEntry) Bounds() *rtreego.Rect {
	return e.rect
}

// VertexIndex snaps arbitrary coordinates to their nearest graph vertex
// through an r-tree over all loaded nodes. Built once at graph load
// time and read-only afterwards, so concurrent queries are safe.
type VertexIndex struct {
	tree *rtreego.Rtree
	size int
}

// NewVertexIndex indexes every vertex of the graph.
func NewVertexIndex(graph *datastructure.Graph) *VertexIndex {
	idx := &VertexIndex{tree: rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren)}
	for _, node := range graph.Nodes() {
		idx.insert(node)
	}
	return idx
}

func (idx *VertexIndex) insert(node datastructure.Node) {
	p := rtreego.Point{node.Lon, node.Lat}
	idx.tree.Insert(&vertexEntry{node: node, rect: p.ToRect(pointTolerance)})
	idx.size++
}

// NearestVertex returns the graph vertex nearest to the coordinate, or
// ok=false when the graph is empty.
func (idx *VertexIndex) NearestVertex(c datastructure.Coordinate) (datastructure.Node, bool) {
	if idx.size == 0 {
		return datastructure.Node{}, false
	}
	nearest := idx.tree.NearestNeighbor(rtreego.Point{c.Lon, c.Lat})
	entry, ok := nearest.(*vertexEntry)
	if !ok {
		return datastructure.Node{}, false
	}
	return entry.node, true
}

func (idx *VertexIndex) Size() int {
	return idx.size
}
