package datastructure

// Graph is the in-memory road network used by path search and vertex
// snapping. It is built once from the persisted node/edge tables (or a
// snapshot) and never mutated afterwards, so concurrent readers need no
// locking.
type Graph struct {
	nodes    []Node
	nodeByID map[int64]int
	edges    []Edge
	adj      map[int64][]int32 // node id -> indices into edges
}

// NewGraph indexes nodes and the connectable subset of edges. Edges
// whose endpoints reference a missing node are skipped; the two tables
// must be loaded together.
func NewGraph(nodes []Node, edges []Edge) *Graph {
	g := &Graph{
		nodes:    make([]Node, 0, len(nodes)),
		nodeByID: make(map[int64]int, len(nodes)),
		edges:    make([]Edge, 0, len(edges)),
		adj:      make(map[int64][]int32),
	}
	for _, n := range nodes {
		if _, ok := g.nodeByID[n.ID]; ok {
			continue
		}
		g.nodeByID[n.ID] = len(g.nodes)
		g.nodes = append(g.nodes, n)
	}
	for _, e := range edges {
		if !e.Connectable() {
			continue
		}
		_, okFrom := g.nodeByID[e.Source]
		_, okTo := g.nodeByID[e.Target]
		if !okFrom || !okTo {
			continue
		}
		idx := int32(len(g.edges))
		g.edges = append(g.edges, e)
		g.adj[e.Source] = append(g.adj[e.Source], idx)
		if e.Target != e.Source {
			g.adj[e.Target] = append(g.adj[e.Target], idx)
		}
	}
	return g
}

func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

func (g *Graph) NumEdges() int {
	return len(g.edges)
}

// Nodes returns vertices in load order. Callers must not mutate.
func (g *Graph) Nodes() []Node {
	return g.nodes
}

func (g *Graph) Node(id int64) (Node, bool) {
	idx, ok := g.nodeByID[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[idx], true
}

// AdjacentEdges returns every connectable edge touching the node, in
// either direction. The network is undirected.
func (g *Graph) AdjacentEdges(nodeID int64) []Edge {
	idxs := g.adj[nodeID]
	edges := make([]Edge, 0, len(idxs))
	for _, i := range idxs {
		edges = append(edges, g.edges[i])
	}
	return edges
}
