package routingalgorithm

import (
	"container/heap"

	"github.com/lagos-gis/streetguide/pkg/datastructure"
)

// RouteAlgorithm answers minimum-cost path queries over a read-only
// graph. Queries share no mutable state, so one instance serves
// concurrent requests.
type RouteAlgorithm struct {
	graph *datastructure.Graph
}

func NewRouteAlgorithm(graph *datastructure.Graph) *RouteAlgorithm {
	return &RouteAlgorithm{graph: graph}
}

// ShortestPath runs Dijkstra between two vertices, treating every edge
// as traversable in both directions (forward cost one way, reverse cost
// the other). It returns the traversed edges in order plus the total
// cost, or found=false when the two vertices lie in different connected
// components. Disconnection is a definite answer, not an error.
func (ra *RouteAlgorithm) ShortestPath(from, to int64) ([]datastructure.Edge, float64, bool) {
	if _, ok := ra.graph.Node(from); !ok {
		return nil, 0, false
	}
	if _, ok := ra.graph.Node(to); !ok {
		return nil, 0, false
	}
	if from == to {
		return []datastructure.Edge{}, 0, true
	}

	dist := map[int64]float64{from: 0}
	prevEdge := map[int64]datastructure.Edge{}
	prevNode := map[int64]int64{}
	visited := map[int64]struct{}{}

	pq := &nodeQueue{{id: from, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		item := heap.Pop(pq).(nodeItem)
		if _, ok := visited[item.id]; ok {
			continue
		}
		visited[item.id] = struct{}{}
		if item.id == to {
			break
		}

		for _, edge := range ra.graph.AdjacentEdges(item.id) {
			neighbor := edge.Target
			cost := edge.Cost
			if neighbor == item.id {
				neighbor = edge.Source
				cost = edge.ReverseCost
			}
			if neighbor == item.id {
				// self-loop, never shortens anything
				continue
			}
			candidate := item.dist + cost
			if old, seen := dist[neighbor]; !seen || candidate < old {
				dist[neighbor] = candidate
				prevEdge[neighbor] = edge
				prevNode[neighbor] = item.id
				heap.Push(pq, nodeItem{id: neighbor, dist: candidate})
			}
		}
	}

	total, reached := dist[to]
	if !reached {
		return nil, 0, false
	}

	path := make([]datastructure.Edge, 0)
	for at := to; at != from; at = prevNode[at] {
		path = append(path, prevEdge[at])
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, total, true
}

type nodeItem struct {
	id   int64
	dist float64
}

type nodeQueue []nodeItem

func (q nodeQueue) Len() int            { return len(q) }
func (q nodeQueue) Less(i, j int) bool  { return q[i].dist < q[j].dist }
func (q nodeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x interface{}) { *q = append(*q, x.(nodeItem)) }
func (q *nodeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
