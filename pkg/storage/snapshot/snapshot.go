package snapshot

import (
	"fmt"
	"os"

	"github.com/lagos-gis/streetguide/pkg/datastructure"

	"github.com/kelindar/binary"
)

// graphSnapshot is the on-disk form of a completed topology build. The
// full edge set is stored, excluded edges included, so a snapshot keeps
// record-count parity with the source dataset.
type graphSnapshot struct {
	Nodes []datastructure.Node
	Edges []datastructure.Edge
}

// Save writes the topology to a binary snapshot file. Lets the server
// load the graph without a database round trip.
func Save(path string, nodes []datastructure.Node, edges []datastructure.Edge) error {
	buf, err := binary.Marshal(&graphSnapshot{Nodes: nodes, Edges: edges})
	if err != nil {
		return fmt.Errorf("encode graph snapshot: %w", err)
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("write graph snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot file and assembles the in-memory graph.
func Load(path string) (*datastructure.Graph, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph snapshot: %w", err)
	}
	var snap graphSnapshot
	if err := binary.Unmarshal(buf, &snap); err != nil {
		return nil, fmt.Errorf("decode graph snapshot: %w", err)
	}
	return datastructure.NewGraph(snap.Nodes, snap.Edges), nil
}
