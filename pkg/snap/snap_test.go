package snap

import (
	"testing"

	"github.com/lagos-gis/streetguide/pkg/datastructure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGraph() *datastructure.Graph {
	nodes := []datastructure.Node{
		{ID: 1, Lat: 6.500000, Lon: 3.350000},
		{ID: 2, Lat: 6.500000, Lon: 3.360000},
		{ID: 3, Lat: 6.510000, Lon: 3.370000},
	}
	return datastructure.NewGraph(nodes, nil)
}

func TestNearestVertex(t *testing.T) {
	idx := NewVertexIndex(testGraph())
	require.Equal(t, 3, idx.Size())

	node, ok := idx.NearestVertex(datastructure.NewCoordinate(6.5001, 3.3501))
	require.True(t, ok)
	assert.Equal(t, int64(1), node.ID)

	node, ok = idx.NearestVertex(datastructure.NewCoordinate(6.5099, 3.3699))
	require.True(t, ok)
	assert.Equal(t, int64(3), node.ID)
}

func TestNearestVertexExactHit(t *testing.T) {
	idx := NewVertexIndex(testGraph())

	node, ok := idx.NearestVertex(datastructure.NewCoordinate(6.500000, 3.360000))
	require.True(t, ok)
	assert.Equal(t, int64(2), node.ID)
}

func TestNearestVertexEmptyGraph(t *testing.T) {
	idx := NewVertexIndex(datastructure.NewGraph(nil, nil))

	_, ok := idx.NearestVertex(datastructure.NewCoordinate(6.5, 3.35))
	assert.False(t, ok)
}
