package scenegraph

import (
	"testing"

	"github.com/siherrmann/visualgenome/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainGraph builds man -wearing-> hat -on-> head, man -holding-> cup
func chainGraph(t *testing.T) *model.Graph {
	t.Helper()
	data := `{
		"image_id": 3,
		"relationships": [
			{"relationship_id": 1, "predicate": "wearing",
			 "subject": {"object_id": 1, "x": 0, "y": 0, "w": 1, "h": 1, "name": "man"},
			 "object": {"object_id": 2, "x": 0, "y": 0, "w": 1, "h": 1, "name": "hat"}, "synsets": []},
			{"relationship_id": 2, "predicate": "on",
			 "subject": {"object_id": 2, "x": 0, "y": 0, "w": 1, "h": 1, "name": "hat"},
			 "object": {"object_id": 3, "x": 0, "y": 0, "w": 1, "h": 1, "name": "head"}, "synsets": []},
			{"relationship_id": 3, "predicate": "holding",
			 "subject": {"object_id": 1, "x": 0, "y": 0, "w": 1, "h": 1, "name": "man"},
			 "object": {"object_id": 4, "x": 0, "y": 0, "w": 1, "h": 1, "name": "cup"}, "synsets": []}
		]
	}`
	return mustParse(t, data, model.MergeFirstWins)
}

func resultIDs(results []*TraversalResult) []int {
	ids := []int{}
	for _, r := range results {
		ids = append(ids, r.Object.ID)
	}
	return ids
}

func TestBFS(t *testing.T) {
	graph := chainGraph(t)

	t.Run("Full traversal", func(t *testing.T) {
		results, err := BFS(graph, 1, 5, nil, false)
		require.NoError(t, err, "Expected BFS to not return an error")

		assert.Equal(t, []int{1, 2, 4, 3}, resultIDs(results))
		assert.Equal(t, 0, results[0].Distance)
		assert.Nil(t, results[0].Relationship)
		assert.Equal(t, 2, results[3].Distance)
		assert.Equal(t, []int{1, 2, 3}, results[3].Path)
		assert.Equal(t, "on", results[3].Relationship.Predicate)
	})

	t.Run("Max hops", func(t *testing.T) {
		results, err := BFS(graph, 1, 1, nil, false)
		require.NoError(t, err)

		assert.Equal(t, []int{1, 2, 4}, resultIDs(results))
	})

	t.Run("Predicate filter", func(t *testing.T) {
		results, err := BFS(graph, 1, 5, []string{"holding"}, false)
		require.NoError(t, err)

		assert.Equal(t, []int{1, 4}, resultIDs(results))
	})

	t.Run("Reverse edges", func(t *testing.T) {
		forward, err := BFS(graph, 3, 5, nil, false)
		require.NoError(t, err)
		assert.Equal(t, []int{3}, resultIDs(forward))

		reverse, err := BFS(graph, 3, 5, nil, true)
		require.NoError(t, err)
		assert.Equal(t, []int{3, 2, 1, 4}, resultIDs(reverse))
	})

	t.Run("Unknown source", func(t *testing.T) {
		_, err := BFS(graph, 99, 5, nil, false)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestDFS(t *testing.T) {
	graph := chainGraph(t)

	t.Run("Depth first order", func(t *testing.T) {
		results, err := DFS(graph, 1, 5, nil, false)
		require.NoError(t, err, "Expected DFS to not return an error")

		assert.Equal(t, []int{1, 2, 3, 4}, resultIDs(results))
		assert.Equal(t, []int{1, 2, 3}, results[2].Path)
		assert.Equal(t, []int{1, 4}, results[3].Path)
	})

	t.Run("Max hops", func(t *testing.T) {
		results, err := DFS(graph, 1, 1, nil, false)
		require.NoError(t, err)

		assert.Equal(t, []int{1, 2, 4}, resultIDs(results))
	})

	t.Run("Unknown source", func(t *testing.T) {
		_, err := DFS(graph, 99, 5, nil, false)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestNeighbors(t *testing.T) {
	graph := chainGraph(t)

	neighbors, err := Neighbors(graph, 2, nil, true)
	require.NoError(t, err, "Expected Neighbors to not return an error")

	ids := []int{}
	for _, o := range neighbors {
		ids = append(ids, o.ID)
	}
	assert.ElementsMatch(t, []int{1, 3}, ids)
}
