package scenegraph

import (
	"fmt"

	"github.com/siherrmann/visualgenome/model"
)

// TraversalResult contains an object and its distance from the source
type TraversalResult struct {
	Object       *model.Object
	Distance     int
	Path         []int               // Object ids from source to this object
	Relationship *model.Relationship // Edge the object was reached through, nil for the source
}

// edge is a relationship seen from one of its endpoints
type edge struct {
	rel    *model.Relationship
	target *model.Object
}

// adjacency indexes the relationships by object id. Outgoing edges go from
// subject to object, with followReverse the object also reaches the subject.
func adjacency(graph *model.Graph, predicates []string, followReverse bool) map[int][]edge {
	allowed := make(map[string]bool, len(predicates))
	for _, p := range predicates {
		allowed[p] = true
	}

	adj := make(map[int][]edge, len(graph.Objects))
	for _, r := range graph.Relationships {
		if len(allowed) > 0 && !allowed[r.Predicate] {
			continue
		}
		adj[r.Subject.ID] = append(adj[r.Subject.ID], edge{rel: r, target: r.Object})
		if followReverse {
			adj[r.Object.ID] = append(adj[r.Object.ID], edge{rel: r, target: r.Subject})
		}
	}
	return adj
}

// BFS performs breadth-first search from a source object over the relationships.
// An empty predicates list follows every relationship.
func BFS(graph *model.Graph, sourceID int, maxHops int, predicates []string, followReverse bool) ([]*TraversalResult, error) {
	source, ok := graph.ObjectByID(sourceID)
	if !ok {
		return nil, fmt.Errorf("%w: object %d in image %d", model.ErrNotFound, sourceID, graph.ImageID)
	}

	adj := adjacency(graph, predicates, followReverse)
	visited := map[int]bool{sourceID: true}
	queue := []*TraversalResult{{
		Object:   source,
		Distance: 0,
		Path:     []int{sourceID},
	}}

	var results []*TraversalResult
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		results = append(results, current)

		// Stop if we've reached max hops
		if current.Distance >= maxHops {
			continue
		}

		for _, e := range adj[current.Object.ID] {
			if visited[e.target.ID] {
				continue
			}
			visited[e.target.ID] = true

			newPath := make([]int, len(current.Path), len(current.Path)+1)
			copy(newPath, current.Path)

			queue = append(queue, &TraversalResult{
				Object:       e.target,
				Distance:     current.Distance + 1,
				Path:         append(newPath, e.target.ID),
				Relationship: e.rel,
			})
		}
	}

	return results, nil
}

// DFS performs depth-first search from a source object over the relationships.
func DFS(graph *model.Graph, sourceID int, maxHops int, predicates []string, followReverse bool) ([]*TraversalResult, error) {
	source, ok := graph.ObjectByID(sourceID)
	if !ok {
		return nil, fmt.Errorf("%w: object %d in image %d", model.ErrNotFound, sourceID, graph.ImageID)
	}

	adj := adjacency(graph, predicates, followReverse)
	visited := map[int]bool{}
	var results []*TraversalResult

	dfsRecursive(adj, source, nil, 0, maxHops, []int{sourceID}, visited, &results)

	return results, nil
}

func dfsRecursive(
	adj map[int][]edge,
	current *model.Object,
	via *model.Relationship,
	distance int,
	maxHops int,
	path []int,
	visited map[int]bool,
	results *[]*TraversalResult,
) {
	visited[current.ID] = true

	pathCopy := make([]int, len(path))
	copy(pathCopy, path)
	*results = append(*results, &TraversalResult{
		Object:       current,
		Distance:     distance,
		Path:         pathCopy,
		Relationship: via,
	})

	if distance >= maxHops {
		return
	}

	for _, e := range adj[current.ID] {
		if visited[e.target.ID] {
			continue
		}
		dfsRecursive(adj, e.target, e.rel, distance+1, maxHops, append(pathCopy, e.target.ID), visited, results)
	}
}

// Neighbors returns the objects one relationship away from the object.
func Neighbors(graph *model.Graph, objectID int, predicates []string, followReverse bool) ([]*model.Object, error) {
	results, err := BFS(graph, objectID, 1, predicates, followReverse)
	if err != nil {
		return nil, err
	}

	// Skip the source object itself (first result)
	neighbors := make([]*model.Object, 0, len(results)-1)
	for i := 1; i < len(results); i++ {
		neighbors = append(neighbors, results[i].Object)
	}
	return neighbors, nil
}
