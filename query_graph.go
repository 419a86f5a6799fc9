package coursepath

import (
	"errors"
	"fmt"
)

// ErrNegativeDepth is returned by the transitive queries for a negative
// depth limit.
var ErrNegativeDepth = errors.New("maxDepth must be non-negative")

// maxGraphDepth caps the transitive queries.
const maxGraphDepth = 100

// TopicGraph is the neighborhood of a topic along the prerequisite relation.
type TopicGraph struct {
	Root  string           `json:"root"`  // canonical key of the starting topic
	Nodes []TopicGraphNode `json:"nodes"` // every topic reached within depth, in BFS order
	Edges []Edge           `json:"edges"` // prerequisite edges between reached topics
	Depth int              `json:"depth"` // deepest level reached (may be < maxDepth)
}

// TopicGraphNode is a topic with its distance from the root.
type TopicGraphNode struct {
	Topic string `json:"topic"`
	Depth int    `json:"depth"`
}

// TransitivePrerequisites returns everything topic depends on, directly or
// not, up to maxDepth levels. The topic label is normalized first. A depth of
// 0 returns only the root; depths above 100 are capped. Returns nil, nil if
// the topic is not in the catalog.
func (c *CompressedCatalog) TransitivePrerequisites(topic string, maxDepth int) (*TopicGraph, error) {
	g, err := c.walk(topic, maxDepth, c.prereqAdjacency())
	if err != nil {
		return nil, fmt.Errorf("transitive prerequisites: %w", err)
	}
	return g, nil
}

// TransitiveDependents returns every topic that depends on topic, directly
// or not, up to maxDepth levels. Same depth and lookup rules as
// TransitivePrerequisites.
func (c *CompressedCatalog) TransitiveDependents(topic string, maxDepth int) (*TopicGraph, error) {
	g, err := c.walk(topic, maxDepth, c.dependentAdjacency())
	if err != nil {
		return nil, fmt.Errorf("transitive dependents: %w", err)
	}
	return g, nil
}

func (c *CompressedCatalog) prereqAdjacency() map[string][]string {
	adj := make(map[string][]string, len(c.topicOrder))
	for _, key := range c.topicOrder {
		adj[key] = c.topics[key].PrereqTopics
	}
	return adj
}

// dependentAdjacency inverts prerequisite edges. Dependents are listed in
// topic order.
func (c *CompressedCatalog) dependentAdjacency() map[string][]string {
	adj := make(map[string][]string, len(c.topicOrder))
	for _, key := range c.topicOrder {
		for _, p := range c.topics[key].PrereqTopics {
			adj[p] = append(adj[p], key)
		}
	}
	return adj
}

// walk runs a depth-capped BFS from topic over adj.
func (c *CompressedCatalog) walk(topic string, maxDepth int, adj map[string][]string) (*TopicGraph, error) {
	if maxDepth < 0 {
		return nil, fmt.Errorf("%w, got %d", ErrNegativeDepth, maxDepth)
	}
	if maxDepth > maxGraphDepth {
		maxDepth = maxGraphDepth
	}

	root := Normalize(topic)
	if _, ok := c.topics[root]; !ok {
		return nil, nil
	}

	result := &TopicGraph{
		Root:  root,
		Nodes: []TopicGraphNode{{Topic: root, Depth: 0}},
		Edges: []Edge{},
	}
	if maxDepth == 0 {
		return result, nil
	}

	visited := map[string]int{root: 0}
	type bfsEntry struct {
		topic string
		depth int
	}
	queue := []bfsEntry{{topic: root}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.depth >= maxDepth {
			continue
		}
		for _, next := range adj[current.topic] {
			if _, seen := visited[next]; seen {
				continue
			}
			depth := current.depth + 1
			visited[next] = depth
			if depth > result.Depth {
				result.Depth = depth
			}
			result.Nodes = append(result.Nodes, TopicGraphNode{Topic: next, Depth: depth})
			queue = append(queue, bfsEntry{topic: next, depth: depth})
		}
	}

	// Edges are reported in prerequisite direction regardless of walk
	// direction.
	for _, n := range result.Nodes {
		for _, p := range c.prereqsOf(n.Topic) {
			if _, ok := visited[p]; ok {
				result.Edges = append(result.Edges, Edge{Topic: n.Topic, Prereq: p})
			}
		}
	}
	return result, nil
}
