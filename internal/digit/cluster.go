package digit

import (
	"sort"

	"smarter-scale/pkg/geometry"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ClusterSegments groups segments into clusters by transitive overlap: two
// segments share a cluster when a chain of pairwise-overlapping segments
// links them. Segments are addressed by their index in the input slice;
// no traversal state is stored on the segments themselves.
//
// Members keep input order and clusters are ordered by their first member,
// so the result is deterministic for a given input.
func ClusterSegments(segments []geometry.RectInt) []Cluster {
	if len(segments) == 0 {
		return nil
	}

	g := simple.NewUndirectedGraph()
	for i := range segments {
		g.AddNode(simple.Node(i))
	}
	for i := range segments {
		for j := i + 1; j < len(segments); j++ {
			if segments[i].Overlaps(segments[j]) {
				g.SetEdge(g.NewEdge(simple.Node(i), simple.Node(j)))
			}
		}
	}

	components := topo.ConnectedComponents(g)
	groups := make([][]int, 0, len(components))
	for _, nodes := range components {
		members := make([]int, len(nodes))
		for k, n := range nodes {
			members[k] = int(n.ID())
		}
		sort.Ints(members)
		groups = append(groups, members)
	}
	sort.Slice(groups, func(a, b int) bool {
		return groups[a][0] < groups[b][0]
	})

	clusters := make([]Cluster, len(groups))
	for i, members := range groups {
		rects := make([]geometry.RectInt, len(members))
		for k, idx := range members {
			rects[k] = segments[idx]
		}
		clusters[i] = Cluster{
			Segments: rects,
			Union:    geometry.BoundingRect(rects),
		}
	}
	return clusters
}
