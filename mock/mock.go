package mock

import (
	"github.com/castellic/rednet/state"
)

// MockCfg builds a small network config from topology edge lines. Every
// node gets its neighbor weights derived from the shared topology.
func MockCfg(edges []string) (state.CentralCfg, []state.NodeCfg) {
	central := state.CentralCfg{
		Redis: state.RedisCfg{Addr: "127.0.0.1:6379"},
		Edges: edges,
	}
	g := central.Topology()
	nodes := make([]state.NodeCfg, 0, len(g))
	for _, id := range g.Nodes() {
		cfg := state.NodeCfg{
			Id:        id,
			Group:     state.GroupForNode(id, "test1"),
			Neighbors: g.NeighborsOf(id),
			Mode:      state.ModeDijkstra,
		}
		state.ExpandNodeConfig(&cfg)
		nodes = append(nodes, cfg)
	}
	return central, nodes
}

// TriangleEdges is the worked example topology: N1-N2:10, N2-N3:14,
// N1-N3:30. The shortest N1..N3 path runs through N2 at cost 24.
func TriangleEdges() []string {
	return []string{"N1-N2:10", "N2-N3:14", "N1-N3:30"}
}

// LineEdges is a unit-weight chain N1-N2-...-N<n>.
func LineEdges(n int) []string {
	edges := make([]string, 0, n-1)
	for i := 1; i < n; i++ {
		edges = append(edges, string(state.MakeNode(i))+"-"+string(state.MakeNode(i+1))+":1")
	}
	return edges
}
