package state

import (
	"os"
	"regexp"
	"slices"
	"strconv"
)

// Graph is a weighted undirected graph. Topology loading always keeps
// it symmetric; a node's local adjacency view may diverge transiently.
type Graph map[Node]map[Node]int

var edgePattern = regexp.MustCompile(`N([0-9]+)-N([0-9]+):([0-9]+)`)

// ParseTopology parses edge descriptions of the form "N1-N2:10".
// Fragments that do not match are ignored.
func ParseTopology(text string) Graph {
	g := Graph{}
	for _, m := range edgePattern.FindAllStringSubmatch(text, -1) {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		w, _ := strconv.Atoi(m[3])
		g.AddEdge(MakeNode(a), MakeNode(b), w)
	}
	return g
}

func LoadTopologyFile(path string) (Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTopology(string(data)), nil
}

func (g Graph) AddEdge(u, v Node, w int) {
	if g[u] == nil {
		g[u] = map[Node]int{}
	}
	if g[v] == nil {
		g[v] = map[Node]int{}
	}
	g[u][v] = w
	g[v][u] = w
}

func (g Graph) NeighborsOf(n Node) map[Node]int {
	return g[n]
}

func (g Graph) Nodes() []Node {
	nodes := make([]Node, 0, len(g))
	for n := range g {
		nodes = append(nodes, n)
	}
	slices.Sort(nodes)
	return nodes
}

// Clone deep-copies the graph.
func (g Graph) Clone() Graph {
	out := make(Graph, len(g))
	for u, nbrs := range g {
		out[u] = make(map[Node]int, len(nbrs))
		for v, w := range nbrs {
			out[u][v] = w
		}
	}
	return out
}
