// Package spf computes single-source shortest paths and the next-hop
// tables derived from them. It is the decision process shared by the
// baseline discovery protocol and the link-state router.
package spf

import (
	"container/heap"

	"github.com/castellic/rednet/state"
)

type frontierItem struct {
	dist int
	node state.Node
}

type frontier []frontierItem

func (f frontier) Len() int            { return len(f) }
func (f frontier) Less(i, j int) bool  { return f[i].dist < f[j].dist }
func (f frontier) Swap(i, j int)       { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)         { *f = append(*f, x.(frontierItem)) }
func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}

// Compute runs Dijkstra from source over non-negative edge weights.
// dist contains an entry for every reached node (absence means
// unreachable); prev maps each reached node, source excepted, to its
// predecessor on the shortest path.
func Compute(g state.Graph, source state.Node) (dist map[state.Node]int, prev map[state.Node]state.Node) {
	dist = map[state.Node]int{source: 0}
	prev = map[state.Node]state.Node{}
	visited := map[state.Node]struct{}{}

	pq := &frontier{{0, source}}
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(frontierItem)
		if _, ok := visited[cur.node]; ok {
			continue
		}
		visited[cur.node] = struct{}{}
		for v, w := range g[cur.node] {
			alt := cur.dist + w
			if d, ok := dist[v]; !ok || alt < d {
				dist[v] = alt
				prev[v] = cur.node
				heap.Push(pq, frontierItem{alt, v})
			}
		}
	}
	return dist, prev
}

// NextHops derives the first-hop table from the predecessor relation.
// source is never a key; destinations whose predecessor chain does not
// reach source are omitted.
func NextHops(source state.Node, prev map[state.Node]state.Node) map[state.Node]state.Node {
	nh := map[state.Node]state.Node{}
	for dest := range prev {
		if dest == source {
			continue
		}
		cur := dest
		for {
			p, ok := prev[cur]
			if !ok {
				break
			}
			if p == source {
				nh[dest] = cur
				break
			}
			cur = p
		}
	}
	return nh
}

// Path reconstructs the node sequence source..dest, or nil when dest is
// unreachable.
func Path(source, dest state.Node, prev map[state.Node]state.Node) []state.Node {
	if source == dest {
		return []state.Node{source}
	}
	path := []state.Node{dest}
	cur := dest
	for {
		p, ok := prev[cur]
		if !ok {
			return nil
		}
		path = append(path, p)
		if p == source {
			break
		}
		cur = p
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// AllPairsNextHops computes every node's next-hop table, simulating the
// computation each router performs locally.
func AllPairsNextHops(g state.Graph) map[state.Node]map[state.Node]state.Node {
	tables := map[state.Node]map[state.Node]state.Node{}
	for node := range g {
		_, prev := Compute(g, node)
		tables[node] = NextHops(node, prev)
	}
	return tables
}
