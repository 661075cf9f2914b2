package impl

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/castellic/rednet/perf"
	"github.com/castellic/rednet/protocol"
	"github.com/castellic/rednet/spf"
	"github.com/castellic/rednet/state"
)

// edgeMeta is one direction of an adjacency observation. Budget is only
// tracked on the local->neighbor direction; Age only on remote edges.
// A value below zero means the countdown does not apply to this edge.
type edgeMeta struct {
	Weight int
	Budget int
	Age    int
}

// Adjacency runs the baseline discovery protocol: periodic hellos with
// liveness countdowns for direct neighbors, and change-triggered
// flooding of adjacency observations with per-observer aging for
// relayed ones.
type Adjacency struct {
	// topo[u][v] is this node's view of the directed edge u->v
	topo     map[state.Node]map[state.Node]*edgeMeta
	noChange int

	// last computed shortest-path view
	nextHops map[state.Node]state.Node
}

func (a *Adjacency) Init(s *state.State) error {
	s.Log.Debug("init adjacency")
	a.topo = map[state.Node]map[state.Node]*edgeMeta{}
	a.nextHops = map[state.Node]state.Node{}
	a.ensure(s.Id)
	for nbr, w := range s.Neighbors {
		a.ensure(nbr)
		a.topo[s.Id][nbr] = &edgeMeta{Weight: w, Budget: s.HelloMisses, Age: -1}
		a.topo[nbr][s.Id] = &edgeMeta{Weight: w, Budget: -1, Age: -1}
	}

	if s.Mode == state.ModeDijkstra {
		// announce ourselves before the timers start, and once more a
		// period later for peers that were still subscribing
		a.floodAdjacencies(s)
		s.ScheduleTask(func(s *state.State) error {
			Get[*Adjacency](s).floodAdjacencies(s)
			return nil
		}, s.HelloInterval())
		s.RepeatTask(helloTick, s.HelloInterval())
		s.RepeatTask(livenessTick, s.HelloInterval())
		s.RepeatTask(remoteAgingTick, state.RemoteAgeTick)
	}
	return nil
}

func (a *Adjacency) Cleanup(s *state.State) error {
	return nil
}

func (a *Adjacency) ensure(n state.Node) {
	if a.topo[n] == nil {
		a.topo[n] = map[state.Node]*edgeMeta{}
	}
}

// liveNeighbors lists direct neighbors with liveness budget remaining.
func (a *Adjacency) liveNeighbors(self state.Node) []state.Node {
	out := make([]state.Node, 0, len(a.topo[self]))
	for v, meta := range a.topo[self] {
		if meta.Budget > 0 {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}

// graph materializes the table for shortest-path computation, skipping
// dead direct edges and expired remote ones.
func (a *Adjacency) graph(self state.Node) state.Graph {
	g := state.Graph{}
	for u, nbrs := range a.topo {
		for v, meta := range nbrs {
			if u == self && meta.Budget == 0 {
				continue
			}
			if meta.Age == 0 {
				continue
			}
			if g[u] == nil {
				g[u] = map[state.Node]int{}
			}
			g[u][v] = meta.Weight
		}
	}
	return g
}

// NextHop exposes the current routing decision for data forwarding.
func (a *Adjacency) NextHop(dest state.Node) (state.Node, bool) {
	nh, ok := a.nextHops[dest]
	return nh, ok
}

// HandleHello processes a hello addressed to this node. Unknown senders
// are adopted as direct neighbors; weight changes re-flood.
func (a *Adjacency) HandleHello(s *state.State, env *protocol.Envelope) error {
	from := state.NodeOf(env.From)
	to := state.NodeOf(env.To)
	if to != s.Id {
		return nil
	}
	w, ok := env.EdgeWeight()
	if !ok {
		w = 1
	}

	if _, known := a.topo[s.Id][from]; !known {
		a.ensure(from)
		a.topo[s.Id][from] = &edgeMeta{Weight: w, Budget: s.HelloMisses, Age: -1}
		a.topo[from][s.Id] = &edgeMeta{Weight: w, Budget: -1, Age: -1}
		s.Log.Info("discovered neighbor via hello", "neighbor", from, "weight", w)
		a.floodAdjacencies(s)
		return nil
	}

	meta := a.topo[s.Id][from]
	changed := false
	if meta.Weight != w {
		meta.Weight = w
		changed = true
	}
	meta.Budget = s.HelloMisses

	// keep the reverse direction at the same weight
	if rev, ok := a.topo[from][s.Id]; ok {
		rev.Weight = w
	} else {
		a.ensure(from)
		a.topo[from][s.Id] = &edgeMeta{Weight: w, Budget: -1, Age: -1}
	}

	if changed {
		a.floodAdjacencies(s)
	}
	return nil
}

// HandleTopology records a relayed adjacency observation. The message
// names the edge endpoints in from/to; it is content, not delivery.
func (a *Adjacency) HandleTopology(s *state.State, env *protocol.Envelope) error {
	u := state.NodeOf(env.From)
	v := state.NodeOf(env.To)
	w, ok := env.EdgeWeight()
	if !ok {
		s.Log.Debug("dropping topology message with invalid weight", "from", env.From, "to", env.To)
		perf.DroppedPerSec.Add(1)
		return nil
	}

	a.ensure(u)
	a.ensure(v)
	changed := a.recordRemote(s, u, v, w)
	changed = a.recordRemote(s, v, u, w) || changed

	return a.forwardIfChanged(s, env, changed)
}

// recordRemote stores one direction of a relayed edge with a fresh age.
// Directions touching this node keep their liveness semantics instead.
func (a *Adjacency) recordRemote(s *state.State, u, v state.Node, w int) bool {
	if u == s.Id || v == s.Id {
		// our own adjacencies are governed by hellos, only adopt the weight
		if meta, ok := a.topo[u][v]; ok && meta.Weight != w {
			meta.Weight = w
			return true
		}
		return false
	}
	meta, ok := a.topo[u][v]
	if !ok || meta.Weight != w {
		a.topo[u][v] = &edgeMeta{Weight: w, Budget: -1, Age: s.RemoteAge}
		return true
	}
	meta.Age = s.RemoteAge
	return false
}

// forwardIfChanged relays a topology message to all alive neighbors if
// it taught us something; otherwise it counts toward the stability
// checkpoint that recomputes and prints the routing table.
func (a *Adjacency) forwardIfChanged(s *state.State, env *protocol.Envelope, changed bool) error {
	if !changed {
		a.noChange++
		if a.noChange >= s.StableThreshold {
			a.noChange = 0
			return a.runSpf(s)
		}
		return nil
	}
	a.noChange = 0
	for _, nbr := range a.liveNeighbors(s.Id) {
		publishTo(s, nbr, env)
	}
	return nil
}

// floodAdjacencies announces every alive direct adjacency to every
// alive neighbor.
func (a *Adjacency) floodAdjacencies(s *state.State) {
	live := a.liveNeighbors(s.Id)
	for nbr, meta := range a.topo[s.Id] {
		if meta.Budget <= 0 {
			continue
		}
		env := protocol.NewTopology(s.SelfAddress(), state.AddressForDest(nbr, s.Group), meta.Weight)
		for _, out := range live {
			publishTo(s, out, env)
		}
	}
}

func helloTick(s *state.State) error {
	a := Get[*Adjacency](s)
	for nbr, meta := range a.topo[s.Id] {
		if meta.Budget <= 0 {
			continue
		}
		env := protocol.NewHello(s.SelfAddress(), state.AddressForDest(nbr, s.Group), meta.Weight)
		publishTo(s, nbr, env)
	}
	return nil
}

func livenessTick(s *state.State) error {
	a := Get[*Adjacency](s)
	dead := make([]state.Node, 0)
	for nbr, meta := range a.topo[s.Id] {
		if meta.Budget > 0 {
			meta.Budget--
		}
		if meta.Budget == 0 {
			dead = append(dead, nbr)
		}
	}
	if len(dead) == 0 {
		return nil
	}
	slices.Sort(dead)
	for _, nbr := range dead {
		s.Log.Warn("neighbor fell silent, removing adjacency", "neighbor", nbr)
		delete(a.topo[s.Id], nbr)
		delete(a.topo[nbr], s.Id)
	}
	a.floodAdjacencies(s)
	return a.runSpf(s)
}

func remoteAgingTick(s *state.State) error {
	a := Get[*Adjacency](s)
	type edge struct{ u, v state.Node }
	expired := make([]edge, 0)
	for u, nbrs := range a.topo {
		for v, meta := range nbrs {
			if u == s.Id || v == s.Id {
				continue
			}
			if meta.Age > 0 {
				meta.Age--
				if meta.Age == 0 {
					expired = append(expired, edge{u, v})
				}
			}
		}
	}
	// no re-flood here: every observer ages remote edges independently
	for _, e := range expired {
		s.Log.Debug("remote adjacency expired", "u", e.u, "v", e.v)
		delete(a.topo[e.u], e.v)
	}
	return nil
}

// runSpf recomputes shortest paths over the currently-alive view and
// replaces the next-hop table.
func (a *Adjacency) runSpf(s *state.State) error {
	g := a.graph(s.Id)
	if _, ok := g[s.Id]; !ok {
		// an isolated node routes nowhere: a table computed before the
		// failure must not keep pointing into dead links
		s.Log.Info("no alive neighbors, clearing routes")
		a.nextHops = map[state.Node]state.Node{}
		return nil
	}
	perf.SpfRunsPerSec.Add(1)
	dist, prev := spf.Compute(g, s.Id)
	a.nextHops = spf.NextHops(s.Id, prev)

	if state.DBG_log_route_table {
		s.Log.Info("routing table\n" + renderRouteTable(s.Id, g, dist, prev))
	} else {
		s.Log.Info("routing table computed", "destinations", len(a.nextHops))
	}
	return nil
}

// renderRouteTable formats the per-destination cost, next hop and full
// reconstructed path.
func renderRouteTable(self state.Node, g state.Graph, dist map[state.Node]int, prev map[state.Node]state.Node) string {
	nh := spf.NextHops(self, prev)
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Dest", "Cost", "Next Hop", "Path"})
	for _, dst := range g.Nodes() {
		if dst == self {
			continue
		}
		cost := "inf"
		if d, ok := dist[dst]; ok {
			cost = strconv.Itoa(d)
		}
		hop := ""
		if h, ok := nh[dst]; ok {
			hop = string(h)
		}
		table.Append([]string{string(dst), cost, hop, fmt.Sprint(spf.Path(self, dst, prev))})
	}
	table.Render()
	return buf.String()
}
