package impl

import (
	"github.com/castellic/rednet/perf"
	"github.com/castellic/rednet/protocol"
	"github.com/castellic/rednet/spf"
	"github.com/castellic/rednet/state"
)

// Lsr implements sequence-numbered link-state routing: periodic LSP
// origination, LSDB merge under monotonic sequence acceptance, and SPF
// recomputation over the union graph. LSDB entries are never aged out;
// that matches the protocol being simulated.
type Lsr struct {
	local    map[state.Node]int
	lsdb     map[state.Node]map[state.Node]int
	lastSeq  map[state.Node]uint64
	seq      uint64
	nextHops map[state.Node]state.Node
	dist     map[state.Node]int
}

func (l *Lsr) Init(s *state.State) error {
	s.Log.Debug("init lsr")
	l.local = map[state.Node]int{}
	for nbr, w := range s.Neighbors {
		l.local[nbr] = w
	}
	l.lsdb = map[state.Node]map[state.Node]int{}
	l.lastSeq = map[state.Node]uint64{}

	// bootstrap routes from the static local view so forwarding works
	// before the first LSP arrives
	l.recompute(s)

	if s.Mode == state.ModeLsr {
		s.RepeatTask(originateLsp, state.LspInterval)
	}
	return nil
}

func (l *Lsr) Cleanup(s *state.State) error {
	return nil
}

// NextHop exposes the current routing decision for data forwarding.
func (l *Lsr) NextHop(dest state.Node) (state.Node, bool) {
	nh, ok := l.nextHops[dest]
	return nh, ok
}

func originateLsp(s *state.State) error {
	l := Get[*Lsr](s)
	l.seq++
	lsp := &protocol.LSP{Origin: s.Id, Seq: l.seq, Neighbors: l.local}
	for nbr := range l.local {
		env, err := protocol.NewInfo(s.SelfAddress(), state.AddressForDest(nbr, s.Group), s.TTL, lsp)
		if err != nil {
			return err
		}
		publishTo(s, nbr, env)
	}
	return nil
}

// HandleInfo merges one inbound LSP. Malformed payloads and stale or
// duplicate sequence numbers are dropped with no state change.
func (l *Lsr) HandleInfo(s *state.State, env *protocol.Envelope) error {
	lsp, err := protocol.DecodeLSP(env.Payload)
	if err != nil {
		s.Log.Debug("dropping malformed lsp", "from", env.From, "err", err.Error())
		perf.DroppedPerSec.Add(1)
		return nil
	}
	if last, ok := l.lastSeq[lsp.Origin]; ok && lsp.Seq <= last {
		if state.DBG_log_router {
			s.Log.Debug("dropping stale lsp", "origin", lsp.Origin, "seq", lsp.Seq, "last", last)
		}
		return nil
	}

	l.lastSeq[lsp.Origin] = lsp.Seq
	row := make(map[state.Node]int, len(lsp.Neighbors))
	for nbr, w := range lsp.Neighbors {
		row[nbr] = w
	}
	l.lsdb[lsp.Origin] = row
	l.recompute(s)

	// re-flood everywhere except where it came from
	from := state.NodeOf(env.From)
	ttl := env.TTL - 1
	if ttl <= 0 {
		return nil
	}
	for nbr := range l.local {
		if nbr == from {
			continue
		}
		fwd, err := protocol.NewInfo(s.SelfAddress(), state.AddressForDest(nbr, s.Group), ttl, lsp)
		if err != nil {
			return err
		}
		fwd.ID = env.ID
		publishTo(s, nbr, fwd)
	}
	return nil
}

// recompute rebuilds the union graph from the LSDB, seeds our own row
// from the static neighbor map while the database is still sparse, and
// replaces the next-hop table wholesale.
func (l *Lsr) recompute(s *state.State) {
	g := state.Graph{}
	for origin, nbrs := range l.lsdb {
		for nbr, w := range nbrs {
			g.AddEdge(origin, nbr, w)
		}
	}
	if _, ok := g[s.Id]; !ok {
		for nbr, w := range l.local {
			g.AddEdge(s.Id, nbr, w)
		}
	}
	perf.SpfRunsPerSec.Add(1)
	dist, prev := spf.Compute(g, s.Id)
	l.dist = dist
	l.nextHops = spf.NextHops(s.Id, prev)
	if state.DBG_log_route_table {
		s.Log.Info("lsr routing table\n" + renderRouteTable(s.Id, g, dist, prev))
	}
}
