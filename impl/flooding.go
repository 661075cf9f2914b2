package impl

import (
	"slices"

	"github.com/castellic/rednet/perf"
	"github.com/castellic/rednet/protocol"
	"github.com/castellic/rednet/state"
)

// Flooding forwards data messages to every neighbor except the one we
// got them from. Duplicate suppression lives in the Router's seen-id
// set, so any given message id is forwarded at most once per node.
type Flooding struct{}

func (f *Flooding) Init(s *state.State) error {
	s.Log.Debug("init flooding")
	return nil
}

func (f *Flooding) Cleanup(s *state.State) error {
	return nil
}

// Handle implements the flood step for one inbound message.
func (f *Flooding) Handle(s *state.State, r *Router, env *protocol.Envelope) error {
	if _, seen := r.Seen[env.ID]; seen {
		return nil
	}
	r.Seen[env.ID] = struct{}{}

	if state.NodeOf(env.To) == s.Id || env.To == s.SelfAddress() {
		s.Log.Info("message delivered", "id", env.ID, "from", env.From, "payload", string(env.Payload))
		return nil
	}

	folded := env.Headers.Fold()
	lastVia := lastHop(env, folded)
	path := headerPath(env, folded, s.Id)
	cost := headerCost(folded)

	neighbors := r.Graph.NeighborsOf(s.Id)
	fanout := make([]state.Node, 0, len(neighbors))
	for nb := range neighbors {
		if nb != lastVia {
			fanout = append(fanout, nb)
		}
	}
	slices.Sort(fanout)
	perf.FloodFanoutSize.Add(float64(len(fanout)))

	for _, nb := range fanout {
		fwd := *env
		fwd.TTL = env.TTL - 1
		if fwd.TTL <= 0 {
			continue
		}
		hopCost := cost
		if w, ok := neighbors[nb]; ok {
			hopCost += w
		}
		fwd.Headers = env.Headers.
			Append("via", string(s.Id)).
			Append("path", nodeStrings(path)).
			Append("cost", hopCost)
		publishTo(s, nb, &fwd)
	}

	if len(fanout) > 0 && state.DBG_log_router {
		s.Log.Debug("flooded", "dest", state.NodeOf(env.To), "fanout", fanout, "path", path, "seen", len(r.Seen))
	}
	return nil
}

// lastHop is the apparent sender: the via header when present, else the
// parsed origin of from.
func lastHop(env *protocol.Envelope, folded map[string]any) state.Node {
	if via, ok := folded["via"].(string); ok {
		return state.Node(via)
	}
	return state.NodeOf(env.From)
}

// headerPath reconstructs the accumulated path, seeding it from the
// message origin and appending self at most once.
func headerPath(env *protocol.Envelope, folded map[string]any, self state.Node) []state.Node {
	path := make([]state.Node, 0)
	if raw, ok := folded["path"].([]any); ok {
		for _, item := range raw {
			if n, ok := item.(string); ok {
				path = append(path, state.Node(n))
			}
		}
	}
	if len(path) == 0 {
		path = append(path, state.NodeOf(env.From))
	}
	if path[len(path)-1] != self {
		path = append(path, self)
	}
	return path
}

// headerCost reads the running cost sum; JSON numbers arrive as float64.
func headerCost(folded map[string]any) int {
	switch v := folded["cost"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func nodeStrings(nodes []state.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = string(n)
	}
	return out
}
