package impl

import (
	"github.com/castellic/rednet/perf"
	"github.com/castellic/rednet/protocol"
	"github.com/castellic/rednet/state"
	"github.com/castellic/rednet/transport"
)

// Router owns the per-node composition: the subscribe loop, the
// dispatch by message kind and protocol, the seen-id set shared with
// the flooding strategy, and shortest-path data forwarding.
type Router struct {
	// Seen grows for the lifetime of the node; the protocol carries no
	// eviction for forwarded ids.
	Seen  map[string]struct{}
	Graph state.Graph

	sub transport.Sub
}

func (r *Router) Init(s *state.State) error {
	s.Log.Debug("init router")
	r.Seen = map[string]struct{}{}
	r.Graph = s.CentralCfg.Topology()

	sub, err := s.Bus.Subscribe(s.Context, s.SelfAddress())
	if err != nil {
		return err
	}
	r.sub = sub
	s.Log.Info("listening", "channel", s.SelfAddress(), "mode", s.Mode)
	go receiveLoop(s.Env, sub)
	return nil
}

func (r *Router) Cleanup(s *state.State) error {
	if r.sub != nil {
		return r.sub.Close()
	}
	return nil
}

// receiveLoop decodes raw transport payloads and hands them to the
// state goroutine one at a time. Undecodable payloads are dropped.
func receiveLoop(e *state.Env, sub transport.Sub) {
	for {
		select {
		case data, ok := <-sub.Messages():
			if !ok {
				return
			}
			perf.InboundPerSec.Add(1)
			env, err := protocol.Decode(data)
			if err != nil {
				perf.DroppedPerSec.Add(1)
				e.Log.Debug("dropping undecodable message", "err", err.Error())
				continue
			}
			e.Dispatch(func(s *state.State) error {
				return Get[*Router](s).dispatch(s, env)
			})
		case <-e.Context.Done():
			return
		}
	}
}

// dispatch routes one inbound envelope by (kind, protocol). The ttl is
// checked once here; expired messages never reach a handler.
func (r *Router) dispatch(s *state.State, env *protocol.Envelope) error {
	if state.DBG_log_inbound {
		s.Log.Debug("inbound", "type", env.Kind, "proto", env.Proto, "from", env.From, "ttl", env.TTL)
	}
	if env.TTL <= 0 {
		perf.DroppedPerSec.Add(1)
		return nil
	}

	switch env.Kind {
	case protocol.KindHello:
		if s.Mode == state.ModeDijkstra {
			return Get[*Adjacency](s).HandleHello(s, env)
		}
		return r.echoHello(s, env)
	case protocol.KindMessage:
		switch env.Proto {
		case protocol.ProtoFlooding:
			return Get[*Flooding](s).Handle(s, r, env)
		case "":
			// a bare message is an adjacency announcement of the
			// baseline protocol
			if s.Mode == state.ModeDijkstra {
				return Get[*Adjacency](s).HandleTopology(s, env)
			}
			return nil
		default:
			return r.forwardData(s, env)
		}
	case protocol.KindInfo:
		if env.Proto == protocol.ProtoLsr {
			return Get[*Lsr](s).HandleInfo(s, env)
		}
		perf.DroppedPerSec.Add(1)
		return nil
	default:
		perf.DroppedPerSec.Add(1)
		return nil
	}
}

// echoHello answers hellos in modes where no adjacency bookkeeping
// runs. Replies are marked so two echoing nodes do not ping-pong.
func (r *Router) echoHello(s *state.State, env *protocol.Envelope) error {
	if state.NodeOf(env.To) != s.Id {
		return nil
	}
	if echo, ok := env.Headers.Get("echo"); ok {
		if b, isBool := echo.(bool); isBool && b {
			return nil
		}
	}
	w, ok := env.EdgeWeight()
	if !ok {
		w = 1
	}
	reply := protocol.NewHello(s.SelfAddress(), env.From, w)
	reply.Headers = reply.Headers.Append("echo", true)
	publish(s, env.From, reply)
	return nil
}

// forwardData moves a data message one hop along the shortest path.
func (r *Router) forwardData(s *state.State, env *protocol.Envelope) error {
	dest := state.NodeOf(env.To)
	if dest == s.Id || env.To == s.SelfAddress() {
		s.Log.Info("message delivered", "id", env.ID, "from", env.From, "payload", string(env.Payload))
		return nil
	}

	nh, ok := r.lookupNextHop(s, dest)
	if !ok {
		s.Log.Warn("no route to destination, dropping", "dest", dest, "id", env.ID)
		perf.NoRoutePerSec.Add(1)
		return nil
	}

	fwd := *env
	fwd.TTL = env.TTL - 1
	if fwd.TTL <= 0 {
		perf.DroppedPerSec.Add(1)
		return nil
	}
	fwd.Headers = env.Headers.Append("via", string(s.Id))
	publishTo(s, nh, &fwd)
	return nil
}

// lookupNextHop consults the table of whichever protocol is active.
func (r *Router) lookupNextHop(s *state.State, dest state.Node) (state.Node, bool) {
	if s.Mode == state.ModeLsr {
		return Get[*Lsr](s).NextHop(dest)
	}
	return Get[*Adjacency](s).NextHop(dest)
}
