//go:build integration

package integration

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/castellic/rednet/core"
	"github.com/castellic/rednet/impl"
	"github.com/castellic/rednet/mock"
	"github.com/castellic/rednet/protocol"
	"github.com/castellic/rednet/state"
	"github.com/castellic/rednet/transport"
)

// Harness runs a whole simulated network over one in-memory bus, each
// node on its own goroutine the way the real process runs one.
type Harness struct {
	Central state.CentralCfg
	Nodes   []state.NodeCfg
	Bus     *mock.Bus
	States  []*state.State

	errs chan error
}

func NewHarness(mode state.Mode, edges []string) *Harness {
	ccfg, nodes := mock.MockCfg(edges)
	for i := range nodes {
		nodes[i].Mode = mode
		// tighten the clocks so tests converge in seconds
		nodes[i].HelloPeriod = 1
		nodes[i].HelloMisses = 3
		nodes[i].StableThreshold = 2
	}
	return &Harness{Central: ccfg, Nodes: nodes, Bus: mock.NewBus()}
}

func (h *Harness) Start(t *testing.T) {
	t.Helper()
	h.States = make([]*state.State, len(h.Nodes))
	h.errs = make(chan error, len(h.Nodes))
	ready := make(chan *state.State, len(h.Nodes))
	for i := range h.Nodes {
		go func() {
			h.errs <- core.Start(h.Central, h.Nodes[i], slog.LevelWarn, h.Bus, ready)
		}()
	}
	for range h.Nodes {
		select {
		case s := <-ready:
			for i, n := range h.Nodes {
				if n.Id == s.Id {
					h.States[i] = s
				}
			}
		case err := <-h.errs:
			t.Fatalf("node failed during startup: %v", err)
		case <-time.After(10 * time.Second):
			t.Fatal("nodes did not start in time")
		}
	}
	for i := range h.Nodes {
		// a round trip through the dispatch loop means the main loop
		// is live and the node is subscribed
		_, err := h.States[i].DispatchWait(func(*state.State) (any, error) { return nil, nil })
		require.NoError(t, err)
	}
}

func (h *Harness) Stop(t *testing.T) {
	t.Helper()
	for _, s := range h.States {
		if s != nil {
			s.Cancel(context.Canceled)
		}
	}
	for range h.Nodes {
		select {
		case err := <-h.errs:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("a node did not stop in time")
		}
	}
	h.Bus.Close()
}

// StopNode kills one node mid-test; Stop still collects its exit.
func (h *Harness) StopNode(id state.Node) {
	s := h.State(id)
	s.Cancel(context.Canceled)
}

func (h *Harness) State(id state.Node) *state.State {
	for i, n := range h.Nodes {
		if n.Id == id {
			return h.States[i]
		}
	}
	return nil
}

// NextHop reads a node's current routing decision on its own dispatch
// goroutine, whichever protocol the node runs.
func (h *Harness) NextHop(t *testing.T, id, dest state.Node) (state.Node, bool) {
	t.Helper()
	s := h.State(id)
	res, err := s.DispatchWait(func(st *state.State) (any, error) {
		var nh state.Node
		var ok bool
		if st.Mode == state.ModeLsr {
			nh, ok = impl.Get[*impl.Lsr](st).NextHop(dest)
		} else {
			nh, ok = impl.Get[*impl.Adjacency](st).NextHop(dest)
		}
		return state.Pair[state.Node, bool]{V1: nh, V2: ok}, nil
	})
	require.NoError(t, err)
	pair := res.(state.Pair[state.Node, bool])
	return pair.V1, pair.V2
}

// HasSeen reports whether a node's router marked the message id.
func (h *Harness) HasSeen(t *testing.T, id state.Node, msgID string) bool {
	t.Helper()
	s := h.State(id)
	res, err := s.DispatchWait(func(st *state.State) (any, error) {
		_, seen := impl.Get[*impl.Router](st).Seen[msgID]
		return seen, nil
	})
	require.NoError(t, err)
	return res.(bool)
}

// Inject publishes an envelope straight onto a node's channel, playing
// the role of the wire sender named in the envelope.
func (h *Harness) Inject(t *testing.T, to state.Node, env *protocol.Envelope) {
	t.Helper()
	data, err := env.Encode()
	require.NoError(t, err)
	require.NoError(t, h.Bus.Publish(context.Background(), channelOf(to), data))
}

// Tap adds an extra subscriber on a node's channel; the node still
// receives everything, the mock bus fans out to all subscribers.
func (h *Harness) Tap(t *testing.T, node state.Node) transport.Sub {
	t.Helper()
	sub, err := h.Bus.Subscribe(context.Background(), channelOf(node))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })
	return sub
}

func channelOf(node state.Node) string {
	return state.AddressOf(node, state.GroupForNode(node, "test1"))
}

// waitFor polls cond until it holds or the timeout passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// recvMatching reads a tap until an envelope satisfies pred, discarding
// protocol chatter along the way.
func recvMatching(t *testing.T, sub transport.Sub, timeout time.Duration, pred func(*protocol.Envelope) bool) *protocol.Envelope {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case data, ok := <-sub.Messages():
			require.True(t, ok, "subscription closed")
			env, err := protocol.Decode(data)
			if err != nil {
				continue
			}
			if pred(env) {
				return env
			}
		case <-deadline:
			t.Fatal("timed out waiting for a matching message")
			return nil
		}
	}
}
