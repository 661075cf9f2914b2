package impl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castellic/rednet/mock"
	"github.com/castellic/rednet/protocol"
	"github.com/castellic/rednet/state"
)

func newInfoEnv(t *testing.T, from, to state.Node, ttl int, lsp *protocol.LSP) *protocol.Envelope {
	t.Helper()
	env, err := protocol.NewInfo(addrOf(from), addrOf(to), ttl, lsp)
	require.NoError(t, err)
	return env
}

func TestLsrBootstrapsFromStaticNeighbors(t *testing.T) {
	bus := mock.NewBus()
	s, _ := newTestState(t, bus, "N1", state.ModeLsr, mock.TriangleEdges())
	l := Get[*Lsr](s)

	nh, ok := l.NextHop("N2")
	require.True(t, ok)
	assert.Equal(t, state.Node("N2"), nh)
	nh, ok = l.NextHop("N3")
	require.True(t, ok)
	assert.Equal(t, state.Node("N3"), nh, "only the direct edge is known before any lsp")
}

func TestLsrConvergesOnCheaperPath(t *testing.T) {
	bus := mock.NewBus()
	s, _ := newTestState(t, bus, "N1", state.ModeLsr, mock.TriangleEdges())
	l := Get[*Lsr](s)

	lsp := &protocol.LSP{Origin: "N2", Seq: 1, Neighbors: map[state.Node]int{"N1": 10, "N3": 14}}
	require.NoError(t, l.HandleInfo(s, newInfoEnv(t, "N2", "N1", 5, lsp)))
	lsp = &protocol.LSP{Origin: "N3", Seq: 1, Neighbors: map[state.Node]int{"N1": 30, "N2": 14}}
	require.NoError(t, l.HandleInfo(s, newInfoEnv(t, "N3", "N1", 5, lsp)))

	nh, ok := l.NextHop("N3")
	require.True(t, ok)
	assert.Equal(t, state.Node("N2"), nh, "N1-N2-N3 at 24 beats the direct 30 edge")
	assert.Equal(t, 24, l.dist["N3"])
}

func TestLsrRejectsStaleSequence(t *testing.T) {
	bus := mock.NewBus()
	s, _ := newTestState(t, bus, "N1", state.ModeLsr, mock.TriangleEdges())
	l := Get[*Lsr](s)

	newer := &protocol.LSP{Origin: "N2", Seq: 2, Neighbors: map[state.Node]int{"N1": 10}}
	require.NoError(t, l.HandleInfo(s, newInfoEnv(t, "N2", "N1", 5, newer)))
	stale := &protocol.LSP{Origin: "N2", Seq: 1, Neighbors: map[state.Node]int{"N1": 99, "N3": 1}}
	require.NoError(t, l.HandleInfo(s, newInfoEnv(t, "N2", "N1", 5, stale)))

	assert.Equal(t, map[state.Node]int{"N1": 10}, l.lsdb["N2"])
	assert.Equal(t, uint64(2), l.lastSeq["N2"])

	// equal sequence is a duplicate, also dropped
	dup := &protocol.LSP{Origin: "N2", Seq: 2, Neighbors: map[state.Node]int{"N1": 99}}
	require.NoError(t, l.HandleInfo(s, newInfoEnv(t, "N2", "N1", 5, dup)))
	assert.Equal(t, map[state.Node]int{"N1": 10}, l.lsdb["N2"])
}

func TestLsrDropsMalformedPayload(t *testing.T) {
	bus := mock.NewBus()
	s, _ := newTestState(t, bus, "N1", state.ModeLsr, mock.TriangleEdges())
	l := Get[*Lsr](s)
	tap := listen(t, bus, "N3")

	env := &protocol.Envelope{
		Kind:    protocol.KindInfo,
		Proto:   protocol.ProtoLsr,
		From:    addrOf("N2"),
		To:      addrOf("N1"),
		TTL:     5,
		Payload: []byte(`{"unrelated": true}`),
	}
	require.NoError(t, l.HandleInfo(s, env))
	assert.Empty(t, l.lsdb)
	assert.Empty(t, l.lastSeq)
	expectNone(t, tap)
}

func TestLsrRefloodsExceptSender(t *testing.T) {
	bus := mock.NewBus()
	s, _ := newTestState(t, bus, "N1", state.ModeLsr, mock.TriangleEdges())
	l := Get[*Lsr](s)
	tap2 := listen(t, bus, "N2")
	tap3 := listen(t, bus, "N3")

	lsp := &protocol.LSP{Origin: "N2", Seq: 1, Neighbors: map[state.Node]int{"N1": 10, "N3": 14}}
	env := newInfoEnv(t, "N2", "N1", 5, lsp)
	require.NoError(t, l.HandleInfo(s, env))

	expectNone(t, tap2)
	fwd := recvEnv(t, tap3)
	assert.Equal(t, env.ID, fwd.ID, "re-flood keeps the originator's message id")
	assert.Equal(t, 4, fwd.TTL)
	assert.Equal(t, protocol.ProtoLsr, fwd.Proto)
	relayed, err := protocol.DecodeLSP(fwd.Payload)
	require.NoError(t, err)
	assert.Equal(t, state.Node("N2"), relayed.Origin)
	assert.Equal(t, uint64(1), relayed.Seq)
}

func TestLsrNoRefloodWhenTTLSpent(t *testing.T) {
	bus := mock.NewBus()
	s, _ := newTestState(t, bus, "N1", state.ModeLsr, mock.TriangleEdges())
	l := Get[*Lsr](s)
	tap3 := listen(t, bus, "N3")

	lsp := &protocol.LSP{Origin: "N2", Seq: 1, Neighbors: map[state.Node]int{"N1": 10}}
	require.NoError(t, l.HandleInfo(s, newInfoEnv(t, "N2", "N1", 1, lsp)))

	assert.Contains(t, l.lsdb, state.Node("N2"), "the lsp is still absorbed")
	expectNone(t, tap3)
}

func TestLsrOriginatesToEveryNeighbor(t *testing.T) {
	bus := mock.NewBus()
	s, _ := newTestState(t, bus, "N1", state.ModeLsr, mock.TriangleEdges())
	l := Get[*Lsr](s)
	tap2 := listen(t, bus, "N2")
	tap3 := listen(t, bus, "N3")

	require.NoError(t, originateLsp(s))
	require.NoError(t, originateLsp(s))
	assert.Equal(t, uint64(2), l.seq)

	for _, tap := range []struct {
		name string
		envs []*protocol.Envelope
	}{
		{"N2", drainEnvs(t, tap2)},
		{"N3", drainEnvs(t, tap3)},
	} {
		require.Len(t, tap.envs, 2, "neighbor %s", tap.name)
		lsp, err := protocol.DecodeLSP(tap.envs[1].Payload)
		require.NoError(t, err)
		assert.Equal(t, state.Node("N1"), lsp.Origin)
		assert.Equal(t, uint64(2), lsp.Seq)
		assert.Equal(t, map[state.Node]int{"N2": 10, "N3": 30}, lsp.Neighbors)
	}
}

func TestLsrDatabaseEntriesNeverAge(t *testing.T) {
	bus := mock.NewBus()
	s, _ := newTestState(t, bus, "N1", state.ModeLsr, mock.TriangleEdges())
	l := Get[*Lsr](s)

	for seq := uint64(1); seq <= 50; seq++ {
		lsp := &protocol.LSP{Origin: "N2", Seq: seq, Neighbors: map[state.Node]int{"N1": 10}}
		require.NoError(t, l.HandleInfo(s, newInfoEnv(t, "N2", "N1", 1, lsp)))
	}
	assert.Len(t, l.lsdb, 1)
	assert.Equal(t, uint64(50), l.lastSeq["N2"])
}
