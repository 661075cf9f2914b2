package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castellic/rednet/state"
)

func recv(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestPublishSubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, "sec30.test1.nodo1")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, "sec30.test1.nodo1", []byte("hola")))
	assert.Equal(t, []byte("hola"), recv(t, sub.Messages()))
}

func TestPublishOnlyMatchingChannel(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	ctx := context.Background()

	s1, _ := bus.Subscribe(ctx, "ch1")
	s2, _ := bus.Subscribe(ctx, "ch2")

	require.NoError(t, bus.Publish(ctx, "ch1", []byte("x")))
	assert.Equal(t, []byte("x"), recv(t, s1.Messages()))

	select {
	case msg := <-s2.Messages():
		t.Fatalf("unexpected message on ch2: %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFanOutToAllSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	ctx := context.Background()

	s1, _ := bus.Subscribe(ctx, "ch")
	s2, _ := bus.Subscribe(ctx, "ch")

	require.NoError(t, bus.Publish(ctx, "ch", []byte("y")))
	assert.Equal(t, []byte("y"), recv(t, s1.Messages()))
	assert.Equal(t, []byte("y"), recv(t, s2.Messages()))
}

func TestSubCloseStopsDelivery(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	ctx := context.Background()

	sub, _ := bus.Subscribe(ctx, "ch")
	require.NoError(t, sub.Close())

	_, open := <-sub.Messages()
	assert.False(t, open)
	require.NoError(t, bus.Publish(ctx, "ch", []byte("z")))
}

func TestBusCloseIsIdempotent(t *testing.T) {
	bus := NewBus()
	sub, _ := bus.Subscribe(context.Background(), "ch")
	bus.Close()
	bus.Close()
	require.NoError(t, sub.Close())
}

func TestDuplicateDelivery(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	bus.Duplicate = 1.0
	ctx := context.Background()

	sub, _ := bus.Subscribe(ctx, "ch")
	require.NoError(t, bus.Publish(ctx, "ch", []byte("dup")))

	assert.Equal(t, []byte("dup"), recv(t, sub.Messages()))
	assert.Equal(t, []byte("dup"), recv(t, sub.Messages()))
}

func TestDropDelivery(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	bus.Drop = 1.0
	ctx := context.Background()

	sub, _ := bus.Subscribe(ctx, "ch")
	require.NoError(t, bus.Publish(ctx, "ch", []byte("gone")))

	select {
	case msg := <-sub.Messages():
		t.Fatalf("dropped message was delivered: %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMockCfg(t *testing.T) {
	central, nodes := MockCfg(TriangleEdges())

	require.Len(t, nodes, 3)
	g := central.Topology()
	assert.Equal(t, 10, g["N1"]["N2"])

	for _, n := range nodes {
		assert.NoError(t, state.NodeConfigValidator(&n))
		assert.Equal(t, g.NeighborsOf(n.Id), n.Neighbors)
	}
}

func TestLineEdges(t *testing.T) {
	central, nodes := MockCfg(LineEdges(4))
	require.Len(t, nodes, 4)

	g := central.Topology()
	assert.Len(t, g["N1"], 1)
	assert.Len(t, g["N2"], 2)
	assert.Equal(t, 1, g["N3"]["N4"])
}
