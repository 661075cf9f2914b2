package impl

import (
	"reflect"

	"github.com/castellic/rednet/perf"
	"github.com/castellic/rednet/protocol"
	"github.com/castellic/rednet/state"
)

func Get[T state.Module](s *state.State) T {
	t := reflect.TypeFor[T]()
	return s.Modules[t.String()].(T)
}

// publish encodes the envelope and sends it on the given channel.
func publish(s *state.State, channel string, env *protocol.Envelope) {
	data, err := env.Encode()
	if err != nil {
		s.Log.Error("error while encoding message", "err", err.Error())
		return
	}
	if state.DBG_log_publish {
		s.Log.Debug("publish", "channel", channel, "type", env.Kind, "proto", env.Proto)
	}
	perf.PublishesPerSec.Add(1)
	if err := s.Bus.Publish(s.Context, channel, data); err != nil {
		s.Log.Warn("publish failed", "channel", channel, "err", err.Error())
	}
}

// publishTo addresses a node's own channel, deriving its group from ours.
func publishTo(s *state.State, node state.Node, env *protocol.Envelope) {
	publish(s, state.AddressForDest(node, s.Group), env)
}
