package state

import (
	"context"
	"log/slog"

	"github.com/castellic/rednet/transport"
)

type Module interface {
	Init(s *State) error
	Cleanup(s *State) error
}

// State access must be done only on a single Goroutine
type State struct {
	*Env
	Modules map[string]Module
}

// Env can be read from any Goroutine
type Env struct {
	DispatchChannel chan<- func(s *State) error
	CentralCfg
	NodeCfg
	Bus     transport.Bus
	Context context.Context
	Cancel  context.CancelCauseFunc
	Log     *slog.Logger
}

// SelfAddress is the channel this node listens on.
func (e *Env) SelfAddress() string {
	return AddressOf(e.Id, e.Group)
}
