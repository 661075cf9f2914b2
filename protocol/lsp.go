package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/castellic/rednet/state"
)

// LSP is a link-state packet: one origin's direct neighbor costs,
// tagged with a monotonically increasing sequence number.
type LSP struct {
	Origin    state.Node         `json:"origin"`
	Seq       uint64             `json:"seq"`
	Neighbors map[state.Node]int `json:"neighbors"`
}

// DecodeLSP parses and validates an info payload. Payloads missing any
// required field are rejected.
func DecodeLSP(payload json.RawMessage) (*LSP, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty lsp payload")
	}
	var raw struct {
		Origin    *state.Node         `json:"origin"`
		Seq       *uint64             `json:"seq"`
		Neighbors *map[state.Node]int `json:"neighbors"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	if raw.Origin == nil || *raw.Origin == "" {
		return nil, fmt.Errorf("lsp has no origin")
	}
	if raw.Seq == nil {
		return nil, fmt.Errorf("lsp has no seq")
	}
	if raw.Neighbors == nil {
		return nil, fmt.Errorf("lsp has no neighbors")
	}
	return &LSP{Origin: *raw.Origin, Seq: *raw.Seq, Neighbors: *raw.Neighbors}, nil
}
