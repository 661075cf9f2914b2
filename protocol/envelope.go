package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/castellic/rednet/state"
)

// Kind is the message type tag. Dispatch happens on the typed value,
// never on the raw wire string.
type Kind string

const (
	KindHello   Kind = "hello"
	KindMessage Kind = "message"
	KindInfo    Kind = "info"
)

// Proto identifies the routing protocol a message belongs to.
type Proto string

const (
	ProtoDijkstra Proto = "dijkstra"
	ProtoFlooding Proto = "flooding"
	ProtoLsr      Proto = "lsr"
)

// Envelope is the wire message. Hello and topology messages carry the
// edge weight in the legacy "hops" field; data and info messages carry
// a ttl, ordered headers and an opaque payload.
type Envelope struct {
	ID        string          `json:"message_id,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
	Proto     Proto           `json:"proto,omitempty"`
	Kind      Kind            `json:"type"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	TTL       int             `json:"ttl,omitempty"`
	Hops      *int            `json:"hops,omitempty"`
	Headers   Headers         `json:"headers,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`

	// legacy aliases for the hops field, accepted on decode
	WeightAlt *int `json:"weight,omitempty"`
	WAlt      *int `json:"w,omitempty"`
}

// EdgeWeight coalesces the weight field across its legacy spellings.
func (e *Envelope) EdgeWeight() (int, bool) {
	for _, p := range []*int{e.Hops, e.WeightAlt, e.WAlt} {
		if p != nil {
			return *p, true
		}
	}
	return 0, false
}

func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses a raw transport payload. A missing ttl is interpreted
// as the configured default so control messages from older senders are
// not dropped by the pre-dispatch ttl check.
func Decode(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.Kind == "" {
		return nil, fmt.Errorf("message has no type")
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if _, ok := raw["ttl"]; !ok {
		e.TTL = state.DefaultTTL
	}
	return &e, nil
}

func NewHello(from, to string, weight int) *Envelope {
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().Unix(),
		Kind:      KindHello,
		From:      from,
		To:        to,
		Hops:      &weight,
	}
}

// NewTopology builds an adjacency announcement. From and To name the
// edge endpoints; the message is content, not addressed delivery.
func NewTopology(from, to string, weight int) *Envelope {
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().Unix(),
		Kind:      KindMessage,
		From:      from,
		To:        to,
		Hops:      &weight,
	}
}

func NewData(proto Proto, from, to string, ttl int, payload any) (*Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().Unix(),
		Proto:     proto,
		Kind:      KindMessage,
		From:      from,
		To:        to,
		TTL:       ttl,
		Payload:   body,
	}, nil
}

func NewInfo(from, to string, ttl int, lsp *LSP) (*Envelope, error) {
	body, err := json.Marshal(lsp)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().Unix(),
		Proto:     ProtoLsr,
		Kind:      KindInfo,
		From:      from,
		To:        to,
		TTL:       ttl,
		Payload:   body,
	}, nil
}
