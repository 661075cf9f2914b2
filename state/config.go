package state

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Mode selects the routing protocol a node runs.
type Mode string

const (
	ModeDijkstra Mode = "dijkstra"
	ModeFlooding Mode = "flooding"
	ModeLsr      Mode = "lsr"
)

type RedisCfg struct {
	Addr     string
	Password string `yaml:",omitempty"`
	DB       int    `yaml:",omitempty"`
}

// CentralCfg is the network-global configuration shared by all nodes.
type CentralCfg struct {
	Prefix string `yaml:",omitempty"` // address prefix, defaults to sec30
	Redis  RedisCfg
	Edges  []string // "N1-N2:10" lines describing the static topology
}

// Topology materializes the configured edges as a symmetric graph.
func (c *CentralCfg) Topology() Graph {
	return ParseTopology(strings.Join(c.Edges, " "))
}

// NodeCfg is the node-local configuration.
type NodeCfg struct {
	Id        Node
	Group     string
	Neighbors map[Node]int
	Mode      Mode

	HelloPeriod     int    `yaml:"hello_period,omitempty"`
	HelloMisses     int    `yaml:"hello_misses,omitempty"`
	RemoteAge       int    `yaml:"remote_age,omitempty"`
	StableThreshold int    `yaml:"stable_threshold,omitempty"`
	TTL             int    `yaml:"ttl,omitempty"`
	LogPath         string `yaml:"log_path,omitempty"`
}

func (c *NodeCfg) HelloInterval() time.Duration {
	return time.Duration(c.HelloPeriod) * time.Second
}

// ExpandNodeConfig fills unset fields with the protocol defaults.
func ExpandNodeConfig(c *NodeCfg) {
	if c.Mode == "" {
		c.Mode = ModeDijkstra
	}
	if c.HelloPeriod <= 0 {
		c.HelloPeriod = DefaultHelloPeriod
	}
	if c.HelloMisses <= 0 {
		c.HelloMisses = DefaultHelloMisses
	}
	if c.RemoteAge <= 0 {
		c.RemoteAge = DefaultRemoteAge
	}
	if c.StableThreshold <= 0 {
		c.StableThreshold = DefaultStableThreshold
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
}

// ParseNeighbors parses the flag form "N2:10,N5:14".
func ParseNeighbors(s string) (map[Node]int, error) {
	out := map[Node]int{}
	for _, part := range strings.Split(strings.ReplaceAll(s, " ", ""), ",") {
		if part == "" {
			continue
		}
		id, weight, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("neighbor %q must be of the form N<k>:<weight>", part)
		}
		w, err := strconv.Atoi(weight)
		if err != nil {
			return nil, fmt.Errorf("neighbor %q has a non-numeric weight", part)
		}
		out[Node(id)] = w
	}
	return out, nil
}
