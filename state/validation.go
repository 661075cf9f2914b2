package state

import (
	"fmt"
	"slices"
)

var validModes = []Mode{ModeDijkstra, ModeFlooding, ModeLsr}

func NodeIdValidator(n Node) error {
	if !n.Valid() {
		return fmt.Errorf("%s is not a valid node id, must match pattern %s", n, nodePattern.String())
	}
	return nil
}

func NodeConfigValidator(cfg *NodeCfg) error {
	if err := NodeIdValidator(cfg.Id); err != nil {
		return err
	}
	if cfg.Group == "" {
		return fmt.Errorf("node.Group must not be empty")
	}
	if !slices.Contains(validModes, cfg.Mode) {
		return fmt.Errorf("%s is not a valid mode, must be one of %v", cfg.Mode, validModes)
	}
	for nbr, w := range cfg.Neighbors {
		if err := NodeIdValidator(nbr); err != nil {
			return err
		}
		if nbr == cfg.Id {
			return fmt.Errorf("node %s must not neighbor itself", cfg.Id)
		}
		if w <= 0 {
			return fmt.Errorf("weight of edge %s-%s must be positive, got %d", cfg.Id, nbr, w)
		}
	}
	return nil
}

func CentralConfigValidator(cfg *CentralCfg) error {
	if cfg.Redis.Addr == "" {
		return fmt.Errorf("redis.Addr must not be empty")
	}
	seen := make([]Pair[Node, Node], 0)
	for _, line := range cfg.Edges {
		g := ParseTopology(line)
		if len(g) == 0 {
			return fmt.Errorf("edge %q does not match N<i>-N<j>:<weight>", line)
		}
		for u, nbrs := range g {
			for v, w := range nbrs {
				if u == v {
					return fmt.Errorf("self edge found: %s", u)
				}
				if w <= 0 {
					return fmt.Errorf("weight of edge %s-%s must be positive, got %d", u, v, w)
				}
				edge := Pair[Node, Node]{u, v}
				if slices.Contains(seen, edge) {
					return fmt.Errorf("duplicate edge found: %s, %s", u, v)
				}
				seen = append(seen, edge)
			}
		}
	}
	return nil
}
