package state

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Node is a logical node identifier of the form "N<k>".
type Node string

var (
	nodePattern  = regexp.MustCompile(`^N([0-9]+)$`)
	groupPattern = regexp.MustCompile(`[0-9]+$`)
)

func MakeNode(k int) Node {
	return Node(fmt.Sprintf("N%d", k))
}

// Index returns the numeric part of the id, or -1 if the id is malformed.
func (n Node) Index() int {
	m := nodePattern.FindStringSubmatch(string(n))
	if m == nil {
		return -1
	}
	k, err := strconv.Atoi(m[1])
	if err != nil {
		return -1
	}
	return k
}

func (n Node) Valid() bool {
	return n.Index() >= 0
}

// GroupForNode derives the group of another node from our own group by
// swapping the trailing number: ("N5", "grupo3") -> "grupo5".
func GroupForNode(node Node, myGroup string) string {
	base := groupPattern.ReplaceAllString(myGroup, "")
	return fmt.Sprintf("%s%d", base, node.Index())
}

// AddressOf maps a node id to its transport channel:
// "N3" -> "sec30.<group>.nodo3".
func AddressOf(node Node, group string) string {
	return fmt.Sprintf("%s.%s.nodo%d", AddressPrefix, group, node.Index())
}

// AddressForDest addresses the destination's own channel, deriving its
// group from ours.
func AddressForDest(node Node, myGroup string) string {
	return AddressOf(node, GroupForNode(node, myGroup))
}

// NodeOf reverses AddressOf: "sec30.<group>.nodo3" -> "N3". Inputs that
// do not look like a channel address are assumed to already be logical
// ids and are returned unchanged.
func NodeOf(addr string) Node {
	last := addr
	if i := strings.LastIndex(addr, "."); i >= 0 {
		last = addr[i+1:]
	}
	num, ok := strings.CutPrefix(last, "nodo")
	if !ok {
		return Node(addr)
	}
	k, err := strconv.Atoi(num)
	if err != nil {
		return Node(addr)
	}
	return MakeNode(k)
}
