package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/castellic/rednet/spf"
	"github.com/castellic/rednet/state"
)

var topologyFile string

// routesCmd computes every node's routing table offline, the same
// computation each router performs once its view converges.
var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Compute all-pairs routing tables from a topology",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadGraph()
		if err != nil {
			return err
		}
		if len(g) == 0 {
			return fmt.Errorf("topology contains no edges")
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Source", "Dest", "Cost", "Next Hop", "Path"})
		for _, src := range g.Nodes() {
			dist, prev := spf.Compute(g, src)
			nh := spf.NextHops(src, prev)
			for _, dst := range g.Nodes() {
				if dst == src {
					continue
				}
				cost := "inf"
				if d, ok := dist[dst]; ok {
					cost = strconv.Itoa(d)
				}
				hop := ""
				if h, ok := nh[dst]; ok {
					hop = string(h)
				}
				table.Append([]string{string(src), string(dst), cost, hop, fmt.Sprint(spf.Path(src, dst, prev))})
			}
		}
		table.Render()
		return nil
	},
	GroupID: "topo",
}

// checkCmd lints a topology description.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a topology description",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadGraph()
		if err != nil {
			return err
		}
		edges := 0
		for _, nbrs := range g {
			edges += len(nbrs)
		}
		fmt.Printf("%d nodes, %d edges\n", len(g), edges/2)
		for _, n := range g.Nodes() {
			fmt.Printf("  %s: %d neighbors\n", n, len(g.NeighborsOf(n)))
		}
		return nil
	},
	GroupID: "topo",
}

func loadGraph() (state.Graph, error) {
	if topologyFile != "" {
		return state.LoadTopologyFile(topologyFile)
	}
	cfg, err := readCentralConfig(centralConfigPath)
	if err != nil {
		return nil, err
	}
	return cfg.Topology(), nil
}

func init() {
	rootCmd.AddCommand(routesCmd)
	rootCmd.AddCommand(checkCmd)
	routesCmd.Flags().StringVarP(&topologyFile, "topology", "f", "", "Topology file (N1-N2:10 per edge); defaults to the central config edges")
	checkCmd.Flags().StringVarP(&topologyFile, "topology", "f", "", "Topology file (N1-N2:10 per edge); defaults to the central config edges")
}
