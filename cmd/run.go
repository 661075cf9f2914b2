package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/castellic/rednet/core"
	"github.com/castellic/rednet/state"
	"github.com/castellic/rednet/transport"
)

var neighborsFlag string

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a node",
	Long:  `Runs one simulated node against the configured Redis transport until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		centralCfg, err := readCentralConfig(centralConfigPath)
		if err != nil {
			return err
		}
		nodeCfg, err := readNodeConfig(nodeConfigPath)
		if err != nil {
			return err
		}
		if neighborsFlag != "" {
			nodeCfg.Neighbors, err = state.ParseNeighbors(neighborsFlag)
			if err != nil {
				return err
			}
		}
		state.ExpandNodeConfig(nodeCfg)

		if err := state.CentralConfigValidator(centralCfg); err != nil {
			return err
		}
		if err := state.NodeConfigValidator(nodeCfg); err != nil {
			return err
		}

		level := slog.LevelInfo
		if ok, _ := cmd.Flags().GetBool("verbose"); ok {
			level = slog.LevelDebug
		}

		bus, err := preflight(centralCfg.Redis)
		if err != nil {
			// the one fatal startup condition
			return err
		}
		defer bus.Close()

		return core.Start(*centralCfg, *nodeCfg, level, bus, nil)
	},
	GroupID: "node",
}

// preflight resolves and pings the Redis server before the node starts.
func preflight(cfg state.RedisCfg) (*transport.RedisBus, error) {
	host, _, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("preflight: %q is not host:port: %w", cfg.Addr, err)
	}
	if _, err := net.LookupHost(host); err != nil {
		return nil, fmt.Errorf("preflight: cannot resolve %s: %w", host, err)
	}
	bus := transport.NewRedisBus(cfg.Addr, cfg.Password, cfg.DB)
	if err := bus.Ping(context.Background(), state.PreflightTimeout); err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("preflight: redis at %s did not answer: %w", cfg.Addr, err)
	}
	return bus, nil
}

func readCentralConfig(path string) (*state.CentralCfg, error) {
	var cfg state.CentralCfg
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readNodeConfig(path string) (*state.NodeCfg, error) {
	var cfg state.NodeCfg
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	runCmd.Flags().StringVar(&neighborsFlag, "neighbors", "", `Direct neighbors, e.g. "N2:10,N5:14" (overrides config)`)
	runCmd.Flags().BoolVarP(&state.DBG_log_inbound, "linbound", "i", false, "Write inbound messages to console")
	runCmd.Flags().BoolVarP(&state.DBG_log_publish, "lpublish", "p", false, "Write published messages to console")
	runCmd.Flags().BoolVarP(&state.DBG_log_router, "lroute", "r", false, "Write router decisions to console")
	runCmd.Flags().BoolVarP(&state.DBG_log_route_table, "ltable", "t", false, "Output route tables to the console")
}
