package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/castellic/rednet/protocol"
	"github.com/castellic/rednet/state"
)

var (
	sendProto string
	sendTTL   int
	sendGroup string
)

// sendCmd injects a data message into the running network by publishing
// it to the first hop's channel.
var sendCmd = &cobra.Command{
	Use:   "send <from> <to> <payload>",
	Short: "Inject a data message into the network",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to := state.Node(args[0]), state.Node(args[1])
		if !from.Valid() || !to.Valid() {
			return fmt.Errorf("from and to must be node ids of the form N<k>")
		}

		centralCfg, err := readCentralConfig(centralConfigPath)
		if err != nil {
			return err
		}
		if err := state.CentralConfigValidator(centralCfg); err != nil {
			return err
		}
		if centralCfg.Prefix != "" {
			state.AddressPrefix = centralCfg.Prefix
		}

		proto := protocol.Proto(sendProto)
		if proto != protocol.ProtoDijkstra && proto != protocol.ProtoFlooding && proto != protocol.ProtoLsr {
			return fmt.Errorf("%s is not a valid protocol", sendProto)
		}
		if sendTTL <= 0 {
			sendTTL = state.DefaultTTL
		}

		group := state.GroupForNode(from, sendGroup)
		env, err := protocol.NewData(proto, state.AddressOf(from, group), state.AddressForDest(to, group), sendTTL, args[2])
		if err != nil {
			return err
		}
		data, err := env.Encode()
		if err != nil {
			return err
		}

		bus, err := preflight(centralCfg.Redis)
		if err != nil {
			return err
		}
		defer bus.Close()

		// hand the message to the origin node, which forwards it on
		if err := bus.Publish(context.Background(), state.AddressOf(from, group), data); err != nil {
			return err
		}
		fmt.Printf("sent %s message %s: %s -> %s\n", proto, env.ID, from, to)
		return nil
	},
	GroupID: "node",
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVar(&sendProto, "proto", string(protocol.ProtoDijkstra), "Forwarding protocol: dijkstra, flooding or lsr")
	sendCmd.Flags().IntVar(&sendTTL, "ttl", 0, "Initial time-to-live (defaults to the protocol default)")
	sendCmd.Flags().StringVar(&sendGroup, "group", "grupo0", "Group naming scheme, numeric suffix is derived per node")
}
