package cmd

import (
	"fmt"
	"os"

	"github.com/encodeous/rankd/state"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [id] [neighbour...]",
	Short: "Create a node configuration",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := state.DefaultNodeCfg(state.NodeId(args[0]))
		for _, n := range args[1:] {
			cfg.Neighbours = append(cfg.Neighbours, state.NodeId(n))
		}
		transport, _ := cmd.Flags().GetString("transport")
		cfg.Transport.Type = transport
		iface, _ := cmd.Flags().GetString("interface")
		cfg.Transport.Interface = iface
		discovery, _ := cmd.Flags().GetBool("discover")
		if discovery {
			cfg.Discovery = state.DiscoveryCfg{Type: state.DiscoveryNetlink, Interface: iface}
		}
		cfg.ApplyDefaults()

		err := state.NodeConfigValidator(&cfg)
		if err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(configPath); err == nil && !force {
			return fmt.Errorf("%s already exists, use --force to overwrite it", configPath)
		}
		err = state.WriteNodeConfig(configPath, cfg)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", configPath)
		return nil
	},
	GroupID: "init",
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringP("transport", "t", state.TransportSim, "probe transport, sim, icmp or arp")
	initCmd.Flags().StringP("interface", "i", "", "network interface used by the arp transport and discovery")
	initCmd.Flags().Bool("discover", false, "learn neighbours from the kernel neighbour table")
	initCmd.Flags().BoolP("force", "f", false, "overwrite an existing config")
}
