package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var DefaultConfigPath = "node.yaml"

var configPath = DefaultConfigPath

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rankd",
	Short: "rankd neighbour reachability and rank daemon",
	Long: `rankd tracks directly reachable neighbours, measures their link cost (ETX) with probes,
evicts unreachable ones and selects the parent that minimises this node's rank.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "init",
		Title: "Initialize rankd",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "rk",
		Title: "rankd Commands",
	})
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", DefaultConfigPath, "node config")
}
