package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/encodeous/rankd/core"
	"github.com/encodeous/rankd/state"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:     "inspect [diag address]",
	Aliases: []string{"i"},
	Short:   "Inspects the neighbour table of a running rankd",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bind := state.DefaultDiagBind
		if len(args) == 1 {
			bind = args[0]
		} else if cfg, err := state.ReadNodeConfig(configPath); err == nil && cfg.DiagBind != "" {
			bind = cfg.DiagBind
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		snap, err := core.FetchSnapshot(ctx, bind)
		if err != nil {
			return err
		}
		fmt.Print(core.FormatTable(*snap))
		return nil
	},
	GroupID: "rk",
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
