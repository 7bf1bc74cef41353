package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/encodeous/rankd/core"
	"github.com/encodeous/rankd/state"
	"github.com/encodeous/rankd/transport"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Runs the manager against simulated neighbours and prints the table as it evolves",
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("neighbours")
		responders, _ := cmd.Flags().GetInt("responders")
		loss, _ := cmd.Flags().GetFloat64("loss")
		duration, _ := cmd.Flags().GetDuration("duration")
		every, _ := cmd.Flags().GetDuration("print")
		verbose, _ := cmd.Flags().GetBool("verbose")

		cfg := state.DefaultNodeCfg("demo")
		cfg.DiagBind = ""
		cfg.Transport = state.TransportCfg{
			Type:  state.TransportSim,
			Loss:  loss,
			Delay: 20 * time.Millisecond,
		}
		for i := 1; i <= count; i++ {
			id := state.NodeId(fmt.Sprintf("Node%d", i))
			cfg.Neighbours = append(cfg.Neighbours, id)
			if i <= responders {
				cfg.Transport.Responders = append(cfg.Transport.Responders, id)
			}
		}
		if responders < 0 || responders >= count {
			cfg.Transport.Responders = nil
		} else if responders == 0 {
			cfg.Transport.Loss = 1
		}
		err := state.NodeConfigValidator(&cfg)
		if err != nil {
			return err
		}

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger, logFile, err := core.NewLogger(cfg, level)
		if err != nil {
			return err
		}
		defer logFile.Close()

		env := state.NewEnv(context.Background(), cfg, logger)
		sim := transport.NewSim(cfg.Transport, logger)
		m := core.NewManager(env, sim)
		sim.Attach(m)
		for _, n := range cfg.Neighbours {
			m.AddOrUpdate(n)
		}
		fmt.Print(core.FormatTable(m.Snapshot()))

		m.Start()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		deadline := time.After(duration)
	loop:
		for {
			select {
			case <-ticker.C:
				fmt.Print(core.FormatTable(m.Snapshot()))
			case <-deadline:
				break loop
			}
		}

		m.Stop()
		m.Wait()
		err = sim.Close()
		if err != nil {
			return err
		}
		fmt.Print(core.FormatTable(m.Snapshot()))
		logger.Info("Program exited cleanly.", "sent", sim.Sent.Load(), "dropped", sim.Dropped.Load())
		return nil
	},
	GroupID: "rk",
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().IntP("neighbours", "n", 50, "number of simulated neighbours")
	demoCmd.Flags().IntP("responders", "r", 2, "only the first r neighbours answer probes, -1 for all")
	demoCmd.Flags().Float64P("loss", "p", 0, "probe loss probability")
	demoCmd.Flags().DurationP("duration", "d", 40*time.Second, "how long to run")
	demoCmd.Flags().Duration("print", 5*time.Second, "table print interval")
	demoCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
}
