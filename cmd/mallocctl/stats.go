package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/mallockit/alloc"
	"github.com/joshuapare/mallockit/trace"
)

var statsStop int

func init() {
	cmd := newStatsCmd()
	cmd.Flags().IntVar(&statsStop, "stop", 0, "Stop after this many operations (0 replays everything)")
	rootCmd.AddCommand(cmd)
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <trace>",
		Short: "Show allocator statistics for a trace",
		Long: `The stats command replays a trace and prints allocator counters, heap
usage and the occupancy of each size-class bucket. With --stop the heap is
inspected mid-trace, while blocks are still live.

Example:
  mallocctl stats traces/short1.rep
  mallocctl stats --stop 500 traces/binary.rep
  mallocctl stats --json traces/realloc.rep`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, args)
		},
	}
}

// StatsReport is the JSON form of the stats command.
type StatsReport struct {
	Trace         string      `json:"trace"`
	Ops           int         `json:"ops"`
	Counters      alloc.Stats `json:"counters"`
	Usage         alloc.Usage `json:"usage"`
	Utilization   float64     `json:"utilization"`
	Fragmentation float64     `json:"fragmentation"`
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	tr, err := trace.ParseFile(args[0])
	if err != nil {
		return err
	}
	if statsStop > 0 && statsStop < len(tr.Ops) {
		tr.Ops = tr.Ops[:statsStop]
	}

	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.close(cmd.Context()) }()

	if _, err := trace.Replay(cmd.Context(), s, tr, trace.Options{Logger: logger}); err != nil {
		return err
	}

	u := s.Usage()
	if jsonOut {
		return printJSON(cmd, StatsReport{
			Trace:         tr.Name,
			Ops:           len(tr.Ops),
			Counters:      s.Stats(),
			Usage:         u,
			Utilization:   u.Utilization(),
			Fragmentation: u.Fragmentation(),
		})
	}

	printInfo(cmd, "Trace: %s (%d ops)\n", tr.Name, len(tr.Ops))
	if !quiet {
		s.PrintStats(cmd.OutOrStdout())
	}
	return nil
}
