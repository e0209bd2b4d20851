package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/mallockit/internal/telemetry"
	"github.com/joshuapare/mallockit/trace"
)

var (
	replayCheckHeap bool
	replayNoData    bool
	replaySpans     bool
)

func init() {
	cmd := newReplayCmd()
	cmd.Flags().BoolVar(&replayCheckHeap, "check-heap", false, "Verify the whole heap after every operation")
	cmd.Flags().BoolVar(&replayNoData, "no-data-check", false, "Skip payload pattern verification")
	cmd.Flags().BoolVar(&replaySpans, "spans", false, "Write OpenTelemetry spans to stderr")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <trace>...",
		Short: "Replay allocation traces",
		Long: `The replay command runs each trace against a fresh heap, checking that
every payload is aligned, inside the heap and disjoint from live payloads, and
that contents survive a resize. It reports peak utilization and throughput.

Example:
  mallocctl replay traces/short1.rep traces/realloc.rep
  mallocctl replay --check-heap --json traces/*.rep
  mallocctl replay -c mallocctl.yaml traces/binary.rep`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, args)
		},
	}
}

// ReplaySummary is the aggregate of a replay run.
type ReplaySummary struct {
	Traces      []*trace.Result `json:"traces"`
	Utilization float64         `json:"utilization"` // Weighted mean
	Throughput  float64         `json:"throughput"`  // Total ops / total time
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if replaySpans {
		if _, err := telemetry.Init("mallocctl", version, cmd.ErrOrStderr()); err != nil {
			return err
		}
		defer func() { _ = telemetry.Shutdown(cmd.Context()) }()
	}

	s, err := newSession(cfg)
	if err != nil {
		return err
	}

	var (
		summary   ReplaySummary
		weightSum int
		utilSum   float64
		totalOps  int
		totalTime time.Duration
	)
	for i, path := range args {
		tr, err := trace.ParseFile(path)
		if err != nil {
			_ = s.close(cmd.Context())
			return err
		}
		if i > 0 {
			if err := s.reset(); err != nil {
				_ = s.close(cmd.Context())
				return err
			}
		}

		printVerbose(cmd, "Replaying %s (%d ops, %d ids)\n", tr.Name, len(tr.Ops), tr.NumIDs)
		res, err := trace.Replay(cmd.Context(), s, tr, trace.Options{
			CheckData: !replayNoData,
			CheckHeap: replayCheckHeap,
			Logger:    logger,
		})
		if err != nil {
			_ = s.close(cmd.Context())
			return err
		}

		summary.Traces = append(summary.Traces, res)
		weightSum += tr.Weight
		utilSum += float64(tr.Weight) * res.Utilization
		totalOps += res.Ops
		totalTime += res.Elapsed
	}
	if err := s.close(cmd.Context()); err != nil {
		return err
	}

	if weightSum > 0 {
		summary.Utilization = utilSum / float64(weightSum)
	}
	if totalTime > 0 {
		summary.Throughput = float64(totalOps) / totalTime.Seconds()
	}

	if jsonOut {
		return printJSON(cmd, summary)
	}

	printInfo(cmd, "%-20s %10s %10s %12s %8s %14s\n", "trace", "ops", "heap", "peak", "util", "ops/sec")
	for _, r := range summary.Traces {
		printInfo(cmd, "%-20s %10d %10d %12d %7.1f%% %14.0f\n",
			r.Name, r.Ops, r.HeapSize, r.PeakPayload, 100*r.Utilization, r.Throughput)
	}
	printInfo(cmd, "%-20s %10d %10s %12s %7.1f%% %14.0f\n",
		"total", totalOps, "", "", 100*summary.Utilization, summary.Throughput)
	return nil
}
