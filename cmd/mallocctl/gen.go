package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/joshuapare/mallockit/trace"
)

var genOpts struct {
	trace.GenerateOptions
	output string
}

func init() {
	cmd := newGenCmd()
	f := cmd.Flags()
	f.IntVarP(&genOpts.Ops, "ops", "n", 1000, "Number of operations")
	f.IntVar(&genOpts.MinSize, "min", 1, "Smallest request in bytes")
	f.IntVar(&genOpts.MaxSize, "max", 4096, "Largest request in bytes")
	f.Float64Var(&genOpts.ReallocRatio, "realloc", 0.1, "Share of operations that resize a live block")
	f.Float64Var(&genOpts.FreeRatio, "free", 0.35, "Share of operations that free a live block")
	f.Int64Var(&genOpts.Seed, "seed", 1, "Random seed")
	f.IntVar(&genOpts.Weight, "weight", 1, "Trace weight in aggregate scores")
	f.StringVarP(&genOpts.output, "output", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(cmd)
}

func newGenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen",
		Short: "Generate a random allocation trace",
		Long: `The gen command writes a random, valid trace. Ids are never reused and
every allocated id is freed before the trace ends.

Example:
  mallocctl gen -n 5000 --seed 7 -o random.rep
  mallocctl gen --min 8 --max 64 --realloc 0.3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(cmd)
		},
	}
}

func runGen(cmd *cobra.Command) error {
	if genOpts.MinSize <= 0 || genOpts.MaxSize < genOpts.MinSize {
		return errors.Errorf("invalid size range [%d, %d]", genOpts.MinSize, genOpts.MaxSize)
	}
	if genOpts.ReallocRatio+genOpts.FreeRatio >= 1 {
		return errors.Errorf("--realloc + --free must be below 1, got %v", genOpts.ReallocRatio+genOpts.FreeRatio)
	}

	tr := trace.Generate(genOpts.GenerateOptions)

	if genOpts.output == "" {
		_, err := tr.WriteTo(cmd.OutOrStdout())
		return err
	}

	f, err := os.Create(genOpts.output)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	if _, err := tr.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close output")
	}

	allocs, reallocs, frees := tr.Counts()
	logger.WithField("prefix", "gen").Infof("wrote %s", genOpts.output)
	printVerbose(cmd, "Wrote %s: %d ops (%d alloc, %d realloc, %d free), peak payload %d bytes\n",
		genOpts.output, len(tr.Ops), allocs, reallocs, frees, tr.SuggestedHeapSize)
	return nil
}
