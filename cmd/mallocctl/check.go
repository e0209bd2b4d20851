package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/joshuapare/mallockit/alloc"
	"github.com/joshuapare/mallockit/trace"
)

func init() {
	rootCmd.AddCommand(newCheckCmd())
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <trace>...",
		Short: "Verify heap consistency after every operation",
		Long: `The check command replays each trace with the full consistency checker
enabled after every operation: boundary tags, coalescing, free-list links and
bucket membership. It stops at the first violation and names the operation.

Example:
  mallocctl check traces/*.rep
  mallocctl check --json traces/realloc.rep`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args)
		},
	}
}

// CheckReport is one trace's outcome.
type CheckReport struct {
	Trace     string `json:"trace"`
	OK        bool   `json:"ok"`
	Op        int    `json:"op,omitempty"`
	Invariant string `json:"invariant,omitempty"`
	Error     string `json:"error,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.close(cmd.Context()) }()

	var (
		reports []CheckReport
		failed  int
	)
	for i, path := range args {
		tr, err := trace.ParseFile(path)
		if err != nil {
			return err
		}
		if i > 0 {
			if err := s.reset(); err != nil {
				return err
			}
		}

		rep := CheckReport{Trace: tr.Name, OK: true}
		_, err = trace.Replay(cmd.Context(), s, tr, trace.Options{CheckData: true, CheckHeap: true, Logger: logger})
		if err != nil {
			rep.OK = false
			rep.Error = err.Error()
			failed++

			var re *trace.ReplayError
			if errors.As(err, &re) {
				rep.Op = re.Index
			}
			var ce *alloc.CheckError
			if errors.As(err, &ce) {
				rep.Invariant = string(ce.Invariant)
			}
		}
		reports = append(reports, rep)
	}

	if jsonOut {
		if err := printJSON(cmd, reports); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			if r.OK {
				printInfo(cmd, "ok    %s\n", r.Trace)
				continue
			}
			printInfo(cmd, "FAIL  %s: %s\n", r.Trace, r.Error)
		}
	}

	if failed > 0 {
		return errors.Errorf("%d of %d traces failed", failed, len(reports))
	}
	return nil
}
