package cmd

import (
	"fmt"

	"github.com/cottand/tsolve/internal/log"
	"github.com/cottand/tsolve/solver/fixture"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var RunCmd = &cobra.Command{
	Use:          "run FIXTURE.yaml...",
	Short:        "Run the queries of fixture files",
	RunE:         runRun,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var runQuiet *bool

func init() {
	runQuiet = RunCmd.Flags().BoolP("quiet", "q", false, "only print failing queries")
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := log.For("fixture")
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		f, w, err := lower(path)
		if err != nil {
			return errors.Wrapf(err, "could not lower %s", path)
		}
		if f.Name != "" {
			_, _ = fmt.Fprintf(out, "# %s (%s)\n", f.Name, path)
		} else {
			_, _ = fmt.Fprintf(out, "# %s\n", path)
		}

		results := w.Run()
		for _, r := range results {
			if *runQuiet && r.Pass {
				continue
			}
			_, _ = fmt.Fprintln(out, r)
		}
		if !fixture.Passed(results) {
			failed++
		}
		if failures := w.Universe.Failures(); len(failures) > 0 {
			logger.Warn("internal failures while running fixture", "path", path, "count", len(failures), "first", failures[0])
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d fixtures failed", failed, len(args))
	}
	return nil
}
