package cmd

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var DumpCmd = &cobra.Command{
	Use:          "dump FIXTURE.yaml NAME",
	Short:        "Print the definition of a declaration and its interned body",
	RunE:         runDump,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
}

var dumpEvaluated *bool

func init() {
	dumpEvaluated = DumpCmd.Flags().BoolP("evaluate", "e", false, "dump the evaluated body rather than the declared one")
}

func runDump(cmd *cobra.Command, args []string) error {
	path, name := args[0], args[1]
	_, w, err := lower(path)
	if err != nil {
		return errors.Wrapf(err, "could not lower %s", path)
	}
	id, ok := w.Lookup(name)
	if !ok {
		return errors.Errorf("%s declares no %q", path, name)
	}
	def, _ := w.Universe.Defs.Definition(id)
	body := w.Universe.Defs.ResolveLazy(id)
	if *dumpEvaluated {
		body = w.Universe.Evaluator().Evaluate(body)
	}
	shape, err := w.Universe.Types.Lookup(body)
	if err != nil {
		return errors.Wrapf(err, "body of %s", name)
	}

	config := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s %s = %s\n", def.Kind, name, w.Universe.Format(body))
	config.Fdump(out, def, shape)
	return nil
}
