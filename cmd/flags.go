package cmd

import (
	"log/slog"

	"github.com/cottand/tsolve/internal/log"
	"github.com/cottand/tsolve/solver"
	"github.com/cottand/tsolve/solver/fixture"
	"github.com/spf13/cobra"
)

var (
	logLevel *int
	sections *[]string
	strict   *bool
)

// AddGlobalFlags registers the flags shared by every subcommand on root
func AddGlobalFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	logLevel = flags.IntP("log-level", "l", int(slog.LevelError), "log level")
	sections = flags.StringSliceP("sections", "s", nil, "only log these sections, such as solver.judge or solver")
	strict = flags.Bool("strict", false, "force strictNullChecks and strictFunctionTypes on, whatever the fixture says")
	root.PersistentPreRun = func(*cobra.Command, []string) {
		log.SetLevel(slog.Level(*logLevel))
		if len(*sections) > 0 {
			log.EnableSections(*sections...)
		}
	}
}

func lower(path string) (*fixture.Fixture, *fixture.World, error) {
	f, err := fixture.Load(path)
	if err != nil {
		return nil, nil, err
	}
	var overrides []func(*solver.Options)
	if *strict {
		overrides = append(overrides, func(o *solver.Options) {
			o.StrictNullChecks = true
			o.StrictFunctionTypes = true
		})
	}
	w, err := f.Lower(overrides...)
	if err != nil {
		return f, nil, err
	}
	return f, w, nil
}
