//go:build !(js && wasm)

package main

import (
	"os"

	"github.com/cottand/tsolve/cmd"
	"github.com/spf13/cobra"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "tsolve [subcommand]",
	Short:        "tsolve\n a structural type solver for TypeScript-like types",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	cmd.AddGlobalFlags(rootCmd)
	rootCmd.AddCommand(cmd.RunCmd)
	rootCmd.AddCommand(cmd.DumpCmd)
}
