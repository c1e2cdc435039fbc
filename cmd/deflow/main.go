package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"deflow/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "deflow",
	Short: "Control-flow deobfuscator for compiled modules",
	Long: `deflow analyzes the block graph of each compiled method, folds the
opaque predicates an obfuscator planted at module initialization, routes
control flow around the decoy branches and dispatch loops they feed, and
writes the module back with its original linear control flow.`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().CountP("verbose", "v", "escalate diagnostics (summary, -v detail, -vv full dump)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
