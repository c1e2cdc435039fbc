package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"deflow/internal/asmfile"
	"deflow/internal/cfg"
	"deflow/internal/deob"
	"deflow/internal/diag"
)

var (
	inspectClean  bool
	inspectMethod string
)

func init() {
	inspectCmd.Flags().BoolVar(&inspectClean, "clean", false, "run the pipeline before dumping")
	inspectCmd.Flags().StringVar(&inspectMethod, "method", "", "only dump methods whose full name contains this substring")
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <module" + asmfile.Ext + ">",
	Short: "Dump the block graph of every method body",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	mod, err := asmfile.Load(args[0])
	if err != nil {
		return err
	}

	if inspectClean {
		ctx := deob.NewContext(mod, diag.Nop())
		ctx.CleanModule()
	}

	out := cmd.OutOrStdout()
	for _, td := range mod.Types {
		for _, fn := range td.Methods {
			if fn.Body == nil || len(fn.Body.Instrs) == 0 {
				continue
			}
			name := fn.FullName()
			if inspectMethod != "" && !strings.Contains(name, inspectMethod) {
				continue
			}
			g, err := cfg.Build(fn.Body)
			if err != nil {
				fmt.Fprintf(os.Stderr, "deflow: %s: %v\n", name, err)
				continue
			}
			fmt.Fprintf(out, "fn %s:\n", name)
			if err := cfg.Dump(out, g); err != nil {
				return err
			}
		}
	}
	return nil
}
