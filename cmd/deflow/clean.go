package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"deflow/internal/asmfile"
	"deflow/internal/deob"
	"deflow/internal/diag"
	"deflow/internal/observ"
)

var (
	cleanOutDir string
	cleanJobs   int
)

func init() {
	cleanCmd.Flags().StringVarP(&cleanOutDir, "out", "o", "", "directory for cleaned modules (default: next to input)")
	cleanCmd.Flags().IntVar(&cleanJobs, "jobs", 0, "modules to process in parallel (default: number of CPUs)")
}

var cleanCmd = &cobra.Command{
	Use:   "clean <module" + asmfile.Ext + ">...",
	Short: "Deobfuscate the control flow of every method in the given modules",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetCount("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")
	timings, _ := cmd.Flags().GetBool("timings")
	colorMode, _ := cmd.Flags().GetString("color")

	manifest, haveManifest, err := loadProjectManifest(".")
	if err != nil {
		return err
	}
	if haveManifest {
		if cleanOutDir == "" {
			cleanOutDir = manifest.Config.Output.Dir
		}
		if cleanJobs == 0 {
			cleanJobs = manifest.Config.Clean.Jobs
		}
		if verbose == 0 {
			verbose = manifest.Config.Clean.Verbose
		}
	}

	level := diag.FromVerbosity(verbose)
	if quiet {
		level = diag.LevelQuiet
	}
	colorize := shouldColorize(colorMode)

	jobs := cleanJobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	// Modules are independent; each gets its own context and logger, and
	// within a module the pipeline stays single-threaded.
	var mu sync.Mutex
	var failed []string
	var g errgroup.Group
	g.SetLimit(jobs)

	for _, path := range args {
		path := path
		g.Go(func() error {
			var buf bytes.Buffer
			err := cleanFile(path, &buf, level, colorize, timings)
			mu.Lock()
			defer mu.Unlock()
			os.Stdout.Write(buf.Bytes())
			if err != nil {
				fmt.Fprintf(os.Stderr, "deflow: %s: %v\n", path, err)
				failed = append(failed, path)
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d modules failed", len(failed), len(args))
	}
	return nil
}

func cleanFile(path string, out *bytes.Buffer, level diag.Level, colorize, timings bool) error {
	timer := observ.NewTimer()

	phase := timer.Begin("load")
	mod, err := asmfile.Load(path)
	if err != nil {
		return err
	}
	timer.End(phase, fmt.Sprintf("%d methods", mod.MethodCount()))

	log := diag.New(out, level, colorize)

	phase = timer.Begin("scan")
	ctx := deob.NewContext(mod, log)
	timer.End(phase, fmt.Sprintf("%d opaque fields", ctx.Opaque.Len()))

	phase = timer.Begin("clean")
	stats := ctx.CleanModule()
	timer.End(phase, fmt.Sprintf("%d rewritten", stats.Rewritten))

	dst := outputPath(path)
	phase = timer.Begin("save")
	if err := asmfile.Save(dst, mod); err != nil {
		return err
	}
	timer.End(phase, "")

	if timings {
		out.WriteString(timer.Summary())
	}
	return nil
}

func outputPath(in string) string {
	base := strings.TrimSuffix(filepath.Base(in), asmfile.Ext) + ".clean" + asmfile.Ext
	if cleanOutDir != "" {
		return filepath.Join(cleanOutDir, base)
	}
	return filepath.Join(filepath.Dir(in), base)
}

func shouldColorize(mode string) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(os.Stdout)
	}
}
