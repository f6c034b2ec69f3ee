package main

import (
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/timewinder-dev/solidscope/model"
)

var (
	keepGoing bool
	traceFlag bool
	treeFlag  bool
	defines   []string
	maxDepth  int
)

var runCmd = &cobra.Command{
	Use:   "run RUNFILE",
	Short: "Evaluate a run file",
	Args:  cobra.ExactArgs(1),
	Run:   runCommand,
}

func init() {
	runCmd.Flags().BoolVar(&keepGoing, "keep-going", false, "Keep running sibling statements after a statement fails")
	runCmd.Flags().BoolVar(&traceFlag, "trace", false, "Record a snapshot of every frame and print them after the run")
	runCmd.Flags().BoolVar(&treeFlag, "tree", true, "Print the instantiated node tree")
	runCmd.Flags().StringArrayVarP(&defines, "define", "D", nil, "Override a top-level variable, name=expr (repeatable)")
	runCmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Maximum active frame depth before recursion is reported (0 uses the default)")
}

func runCommand(cmd *cobra.Command, args []string) {
	spec, err := model.LoadSpecFromFile(args[0])
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't load run file")
	}
	exec, err := spec.BuildExecutor()
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't build executor for run file")
	}
	exec.KeepGoing = keepGoing
	exec.Trace = traceFlag
	exec.Defines = defines
	exec.MaxDepth = maxDepth
	exec.Reporter = &model.ColorReporter{Writer: os.Stdout}

	if err := exec.Initialize(); err != nil {
		exec.Close()
		log.Fatal().Err(err).Msg("Couldn't initialize run")
	}
	defer exec.Close()

	result, runErr := exec.RunModel()
	if result == nil {
		log.Fatal().Err(runErr).Msg("Run failed to produce a result")
	}
	if treeFlag {
		for _, n := range result.Nodes {
			fmt.Print(model.FormatNode(n))
		}
	}
	if len(result.Diagnostics) > 0 {
		fmt.Fprint(os.Stderr, model.FormatDiagnostics(result.Diagnostics))
	}
	if traceFlag {
		fmt.Fprint(os.Stderr, model.FormatTrace(exec))
	}
	fmt.Fprint(os.Stderr, model.FormatStatistics(result.Statistics))

	if result.Success {
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, color.Green.Sprint("✓ Run completed without errors"))
		return
	}
	exec.Close()
	os.Exit(1)
}
