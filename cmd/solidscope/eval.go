package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/timewinder-dev/solidscope/model"
)

var evalCmd = &cobra.Command{
	Use:   "eval EXPR...",
	Short: "Evaluate statements against the builtin environment",
	Long:  "Each argument is an assignment, a module instantiation or an expression. Statements share one file frame, so later ones see earlier assignments.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exec, err := (&model.Spec{}).BuildExecutor()
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't build executor")
		}
		exec.Reporter = &model.ColorReporter{Writer: cmd.OutOrStdout()}
		if err := exec.Initialize(); err != nil {
			log.Fatal().Err(err).Msg("Couldn't initialize")
		}
		defer exec.Close()
		for _, src := range args {
			out, err := exec.Exec(src)
			if err != nil {
				exec.Close()
				log.Fatal().Err(err).Str("statement", src).Msg("Evaluation failed")
			}
			if strings.TrimSpace(out) != "" {
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
		}
	},
}
