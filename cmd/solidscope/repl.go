package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gookit/color"
	"github.com/peterh/liner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/timewinder-dev/solidscope/model"
)

const (
	historyFile = ".solidscope_history"
	promptMain  = "solidscope> "
)

var replCmd = &cobra.Command{
	Use:   "repl [RUNFILE]",
	Short: "Interactive prompt over a persistent file frame",
	Long:  "Each line is an assignment, a module instantiation or an expression. With RUNFILE its definitions and assignments are loaded first. :dump prints the file frame, :stack the active frames, :quit exits.",
	Args:  cobra.MaximumNArgs(1),
	Run:   replCommand,
}

func replCommand(cmd *cobra.Command, args []string) {
	spec := &model.Spec{}
	if len(args) == 1 {
		var err error
		spec, err = model.LoadSpecFromFile(args[0])
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't load run file")
		}
	}
	exec, err := spec.BuildExecutor()
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't build executor")
	}
	exec.Reporter = &model.ColorReporter{Writer: os.Stdout}
	exec.KeepGoing = true
	if err := exec.Initialize(); err != nil {
		exec.Close()
		log.Fatal().Err(err).Msg("Couldn't initialize")
	}
	defer exec.Close()

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, color.Red.Sprint(err.Error()))
			return
		}
		src := strings.TrimSpace(line)
		if src == "" {
			continue
		}
		ln.AppendHistory(src)

		if strings.HasPrefix(src, ":") {
			switch strings.ToLower(src) {
			case ":quit", ":q":
				return
			case ":dump":
				fmt.Print(exec.File().Dump("repl"))
			case ":stack":
				fmt.Print(exec.Session.DumpStack())
			default:
				fmt.Println("unknown command. Type :dump, :stack or :quit.")
			}
			continue
		}

		out, err := exec.Exec(src)
		if err != nil {
			fmt.Fprintln(os.Stderr, color.Red.Sprint(err.Error()))
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
	}
}
