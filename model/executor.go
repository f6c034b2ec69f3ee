package model

import (
	"fmt"
	"time"

	"github.com/timewinder-dev/solidscope/cas"
	"github.com/timewinder-dev/solidscope/interp"
	"github.com/timewinder-dev/solidscope/vm"
)

// An Executor is the context and entrypoint for running a spec
type Executor struct {
	Spec           *Spec
	Defs           *interp.Definitions
	Config         *vm.ValueMap
	Variables      *vm.ValueMap
	Assignments    []interp.Assignment
	Echoes         []Statement
	Instantiations []*interp.Instantiation

	// Defines are name=expr overrides applied after the file's assignments.
	Defines []string
	// KeepGoing continues with sibling statements after a failure.
	KeepGoing bool
	// Trace records a snapshot of every frame as it closes.
	Trace    bool
	MaxDepth int
	Reporter Reporter

	Session  *interp.Session
	Recorder *cas.FrameRecorder
	Store    *cas.LRUCache

	builtins *interp.Handle
	file     *interp.Handle
	result   *Result
	started  time.Time
}

type Result struct {
	Success     bool
	Echoes      []string
	Nodes       []*interp.Node
	Diagnostics []Diagnostic
	Statistics  RunStatistics
}

// Diagnostic is a failed top-level statement.
type Diagnostic struct {
	Statement string
	Err       error
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %v", d.Statement, d.Err)
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

type RunStatistics struct {
	Statements  int
	Nodes       int
	Echoes      int
	Diagnostics int
	Snapshots   int
	StoreHits   int
	Duration    time.Duration
}

// Initialize opens the session, enters the builtin and file frames and runs
// the top-level assignments followed by any defines.
func (e *Executor) Initialize() error {
	if e.Session != nil {
		return fmt.Errorf("executor already initialized")
	}
	if e.Reporter == nil {
		e.Reporter = &SilentReporter{}
	}
	e.started = time.Now()
	e.result = &Result{}

	root := ""
	if e.Spec != nil {
		root = e.Spec.Spec.DocumentRoot
	}
	e.Session = interp.NewSession(root)
	if e.MaxDepth > 0 {
		e.Session.MaxDepth = e.MaxDepth
	}
	e.Session.Echo = e.echo
	if e.Trace {
		e.Store = cas.NewLRUCache(cas.NewMemoryCAS(), 0)
		e.Recorder = cas.NewFrameRecorder(e.Store)
		e.Session.Recorder = e.Recorder
	}
	log := e.Session.Logger()
	log.Debug().Str("document_root", root).Bool("trace", e.Trace).Msg("initializing")

	e.builtins = interp.Enter(interp.NewBuiltinFrame(e.Session))
	defs := e.Defs
	if defs == nil {
		defs = interp.NewDefinitions()
	}
	e.file = interp.Enter(interp.NewFileFrame(e.builtins.Frame(), defs))
	file := e.file.Frame()

	config := vm.NewValueMap()
	for _, name := range []string{"$fn", "$fa", "$fs", "$t", "$preview"} {
		config.Set(name, DefaultConfig[name])
	}
	config.Merge(e.Config)
	file.ApplyConfigMap(config)
	file.ApplyVariables(e.Variables)

	for _, a := range e.Assignments {
		if err := e.statement("assignment to "+a.Name, assign(file, a)); err != nil {
			return err
		}
	}
	if err := applyDefines(file, e.Defines); err != nil {
		return err
	}
	return nil
}

// statement records err as a diagnostic. It returns err when the run must
// stop.
func (e *Executor) statement(src string, err error) error {
	e.result.Statistics.Statements++
	if err == nil {
		return nil
	}
	d := Diagnostic{Statement: src, Err: err}
	e.result.Diagnostics = append(e.result.Diagnostics, d)
	e.Session.Logger().Debug().Err(err).Str("statement", src).Msg("statement failed")
	if e.KeepGoing {
		return nil
	}
	return d
}

func (e *Executor) echo(msg string) {
	e.result.Echoes = append(e.result.Echoes, msg)
	e.Reporter.Printf("ECHO: %s\n", msg)
}

// File returns the file frame statements run in.
func (e *Executor) File() *interp.Frame {
	return e.file.Frame()
}

// RunModel evaluates the top-level echoes and then the instantiations. With
// KeepGoing unset the first failure ends the run and is returned alongside
// the partial result.
func (e *Executor) RunModel() (*Result, error) {
	if e.Session == nil {
		return nil, fmt.Errorf("executor not initialized")
	}
	file := e.File()
	for _, st := range e.Echoes {
		v, err := interp.Eval(file, st.Expr)
		if err == nil {
			e.echo(vm.FormatValue(v))
		}
		if err := e.statement(st.Src, err); err != nil {
			return e.finish(), err
		}
	}
	for _, inst := range e.Instantiations {
		node, err := inst.Instantiate(file)
		if err == nil {
			e.result.Nodes = append(e.result.Nodes, node)
		}
		if err := e.statement(inst.String(), err); err != nil {
			return e.finish(), err
		}
	}
	return e.finish(), nil
}

func (e *Executor) finish() *Result {
	r := e.result
	r.Success = len(r.Diagnostics) == 0
	r.Statistics.Nodes = countNodes(r.Nodes)
	r.Statistics.Echoes = len(r.Echoes)
	r.Statistics.Diagnostics = len(r.Diagnostics)
	if e.Recorder != nil {
		r.Statistics.Snapshots = len(e.Recorder.History())
		r.Statistics.StoreHits = e.Store.Stats().Hits
	}
	r.Statistics.Duration = time.Since(e.started)
	return r
}

func countNodes(nodes []*interp.Node) int {
	n := len(nodes)
	for _, c := range nodes {
		n += countNodes(c.Children)
	}
	return n
}

// Close leaves the file and builtin frames and ends the session.
func (e *Executor) Close() {
	if e.Session == nil {
		return
	}
	e.file.Close()
	e.builtins.Close()
	e.Session.Close()
}
