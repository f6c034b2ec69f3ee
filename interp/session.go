package interp

import (
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/solidscope/vm"
)

// DefaultMaxDepth bounds the active stack so runaway recursion in user
// functions surfaces as an error instead of exhausting the Go stack.
const DefaultMaxDepth = 5000

// Recorder is notified of every frame right before its handle pops it.
type Recorder interface {
	RecordFrame(f *Frame)
}

// Session is the per-run registry of active frames. Entries on the stack are
// not owners; handles and closures keep frames alive.
type Session struct {
	ID       uuid.UUID
	MaxDepth int
	Recorder Recorder
	// Echo receives formatted echo output. Nil logs it instead.
	Echo func(msg string)

	documentRoot string
	stack        []*Frame
	logger       zerolog.Logger
}

func NewSession(documentRoot string) *Session {
	id := uuid.New()
	return &Session{
		ID:           id,
		MaxDepth:     DefaultMaxDepth,
		documentRoot: documentRoot,
		logger:       log.With().Str("session", id.String()).Logger(),
	}
}

func (s *Session) DocumentRoot() string {
	return s.documentRoot
}

func (s *Session) SetDocumentRoot(root string) {
	s.documentRoot = root
}

// ResolvePath resolves a relative reference against the document root.
func (s *Session) ResolvePath(path string) string {
	if filepath.IsAbs(path) || s.documentRoot == "" {
		return path
	}
	return filepath.Join(s.documentRoot, path)
}

func (s *Session) Logger() *zerolog.Logger {
	return &s.logger
}

func (s *Session) pushFrame(f *Frame) {
	s.stack = append(s.stack, f)
	s.logger.Trace().Int("depth", len(s.stack)).Str("kind", f.kind.String()).Str("name", f.Name).Msg("push frame")
}

// popFrame removes f, which must be the innermost active frame.
func (s *Session) popFrame(f *Frame) {
	if len(s.stack) == 0 || s.stack[len(s.stack)-1] != f {
		panic(&StackImbalanceError{Op: "pop", Depth: len(s.stack)})
	}
	if s.Recorder != nil {
		s.Recorder.RecordFrame(f)
	}
	s.stack[len(s.stack)-1] = nil
	s.stack = s.stack[:len(s.stack)-1]
	s.logger.Trace().Int("depth", len(s.stack)).Str("kind", f.kind.String()).Str("name", f.Name).Msg("pop frame")
}

// Top returns the innermost active frame, or nil.
func (s *Session) Top() *Frame {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

func (s *Session) Depth() int {
	return len(s.stack)
}

// ActiveFrames returns a copy of the active stack, innermost last.
func (s *Session) ActiveFrames() []*Frame {
	out := make([]*Frame, len(s.stack))
	copy(out, s.stack)
	return out
}

// LookupSpecialVariable resolves a $-variable dynamically: the active stack
// is searched innermost first, consulting only each frame's local config
// variables.
func (s *Session) LookupSpecialVariable(name string, silent bool, loc vm.Location) (vm.Value, error) {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if v, ok := s.stack[i].configVariables.Get(name); ok {
			return v, nil
		}
	}
	if silent {
		return vm.Undef, nil
	}
	return vm.Undef, &LookupError{Kind: UndefinedVariable, Name: name, Loc: loc}
}

func (s *Session) echo(msg string) {
	if s.Echo != nil {
		s.Echo(msg)
		return
	}
	s.logger.Info().Msg("ECHO: " + msg)
}

// Close ends the session. Frames still on the active stack mean a handle was
// never closed, which is a bug in the caller.
func (s *Session) Close() {
	if len(s.stack) != 0 {
		panic(&StackImbalanceError{Op: "session teardown", Depth: len(s.stack)})
	}
	s.logger.Trace().Msg("session closed")
}
