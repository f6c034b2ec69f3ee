package interp

// noCopy lets go vet flag handles copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Handle ties a frame's activation to the lifetime of a construct. While the
// handle is live its frame is the innermost entry of the session's active
// stack. Handles must be closed in reverse order of entry, normally with
// defer:
//
//	h := interp.Enter(interp.NewFrame(parent))
//	defer h.Close()
type Handle struct {
	noCopy noCopy
	frame  *Frame
}

// Enter runs the frame's init hook and then pushes it, so self-references
// set up by init exist before anything can observe the frame.
func Enter(f *Frame) *Handle {
	f.init()
	f.session.pushFrame(f)
	return &Handle{frame: f}
}

// Frame returns the wrapped frame, or nil once the handle is closed or moved.
func (h *Handle) Frame() *Frame {
	return h.frame
}

// Close pops the frame. Closing an inert handle does nothing; closing out of
// order panics with a StackImbalanceError.
func (h *Handle) Close() {
	if h == nil || h.frame == nil {
		return
	}
	f := h.frame
	h.frame = nil
	f.session.popFrame(f)
}

// Move transfers the stack slot to a new handle without touching the stack.
// h becomes inert.
func (h *Handle) Move() *Handle {
	out := &Handle{frame: h.frame}
	h.frame = nil
	return out
}

// Rebind replaces the wrapped frame in place: the old frame is popped and f
// is pushed, keeping the nesting depth. h must own the innermost entry.
func (h *Handle) Rebind(f *Frame) {
	if h.frame == nil || f.session != h.frame.session {
		panic(&StackImbalanceError{Op: "rebind", Depth: f.session.Depth()})
	}
	s := h.frame.session
	s.popFrame(h.frame)
	f.init()
	h.frame = f
	s.pushFrame(f)
	s.logger.Trace().Int("depth", s.Depth()).Str("name", f.Name).Msg("rebind frame")
}
