package cas

import (
	"sync"

	"github.com/timewinder-dev/solidscope/interp"
)

// FrameRecorder snapshots every frame as its handle closes it. History holds
// the snapshot hashes in close order.
type FrameRecorder struct {
	Store CAS

	mu      sync.Mutex
	history []Hash
	err     error
}

func NewFrameRecorder(store CAS) *FrameRecorder {
	return &FrameRecorder{Store: store}
}

// RecordFrame implements interp.Recorder. A failed snapshot is logged and
// kept for Err; it never interrupts evaluation.
func (r *FrameRecorder) RecordFrame(f *interp.Frame) {
	h, err := Decompose(r.Store, f)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		if r.err == nil {
			r.err = err
		}
		f.Session().Logger().Warn().Err(err).Str("frame", f.Name).Msg("frame snapshot failed")
		return
	}
	r.history = append(r.history, h)
}

func (r *FrameRecorder) History() []Hash {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Hash, len(r.history))
	copy(out, r.history)
	return out
}

// Err returns the first snapshot failure, if any.
func (r *FrameRecorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
