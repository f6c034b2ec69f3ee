package cas

import (
	"io"

	"github.com/shamaton/msgpack/v2"
)

// Vectors with at least this many elements are stored as their own entry and
// referenced by hash.
const MinVectorSizeForRef = 5

// ValueKind tags the variant held by a ValueRef.
type ValueKind uint8

const (
	KindUndef ValueKind = iota
	KindBool
	KindNumber
	KindString
	KindVector
	KindVectorRef
	KindRange
	KindFunction
)

// ValueRef is the stored form of a vm.Value. Only the fields relevant to
// Kind are set.
type ValueRef struct {
	Kind  ValueKind
	Bool  bool
	Num   float64
	Str   string
	Items []ValueRef
	Ref   Hash
	Range [3]float64
}

// BindingRef is one named binding, kept in the frame's insertion order.
type BindingRef struct {
	Name  string
	Value ValueRef
}

// FrameRef is the stored form of an interp.Frame. The parent is referenced by
// hash so frames sharing an ancestor share its entry.
type FrameRef struct {
	Kind      int
	Name      string
	HasParent bool
	Parent    Hash
	Variables []BindingRef
	Config    []BindingRef
}

func (f *FrameRef) TypeTag() string { return "FrameRef" }

func (f *FrameRef) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, f)
}

func (f *FrameRef) Deserialize(r io.Reader) error {
	return msgpack.UnmarshalRead(r, f)
}

// VectorRef holds the elements of a large vector.
type VectorRef struct {
	Elements []ValueRef
}

func (v *VectorRef) TypeTag() string { return "VectorRef" }

func (v *VectorRef) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, v)
}

func (v *VectorRef) Deserialize(r io.Reader) error {
	return msgpack.UnmarshalRead(r, v)
}
