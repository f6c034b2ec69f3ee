package cas

import (
	"bytes"
	"fmt"
	"io"

	"github.com/shamaton/msgpack/v2"
)

// CAS is a content addressed store of frame snapshots.
type CAS interface {
	Put(item Hashable) (Hash, error)
	Has(hash Hash) bool
	getValue(hash Hash) (bool, []byte, error)
}

type Serde interface {
	Serialize(w io.Writer) error
	Deserialize(r io.Reader) error
}

// Hashable is anything the store accepts. TypeTag selects the constructor
// used when reading the entry back.
type Hashable interface {
	Serde
	TypeTag() string
}

type Hash uint64

// TypedEntry wraps the serialized form of a Hashable with its type tag.
type TypedEntry struct {
	TypeTag string
	Data    []byte
}

func (t *TypedEntry) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, t)
}

func (t *TypedEntry) Deserialize(r io.Reader) error {
	return msgpack.UnmarshalRead(r, t)
}

var typeRegistry = map[string]func() Hashable{
	"FrameRef":  func() Hashable { return &FrameRef{} },
	"VectorRef": func() Hashable { return &VectorRef{} },
}

// Retrieve reads the entry stored under hash and decodes it as T.
func Retrieve[T Hashable](c CAS, hash Hash) (T, error) {
	var zero T
	has, data, err := c.getValue(hash)
	if err != nil {
		return zero, err
	}
	if !has {
		return zero, fmt.Errorf("hash not found in CAS: %d", hash)
	}

	entry := &TypedEntry{}
	if err := entry.Deserialize(bytes.NewReader(data)); err != nil {
		return zero, fmt.Errorf("deserializing TypedEntry: %w", err)
	}
	ctor, ok := typeRegistry[entry.TypeTag]
	if !ok {
		return zero, fmt.Errorf("unknown type tag: %s", entry.TypeTag)
	}
	instance := ctor()
	if err := instance.Deserialize(bytes.NewReader(entry.Data)); err != nil {
		return zero, fmt.Errorf("deserializing %s: %w", entry.TypeTag, err)
	}
	result, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("type mismatch: expected %T, got %T", zero, instance)
	}
	return result, nil
}

func encode(item Hashable) ([]byte, error) {
	var buf bytes.Buffer
	if err := item.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("serializing %s: %w", item.TypeTag(), err)
	}
	entry := &TypedEntry{TypeTag: item.TypeTag(), Data: buf.Bytes()}
	var out bytes.Buffer
	if err := entry.Serialize(&out); err != nil {
		return nil, fmt.Errorf("serializing TypedEntry: %w", err)
	}
	return out.Bytes(), nil
}
