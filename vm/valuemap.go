package vm

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// ValueMap is an insertion ordered name to value map. Overwriting a name
// keeps its original position.
type ValueMap struct {
	m *linkedhashmap.Map
}

func NewValueMap() *ValueMap {
	return &ValueMap{m: linkedhashmap.New()}
}

func (m *ValueMap) lazy() {
	if m.m == nil {
		m.m = linkedhashmap.New()
	}
}

func (m *ValueMap) Set(name string, v Value) {
	m.lazy()
	m.m.Put(name, v)
}

func (m *ValueMap) Get(name string) (Value, bool) {
	if m == nil || m.m == nil {
		return nil, false
	}
	v, ok := m.m.Get(name)
	if !ok {
		return nil, false
	}
	return v.(Value), true
}

func (m *ValueMap) Has(name string) bool {
	_, ok := m.Get(name)
	return ok
}

func (m *ValueMap) Delete(name string) {
	if m == nil || m.m == nil {
		return
	}
	m.m.Remove(name)
}

func (m *ValueMap) Len() int {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Size()
}

func (m *ValueMap) Keys() []string {
	if m == nil || m.m == nil {
		return nil
	}
	out := make([]string, 0, m.m.Size())
	for _, k := range m.m.Keys() {
		out = append(out, k.(string))
	}
	return out
}

// Each visits entries in insertion order.
func (m *ValueMap) Each(fn func(name string, v Value)) {
	if m == nil || m.m == nil {
		return
	}
	it := m.m.Iterator()
	for it.Next() {
		fn(it.Key().(string), it.Value().(Value))
	}
}

// Merge overwrites entries of m with every entry of other.
func (m *ValueMap) Merge(other *ValueMap) {
	other.Each(func(name string, v Value) {
		m.Set(name, v)
	})
}

func (m *ValueMap) Clone() *ValueMap {
	out := NewValueMap()
	out.Merge(m)
	return out
}
