package phpxx

import "sync/atomic"

type ValueKind int

const (
	KindVoid ValueKind = iota
	KindNumber
	KindString
	KindArray
)

// Value is a runtime value. Arrays are the only variant with reference
// semantics: copying a Value that holds an array copies the handle, not the
// elements.
type Value struct {
	kind ValueKind
	data any
	// spread marks an array produced by `..expr`; it is only meaningful while
	// call arguments are being expanded.
	spread bool
}

// Array is the shared backing storage of array values.
type Array struct {
	id    uint64
	items []Value
}

var arraySeq atomic.Uint64

func newArray(items []Value) *Array {
	return &Array{id: arraySeq.Add(1), items: items}
}

// ID is the identity of the storage, stable for its whole lifetime.
func (a *Array) ID() uint64 { return a.id }

func (a *Array) Len() int { return len(a.items) }

// Items returns a copy of the elements.
func (a *Array) Items() []Value {
	return append([]Value(nil), a.items...)
}

func (a *Array) Get(i int) (Value, bool) {
	if i < 0 || i >= len(a.items) {
		return NewVoid(), false
	}
	return a.items[i], true
}

func (a *Array) Append(v Value) {
	a.items = append(a.items, v.resolve())
}

// RemoveLast removes and returns the last element.
func (a *Array) RemoveLast() (Value, bool) {
	if len(a.items) == 0 {
		return NewVoid(), false
	}
	last := a.items[len(a.items)-1]
	a.items[len(a.items)-1] = Value{}
	a.items = a.items[:len(a.items)-1]
	return last, true
}

// RemoveFirst removes and returns the first element.
func (a *Array) RemoveFirst() (Value, bool) {
	if len(a.items) == 0 {
		return NewVoid(), false
	}
	first := a.items[0]
	copy(a.items, a.items[1:])
	a.items[len(a.items)-1] = Value{}
	a.items = a.items[:len(a.items)-1]
	return first, true
}
