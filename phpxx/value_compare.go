package phpxx

import "math"

// Equality and ordering are free functions rather than Value methods so that
// arrays can compare storage identity before falling back to contents.

type arrayPair struct {
	left  uint64
	right uint64
}

// Equal dispatches on a's variant: strings compare against b's rendering,
// numbers against b's numeric coercion, void only equals void, and arrays are
// equal when they share storage or hold pairwise equal elements.
func Equal(a, b Value) bool {
	return equalValues(a, b, make(map[arrayPair]struct{}))
}

func equalValues(a, b Value, active map[arrayPair]struct{}) bool {
	switch a.kind {
	case KindString:
		return a.Str() == b.ToString()
	case KindNumber:
		x, y := a.Number(), b.ToNumber()
		// NaN equals NaN so that every value equals itself.
		return x == y || (math.IsNaN(x) && math.IsNaN(y))
	case KindVoid:
		return b.kind == KindVoid
	case KindArray:
		if b.kind != KindArray {
			return false
		}
		return equalArrays(a.Array(), b.Array(), active)
	default:
		return false
	}
}

func equalArrays(a, b *Array, active map[arrayPair]struct{}) bool {
	if a.id == b.id {
		return true
	}
	if len(a.items) != len(b.items) {
		return false
	}
	// A pair already under comparison is assumed equal, which keeps
	// self-referencing arrays from recursing forever.
	pair := arrayPair{left: a.id, right: b.id}
	if _, ok := active[pair]; ok {
		return true
	}
	active[pair] = struct{}{}
	defer delete(active, pair)

	for i := range a.items {
		if !equalValues(a.items[i], b.items[i], active) {
			return false
		}
	}
	return true
}

// LessThan orders strings lexicographically, numbers numerically, treats void
// as 0 and arrays as their length.
func LessThan(a, b Value) bool {
	switch a.kind {
	case KindString:
		return a.Str() < b.ToString()
	case KindNumber:
		return a.Number() < b.ToNumber()
	case KindVoid:
		return 0 < b.ToNumber()
	case KindArray:
		return float64(a.Array().Len()) < b.ToNumber()
	default:
		return false
	}
}

// SameArray reports whether a and b are aliases of the same storage. Values
// that are not arrays are never the same array.
func SameArray(a, b Value) bool {
	left, right := a.Array(), b.Array()
	if left == nil || right == nil {
		return false
	}
	return left.id == right.id
}

// chain applies pred to every adjacent pair. Fewer than two values hold
// vacuously.
func chain(values []Value, pred func(a, b Value) bool) bool {
	for i := 0; i+1 < len(values); i++ {
		if !pred(values[i], values[i+1]) {
			return false
		}
	}
	return true
}
