package phpxx

import (
	"math"
	"strings"

	"github.com/rivo/uniseg"
)

// Arithmetic never fails: combinations without a defined meaning produce
// Void.

func (v Value) Plus(other Value) Value {
	switch v.kind {
	case KindNumber:
		return NewNumber(v.Number() + other.ToNumber())
	case KindString:
		return NewString(v.Str() + other.ToString())
	default:
		return NewVoid()
	}
}

func (v Value) Minus(other Value) Value {
	switch v.kind {
	case KindNumber:
		return NewNumber(v.Number() - other.ToNumber())
	case KindString:
		switch other.kind {
		case KindNumber:
			return NewString(trimGraphemes(v.Str(), other.Number()))
		case KindString:
			return NewNumber(v.ToNumber() - other.ToNumber())
		}
	}
	return NewVoid()
}

func (v Value) Multiply(other Value) Value {
	switch v.kind {
	case KindNumber:
		return NewNumber(v.Number() * other.ToNumber())
	case KindString:
		if other.kind == KindNumber {
			return NewString(repeatGraphemes(v.Str(), other.Number()))
		}
	}
	return NewVoid()
}

func (v Value) Divide(other Value) Value {
	switch v.kind {
	case KindNumber:
		return NewNumber(v.Number() / other.ToNumber())
	case KindString:
		switch other.kind {
		case KindString:
			return NewNumber(float64(strings.Count(v.Str(), other.Str())))
		case KindNumber:
			return NewNumber(v.ToNumber() / other.Number())
		}
	}
	return NewVoid()
}

// applyOperator dispatches a binary operator token to the value method.
func applyOperator(op TokenType, left, right Value) Value {
	switch op {
	case tokenPlus:
		return left.Plus(right)
	case tokenMinus:
		return left.Minus(right)
	case tokenAsterisk:
		return left.Multiply(right)
	case tokenSlash:
		return left.Divide(right)
	default:
		return NewVoid()
	}
}

// trimGraphemes drops the last n clusters for n >= 0 and keeps only the last
// |n| clusters, in their original order, for n < 0.
func trimGraphemes(s string, n float64) string {
	clusters := graphemes(s)
	count := clampCount(n)
	if count > len(clusters) {
		count = len(clusters)
	}
	if n >= 0 {
		return strings.Join(clusters[:len(clusters)-count], "")
	}
	return strings.Join(clusters[len(clusters)-count:], "")
}

// repeatGraphemes repeats s n times, or its cluster-wise reversal |n| times
// when n is negative.
func repeatGraphemes(s string, n float64) string {
	if n < 0 {
		s = uniseg.ReverseString(s)
	}
	if s == "" {
		return ""
	}
	count := clampCount(n)
	if limit := math.MaxInt / len(s); count > limit {
		count = limit
	}
	return strings.Repeat(s, count)
}

// clampCount turns a numeric operand into a non-negative repeat or trim
// count, truncating toward zero and saturating instead of wrapping.
func clampCount(n float64) int {
	n = math.Abs(math.Trunc(n))
	switch {
	case math.IsNaN(n):
		return 0
	case n >= math.MaxInt:
		return math.MaxInt
	default:
		return int(n)
	}
}

func graphemes(s string) []string {
	out := make([]string, 0, len(s))
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		out = append(out, gr.Str())
	}
	return out
}

func graphemeCount(s string) int {
	return uniseg.GraphemeClusterCount(s)
}
