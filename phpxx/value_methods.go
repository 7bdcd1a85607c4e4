package phpxx

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

func (k ValueKind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Evaluate yields an equivalent value. For arrays the result is a new alias
// of the same storage.
func (v Value) Evaluate() Value {
	return v.resolve()
}

// String is the echo rendering of the value.
func (v Value) String() string {
	return v.Render()
}

// Render is the human-readable form used by echo and string context.
func (v Value) Render() string {
	switch v.kind {
	case KindVoid:
		return ""
	case KindNumber:
		return formatNumber(v.Number())
	case KindString:
		return v.Str()
	case KindArray:
		return visualizeArray(v.Array(), make(map[uint64]struct{}))
	default:
		return ""
	}
}

// Visualize is the nested form used for array elements: strings are quoted
// and void is spelled out.
func (v Value) Visualize() string {
	return v.visualize(make(map[uint64]struct{}))
}

func (v Value) visualize(seen map[uint64]struct{}) string {
	switch v.kind {
	case KindVoid:
		return "void"
	case KindNumber:
		return formatNumber(v.Number())
	case KindString:
		return strconv.Quote(v.Str())
	case KindArray:
		return visualizeArray(v.Array(), seen)
	default:
		return fmt.Sprintf("<%v>", v.kind)
	}
}

func visualizeArray(arr *Array, seen map[uint64]struct{}) string {
	if arr == nil {
		return "[]"
	}
	if _, ok := seen[arr.id]; ok {
		return "[...]"
	}
	seen[arr.id] = struct{}{}
	defer delete(seen, arr.id)

	parts := make([]string, len(arr.items))
	for i, item := range arr.items {
		parts[i] = item.visualize(seen)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// formatNumber prints the shortest decimal form that round-trips, never in
// exponent notation.
func formatNumber(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToNumber coerces v: strings parse as floats (0 on failure), arrays count
// their elements and void is 0.
func (v Value) ToNumber() float64 {
	switch v.kind {
	case KindNumber:
		return v.Number()
	case KindString:
		return parseNumber(v.Str())
	case KindArray:
		return float64(v.Array().Len())
	default:
		return 0
	}
}

// parseNumber accepts plain decimal literals with an optional exponent, or
// inf, infinity and nan in any case. Hex, underscores and surrounding space
// are rejected. Overflow keeps the signed infinity.
func parseNumber(s string) float64 {
	if !isDecimalText(s) {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return f
}

func isDecimalText(s string) bool {
	body := strings.TrimLeft(s, "+-")
	if len(s)-len(body) > 1 {
		return false
	}
	switch strings.ToLower(body) {
	case "inf", "infinity", "nan":
		return true
	}
	return body != "" && strings.Trim(body, "0123456789.eE+-") == ""
}

// ToString coerces v to its rendering.
func (v Value) ToString() string {
	return v.Render()
}

// Truthy is the condition test of if/while.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNumber:
		return v.Number() != 0
	case KindString:
		return parseNumber(v.Str()) != 0
	case KindArray:
		return v.Array().Len() != 0
	default:
		return false
	}
}

// Repr is the short type tag returned by the repr built-in.
func (v Value) Repr() string {
	switch v.kind {
	case KindString:
		return `""`
	case KindNumber:
		return "0"
	case KindArray:
		return "[]"
	default:
		return "void"
	}
}
