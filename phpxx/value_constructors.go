package phpxx

func NewVoid() Value               { return Value{kind: KindVoid} }
func NewNumber(f float64) Value    { return Value{kind: KindNumber, data: f} }
func NewString(s string) Value     { return Value{kind: KindString, data: s} }
func NewArrayValue(a *Array) Value { return Value{kind: KindArray, data: a} }

// NewArray allocates fresh storage holding items. Spread markers among the
// items are stripped.
func NewArray(items []Value) Value {
	stored := make([]Value, len(items))
	for i, item := range items {
		stored[i] = item.resolve()
	}
	return NewArrayValue(newArray(stored))
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsVoid() bool { return v.kind == KindVoid }

// Number returns the payload of a number value and 0 otherwise.
func (v Value) Number() float64 {
	if f, ok := v.data.(float64); ok {
		return f
	}
	return 0
}

// Str returns the payload of a string value and "" otherwise.
func (v Value) Str() string {
	if s, ok := v.data.(string); ok {
		return s
	}
	return ""
}

// Array returns the shared storage of an array value or nil.
func (v Value) Array() *Array {
	if a, ok := v.data.(*Array); ok {
		return a
	}
	return nil
}

// IsSpread reports whether v is an array marked for argument expansion.
func (v Value) IsSpread() bool { return v.spread && v.kind == KindArray }

func (v Value) withSpread() Value {
	if v.kind != KindArray {
		return v
	}
	v.spread = true
	return v
}

// resolve drops the spread marker; every value that is stored goes through it.
func (v Value) resolve() Value {
	v.spread = false
	return v
}
