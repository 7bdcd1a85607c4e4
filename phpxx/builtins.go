package phpxx

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
)

type builtinFunc func(exec *Execution, args []Value) (Value, error)

// builtins are matched by name before the function table, so user functions
// can never shadow them.
var builtins = map[string]builtinFunc{
	"repr":     builtinRepr,
	"readline": builtinReadline,
	"eq":       builtinEq,
	"lt":       builtinLt,
	"push":     builtinPush,
	"pop":      builtinPop,
	"pull":     builtinPull,
	"up":       builtinUp,
	"down":     builtinDown,
	"arr":      builtinArr,
	"aka":      builtinAka,
	"throw":    builtinThrow,
	"args":     builtinArgs,
	"get":      builtinGet,
	"count":    builtinCount,
}

// BuiltinNames lists the reserved call names in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsBuiltin reports whether name is a reserved call name.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

func boolNumber(ok bool) Value {
	if ok {
		return NewNumber(1)
	}
	return NewNumber(0)
}

func builtinRepr(exec *Execution, args []Value) (Value, error) {
	if len(args) == 0 {
		return NewVoid(), nil
	}
	return NewString(args[0].Repr()), nil
}

// builtinReadline returns one line of input without its line terminator.
// End of input yields whatever was read before it.
func builtinReadline(exec *Execution, args []Value) (Value, error) {
	if err := exec.out.Flush(); err != nil {
		return NewVoid(), fmt.Errorf("readline: %w", err)
	}
	if exec.in == nil {
		return NewString(""), nil
	}
	line, err := exec.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return NewVoid(), exec.newRuntimeError(fmt.Errorf("readline: %w", err), exec.current)
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return NewString(line), nil
}

func builtinEq(exec *Execution, args []Value) (Value, error) {
	return boolNumber(chain(args, Equal)), nil
}

func builtinLt(exec *Execution, args []Value) (Value, error) {
	return boolNumber(chain(args, LessThan)), nil
}

// builtinPush pushes a soft scope frame with no arguments and appends to an
// array with two.
func builtinPush(exec *Execution, args []Value) (Value, error) {
	switch len(args) {
	case 0:
		exec.scope.Push(false)
	case 2:
		if arr := args[0].Array(); arr != nil {
			arr.Append(args[1])
		}
	}
	return NewVoid(), nil
}

// builtinPop pops a scope frame with no arguments and removes the last
// element of an array with one.
func builtinPop(exec *Execution, args []Value) (Value, error) {
	switch len(args) {
	case 0:
		exec.scope.Pop()
	case 1:
		if arr := args[0].Array(); arr != nil {
			last, _ := arr.RemoveLast()
			return last, nil
		}
	}
	return NewVoid(), nil
}

func builtinPull(exec *Execution, args []Value) (Value, error) {
	if len(args) != 1 {
		return NewVoid(), nil
	}
	if arr := args[0].Array(); arr != nil {
		first, _ := arr.RemoveFirst()
		return first, nil
	}
	return NewVoid(), nil
}

func builtinUp(exec *Execution, args []Value) (Value, error) {
	exec.scope.EnterCall()
	return NewVoid(), nil
}

func builtinDown(exec *Execution, args []Value) (Value, error) {
	exec.scope.ExitCall()
	return NewVoid(), nil
}

func builtinArr(exec *Execution, args []Value) (Value, error) {
	return NewArray(args), nil
}

// builtinAka holds when every adjacent pair shares storage. Any non-array
// argument makes it false, even on its own.
func builtinAka(exec *Execution, args []Value) (Value, error) {
	for _, arg := range args {
		if arg.Array() == nil {
			return boolNumber(false), nil
		}
	}
	return boolNumber(chain(args, SameArray)), nil
}

// builtinThrow sets the pending throw. The call itself is void; whoever runs
// the enclosing statement list observes the throw.
func builtinThrow(exec *Execution, args []Value) (Value, error) {
	switch len(args) {
	case 0:
		exec.raise(NewVoid())
	case 1:
		exec.raise(args[0])
	default:
		exec.raise(NewArray(args))
	}
	return NewVoid(), nil
}

// builtinArgs drains the pending arguments; later calls in the same
// activation get an empty array.
func builtinArgs(exec *Execution, args []Value) (Value, error) {
	pending := exec.args
	exec.args = nil
	return NewArray(pending), nil
}

func builtinGet(exec *Execution, args []Value) (Value, error) {
	if len(args) != 2 {
		return NewVoid(), nil
	}
	arr := args[0].Array()
	if arr == nil {
		return NewVoid(), nil
	}
	index := math.Trunc(args[1].ToNumber())
	switch {
	case math.IsNaN(index):
		index = 0
	case index < 0 || index >= float64(arr.Len()):
		return NewVoid(), nil
	}
	item, _ := arr.Get(int(index))
	return item, nil
}

// builtinCount counts array elements or string grapheme clusters.
func builtinCount(exec *Execution, args []Value) (Value, error) {
	if len(args) == 0 {
		return NewVoid(), nil
	}
	switch args[0].Kind() {
	case KindArray:
		return NewNumber(float64(args[0].Array().Len())), nil
	case KindString:
		return NewNumber(float64(graphemeCount(args[0].Str()))), nil
	default:
		return NewNumber(0), nil
	}
}
