package phpxx

import "fmt"

// evalCall evaluates arguments left to right, splicing spread arrays in
// place, then dispatches to a built-in, a user function, or nothing at all.
// Unknown names evaluate to void.
func (exec *Execution) evalCall(call *CallExpr) (Value, error) {
	args := make([]Value, 0, len(call.Args))
	for _, node := range call.Args {
		val, err := exec.evalExpression(node)
		if err != nil {
			return NewVoid(), err
		}
		if val.IsSpread() {
			args = append(args, val.Array().Items()...)
			continue
		}
		args = append(args, val)
	}

	if builtin, ok := builtins[call.Function]; ok {
		return builtin(exec, args)
	}

	fn, ok := exec.program.Functions.Lookup(call.Function)
	if !ok {
		return NewVoid(), nil
	}
	return exec.invoke(fn, args, call.span)
}

// invoke runs a user function over the shared statement list. The value of
// the call is the payload of the throw that ends the body.
func (exec *Execution) invoke(fn FunctionEntry, args []Value, site Span) (Value, error) {
	if exec.recursionCap > 0 && len(exec.callStack) >= exec.recursionCap {
		return NewVoid(), exec.newRuntimeError(
			fmt.Errorf("%w: calling %s at depth %d", ErrRecursionLimit, fn.Name, exec.recursionCap),
			site,
		)
	}

	exec.callStack = append(exec.callStack, callFrame{Function: fn.Name, Site: site})
	exec.scope.EnterCall()
	for i, param := range fn.Params {
		if i < len(args) {
			exec.scope.WriteLocal(param, args[i].resolve())
		}
	}

	var excess []Value
	if len(args) > len(fn.Params) {
		excess = append(excess, args[len(fn.Params):]...)
	}
	saved := exec.args
	exec.args = excess

	exec.engine.logger.Debug("call", "function", fn.Name, "args", len(args), "depth", len(exec.callStack))
	result, err := exec.run(fn.Entry)

	exec.args = saved
	exec.scope.ExitCall()
	exec.callStack = exec.callStack[:len(exec.callStack)-1]

	if err != nil {
		return NewVoid(), err
	}
	if !result.returned {
		return NewVoid(), nil
	}
	return result.value, nil
}
