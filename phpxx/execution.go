package phpxx

import (
	"bufio"
	"context"
	"fmt"
)

// Execution is the mutable state of one run over a flat program.
type Execution struct {
	engine  *Engine
	program *Program
	ctx     context.Context

	out *bufio.Writer
	in  *bufio.Reader

	scope *Scope

	// jumpPending and jumpTarget form the pending-jump slot consumed only
	// by the driving loop.
	jumpPending bool
	jumpTarget  int

	// thrown is the pending throw payload; nil means no throw is pending.
	thrown *Value

	// args holds the current call's excess arguments until args() drains
	// them.
	args []Value

	quota        int
	recursionCap int
	steps        int
	current      Span
	callStack    []callFrame
}

type callFrame struct {
	Function string
	Site     Span
}

// completion is the outcome of a driving loop run: either the loop fell off
// the end of the statement list or a throw returned a value.
type completion struct {
	returned bool
	value    Value
}

func (exec *Execution) raise(payload Value) {
	payload = payload.resolve()
	exec.thrown = &payload
}

// run drives the flat statement list from start. It is the only place jump
// targets are followed and the only place a pending throw is turned into a
// completion.
func (exec *Execution) run(start int) (completion, error) {
	stmts := exec.program.Statements
	pc := start
	for pc >= 0 && pc < len(stmts) {
		if err := exec.execStatement(stmts[pc]); err != nil {
			return completion{}, err
		}
		if exec.thrown != nil {
			payload := *exec.thrown
			exec.thrown = nil
			exec.jumpPending = false
			return completion{returned: true, value: payload}, nil
		}
		if exec.jumpPending {
			exec.jumpPending = false
			pc = exec.jumpTarget
			continue
		}
		pc++
	}
	return completion{}, nil
}

// runBlock executes a branch body in order. Blocks hold no jumps and a
// pending throw is left for the driving loop, so every statement runs.
func (exec *Execution) runBlock(stmts []Node) error {
	for _, stmt := range stmts {
		if err := exec.execStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (exec *Execution) execStatement(stmt Node) error {
	exec.current = stmt.Span()
	if err := exec.step(); err != nil {
		return err
	}

	switch s := stmt.(type) {
	case *EchoStmt:
		return exec.execEcho(s)
	case *AssignStmt:
		val, err := exec.evalExpression(s.Value)
		if err != nil {
			return err
		}
		exec.scope.Write(s.Name, val.resolve())
		return nil
	case *ConditionalStmt:
		return exec.execConditional(s)
	case *JumpStmt:
		exec.jumpPending = true
		exec.jumpTarget = s.Target
		return nil
	default:
		_, err := exec.evalExpression(stmt)
		return err
	}
}

func (exec *Execution) execEcho(stmt *EchoStmt) error {
	val, err := exec.evalExpression(stmt.Value)
	if err != nil {
		return err
	}
	if _, err := exec.out.WriteString(val.Render()); err != nil {
		return fmt.Errorf("echo: %w", err)
	}
	if stmt.NoNewline {
		if err := exec.out.Flush(); err != nil {
			return fmt.Errorf("echo: %w", err)
		}
		return nil
	}
	if err := exec.out.WriteByte('\n'); err != nil {
		return fmt.Errorf("echo: %w", err)
	}
	return nil
}

// execConditional runs `if` and `while`. Each pass evaluates the condition
// and runs the chosen branch in its own soft frame. The false branch is only
// eligible on the first pass, so a `while` whose condition starts out false
// behaves like an `if`.
func (exec *Execution) execConditional(stmt *ConditionalStmt) error {
	for first := true; ; first = false {
		cond, err := exec.evalExpression(stmt.Condition)
		if err != nil {
			return err
		}

		truthy := cond.Truthy()
		if !truthy && !first {
			return nil
		}
		body := stmt.WhenTrue
		if !truthy {
			body = stmt.WhenFalse
		}

		exec.scope.Push(false)
		err = exec.runBlock(body)
		exec.scope.Pop()
		if err != nil {
			return err
		}

		if !stmt.IsWhile || !truthy {
			return nil
		}
		exec.current = stmt.span
		if err := exec.step(); err != nil {
			return err
		}
	}
}

func (exec *Execution) evalExpression(node Node) (Value, error) {
	switch n := node.(type) {
	case *NumberLiteral:
		return NewNumber(n.Value), nil
	case *StringLiteral:
		return NewString(n.Value), nil
	case *VariableExpr:
		return exec.scope.Read(n.Name), nil
	case *MathExpr:
		left, err := exec.evalExpression(n.Left)
		if err != nil {
			return NewVoid(), err
		}
		right, err := exec.evalExpression(n.Right)
		if err != nil {
			return NewVoid(), err
		}
		return applyOperator(n.Operator, left.resolve(), right.resolve()), nil
	case *SpreadExpr:
		val, err := exec.evalExpression(n.Value)
		if err != nil {
			return NewVoid(), err
		}
		return val.withSpread(), nil
	case *CallExpr:
		return exec.evalCall(n)
	default:
		return NewVoid(), fmt.Errorf("unsupported node %T", node)
	}
}
