package phpxx

import (
	"context"
	"fmt"
	"maps"
)

// Session evaluates source incrementally. Variables, functions and the
// statement list persist across Eval calls, so a function declared in one
// input can be called from a later one.
type Session struct {
	engine  *Engine
	program *Program
	exec    *Execution
	text    string
}

func (e *Engine) NewSession() *Session {
	program := &Program{Functions: newFunctionTable()}
	exec := e.newExecution(context.Background(), program)
	return &Session{engine: e, program: program, exec: exec}
}

// Eval compiles src onto the end of the session program and runs only the
// new statements. A failed parse leaves the session unchanged.
func (s *Session) Eval(ctx context.Context, src string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	full, base := src, 0
	if s.text != "" {
		full = s.text + "\n" + src
		base = len(s.text) + 1
	}

	start := len(s.program.Statements)
	functions := maps.Clone(s.program.Functions.entries)
	if err := parseInto(s.program, full, base); err != nil {
		s.program.Statements = s.program.Statements[:start]
		s.program.Functions.entries = functions
		return Result{}, err
	}
	s.text = full
	s.engine.logger.Debug("session input compiled",
		"statements", len(s.program.Statements)-start,
		"functions", s.program.Functions.Len(),
	)

	s.exec.ctx = ctx
	s.exec.steps = 0
	result, err := s.exec.runTopLevel(start)
	if err != nil {
		// Call frames unwind on the way out; a throw or jump left pending by
		// the aborted input must not leak into the next one.
		s.exec.thrown = nil
		s.exec.jumpPending = false
	}
	if flushErr := s.exec.out.Flush(); err == nil && flushErr != nil {
		err = fmt.Errorf("flush output: %w", flushErr)
	}
	return result, err
}

// Globals returns a copy of the top-level variables.
func (s *Session) Globals() map[string]Value {
	return s.exec.scope.Globals()
}

// Functions lists the functions declared so far.
func (s *Session) Functions() []string {
	return s.program.Functions.Names()
}

// Program exposes the accumulated flat program.
func (s *Session) Program() *Program {
	return s.program
}
