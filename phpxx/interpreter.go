package phpxx

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

const defaultRecursionLimit = 2048

// Config controls interpreter IO and execution bounds.
type Config struct {
	Stdout io.Writer
	Stdin  io.Reader
	// StepQuota caps the number of executed statements per run; zero means
	// unlimited.
	StepQuota      int
	RecursionLimit int
	Logger         *slog.Logger
}

// Engine compiles and runs phpxx programs.
type Engine struct {
	config Config
	logger *slog.Logger
}

// Result describes how a top-level run ended. Halted is set when a throw
// escaped every function and stopped the program; Payload is its value.
type Result struct {
	Halted  bool
	Payload Value
}

// NewEngine constructs an Engine, filling unset fields with defaults.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.StepQuota < 0 {
		return nil, fmt.Errorf("step quota must not be negative (got %d)", cfg.StepQuota)
	}
	if cfg.RecursionLimit < 0 {
		return nil, fmt.Errorf("recursion limit must not be negative (got %d)", cfg.RecursionLimit)
	}
	if cfg.RecursionLimit == 0 {
		cfg.RecursionLimit = defaultRecursionLimit
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	return &Engine{config: cfg, logger: cfg.Logger}, nil
}

// MustNewEngine constructs an Engine or panics when the config is invalid.
func MustNewEngine(cfg Config) *Engine {
	engine, err := NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	return engine
}

// Compile parses source into a flat program. The returned error is a
// *ParseError.
func (e *Engine) Compile(source string) (*Program, error) {
	program, err := parseProgram(source)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			e.logger.Debug("compile failed", "error", perr.Message, "offset", perr.Span.Start)
		}
		return nil, err
	}
	e.logger.Debug("compiled program",
		"statements", len(program.Statements),
		"functions", program.Functions.Len(),
	)
	return program, nil
}

func (e *Engine) newExecution(ctx context.Context, program *Program) *Execution {
	return &Execution{
		engine:       e,
		program:      program,
		ctx:          ctx,
		out:          bufio.NewWriter(e.config.Stdout),
		in:           bufio.NewReader(e.config.Stdin),
		scope:        NewScope(),
		quota:        e.config.StepQuota,
		recursionCap: e.config.RecursionLimit,
	}
}

// Run executes the top level of program. args become the pending arguments
// of the top level, readable through args().
func (e *Engine) Run(ctx context.Context, program *Program, args ...Value) (Result, error) {
	if program == nil {
		return Result{}, errors.New("run: nil program")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	exec := e.newExecution(ctx, program)
	exec.args = append([]Value(nil), args...)

	result, err := exec.runTopLevel(0)
	if flushErr := exec.out.Flush(); err == nil && flushErr != nil {
		err = fmt.Errorf("flush output: %w", flushErr)
	}
	return result, err
}

// Call runs the top level of program and then invokes the named user
// function with args, returning the value it throws.
func (e *Engine) Call(ctx context.Context, program *Program, name string, args ...Value) (Value, error) {
	if program == nil {
		return NewVoid(), errors.New("call: nil program")
	}
	fn, ok := program.Functions.Lookup(name)
	if !ok {
		return NewVoid(), fmt.Errorf("function %s is not defined", name)
	}
	if err := ctx.Err(); err != nil {
		return NewVoid(), err
	}

	exec := e.newExecution(ctx, program)
	defer exec.out.Flush()

	result, err := exec.runTopLevel(0)
	if err != nil {
		return NewVoid(), err
	}
	if result.Halted {
		return NewVoid(), fmt.Errorf("program halted before calling %s", name)
	}

	val, err := exec.invoke(fn, args, fn.Span)
	if err != nil {
		return NewVoid(), err
	}
	if err := exec.out.Flush(); err != nil {
		return NewVoid(), fmt.Errorf("flush output: %w", err)
	}
	return val, nil
}

func (exec *Execution) runTopLevel(start int) (Result, error) {
	done, err := exec.run(start)
	if err != nil {
		return Result{}, err
	}
	if done.returned {
		exec.engine.logger.Debug("program halted by throw", "payload", done.value.Visualize())
		return Result{Halted: true, Payload: done.value}, nil
	}
	return Result{Payload: NewVoid()}, nil
}
