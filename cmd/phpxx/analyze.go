package main

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/phpxx-lang/phpxx/phpxx"
)

const topLevelName = "<script>"

type lintWarning struct {
	Function string
	Pos      phpxx.Position
	Message  string
}

func analyzeCommand(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	if err := fs.Parse(args); err != nil {
		return err
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("phpxx analyze: script path required")
	}

	scriptPath, err := filepath.Abs(remaining[0])
	if err != nil {
		return fmt.Errorf("resolve script path: %w", err)
	}
	source, err := readScript(scriptPath)
	if err != nil {
		return err
	}

	program, err := compileScript(phpxx.MustNewEngine(phpxx.Config{}), source, true)
	if err != nil {
		return err
	}

	warnings := analyzeProgram(program)
	if len(warnings) == 0 {
		fmt.Println("No issues found")
		return nil
	}

	for _, warning := range warnings {
		fmt.Printf("%s:%d:%d: %s (%s)\n", scriptPath, warning.Pos.Line, warning.Pos.Column, warning.Message, warning.Function)
	}

	return fmt.Errorf("analysis found %d issue(s)", len(warnings))
}

type analyzer struct {
	program  *phpxx.Program
	warnings []lintWarning
}

// analyzeProgram splits the flat statement list back into function bodies
// and top-level code, then lints each. A function body runs from its entry
// to the implicit throw just before the header jump's target.
func analyzeProgram(program *phpxx.Program) []lintWarning {
	a := &analyzer{program: program}

	var topLevel []phpxx.Node
	stmts := program.Statements
	for i := 0; i < len(stmts); i++ {
		jump, ok := stmts[i].(*phpxx.JumpStmt)
		if !ok || jump.Target <= i+1 || jump.Target > len(stmts) {
			topLevel = append(topLevel, stmts[i])
			continue
		}
		a.lintStatements(jump.Function, stmts[i+1:jump.Target-1])
		i = jump.Target - 1
	}
	a.lintStatements(topLevelName, topLevel)

	sort.SliceStable(a.warnings, func(i, j int) bool {
		wi, wj := a.warnings[i], a.warnings[j]
		if wi.Pos.Line != wj.Pos.Line {
			return wi.Pos.Line < wj.Pos.Line
		}
		if wi.Pos.Column != wj.Pos.Column {
			return wi.Pos.Column < wj.Pos.Column
		}
		return wi.Function < wj.Function
	})
	return a.warnings
}

func (a *analyzer) warn(function string, node phpxx.Node, message string) {
	a.warnings = append(a.warnings, lintWarning{
		Function: function,
		Pos:      phpxx.PositionAt(a.program.Source(), node.Span().Start),
		Message:  message,
	})
}

// lintStatements lints a flat statement list. The driving loop stops at the
// first statement that leaves a throw pending, so everything after it is
// unreachable.
func (a *analyzer) lintStatements(function string, statements []phpxx.Node) {
	terminated := false
	for _, stmt := range statements {
		if terminated {
			a.warn(function, stmt, "unreachable statement")
			continue
		}
		terminated = a.statementTerminates(function, stmt)
	}
}

// lintBlock lints a branch body and reports whether it always leaves a
// throw pending. Statements after a throw inside a block still run, so they
// are not unreachable; the statements after the whole construct are.
func (a *analyzer) lintBlock(function string, statements []phpxx.Node) bool {
	throws := false
	for _, stmt := range statements {
		if a.statementTerminates(function, stmt) {
			throws = true
		}
	}
	return throws
}

func (a *analyzer) statementTerminates(function string, stmt phpxx.Node) bool {
	switch typed := stmt.(type) {
	case *phpxx.CallExpr:
		a.lintExpression(function, typed)
		return typed.Function == "throw"
	case *phpxx.ConditionalStmt:
		a.lintExpression(function, typed.Condition)
		trueTerminated := a.lintBlock(function, typed.WhenTrue)
		falseTerminated := a.lintBlock(function, typed.WhenFalse)
		if typed.IsWhile {
			return false
		}
		return trueTerminated && falseTerminated && len(typed.WhenFalse) > 0
	case *phpxx.EchoStmt:
		a.lintExpression(function, typed.Value)
	case *phpxx.AssignStmt:
		a.lintExpression(function, typed.Value)
	default:
		a.lintExpression(function, stmt)
	}
	return false
}

func (a *analyzer) lintExpression(function string, expr phpxx.Node) {
	switch typed := expr.(type) {
	case *phpxx.CallExpr:
		if !phpxx.IsBuiltin(typed.Function) {
			if _, ok := a.program.Functions.Lookup(typed.Function); !ok {
				a.warn(function, typed, fmt.Sprintf("call to undefined function '%s'", typed.Function))
			}
		}
		for _, arg := range typed.Args {
			a.lintExpression(function, arg)
		}
	case *phpxx.MathExpr:
		a.lintExpression(function, typed.Left)
		a.lintExpression(function, typed.Right)
	case *phpxx.SpreadExpr:
		a.lintExpression(function, typed.Value)
	}
}
