package phpxx

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is a statement or expression of the flat program. The set of node
// types is closed; the evaluator switches over them exhaustively.
type Node interface {
	Span() Span
	String() string
	node()
}

// Program is the flattened statement list produced by the parser together
// with the function table populated while parsing it.
type Program struct {
	Statements []Node
	Functions  *FunctionTable
	source     string
}

// Source returns the text the program was compiled from.
func (p *Program) Source() string {
	return p.source
}

type NumberLiteral struct {
	Value float64
	span  Span
}

func (n *NumberLiteral) node()          {}
func (n *NumberLiteral) Span() Span     { return n.span }
func (n *NumberLiteral) String() string { return formatNumber(n.Value) }

type StringLiteral struct {
	Value string
	span  Span
}

func (n *StringLiteral) node()          {}
func (n *StringLiteral) Span() Span     { return n.span }
func (n *StringLiteral) String() string { return strconv.Quote(n.Value) }

type VariableExpr struct {
	Name string
	span Span
}

func (n *VariableExpr) node()          {}
func (n *VariableExpr) Span() Span     { return n.span }
func (n *VariableExpr) String() string { return "$" + n.Name }

type AssignStmt struct {
	Name  string
	Value Node
	span  Span
}

func (n *AssignStmt) node()          {}
func (n *AssignStmt) Span() Span     { return n.span }
func (n *AssignStmt) String() string { return "$" + n.Name + " = " + n.Value.String() }

type CallExpr struct {
	Function string
	Args     []Node
	span     Span
}

func (n *CallExpr) node()      {}
func (n *CallExpr) Span() Span { return n.span }
func (n *CallExpr) String() string {
	parts := make([]string, len(n.Args))
	for i, arg := range n.Args {
		parts[i] = arg.String()
	}
	return n.Function + "(" + strings.Join(parts, ", ") + ")"
}

type EchoStmt struct {
	Value     Node
	NoNewline bool
	span      Span
}

func (n *EchoStmt) node()      {}
func (n *EchoStmt) Span() Span { return n.span }
func (n *EchoStmt) String() string {
	if n.NoNewline {
		return "echo -n " + n.Value.String()
	}
	return "echo " + n.Value.String()
}

type MathExpr struct {
	Left     Node
	Operator TokenType
	Right    Node
	span     Span
}

func (n *MathExpr) node()      {}
func (n *MathExpr) Span() Span { return n.span }
func (n *MathExpr) String() string {
	return "(" + n.Left.String() + " " + string(n.Operator) + " " + n.Right.String() + ")"
}

// ConditionalStmt is both `if` and `while`. Its branches are owned directly
// and are never flattened into the outer statement list.
type ConditionalStmt struct {
	Condition Node
	WhenTrue  []Node
	WhenFalse []Node
	IsWhile   bool
	span      Span
}

func (n *ConditionalStmt) node()      {}
func (n *ConditionalStmt) Span() Span { return n.span }
func (n *ConditionalStmt) String() string {
	name := "if"
	if n.IsWhile {
		name = "while"
	}
	var b strings.Builder
	b.WriteString(name + " " + n.Condition.String() + " {\n")
	writeBlock(&b, n.WhenTrue)
	b.WriteString("}")
	if len(n.WhenFalse) > 0 {
		b.WriteString(" else {\n")
		writeBlock(&b, n.WhenFalse)
		b.WriteString("}")
	}
	return b.String()
}

func writeBlock(b *strings.Builder, block []Node) {
	for _, stmt := range block {
		for _, line := range strings.Split(stmt.String(), "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
}

// JumpStmt is an unconditional transfer of the program counter. The parser
// emits one as the placeholder of a function header and patches Target once
// the closing brace is seen; Function names the declaration it skips.
type JumpStmt struct {
	Target   int
	Function string
	patched  bool
	span     Span
}

func (n *JumpStmt) node()      {}
func (n *JumpStmt) Span() Span { return n.span }
func (n *JumpStmt) String() string {
	if !n.patched {
		return "JMP ?"
	}
	return "JMP " + strconv.Itoa(n.Target)
}

// Patched reports whether the jump target has been backpatched.
func (n *JumpStmt) Patched() bool { return n.patched }

type SpreadExpr struct {
	Value Node
	span  Span
}

func (n *SpreadExpr) node()          {}
func (n *SpreadExpr) Span() Span     { return n.span }
func (n *SpreadExpr) String() string { return ".. (" + n.Value.String() + ")" }

// Listing renders the flat statement list, one statement per entry prefixed
// with its index. Function entry points are marked with the function name.
func (p *Program) Listing() string {
	entries := make(map[int][]string)
	for _, name := range p.Functions.Names() {
		fn, _ := p.Functions.Lookup(name)
		entries[fn.Entry] = append(entries[fn.Entry], name)
	}

	var b strings.Builder
	for i, stmt := range p.Statements {
		for _, name := range entries[i] {
			b.WriteString(name + ":\n")
		}
		for j, line := range strings.Split(stmt.String(), "\n") {
			if j == 0 {
				fmt.Fprintf(&b, "%04d  %s\n", i, line)
			} else {
				b.WriteString("      " + line + "\n")
			}
		}
	}
	return b.String()
}
