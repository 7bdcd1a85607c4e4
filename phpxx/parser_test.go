package phpxx

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, source string) *Program {
	t.Helper()
	program, err := parseProgram(source)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return program
}

func parseFailure(t *testing.T, source string) *ParseError {
	t.Helper()
	_, err := parseProgram(source)
	if err == nil {
		t.Fatalf("expected parse error for %q", source)
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	return perr
}

func statementStrings(program *Program) []string {
	out := make([]string, len(program.Statements))
	for i, stmt := range program.Statements {
		out[i] = stmt.String()
	}
	return out
}

func TestParserFlattensFunctionBodies(t *testing.T) {
	program := mustParse(t, `echo 1;
function f($x) {
  echo x;
  throw(x + 1);
}
echo f(4);`)

	want := []string{
		"echo 1",
		"JMP 5",
		"echo $x",
		"throw(($x + 1))",
		"throw()",
		"echo f(4)",
	}
	if diff := cmp.Diff(want, statementStrings(program)); diff != "" {
		t.Fatalf("statement list mismatch (-want +got):\n%s", diff)
	}

	fn, ok := program.Functions.Lookup("f")
	if !ok {
		t.Fatalf("function f not registered")
	}
	if fn.Entry != 2 {
		t.Fatalf("expected entry point 2, got %d", fn.Entry)
	}
	if diff := cmp.Diff([]string{"x"}, fn.Params); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
	jump := program.Statements[1].(*JumpStmt)
	if !jump.Patched() || jump.Function != "f" {
		t.Fatalf("jump not patched for f: %+v", jump)
	}
}

func TestParserBackpatchesConsecutiveFunctions(t *testing.T) {
	program := mustParse(t, `function a() { }
function b(p, $q) { echo p; }
echo a();`)

	want := []string{
		"JMP 2",
		"throw()",
		"JMP 5",
		"echo $p",
		"throw()",
		"echo a()",
	}
	if diff := cmp.Diff(want, statementStrings(program)); diff != "" {
		t.Fatalf("statement list mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, program.Functions.Names()); diff != "" {
		t.Fatalf("function names mismatch (-want +got):\n%s", diff)
	}
	b, _ := program.Functions.Lookup("b")
	if b.Entry != 3 {
		t.Fatalf("expected b entry 3, got %d", b.Entry)
	}
}

func TestParserRedeclarationLastWins(t *testing.T) {
	program := mustParse(t, "function f() { echo 1; }\nfunction f() { echo 2; }")
	fn, _ := program.Functions.Lookup("f")
	if fn.Entry != 4 {
		t.Fatalf("expected the second declaration to win, entry %d", fn.Entry)
	}
}

func TestParserPrecedenceAndAssociativity(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{src: "$a = 1 + 2 * 3;", want: "$a = (1 + (2 * 3))"},
		{src: "$a = 1 - 2 - 3;", want: "$a = ((1 - 2) - 3)"},
		{src: "$a = 8 / 4 / 2;", want: "$a = ((8 / 4) / 2)"},
		{src: "$a = 2 * 3 + 4 * 5;", want: "$a = ((2 * 3) + (4 * 5))"},
		{src: "$a = (1 + 2) * 3;", want: "$a = ((1 + 2) * 3)"},
		{src: "$a = -2 * 3;", want: "$a = ((0 - 2) * 3)"},
		{src: "b = x;", want: "$b = $x"},
		{src: `f(..$a, "s", g());`, want: `f(.. ($a), "s", g())`},
	}

	for _, tt := range tests {
		program := mustParse(t, tt.src)
		if len(program.Statements) != 1 {
			t.Fatalf("%s: expected one statement, got %d", tt.src, len(program.Statements))
		}
		if got := program.Statements[0].String(); got != tt.want {
			t.Fatalf("%s: expected %q, got %q", tt.src, tt.want, got)
		}
	}
}

func TestParserConditionals(t *testing.T) {
	program := mustParse(t, `if lt(1, 2) { echo "yes"; } else if $b { echo "maybe"; } else { echo "no"; }
while $i { $i = $i - 1; } else { echo "never"; }
;;`)

	if len(program.Statements) != 2 {
		t.Fatalf("expected two statements, got %d", len(program.Statements))
	}
	ifStmt, ok := program.Statements[0].(*ConditionalStmt)
	if !ok || ifStmt.IsWhile {
		t.Fatalf("expected if statement, got %T", program.Statements[0])
	}
	if len(ifStmt.WhenFalse) != 1 {
		t.Fatalf("else-if should nest one conditional, got %d statements", len(ifStmt.WhenFalse))
	}
	nested, ok := ifStmt.WhenFalse[0].(*ConditionalStmt)
	if !ok || len(nested.WhenFalse) != 1 {
		t.Fatalf("unexpected nested conditional %#v", ifStmt.WhenFalse[0])
	}
	loop, ok := program.Statements[1].(*ConditionalStmt)
	if !ok || !loop.IsWhile || len(loop.WhenTrue) != 1 || len(loop.WhenFalse) != 1 {
		t.Fatalf("unexpected while statement %#v", program.Statements[1])
	}
}

func TestParserEchoNoNewlineFlag(t *testing.T) {
	tests := []struct {
		src       string
		noNewline bool
		value     string
	}{
		{src: `echo -n "x";`, noNewline: true, value: `"x"`},
		{src: `echo - n;`, noNewline: false, value: "(0 - $n)"},
		{src: `echo -n $a + 1;`, noNewline: true, value: "($a + 1)"},
		{src: `echo -n(1);`, noNewline: false, value: "(0 - n(1))"},
	}
	for _, tt := range tests {
		program := mustParse(t, tt.src)
		echo := program.Statements[0].(*EchoStmt)
		if echo.NoNewline != tt.noNewline {
			t.Fatalf("%s: expected NoNewline=%v", tt.src, tt.noNewline)
		}
		if got := echo.Value.String(); got != tt.value {
			t.Fatalf("%s: expected value %q, got %q", tt.src, tt.value, got)
		}
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		msg     string
		excerpt string
	}{
		{name: "nested function", src: "function f() {\nfunction g() {", msg: "function declaration inside function 'f'", excerpt: "function"},
		{name: "function in block", src: "if 1 { function g() { } }", msg: "function declarations are only allowed at the top level", excerpt: "function"},
		{name: "unmatched brace", src: "echo 1;\n}", msg: "unmatched '}'", excerpt: "}"},
		{name: "open function", src: "function f() {\necho 1;", msg: "unexpected end of input: function 'f' is missing '}'", excerpt: "function f() {"},
		{name: "open block", src: "while 1 { echo 1;", msg: "unexpected end of input: block is missing '}'", excerpt: "{"},
		{name: "missing semicolon", src: "echo 1", msg: "expected ';', got end of input", excerpt: ""},
		{name: "missing paren", src: "f(1, 2;", msg: "expected ',' or ')', got ';'", excerpt: ";"},
		{name: "missing assign", src: "$a 1;", msg: "expected '=', got number", excerpt: "1"},
		{name: "bare identifier", src: "foo;", msg: "expected '(' or '=' after identifier, got ';'", excerpt: ";"},
		{name: "unknown statement", src: "1 + 2;", msg: "unknown statement starting with number", excerpt: "1"},
		{name: "bad escape", src: `echo "a\q";`, msg: "bad string escape", excerpt: `"a\q"`},
		{name: "bad number", src: "echo 3x;", msg: "bad number", excerpt: "3x"},
		{name: "missing expression", src: "echo ;", msg: "expected expression, got ';'", excerpt: ";"},
		{name: "bad parameter", src: "function f(1) {", msg: "expected parameter name, got number", excerpt: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perr := parseFailure(t, tt.src)
			if perr.Message != tt.msg {
				t.Fatalf("expected message %q, got %q", tt.msg, perr.Message)
			}
			if got := perr.Excerpt(); got != tt.excerpt {
				t.Fatalf("expected excerpt %q, got %q", tt.excerpt, got)
			}
		})
	}
}

func TestParseErrorFormatsCodeFrame(t *testing.T) {
	perr := parseFailure(t, "echo 1;\necho (2;")
	if pos := perr.Position(); pos != (Position{Line: 2, Column: 8}) {
		t.Fatalf("unexpected position %+v", pos)
	}
	msg := perr.Error()
	if !strings.HasPrefix(msg, "parse error at 2:8: expected ')', got ';'") {
		t.Fatalf("unexpected error header: %q", msg)
	}
	if !strings.Contains(msg, " 2 | echo (2;\n   |        ^") {
		t.Fatalf("missing code frame:\n%s", msg)
	}
}

func TestParseIntoOffsetsSpans(t *testing.T) {
	program := &Program{Functions: newFunctionTable()}
	if err := parseInto(program, "echo 1;", 0); err != nil {
		t.Fatalf("first chunk: %v", err)
	}
	full := "echo 1;\necho 2;"
	if err := parseInto(program, full, len("echo 1;\n")); err != nil {
		t.Fatalf("second chunk: %v", err)
	}
	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(program.Statements))
	}
	if got := program.Statements[1].Span().Slice(full); got != "echo 2;" {
		t.Fatalf("expected absolute span, got %q", got)
	}
}

func TestProgramListing(t *testing.T) {
	program := mustParse(t, "function f() { throw(1); }\nif 1 { echo f(); }")
	want := strings.Join([]string{
		"0000  JMP 3",
		"f:",
		"0001  throw(1)",
		"0002  throw()",
		"0003  if 1 {",
		"        echo f()",
		"      }",
		"",
	}, "\n")
	if diff := cmp.Diff(want, program.Listing()); diff != "" {
		t.Fatalf("listing mismatch (-want +got):\n%s", diff)
	}
}
