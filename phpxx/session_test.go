package phpxx

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestSession(t *testing.T) (*Session, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	engine := MustNewEngine(Config{Stdout: &out})
	return engine.NewSession(), &out
}

func evalOK(t *testing.T, s *Session, src string) Result {
	t.Helper()
	result, err := s.Eval(context.Background(), src)
	if err != nil {
		t.Fatalf("eval %q failed: %v", src, err)
	}
	return result
}

func TestSessionPersistsVariablesAndFunctions(t *testing.T) {
	s, out := newTestSession(t)
	evalOK(t, s, `$a = 1;`)
	evalOK(t, s, `function inc(n) { throw(n + 1); }`)
	evalOK(t, s, `echo inc($a);`)

	if out.String() != "2\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
	if got := s.Globals()["a"]; got.Number() != 1 {
		t.Fatalf("expected $a = 1, got %s", got.Visualize())
	}
	if diff := cmp.Diff([]string{"inc"}, s.Functions()); diff != "" {
		t.Fatalf("functions mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionParseErrorLeavesStateUntouched(t *testing.T) {
	s, out := newTestSession(t)
	evalOK(t, s, `echo 1;`)
	before := len(s.Program().Statements)

	_, err := s.Eval(context.Background(), "function g() { throw(1); }\necho (;")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if got := perr.Position().Line; got != 3 {
		t.Fatalf("expected the error on session line 3, got %d", got)
	}
	if len(s.Program().Statements) != before {
		t.Fatalf("failed input left %d statements behind", len(s.Program().Statements)-before)
	}
	if len(s.Functions()) != 0 {
		t.Fatalf("failed input registered functions: %v", s.Functions())
	}

	evalOK(t, s, `echo repr(g()); echo 5;`)
	if out.String() != "1\nvoid\n5\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestSessionHaltOnlyStopsCurrentInput(t *testing.T) {
	s, out := newTestSession(t)
	result := evalOK(t, s, `throw(3); echo "no";`)
	if !result.Halted || result.Payload.Number() != 3 {
		t.Fatalf("unexpected result %+v", result)
	}
	evalOK(t, s, `echo "yes";`)
	if out.String() != "yes\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestSessionFunctionsDeclaredAcrossInputs(t *testing.T) {
	s, out := newTestSession(t)
	evalOK(t, s, `function a() { throw(b() + 1); }`)
	evalOK(t, s, `function b() { throw(10); }`)
	evalOK(t, s, `echo a();`)
	if out.String() != "11\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}
