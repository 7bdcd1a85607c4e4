package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestUpdateQuitCommandReturnsQuit(t *testing.T) {
	m := newREPLModel()
	m.input.SetValue(":quit")

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	rm, ok := model.(replModel)
	if !ok {
		t.Fatalf("unexpected model type %T", model)
	}

	if !rm.quitting {
		t.Fatalf("quitting flag not set")
	}
	if rm.input.Value() != "" {
		t.Fatalf("input not cleared after quit command")
	}
	if cmd == nil {
		t.Fatalf("expected tea.Quit command")
	}
	if msg := cmd(); msg != nil {
		if _, ok := msg.(tea.QuitMsg); !ok {
			t.Fatalf("expected QuitMsg, got %T", msg)
		}
	}
}

func TestUpdateNonQuitCommandDoesNotReturnCmd(t *testing.T) {
	m := newREPLModel()
	m.input.SetValue(":help")

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	rm, ok := model.(replModel)
	if !ok {
		t.Fatalf("unexpected model type %T", model)
	}

	if cmd != nil {
		t.Fatalf("expected no command for non-quit input")
	}
	if rm.quitting {
		t.Fatalf("quitting should remain false")
	}
	if !rm.showHelp {
		t.Fatalf("help toggle should be enabled")
	}
	if rm.input.Value() != "" {
		t.Fatalf("input not cleared after command")
	}
}

func TestEvaluateAssignmentStoresVariable(t *testing.T) {
	m := newREPLModel()

	output, isErr := m.evaluate("$score = 42")
	if isErr {
		t.Fatalf("unexpected eval error: %s", output)
	}

	score, ok := m.session.Globals()["score"]
	if !ok {
		t.Fatalf("expected score to be stored in the session")
	}
	if score.Number() != 42 {
		t.Fatalf("unexpected score value: %s", score.Visualize())
	}
}

func TestEvaluateBareExpressionIsEchoed(t *testing.T) {
	m := newREPLModel()

	output, isErr := m.evaluate(`"ab" * 2`)
	if isErr || output != "abab" {
		t.Fatalf("unexpected result %q (err=%v)", output, isErr)
	}
}

func TestEvaluateFunctionsPersistAcrossInputs(t *testing.T) {
	m := newREPLModel()

	if output, isErr := m.evaluate("function twice(n) { throw(n * 2); }"); isErr {
		t.Fatalf("declaring failed: %s", output)
	}
	output, isErr := m.evaluate("twice(21)")
	if isErr || output != "42" {
		t.Fatalf("unexpected result %q (err=%v)", output, isErr)
	}
}

func TestEvaluateReportsHaltAndParseErrors(t *testing.T) {
	m := newREPLModel()

	output, isErr := m.evaluate(`echo 1; throw("x");`)
	if isErr || output != "1\nhalted with \"x\"" {
		t.Fatalf("unexpected halt result %q (err=%v)", output, isErr)
	}

	output, isErr = m.evaluate("$a = (")
	if !isErr || output == "" {
		t.Fatalf("expected parse error, got %q", output)
	}
}

func TestResetCommandStartsFreshSession(t *testing.T) {
	m := newREPLModel()
	if _, isErr := m.evaluate("$a = 1;"); isErr {
		t.Fatalf("assignment failed")
	}

	m.input.SetValue(":reset")
	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	rm := model.(replModel)
	if len(rm.session.Globals()) != 0 {
		t.Fatalf("expected empty globals after reset, got %v", rm.session.Globals())
	}
}

func TestAutocompleteCompletesBuiltins(t *testing.T) {
	m := newREPLModel()
	m.input.SetValue("echo cou")

	m = m.complete()
	if got := m.input.Value(); got != "echo count" {
		t.Fatalf("unexpected completion %q", got)
	}
}

func TestHistoryNavigation(t *testing.T) {
	m := newREPLModel()
	for _, line := range []string{"$a = 1;", "$b = 2;"} {
		m.input.SetValue(line)
		model, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = model.(replModel)
	}

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = model.(replModel)
	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = model.(replModel)
	if got := m.input.Value(); got != "$a = 1;" {
		t.Fatalf("expected oldest input, got %q", got)
	}

	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = model.(replModel)
	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = model.(replModel)
	if got := m.input.Value(); got != "" {
		t.Fatalf("expected a fresh line after the newest input, got %q", got)
	}
}

func TestViewShowsTranscriptAndVariables(t *testing.T) {
	m := newREPLModel()
	model, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	m = model.(replModel)
	m.input.SetValue(`$name = "phpxx"`)
	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = model.(replModel)
	m.input.SetValue(":vars")
	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = model.(replModel)

	view := m.View()
	for _, want := range []string{`$name = "phpxx"`, "→ ok", "Variables"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
}

func TestEvaluateRunawayLoopIsStopped(t *testing.T) {
	m := newREPLModel()

	output, isErr := m.evaluate("while 1 { }")
	if !isErr || !strings.Contains(output, "step quota") {
		t.Fatalf("expected the loop to hit the step quota, got %q (err=%v)", output, isErr)
	}

	output, isErr = m.evaluate("1 + 1")
	if isErr || output != "2" {
		t.Fatalf("session unusable after a stopped input: %q (err=%v)", output, isErr)
	}
}
