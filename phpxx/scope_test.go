package phpxx

import "testing"

func TestScopeReadWriteSameFrame(t *testing.T) {
	s := NewScope()
	s.Write("a", NewNumber(1))
	if got := s.Read("a"); got.Number() != 1 {
		t.Fatalf("expected 1, got %s", got.Visualize())
	}
	if got := s.Read("missing"); !got.IsVoid() {
		t.Fatalf("unknown names should read as void, got %s", got.Visualize())
	}
}

func TestScopeSoftFramesShareHardRegion(t *testing.T) {
	s := NewScope()
	s.EnterCall()
	s.Write("x", NewNumber(1))
	s.Push(false)
	s.Push(false)

	s.Write("x", NewNumber(2))
	s.Write("inner", NewNumber(3))
	s.Pop()
	if got := s.Read("x"); got.Number() != 2 {
		t.Fatalf("write in a soft frame should update the visible binding, got %s", got.Visualize())
	}
	if got := s.Read("inner"); !got.IsVoid() {
		t.Fatalf("binding declared in a popped soft frame leaked: %s", got.Visualize())
	}
}

func TestScopeHardFrameStopsResolution(t *testing.T) {
	s := NewScope()
	s.Write("g", NewString("global"))
	s.EnterCall()

	if got := s.Read("g"); !got.IsVoid() {
		t.Fatalf("read crossed a hard frame: %s", got.Visualize())
	}
	s.Write("g", NewString("local"))
	s.ExitCall()

	if got := s.Read("g"); got.Str() != "global" {
		t.Fatalf("write crossed a hard frame, global is now %s", got.Visualize())
	}
}

func TestScopeWriteLocalShadows(t *testing.T) {
	s := NewScope()
	s.Write("a", NewNumber(1))
	s.Push(false)
	s.WriteLocal("a", NewNumber(2))
	if got := s.Read("a"); got.Number() != 2 {
		t.Fatalf("expected shadowing binding, got %s", got.Visualize())
	}
	s.Pop()
	if got := s.Read("a"); got.Number() != 1 {
		t.Fatalf("outer binding should be untouched, got %s", got.Visualize())
	}
}

func TestScopeExitCallDiscardsSoftFrames(t *testing.T) {
	s := NewScope()
	s.EnterCall()
	s.Push(false)
	s.Push(false)
	if s.Depth() != 4 {
		t.Fatalf("expected depth 4, got %d", s.Depth())
	}
	s.ExitCall()
	if s.Depth() != 1 {
		t.Fatalf("exit should drop soft frames and one hard frame, depth %d", s.Depth())
	}
}

func TestScopeNeverPopsBottomFrame(t *testing.T) {
	s := NewScope()
	s.Write("keep", NewNumber(1))
	s.Pop()
	s.ExitCall()
	s.Push(false)
	s.ExitCall()
	if s.Depth() != 1 {
		t.Fatalf("bottom frame must survive, depth %d", s.Depth())
	}
	if got := s.Globals()["keep"]; got.Number() != 1 {
		t.Fatalf("global binding lost: %s", got.Visualize())
	}
}

func TestFunctionTableLastDeclarationWins(t *testing.T) {
	table := newFunctionTable()
	params := []string{"a"}
	table.Register("f", 1, params)
	table.Register("g", 4, nil)
	table.Register("f", 7, []string{"x", "y"})
	params[0] = "mutated"

	fn, ok := table.Lookup("f")
	if !ok || fn.Entry != 7 || len(fn.Params) != 2 {
		t.Fatalf("expected the later declaration, got %+v", fn)
	}
	if table.Len() != 2 {
		t.Fatalf("expected two functions, got %d", table.Len())
	}
	if names := table.Names(); len(names) != 2 || names[0] != "f" || names[1] != "g" {
		t.Fatalf("unexpected names %v", names)
	}
	if _, ok := table.Lookup("missing"); ok {
		t.Fatalf("lookup of an undeclared function succeeded")
	}
}
