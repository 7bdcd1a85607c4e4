package phpxx

// frame is one level of the variable stack. Name resolution walks through
// soft frames and stops at the first hard one.
type frame struct {
	hard   bool
	values map[string]Value
}

func newFrame(hard bool) *frame {
	return &frame{hard: hard, values: make(map[string]Value)}
}

// Scope is the stack of variable frames owned by an execution. The bottom
// frame is hard and is never popped.
type Scope struct {
	frames []*frame
}

func NewScope() *Scope {
	return &Scope{frames: []*frame{newFrame(true)}}
}

// Depth reports the number of frames on the stack.
func (s *Scope) Depth() int {
	return len(s.frames)
}

func (s *Scope) top() *frame {
	return s.frames[len(s.frames)-1]
}

// lookup finds the frame holding name, searching from the top and stopping
// after the first hard frame.
func (s *Scope) lookup(name string) (*frame, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if _, ok := f.values[name]; ok {
			return f, true
		}
		if f.hard {
			return nil, false
		}
	}
	return nil, false
}

// Read returns the visible binding for name or Void when there is none.
func (s *Scope) Read(name string) Value {
	if f, ok := s.lookup(name); ok {
		return f.values[name]
	}
	return NewVoid()
}

// Write overwrites the visible binding for name, or declares it in the
// topmost frame when no binding is visible.
func (s *Scope) Write(name string, val Value) {
	if f, ok := s.lookup(name); ok {
		f.values[name] = val
		return
	}
	s.top().values[name] = val
}

// WriteLocal binds name in the topmost frame without searching.
func (s *Scope) WriteLocal(name string, val Value) {
	s.top().values[name] = val
}

func (s *Scope) Push(hard bool) {
	s.frames = append(s.frames, newFrame(hard))
}

// Pop removes the topmost frame unless it is the bottom one.
func (s *Scope) Pop() {
	if len(s.frames) <= 1 {
		return
	}
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
}

// EnterCall pushes the hard frame that starts a function activation.
func (s *Scope) EnterCall() {
	s.Push(true)
}

// ExitCall discards every soft frame on top of the stack and then the hard
// frame beneath them, leaving the bottom frame in place. Frames the callee
// left behind (for example after throwing from inside a block) go with it.
func (s *Scope) ExitCall() {
	for len(s.frames) > 1 && !s.top().hard {
		s.Pop()
	}
	if len(s.frames) > 1 {
		s.Pop()
	}
}

// Globals returns a copy of the bottom frame.
func (s *Scope) Globals() map[string]Value {
	out := make(map[string]Value, len(s.frames[0].values))
	for k, v := range s.frames[0].values {
		out[k] = v
	}
	return out
}
