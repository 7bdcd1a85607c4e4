package phpxx

import (
	"errors"
	"fmt"
	"strings"
)

type StackFrame struct {
	Function string
	Pos      Position
}

// RuntimeError is a host-level failure of a run: exhausted step quota,
// exceeded recursion limit or a cancelled context. Language throws are never
// reported this way.
type RuntimeError struct {
	Message   string
	CodeFrame string
	Frames    []StackFrame
	err       error
}

const (
	runtimeErrorFrameHead = 8
	runtimeErrorFrameTail = 8
)

var (
	ErrStepQuotaExceeded = errors.New("step quota exceeded")
	ErrRecursionLimit    = errors.New("recursion limit exceeded")
)

func (re *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(re.Message)
	if re.CodeFrame != "" {
		b.WriteString("\n")
		b.WriteString(re.CodeFrame)
	}
	renderFrame := func(frame StackFrame) {
		if frame.Pos.Line > 0 {
			fmt.Fprintf(&b, "\n  at %s (%d:%d)", frame.Function, frame.Pos.Line, frame.Pos.Column)
		} else {
			fmt.Fprintf(&b, "\n  at %s", frame.Function)
		}
	}

	if len(re.Frames) <= runtimeErrorFrameHead+runtimeErrorFrameTail {
		for _, frame := range re.Frames {
			renderFrame(frame)
		}
		return b.String()
	}

	for _, frame := range re.Frames[:runtimeErrorFrameHead] {
		renderFrame(frame)
	}
	omitted := len(re.Frames) - (runtimeErrorFrameHead + runtimeErrorFrameTail)
	fmt.Fprintf(&b, "\n  ... %d frames omitted ...", omitted)
	for _, frame := range re.Frames[len(re.Frames)-runtimeErrorFrameTail:] {
		renderFrame(frame)
	}

	return b.String()
}

// Unwrap exposes the cause so callers can match the sentinel errors or
// context errors with errors.Is.
func (re *RuntimeError) Unwrap() error {
	return re.err
}

func (exec *Execution) step() error {
	exec.steps++
	if exec.quota > 0 && exec.steps > exec.quota {
		return exec.newRuntimeError(fmt.Errorf("%w (%d)", ErrStepQuotaExceeded, exec.quota), exec.current)
	}
	if exec.ctx != nil && exec.steps&63 == 0 {
		select {
		case <-exec.ctx.Done():
			return exec.newRuntimeError(exec.ctx.Err(), exec.current)
		default:
		}
	}
	return nil
}

func (exec *Execution) newRuntimeError(cause error, span Span) error {
	source := exec.program.source
	pos := PositionAt(source, span.Start)

	frames := make([]StackFrame, 0, len(exec.callStack)+1)
	if len(exec.callStack) > 0 {
		// The innermost frame is where the error occurred; each following
		// frame is a call site inside its caller.
		current := exec.callStack[len(exec.callStack)-1]
		frames = append(frames, StackFrame{Function: current.Function, Pos: pos})
		for i := len(exec.callStack) - 1; i >= 0; i-- {
			caller := "<script>"
			if i > 0 {
				caller = exec.callStack[i-1].Function
			}
			frames = append(frames, StackFrame{Function: caller, Pos: PositionAt(source, exec.callStack[i].Site.Start)})
		}
	} else {
		frames = append(frames, StackFrame{Function: "<script>", Pos: pos})
	}

	return &RuntimeError{
		Message:   cause.Error(),
		CodeFrame: formatCodeFrame(source, pos),
		Frames:    frames,
		err:       cause,
	}
}
