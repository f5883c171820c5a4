// Package demohost is a synthetic "shader runtime" driver used by
// `gpudbg serve --demo`: it repeatedly calls
// the host-facing API (Thread.Enter/Update/Exit,
// VariableContainer.PutValue) against a couple of virtual source files,
// so the DAP handler set has something real to report without needing
// an actual graphics runtime attached (§2 "[DOMAIN] Demo host").
package demohost

import (
	"context"
	"time"

	"github.com/ben-clayton/gpudbg/pkg/debug"
)

// program is one virtual source file and the single line its synthetic
// "execution" visits on every step, forever.
type program struct {
	name string
	src  string
	line int // single line visited repeatedly, see Run
}

var programs = []program{
	{name: "vertex.frag", src: "void main() {\n  gl_Position = pos * mvp;\n}\n", line: 2},
	{name: "fragment.frag", src: "void main() {\n  float d = dot(n, l);\n  outColor = vec4(d);\n}\n", line: 3},
}

// Run starts one goroutine per synthetic program, each driving its own
// Thread through Enter/Update/Exit in a loop until ctx is done. Run
// registers every program's File itself before starting its goroutine,
// so callers can rely on setBreakpoints resolving by name immediately
// after Run returns.
func Run(ctx context.Context, dctx *debug.DebugContext) {
	for i := range programs {
		p := programs[i]
		lock := dctx.Lock()
		file := lock.CreateVirtualFile(p.name, p.src)
		lock.Unlock()

		go driveThread(ctx, dctx, file, p)
	}
}

func driveThread(ctx context.Context, dctx *debug.DebugContext, file *debug.File, p program) {
	// p.name is this goroutine's host-thread-identity key: one driver
	// goroutine per program, so the program name stands in for the
	// native OS thread id the original used to key its own
	// currentThread() map.
	lock := dctx.Lock()
	thread := lock.CurrentThread(p.name)
	thread.SetName("worker:" + p.name)
	lock.Unlock()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			step(dctx, thread, file, p)
		}
	}
}

func step(dctx *debug.DebugContext, thread *debug.Thread, file *debug.File, p program) {
	lock := dctx.Lock()
	frame := lock.CreateFrame(file)
	isFnBP := lock.IsFunctionBreakpoint("main")
	lock.Unlock()

	thread.Enter(frame, file, "main", isFnBP)
	frame.Locals.Variables.PutValue("d", debug.NewConstant(float32(0.5)))
	frame.Arguments.Variables.PutValue("n", debug.NewConstant(float32(1)))

	thread.Update(debug.Location{File: file, Line: p.line})

	thread.Exit()
}
