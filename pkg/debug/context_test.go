package debug

import "testing"

type countingListener struct {
	started int
	lineHit int
	fnHit   int
	stepped int
}

func (l *countingListener) OnThreadStarted(ID[Thread])         { l.started++ }
func (l *countingListener) OnThreadStepped(ID[Thread])         { l.stepped++ }
func (l *countingListener) OnLineBreakpointHit(ID[Thread])     { l.lineHit++ }
func (l *countingListener) OnFunctionBreakpointHit(ID[Thread]) { l.fnHit++ }

func TestContextNewThreadBroadcastsToListeners(t *testing.T) {
	ctx := NewDebugContext()
	l := &countingListener{}
	ctx.AddListener(l)

	lock := ctx.Lock()
	th := lock.NewThread()
	lock.Unlock()

	if l.started != 1 {
		t.Fatalf("started = %d, want 1", l.started)
	}
	lock = ctx.Lock()
	got := lock.GetThread(th.ID)
	lock.Unlock()
	if got != th {
		t.Fatal("GetThread should return the same *Thread NewThread created")
	}
}

func TestContextThreadsSnapshotsEveryLiveThread(t *testing.T) {
	ctx := NewDebugContext()
	lock := ctx.Lock()
	t1 := lock.NewThread()
	t2 := lock.NewThread()
	lock.Unlock()

	lock = ctx.Lock()
	all := lock.Threads()
	lock.Unlock()

	if len(all) != 2 {
		t.Fatalf("Threads() = %d entries, want 2", len(all))
	}
	seen := map[*Thread]bool{}
	for _, th := range all {
		seen[th] = true
	}
	if !seen[t1] || !seen[t2] {
		t.Fatal("Threads() missing one of the created threads")
	}
}

func TestContextCreateVirtualFileInstallsPendingBreakpoints(t *testing.T) {
	ctx := NewDebugContext()
	lock := ctx.Lock()
	lock.AddPendingBreakpoints("shader.frag", []int{2, 4})
	file := lock.CreateVirtualFile("shader.frag", "void main() {}\n")
	lock.Unlock()

	if !file.HasBreakpoint(2) || !file.HasBreakpoint(4) {
		t.Fatal("pending breakpoints should be installed at file creation")
	}
}

func TestContextAddPendingBreakpointsOnExistingFileAppliesImmediately(t *testing.T) {
	ctx := NewDebugContext()
	lock := ctx.Lock()
	file := lock.CreateVirtualFile("shader.frag", "")
	lock.AddPendingBreakpoints("shader.frag", []int{1})
	lock.Unlock()

	if !file.HasBreakpoint(1) {
		t.Fatal("AddPendingBreakpoints on an already-registered file should apply immediately")
	}
}

func TestContextGetFileByName(t *testing.T) {
	ctx := NewDebugContext()
	lock := ctx.Lock()
	file := lock.CreatePhysicalFile("/src/a.frag")
	got := lock.GetFileByName("a.frag")
	lock.Unlock()
	if got != file {
		t.Fatal("GetFileByName should resolve the file just created")
	}
}

func TestContextFunctionBreakpoints(t *testing.T) {
	ctx := NewDebugContext()
	lock := ctx.Lock()
	lock.AddFunctionBreakpoint("main")
	if !lock.IsFunctionBreakpoint("main") {
		t.Fatal("IsFunctionBreakpoint should be true right after AddFunctionBreakpoint")
	}
	lock.ClearFunctionBreakpoints()
	if lock.IsFunctionBreakpoint("main") {
		t.Fatal("ClearFunctionBreakpoints should remove every entry")
	}
	lock.Unlock()
}

func TestContextCreateFrameAllocatesThreeDistinctScopes(t *testing.T) {
	ctx := NewDebugContext()
	lock := ctx.Lock()
	file := lock.CreateVirtualFile("a", "")
	frame := lock.CreateFrame(file)
	lock.Unlock()

	if frame.Arguments == frame.Locals || frame.Locals == frame.Registers || frame.Arguments == frame.Registers {
		t.Fatal("CreateFrame should allocate three distinct scopes")
	}
	if frame.Arguments.Variables == frame.Locals.Variables {
		t.Fatal("each scope should own its own VariableContainer")
	}
}

func TestContextCurrentThreadIsLazyAndStableForSameKey(t *testing.T) {
	ctx := NewDebugContext()
	l := &countingListener{}
	ctx.AddListener(l)

	lock := ctx.Lock()
	a := lock.CurrentThread("worker-1")
	b := lock.CurrentThread("worker-1")
	c := lock.CurrentThread("worker-2")
	lock.Unlock()

	if a != b {
		t.Fatal("CurrentThread should return the same Thread for the same key")
	}
	if a == c {
		t.Fatal("CurrentThread should allocate a distinct Thread per distinct key")
	}
	if l.started != 2 {
		t.Fatalf("started = %d, want 2 (one per distinct key)", l.started)
	}
}

func TestContextGetScopeAndVariableContainerResolve(t *testing.T) {
	ctx := NewDebugContext()
	lock := ctx.Lock()
	file := lock.CreateVirtualFile("a", "")
	frame := lock.CreateFrame(file)
	gotScope := lock.GetScope(frame.Locals.ID)
	gotVars := lock.GetVariableContainer(frame.Locals.Variables.ID)
	lock.Unlock()

	if gotScope != frame.Locals {
		t.Fatal("GetScope should resolve the same *Scope")
	}
	if gotVars != frame.Locals.Variables {
		t.Fatal("GetVariableContainer should resolve the same *VariableContainer")
	}
}
