package debug

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// DebugContext is the thread-safe owner of the live debuggee model: the
// weak ID registries for every entity kind, breakpoint bookkeeping, and
// the broadcast sink that turns a Thread's own state changes into
// events for every connected session (§"DebugContext").
//
// The original exposes one coarse lock() returning a *recursive* mutex
// handle, because its lock.get(...) methods are themselves called while
// already holding the lock as handlers walk Thread -> Frame -> Scope ->
// VariableContainer. Lock's methods below operate directly on
// DebugContext's fields without calling back through Lock() a second
// time, so nothing here actually reenters the mutex — a plain
// sync.Mutex is therefore sufficient without changing the locking
// contract callers rely on (see DESIGN.md).
type DebugContext struct {
	mu sync.Mutex

	threadIDs   *idAllocator[Thread]
	frameIDs    *idAllocator[Frame]
	scopeIDs    *idAllocator[Scope]
	varIDs      *idAllocator[VariableContainer]
	fileIDs     *idAllocator[File]

	threads   *WeakMap[ID[Thread], Thread]
	frames    *WeakMap[ID[Frame], Frame]
	scopes    *WeakMap[ID[Scope], Scope]
	vars      *WeakMap[ID[VariableContainer], VariableContainer]
	files     *WeakMap[ID[File], File]
	filesByName map[string]*File

	functionBreakpoints map[string]struct{}
	pendingBreakpoints  map[string][]int // source name -> lines, for files not yet registered

	// currentThreads backs CurrentThread: host-thread-identity key ->
	// the Thread lazily created for it on first touch. Go gives no
	// public equivalent of the original's native OS thread id, so the
	// key is whatever comparable value the host uses to name "the
	// thread calling right now" (see CurrentThread).
	currentThreads map[any]*Thread

	log *logrus.Entry

	listenersMu sync.Mutex
	listeners   []EventListener
}

// NewDebugContext returns an empty DebugContext. The returned context
// logs nowhere until SetLogger gives it a real entry; an embedder that
// never calls SetLogger still gets a valid, silent logger rather than a
// nil one every call site would otherwise have to guard against.
func NewDebugContext() *DebugContext {
	discard := logrus.New()
	discard.Out = io.Discard
	return &DebugContext{
		threadIDs: newIDAllocator[Thread](),
		frameIDs:  newIDAllocator[Frame](),
		scopeIDs:  newIDAllocator[Scope](),
		varIDs:    newIDAllocator[VariableContainer](),
		fileIDs:   newIDAllocator[File](),

		threads:     NewWeakMap[ID[Thread], Thread](),
		frames:      NewWeakMap[ID[Frame], Frame](),
		scopes:      NewWeakMap[ID[Scope], Scope](),
		vars:        NewWeakMap[ID[VariableContainer], VariableContainer](),
		files:       NewWeakMap[ID[File], File](),
		filesByName: map[string]*File{},

		functionBreakpoints: map[string]struct{}{},
		pendingBreakpoints:  map[string][]int{},
		currentThreads:      map[any]*Thread{},
		log:                 discard.WithField("layer", "debugcontext"),
	}
}

// SetLogger replaces the context's logger, normally with
// logflags.DebugContextLogger() so registry and breakpoint mutation log
// at the level that flag enables.
func (c *DebugContext) SetLogger(log *logrus.Entry) {
	c.log = log
}

// AddListener registers l to receive every future thread/breakpoint
// event, in addition to whatever listeners are already registered
// (§"broadcast sink (multi-listener)").
func (c *DebugContext) AddListener(l EventListener) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, l)
}

func (c *DebugContext) OnThreadStarted(id ID[Thread])          { c.fanout(func(l EventListener) { l.OnThreadStarted(id) }) }
func (c *DebugContext) OnThreadStepped(id ID[Thread])          { c.fanout(func(l EventListener) { l.OnThreadStepped(id) }) }
func (c *DebugContext) OnLineBreakpointHit(id ID[Thread])      { c.fanout(func(l EventListener) { l.OnLineBreakpointHit(id) }) }
func (c *DebugContext) OnFunctionBreakpointHit(id ID[Thread])  { c.fanout(func(l EventListener) { l.OnFunctionBreakpointHit(id) }) }

func (c *DebugContext) fanout(call func(EventListener)) {
	c.listenersMu.Lock()
	ls := make([]EventListener, len(c.listeners))
	copy(ls, c.listeners)
	c.listenersMu.Unlock()
	for _, l := range ls {
		call(l)
	}
}

var _ EventListener = (*DebugContext)(nil)

// Lock acquires the context's mutex and returns a handle for entity
// lookup, creation and breakpoint mutation. Callers must call Unlock
// when done, typically via defer.
func (c *DebugContext) Lock() *ContextLock {
	c.mu.Lock()
	return &ContextLock{ctx: c}
}

// ContextLock is the scoped handle Lock returns.
type ContextLock struct {
	ctx *DebugContext
}

// Unlock releases the context's mutex.
func (l *ContextLock) Unlock() { l.ctx.mu.Unlock() }

// NewThread allocates a Thread ID, registers it weakly, and returns the
// strong pointer for the caller — normally the debuggee host driving
// execution — to retain for as long as the thread runs.
func (l *ContextLock) NewThread() *Thread {
	id := l.ctx.threadIDs.alloc()
	t := NewThread(id, l.ctx)
	l.ctx.threads.Add(id, t)
	l.ctx.log.WithField("thread", id).Debug("debugcontext: thread started")
	l.ctx.OnThreadStarted(id)
	return t
}

// GetThread resolves id to its live Thread, or nil if it was never
// registered or has since been garbage collected.
func (l *ContextLock) GetThread(id ID[Thread]) *Thread { return l.ctx.threads.Get(id) }

// CurrentThread resolves key — a comparable value the host uses to
// name "the thread calling right now" — to its Thread, allocating one
// via NewThread (and so firing onThreadStarted) the first time a given
// key is seen, then returning the same Thread on every later call with
// that key (§6 "Context::currentThread(): the Thread bound to the
// calling host thread, created lazily"). A host with one goroutine per
// logical worker typically passes a per-worker token as key.
func (l *ContextLock) CurrentThread(key any) *Thread {
	if t, ok := l.ctx.currentThreads[key]; ok {
		return t
	}
	t := l.NewThread()
	l.ctx.currentThreads[key] = t
	return t
}

// Threads returns every currently live thread, for handlers like
// continue-with-unknown-threadId that must act on the whole table
// instead of one entry (§9: the original resumes a null pointer here;
// the fix is to resume each live thread).
func (l *ContextLock) Threads() []*Thread {
	var out []*Thread
	l.ctx.threads.Range(func(_ ID[Thread], t *Thread) bool {
		out = append(out, t)
		return true
	})
	return out
}

// CreateVirtualFile registers a new virtual File under name, installing
// any pending line breakpoints filed under that name atomically.
func (l *ContextLock) CreateVirtualFile(name, source string) *File {
	id := l.ctx.fileIDs.alloc()
	f := NewVirtualFile(id, name, source)
	l.register(f, name)
	return f
}

// CreatePhysicalFile registers a new physical File at path, installing
// any pending line breakpoints filed under its base name atomically.
func (l *ContextLock) CreatePhysicalFile(path string) *File {
	id := l.ctx.fileIDs.alloc()
	f := NewPhysicalFile(id, path)
	l.register(f, f.Name())
	return f
}

func (l *ContextLock) register(f *File, name string) {
	l.ctx.files.Add(f.ID, f)
	l.ctx.filesByName[name] = f
	l.ctx.log.WithFields(logrus.Fields{"file": f.ID, "name": name}).Debug("debugcontext: file registered")
	if lines, ok := l.ctx.pendingBreakpoints[name]; ok {
		for _, line := range lines {
			f.AddBreakpoint(line)
		}
		delete(l.ctx.pendingBreakpoints, name)
	}
}

// GetFile resolves id to its live File.
func (l *ContextLock) GetFile(id ID[File]) *File { return l.ctx.files.Get(id) }

// GetFileByName resolves a File by its registered name (source
// projection's path/name fallback, §"setBreakpoints").
func (l *ContextLock) GetFileByName(name string) *File { return l.ctx.filesByName[name] }

// AddPendingBreakpoints records line breakpoints for a source name that
// has no registered File yet; they're installed the moment a File with
// a matching name is created.
func (l *ContextLock) AddPendingBreakpoints(sourceName string, lines []int) {
	if f, ok := l.ctx.filesByName[sourceName]; ok {
		for _, line := range lines {
			f.AddBreakpoint(line)
		}
		return
	}
	l.ctx.pendingBreakpoints[sourceName] = lines
	l.ctx.log.WithField("source", sourceName).Debug("debugcontext: breakpoints pending, no file registered yet")
}

// AddFunctionBreakpoint registers name as a function breakpoint.
func (l *ContextLock) AddFunctionBreakpoint(name string) {
	l.ctx.functionBreakpoints[name] = struct{}{}
	l.ctx.log.WithField("function", name).Debug("debugcontext: function breakpoint added")
}

// ClearFunctionBreakpoints removes every function breakpoint, used by
// setFunctionBreakpoints to replace the whole set atomically.
func (l *ContextLock) ClearFunctionBreakpoints() {
	l.ctx.functionBreakpoints = map[string]struct{}{}
	l.ctx.log.Debug("debugcontext: function breakpoints cleared")
}

// IsFunctionBreakpoint reports whether name is currently a function
// breakpoint.
func (l *ContextLock) IsFunctionBreakpoint(name string) bool {
	_, ok := l.ctx.functionBreakpoints[name]
	return ok
}

// CreateFrame allocates a new Frame for file, with three fresh Scopes
// (arguments, locals, registers) each backed by a new empty
// VariableContainer (§"createFrame").
func (l *ContextLock) CreateFrame(file *File) *Frame {
	frame := &Frame{
		ID:        l.ctx.frameIDs.alloc(),
		Location:  Location{File: file},
		Arguments: l.newScope(file),
		Locals:    l.newScope(file),
		Registers: l.newScope(file),
	}
	l.ctx.frames.Add(frame.ID, frame)
	return frame
}

func (l *ContextLock) newScope(file *File) *Scope {
	vars := NewVariableContainer(l.ctx.varIDs.alloc())
	l.ctx.vars.Add(vars.ID, vars)
	scope := &Scope{ID: l.ctx.scopeIDs.alloc(), File: file, Variables: vars}
	l.ctx.scopes.Add(scope.ID, scope)
	return scope
}

// GetFrame resolves id to its live Frame.
func (l *ContextLock) GetFrame(id ID[Frame]) *Frame { return l.ctx.frames.Get(id) }

// GetScope resolves id to its live Scope.
func (l *ContextLock) GetScope(id ID[Scope]) *Scope { return l.ctx.scopes.Get(id) }

// GetVariableContainer resolves id to its live VariableContainer.
func (l *ContextLock) GetVariableContainer(id ID[VariableContainer]) *VariableContainer {
	return l.ctx.vars.Get(id)
}
