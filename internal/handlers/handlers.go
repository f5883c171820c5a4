// Package handlers binds DAP commands (§4.8) to operations on a
// debug.DebugContext and its Threads, translating between wire argument
// structs and the host-facing model.
package handlers

import (
	"strings"

	"github.com/ben-clayton/gpudbg/internal/dap"
	"github.com/ben-clayton/gpudbg/internal/wire"
	"github.com/ben-clayton/gpudbg/pkg/debug"
	"github.com/sirupsen/logrus"
)

// Host bundles the state every handler needs: the live debuggee model
// and the listener used to broadcast events to every connected session.
type Host struct {
	Ctx             *debug.DebugContext
	Listener        *dap.ServerListener
	SanitizeDefault bool
	Log             *logrus.Entry
}

// Register returns the full command -> handler map for a ServerListener.
func Register(h *Host) map[string]dap.HandlerFunc {
	return map[string]dap.HandlerFunc{
		"initialize":             h.initialize,
		"configurationDone":      h.configurationDone,
		"setBreakpoints":         h.setBreakpoints,
		"setFunctionBreakpoints": h.setFunctionBreakpoints,
		"setExceptionBreakpoints": h.setExceptionBreakpoints,
		"threads":                h.threads,
		"stackTrace":             h.stackTrace,
		"scopes":                 h.scopes,
		"variables":              h.variables,
		"source":                 h.source,
		"pause":                  h.pause,
		"continue":               h.continueReq,
		"next":                   h.next,
		"stepIn":                 h.stepIn,
		"stepOut":                h.stepOut,
		"evaluate":               h.evaluate,
		"disconnect":             h.disconnect,
		"launch":                 h.launch,
	}
}

func decodeArgs(args any, dst any) error {
	if args == nil {
		args = map[string]any{}
	}
	return wire.Deserialize(args, dst)
}

func (h *Host) sanitize(s *dap.Session, name string) string {
	if s.Sanitize() {
		return strings.ReplaceAll(name, ".", "_")
	}
	return name
}

// received logs one line per dispatched command, the per-handler
// counterpart to session.go's own "dap: request" line: that one covers
// framing and decoding, this one covers what the handler actually did
// with the arguments once decoded.
func (h *Host) received(command string, fields logrus.Fields) {
	h.Log.WithFields(fields).Debugf("handlers: %s received", command)
}

func (h *Host) initialize(s *dap.Session, args any) (any, error) {
	var req dap.InitializeRequestArguments
	if err := decodeArgs(args, &req); err != nil {
		return nil, dap.NewFailure(dap.InvalidArgumentsError, err.Error())
	}
	clientID, _ := req.ClientID.Get()
	h.received("initialize", logrus.Fields{"clientID": clientID})
	s.SetClientID(clientID)
	s.SetSanitize(h.SanitizeDefault || clientID == "visualstudio")

	return dap.InitializeResponseBody{
		SupportsFunctionBreakpoints:      true,
		SupportsConfigurationDoneRequest: true,
	}, nil
}

func (h *Host) configurationDone(s *dap.Session, args any) (any, error) {
	h.received("configurationDone", nil)
	return struct{}{}, nil
}

func (h *Host) setBreakpoints(s *dap.Session, args any) (any, error) {
	var req dap.SetBreakpointsArguments
	if err := decodeArgs(args, &req); err != nil {
		return nil, dap.NewFailure(dap.InvalidArgumentsError, err.Error())
	}
	lines, _ := req.Breakpoints.Get()
	h.received("setBreakpoints", logrus.Fields{"count": len(lines)})

	lock := h.Ctx.Lock()
	defer lock.Unlock()

	name, _ := req.Source.Name.Get()
	path, hasPath := req.Source.Path.Get()
	srcRef, hasSrcRef := req.Source.SourceReference.Get()

	var file *debug.File
	switch {
	case hasSrcRef:
		file = lock.GetFile(debug.ID[debug.File](srcRef))
	case hasPath:
		// Files are indexed by base name; the match counts only if its
		// full path is the one requested.
		file = lock.GetFileByName(path[strings.LastIndex(path, "/")+1:])
		if file != nil && file.Path() != path {
			file = nil
		}
	case name != "":
		file = lock.GetFileByName(name)
	}

	resp := dap.SetBreakpointsResponseBody{}
	if file != nil {
		file.ClearBreakpoints()
		for _, bp := range lines {
			file.AddBreakpoint(bp.Line)
			resp.Breakpoints = append(resp.Breakpoints, dap.Breakpoint{
				Verified: true,
				Source:   wire.Some(toSource(file, h.sanitize(s, file.Name()))),
				Line:     wire.Some(int64(bp.Line)),
			})
		}
		return resp, nil
	}

	// Pending breakpoints are matched by name when a file registers.
	target := name
	if target == "" {
		target = path[strings.LastIndex(path, "/")+1:]
	}
	ints := make([]int, 0, len(lines))
	for _, bp := range lines {
		ints = append(ints, bp.Line)
	}
	lock.AddPendingBreakpoints(target, ints)
	for _, bp := range lines {
		resp.Breakpoints = append(resp.Breakpoints, dap.Breakpoint{
			Verified: false,
			Line:     wire.Some(int64(bp.Line)),
		})
	}
	return resp, nil
}

func (h *Host) setFunctionBreakpoints(s *dap.Session, args any) (any, error) {
	var req dap.SetFunctionBreakpointsArguments
	if err := decodeArgs(args, &req); err != nil {
		return nil, dap.NewFailure(dap.InvalidArgumentsError, err.Error())
	}
	h.received("setFunctionBreakpoints", logrus.Fields{"count": len(req.Breakpoints)})

	lock := h.Ctx.Lock()
	defer lock.Unlock()

	lock.ClearFunctionBreakpoints()
	resp := dap.SetFunctionBreakpointsResponseBody{}
	for _, fb := range req.Breakpoints {
		lock.AddFunctionBreakpoint(fb.Name)
		resp.Breakpoints = append(resp.Breakpoints, dap.Breakpoint{Verified: true})
	}
	return resp, nil
}

func (h *Host) setExceptionBreakpoints(s *dap.Session, args any) (any, error) {
	h.received("setExceptionBreakpoints", nil)
	return struct{}{}, nil
}

func (h *Host) threads(s *dap.Session, args any) (any, error) {
	h.received("threads", nil)
	lock := h.Ctx.Lock()
	defer lock.Unlock()

	resp := dap.ThreadsResponseBody{}
	for _, t := range lock.Threads() {
		resp.Threads = append(resp.Threads, dap.Thread{
			ID:   int64(t.ID),
			Name: h.sanitize(s, t.Name()),
		})
	}
	return resp, nil
}

func (h *Host) stackTrace(s *dap.Session, args any) (any, error) {
	var req dap.StackTraceArguments
	if err := decodeArgs(args, &req); err != nil {
		return nil, dap.NewFailure(dap.InvalidArgumentsError, err.Error())
	}

	h.received("stackTrace", logrus.Fields{"threadID": req.ThreadID})

	lock := h.Ctx.Lock()
	thread := lock.GetThread(debug.ID[debug.Thread](req.ThreadID))
	lock.Unlock()
	if thread == nil {
		return nil, dap.NotFound("thread")
	}

	frames := thread.Stack()
	resp := dap.StackTraceResponseBody{TotalFrames: wire.Some(int64(len(frames)))}
	// Innermost frame first on the wire, reverse of Stack()'s bottom-up order.
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		sf := dap.StackFrame{
			ID:     int64(f.ID),
			Name:   f.Function,
			Line:   int64(f.Location.Line),
			Column: 0,
		}
		if f.Location.File != nil {
			sf.Source = wire.Some(toSource(f.Location.File, h.sanitize(s, f.Location.File.Name())))
		}
		resp.StackFrames = append(resp.StackFrames, sf)
	}
	return resp, nil
}

func (h *Host) scopes(s *dap.Session, args any) (any, error) {
	var req dap.ScopesArguments
	if err := decodeArgs(args, &req); err != nil {
		return nil, dap.NewFailure(dap.InvalidArgumentsError, err.Error())
	}

	h.received("scopes", logrus.Fields{"frameID": req.FrameID})

	lock := h.Ctx.Lock()
	defer lock.Unlock()

	frame := lock.GetFrame(debug.ID[debug.Frame](req.FrameID))
	if frame == nil {
		return nil, dap.NotFound("frame")
	}

	// Fixed order per §4.8: locals, arguments, registers.
	resp := dap.ScopesResponseBody{
		Scopes: []dap.Scope{
			{Name: "Locals", VariablesReference: int64(frame.Locals.Variables.ID)},
			{Name: "Arguments", VariablesReference: int64(frame.Arguments.Variables.ID)},
			{Name: "Registers", VariablesReference: int64(frame.Registers.Variables.ID)},
		},
	}
	return resp, nil
}

func (h *Host) variables(s *dap.Session, args any) (any, error) {
	var req dap.VariablesArguments
	if err := decodeArgs(args, &req); err != nil {
		return nil, dap.NewFailure(dap.InvalidArgumentsError, err.Error())
	}

	h.received("variables", logrus.Fields{"variablesReference": req.VariablesReference})

	lock := h.Ctx.Lock()
	container := lock.GetVariableContainer(debug.ID[debug.VariableContainer](req.VariablesReference))
	lock.Unlock()
	if container == nil {
		return nil, dap.NotFound("variablesReference")
	}

	start := int(req.Start.GetOr(0))
	count, hasCount := req.Count.Get()

	resp := dap.VariablesResponseBody{}
	emitted := int64(0)
	container.Foreach(start, func(v debug.Variable) {
		if hasCount && emitted >= count {
			return
		}
		emitted++
		wireVar := dap.Variable{Name: v.Name}
		if v.Value != nil {
			wireVar.Value = v.Value.String()
			wireVar.Type = wire.Some(v.Value.Kind().String())
			if vc, ok := v.Value.(*debug.VariableContainer); ok {
				wireVar.VariablesReference = int64(vc.ID)
			}
		}
		resp.Variables = append(resp.Variables, wireVar)
	})
	return resp, nil
}

func (h *Host) source(s *dap.Session, args any) (any, error) {
	var req dap.SourceArguments
	if err := decodeArgs(args, &req); err != nil {
		return nil, dap.NewFailure(dap.InvalidArgumentsError, err.Error())
	}
	h.received("source", logrus.Fields{"sourceReference": req.SourceReference})

	lock := h.Ctx.Lock()
	file := lock.GetFile(debug.ID[debug.File](req.SourceReference))
	lock.Unlock()
	if file == nil {
		return nil, dap.NotFound("sourceReference")
	}
	return dap.SourceResponseBody{Content: file.Source()}, nil
}

func (h *Host) pause(s *dap.Session, args any) (any, error) {
	var req dap.PauseArguments
	if err := decodeArgs(args, &req); err != nil {
		return nil, dap.NewFailure(dap.InvalidArgumentsError, err.Error())
	}

	h.received("pause", logrus.Fields{"threadID": req.ThreadID})

	lock := h.Ctx.Lock()
	thread := lock.GetThread(debug.ID[debug.Thread](req.ThreadID))
	allThreadsStopped := thread == nil
	var targets []*debug.Thread
	if thread != nil {
		targets = []*debug.Thread{thread}
	} else {
		targets = lock.Threads()
	}
	lock.Unlock()

	for _, t := range targets {
		t.Pause()
	}

	var eventThreadID int64
	if thread != nil {
		eventThreadID = req.ThreadID
	} else if len(targets) > 0 {
		eventThreadID = int64(targets[0].ID)
	}
	h.Listener.Broadcast("stopped", dap.StoppedEventBody{
		Reason:            "pause",
		ThreadID:          wire.Some(eventThreadID),
		AllThreadsStopped: wire.Some(allThreadsStopped),
	})

	return struct{}{}, nil
}

// continueReq implements §4.8 continue, correcting the original's
// unknown-threadId bug (§9): when no thread matches, every thread in the
// table is resumed instead of calling resume on a null reference.
func (h *Host) continueReq(s *dap.Session, args any) (any, error) {
	var req dap.ContinueArguments
	if err := decodeArgs(args, &req); err != nil {
		return nil, dap.NewFailure(dap.InvalidArgumentsError, err.Error())
	}

	h.received("continue", logrus.Fields{"threadID": req.ThreadID})

	lock := h.Ctx.Lock()
	thread := lock.GetThread(debug.ID[debug.Thread](req.ThreadID))
	allThreadsContinued := thread == nil
	var targets []*debug.Thread
	if thread != nil {
		targets = []*debug.Thread{thread}
	} else {
		targets = lock.Threads()
	}
	lock.Unlock()

	for _, t := range targets {
		t.Resume()
	}

	return dap.ContinueResponseBody{AllThreadsContinued: wire.Some(allThreadsContinued)}, nil
}

func (h *Host) next(s *dap.Session, args any) (any, error) {
	var req dap.NextArguments
	if err := decodeArgs(args, &req); err != nil {
		return nil, dap.NewFailure(dap.InvalidArgumentsError, err.Error())
	}
	h.received("next", logrus.Fields{"threadID": req.ThreadID})
	lock := h.Ctx.Lock()
	thread := lock.GetThread(debug.ID[debug.Thread](req.ThreadID))
	lock.Unlock()
	if thread == nil {
		return nil, dap.NotFound("thread")
	}
	thread.StepOver()
	return struct{}{}, nil
}

func (h *Host) stepIn(s *dap.Session, args any) (any, error) {
	var req dap.StepInArguments
	if err := decodeArgs(args, &req); err != nil {
		return nil, dap.NewFailure(dap.InvalidArgumentsError, err.Error())
	}
	h.received("stepIn", logrus.Fields{"threadID": req.ThreadID})
	lock := h.Ctx.Lock()
	thread := lock.GetThread(debug.ID[debug.Thread](req.ThreadID))
	lock.Unlock()
	if thread == nil {
		return nil, dap.NotFound("thread")
	}
	thread.StepIn()
	return struct{}{}, nil
}

func (h *Host) stepOut(s *dap.Session, args any) (any, error) {
	var req dap.StepOutArguments
	if err := decodeArgs(args, &req); err != nil {
		return nil, dap.NewFailure(dap.InvalidArgumentsError, err.Error())
	}
	h.received("stepOut", logrus.Fields{"threadID": req.ThreadID})
	lock := h.Ctx.Lock()
	thread := lock.GetThread(debug.ID[debug.Thread](req.ThreadID))
	lock.Unlock()
	if thread == nil {
		return nil, dap.NotFound("thread")
	}
	thread.StepOut()
	return struct{}{}, nil
}

func (h *Host) evaluate(s *dap.Session, args any) (any, error) {
	var req dap.EvaluateArguments
	if err := decodeArgs(args, &req); err != nil {
		return nil, dap.NewFailure(dap.InvalidArgumentsError, err.Error())
	}
	h.received("evaluate", logrus.Fields{"expression": req.Expression})
	frameID, ok := req.FrameID.Get()
	if !ok {
		return nil, dap.FailedEvaluate(req.Expression)
	}

	lock := h.Ctx.Lock()
	frame := lock.GetFrame(debug.ID[debug.Frame](frameID))
	lock.Unlock()
	if frame == nil {
		return nil, dap.FailedEvaluate(req.Expression)
	}

	// Precedence per §4.8/§8 scenario 6: locals, then arguments, then registers.
	scopes := []*debug.Scope{frame.Locals, frame.Arguments, frame.Registers}
	var found debug.Variable
	ok = false
	for _, sc := range scopes {
		if sc == nil {
			continue
		}
		if sc.Variables.Find(req.Expression, func(v debug.Variable) { found = v }) {
			ok = true
			break
		}
	}
	if !ok {
		return nil, dap.FailedEvaluate(req.Expression)
	}

	resp := dap.EvaluateResponseBody{Result: found.Value.String()}
	if found.Value != nil {
		resp.Type = wire.Some(found.Value.Kind().String())
		if vc, isContainer := found.Value.(*debug.VariableContainer); isContainer {
			resp.VariablesReference = int64(vc.ID)
		}
	}
	return resp, nil
}

func (h *Host) disconnect(s *dap.Session, args any) (any, error) {
	h.received("disconnect", nil)
	return struct{}{}, nil
}

func (h *Host) launch(s *dap.Session, args any) (any, error) {
	h.received("launch", nil)
	return struct{}{}, nil
}

// eventTranslator implements debug.EventListener by turning a Thread's
// own state-change callbacks into the DAP StoppedEvent/ThreadEvent pairs
// a connected session expects (§4.6 "The Session subscribes to
// translate these into DAP StoppedEvent / ThreadEvent").
type eventTranslator struct {
	listener *dap.ServerListener
}

// NewEventTranslator returns a debug.EventListener that broadcasts DAP
// events for every thread state change to every session on listener.
func NewEventTranslator(listener *dap.ServerListener) debug.EventListener {
	return &eventTranslator{listener: listener}
}

func (t *eventTranslator) OnThreadStarted(id debug.ID[debug.Thread]) {
	t.listener.Broadcast("thread", dap.ThreadEventBody{Reason: "started", ThreadID: int64(id)})
}

func (t *eventTranslator) OnThreadStepped(id debug.ID[debug.Thread]) {
	t.listener.Broadcast("stopped", dap.StoppedEventBody{
		Reason:   "step",
		ThreadID: wire.Some(int64(id)),
	})
}

func (t *eventTranslator) OnLineBreakpointHit(id debug.ID[debug.Thread]) {
	t.listener.Broadcast("stopped", dap.StoppedEventBody{
		Reason:   "breakpoint",
		ThreadID: wire.Some(int64(id)),
	})
}

func (t *eventTranslator) OnFunctionBreakpointHit(id debug.ID[debug.Thread]) {
	t.listener.Broadcast("stopped", dap.StoppedEventBody{
		Reason:   "function breakpoint",
		ThreadID: wire.Some(int64(id)),
	})
}

func toSource(f *debug.File, name string) dap.Source {
	src := dap.Source{Name: wire.Some(name)}
	if f.IsVirtual() {
		src.SourceReference = wire.Some(int64(f.ID))
	} else {
		src.Path = wire.Some(f.Path())
	}
	return src
}
