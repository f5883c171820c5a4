package dap

import "github.com/ben-clayton/gpudbg/internal/wire"

func init() {
	for _, err := range []error{
		wire.Register[ProtocolMessage](),
		wire.Register[Request](),
		wire.Register[Response](),
		wire.Register[ErrorResponse](),
		wire.Register[Event](),
		wire.Register[Source](),
		wire.Register[Breakpoint](),
		wire.Register[SourceBreakpoint](),
		wire.Register[FunctionBreakpoint](),
		wire.Register[StackFrame](),
		wire.Register[Scope](),
		wire.Register[Variable](),
		wire.Register[Thread](),

		wire.Register[InitializeRequestArguments](),
		wire.Register[InitializeResponseBody](),
		wire.Register[LaunchRequestArguments](),
		wire.Register[DisconnectRequestArguments](),
		wire.Register[SetBreakpointsArguments](),
		wire.Register[SetBreakpointsResponseBody](),
		wire.Register[SetFunctionBreakpointsArguments](),
		wire.Register[SetFunctionBreakpointsResponseBody](),
		wire.Register[SetExceptionBreakpointsArguments](),
		wire.Register[ThreadsResponseBody](),
		wire.Register[StackTraceArguments](),
		wire.Register[StackTraceResponseBody](),
		wire.Register[ScopesArguments](),
		wire.Register[ScopesResponseBody](),
		wire.Register[VariablesArguments](),
		wire.Register[VariablesResponseBody](),
		wire.Register[SourceArguments](),
		wire.Register[SourceResponseBody](),
		wire.Register[PauseArguments](),
		wire.Register[ContinueArguments](),
		wire.Register[ContinueResponseBody](),
		wire.Register[NextArguments](),
		wire.Register[StepInArguments](),
		wire.Register[StepOutArguments](),
		wire.Register[EvaluateArguments](),
		wire.Register[EvaluateResponseBody](),

		wire.Register[StoppedEventBody](),
		wire.Register[ThreadEventBody](),
	} {
		if err != nil {
			panic(err)
		}
	}
}

// ProtocolMessage is the envelope every message — request, response or
// event — shares (§4.4 "Sequence field semantics", §6 wire protocol).
type ProtocolMessage struct {
	Seq  int    `dap:"seq"`
	Type string `dap:"type"`
}

// Request (peer -> us, or us -> peer) per §4.4.
type Request struct {
	Seq       int    `dap:"seq"`
	Type      string `dap:"type"`
	Command   string `dap:"command"`
	Arguments any    `dap:"arguments"`
}

// Response (peer -> us, or us -> peer) per §4.4.
type Response struct {
	Seq        int                  `dap:"seq"`
	Type       string               `dap:"type"`
	RequestSeq int                  `dap:"request_seq"`
	Success    bool                 `dap:"success"`
	Command    string               `dap:"command"`
	Message    wire.OptionalField[string] `dap:"message"`
	Body       any                  `dap:"body"`
}

// ErrorResponse is a Response with Success == false (§7 "Semantic
// not-found" / "Evaluate-miss" dispositions).
type ErrorResponse struct {
	Seq        int    `dap:"seq"`
	Type       string `dap:"type"`
	RequestSeq int    `dap:"request_seq"`
	Success    bool   `dap:"success"`
	Command    string `dap:"command"`
	Message    string `dap:"message"`
}

// Event (us -> peer) per §4.4.
type Event struct {
	Seq   int    `dap:"seq"`
	Type  string `dap:"type"`
	Event string `dap:"event"`
	Body  any    `dap:"body"`
}

// Source projects a File onto the wire (§4.8 "Source projection"): a
// virtual file carries SourceReference, a physical one carries Path.
type Source struct {
	Name            wire.OptionalField[string] `dap:"name"`
	Path            wire.OptionalField[string] `dap:"path"`
	SourceReference wire.OptionalField[int64]  `dap:"sourceReference"`
}

type SourceBreakpoint struct {
	Line int `dap:"line"`
}

type FunctionBreakpoint struct {
	Name string `dap:"name"`
}

type Breakpoint struct {
	Verified bool                        `dap:"verified"`
	Source   wire.OptionalField[Source]   `dap:"source"`
	Line     wire.OptionalField[int64]    `dap:"line"`
}

type StackFrame struct {
	ID     int64                     `dap:"id"`
	Name   string                    `dap:"name"`
	Line   int64                     `dap:"line"`
	Column int64                     `dap:"column"`
	Source wire.OptionalField[Source] `dap:"source"`
}

type Scope struct {
	Name               string `dap:"name"`
	VariablesReference int64  `dap:"variablesReference"`
}

type Variable struct {
	Name               string `dap:"name"`
	Value              string `dap:"value"`
	Type               wire.OptionalField[string] `dap:"type"`
	EvaluateName       wire.OptionalField[string] `dap:"evaluateName"`
	VariablesReference int64                      `dap:"variablesReference"`
}

type Thread struct {
	ID   int64  `dap:"id"`
	Name string `dap:"name"`
}

// --- initialize ------------------------------------------------------------

type InitializeRequestArguments struct {
	ClientID wire.OptionalField[string] `dap:"clientID"`
}

type InitializeResponseBody struct {
	SupportsFunctionBreakpoints      bool `dap:"supportsFunctionBreakpoints"`
	SupportsConfigurationDoneRequest bool `dap:"supportsConfigurationDoneRequest"`
}

// --- launch / disconnect ---------------------------------------------------

type LaunchRequestArguments struct {
	NoDebug wire.OptionalField[bool] `dap:"noDebug"`
}

type DisconnectRequestArguments struct {
	Restart wire.OptionalField[bool] `dap:"restart"`
}

// --- breakpoints ------------------------------------------------------------

type SetBreakpointsArguments struct {
	Source      Source                                     `dap:"source"`
	Breakpoints wire.OptionalField[[]SourceBreakpoint]      `dap:"breakpoints"`
}

type SetBreakpointsResponseBody struct {
	Breakpoints []Breakpoint `dap:"breakpoints"`
}

type SetFunctionBreakpointsArguments struct {
	Breakpoints []FunctionBreakpoint `dap:"breakpoints"`
}

type SetFunctionBreakpointsResponseBody struct {
	Breakpoints []Breakpoint `dap:"breakpoints"`
}

type SetExceptionBreakpointsArguments struct {
	Filters []string `dap:"filters"`
}

// --- threads / stack / scopes / variables ----------------------------------

type ThreadsResponseBody struct {
	Threads []Thread `dap:"threads"`
}

type StackTraceArguments struct {
	ThreadID int64                     `dap:"threadId"`
	StartFrame wire.OptionalField[int64] `dap:"startFrame"`
	Levels     wire.OptionalField[int64] `dap:"levels"`
}

type StackTraceResponseBody struct {
	StackFrames []StackFrame `dap:"stackFrames"`
	TotalFrames wire.OptionalField[int64] `dap:"totalFrames"`
}

type ScopesArguments struct {
	FrameID int64 `dap:"frameId"`
}

type ScopesResponseBody struct {
	Scopes []Scope `dap:"scopes"`
}

type VariablesArguments struct {
	VariablesReference int64                     `dap:"variablesReference"`
	Start              wire.OptionalField[int64] `dap:"start"`
	Count              wire.OptionalField[int64] `dap:"count"`
}

type VariablesResponseBody struct {
	Variables []Variable `dap:"variables"`
}

// --- source -----------------------------------------------------------------

type SourceArguments struct {
	SourceReference int64 `dap:"sourceReference"`
}

type SourceResponseBody struct {
	Content string `dap:"content"`
}

// --- execution control -------------------------------------------------------

type PauseArguments struct {
	ThreadID int64 `dap:"threadId"`
}

type ContinueArguments struct {
	ThreadID int64 `dap:"threadId"`
}

type ContinueResponseBody struct {
	AllThreadsContinued wire.OptionalField[bool] `dap:"allThreadsContinued"`
}

type NextArguments struct {
	ThreadID int64 `dap:"threadId"`
}

type StepInArguments struct {
	ThreadID int64 `dap:"threadId"`
}

type StepOutArguments struct {
	ThreadID int64 `dap:"threadId"`
}

type EvaluateArguments struct {
	Expression string                    `dap:"expression"`
	FrameID    wire.OptionalField[int64] `dap:"frameId"`
}

type EvaluateResponseBody struct {
	Result string `dap:"result"`
	Type   wire.OptionalField[string] `dap:"type"`
	VariablesReference int64 `dap:"variablesReference"`
}

// --- events -------------------------------------------------------------------

type StoppedEventBody struct {
	Reason           string                   `dap:"reason"`
	ThreadID         wire.OptionalField[int64] `dap:"threadId"`
	AllThreadsStopped wire.OptionalField[bool] `dap:"allThreadsStopped"`
}

type ThreadEventBody struct {
	Reason   string `dap:"reason"`
	ThreadID int64  `dap:"threadId"`
}
