package debug

// Location pins a point of execution to a line of a File.
type Location struct {
	File *File
	Line int
}

// Scope groups one VariableContainer with the File it's shown relative
// to, so a stackTrace/scopes pair can be projected onto the wire without
// the handler re-deriving which file a frame's locals belong to.
type Scope struct {
	ID        ID[Scope]
	File      *File
	Variables *VariableContainer
}

// Frame is one entry in a Thread's call stack: its current source
// location plus its three standard scopes.
type Frame struct {
	ID       ID[Frame]
	Function string
	Location Location

	Arguments *Scope
	Locals    *Scope
	Registers *Scope
}
