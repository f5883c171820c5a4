// Package debug implements the host-facing debuggee model: threads,
// stack frames, variables, files and breakpoints, plus the DebugContext
// that owns their registries and broadcasts state-change events to
// connected DAP sessions. It is the Go shape of the original's
// vk::dbg::* types (Thread, Frame, File, VariableContainer, Context),
// generalized from a single GPU shader debugger to a generic in-process
// debuggee host.
package debug

import "sync/atomic"

// ID is a strongly typed, monotonically increasing identifier. Using a
// generic wrapper instead of a bare int64 per entity kind is the Go
// analogue of the original's `template <typename T> class ID`, which
// made it a compile error to pass a Thread::ID where a Frame::ID was
// expected — an int64 alone can't catch that.
type ID[T any] int64

// idAllocator hands out increasing IDs of one kind, starting at 1 so the
// zero value of ID[T] is never a valid, issued id and can serve as a
// sentinel for "none".
type idAllocator[T any] struct {
	next atomic.Int64
}

func newIDAllocator[T any]() *idAllocator[T] {
	a := &idAllocator[T]{}
	a.next.Store(0)
	return a
}

func (a *idAllocator[T]) alloc() ID[T] {
	return ID[T](a.next.Add(1))
}
